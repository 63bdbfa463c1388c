package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"novelbit/fingerprint"
)

func candidates(texts ...string) []Candidate {
	out := make([]Candidate, len(texts))
	for i, t := range texts {
		out[i] = Candidate{Text: t, Fingerprint: fingerprint.Compute(t).Fingerprint}
	}
	return out
}

func TestRank_ChapterOrdering(t *testing.T) {
	q := Query{Text: "Chapter 1", Fingerprint: fingerprint.Compute("Chapter 1").Fingerprint}
	got := Rank(q, candidates("Chapter 2", "Chapter 1: Intro", "Chapter 1"))

	require.Len(t, got, 2)
	assert.Equal(t, "Chapter 1", got[0].Text)
	assert.Equal(t, "Chapter 1: Intro", got[1].Text)
	assert.InDelta(t, 0.7, got[0].Score, 1e-12)
	assert.Greater(t, got[0].Score, got[1].Score)
}

func TestRank_KeywordsRequired(t *testing.T) {
	q := Query{
		Text:        "novel",
		Fingerprint: fingerprint.Compute("novel").Fingerprint,
		Keywords:    ParseKeywords("characters"),
	}
	got := Rank(q, candidates(
		"Novel → Chapter 1 → Characters",
		"Novel → Chapter 1 → Plot",
	))
	require.Len(t, got, 1)
	assert.Equal(t, "Novel → Chapter 1 → Characters", got[0].Text)
	// query prefix plus every keyword present
	assert.GreaterOrEqual(t, got[0].Score, 0.85)
}

func TestRank_TieBreakShorterFirst(t *testing.T) {
	fp := fingerprint.Fingerprint{Max: 1, Min: 1}
	q := Query{Fingerprint: fp, Keywords: []string{"x"}}
	got := Rank(q, []Candidate{
		{Text: "x long", Fingerprint: fp},
		{Text: "x", Fingerprint: fp},
	})
	require.Len(t, got, 2)
	assert.Equal(t, got[0].Score, got[1].Score)
	assert.Equal(t, "x", got[0].Text)
}

func TestRank_KeywordOnlyIgnoresFingerprint(t *testing.T) {
	got := Rank(Query{Keywords: []string{"a"}}, []Candidate{
		{Text: "ab", Fingerprint: fingerprint.Fingerprint{}},
		{Text: "a", Fingerprint: fingerprint.Fingerprint{Max: 5.39, Min: -5.5}},
	})
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Text)
	assert.InDelta(t, got[0].Score, got[1].Score, 1e-12)
	assert.InDelta(t, 0.09, got[0].Score, 1e-12)
}

func TestRank_DropsLowScores(t *testing.T) {
	q := Query{Fingerprint: fingerprint.Fingerprint{Max: 50, Min: 50}}
	got := Rank(q, []Candidate{{Text: "far", Fingerprint: fingerprint.Fingerprint{}}})
	assert.Empty(t, got)
}

func TestRank_Empty(t *testing.T) {
	assert.Empty(t, Rank(Query{Text: "a"}, nil))
}

func TestParseKeywords(t *testing.T) {
	assert.Equal(t, []string{"hero", "dark forest"}, ParseKeywords(" Hero, ,Dark Forest ,"))
	assert.Nil(t, ParseKeywords(""))
	assert.Nil(t, ParseKeywords(" , "))
}

func TestFingerprintSimilarity(t *testing.T) {
	a := fingerprint.Fingerprint{Max: 3, Min: 2}
	assert.Equal(t, 1.0, FingerprintSimilarity(a, a))
	assert.InDelta(t, 0.7, FingerprintSimilarity(a, fingerprint.Fingerprint{Max: 4, Min: 2}), 1e-12)
	assert.Equal(t, 0.0, FingerprintSimilarity(a, fingerprint.Fingerprint{Max: 10, Min: -10}))
}

func TestTextSimilarity(t *testing.T) {
	cases := []struct {
		query, text string
		want        float64
	}{
		{"Chapter", "chapter", 1.0},
		{"  chapter ", "Chapter 3", 0.95},
		{"chapter", "My Chapter", 0.905},
		{"chapter two", "two of chapters", 0.6},
		{"chapter nine", "chapter one", 0.3},
		{"zzz", "chapter", 0},
		{"", "chapter", 0},
	}
	for _, tc := range cases {
		assert.InDelta(t, tc.want, TextSimilarity(tc.query, tc.text), 1e-12, "%q vs %q", tc.query, tc.text)
	}
}

func TestTextSimilarity_RunePosition(t *testing.T) {
	// position counts runes: "가나" precedes the match
	assert.InDelta(t, 0.8+(1-2.0/4.0)*0.15, TextSimilarity("다라", "가나다라"), 1e-12)
}

func TestKeywordBonus(t *testing.T) {
	assert.InDelta(t, 0.5, KeywordBonus([]string{"hero", "sword"}, "The hero's sword"), 1e-12)
	assert.InDelta(t, 0.15, KeywordBonus([]string{"hero", "villain"}, "the hero's tale"), 1e-12)
	assert.InDelta(t, 0.35, KeywordBonus([]string{"hero"}, "hero"), 1e-12)
	assert.Equal(t, 0.0, KeywordBonus(nil, "hero"))
}

func TestScore_CombinedBonusFloor(t *testing.T) {
	q := Query{
		Text:        "chapter",
		Fingerprint: fingerprint.Fingerprint{Max: 90, Min: 90},
		Keywords:    []string{"intro"},
	}
	c := Candidate{Text: "Chapter 1: Intro", Fingerprint: fingerprint.Fingerprint{Max: -90, Min: -90}}
	assert.Equal(t, 0.85, Score(q, c))
}
