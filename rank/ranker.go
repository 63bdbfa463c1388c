// Package rank orders stored attribute names against an approximate query.
//
// A score blends fingerprint proximity with lexical matching of the query
// text and optional keywords. Matching is case-insensitive.
package rank

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"novelbit/fingerprint"
)

const (
	// Norm is the per-axis distance at which fingerprint similarity reaches 0.
	Norm = 2.0

	// MinScore is the exclusive lower bound for a candidate to be kept.
	MinScore = 0.05
)

type Query struct {
	Text        string
	Fingerprint fingerprint.Fingerprint
	Keywords    []string
}

type Candidate struct {
	Text        string                  `json:"text"`
	Fingerprint fingerprint.Fingerprint `json:"fingerprint"`
}

type Scored struct {
	Candidate
	Score float64 `json:"score"`
}

// ParseKeywords splits a comma-separated keyword list. Blank entries are
// dropped and the rest are trimmed and lowercased.
func ParseKeywords(s string) []string {
	var out []string
	for _, k := range strings.Split(s, ",") {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			out = append(out, k)
		}
	}
	return out
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// FingerprintSimilarity weights the max axis 0.6 and the min axis 0.4.
func FingerprintSimilarity(a, b fingerprint.Fingerprint) float64 {
	simMax := math.Max(0, 1-math.Abs(a.Max-b.Max)/Norm)
	simMin := math.Max(0, 1-math.Abs(a.Min-b.Min)/Norm)
	return clamp01(simMax*0.6 + simMin*0.4)
}

// TextSimilarity compares a lowercased, trimmed query against candidate text.
func TextSimilarity(query, text string) float64 {
	q := strings.ToLower(strings.TrimSpace(query))
	t := strings.ToLower(strings.TrimSpace(text))
	if q == "" || t == "" {
		return 0
	}
	switch {
	case t == q:
		return 1.0
	case strings.HasPrefix(t, q):
		return 0.95
	}
	if idx := strings.Index(t, q); idx >= 0 {
		pos := utf8.RuneCountInString(t[:idx])
		ratio := 1 - float64(pos)/float64(max(utf8.RuneCountInString(t), 1))
		return 0.8 + ratio*0.15
	}
	words := strings.Fields(q)
	if len(words) == 0 {
		return 0
	}
	matched := 0
	for _, w := range words {
		if strings.Contains(t, w) {
			matched++
		}
	}
	return float64(matched) / float64(len(words)) * 0.6
}

// KeywordBonus is unbounded here; Score caps it at 0.3.
func KeywordBonus(keywords []string, text string) float64 {
	t := strings.ToLower(strings.TrimSpace(text))
	if len(keywords) == 0 || t == "" {
		return 0
	}
	var bonus float64
	matched := 0
	for _, k := range keywords {
		if !strings.Contains(t, k) {
			continue
		}
		matched++
		if strings.Contains(t, " "+k+" ") || strings.HasPrefix(t, k) || strings.HasSuffix(t, k) {
			bonus += 0.2
		} else {
			bonus += 0.15
		}
	}
	if matched == len(keywords) {
		bonus += 0.15
	}
	return bonus
}

func combinedBonus(query string, keywords []string, text string) float64 {
	q := strings.ToLower(strings.TrimSpace(query))
	t := strings.ToLower(strings.TrimSpace(text))
	if q == "" || len(keywords) == 0 || t == "" {
		return 0
	}
	if !strings.Contains(t, q) {
		return 0
	}
	for _, k := range keywords {
		if !strings.Contains(t, k) {
			return 0
		}
	}
	if strings.HasPrefix(t, q) {
		return 0.5
	}
	return 0.35
}

// Score rates one candidate against q. Keywords are expected in the form
// ParseKeywords returns. A query without text contributes no fingerprint
// similarity, whatever q.Fingerprint holds.
func Score(q Query, c Candidate) float64 {
	var fpSim float64
	if strings.TrimSpace(q.Text) != "" {
		fpSim = FingerprintSimilarity(q.Fingerprint, c.Fingerprint)
	}
	textSim := TextSimilarity(q.Text, c.Text)
	if cb := combinedBonus(q.Text, q.Keywords, c.Text); cb > 0 {
		return math.Max(0.85, clamp01(fpSim*0.2+textSim*0.3+cb*0.5))
	}
	kb := math.Min(KeywordBonus(q.Keywords, c.Text), 0.3)
	return clamp01(fpSim*0.3 + textSim*0.4 + kb*0.3)
}

// Rank scores, filters and orders candidates. Candidates scoring at or below
// MinScore are dropped, as are candidates missing every keyword or missing
// the query text. Ties go to the shorter text.
func Rank(q Query, candidates []Candidate) []Scored {
	query := strings.ToLower(strings.TrimSpace(q.Text))
	out := make([]Scored, 0, len(candidates))
	for _, c := range candidates {
		s := Score(q, c)
		if s <= MinScore {
			continue
		}
		t := strings.ToLower(c.Text)
		if len(q.Keywords) > 0 && !containsAny(t, q.Keywords) {
			continue
		}
		if query != "" && !strings.Contains(t, query) {
			continue
		}
		out = append(out, Scored{Candidate: c, Score: s})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return utf8.RuneCountInString(out[i].Text) < utf8.RuneCountInString(out[j].Text)
	})
	return out
}

func containsAny(s string, subs []string) bool {
	for _, k := range subs {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
