package fingerprint

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

const delta = 1e-9

func TestDigest_Degenerate(t *testing.T) {
	calc := NewCalculator()
	assert.Equal(t, DefaultBase/100, calc.Digest(nil, false))
	assert.Equal(t, DefaultBase/100, calc.Digest([]uint64{6_000_065}, true))

	custom := Calculator{Base: 10, Buckets: DefaultBuckets}
	assert.Equal(t, 0.1, custom.Digest([]uint64{1}, false))
}

func TestDigest_Golden(t *testing.T) {
	cases := []struct {
		text     string
		max, min float64
	}{
		{"AB", 5.39, -5.5},
		{"hello", 0.027499999999999997, 6.875},
		{"가나다", 0.055, 8.25},
		{"Chapter 1", 4.794166666666666, 1.4070833333333335},
		{"Novel → Chapter 1 → Characters", 4.168114942528738, 1.5253333333333332},
	}
	calc := NewCalculator()
	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			w := Encode(tc.text)
			assert.InDelta(t, tc.max, calc.Digest(w, false), delta)
			assert.InDelta(t, tc.min, calc.Digest(w, true), delta)
		})
	}
}

func TestDigest_BucketResolutionMatters(t *testing.T) {
	w := Encode("hello")
	fine := Calculator{Base: DefaultBase, Buckets: 200}
	assert.InDelta(t, 0.006874999999999999, fine.Digest(w, false), delta)
	assert.InDelta(t, 6.875, fine.Digest(w, true), delta)
}

func TestDigest_PackageFunc(t *testing.T) {
	w := Encode("hello")
	assert.Equal(t, NewCalculator().Digest(w, true), Digest(w, DefaultBase, true))
}

func TestValidate(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
		ok   bool
	}{
		{1.5, 1.5, true},
		{-100, -100, true},
		{100, 100, true},
		{100.0001, Fallback, false},
		{-250, Fallback, false},
		{math.NaN(), Fallback, false},
		{math.Inf(1), Fallback, false},
		{math.Inf(-1), Fallback, false},
	}
	for _, tc := range cases {
		got, ok := Validate(tc.in)
		assert.Equal(t, tc.ok, ok, "input %v", tc.in)
		assert.Equal(t, tc.want, got, "input %v", tc.in)
	}
}

func TestValidate_NoMemo(t *testing.T) {
	_, _ = Validate(42)
	got, ok := Validate(math.NaN())
	assert.False(t, ok)
	assert.Equal(t, Fallback, got, "a previous valid digest must not leak into the fallback")
}
