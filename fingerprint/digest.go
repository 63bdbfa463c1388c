package fingerprint

import "math"

const (
	// DefaultBase is the digest scale used when none is configured.
	DefaultBase = 5.5

	// DefaultBuckets is the number of quantization slots per element.
	DefaultBuckets = 50

	// Limit bounds a valid digest to [-Limit, Limit].
	Limit = 100.0

	// Fallback replaces any digest that fails validation.
	Fallback = 0.0
)

// Calculator reduces a weighted sequence to a scalar digest.
type Calculator struct {
	Base    float64
	Buckets int
}

// NewCalculator returns a Calculator with the default base and bucket count.
func NewCalculator() Calculator {
	return Calculator{Base: DefaultBase, Buckets: DefaultBuckets}
}

type slots struct {
	a50    []float64
	a100   []float64
	b50    []float64
	b100   []float64
	nba100 []float64
}

func newSlots(n int) *slots {
	return &slots{
		a50:    make([]float64, n),
		a100:   make([]float64, n),
		b50:    make([]float64, n),
		b100:   make([]float64, n),
		nba100: make([]float64, n),
	}
}

// Digest computes the raw, unvalidated digest of weighted.
//
// The work is O(Buckets * N^2) in the sequence length N.
func (c Calculator) Digest(weighted []uint64, reversed bool) float64 {
	base := c.Base
	n := len(weighted)
	if n < 2 {
		return base / 100
	}
	buckets := c.Buckets
	if buckets <= 0 {
		buckets = DefaultBuckets
	}

	values := make([]float64, n)
	for i, w := range weighted {
		values[i] = float64(w)
	}

	hi, lo := values[0], values[0]
	for _, v := range values[1:] {
		hi = math.Max(hi, v)
		lo = math.Min(lo, v)
	}
	positiveRange := math.Max(hi, 0)
	negativeRange := 0.0
	if lo < 0 {
		negativeRange = math.Abs(lo)
	}

	total := buckets * n
	denom := float64(total - 1)
	if denom < 1 {
		denom = 1
	}
	posInc := positiveRange / denom
	negInc := negativeRange / denom

	s := newSlots(total)
	count := 0
	for _, v := range values {
		// The negative band is unreachable for encoder output, which is
		// never below zero.
		inc := posInc
		if v < 0 {
			inc = negInc
		}
		for i := 0; i < buckets; i++ {
			step := float64(count + 1)
			s.a50[count] = lo + inc*step
			s.a100[count] = step * base / float64(total)
			s.b50[count] = s.a50[count] - 2*inc
			s.b100[count] = s.a50[count] + inc
			s.nba100[count] = s.a100[count] / float64(n-1)
			count++
		}
	}

	// Only the contribution weights are mirrored for the min digest; the
	// bands stay in ascending order.
	if reversed {
		for i, j := 0, total-1; i < j; i, j = i+1, j-1 {
			s.nba100[i], s.nba100[j] = s.nba100[j], s.nba100[i]
		}
	}

	var sum float64
	for _, v := range values {
		for a := 0; a < total; a++ {
			if s.b50[a] <= v && v <= s.b100[a] {
				sum += s.nba100[min(a, total-1)]
				break
			}
		}
	}

	if n == 2 {
		return base - sum
	}
	return sum
}

// Validate reports whether v is a usable digest. Invalid values are replaced
// by Fallback. No state is kept between calls.
func Validate(v float64) (float64, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v > Limit || v < -Limit {
		return Fallback, false
	}
	return v, true
}

// Max is the validated forward digest of weighted.
func (c Calculator) Max(weighted []uint64) (float64, bool) {
	return Validate(c.Digest(weighted, false))
}

// Min is the validated reversed digest of weighted.
func (c Calculator) Min(weighted []uint64) (float64, bool) {
	return Validate(c.Digest(weighted, true))
}

// Digest runs the default Calculator with the given base.
func Digest(weighted []uint64, base float64, reversed bool) float64 {
	return Calculator{Base: base, Buckets: DefaultBuckets}.Digest(weighted, reversed)
}
