// Package fingerprint reduces text to a (max, min) pair of floats.
//
// Text is encoded into weighted codepoints (see Blocks), then digested twice
// by a fixed bucket quantizer: once in ascending order for Max and once with
// mirrored contribution weights for Min. The procedure is deterministic and
// stateless, so a fingerprint can serve as a content-derived address.
package fingerprint

import (
	"context"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Epsilon is the tolerance for comparing fingerprints. Values that crossed a
// JSON or query-string boundary lose precision, so exact float equality is
// never used.
const Epsilon = 1e-10

// Fingerprint is the digest pair of one string.
type Fingerprint struct {
	Max float64 `json:"max"`
	Min float64 `json:"min"`
}

// Close reports whether a and b are within Epsilon.
func Close(a, b float64) bool {
	return math.Abs(a-b) < Epsilon
}

// Equal compares both axes within Epsilon.
func (f Fingerprint) Equal(o Fingerprint) bool {
	return Close(f.Max, o.Max) && Close(f.Min, o.Min)
}

// Valid reports whether both axes are finite and inside [-Limit, Limit].
func (f Fingerprint) Valid() bool {
	_, okMax := Validate(f.Max)
	_, okMin := Validate(f.Min)
	return okMax && okMin
}

// Result is a fingerprint together with the encoded length. Valid is false
// when either axis was replaced by Fallback.
type Result struct {
	Fingerprint
	Length int  `json:"length"`
	Valid  bool `json:"valid"`
}

// Fingerprinter computes fingerprints. Implementations must be safe for
// concurrent use.
type Fingerprinter interface {
	FingerprintText(ctx context.Context, text string) (Result, error)
	FingerprintTexts(ctx context.Context, texts []string) ([]Result, error)
	Provider() string
}

// Computer is the in-process Fingerprinter.
type Computer struct {
	enc  *Encoder
	calc Calculator
}

type Option func(*Computer)

// WithBase sets the digest base.
func WithBase(base float64) Option {
	return func(c *Computer) { c.calc.Base = base }
}

// WithBuckets sets the per-element bucket resolution.
func WithBuckets(n int) Option {
	return func(c *Computer) { c.calc.Buckets = n }
}

// WithPrefix enables prefixing before encoding.
func WithPrefix(prefix string) Option {
	return func(c *Computer) { c.enc = NewEncoder(prefix) }
}

func New(opts ...Option) *Computer {
	c := &Computer{
		enc:  NewEncoder(""),
		calc: NewCalculator(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compute fingerprints text. It never fails: empty text yields the
// degenerate Base/100 on both axes and invalid digests yield Fallback.
func (c *Computer) Compute(text string) Result {
	weighted := c.enc.Encode(text)
	hi, okMax := c.calc.Max(weighted)
	lo, okMin := c.calc.Min(weighted)
	return Result{
		Fingerprint: Fingerprint{Max: hi, Min: lo},
		Length:      len(weighted),
		Valid:       okMax && okMin,
	}
}

func (c *Computer) FingerprintText(ctx context.Context, text string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	return c.Compute(text), nil
}

// FingerprintTexts computes all texts in parallel, bounded by GOMAXPROCS.
func (c *Computer) FingerprintTexts(ctx context.Context, texts []string) ([]Result, error) {
	out := make([]Result, len(texts))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, text := range texts {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i] = c.Compute(text)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Computer) Provider() string { return "local" }

// Compute fingerprints text with the default Computer.
func Compute(text string) Result {
	return New().Compute(text)
}
