package fingerprint

// Block is a contiguous Unicode range whose codepoints are shifted by Offset
// before digesting, so that scripts occupy disjoint numeric bands.
type Block struct {
	Name   string
	Lo, Hi rune
	Offset uint64
}

// Blocks is the ordered weighting table. The first matching block wins, so
// the order is part of the encoding and must not change.
var Blocks = []Block{
	{Name: "hangul", Lo: 0xAC00, Hi: 0xD7AF, Offset: 1_000_000},
	{Name: "hiragana", Lo: 0x3040, Hi: 0x309F, Offset: 2_000_000},
	{Name: "katakana", Lo: 0x30A0, Hi: 0x30FF, Offset: 3_000_000},
	{Name: "cjk", Lo: 0x4E00, Hi: 0x9FFF, Offset: 4_000_000},
	{Name: "cyrillic", Lo: 0x0410, Hi: 0x044F, Offset: 5_000_000},
	{Name: "latin", Lo: 0x0041, Hi: 0x007A, Offset: 6_000_000},
	{Name: "hebrew", Lo: 0x0590, Hi: 0x05FF, Offset: 7_000_000},
	{Name: "latin1", Lo: 0x00C0, Hi: 0x00FD, Offset: 8_000_000},
	{Name: "thai", Lo: 0x0E00, Hi: 0x0E7F, Offset: 9_000_000},
}

// LegacyServerPrefix is the stabilizer the first storage server prepended to
// every string before encoding. Fingerprints of data written by that server
// can only be reproduced with WithPrefix(LegacyServerPrefix).
const LegacyServerPrefix = "안 녕 한 국 인 터 넷 . 한 국"

const prefixSeparator = ":"

// Encoder maps text to weighted codepoints.
type Encoder struct {
	prefix string
}

// NewEncoder returns an Encoder. An empty prefix disables prefixing.
func NewEncoder(prefix string) *Encoder {
	return &Encoder{prefix: prefix}
}

// Prefix reports the configured prefix.
func (e *Encoder) Prefix() string { return e.prefix }

// Encode returns one weight per rune of the (possibly prefixed) text.
//
// With a prefix p, empty text encodes p alone and anything else encodes
// p + ":" + text.
func (e *Encoder) Encode(text string) []uint64 {
	domain := text
	if e.prefix != "" {
		domain = e.prefix
		if text != "" {
			domain = e.prefix + prefixSeparator + text
		}
	}

	out := make([]uint64, 0, len(domain))
	for _, r := range domain {
		out = append(out, Weight(r))
	}
	return out
}

// Encode encodes text without a prefix.
func Encode(text string) []uint64 {
	return NewEncoder("").Encode(text)
}

// Weight returns the codepoint plus the offset of the first block containing it.
func Weight(r rune) uint64 {
	v := uint64(r)
	for _, b := range Blocks {
		if r >= b.Lo && r <= b.Hi {
			return v + b.Offset
		}
	}
	return v
}
