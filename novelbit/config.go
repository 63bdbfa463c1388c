package novelbit

import (
	"os"
	"strconv"
	"time"

	"novelbit/fingerprint"
)

// DefaultMaxRunes bounds text fed to the digest, whose cost grows with the
// square of the length.
const DefaultMaxRunes = 10000

type StorageConfig struct {
	Dialect string
}

type AutosaveConfig struct {
	Workers int
	Queue   int
}

type Config struct {
	// Base and Buckets parameterize the default fingerprint.Computer.
	Base    float64
	Buckets int
	// Prefix is prepended before encoding. Empty means none.
	Prefix string

	ListLimit    int
	MaxListLimit int
	SearchLimit  int

	// MaxRunes rejects longer texts before fingerprinting. 0 disables it.
	MaxRunes int

	Timeout  time.Duration
	Storage  StorageConfig
	Autosave AutosaveConfig
}

func newConfig() *Config {
	c := &Config{
		Base:         fingerprint.DefaultBase,
		Buckets:      fingerprint.DefaultBuckets,
		ListLimit:    100,
		MaxListLimit: 1000,
		SearchLimit:  50,
		MaxRunes:     DefaultMaxRunes,
		Timeout:      10 * time.Second,
		Autosave: AutosaveConfig{
			Workers: 4,
			Queue:   256,
		},
	}
	if os.Getenv("NOVELBIT_LEGACY_PREFIX") == "1" {
		c.Prefix = fingerprint.LegacyServerPrefix
	}
	if v, err := strconv.Atoi(os.Getenv("NOVELBIT_MAX_RUNES")); err == nil && v >= 0 {
		c.MaxRunes = v
	}
	if d, err := time.ParseDuration(os.Getenv("NOVELBIT_TIMEOUT")); err == nil && d > 0 {
		c.Timeout = d
	}
	return c
}

func (c *Config) fingerprintOptions() []fingerprint.Option {
	opts := []fingerprint.Option{
		fingerprint.WithBase(c.Base),
		fingerprint.WithBuckets(c.Buckets),
	}
	if c.Prefix != "" {
		opts = append(opts, fingerprint.WithPrefix(c.Prefix))
	}
	return opts
}

// clampLimit applies the list default and ceiling.
func (c *Config) clampLimit(limit int) int {
	if limit <= 0 {
		limit = c.ListLimit
	}
	if c.MaxListLimit > 0 && limit > c.MaxListLimit {
		limit = c.MaxListLimit
	}
	return limit
}
