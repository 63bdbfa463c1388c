// Package novelbit stores text fragments under hierarchical attribute paths,
// addressed by fingerprint rather than by string.
package novelbit

import (
	"context"
	"log/slog"
	"unicode/utf8"

	"novelbit/fingerprint"
	"novelbit/storage"
)

type Novelbit struct {
	Config *Config

	Storage       *storage.Manager
	Fingerprinter fingerprint.Fingerprinter
	Autosave      *AutosaveManager

	logger   *slog.Logger
	fpSet    bool
	startErr error
}

type Option func(*Novelbit)

// New builds a Novelbit. It fails when an explicitly supplied dependency is
// unusable, so misconfiguration surfaces at startup.
func New(opts ...Option) (*Novelbit, error) {
	n := &Novelbit{
		Config: newConfig(),
	}

	for _, opt := range opts {
		opt(n)
	}
	if n.startErr != nil {
		return nil, n.startErr
	}

	// Defaults
	if n.logger == nil {
		n.logger = slog.Default()
	}
	if n.Storage == nil {
		n.Storage = storage.NewManager()
	}
	if n.fpSet && n.Fingerprinter == nil {
		return nil, ErrNoFingerprinter
	}
	if n.Fingerprinter == nil {
		n.Fingerprinter = fingerprint.New(n.Config.fingerprintOptions()...)
	}
	if n.Autosave == nil {
		n.Autosave = NewAutosaveManager(n)
	}
	return n, nil
}

// WithStorageConn attaches a *sql.DB or *mongo.Database.
func WithStorageConn(conn any) Option {
	return func(n *Novelbit) {
		n.Storage = storage.NewManager()
		if err := n.Storage.Start(conn); err != nil {
			n.startErr = err
			return
		}
		n.Config.Storage.Dialect = n.Storage.Dialect()
	}
}

func WithStorage(m *storage.Manager) Option {
	return func(n *Novelbit) {
		n.Storage = m
		if m != nil {
			n.Config.Storage.Dialect = m.Dialect()
		}
	}
}

// WithFingerprinter replaces the in-process computer, for example with a
// remote client.
func WithFingerprinter(f fingerprint.Fingerprinter) Option {
	return func(n *Novelbit) {
		n.Fingerprinter = f
		n.fpSet = true
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(n *Novelbit) { n.logger = l }
}

// WithConfig applies fn to the configuration before defaults are derived.
func WithConfig(fn func(*Config)) Option {
	return func(n *Novelbit) { fn(n.Config) }
}

func (n *Novelbit) Logger() *slog.Logger { return n.logger }

// Fingerprint computes the fingerprint of text with the configured
// Fingerprinter.
func (n *Novelbit) Fingerprint(ctx context.Context, text string) (fingerprint.Result, error) {
	if err := n.CheckLength(text); err != nil {
		return fingerprint.Result{}, err
	}
	return n.Fingerprinter.FingerprintText(ctx, text)
}

// FingerprintTexts computes texts in one batch. Any text over the rune limit
// fails the whole batch.
func (n *Novelbit) FingerprintTexts(ctx context.Context, texts []string) ([]fingerprint.Result, error) {
	for _, text := range texts {
		if err := n.CheckLength(text); err != nil {
			return nil, err
		}
	}
	return n.Fingerprinter.FingerprintTexts(ctx, texts)
}

// CheckLength returns ErrTooLong when text exceeds Config.MaxRunes.
func (n *Novelbit) CheckLength(text string) error {
	if n.Config.MaxRunes > 0 && utf8.RuneCountInString(text) > n.Config.MaxRunes {
		return ErrTooLong
	}
	return nil
}

func (n *Novelbit) repos() (storage.Repos, error) {
	if n.Storage == nil || n.Storage.Driver() == nil {
		return nil, ErrNoStorage
	}
	return n.Storage.Driver(), nil
}

func (n *Novelbit) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if n.Config.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, n.Config.Timeout)
}

func bitsOf(fp fingerprint.Fingerprint) storage.Bits {
	return storage.Bits{Max: fp.Max, Min: fp.Min, Eps: fingerprint.Epsilon}
}

// Shutdown drains the autosave queue.
func (n *Novelbit) Shutdown(ctx context.Context) error {
	return n.Autosave.Shutdown(ctx)
}
