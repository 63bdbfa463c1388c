// Package app wires configuration into a running novelbit store. Both
// binaries share it.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"novelbit/client"
	"novelbit/config"
	"novelbit/fingerprint"
	"novelbit/novelbit"
	"novelbit/storage"
)

// App owns a Novelbit and the connection behind it.
type App struct {
	Novelbit *novelbit.Novelbit
	conn     *storage.Conn
}

// NewLogger builds a slog.Logger from cfg writing to w.
func NewLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// Options maps cfg onto facade options. It does not touch storage.
func Options(cfg *config.Config, logger *slog.Logger) []novelbit.Option {
	opts := []novelbit.Option{
		novelbit.WithLogger(logger),
		novelbit.WithConfig(func(c *novelbit.Config) {
			c.Base = cfg.Fingerprint.Base
			c.Buckets = cfg.Fingerprint.Buckets
			c.Prefix = ""
			if cfg.Fingerprint.LegacyPrefix {
				c.Prefix = fingerprint.LegacyServerPrefix
			}
			c.MaxRunes = cfg.Fingerprint.MaxRunes
			if cfg.Storage.Timeout > 0 {
				c.Timeout = cfg.Storage.Timeout
			}
			if cfg.Autosave.Workers > 0 {
				c.Autosave.Workers = cfg.Autosave.Workers
			}
			if cfg.Autosave.Queue > 0 {
				c.Autosave.Queue = cfg.Autosave.Queue
			}
		}),
	}
	if cfg.Fingerprint.Remote != "" {
		opts = append(opts, novelbit.WithFingerprinter(client.New(cfg.Fingerprint.Remote)))
	}
	return opts
}

// Open connects to the configured store, migrates it and starts the
// autosave workers.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := storage.Connect(ctx, cfg.Storage.Dialect, cfg.Storage.DSN, cfg.Storage.Database)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.Storage.Dialect, err)
	}

	opts := append(Options(cfg, logger), novelbit.WithStorageConn(conn.Handle))
	n, err := novelbit.New(opts...)
	if err != nil {
		_ = conn.Close(ctx)
		return nil, err
	}
	if err := n.Storage.Build(ctx); err != nil {
		_ = conn.Close(ctx)
		return nil, fmt.Errorf("migrate: %w", err)
	}
	n.Autosave.Start()

	logger.Info("store ready",
		"dialect", conn.Dialect,
		"fingerprinter", n.Fingerprinter.Provider(),
	)
	return &App{Novelbit: n, conn: conn}, nil
}

// Close drains autosave and closes the connection.
func (a *App) Close(ctx context.Context) error {
	return errors.Join(a.Novelbit.Shutdown(ctx), a.conn.Close(ctx))
}
