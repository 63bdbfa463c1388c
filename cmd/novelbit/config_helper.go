package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"novelbit/app"
	"novelbit/config"
)

// loadConfig reads the config file and applies persistent flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := cmd.Flags()
	path, _ := flags.GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if flags.Changed("dialect") {
		cfg.Storage.Dialect, _ = flags.GetString("dialect")
	}
	if flags.Changed("dsn") {
		cfg.Storage.DSN, _ = flags.GetString("dsn")
	}
	if flags.Changed("log-level") {
		cfg.Log.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("legacy-prefix") {
		cfg.Fingerprint.LegacyPrefix, _ = flags.GetBool("legacy-prefix")
	}
	return cfg, cfg.Validate()
}

// openApp loads configuration and opens the store. Logs go to stderr so
// command output on stdout stays machine-readable.
func openApp(cmd *cobra.Command) (*app.App, *config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	logger := app.NewLogger(cfg.Log, cmd.ErrOrStderr())
	slog.SetDefault(logger)

	a, err := app.Open(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return a, cfg, nil
}

func closeApp(a *app.App) {
	if err := a.Close(context.Background()); err != nil {
		slog.Warn("close failed", "error", err)
	}
}
