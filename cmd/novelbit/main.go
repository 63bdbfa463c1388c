package main

import (
	"os"

	"github.com/spf13/cobra"
)

// Set via ldflags.
var version = "dev"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "novelbit",
		Short: "Fingerprint-addressed attribute and data store",
		Long: `novelbit stores text fragments under hierarchical attribute paths
("Novel → Chapter 1 → Characters") addressed by a (max, min) fingerprint
instead of by string.

The serve command exposes the HTTP API. The remaining commands operate on
the configured store directly.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	f := root.PersistentFlags()
	f.StringP("config", "c", "", "Configuration file path (default: ./novelbit.{yaml,toml,json})")
	f.String("dialect", "", "Storage dialect: sqlite, postgres or mongodb")
	f.String("dsn", "", "Storage DSN or MongoDB URI")
	f.String("log-level", "", "Log level: debug, info, warn, error")
	f.Bool("legacy-prefix", false, "Prefix text with the legacy server tag before fingerprinting")

	root.AddCommand(
		NewServeCmd(),
		NewFingerprintCmd(),
		NewSaveCmd(),
		NewListCmd(),
		NewSearchCmd(),
		NewDeleteCmd(),
		NewImportCmd(),
		NewVersionCmd(),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
