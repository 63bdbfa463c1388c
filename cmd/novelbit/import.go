package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"novelbit/legacy"
)

type ImportCommand struct {
	pattern  string
	keepBits bool
	workers  int
	noBar    bool
}

func NewImportCmd() *cobra.Command {
	c := &ImportCommand{}
	cmd := &cobra.Command{
		Use:   "import <data-dir>",
		Short: "Import NDJSON logs written by the legacy file-tree server",
		Long: `Import the append-only logs of the legacy file-tree server.

Each line is re-saved through the normal save path, so lines already in
the store are reported as duplicates. Fingerprints are recomputed unless
--keep-bits is given.

Examples:
  novelbit import ./data
  novelbit import ./data --glob "max/4/**/max_bit/*.ndjson" --keep-bits`,
		Args: cobra.ExactArgs(1),
		RunE: c.run,
	}
	cmd.Flags().StringVar(&c.pattern, "glob", legacy.DefaultPattern, "Doublestar pattern, relative to data-dir")
	cmd.Flags().BoolVar(&c.keepBits, "keep-bits", false, "Store the logged fingerprints instead of recomputing")
	cmd.Flags().IntVarP(&c.workers, "workers", "w", 4, "Files imported in parallel")
	cmd.Flags().BoolVar(&c.noBar, "no-progress", false, "Disable the progress bar")
	return cmd
}

func (c *ImportCommand) run(cmd *cobra.Command, args []string) error {
	files, err := legacy.Find(args[0], c.pattern)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no files match %q under %s", c.pattern, args[0])
	}

	a, _, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer closeApp(a)

	opts := legacy.Options{KeepBits: c.keepBits, Workers: c.workers}
	if !c.noBar && c.shouldUseProgressBar(cmd) {
		bar := createProgressBar("Importing", len(files), cmd.ErrOrStderr())
		opts.OnFile = func(string) { _ = bar.Add(1) }
		defer func() { _ = bar.Finish() }()
	}

	rep, err := legacy.Import(cmd.Context(), a.Novelbit, files, opts)
	slog.Info("import finished",
		"files", rep.Files,
		"lines", rep.Lines,
		"saved", rep.Saved,
		"duplicates", rep.Duplicates,
		"skipped", rep.Skipped,
	)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d files, %d lines: %d saved, %d duplicates, %d skipped\n",
		rep.Files, rep.Lines, rep.Saved, rep.Duplicates, rep.Skipped)
	return nil
}

// shouldUseProgressBar reports whether stderr is a terminal.
func (c *ImportCommand) shouldUseProgressBar(cmd *cobra.Command) bool {
	if f, ok := cmd.ErrOrStderr().(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}

func createProgressBar(description string, max int, w io.Writer) *progressbar.ProgressBar {
	return progressbar.NewOptions(max,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(50),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionSetWriter(w),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(w)
		}),
	)
}
