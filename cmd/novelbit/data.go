package main

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"novelbit/api/models"
	"novelbit/app"
	"novelbit/novelbit"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// pathArg joins one or more path arguments; a single argument may already
// contain separators.
func pathArg(args []string) string {
	if len(args) == 1 {
		return strings.TrimSpace(args[0])
	}
	return novelbit.JoinPath(args...)
}

func NewFingerprintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fingerprint <text>...",
		Short: "Print the fingerprint of each argument",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			n, err := novelbit.New(app.Options(cfg, app.NewLogger(cfg.Log, cmd.ErrOrStderr()))...)
			if err != nil {
				return err
			}
			results, err := n.Fingerprinter.FingerprintTexts(cmd.Context(), args)
			if err != nil {
				return err
			}
			out := models.FingerprintBatchResponse{OK: true}
			for _, r := range results {
				out.Results = append(out.Results, models.NewFingerprintResponse(r))
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
}

func NewSaveCmd() *cobra.Command {
	var meta map[string]string
	cmd := &cobra.Command{
		Use:   "save <attribute-path> <text>",
		Short: "Save text under an attribute path",
		Long: `Save text under an attribute path. Both are fingerprinted with the
configured fingerprinter. Saving identical text twice is reported as a
duplicate and stores nothing.

Examples:
  novelbit save "Novel → Chapter 1 → Characters" "Alice, a cartographer"
  novelbit save "Novel → Chapter 1" "draft" --meta novelTitle=Novel --meta chapter=1`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer closeApp(a)

			var metadata map[string]any
			if len(meta) > 0 {
				metadata = make(map[string]any, len(meta))
				for k, v := range meta {
					metadata[k] = v
				}
			}
			res, err := a.Novelbit.SaveText(cmd.Context(), args[0], args[1], metadata)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), models.SaveDataResponse{
				OK:        true,
				Duplicate: res.Duplicate,
				Record:    models.NewDataItem(res.Item),
			})
		},
	}
	cmd.Flags().StringToStringVar(&meta, "meta", nil, "Metadata key=value pairs")
	return cmd
}

func NewListCmd() *cobra.Command {
	var (
		limit  int
		filter string
	)
	cmd := &cobra.Command{
		Use:   "list [attribute-path...]",
		Short: "List attributes, or the records under one attribute",
		Long: `Without arguments, list every stored attribute. With a path, list the
records stored under it, most recent first.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer closeApp(a)
			n := a.Novelbit
			ctx := cmd.Context()

			if len(args) == 0 {
				attrs, err := n.ListAttributes(ctx)
				if err != nil {
					return err
				}
				out := models.AttributesResponse{OK: true, Count: len(attrs), Attributes: make([]models.Bits, len(attrs))}
				for i, at := range attrs {
					out.Attributes[i] = models.NewBits(at.Text, at.Fingerprint)
				}
				return printJSON(cmd.OutOrStdout(), out)
			}

			fp, err := n.Fingerprint(ctx, pathArg(args))
			if err != nil {
				return err
			}
			items, err := n.ListDataMatching(ctx, fp.Fingerprint, filter, limit)
			if err != nil {
				return err
			}
			out := models.DataListResponse{OK: true, Count: len(items), Items: make([]models.DataItem, len(items))}
			for i, it := range items {
				out.Items[i] = models.NewDataItem(it)
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum records to list (default: store list limit)")
	cmd.Flags().StringVar(&filter, "attribute-text", "", "Only records whose attribute text contains this")
	return cmd
}

func NewSearchCmd() *cobra.Command {
	var (
		keywords []string
		limit    int
	)
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Rank stored attributes against a query",
		Long: `Rank stored attributes by fingerprint proximity and text similarity.

Examples:
  novelbit search "Chapter 1"
  novelbit search "Chapter" --keywords intro,prologue --limit 5`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer closeApp(a)

			q := novelbit.SearchQuery{Keywords: keywords, Limit: limit}
			if len(args) == 1 {
				q.Text = args[0]
			}
			scored, err := a.Novelbit.Search(cmd.Context(), q)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), models.NewSearchResponse(scored))
		},
	}
	cmd.Flags().StringSliceVarP(&keywords, "keywords", "k", nil, "Comma-separated keywords that must all appear")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum results (default: store search limit)")
	return cmd
}

func NewDeleteCmd() *cobra.Command {
	var text string
	cmd := &cobra.Command{
		Use:   "delete <attribute-path>",
		Short: "Delete an attribute with its records, or one record",
		Long: `Delete every attribute stored under the exact path together with its
records. With --text, delete only the records under the path whose
fingerprint matches the text.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer closeApp(a)
			n := a.Novelbit
			ctx := cmd.Context()

			if text == "" {
				res, err := n.DeleteAttributeText(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), models.NewDeleteResponse(res))
			}

			fps, err := n.Fingerprinter.FingerprintTexts(ctx, []string{args[0], text})
			if err != nil {
				return err
			}
			count, err := n.DeleteDataPath(ctx, args[0], fps[0].Fingerprint, fps[1].Fingerprint)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), models.DeleteResponse{OK: true, DeletedCount: count})
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "Delete only the record with this text")
	return cmd
}
