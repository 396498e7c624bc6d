package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"cinematch/internal/catalog"
	"cinematch/internal/config"
)

func newCatalogCommand(ctx *commandContext) *cobra.Command {
	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect and convert dataset artifacts",
	}
	catalogCmd.AddCommand(newCatalogImportCommand())
	catalogCmd.AddCommand(newCatalogExportCommand())
	catalogCmd.AddCommand(newCatalogInfoCommand(ctx))
	return catalogCmd
}

func newCatalogImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <src.json> <dst.db>",
		Short: "Convert a JSON dataset artifact into SQLite",
		Long: `Validate a JSON artifact (movies plus an NxN similarity matrix) and write it
to a SQLite database that loads without re-parsing the matrix text.

Point paths.catalog at the resulting .db file to use it.`,
		Args:        cobra.ExactArgs(2),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := config.ExpandPath(strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("resolve source: %w", err)
			}
			dst, err := config.ExpandPath(strings.TrimSpace(args[1]))
			if err != nil {
				return fmt.Errorf("resolve destination: %w", err)
			}
			ds, err := catalog.Import(cmd.Context(), src, dst)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d movies from %s into %s\n", ds.Len(), src, dst)
			return nil
		},
	}
}

func newCatalogExportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "export <src> <dst.json>",
		Short: "Write a dataset artifact back out as JSON",
		Long: `Load a JSON or SQLite artifact and write it as a JSON document of movies
plus the similarity matrix, for inspection or re-import elsewhere.

JSON cannot hold NaN or infinite scores; artifacts containing them are
rejected and the destination is left untouched.`,
		Args:        cobra.ExactArgs(2),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := config.ExpandPath(strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("resolve source: %w", err)
			}
			dst, err := config.ExpandPath(strings.TrimSpace(args[1]))
			if err != nil {
				return fmt.Errorf("resolve destination: %w", err)
			}
			if format, err := catalog.DetectFormat(dst); err != nil {
				return err
			} else if format != catalog.FormatJSON {
				return fmt.Errorf("export destination must be a .json file, got %q", dst)
			}
			ds, err := catalog.Load(cmd.Context(), src)
			if err != nil {
				return err
			}
			if err := catalog.WriteJSONFile(dst, ds); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d movies from %s to %s\n", ds.Len(), src, dst)
			return nil
		},
	}
}

func newCatalogInfoCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "info [path]",
		Short: "Summarize a dataset artifact (default: paths.catalog)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				expanded, err := config.ExpandPath(strings.TrimSpace(args[0]))
				if err != nil {
					return fmt.Errorf("resolve path: %w", err)
				}
				path = expanded
			} else {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				path = cfg.Paths.Catalog
			}

			format, err := catalog.DetectFormat(path)
			if err != nil {
				return err
			}
			ds, err := catalog.Load(cmd.Context(), path)
			if err != nil {
				return fmt.Errorf("load catalog: %w", err)
			}
			info := catalogInfo{
				Path:            path,
				Format:          string(format),
				Movies:          ds.Len(),
				DuplicateTitles: ds.DuplicateTitles(),
				NonFiniteScores: ds.NonFiniteScores(),
				Meta:            ds.Meta(),
			}
			if info.DuplicateTitles == nil {
				info.DuplicateTitles = []string{}
			}
			if jsonOutput {
				return writeJSON(cmd, info)
			}

			out := cmd.OutOrStdout()
			printHeading(out, "Catalog")
			rows := [][]string{
				{"Path", info.Path},
				{"Format", info.Format},
				{"Movies", strconv.Itoa(info.Movies)},
				{"Duplicate titles", strconv.Itoa(len(info.DuplicateTitles))},
				{"Non-finite scores", strconv.Itoa(info.NonFiniteScores)},
				{"Ready", yesNo(info.Movies >= 2)},
			}
			for _, key := range []string{"source", "source_sha256", "imported_at"} {
				if value, ok := info.Meta[key]; ok {
					rows = append(rows, []string{"Import " + strings.ReplaceAll(key, "_", " "), value})
				}
			}
			fmt.Fprintln(out, renderTable(textColumns("Field", "Value"), rows))
			if len(info.DuplicateTitles) > 0 {
				fmt.Fprintf(out, "Repeated titles: %s\n", strings.Join(info.DuplicateTitles, ", "))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

type catalogInfo struct {
	Path            string            `json:"path"`
	Format          string            `json:"format"`
	Movies          int               `json:"movies"`
	DuplicateTitles []string          `json:"duplicate_titles"`
	NonFiniteScores int               `json:"non_finite_scores"`
	Meta            map[string]string `json:"meta,omitempty"`
}
