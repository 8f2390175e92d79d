package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fyrsmithlabs/lpcassist/internal/refdb"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	exportOutput string
	exportFile   string
	exportLimit  int
)

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.AddCommand(exportSearchCmd)

	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "reference_db.jsonl", "export file, - for stdout")

	exportSearchCmd.Flags().StringVarP(&exportFile, "file", "f", "reference_db.jsonl", "export file to search")
	exportSearchCmd.Flags().IntVarP(&exportLimit, "limit", "n", refdb.DefaultLimit, "maximum number of chunks")
}

// exportCmd writes the corpus as a JSONL chunk file.
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the corpus as JSONL text chunks",
	Long: `Write every corpus file as chunks of at most 1000 characters, one JSON
object per line, for tools that do not read the corpus tree directly.

Examples:
  lpcassist export -o refs.jsonl
  lpcassist export search -f refs.jsonl call_other`,
	Args: cobra.NoArgs,
	RunE: withApp(runExport),
}

// exportSearchCmd counts query occurrences in an export.
var exportSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search an exported JSONL file",
	Args:  cobra.MinimumNArgs(1),
	RunE:  withApp(runExportSearch),
}

func runExport(cmd *cobra.Command, a *app, _ []string) (err error) {
	ctx := cmd.Context()

	var w io.Writer = cmd.OutOrStdout()
	if exportOutput != "-" {
		if dir := filepath.Dir(exportOutput); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create %s: %w", dir, err)
			}
		}
		f, err := os.Create(exportOutput)
		if err != nil {
			return fmt.Errorf("failed to create export file: %w", err)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
		w = f
	}

	stats, err := refdb.Export(ctx, a.index, w)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	a.logger.Info(ctx, "corpus exported",
		zap.String("output", exportOutput),
		zap.Int("files", stats.Files),
		zap.Int("chunks", stats.Chunks),
	)
	if exportOutput != "-" {
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d chunks from %d files to %s\n", stats.Chunks, stats.Files, exportOutput)
	}
	return nil
}

func runExportSearch(cmd *cobra.Command, a *app, args []string) error {
	f, err := os.Open(exportFile)
	if err != nil {
		return fmt.Errorf("failed to open export: %w", err)
	}
	defer f.Close()

	hits, err := refdb.Search(cmd.Context(), f, strings.Join(args, " "), exportLimit)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(hits) == 0 {
		fmt.Fprintln(out, "No matches.")
		return nil
	}
	for _, h := range hits {
		fmt.Fprintf(out, "%3dx  %s#%d\n", h.Occurrences, h.Path, h.ChunkIndex)
		fmt.Fprintln(out, indent(preview(h.Text, 200), "      "))
	}
	return nil
}

// preview shortens s to n runes.
func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
