package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fyrsmithlabs/lpcassist/internal/logging"
	"github.com/fyrsmithlabs/lpcassist/internal/validation"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	efunsOutput string
	efunsJSON   bool
)

func init() {
	rootCmd.AddCommand(efunCmd)
	rootCmd.AddCommand(efunsCmd)
	efunsCmd.AddCommand(efunsListCmd)
	efunsCmd.AddCommand(efunsScanCmd)

	efunCmd.Flags().BoolVar(&jsonOutput, "json", false, "print the report as JSON")
	efunsListCmd.Flags().BoolVar(&jsonOutput, "json", false, "print the table as JSON")

	f := efunsScanCmd.Flags()
	f.StringVarP(&efunsOutput, "output", "o", "", "identifier list to write, - for stdout (default: <corpus>/all_efuns.txt)")
	f.BoolVar(&efunsJSON, "json", false, "print every registration with its location as JSON instead")
}

// efunCmd looks up one efun.
var efunCmd = &cobra.Command{
	Use:   "efun <name>",
	Short: "Show which identifier lists declare an efun and where the corpus defines it",
	Long: `Look up an efun in the known identifier lists and search the corpus for
its definition and documentation.

Examples:
  lpcassist efun call_other
  lpcassist efun --json clone_object`,
	Args: cobra.ExactArgs(1),
	RunE: withApp(runEfun),
}

// efunsCmd groups identifier list commands.
var efunsCmd = &cobra.Command{
	Use:   "efuns",
	Short: "Manage the known efun lists",
}

// efunsListCmd prints the loaded identifier table.
var efunsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List known efuns and the lists declaring them",
	Args:  cobra.NoArgs,
	RunE:  withApp(runEfunsList),
}

// efunsScanCmd derives an identifier list from driver sources.
var efunsScanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan driver sources for efun registrations",
	Long: `Scan the C sources of the corpus for efun registrations (add_efun,
register_efun, efun tables, f_ functions and #ifdef F_ guards) and write the
names as an identifier list the validator loads.

Examples:
  # Regenerate <corpus>/all_efuns.txt
  lpcassist efuns scan

  # Inspect registrations with their locations
  lpcassist efuns scan --json --corpus ~/src/fluffos`,
	Args: cobra.NoArgs,
	RunE: withApp(runEfunsScan),
}

func runEfun(cmd *cobra.Command, a *app, args []string) error {
	ctx := cmd.Context()
	a.ensureIndex(ctx)

	report := a.validator.DescribeIdentifier(ctx, args[0])
	out := cmd.OutOrStdout()
	if jsonOutput {
		return writeJSON(out, report)
	}

	fmt.Fprintf(out, "Efun:     %s\n", report.Name)
	if report.Known {
		fmt.Fprintf(out, "Declared: %s\n", strings.Join(report.Sources, ", "))
	} else {
		fmt.Fprintln(out, "Declared: not in any identifier list")
	}
	if len(report.References) == 0 {
		fmt.Fprintln(out, "No references in the corpus.")
		return nil
	}
	fmt.Fprintln(out, "References:")
	for _, r := range report.References {
		fmt.Fprintf(out, "%6.2f  %s:%d\n", r.Score, r.Path, r.Line+1)
		fmt.Fprintln(out, indent(r.Snippet, "        "))
	}
	return nil
}

func runEfunsList(cmd *cobra.Command, a *app, _ []string) error {
	table := a.validator.Identifiers()
	out := cmd.OutOrStdout()
	if jsonOutput {
		entries := make(map[string][]string, table.Len())
		for _, name := range table.Names() {
			entries[name] = table.Sources(name)
		}
		return writeJSON(out, entries)
	}
	if table.Len() == 0 {
		fmt.Fprintf(out, "No identifier lists found under %s (looked for %s).\n",
			a.cfg.Corpus.Root, strings.Join(a.cfg.Corpus.IdentifierLists, ", "))
		return nil
	}
	for _, name := range table.Names() {
		fmt.Fprintf(out, "%-24s %s\n", name, strings.Join(table.Sources(name), ", "))
	}
	return nil
}

func runEfunsScan(cmd *cobra.Command, a *app, _ []string) error {
	ctx := cmd.Context()
	a.logCommand(ctx, "efuns scan", logging.CorpusRoot(a.cfg.Corpus.Root))

	regs, err := validation.ScanRegistrations(ctx, a.index)
	if err != nil {
		return fmt.Errorf("failed to scan %s: %w", a.cfg.Corpus.Root, err)
	}
	if efunsJSON {
		return writeJSON(cmd.OutOrStdout(), regs)
	}

	names := validation.RegistrationNames(regs)
	dest := efunsOutput
	if dest == "" {
		dest = filepath.Join(a.cfg.Corpus.Root, validation.DefaultIdentifierLists[0])
	}
	if dest == "-" {
		return validation.WriteIdentifierList(cmd.OutOrStdout(), names)
	}
	if err := writeIdentifierFile(dest, names); err != nil {
		return err
	}
	a.logger.Info(ctx, "identifier list written",
		logging.Path(dest),
		zap.Int("efuns", len(names)),
		zap.Int("registrations", len(regs)),
	)
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d efuns (%d registrations) to %s\n", len(names), len(regs), dest)
	return nil
}

func writeIdentifierFile(path string, names []string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return validation.WriteIdentifierList(f, names)
}
