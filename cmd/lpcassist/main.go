// Package main implements the lpcassist CLI: corpus search, cross-source
// validation, prompt assembly, generation and model benchmarking over a
// local tree of LPC and MUD driver references.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	// configPath is the YAML config file; empty means lpcassist.yaml if present.
	configPath string
	// corpusRoot overrides corpus.root.
	corpusRoot string
	// logLevel overrides logging.level.
	logLevel string
	// logFormat overrides logging.format.
	logFormat string
	// version information
	version = "dev"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "lpcassist",
	Short: "Retrieval-augmented assistant for LPC and MUD driver code",
	Long: `lpcassist searches a local corpus of MUD driver sources and LPC
references, cross-checks answers against it, assembles grounded prompts for
a local model and benchmarks models on driver questions.

Configuration is read from lpcassist.yaml (or --config) and LPCASSIST_*
environment variables.`,
	Version:      version,
	SilenceUsage: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "config file (default lpcassist.yaml when present)")
	pf.StringVar(&corpusRoot, "corpus", "", "corpus root directory (overrides corpus.root)")
	pf.StringVar(&logLevel, "log-level", "", "log level: trace, debug, info, warn, error")
	pf.StringVar(&logFormat, "log-format", "", "log format: console or json")
}

// errorf prints a formatted message to the command's error stream.
func errorf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.ErrOrStderr(), format, args...)
}
