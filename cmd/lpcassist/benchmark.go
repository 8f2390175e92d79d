package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/lpcassist/internal/benchmark"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	benchModels      []string
	benchQueriesFile string
	benchOutput      string
	benchNoHistory   bool
	benchNoValidate  bool
	historyLimit     int
)

func init() {
	rootCmd.AddCommand(benchmarkCmd)
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyShowCmd)

	f := benchmarkCmd.Flags()
	f.StringSliceVar(&benchModels, "models", nil, "models to compare (default: benchmark.models, then every model the backend lists)")
	f.StringVar(&benchQueriesFile, "queries", "", "TOML file of [[query]] entries (default: built-in driver questions)")
	f.StringVarP(&benchOutput, "output", "o", "", "report path, .json or .yaml (default: benchmark.report_path)")
	f.BoolVar(&benchNoHistory, "no-history", false, "do not record the run in the history database")
	f.BoolVar(&benchNoValidate, "no-validate", false, "skip validation; quality then uses length and structure only")

	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "number of runs to list")
}

// benchmarkCmd compares models on a set of driver questions.
var benchmarkCmd = &cobra.Command{
	Use:   "benchmark",
	Short: "Compare models on LPC and driver questions",
	Long: `Run every test query against every model, score accuracy, quality and
speed, write a report and recommend a model.

Examples:
  # Compare two models on the built-in questions
  lpcassist benchmark --models qwen2.5-coder:7b,deepseek-coder:6.7b

  # Use custom questions and a YAML report
  lpcassist benchmark --queries queries.toml -o results.yaml`,
	Args: cobra.NoArgs,
	RunE: withApp(runBenchmark),
}

// historyCmd lists recorded benchmark runs.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded benchmark runs",
	Args:  cobra.NoArgs,
	RunE:  withApp(runHistory),
}

// historyShowCmd prints the per-query results of one run.
var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show the results of a recorded benchmark run",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp(runHistoryShow),
}

func runBenchmark(cmd *cobra.Command, a *app, _ []string) error {
	ctx := cmd.Context()

	client, err := a.llmClient()
	if err != nil {
		return err
	}

	models := benchModels
	if len(models) == 0 {
		models = a.cfg.Benchmark.Models
	}
	if len(models) == 0 {
		lctx, cancel := context.WithTimeout(ctx, pingTimeout)
		models, err = client.ListModels(lctx)
		cancel()
		if err != nil {
			return fmt.Errorf("no models configured and listing failed: %w", err)
		}
	}

	queries := benchmark.DefaultQueries()
	queriesFile := benchQueriesFile
	if queriesFile == "" {
		queriesFile = a.cfg.Benchmark.QueriesFile
	}
	if queriesFile != "" {
		if queries, err = benchmark.LoadQueries(queriesFile); err != nil {
			return err
		}
	}

	a.ensureIndex(ctx)
	opts := []benchmark.Option{benchmark.WithLogger(a.logger)}
	if !benchNoValidate {
		opts = append(opts, benchmark.WithValidator(a.validator))
	}
	harness, err := benchmark.New(a.builder, client, opts...)
	if err != nil {
		return err
	}

	errorf(cmd, "Benchmarking %d model(s) on %d queries...\n", len(models), len(queries))
	cmp, runErr := harness.CompareModels(ctx, models, queries)
	if cmp == nil {
		return runErr
	}
	if runErr != nil {
		errorf(cmd, "Benchmark interrupted: saving %d partial result(s)\n", len(cmp.Results))
	}

	reportPath := benchOutput
	if reportPath == "" {
		reportPath = a.cfg.Benchmark.ReportPath
	}
	if err := cmp.Save(reportPath); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if !benchNoHistory {
		// The run is recorded even when the command was interrupted.
		hctx := context.WithoutCancel(ctx)
		if err := recordRun(hctx, a, cmp); err != nil {
			a.logger.Warn(hctx, "failed to record benchmark history", zap.Error(err))
		}
	}

	fmt.Fprintln(cmd.OutOrStdout(), renderSummary(cmp))
	errorf(cmd, "Report written to %s\n", reportPath)
	return runErr
}

func recordRun(ctx context.Context, a *app, cmp *benchmark.Comparison) error {
	store, err := a.openHistory(ctx)
	if err != nil {
		return err
	}
	defer store.Close()
	_, err = store.SaveRun(ctx, cmp)
	return err
}

func runHistory(cmd *cobra.Command, a *app, _ []string) error {
	ctx := cmd.Context()
	store, err := a.openHistory(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.ListRuns(ctx, historyLimit)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "No benchmark runs recorded.")
		return nil
	}
	for _, r := range runs {
		fmt.Fprintf(out, "%s  %s  %d/%d results  recommended: %s  [%s]\n",
			r.ID,
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			r.Results, r.Queries*len(r.Models),
			orDash(r.Recommended),
			strings.Join(r.Models, ", "),
		)
	}
	return nil
}

func runHistoryShow(cmd *cobra.Command, a *app, args []string) error {
	ctx := cmd.Context()
	store, err := a.openHistory(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	results, err := store.RunResults(ctx, args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, r := range results {
		confidence := "-"
		if r.ValidationResult != nil {
			confidence = fmt.Sprintf("%.0f%%", r.ValidationResult.ConfidenceScore*100)
		}
		fmt.Fprintf(out, "%-24s acc %5.1f%%  qual %5.1f%%  %6dms  conf %4s  %s\n",
			r.ModelName,
			r.AccuracyScore*100,
			r.QualityScore*100,
			r.ResponseTimeMs,
			confidence,
			r.Query,
		)
	}
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
