package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/lpcassist/internal/llm"
	"github.com/fyrsmithlabs/lpcassist/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// lowConfidence is the confidence under which ask warns that the corpus
// barely covers the question.
const lowConfidence = 0.3

var (
	askModel      string
	askNoValidate bool
	askMaxTokens  int
)

func init() {
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(modelsCmd)

	askCmd.Flags().StringVarP(&askModel, "model", "m", "", "model to generate with (default: first benchmark.models entry)")
	askCmd.Flags().BoolVar(&askNoValidate, "no-validate", false, "skip cross-source validation")
	askCmd.Flags().IntVar(&askMaxTokens, "max-tokens", 2048, "maximum tokens to generate")
}

// askCmd answers a question with a grounded prompt.
var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a question with a local model, grounded in the corpus",
	Long: `Validate the question against the corpus, assemble a grounded prompt
and stream the model's answer to stdout. Validation results go to stderr.

Examples:
  lpcassist ask -m qwen2.5-coder:7b "implement a query_light efun"
  lpcassist ask --no-validate -m deepseek-coder "how are mappings hashed"`,
	Args: cobra.MinimumNArgs(1),
	RunE: withApp(runAsk),
}

// modelsCmd lists the models the backend offers.
var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List models available from the configured backend",
	Args:  cobra.NoArgs,
	RunE:  withApp(runModels),
}

func runAsk(cmd *cobra.Command, a *app, args []string) error {
	ctx := cmd.Context()
	query := strings.Join(args, " ")

	model := askModel
	if model == "" && len(a.cfg.Benchmark.Models) > 0 {
		model = a.cfg.Benchmark.Models[0]
	}
	if model == "" {
		return errors.New("no model given: pass --model or set benchmark.models")
	}

	client, err := a.llmClient()
	if err != nil {
		return err
	}

	a.ensureIndex(ctx)
	a.logCommand(ctx, "ask", logging.Model(model))

	if !askNoValidate {
		res := a.validator.Validate(ctx, query)
		errorf(cmd, "confidence %.1f%% from %d sources\n", res.ConfidenceScore*100, res.SourcesConsulted)
		if res.LowConfidence(lowConfidence) {
			errorf(cmd, "warning: the corpus barely covers this question; treat the answer with care\n")
		}
	}

	asm := a.builder.Assemble(ctx, query, model, nil)
	a.logger.Debug(ctx, "prompt assembled",
		zap.String("stage", string(asm.Stage)),
		zap.Int("estimated_tokens", asm.EstimatedTokens),
	)

	opts := llm.BenchmarkOptions()
	opts.MaxTokens = askMaxTokens
	out := cmd.OutOrStdout()
	_, err = client.GenerateStream(ctx, model, asm.Text, opts, func(token string) error {
		_, werr := fmt.Fprint(out, token)
		return werr
	})
	fmt.Fprintln(out)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("generation with %s failed: %w", model, err)
	}
	return nil
}

func runModels(cmd *cobra.Command, a *app, _ []string) error {
	client, err := a.llmClient()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), pingTimeout)
	defer cancel()

	models, err := client.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("failed to list models from %s: %w", a.cfg.LLM.BaseURL, err)
	}
	out := cmd.OutOrStdout()
	if len(models) == 0 {
		fmt.Fprintln(out, "No models available.")
		return nil
	}
	for _, m := range models {
		fmt.Fprintln(out, m)
	}
	return nil
}
