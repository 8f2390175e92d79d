package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fyrsmithlabs/lpcassist/internal/expansion"
	"github.com/fyrsmithlabs/lpcassist/internal/logging"
	"github.com/fyrsmithlabs/lpcassist/internal/validation"
	"github.com/spf13/cobra"
)

var (
	searchLimit     int
	searchSubstring bool
	jsonOutput      bool
	promptModel     string
	promptExamples  []string
	promptStats     bool
)

func init() {
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(expandCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(promptCmd)

	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchSubstring, "substring", false, "plain substring search with snippets")
	searchCmd.Flags().BoolVar(&jsonOutput, "json", false, "print results as JSON")

	validateCmd.Flags().BoolVar(&jsonOutput, "json", false, "print the validation result as JSON")

	promptCmd.Flags().StringVarP(&promptModel, "model", "m", "", "model the prompt is intended for")
	promptCmd.Flags().StringArrayVarP(&promptExamples, "example", "e", nil, "code example to include (repeatable)")
	promptCmd.Flags().BoolVar(&promptStats, "stats", false, "print stage and token estimate to stderr")
}

// indexCmd builds the corpus index and reports its size.
var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the corpus index and print statistics",
	Long: `Walk the corpus root and build the term index used by scored search.

Examples:
  # Index the default corpus
  lpcassist index

  # Index another tree
  lpcassist index --corpus ~/src/fluffos`,
	Args: cobra.NoArgs,
	RunE: withApp(runIndex),
}

// searchCmd searches the corpus.
var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the corpus",
	Long: `Search the corpus with relevance scoring, or as a plain substring with
--substring.

Examples:
  lpcassist search call_other
  lpcassist search -n 5 "apply hook"
  lpcassist search --substring "heart_beat("`,
	Args: cobra.MinimumNArgs(1),
	RunE: withApp(runSearch),
}

// expandCmd shows how a question is expanded before retrieval.
var expandCmd = &cobra.Command{
	Use:   "expand <question>",
	Short: "Show the retrieval queries derived from a question",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")
		topics := expansion.Detect(query)
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Topics: %s\n", describeTopics(topics))
		for i, q := range expansion.Expand(query) {
			fmt.Fprintf(out, "%2d. %s\n", i+1, q)
		}
		return nil
	},
}

// validateCmd cross-checks a question against the corpus.
var validateCmd = &cobra.Command{
	Use:   "validate <question>",
	Short: "Cross-check a question against independent corpus sources",
	Long: `Retrieve documents for a question, classify how well each is
corroborated by the others and report a confidence score.

Examples:
  lpcassist validate "how does call_other resolve the target object"
  lpcassist validate --json "what does clone_object return"`,
	Args: cobra.MinimumNArgs(1),
	RunE: withApp(runValidate),
}

// promptCmd prints the assembled prompt for a question.
var promptCmd = &cobra.Command{
	Use:   "prompt <question>",
	Short: "Assemble and print the grounded prompt for a question",
	Long: `Expand the question, retrieve references and fit everything into the
token budget. The question is always present in the output.

Examples:
  lpcassist prompt "write an efun that reverses an array"
  lpcassist prompt --stats -e "$(cat example.c)" "add a new opcode"`,
	Args: cobra.MinimumNArgs(1),
	RunE: withApp(runPrompt),
}

func runIndex(cmd *cobra.Command, a *app, _ []string) error {
	ctx := cmd.Context()
	a.logCommand(ctx, "index", logging.CorpusRoot(a.cfg.Corpus.Root))

	files, err := a.index.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("failed to index %s: %w", a.cfg.Corpus.Root, err)
	}
	st := a.index.Stats()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Root:     %s\n", st.Root)
	fmt.Fprintf(out, "Mode:     %s\n", st.Mode)
	fmt.Fprintf(out, "Files:    %d\n", files)
	fmt.Fprintf(out, "Terms:    %d\n", st.Terms)
	fmt.Fprintf(out, "Postings: %d\n", st.Postings)
	return nil
}

func runSearch(cmd *cobra.Command, a *app, args []string) error {
	ctx := cmd.Context()
	query := strings.Join(args, " ")
	out := cmd.OutOrStdout()

	if searchSubstring {
		snippets := a.index.SearchSubstring(ctx, query, searchLimit)
		if jsonOutput {
			return writeJSON(out, snippets)
		}
		if len(snippets) == 0 {
			fmt.Fprintln(out, "No matches.")
			return nil
		}
		for _, s := range snippets {
			fmt.Fprintf(out, "%s\n    %s\n", s.Path, s.Text)
		}
		return nil
	}

	a.ensureIndex(ctx)
	results := a.index.SearchScored(ctx, query, searchLimit)
	if jsonOutput {
		return writeJSON(out, results)
	}
	if len(results) == 0 {
		fmt.Fprintln(out, "No matches.")
		return nil
	}
	for _, r := range results {
		fmt.Fprintf(out, "%6.2f  %s:%d\n", r.Score, r.Path, r.Line+1)
		fmt.Fprintln(out, indent(r.Snippet, "        "))
	}
	return nil
}

func runValidate(cmd *cobra.Command, a *app, args []string) error {
	ctx := cmd.Context()
	a.ensureIndex(ctx)

	res := a.validator.Validate(ctx, strings.Join(args, " "))
	out := cmd.OutOrStdout()
	if jsonOutput {
		return writeJSON(out, res)
	}

	counts := res.Counts()
	fmt.Fprintf(out, "Confidence:       %.1f%%\n", res.ConfidenceScore*100)
	fmt.Fprintf(out, "Validation score: %.1f%%\n", res.ValidationScore*100)
	fmt.Fprintf(out, "Sources:          %d (verified %d, cross-referenced %d, single source %d)\n",
		res.SourcesConsulted,
		counts[validation.Verified],
		counts[validation.CrossReferenced],
		counts[validation.SingleSource],
	)
	if len(res.KnownIdentifiers) > 0 {
		fmt.Fprintf(out, "Known efuns:      %s\n", strings.Join(res.KnownIdentifiers, ", "))
	}
	for _, d := range res.Documents {
		fmt.Fprintf(out, "  [%-16s] %5.2f  %s:%d\n", d.Status, d.Score, d.Path, d.Line+1)
	}
	for _, ex := range res.CodeExamples {
		fmt.Fprintf(out, "\n-- %s (%s) --\n%s\n", ex.Path, ex.Driver, ex.Code)
	}
	return nil
}

func runPrompt(cmd *cobra.Command, a *app, args []string) error {
	ctx := cmd.Context()
	a.ensureIndex(ctx)

	asm := a.builder.Assemble(ctx, strings.Join(args, " "), promptModel, promptExamples)
	fmt.Fprintln(cmd.OutOrStdout(), asm.Text)
	if promptStats {
		errorf(cmd, "stage=%s estimated_tokens=%d references=%d\n", asm.Stage, asm.EstimatedTokens, len(asm.References))
	}
	return nil
}

func describeTopics(t expansion.Topics) string {
	var names []string
	if t.Codegen {
		names = append(names, "codegen")
	}
	if t.VM {
		names = append(names, "vm")
	}
	if t.DataStructures {
		names = append(names, "data structures")
	}
	if t.ObjectModel {
		names = append(names, "object model")
	}
	if t.BuiltinFunction {
		names = append(names, "builtin function")
	}
	if t.MentionsDriver {
		names = append(names, "mentions driver")
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}

func indent(s, prefix string) string {
	return prefix + strings.ReplaceAll(strings.TrimRight(s, "\n"), "\n", "\n"+prefix)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
