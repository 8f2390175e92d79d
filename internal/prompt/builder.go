// Package prompt assembles retrieval-augmented prompts for LPC driver work
// under a fixed token budget.
//
// Assembly degrades in two stages when the full prompt is over budget: a
// minimal prompt (header, core template, top references for the literal
// question) and, if that is still too large, a hard rune cut. The user's
// question text is present in the output of every stage.
package prompt

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/fyrsmithlabs/lpcassist/internal/corpus"
	"github.com/fyrsmithlabs/lpcassist/internal/expansion"
	"github.com/fyrsmithlabs/lpcassist/internal/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("github.com/fyrsmithlabs/lpcassist/internal/prompt")

const (
	hitsPerQuery      = 8
	maxReferences     = 15
	minimalReferences = 5

	header = "You are an LPC driver engineer. Implement exactly against the headers and APIs shown below.\n" +
		"Do not redefine existing driver primitives.\n" +
		"Follow the MudOS/FluffOS patterns in the reference material.\n\n"

	minimalHeader = "You are an LPC driver engineer. Use the APIs shown below and do not redefine them.\n\n"

	instructions = "\n\nInstructions:\n" +
		"1. Follow the conventions of the referenced corpus files.\n" +
		"2. Do not redefine platform primitives, efuns or driver APIs.\n" +
		"3. Keep the output self-contained and use only what the references define.\n" +
		"4. For code generation emit opcodes only; for object or efun work go through the driver's call and apply hooks.\n" +
		"5. Return complete code with no placeholders.\n"

	minimalClosing = "\n\nReturn complete code that follows the patterns above.\n"

	queryLabel = "User Query: "
	separator  = "\n----\n"
)

// Stage names the degrade step that produced a prompt.
type Stage string

const (
	StageFull      Stage = "full"
	StageMinimal   Stage = "minimal"
	StageTruncated Stage = "truncated"
)

// Searcher is the scored search used for reference retrieval.
type Searcher interface {
	SearchScored(ctx context.Context, query string, limit int) []corpus.SearchResult
}

// Assembly is an assembled prompt and how it was produced.
type Assembly struct {
	Text            string                `json:"text"`
	Stage           Stage                 `json:"stage"`
	EstimatedTokens int                   `json:"estimated_tokens"`
	Queries         []string              `json:"queries"`
	References      []corpus.SearchResult `json:"references"`
}

// Builder assembles prompts.
type Builder struct {
	searcher  Searcher
	templates Templates
	maxTokens int
	logger    *logging.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithMaxTokens overrides DefaultMaxTokens.
func WithMaxTokens(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.maxTokens = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// New creates a Builder. A nil searcher yields prompts without references.
func New(searcher Searcher, templates Templates, opts ...Option) *Builder {
	if templates == nil {
		templates = Templates{}
	}
	b := &Builder{
		searcher:  searcher,
		templates: templates,
		maxTokens: DefaultMaxTokens,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.Named("prompt")
	return b
}

// MaxTokens returns the budget.
func (b *Builder) MaxTokens() int { return b.maxTokens }

// Build returns the prompt text for query.
func (b *Builder) Build(ctx context.Context, query, model string, examples []string) string {
	return b.Assemble(ctx, query, model, examples).Text
}

// Assemble builds the prompt for query and reports the degrade stage used.
// model is recorded for tracing only.
func (b *Builder) Assemble(ctx context.Context, query, model string, examples []string) *Assembly {
	ctx, span := tracer.Start(ctx, "prompt.Assemble")
	defer span.End()

	topics := expansion.Detect(query)
	core := b.coreTemplate(topics)
	queries := expansion.Expand(query)
	refs := b.references(ctx, queries)

	var out strings.Builder
	out.WriteString(header)
	out.WriteString(core)
	out.WriteString("\n\n")

	if (topics.ObjectModel || topics.BuiltinFunction) && b.templates.Get(TemplateObjectSystem) != "" {
		out.WriteString(b.templates.Get(TemplateObjectSystem))
		out.WriteString("\n\n")
	}

	if len(refs) > 0 {
		fmt.Fprintf(&out, "REFERENCES (top %d matches, MudOS/FluffOS patterns first):\n\n", len(refs))
		for i, r := range refs {
			fmt.Fprintf(&out, "[%d] From: %s\nMatch: %.1f%%\n%s\n\n", i+1, r.Path, r.Score*100, r.Snippet)
		}
	}

	if len(examples) > 0 {
		out.WriteString("Relevant examples:\n")
		for _, ex := range examples {
			out.WriteString(ex)
			out.WriteString(separator)
		}
		out.WriteString("\n")
	}

	for _, name := range []string{TemplateMudlib, TemplateEfuns, TemplateReferences} {
		if body := b.templates.Get(name); body != "" {
			out.WriteString(body)
			out.WriteString("\n\n")
		}
	}

	out.WriteString(queryLabel)
	out.WriteString(query)
	out.WriteString(instructions)

	a := &Assembly{
		Text:       out.String(),
		Stage:      StageFull,
		Queries:    queries,
		References: refs,
	}
	if !fits(a.Text, b.maxTokens) {
		b.degrade(ctx, a, query, core)
	}
	a.EstimatedTokens = EstimateTokens(a.Text)

	AssembledTotal.WithLabelValues(string(a.Stage)).Inc()
	EstimatedTokens.Observe(float64(a.EstimatedTokens))
	span.SetAttributes(
		attribute.String("prompt.model", model),
		attribute.String("prompt.stage", string(a.Stage)),
		attribute.Int("prompt.estimated_tokens", a.EstimatedTokens),
		attribute.Int("prompt.references", len(a.References)),
	)
	b.logger.Debug(ctx, "prompt assembled",
		logging.Model(model),
		zap.String("stage", string(a.Stage)),
		zap.Int("estimated_tokens", a.EstimatedTokens),
		zap.Int("queries", len(queries)),
		zap.Int("references", len(a.References)),
	)
	return a
}

// degrade replaces a.Text with the minimal prompt, then with a hard cut
// repaired to contain query.
func (b *Builder) degrade(ctx context.Context, a *Assembly, query, core string) {
	var refs []corpus.SearchResult
	if b.searcher != nil {
		refs = b.searcher.SearchScored(ctx, query, minimalReferences)
	}

	var out strings.Builder
	out.WriteString(minimalHeader)
	out.WriteString(core)
	out.WriteString("\n\n")
	if len(refs) > 0 {
		out.WriteString("Top references:\n")
		for i, r := range refs {
			fmt.Fprintf(&out, "[%d] %s\n%s\n\n", i+1, r.Path, r.Snippet)
		}
	}
	out.WriteString(queryLabel)
	out.WriteString(query)
	out.WriteString(minimalClosing)

	a.Text = out.String()
	a.Stage = StageMinimal
	a.References = refs
	if fits(a.Text, b.maxTokens) {
		return
	}

	a.Stage = StageTruncated
	a.Text = truncateRunes(a.Text, b.maxTokens*CharsPerToken)
	if !strings.Contains(a.Text, query) {
		a.Text += "\n\n" + queryLabel + query
	}
	b.logger.Warn(ctx, "prompt truncated to budget",
		zap.Int("max_tokens", b.maxTokens),
		zap.Int("query_runes", len([]rune(query))),
	)
}

func (b *Builder) coreTemplate(topics expansion.Topics) string {
	if topics.Codegen {
		if body := b.templates.Get(TemplateCodegen); body != "" {
			return body
		}
	}
	return b.templates.Get(TemplateDriver)
}

// references runs every expanded query, keeps the best hit per path and
// returns the top maxReferences by score.
func (b *Builder) references(ctx context.Context, queries []string) []corpus.SearchResult {
	if b.searcher == nil {
		return nil
	}
	var pool []corpus.SearchResult
	for _, q := range queries {
		pool = append(pool, b.searcher.SearchScored(ctx, q, hitsPerQuery)...)
	}
	best := BestPerPath(pool)
	if len(best) > maxReferences {
		best = best[:maxReferences]
	}
	return best
}

// BestPerPath keeps the highest-scoring hit for each path and returns them
// sorted by descending score. Equal scores keep first-seen order.
func BestPerPath(pool []corpus.SearchResult) []corpus.SearchResult {
	index := make(map[string]int, len(pool))
	out := make([]corpus.SearchResult, 0, len(pool))
	for _, r := range pool {
		i, ok := index[r.Path]
		if !ok {
			index[r.Path] = len(out)
			out = append(out, r)
			continue
		}
		if r.Score > out[i].Score {
			out[i] = r
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}
