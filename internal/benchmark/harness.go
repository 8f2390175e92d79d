package benchmark

import (
	"context"
	"errors"
	"time"

	"github.com/fyrsmithlabs/lpcassist/internal/llm"
	"github.com/fyrsmithlabs/lpcassist/internal/logging"
	"github.com/fyrsmithlabs/lpcassist/internal/validation"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("github.com/fyrsmithlabs/lpcassist/internal/benchmark")

var (
	// ErrNilPromptBuilder indicates New was called without a prompt builder.
	ErrNilPromptBuilder = errors.New("prompt builder is required")

	// ErrNilGenerator indicates New was called without a generator.
	ErrNilGenerator = errors.New("generator is required")

	// ErrNoModels indicates CompareModels was called without models.
	ErrNoModels = errors.New("no models to compare")
)

// PromptBuilder assembles the prompt sent for a query.
type PromptBuilder interface {
	Build(ctx context.Context, query, model string, examples []string) string
}

// Validator scores a query against the corpus.
type Validator interface {
	Validate(ctx context.Context, query string) *validation.Result
}

// pacer is satisfied by llm.Paced.
type pacer interface {
	Wait(ctx context.Context) error
	Unwrap() llm.Client
}

// Harness runs benchmark matrices.
type Harness struct {
	builder   PromptBuilder
	generator llm.Generator
	validator Validator
	options   llm.Options
	now       func() time.Time
	logger    *logging.Logger
}

// Option configures a Harness.
type Option func(*Harness)

// WithValidator enables validation, which feeds the quality score.
func WithValidator(v Validator) Option {
	return func(h *Harness) { h.validator = v }
}

// WithClock replaces time.Now for latency measurement.
func WithClock(now func() time.Time) Option {
	return func(h *Harness) {
		if now != nil {
			h.now = now
		}
	}
}

// WithGenerationOptions overrides llm.BenchmarkOptions.
func WithGenerationOptions(opts llm.Options) Option {
	return func(h *Harness) { h.options = opts }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(h *Harness) {
		if l != nil {
			h.logger = l
		}
	}
}

// New creates a Harness.
func New(builder PromptBuilder, generator llm.Generator, opts ...Option) (*Harness, error) {
	if builder == nil {
		return nil, ErrNilPromptBuilder
	}
	if generator == nil {
		return nil, ErrNilGenerator
	}
	h := &Harness{
		builder:   builder,
		generator: generator,
		options:   llm.BenchmarkOptions(),
		now:       time.Now,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.Named("benchmark")
	return h, nil
}

// CompareModels runs every (model, query) pair in order and summarizes the
// results. If ctx is cancelled between pairs the partial comparison is
// returned together with ctx.Err().
func (h *Harness) CompareModels(ctx context.Context, models []string, queries []TestQuery) (*Comparison, error) {
	if len(models) == 0 {
		return nil, ErrNoModels
	}
	runID := uuid.NewString()
	ctx = logging.WithRunID(ctx, runID)
	ctx, span := tracer.Start(ctx, "benchmark.CompareModels")
	defer span.End()

	cmp := &Comparison{
		RunID:        runID,
		StartedAt:    h.now().UTC(),
		ModelsTested: append([]string(nil), models...),
		TestQueries:  make([]string, 0, len(queries)),
		Results:      []Result{},
	}
	for _, q := range queries {
		cmp.TestQueries = append(cmp.TestQueries, q.Query)
	}

	h.logger.Info(ctx, "benchmark started",
		zap.Strings("models", models),
		zap.Int("queries", len(queries)),
	)

	var runErr error
matrix:
	for _, model := range models {
		for _, q := range queries {
			if err := ctx.Err(); err != nil {
				runErr = err
				break matrix
			}
			res, err := h.runPair(ctx, model, q)
			if err != nil {
				FailuresTotal.WithLabelValues(model).Inc()
				h.logger.Warn(ctx, "benchmark pair failed",
					logging.Model(model),
					logging.Query(q.Query),
					zap.Error(err),
				)
				continue
			}
			h.logger.Info(ctx, "benchmark pair completed",
				logging.Model(model),
				logging.Query(q.Query),
				zap.Int64("response_time_ms", res.ResponseTimeMs),
				zap.Float64("accuracy", res.AccuracyScore),
				zap.Float64("quality", res.QualityScore),
			)
			cmp.Results = append(cmp.Results, res)
		}
	}

	cmp.Summary = Summarize(cmp.ModelsTested, cmp.Results)
	span.SetAttributes(
		attribute.String("benchmark.run_id", runID),
		attribute.Int("benchmark.results", len(cmp.Results)),
		attribute.String("benchmark.recommended", cmp.Summary.RecommendedModel),
	)
	h.logger.Info(ctx, "benchmark finished",
		zap.Int("results", len(cmp.Results)),
		zap.String("recommended", cmp.Summary.RecommendedModel),
		zap.Bool("partial", runErr != nil),
	)
	return cmp, runErr
}

// runPair validates, builds the prompt and times only the generation call.
// Pacing delay is waited out before the clock starts.
func (h *Harness) runPair(ctx context.Context, model string, q TestQuery) (Result, error) {
	var val *validation.Result
	if h.validator != nil {
		val = h.validator.Validate(ctx, q.Query)
	}
	prompt := h.builder.Build(ctx, q.Query, model, nil)

	gen := h.generator
	if p, ok := gen.(pacer); ok {
		if err := p.Wait(ctx); err != nil {
			return Result{}, err
		}
		gen = p.Unwrap()
	}

	start := h.now()
	response, err := gen.Generate(ctx, model, prompt, h.options)
	end := h.now()
	if err != nil {
		return Result{}, err
	}
	elapsed := end.Sub(start)
	GenerationDuration.WithLabelValues(model).Observe(elapsed.Seconds())

	res := Result{
		ModelName:        model,
		Query:            q.Query,
		Response:         response,
		ResponseTimeMs:   elapsed.Milliseconds(),
		TokensPerSecond:  TokensPerSecond(response, elapsed),
		ValidationResult: val,
		AccuracyScore:    Accuracy(response, q.ExpectedKeywords),
		QualityScore:     Quality(response, val),
		Timestamp:        end.UTC(),
	}
	AccuracyScore.WithLabelValues(model).Observe(res.AccuracyScore)
	return res, nil
}
