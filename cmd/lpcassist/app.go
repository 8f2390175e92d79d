package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fyrsmithlabs/lpcassist/internal/benchstore"
	"github.com/fyrsmithlabs/lpcassist/internal/config"
	"github.com/fyrsmithlabs/lpcassist/internal/corpus"
	"github.com/fyrsmithlabs/lpcassist/internal/llm"
	"github.com/fyrsmithlabs/lpcassist/internal/logging"
	"github.com/fyrsmithlabs/lpcassist/internal/prompt"
	"github.com/fyrsmithlabs/lpcassist/internal/telemetry"
	"github.com/fyrsmithlabs/lpcassist/internal/validation"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app holds the wired pipeline for one command invocation.
type app struct {
	cfg       *config.Config
	logger    *logging.Logger
	index     *corpus.Index
	validator *validation.Validator
	builder   *prompt.Builder
	telemetry *telemetry.Telemetry
}

// loadConfig loads the config file and environment and applies the
// persistent flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if corpusRoot != "" {
		cfg.Corpus.Root = corpusRoot
	}
	if logLevel != "" {
		lvl, err := logging.LevelFromString(logLevel)
		if err != nil {
			return nil, fmt.Errorf("invalid --log-level %q: %w", logLevel, err)
		}
		cfg.Logging.Level = lvl
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newApp loads configuration and wires the index, validator and prompt
// builder. Commands that search call ensureIndex first.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return newAppFromConfig(ctx, cfg)
}

// newAppFromConfig wires the pipeline for cfg. Telemetry is shut down again
// when a later step fails.
func newAppFromConfig(ctx context.Context, cfg *config.Config, telOpts ...telemetry.Option) (_ *app, err error) {
	logger, err := logging.NewLogger(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	tel, err := telemetry.New(ctx, cfg.TelemetryConfig(version), telOpts...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			if serr := tel.Shutdown(context.WithoutCancel(ctx)); serr != nil {
				logger.Warn(ctx, "telemetry shutdown failed", zap.Error(serr))
			}
		}
	}()
	if tel.Enabled() {
		logger.Debug(ctx, "telemetry export enabled", zap.String("endpoint", cfg.Telemetry.Endpoint))
	}

	mode, err := corpus.ParseMode(cfg.Corpus.Mode)
	if err != nil {
		return nil, err
	}
	index := corpus.New(cfg.Corpus.Root,
		corpus.WithMode(mode),
		corpus.WithExtensions(cfg.Corpus.Extensions),
		corpus.WithIgnoreFiles(cfg.Corpus.IgnoreFiles),
		corpus.WithLogger(logger),
	)

	ids := validation.LoadIdentifiers(ctx, cfg.Corpus.Root, cfg.Corpus.IdentifierLists, logger)
	validator, err := validation.New(index, ids, validation.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	builder := prompt.New(index, prompt.LoadTemplates(cfg.Prompt.TemplatesDir),
		prompt.WithMaxTokens(cfg.Prompt.MaxTokens),
		prompt.WithLogger(logger),
	)

	return &app{
		cfg:       cfg,
		logger:    logger,
		index:     index,
		validator: validator,
		builder:   builder,
		telemetry: tel,
	}, nil
}

// llmClient creates the generation client from the llm section.
func (a *app) llmClient() (llm.Client, error) {
	c := a.cfg.LLMClientConfig()
	c.Logger = a.logger.Underlying()
	return llm.New(c)
}

// openHistory opens the benchmark history database.
func (a *app) openHistory(ctx context.Context) (*benchstore.Store, error) {
	return benchstore.Open(ctx, a.cfg.Benchmark.HistoryPath)
}

// ensureIndex builds the index for indexed mode. A corpus that cannot be
// read leaves searches empty rather than failing the command.
func (a *app) ensureIndex(ctx context.Context) {
	if a.index.Mode() != corpus.ModeIndexed {
		return
	}
	if _, err := a.index.Build(ctx); err != nil {
		a.logger.Warn(ctx, "corpus unavailable, searches will be empty",
			logging.CorpusRoot(a.cfg.Corpus.Root),
			zap.Error(err),
		)
	}
}

func (a *app) close() {
	if err := a.telemetry.Shutdown(context.Background()); err != nil {
		a.logger.Warn(context.Background(), "telemetry shutdown failed", zap.Error(err))
	}
	_ = a.logger.Sync()
}

// withApp wraps a RunE so it receives a wired app.
func withApp(run func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()
		return run(cmd, a, args)
	}
}

// pingTimeout bounds the model listing done before long runs.
const pingTimeout = 10 * time.Second

// logCommand records the start of a command at debug level.
func (a *app) logCommand(ctx context.Context, name string, fields ...zap.Field) {
	a.logger.Debug(ctx, "command started", append([]zap.Field{zap.String("command", name)}, fields...)...)
}
