// Package config loads lpcassist configuration.
//
// Values come from built-in defaults, an optional YAML file and
// LPCASSIST_-prefixed environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fyrsmithlabs/lpcassist/internal/corpus"
	"github.com/fyrsmithlabs/lpcassist/internal/llm"
	"github.com/fyrsmithlabs/lpcassist/internal/logging"
	"github.com/fyrsmithlabs/lpcassist/internal/prompt"
	"github.com/fyrsmithlabs/lpcassist/internal/telemetry"
	"github.com/fyrsmithlabs/lpcassist/internal/validation"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the complete configuration.
type Config struct {
	Corpus    CorpusConfig    `koanf:"corpus"`
	Prompt    PromptConfig    `koanf:"prompt"`
	LLM       LLMConfig       `koanf:"llm"`
	Benchmark BenchmarkConfig `koanf:"benchmark"`
	Server    ServerConfig    `koanf:"server"`
	Logging   logging.Config  `koanf:"logging"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
}

// CorpusConfig locates and filters the reference corpus.
type CorpusConfig struct {
	Root            string   `koanf:"root"`
	Mode            string   `koanf:"mode"`
	Extensions      []string `koanf:"extensions"`
	IgnoreFiles     []string `koanf:"ignore_files"`
	IdentifierLists []string `koanf:"identifier_lists"`
}

// PromptConfig controls prompt assembly.
type PromptConfig struct {
	TemplatesDir string `koanf:"templates_dir"`
	MaxTokens    int    `koanf:"max_tokens"`
}

// LLMConfig selects the generation backend.
type LLMConfig struct {
	Provider    string   `koanf:"provider"`
	BaseURL     string   `koanf:"base_url"`
	APIKey      Secret   `koanf:"api_key"`
	Timeout     Duration `koanf:"timeout"`
	MinInterval Duration `koanf:"min_interval"`
}

// BenchmarkConfig holds benchmark defaults.
type BenchmarkConfig struct {
	Models      []string `koanf:"models"`
	QueriesFile string   `koanf:"queries_file"`
	ReportPath  string   `koanf:"report_path"`
	HistoryPath string   `koanf:"history_path"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string   `koanf:"host"`
	Port            int      `koanf:"port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// TelemetryConfig controls OTLP export of traces and metrics.
type TelemetryConfig struct {
	Enabled        bool     `koanf:"enabled"`
	Endpoint       string   `koanf:"endpoint"`
	Protocol       string   `koanf:"protocol"`
	Insecure       *bool    `koanf:"insecure"`
	TLSSkipVerify  bool     `koanf:"tls_skip_verify"`
	SampleRate     *float64 `koanf:"sample_rate"`
	Metrics        *bool    `koanf:"metrics"`
	ExportInterval Duration `koanf:"export_interval"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// applyDefaults fills zero-valued fields.
func applyDefaults(cfg *Config) {
	if cfg.Corpus.Root == "" {
		cfg.Corpus.Root = "mud-references"
	}
	if cfg.Corpus.Mode == "" {
		cfg.Corpus.Mode = corpus.ModeIndexed.String()
	}
	if len(cfg.Corpus.Extensions) == 0 {
		cfg.Corpus.Extensions = append([]string(nil), corpus.DefaultExtensions...)
	}
	if len(cfg.Corpus.IgnoreFiles) == 0 {
		cfg.Corpus.IgnoreFiles = append([]string(nil), corpus.DefaultIgnoreFiles...)
	}
	if len(cfg.Corpus.IdentifierLists) == 0 {
		cfg.Corpus.IdentifierLists = append([]string(nil), validation.DefaultIdentifierLists...)
	}

	if cfg.Prompt.TemplatesDir == "" {
		cfg.Prompt.TemplatesDir = "templates"
	}
	if cfg.Prompt.MaxTokens == 0 {
		cfg.Prompt.MaxTokens = prompt.DefaultMaxTokens
	}

	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = llm.ProviderOllama
	}
	if cfg.LLM.BaseURL == "" && cfg.LLM.Provider == llm.ProviderOllama {
		cfg.LLM.BaseURL = llm.DefaultOllamaURL
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = Duration(5 * time.Minute)
	}

	if cfg.Benchmark.ReportPath == "" {
		cfg.Benchmark.ReportPath = "benchmark_results.json"
	}
	if cfg.Benchmark.HistoryPath == "" {
		cfg.Benchmark.HistoryPath = ".lpcassist/history.db"
	}

	if cfg.Server.Host == "" {
		cfg.Server.Host = "127.0.0.1"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8484
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = Duration(10 * time.Second)
	}

	tel := telemetry.NewDefaultConfig()
	if cfg.Telemetry.Endpoint == "" {
		cfg.Telemetry.Endpoint = tel.Endpoint
	}
	if cfg.Telemetry.Protocol == "" {
		cfg.Telemetry.Protocol = tel.Protocol
	}
	if cfg.Telemetry.Insecure == nil {
		cfg.Telemetry.Insecure = &tel.Insecure
	}
	if cfg.Telemetry.SampleRate == nil {
		cfg.Telemetry.SampleRate = &tel.SampleRate
	}
	if cfg.Telemetry.Metrics == nil {
		cfg.Telemetry.Metrics = &tel.MetricsEnabled
	}
	if cfg.Telemetry.ExportInterval == 0 {
		cfg.Telemetry.ExportInterval = Duration(tel.ExportInterval)
	}

	def := logging.NewDefaultConfig()
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = def.Format
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = def.Output
	}
	if cfg.Logging.Fields == nil {
		cfg.Logging.Fields = def.Fields
	}
	if cfg.Logging.Stacktrace.Level == 0 {
		cfg.Logging.Stacktrace = def.Stacktrace
	}
	if cfg.Logging.Caller.Skip == 0 {
		cfg.Logging.Caller.Skip = def.Caller.Skip
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Corpus.Root) == "" {
		errs = append(errs, errors.New("corpus.root is required"))
	}
	if _, err := corpus.ParseMode(c.Corpus.Mode); err != nil {
		errs = append(errs, fmt.Errorf("corpus.mode: %w", err))
	}
	if c.Prompt.MaxTokens < 0 {
		errs = append(errs, fmt.Errorf("prompt.max_tokens must be positive, got %d", c.Prompt.MaxTokens))
	}
	switch c.LLM.Provider {
	case llm.ProviderOllama, llm.ProviderOpenAI:
	default:
		errs = append(errs, fmt.Errorf("llm.provider must be %q or %q, got %q", llm.ProviderOllama, llm.ProviderOpenAI, c.LLM.Provider))
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	if err := c.Logging.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("logging: %w", err))
	}
	if err := c.TelemetryConfig("").Validate(); err != nil {
		errs = append(errs, fmt.Errorf("telemetry: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// LLMClientConfig converts the llm section for llm.New.
func (c *Config) LLMClientConfig() llm.Config {
	return llm.Config{
		Provider:    c.LLM.Provider,
		BaseURL:     c.LLM.BaseURL,
		APIKey:      c.LLM.APIKey.Value(),
		Timeout:     c.LLM.Timeout.Duration(),
		MinInterval: c.LLM.MinInterval.Duration(),
	}
}

// TelemetryConfig converts the telemetry section for telemetry.New.
func (c *Config) TelemetryConfig(version string) *telemetry.Config {
	out := telemetry.NewDefaultConfig()
	out.Enabled = c.Telemetry.Enabled
	out.Endpoint = c.Telemetry.Endpoint
	out.Protocol = c.Telemetry.Protocol
	out.TLSSkipVerify = c.Telemetry.TLSSkipVerify
	if c.Telemetry.Insecure != nil {
		out.Insecure = *c.Telemetry.Insecure
	}
	if c.Telemetry.SampleRate != nil {
		out.SampleRate = *c.Telemetry.SampleRate
	}
	if c.Telemetry.Metrics != nil {
		out.MetricsEnabled = *c.Telemetry.Metrics
	}
	if c.Telemetry.ExportInterval > 0 {
		out.ExportInterval = c.Telemetry.ExportInterval.Duration()
	}
	if version != "" {
		out.ServiceVersion = version
	}
	out.ShutdownTimeout = c.Server.ShutdownTimeout.Duration()
	return out
}
