package config

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/fyrsmithlabs/lpcassist/internal/corpus"
	"github.com/fyrsmithlabs/lpcassist/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "mud-references", cfg.Corpus.Root)
	assert.Equal(t, "indexed", cfg.Corpus.Mode)
	assert.Equal(t, corpus.DefaultExtensions, cfg.Corpus.Extensions)
	assert.Equal(t, 8000, cfg.Prompt.MaxTokens)
	assert.Equal(t, llm.ProviderOllama, cfg.LLM.Provider)
	assert.Equal(t, llm.DefaultOllamaURL, cfg.LLM.BaseURL)
	assert.Equal(t, 5*time.Minute, cfg.LLM.Timeout.Duration())
	assert.Equal(t, "127.0.0.1:8484", cfg.Server.Addr())
	assert.Equal(t, "stderr", cfg.Logging.Output)
	require.NoError(t, cfg.Validate())

	// Mutating the default slice must not leak into the package default.
	cfg.Corpus.Extensions[0] = "zzz"
	assert.NotEqual(t, "zzz", corpus.DefaultExtensions[0])
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"empty root", func(c *Config) { c.Corpus.Root = " " }, "corpus.root"},
		{"bad mode", func(c *Config) { c.Corpus.Mode = "vector" }, "corpus.mode"},
		{"negative tokens", func(c *Config) { c.Prompt.MaxTokens = -1 }, "prompt.max_tokens"},
		{"bad provider", func(c *Config) { c.LLM.Provider = "llamacpp" }, "llm.provider"},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "logging"},
		{"insecure remote telemetry", func(c *Config) {
			c.Telemetry.Enabled = true
			c.Telemetry.Endpoint = "otel.example.com:4317"
		}, "telemetry"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLLMClientConfig(t *testing.T) {
	cfg := Default()
	cfg.LLM.Provider = llm.ProviderOpenAI
	cfg.LLM.APIKey = "sk-test"
	cfg.LLM.MinInterval = Duration(2 * time.Second)

	got := cfg.LLMClientConfig()
	assert.Equal(t, "openai", got.Provider)
	assert.Equal(t, "sk-test", got.APIKey)
	assert.Equal(t, 2*time.Second, got.MinInterval)
	assert.Equal(t, 5*time.Minute, got.Timeout)
}

func TestTelemetryConfig(t *testing.T) {
	cfg := Default()
	assert.False(t, cfg.TelemetryConfig("").Enabled)

	insecure := false
	rate := 0.25
	cfg.Telemetry.Enabled = true
	cfg.Telemetry.Endpoint = "otel.example.com:4318"
	cfg.Telemetry.Protocol = "http/protobuf"
	cfg.Telemetry.Insecure = &insecure
	cfg.Telemetry.SampleRate = &rate
	require.NoError(t, cfg.Validate())

	got := cfg.TelemetryConfig("1.2.3")
	assert.True(t, got.Enabled)
	assert.Equal(t, "otel.example.com:4318", got.Endpoint)
	assert.Equal(t, "http/protobuf", got.Protocol)
	assert.False(t, got.Insecure)
	assert.InDelta(t, 0.25, got.SampleRate, 1e-9)
	assert.True(t, got.MetricsEnabled)
	assert.Equal(t, "1.2.3", got.ServiceVersion)
	assert.Equal(t, "lpcassist", got.ServiceName)
	assert.Equal(t, 10*time.Second, got.ShutdownTimeout)
}

func TestSecret_Redacts(t *testing.T) {
	s := Secret("hunter2")

	assert.Equal(t, "[REDACTED]", s.String())
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%v", s))
	assert.Equal(t, "Secret([REDACTED])", fmt.Sprintf("%#v", s))
	assert.Equal(t, "hunter2", s.Value())
	assert.True(t, s.IsSet())

	data, err := json.Marshal(struct{ Key Secret }{s})
	require.NoError(t, err)
	assert.JSONEq(t, `{"Key":"[REDACTED]"}`, string(data))

	assert.Equal(t, "", Secret("").String())
	assert.False(t, Secret("").IsSet())
}

func TestDuration_UnmarshalText(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("90s")))
	assert.Equal(t, 90*time.Second, d.Duration())
	assert.Equal(t, "1m30s", d.String())

	assert.Error(t, d.UnmarshalText([]byte("-1s")))
	assert.Error(t, d.UnmarshalText([]byte("soon")))
}
