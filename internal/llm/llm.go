// Package llm adapts generation backends (Ollama, OpenAI-compatible
// endpoints) to a small Generator interface used by the CLI, the HTTP API
// and the benchmark harness.
package llm

import (
	"context"
	"errors"
)

var (
	// ErrUnknownProvider is returned by New for an unsupported provider name.
	ErrUnknownProvider = errors.New("unknown llm provider")

	// ErrEmptyResponse indicates the backend returned no choices.
	ErrEmptyResponse = errors.New("empty generation response")

	// ErrEmptyModel indicates a call without a model name.
	ErrEmptyModel = errors.New("model name is required")
)

// Provider names accepted by New.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// Options are sampling parameters passed to the backend. Zero values are
// left to the backend's defaults.
type Options struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	TopK        int     `json:"top_k"`
	MaxTokens   int     `json:"max_tokens"`
}

// BenchmarkOptions are the low-temperature settings used for model
// comparison runs.
func BenchmarkOptions() Options {
	return Options{
		Temperature: 0.3,
		TopP:        0.9,
		TopK:        40,
		MaxTokens:   2048,
	}
}

// Generator produces a completion for a prompt.
type Generator interface {
	Generate(ctx context.Context, model, prompt string, opts Options) (string, error)

	// GenerateStream calls onToken for each chunk as it arrives and returns
	// the full text. An error from onToken aborts the stream.
	GenerateStream(ctx context.Context, model, prompt string, opts Options, onToken func(string) error) (string, error)
}

// ModelLister lists models available on the backend.
type ModelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}

// Client is a Generator that can also list its models.
type Client interface {
	Generator
	ModelLister
}
