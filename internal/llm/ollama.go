package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	openai "github.com/sashabaranov/go-openai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"go.uber.org/zap"
)

// DefaultOllamaURL is the address of a local Ollama server.
const DefaultOllamaURL = "http://localhost:11434"

// Ollama generates through a local or remote Ollama server. One langchaingo
// client is kept per model.
type Ollama struct {
	baseURL    string
	httpClient *http.Client
	lister     *openai.Client
	logger     *zap.Logger

	mu      sync.Mutex
	clients map[string]*ollama.LLM
}

// NewOllama creates an Ollama adapter. An empty baseURL selects
// DefaultOllamaURL.
func NewOllama(baseURL string, httpClient *http.Client, logger *zap.Logger) *Ollama {
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	// Ollama serves an OpenAI-compatible model listing under /v1.
	listCfg := openai.DefaultConfig("ollama")
	listCfg.BaseURL = baseURL + "/v1"
	listCfg.HTTPClient = httpClient

	return &Ollama{
		baseURL:    baseURL,
		httpClient: httpClient,
		lister:     openai.NewClientWithConfig(listCfg),
		logger:     logger,
		clients:    make(map[string]*ollama.LLM),
	}
}

// BaseURL returns the server address.
func (o *Ollama) BaseURL() string { return o.baseURL }

func (o *Ollama) client(model string) (*ollama.LLM, error) {
	if model == "" {
		return nil, ErrEmptyModel
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if c, ok := o.clients[model]; ok {
		return c, nil
	}
	c, err := ollama.New(
		ollama.WithModel(model),
		ollama.WithServerURL(o.baseURL),
		ollama.WithHTTPClient(o.httpClient),
	)
	if err != nil {
		return nil, fmt.Errorf("creating ollama client for %s: %w", model, err)
	}
	o.clients[model] = c
	return c, nil
}

// Generate implements Generator.
func (o *Ollama) Generate(ctx context.Context, model, prompt string, opts Options) (string, error) {
	return o.generate(ctx, model, prompt, opts, nil)
}

// GenerateStream implements Generator.
func (o *Ollama) GenerateStream(ctx context.Context, model, prompt string, opts Options, onToken func(string) error) (string, error) {
	return o.generate(ctx, model, prompt, opts, onToken)
}

func (o *Ollama) generate(ctx context.Context, model, prompt string, opts Options, onToken func(string) error) (string, error) {
	c, err := o.client(model)
	if err != nil {
		return "", err
	}
	callOpts := callOptions(opts)
	if onToken != nil {
		callOpts = append(callOpts, llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
			return onToken(string(chunk))
		}))
	}
	out, err := llms.GenerateFromSinglePrompt(ctx, c, prompt, callOpts...)
	if err != nil {
		return "", fmt.Errorf("ollama generate (%s): %w", model, err)
	}
	o.logger.Debug("ollama generation complete",
		zap.String("model", model),
		zap.Int("response_bytes", len(out)),
	)
	return out, nil
}

// ListModels implements ModelLister.
func (o *Ollama) ListModels(ctx context.Context) ([]string, error) {
	return listModels(ctx, o.lister)
}

func callOptions(opts Options) []llms.CallOption {
	var out []llms.CallOption
	if opts.Temperature > 0 {
		out = append(out, llms.WithTemperature(opts.Temperature))
	}
	if opts.TopP > 0 {
		out = append(out, llms.WithTopP(opts.TopP))
	}
	if opts.TopK > 0 {
		out = append(out, llms.WithTopK(opts.TopK))
	}
	if opts.MaxTokens > 0 {
		out = append(out, llms.WithMaxTokens(opts.MaxTokens))
	}
	return out
}

func listModels(ctx context.Context, c *openai.Client) ([]string, error) {
	resp, err := c.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	names := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		names = append(names, m.ID)
	}
	return names, nil
}
