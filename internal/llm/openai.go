package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAI generates through an OpenAI-compatible chat completions endpoint.
// TopK has no equivalent there and is ignored.
type OpenAI struct {
	client *openai.Client
	logger *zap.Logger
}

// NewOpenAI creates an adapter. An empty baseURL keeps the client default.
func NewOpenAI(baseURL, apiKey string, httpClient *http.Client, logger *zap.Logger) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OpenAI{client: openai.NewClientWithConfig(cfg), logger: logger}
}

func chatRequest(model, prompt string, opts Options) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: float32(opts.Temperature),
		TopP:        float32(opts.TopP),
		MaxTokens:   opts.MaxTokens,
	}
}

// Generate implements Generator.
func (o *OpenAI) Generate(ctx context.Context, model, prompt string, opts Options) (string, error) {
	if model == "" {
		return "", ErrEmptyModel
	}
	resp, err := o.client.CreateChatCompletion(ctx, chatRequest(model, prompt, opts))
	if err != nil {
		return "", fmt.Errorf("chat completion (%s): %w", model, parseAPIError(err))
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion (%s): %w", model, ErrEmptyResponse)
	}
	o.logger.Debug("chat completion done",
		zap.String("model", model),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
	)
	return resp.Choices[0].Message.Content, nil
}

// GenerateStream implements Generator.
func (o *OpenAI) GenerateStream(ctx context.Context, model, prompt string, opts Options, onToken func(string) error) (string, error) {
	if model == "" {
		return "", ErrEmptyModel
	}
	req := chatRequest(model, prompt, opts)
	req.Stream = true
	stream, err := o.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat stream (%s): %w", model, parseAPIError(err))
	}
	defer stream.Close()

	var full strings.Builder
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return full.String(), nil
		}
		if err != nil {
			return full.String(), fmt.Errorf("chat stream (%s): %w", model, parseAPIError(err))
		}
		if len(resp.Choices) == 0 {
			continue
		}
		chunk := resp.Choices[0].Delta.Content
		if chunk == "" {
			continue
		}
		full.WriteString(chunk)
		if onToken != nil {
			if err := onToken(chunk); err != nil {
				return full.String(), err
			}
		}
	}
}

// ListModels implements ModelLister.
func (o *OpenAI) ListModels(ctx context.Context) ([]string, error) {
	return listModels(ctx, o.client)
}

func parseAPIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("api error %d: %s: %w", apiErr.HTTPStatusCode, apiErr.Message, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("request error %d: %w", reqErr.HTTPStatusCode, err)
	}
	return err
}
