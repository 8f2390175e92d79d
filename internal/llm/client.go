package llm

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Config selects and configures a backend.
type Config struct {
	Provider    string
	BaseURL     string
	APIKey      string
	Timeout     time.Duration
	MinInterval time.Duration
	Logger      *zap.Logger
}

// New builds the client for cfg.Provider ("ollama" when empty), wrapped in
// a Paced decorator.
func New(cfg Config) (Client, error) {
	httpClient := &http.Client{Timeout: cfg.Timeout}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("llm")

	var c Client
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderOllama:
		c = NewOllama(cfg.BaseURL, httpClient, logger)
	case ProviderOpenAI:
		c = NewOpenAI(cfg.BaseURL, cfg.APIKey, httpClient, logger)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
	return NewPaced(c, cfg.MinInterval), nil
}
