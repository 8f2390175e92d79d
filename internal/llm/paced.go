package llm

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Paced spaces calls to the wrapped client by a minimum interval. It does
// not retry.
type Paced struct {
	next    Client
	limiter *rate.Limiter
}

// NewPaced wraps next. A non-positive interval disables pacing.
func NewPaced(next Client, interval time.Duration) *Paced {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Paced{next: next, limiter: rate.NewLimiter(limit, 1)}
}

// Wait blocks until the next call is allowed. Callers that time generation
// should Wait first and then call the Unwrap'd client directly, so pacing
// delay is not counted as latency.
func (p *Paced) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

// Unwrap returns the client being paced.
func (p *Paced) Unwrap() Client { return p.next }

// Generate implements Generator.
func (p *Paced) Generate(ctx context.Context, model, prompt string, opts Options) (string, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return p.next.Generate(ctx, model, prompt, opts)
}

// GenerateStream implements Generator.
func (p *Paced) GenerateStream(ctx context.Context, model, prompt string, opts Options, onToken func(string) error) (string, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return p.next.GenerateStream(ctx, model, prompt, opts, onToken)
}

// ListModels implements ModelLister. Listing is not paced.
func (p *Paced) ListModels(ctx context.Context) ([]string, error) {
	return p.next.ListModels(ctx)
}
