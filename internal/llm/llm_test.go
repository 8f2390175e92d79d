package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	mu    sync.Mutex
	calls []time.Time
}

func (f *fakeClient) record() {
	f.mu.Lock()
	f.calls = append(f.calls, time.Now())
	f.mu.Unlock()
}

func (f *fakeClient) Generate(_ context.Context, model, prompt string, _ Options) (string, error) {
	f.record()
	return model + ":" + prompt, nil
}

func (f *fakeClient) GenerateStream(_ context.Context, model, prompt string, _ Options, onToken func(string) error) (string, error) {
	f.record()
	if err := onToken(prompt); err != nil {
		return "", err
	}
	return prompt, nil
}

func (f *fakeClient) ListModels(context.Context) ([]string, error) {
	return []string{"a", "b"}, nil
}

func TestBenchmarkOptions(t *testing.T) {
	opts := BenchmarkOptions()
	assert.InDelta(t, 0.3, opts.Temperature, 1e-9)
	assert.InDelta(t, 0.9, opts.TopP, 1e-9)
	assert.Equal(t, 40, opts.TopK)
	assert.Equal(t, 2048, opts.MaxTokens)
}

func TestPaced_SpacesCalls(t *testing.T) {
	inner := &fakeClient{}
	p := NewPaced(inner, 50*time.Millisecond)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		out, err := p.Generate(ctx, "m", fmt.Sprint(i), Options{})
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("m:%d", i), out)
	}

	require.Len(t, inner.calls, 3)
	assert.GreaterOrEqual(t, inner.calls[2].Sub(inner.calls[0]), 90*time.Millisecond)
}

func TestPaced_WaitThenUnwrap(t *testing.T) {
	inner := &fakeClient{}
	p := NewPaced(inner, 50*time.Millisecond)
	ctx := context.Background()

	assert.Same(t, inner, p.Unwrap())

	require.NoError(t, p.Wait(ctx))
	start := time.Now()
	require.NoError(t, p.Wait(ctx))
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)

	_, err := p.Unwrap().Generate(ctx, "m", "p", Options{})
	require.NoError(t, err)
	assert.Len(t, inner.calls, 1)
}

func TestPaced_Disabled(t *testing.T) {
	inner := &fakeClient{}
	p := NewPaced(inner, 0)

	start := time.Now()
	for i := 0; i < 10; i++ {
		_, err := p.Generate(context.Background(), "m", "p", Options{})
		require.NoError(t, err)
	}
	assert.Less(t, time.Since(start), time.Second)

	models, err := p.ListModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, models)
}

func TestPaced_CancelledContext(t *testing.T) {
	inner := &fakeClient{}
	p := NewPaced(inner, time.Hour)
	_, err := p.Generate(context.Background(), "m", "p", Options{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.GenerateStream(ctx, "m", "p", Options{}, func(string) error { return nil })
	assert.Error(t, err)
	assert.Len(t, inner.calls, 1)
}

func TestNew_Providers(t *testing.T) {
	for _, provider := range []string{"", "ollama", "OpenAI"} {
		c, err := New(Config{Provider: provider, BaseURL: "http://localhost:1"})
		require.NoError(t, err, provider)
		assert.IsType(t, &Paced{}, c)
	}

	_, err := New(Config{Provider: "llamacpp"})
	assert.True(t, errors.Is(err, ErrUnknownProvider))
}

func newOpenAIServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[{"id":"codellama","object":"model"},{"id":"qwen2.5-coder","object":"model"}]}`))
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model    string `json:"model"`
			Stream   bool   `json:"stream"`
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.Model == "missing" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"message":"model not found","type":"invalid_request_error"}}`))
			return
		}
		if req.Stream {
			w.Header().Set("Content-Type", "text/event-stream")
			for _, tok := range []string{"inherit ", "\"/std/room\";"} {
				fmt.Fprintf(w, "data: {\"id\":\"1\",\"object\":\"chat.completion.chunk\",\"choices\":[{\"index\":0,\"delta\":{\"content\":%q}}]}\n\n", tok)
			}
			fmt.Fprint(w, "data: [DONE]\n\n")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "1",
			"object": "chat.completion",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]string{"role": "assistant", "content": req.Model + " says " + req.Messages[0].Content},
				"finish_reason": "stop",
			}},
			"usage": map[string]int{"prompt_tokens": 1, "completion_tokens": 2, "total_tokens": 3},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAI_Generate(t *testing.T) {
	srv := newOpenAIServer(t)
	c := NewOpenAI(srv.URL+"/v1", "key", srv.Client(), nil)

	out, err := c.Generate(context.Background(), "codellama", "hello", BenchmarkOptions())
	require.NoError(t, err)
	assert.Equal(t, "codellama says hello", out)

	_, err = c.Generate(context.Background(), "missing", "hello", Options{})
	assert.Error(t, err)

	_, err = c.Generate(context.Background(), "", "hello", Options{})
	assert.ErrorIs(t, err, ErrEmptyModel)
}

func TestOpenAI_GenerateStream(t *testing.T) {
	srv := newOpenAIServer(t)
	c := NewOpenAI(srv.URL+"/v1", "key", srv.Client(), nil)

	var tokens []string
	out, err := c.GenerateStream(context.Background(), "codellama", "room", Options{}, func(tok string) error {
		tokens = append(tokens, tok)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "inherit \"/std/room\";", out)
	assert.Equal(t, []string{"inherit ", "\"/std/room\";"}, tokens)

	stop := errors.New("stop")
	_, err = c.GenerateStream(context.Background(), "codellama", "room", Options{}, func(string) error { return stop })
	assert.ErrorIs(t, err, stop)
}

func TestListModels(t *testing.T) {
	srv := newOpenAIServer(t)

	models, err := NewOpenAI(srv.URL+"/v1", "", srv.Client(), nil).ListModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"codellama", "qwen2.5-coder"}, models)

	models, err = NewOllama(srv.URL+"/", srv.Client(), nil).ListModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"codellama", "qwen2.5-coder"}, models)
}

func TestOllama_Defaults(t *testing.T) {
	o := NewOllama("", nil, nil)
	assert.Equal(t, DefaultOllamaURL, o.BaseURL())

	_, err := o.Generate(context.Background(), "", "p", Options{})
	assert.ErrorIs(t, err, ErrEmptyModel)
}

func TestCallOptions(t *testing.T) {
	assert.Empty(t, callOptions(Options{}))
	assert.Len(t, callOptions(BenchmarkOptions()), 4)
}
