package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestContextFields_Empty(t *testing.T) {
	assert.Empty(t, ContextFields(context.Background()))
}

func TestContextFields_Tracing(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	tracer := provider.Tracer("test")

	ctx, span := tracer.Start(context.Background(), "search")
	defer span.End()

	keys := map[string]bool{}
	for _, f := range ContextFields(ctx) {
		keys[f.Key] = true
	}
	assert.True(t, keys["trace_id"], "trace_id field missing")
	assert.True(t, keys["span_id"], "span_id field missing")
}

func TestContextFields_RequestAndRun(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-7")
	ctx = WithRunID(ctx, "run-9")

	fields := ContextFields(ctx)
	values := map[string]string{}
	for _, f := range fields {
		values[f.Key] = f.String
	}
	assert.Equal(t, "req-7", values["request.id"])
	assert.Equal(t, "run-9", values["run.id"])
}

func TestWithIDs_IgnoreEmpty(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, ctx, WithRequestID(ctx, ""))
	assert.Equal(t, ctx, WithRunID(ctx, ""))
}
