package main

import (
	"context"
	"testing"

	"github.com/fyrsmithlabs/lpcassist/internal/config"
	"github.com/fyrsmithlabs/lpcassist/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// recordingExporter notes whether its provider shut it down.
type recordingExporter struct{ shutdown bool }

func (e *recordingExporter) ExportSpans(context.Context, []sdktrace.ReadOnlySpan) error { return nil }

func (e *recordingExporter) Shutdown(context.Context) error {
	e.shutdown = true
	return nil
}

func telemetryConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Corpus.Root = writeCorpus(t)
	cfg.Telemetry.Enabled = true
	cfg.Telemetry.Endpoint = "localhost:4317"
	return cfg
}

func TestNewAppFromConfig_ShutsDownTelemetryOnError(t *testing.T) {
	cfg := telemetryConfig(t)
	cfg.Corpus.Mode = "bogus"
	exp := &recordingExporter{}

	_, err := newAppFromConfig(context.Background(), cfg,
		telemetry.WithSpanExporter(exp),
		telemetry.WithMetricReader(sdkmetric.NewManualReader()),
	)
	require.Error(t, err)
	assert.True(t, exp.shutdown)
}

func TestNewAppFromConfig_KeepsTelemetryRunning(t *testing.T) {
	cfg := telemetryConfig(t)
	exp := &recordingExporter{}

	a, err := newAppFromConfig(context.Background(), cfg,
		telemetry.WithSpanExporter(exp),
		telemetry.WithMetricReader(sdkmetric.NewManualReader()),
	)
	require.NoError(t, err)
	assert.True(t, a.telemetry.Enabled())
	assert.False(t, exp.shutdown)

	a.close()
	assert.True(t, exp.shutdown)
}
