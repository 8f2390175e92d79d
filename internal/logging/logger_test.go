package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger(t *testing.T) {
	cfg := NewDefaultConfig()

	logger, err := NewLogger(cfg)
	require.NoError(t, err)
	require.NotNil(t, logger)
	assert.Equal(t, cfg, logger.config)
}

func TestNewLogger_InvalidConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Format = "xml"

	_, err := NewLogger(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestLogger_ContextAwareMethods(t *testing.T) {
	core, observed := observer.New(TraceLevel)
	logger := &Logger{zap: zap.New(core), config: NewDefaultConfig()}
	ctx := WithRunID(context.Background(), "run-1")

	tests := []struct {
		name    string
		logFunc func()
		level   zapcore.Level
	}{
		{"trace", func() { logger.Trace(ctx, "msg") }, TraceLevel},
		{"debug", func() { logger.Debug(ctx, "msg") }, zapcore.DebugLevel},
		{"info", func() { logger.Info(ctx, "msg") }, zapcore.InfoLevel},
		{"warn", func() { logger.Warn(ctx, "msg") }, zapcore.WarnLevel},
		{"error", func() { logger.Error(ctx, "msg") }, zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			observed.TakeAll()
			tt.logFunc()

			logs := observed.All()
			require.Len(t, logs, 1)
			assert.Equal(t, tt.level, logs[0].Level)
			assert.Equal(t, "run-1", logs[0].ContextMap()["run.id"])
		})
	}
}

func TestLogger_TraceDisabledAtInfo(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	logger := &Logger{zap: zap.New(core), config: NewDefaultConfig()}

	logger.Trace(context.Background(), "hidden")
	assert.Empty(t, observed.All())
	assert.False(t, logger.Enabled(TraceLevel))
}

func TestLogger_WithAndNamed(t *testing.T) {
	tl := NewTestLogger()
	child := tl.Named("corpus").With(zap.String("root", "/tmp/corpus"))

	child.Info(context.Background(), "index built")

	entries := tl.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "corpus", entries[0].LoggerName)
	tl.AssertField(t, "index built", "root", "/tmp/corpus")
}

func TestNewNop(t *testing.T) {
	logger := NewNop()
	assert.NotPanics(t, func() {
		logger.Info(context.Background(), "discarded")
	})
	assert.NotNil(t, logger.Underlying())
}
