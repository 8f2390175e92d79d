// Package logging provides structured logging for lpcassist.
//
// # Overview
//
// Logger wraps Zap with:
//   - Custom Trace level (-2, below Debug)
//   - Automatic context field injection (trace_id, span_id, request.id, run.id)
//   - Domain field constructors (Query, Model, CorpusRoot, Path)
//   - Output to stderr by default so command output on stdout stays clean
//
// # Usage
//
//	cfg := logging.NewDefaultConfig()
//	logger, err := logging.NewLogger(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer logger.Sync()
//
//	ctx = logging.WithRunID(ctx, runID)
//	logger.Info(ctx, "benchmark pair finished", logging.Model(model))
//
// Output includes correlation fields:
//
//	{
//	  "ts": "2026-03-02T10:15:30Z",
//	  "level": "info",
//	  "msg": "benchmark pair finished",
//	  "run.id": "0b0f6f9e-...",
//	  "model": "codellama"
//	}
//
// # Testing
//
// NewTestLogger records entries in memory:
//
//	tl := logging.NewTestLogger()
//	svc := corpus.New(root, corpus.WithLogger(tl.Logger))
//	tl.AssertLogged(t, zapcore.WarnLevel, "skipping")
package logging
