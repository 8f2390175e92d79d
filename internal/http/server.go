// Package http serves the retrieval pipeline over a JSON API for editor
// and desktop integrations.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fyrsmithlabs/lpcassist/internal/corpus"
	"github.com/fyrsmithlabs/lpcassist/internal/logging"
	"github.com/fyrsmithlabs/lpcassist/internal/prompt"
	"github.com/fyrsmithlabs/lpcassist/internal/validation"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Corpus is the index surface the server uses.
type Corpus interface {
	SearchScored(ctx context.Context, query string, limit int) []corpus.SearchResult
	SearchSubstring(ctx context.Context, query string, limit int) []corpus.Snippet
	Refresh(ctx context.Context) (int, error)
	Stats() corpus.Stats
}

// Validator scores a query against the corpus and describes known efuns.
type Validator interface {
	Validate(ctx context.Context, query string) *validation.Result
	DescribeIdentifier(ctx context.Context, name string) *validation.IdentifierReport
}

// Assembler builds prompts.
type Assembler interface {
	Assemble(ctx context.Context, query, model string, examples []string) *prompt.Assembly
}

// Deps are the pipeline components behind the API. Validator and Assembler
// are optional; their routes answer 503 when unset.
type Deps struct {
	Corpus    Corpus
	Validator Validator
	Assembler Assembler
}

// Server provides the HTTP endpoints.
type Server struct {
	echo    *echo.Echo
	deps    Deps
	logger  *zap.Logger
	config  *Config
	metrics *HTTPMetrics
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int
}

// NewServer creates a new HTTP server.
func NewServer(deps Deps, logger *zap.Logger, cfg *Config) (*Server, error) {
	if deps.Corpus == nil {
		return nil, errors.New("corpus cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host: "127.0.0.1",
			Port: 8484,
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	metrics := NewHTTPMetrics(logger)

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(metrics.MetricsMiddleware())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			requestID := c.Response().Header().Get(echo.HeaderXRequestID)
			req := c.Request()
			c.SetRequest(req.WithContext(logging.WithRequestID(req.Context(), requestID)))

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			logger.Info("http request",
				zap.String("method", req.Method),
				zap.String("uri", req.RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", requestID),
			)
			return nil
		}
	})

	s := &Server{
		echo:    e,
		deps:    deps,
		logger:  logger,
		config:  cfg,
		metrics: metrics,
	}
	s.registerRoutes()
	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.echo.Group("/api/v1")
	v1.POST("/search", s.handleSearch)
	v1.POST("/expand", s.handleExpand)
	v1.POST("/validate", s.handleValidate)
	v1.POST("/identifier", s.handleIdentifier)
	v1.POST("/prompt", s.handlePrompt)
	v1.POST("/index/refresh", s.handleRefresh)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.echo }

// Start starts the HTTP server. It returns http.ErrServerClosed after
// Shutdown.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
