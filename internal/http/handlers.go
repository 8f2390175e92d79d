package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/fyrsmithlabs/lpcassist/internal/corpus"
	"github.com/fyrsmithlabs/lpcassist/internal/expansion"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 100
)

// Search kinds accepted by POST /api/v1/search.
const (
	SearchScored    = "scored"
	SearchSubstring = "substring"
)

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string       `json:"status"`
	Corpus corpus.Stats `json:"corpus"`
}

// QueryRequest is the body of the single-query endpoints.
type QueryRequest struct {
	Query string `json:"query"`
}

// SearchRequest is the request body for POST /api/v1/search.
type SearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
	Kind  string `json:"kind"`
}

// SearchResponse is the response body for POST /api/v1/search. Results is
// set for scored searches, Snippets for substring searches.
type SearchResponse struct {
	Query    string                `json:"query"`
	Kind     string                `json:"kind"`
	Results  []corpus.SearchResult `json:"results,omitempty"`
	Snippets []corpus.Snippet      `json:"snippets,omitempty"`
}

// ExpandResponse is the response body for POST /api/v1/expand.
type ExpandResponse struct {
	Queries []string         `json:"queries"`
	Topics  expansion.Topics `json:"topics"`
}

// IdentifierRequest is the request body for POST /api/v1/identifier.
type IdentifierRequest struct {
	Name string `json:"name"`
}

// PromptRequest is the request body for POST /api/v1/prompt.
type PromptRequest struct {
	Query    string   `json:"query"`
	Model    string   `json:"model"`
	Examples []string `json:"examples"`
}

// RefreshResponse is the response body for POST /api/v1/index/refresh.
type RefreshResponse struct {
	Files int          `json:"files"`
	Stats corpus.Stats `json:"stats"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok", Corpus: s.deps.Corpus.Stats()})
}

// bindQuery decodes a request with a required non-blank query.
func (s *Server) bindQuery(c echo.Context, req any, query func() string) error {
	if err := c.Bind(req); err != nil {
		s.logger.Warn("invalid request body", zap.String("path", c.Path()), zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(query()) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query field is required")
	}
	return nil
}

func (s *Server) handleSearch(c echo.Context) error {
	var req SearchRequest
	if err := s.bindQuery(c, &req, func() string { return req.Query }); err != nil {
		return err
	}
	if req.Limit <= 0 {
		req.Limit = defaultSearchLimit
	}
	if req.Limit > maxSearchLimit {
		req.Limit = maxSearchLimit
	}

	ctx := c.Request().Context()
	resp := SearchResponse{Query: req.Query, Kind: req.Kind}
	switch req.Kind {
	case "", SearchScored:
		resp.Kind = SearchScored
		resp.Results = s.deps.Corpus.SearchScored(ctx, req.Query, req.Limit)
	case SearchSubstring:
		resp.Snippets = s.deps.Corpus.SearchSubstring(ctx, req.Query, req.Limit)
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "kind must be scored or substring")
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleExpand(c echo.Context) error {
	var req QueryRequest
	if err := s.bindQuery(c, &req, func() string { return req.Query }); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ExpandResponse{
		Queries: expansion.Expand(req.Query),
		Topics:  expansion.Detect(req.Query),
	})
}

func (s *Server) handleValidate(c echo.Context) error {
	if s.deps.Validator == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "validator not configured")
	}
	var req QueryRequest
	if err := s.bindQuery(c, &req, func() string { return req.Query }); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s.deps.Validator.Validate(c.Request().Context(), req.Query))
}

func (s *Server) handleIdentifier(c echo.Context) error {
	if s.deps.Validator == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "validator not configured")
	}
	var req IdentifierRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid request body", zap.String("path", c.Path()), zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Name) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name field is required")
	}
	return c.JSON(http.StatusOK, s.deps.Validator.DescribeIdentifier(c.Request().Context(), req.Name))
}

func (s *Server) handlePrompt(c echo.Context) error {
	if s.deps.Assembler == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "prompt assembler not configured")
	}
	var req PromptRequest
	if err := s.bindQuery(c, &req, func() string { return req.Query }); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s.deps.Assembler.Assemble(c.Request().Context(), req.Query, req.Model, req.Examples))
}

func (s *Server) handleRefresh(c echo.Context) error {
	n, err := s.deps.Corpus.Refresh(c.Request().Context())
	if err != nil {
		s.logger.Error("index refresh failed", zap.Error(err))
		if errors.Is(err, corpus.ErrCorpusRootMissing) {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "corpus root missing")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "index refresh failed")
	}
	return c.JSON(http.StatusOK, RefreshResponse{Files: n, Stats: s.deps.Corpus.Stats()})
}
