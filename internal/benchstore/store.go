// Package benchstore keeps benchmark history in a local SQLite database so
// runs can be compared over time.
package benchstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fyrsmithlabs/lpcassist/internal/benchmark"
	"github.com/fyrsmithlabs/lpcassist/internal/validation"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

var (
	// ErrRunNotFound indicates an unknown run ID.
	ErrRunNotFound = errors.New("benchmark run not found")

	// ErrNilComparison indicates SaveRun was called without a comparison.
	ErrNilComparison = errors.New("comparison is nil")
)

// Run is a stored benchmark run.
type Run struct {
	ID           string    `json:"run_id"`
	StartedAt    time.Time `json:"started_at"`
	Models       []string  `json:"models_tested"`
	Queries      int       `json:"queries"`
	Results      int       `json:"results"`
	BestAccuracy string    `json:"best_accuracy"`
	BestSpeed    string    `json:"best_speed"`
	BestQuality  string    `json:"best_quality"`
	Recommended  string    `json:"recommended_model"`
	Reasoning    string    `json:"reasoning"`
}

// Store is a SQLite-backed run history.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and applies migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("history path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connecting to history database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrating history database: %w", err)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun stores c and its results in one transaction and returns the run
// ID. c.RunID is used when set, otherwise a new one is generated.
func (s *Store) SaveRun(ctx context.Context, c *benchmark.Comparison) (string, error) {
	if c == nil {
		return "", ErrNilComparison
	}
	runID := c.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	started := c.StartedAt
	if started.IsZero() {
		started = time.Now()
	}
	models, err := json.Marshal(c.ModelsTested)
	if err != nil {
		return "", fmt.Errorf("encoding models: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (run_id, started_at_unix_ms, models, queries,
			best_accuracy, best_speed, best_quality, recommended, reasoning)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, runID, started.UnixMilli(), string(models), len(c.TestQueries),
		c.Summary.BestAccuracy, c.Summary.BestSpeed, c.Summary.BestQuality,
		c.Summary.RecommendedModel, c.Summary.Reasoning)
	if err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO results (run_id, seq, model, query, response, response_time_ms,
			tokens_per_second, accuracy, quality, confidence, ts_unix_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", fmt.Errorf("preparing result insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range c.Results {
		var confidence sql.NullFloat64
		if r.ValidationResult != nil {
			confidence = sql.NullFloat64{Float64: r.ValidationResult.ConfidenceScore, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, runID, i, r.ModelName, r.Query, r.Response, r.ResponseTimeMs,
			r.TokensPerSecond, r.AccuracyScore, r.QualityScore, confidence, r.Timestamp.UnixMilli()); err != nil {
			return "", fmt.Errorf("inserting result %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing run: %w", err)
	}
	return runID, nil
}

// ListRuns returns the most recent runs first. limit <= 0 returns all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `
		SELECT r.run_id, r.started_at_unix_ms, r.models, r.queries,
			r.best_accuracy, r.best_speed, r.best_quality, r.recommended, r.reasoning,
			(SELECT COUNT(*) FROM results x WHERE x.run_id = r.run_id)
		FROM runs r
		ORDER BY r.started_at_unix_ms DESC, r.rowid DESC
	`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r       Run
			started int64
			models  string
		)
		if err := rows.Scan(&r.ID, &started, &models, &r.Queries,
			&r.BestAccuracy, &r.BestSpeed, &r.BestQuality, &r.Recommended, &r.Reasoning,
			&r.Results); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.StartedAt = time.UnixMilli(started).UTC()
		if err := json.Unmarshal([]byte(models), &r.Models); err != nil {
			return nil, fmt.Errorf("decoding models of run %s: %w", r.ID, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RunResults returns the results of runID in their original order.
// Validation details other than confidence are not stored; a stored
// confidence comes back as a ValidationResult carrying only that score.
func (s *Store) RunResults(ctx context.Context, runID string) ([]benchmark.Result, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM runs WHERE run_id = ?`, runID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("looking up run: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT model, query, response, response_time_ms, tokens_per_second,
			accuracy, quality, confidence, ts_unix_ms
		FROM results WHERE run_id = ? ORDER BY seq
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying results: %w", err)
	}
	defer rows.Close()

	out := []benchmark.Result{}
	for rows.Next() {
		var (
			r          benchmark.Result
			confidence sql.NullFloat64
			ts         int64
		)
		if err := rows.Scan(&r.ModelName, &r.Query, &r.Response, &r.ResponseTimeMs, &r.TokensPerSecond,
			&r.AccuracyScore, &r.QualityScore, &confidence, &ts); err != nil {
			return nil, fmt.Errorf("scanning result: %w", err)
		}
		r.Timestamp = time.UnixMilli(ts).UTC()
		if confidence.Valid {
			r.ValidationResult = confidenceOnly(r.Query, confidence.Float64)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func isTableNotFoundError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no such table")
}

func confidenceOnly(query string, confidence float64) *validation.Result {
	return &validation.Result{
		Query:            query,
		Documents:        []validation.Document{},
		ConfidenceScore:  confidence,
		KnownIdentifiers: []string{},
	}
}
