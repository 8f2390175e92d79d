package benchstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const migrationV1 = `
CREATE TABLE IF NOT EXISTS schema_meta (
  version INTEGER PRIMARY KEY,
  applied_at_unix_ms INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS runs (
  run_id TEXT PRIMARY KEY,
  started_at_unix_ms INTEGER NOT NULL,
  models TEXT NOT NULL,
  queries INTEGER NOT NULL,
  best_accuracy TEXT NOT NULL,
  best_speed TEXT NOT NULL,
  best_quality TEXT NOT NULL,
  recommended TEXT NOT NULL,
  reasoning TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at_unix_ms DESC);

CREATE TABLE IF NOT EXISTS results (
  run_id TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
  seq INTEGER NOT NULL,
  model TEXT NOT NULL,
  query TEXT NOT NULL,
  response TEXT NOT NULL,
  response_time_ms INTEGER NOT NULL,
  tokens_per_second REAL NOT NULL,
  accuracy REAL NOT NULL,
  quality REAL NOT NULL,
  confidence REAL,
  ts_unix_ms INTEGER NOT NULL,
  PRIMARY KEY (run_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_results_model ON results(model);
`

var migrations = []struct {
	version int
	sql     string
}{
	{version: 1, sql: migrationV1},
}

func (s *Store) migrate(ctx context.Context) error {
	current := 0
	err := s.db.QueryRowContext(ctx, `SELECT version FROM schema_meta ORDER BY version DESC LIMIT 1`).Scan(&current)
	switch {
	case err == nil, errors.Is(err, sql.ErrNoRows), isTableNotFoundError(err):
	default:
		return fmt.Errorf("reading schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if _, err := s.db.ExecContext(ctx, m.sql); err != nil {
			return fmt.Errorf("migration v%d: %w", m.version, err)
		}
		if _, err := s.db.ExecContext(ctx,
			`INSERT OR REPLACE INTO schema_meta (version, applied_at_unix_ms) VALUES (?, ?)`,
			m.version, time.Now().UnixMilli()); err != nil {
			return fmt.Errorf("recording migration v%d: %w", m.version, err)
		}
	}
	return nil
}
