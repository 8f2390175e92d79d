package benchstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/fyrsmithlabs/lpcassist/internal/benchmark"
	"github.com/fyrsmithlabs/lpcassist/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history", "bench.db")
	s, err := Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func comparison(runID string, started time.Time, models ...string) *benchmark.Comparison {
	var results []benchmark.Result
	for i, m := range models {
		results = append(results, benchmark.Result{
			ModelName:       m,
			Query:           "Generate a basic room",
			Response:        "inherit \"/std/room\";",
			ResponseTimeMs:  int64(1000 * (i + 1)),
			TokensPerSecond: 3.5,
			AccuracyScore:   0.5,
			QualityScore:    0.4,
			Timestamp:       started.Add(time.Duration(i) * time.Second),
		})
	}
	if len(results) > 0 {
		results[0].ValidationResult = &validation.Result{ConfidenceScore: 0.8}
	}
	return &benchmark.Comparison{
		RunID:        runID,
		StartedAt:    started,
		ModelsTested: models,
		TestQueries:  []string{"Generate a basic room"},
		Results:      results,
		Summary:      benchmark.Summarize(models, results),
	}
}

func TestOpen_Migrations(t *testing.T) {
	s, path := newTestStore(t)
	for _, table := range []string{"schema_meta", "runs", "results"} {
		_, err := s.db.ExecContext(context.Background(), "SELECT 1 FROM "+table+" LIMIT 1")
		assert.NoError(t, err, table)
	}
	require.NoError(t, s.Close())

	// Reopening an existing database is a no-op migration.
	again, err := Open(context.Background(), path)
	require.NoError(t, err)
	defer again.Close()

	var versions int
	require.NoError(t, again.db.QueryRow("SELECT COUNT(*) FROM schema_meta").Scan(&versions))
	assert.Equal(t, len(migrations), versions)
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := Open(context.Background(), "")
	assert.Error(t, err)
}

func TestSaveRun_RoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	started := time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC)
	c := comparison("run-a", started, "codellama", "qwen")

	id, err := s.SaveRun(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, "run-a", id)

	runs, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-a", runs[0].ID)
	assert.True(t, started.Equal(runs[0].StartedAt))
	assert.Equal(t, []string{"codellama", "qwen"}, runs[0].Models)
	assert.Equal(t, 1, runs[0].Queries)
	assert.Equal(t, 2, runs[0].Results)
	assert.Equal(t, c.Summary.RecommendedModel, runs[0].Recommended)
	assert.Equal(t, "codellama", runs[0].BestSpeed)

	results, err := s.RunResults(ctx, id)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "codellama", results[0].ModelName)
	assert.Equal(t, int64(2000), results[1].ResponseTimeMs)
	assert.True(t, c.Results[1].Timestamp.Equal(results[1].Timestamp))
	require.NotNil(t, results[0].ValidationResult)
	assert.InDelta(t, 0.8, results[0].ValidationResult.ConfidenceScore, 1e-9)
	assert.Nil(t, results[1].ValidationResult)
}

func TestSaveRun_GeneratesID(t *testing.T) {
	s, _ := newTestStore(t)
	c := comparison("", time.Time{}, "m")

	id, err := s.SaveRun(context.Background(), c)
	require.NoError(t, err)
	assert.Len(t, id, 36)

	_, err = s.SaveRun(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNilComparison)
}

func TestSaveRun_DuplicateID(t *testing.T) {
	s, _ := newTestStore(t)
	c := comparison("dup", time.Now(), "m")

	_, err := s.SaveRun(context.Background(), c)
	require.NoError(t, err)
	_, err = s.SaveRun(context.Background(), c)
	assert.Error(t, err)

	results, err := s.RunResults(context.Background(), "dup")
	require.NoError(t, err)
	assert.Len(t, results, 1, "failed save leaves no partial rows")
}

func TestListRuns_NewestFirstWithLimit(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "mid", "new"} {
		_, err := s.SaveRun(ctx, comparison(id, base.Add(time.Duration(i)*time.Hour), "m"))
		require.NoError(t, err)
	}

	runs, err := s.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "new", runs[0].ID)
	assert.Equal(t, "mid", runs[1].ID)
}

func TestRunResults_UnknownRun(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.RunResults(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestRunResults_EmptyRun(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.SaveRun(context.Background(), comparison("empty", time.Now()))
	require.NoError(t, err)

	results, err := s.RunResults(context.Background(), "empty")
	require.NoError(t, err)
	assert.Empty(t, results)
}
