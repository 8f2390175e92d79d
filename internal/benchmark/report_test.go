package benchmark

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fyrsmithlabs/lpcassist/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func results(model string, accuracy, quality float64, latencyMs int64, n int) []Result {
	out := make([]Result, n)
	for i := range out {
		out[i] = Result{ModelName: model, AccuracyScore: accuracy, QualityScore: quality, ResponseTimeMs: latencyMs}
	}
	return out
}

func TestSummarize_WeightedRecommendation(t *testing.T) {
	// A: full accuracy, slow. B: half accuracy, fast. Equal quality.
	res := append(results("A", 1.0, 0.5, 2000, 5), results("B", 0.5, 0.5, 500, 5)...)

	s := Summarize([]string{"A", "B"}, res)

	assert.Equal(t, "A", s.RecommendedModel)
	assert.Equal(t, "A", s.BestAccuracy)
	assert.Equal(t, "B", s.BestSpeed)
	assert.Equal(t, "A", s.BestQuality, "ties keep the earlier model")
	require.Len(t, s.Models, 2)
	assert.InDelta(t, 0.4+0.2+0.2/3, s.Models[0].Combined, 1e-9)
	assert.InDelta(t, 0.2+0.2+0.2/1.5, s.Models[1].Combined, 1e-9)
	assert.Contains(t, s.Reasoning, "A achieved highest accuracy (100.0%)")
	assert.Contains(t, s.Reasoning, "Recommended model A")
}

func TestSummarize_SkipsModelsWithoutResults(t *testing.T) {
	s := Summarize([]string{"ghost", "real"}, results("real", 0, 0, 0, 1))

	assert.Equal(t, "real", s.RecommendedModel)
	assert.Equal(t, "real", s.BestAccuracy)
	assert.Equal(t, "real", s.BestQuality)
	require.Len(t, s.Models, 1)
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize([]string{"a"}, nil)
	assert.Empty(t, s.RecommendedModel)
	assert.Empty(t, s.BestSpeed)
	assert.NotEmpty(t, s.Reasoning)
}

func sampleComparison() *Comparison {
	ts := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	res := []Result{{
		ModelName:       "codellama",
		Query:           "Generate a basic room",
		Response:        "inherit \"/std/room\";\n\nvoid create() {\n  ::create();\n}\n",
		ResponseTimeMs:  1234,
		TokensPerSecond: 4.2,
		ValidationResult: &validation.Result{
			Query:            "Generate a basic room",
			Documents:        []validation.Document{},
			ConfidenceScore:  0.6,
			KnownIdentifiers: []string{"clone_object"},
		},
		AccuracyScore: 0.75,
		QualityScore:  0.8,
		Timestamp:     ts,
	}}
	return &Comparison{
		RunID:        "run-1",
		StartedAt:    ts,
		ModelsTested: []string{"codellama"},
		TestQueries:  []string{"Generate a basic room"},
		Results:      res,
		Summary:      Summarize([]string{"codellama"}, res),
	}
}

func TestReport_RoundTrip(t *testing.T) {
	for _, name := range []string{"report.json", "nested/dir/report.yaml", "report.YML"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			want := sampleComparison()

			require.NoError(t, want.Save(path))
			got, err := LoadReport(path)
			require.NoError(t, err)

			assert.Equal(t, want.ModelsTested, got.ModelsTested)
			assert.Equal(t, want.TestQueries, got.TestQueries)
			assert.Equal(t, want.Summary, got.Summary)
			require.Len(t, got.Results, 1)
			assert.Equal(t, want.Results[0].Response, got.Results[0].Response)
			assert.True(t, want.Results[0].Timestamp.Equal(got.Results[0].Timestamp))
			assert.Equal(t, want.Results[0].ValidationResult.KnownIdentifiers, got.Results[0].ValidationResult.KnownIdentifiers)
		})
	}
}

func TestReport_FieldNames(t *testing.T) {
	dir := t.TempDir()
	c := sampleComparison()

	jsonPath := filepath.Join(dir, "r.json")
	require.NoError(t, c.Save(jsonPath))
	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	for _, key := range []string{`"models_tested"`, `"test_queries"`, `"results"`, `"summary"`, `"best_accuracy"`, `"best_speed"`, `"best_quality"`, `"recommended_model"`, `"reasoning"`, `"response_time_ms"`, `"tokens_per_second"`, `"validation_result"`, `"accuracy_score"`, `"quality_score"`, `"timestamp"`} {
		assert.Contains(t, string(data), key)
	}

	yamlPath := filepath.Join(dir, "r.yaml")
	require.NoError(t, c.Save(yamlPath))
	data, err = os.ReadFile(yamlPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "models_tested:\n")
	assert.Contains(t, string(data), "recommended_model: codellama")
	assert.NotContains(t, string(data), `"models_tested"`)
}

func TestLoadReport_Errors(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadReport(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o644))
	_, err = LoadReport(bad)
	assert.Error(t, err)
}
