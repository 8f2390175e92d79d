package benchmark

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fyrsmithlabs/lpcassist/internal/validation"
	"gopkg.in/yaml.v3"
)

// Result is one scored (model, query) pair.
type Result struct {
	ModelName        string             `json:"model_name"`
	Query            string             `json:"query"`
	Response         string             `json:"response"`
	ResponseTimeMs   int64              `json:"response_time_ms"`
	TokensPerSecond  float64            `json:"tokens_per_second"`
	ValidationResult *validation.Result `json:"validation_result"`
	AccuracyScore    float64            `json:"accuracy_score"`
	QualityScore     float64            `json:"quality_score"`
	Timestamp        time.Time          `json:"timestamp"`
}

// ModelStats aggregates the successful results of one model.
type ModelStats struct {
	Model        string  `json:"model"`
	Runs         int     `json:"runs"`
	AvgAccuracy  float64 `json:"avg_accuracy"`
	AvgQuality   float64 `json:"avg_quality"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
	Combined     float64 `json:"combined_score"`
}

// Summary names the leaders of a comparison.
type Summary struct {
	BestAccuracy     string       `json:"best_accuracy"`
	BestSpeed        string       `json:"best_speed"`
	BestQuality      string       `json:"best_quality"`
	RecommendedModel string       `json:"recommended_model"`
	Reasoning        string       `json:"reasoning"`
	Models           []ModelStats `json:"model_stats,omitempty"`
}

// Comparison is the outcome of a benchmark run.
type Comparison struct {
	RunID        string    `json:"run_id,omitempty"`
	StartedAt    time.Time `json:"started_at"`
	ModelsTested []string  `json:"models_tested"`
	TestQueries  []string  `json:"test_queries"`
	Results      []Result  `json:"results"`
	Summary      Summary   `json:"summary"`
}

// Summarize computes per-model averages and picks the leaders. Models with
// no results are ignored. Ties keep the model listed first.
func Summarize(models []string, results []Result) Summary {
	var s Summary
	var bestAcc, bestQual, bestCombined, bestLatency float64
	picked := false
	for _, model := range models {
		st, ok := modelStats(model, results)
		if !ok {
			continue
		}
		s.Models = append(s.Models, st)
		if !picked {
			picked = true
			s.BestAccuracy, bestAcc = model, st.AvgAccuracy
			s.BestQuality, bestQual = model, st.AvgQuality
			s.BestSpeed, bestLatency = model, st.AvgLatencyMs
			s.RecommendedModel, bestCombined = model, st.Combined
			continue
		}
		if st.AvgAccuracy > bestAcc {
			s.BestAccuracy, bestAcc = model, st.AvgAccuracy
		}
		if st.AvgQuality > bestQual {
			s.BestQuality, bestQual = model, st.AvgQuality
		}
		if st.AvgLatencyMs < bestLatency {
			s.BestSpeed, bestLatency = model, st.AvgLatencyMs
		}
		if st.Combined > bestCombined {
			s.RecommendedModel, bestCombined = model, st.Combined
		}
	}

	if !picked {
		s.Reasoning = "No model produced a successful result; nothing to recommend."
		return s
	}
	s.Reasoning = fmt.Sprintf(
		"Based on testing: %s achieved highest accuracy (%.1f%%), %s was fastest (avg %.0fms), %s had best quality score (%.1f%%). Recommended model %s balances all factors (0.4 accuracy, 0.4 quality, 0.2 speed).",
		s.BestAccuracy, bestAcc*100,
		s.BestSpeed, bestLatency,
		s.BestQuality, bestQual*100,
		s.RecommendedModel,
	)
	return s
}

func modelStats(model string, results []Result) (ModelStats, bool) {
	st := ModelStats{Model: model}
	var acc, qual, lat float64
	for _, r := range results {
		if r.ModelName != model {
			continue
		}
		st.Runs++
		acc += r.AccuracyScore
		qual += r.QualityScore
		lat += float64(r.ResponseTimeMs)
	}
	if st.Runs == 0 {
		return st, false
	}
	n := float64(st.Runs)
	st.AvgAccuracy = acc / n
	st.AvgQuality = qual / n
	st.AvgLatencyMs = lat / n
	st.Combined = combinedScore(st.AvgAccuracy, st.AvgQuality, st.AvgLatencyMs)
	return st, true
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// Save writes the comparison to path: YAML for .yaml/.yml, JSON otherwise.
// YAML reports use the same field names as JSON.
func (c *Comparison) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if isYAML(path) {
		if data, err = jsonToYAML(data); err != nil {
			return fmt.Errorf("encoding report: %w", err)
		}
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating report directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report %s: %w", path, err)
	}
	return nil
}

// LoadReport reads a report written by Save.
func LoadReport(path string) (*Comparison, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading report %s: %w", path, err)
	}
	if isYAML(path) {
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decoding report %s: %w", path, err)
		}
		if data, err = json.Marshal(doc); err != nil {
			return nil, fmt.Errorf("decoding report %s: %w", path, err)
		}
	}
	var c Comparison
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decoding report %s: %w", path, err)
	}
	return &c, nil
}

// jsonToYAML re-encodes a JSON document as block-style YAML, keeping key
// order.
func jsonToYAML(data []byte) ([]byte, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	plainStyle(&node)
	return yaml.Marshal(&node)
}

// plainStyle drops the flow and quoting styles inherited from JSON. The
// encoder still quotes strings that would otherwise change type.
func plainStyle(n *yaml.Node) {
	n.Style = 0
	for _, child := range n.Content {
		plainStyle(child)
	}
}
