package benchmark

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GenerationDuration records timed generation calls by model.
	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lpcassist",
			Subsystem: "benchmark",
			Name:      "generation_duration_seconds",
			Help:      "Duration of benchmark generation calls",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"model"},
	)

	// FailuresTotal counts skipped (model, query) pairs.
	FailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lpcassist",
			Subsystem: "benchmark",
			Name:      "failures_total",
			Help:      "Benchmark pairs skipped because generation failed",
		},
		[]string{"model"},
	)

	// AccuracyScore records per-pair keyword accuracy.
	AccuracyScore = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lpcassist",
			Subsystem: "benchmark",
			Name:      "accuracy_score",
			Help:      "Keyword accuracy of benchmark responses",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		},
		[]string{"model"},
	)
)
