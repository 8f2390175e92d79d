package corpus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FilesIndexed is the number of files in the most recent build.
	FilesIndexed = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "lpcassist",
			Subsystem: "corpus",
			Name:      "files_indexed",
			Help:      "Number of files in the most recent index build",
		},
	)

	// PostingsTotal is the number of term postings in the most recent build.
	PostingsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "lpcassist",
			Subsystem: "corpus",
			Name:      "postings",
			Help:      "Number of term postings in the most recent index build",
		},
	)

	// FilesSkipped counts files that could not be read.
	// Labels: reason (read, encoding)
	FilesSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lpcassist",
			Subsystem: "corpus",
			Name:      "files_skipped_total",
			Help:      "Total number of corpus files skipped during walks",
		},
		[]string{"reason"},
	)

	// SearchDuration tracks search latency.
	// Labels: kind (substring, scored), path (indexed, rescan)
	SearchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lpcassist",
			Subsystem: "corpus",
			Name:      "search_duration_seconds",
			Help:      "Duration of corpus searches in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"kind", "path"},
	)

	// SearchResults tracks how many hits searches return.
	SearchResults = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lpcassist",
			Subsystem: "corpus",
			Name:      "search_results",
			Help:      "Number of results returned per search",
			Buckets:   []float64{0, 1, 2, 5, 10, 15, 25, 50},
		},
		[]string{"kind"},
	)
)
