package validation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StatusTotal counts assigned statuses.
	// Labels: status (verified, cross_referenced, single_source)
	StatusTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lpcassist",
			Subsystem: "validation",
			Name:      "documents_total",
			Help:      "Total number of validated documents by status",
		},
		[]string{"status"},
	)

	// Confidence tracks the distribution of confidence scores.
	Confidence = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "lpcassist",
			Subsystem: "validation",
			Name:      "confidence_score",
			Help:      "Confidence score of validated queries",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		},
	)
)
