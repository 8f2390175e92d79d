package prompt

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AssembledTotal counts assembled prompts by the stage that produced them.
	// Labels: stage (full, minimal, truncated)
	AssembledTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lpcassist",
			Subsystem: "prompt",
			Name:      "assembled_total",
			Help:      "Total number of assembled prompts by degrade stage",
		},
		[]string{"stage"},
	)

	// EstimatedTokens tracks the estimated size of assembled prompts.
	EstimatedTokens = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "lpcassist",
			Subsystem: "prompt",
			Name:      "estimated_tokens",
			Help:      "Estimated token cost of assembled prompts",
			Buckets:   []float64{500, 1000, 2000, 4000, 6000, 8000, 12000, 16000},
		},
	)
)
