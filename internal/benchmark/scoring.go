package benchmark

import (
	"strings"
	"time"

	"github.com/fyrsmithlabs/lpcassist/internal/validation"
)

const neutralAccuracy = 0.5

// lpcIndicators are syntax words whose presence suggests real LPC code.
var lpcIndicators = []string{"inherit", "void", "int", "string", "object", "mapping", "mixed"}

// Accuracy is the fraction of keywords found in response, case-insensitive.
// A query with no keywords scores 0.5.
func Accuracy(response string, keywords []string) float64 {
	if len(keywords) == 0 {
		return neutralAccuracy
	}
	lower := strings.ToLower(response)
	found := 0
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			found++
		}
	}
	return float64(found) / float64(len(keywords))
}

// lengthScore rewards mid-sized answers and penalizes very short or very
// long ones. Length is in bytes.
func lengthScore(n int) float64 {
	switch {
	case n < 100:
		return 0.3
	case n < 500:
		return 0.7
	case n < 2000:
		return 0.9
	default:
		return 0.6
	}
}

// Quality blends length, code markers, LPC syntax density and, when val is
// non-nil, the validator's confidence. The result is capped at 1.
func Quality(response string, val *validation.Result) float64 {
	score := 0.3 * lengthScore(len(response))

	if strings.Contains(response, "```") || strings.Contains(response, "void ") || strings.Contains(response, "int ") {
		score += 0.2
	}

	present := 0
	for _, ind := range lpcIndicators {
		if strings.Contains(response, ind) {
			present++
		}
	}
	score += 0.2 * float64(present) / float64(len(lpcIndicators))

	if val != nil {
		score += 0.3 * val.ConfidenceScore
	}
	if score > 1 {
		score = 1
	}
	return score
}

// TokensPerSecond estimates throughput at 1.3 tokens per word.
func TokensPerSecond(response string, elapsed time.Duration) float64 {
	secs := elapsed.Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(len(strings.Fields(response))) * 1.3 / secs
}

// speedScore maps an average latency to (0, 1], higher is faster.
func speedScore(avgLatencyMs float64) float64 {
	return 1 / (1 + avgLatencyMs/1000)
}

// combinedScore is the recommendation objective.
func combinedScore(accuracy, quality, avgLatencyMs float64) float64 {
	return 0.4*accuracy + 0.4*quality + 0.2*speedScore(avgLatencyMs)
}
