package prompt

import "unicode/utf8"

const (
	// DefaultMaxTokens is the estimated token budget of an assembled prompt.
	DefaultMaxTokens = 8000

	// CharsPerToken is the fixed ratio used to estimate token cost.
	CharsPerToken = 4
)

// EstimateTokens approximates the token cost of text. It is never zero.
func EstimateTokens(text string) int {
	return utf8.RuneCountInString(text)/CharsPerToken + 1
}

// fits reports whether text is within a budget of maxTokens.
func fits(text string, maxTokens int) bool {
	return EstimateTokens(text) <= maxTokens
}

// truncateRunes cuts text to at most n runes.
func truncateRunes(text string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	return string([]rune(text)[:n])
}
