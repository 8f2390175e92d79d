package logging

import (
	"go.uber.org/zap"
)

// maxQueryField caps how much of a user query lands in a single log entry.
const maxQueryField = 120

// Query logs a user query, truncated to maxQueryField runes.
func Query(q string) zap.Field {
	r := []rune(q)
	if len(r) > maxQueryField {
		return zap.String("query", string(r[:maxQueryField])+"...")
	}
	return zap.String("query", q)
}

// Model logs a generation model name.
func Model(name string) zap.Field {
	return zap.String("model", name)
}

// CorpusRoot logs the root directory of the indexed corpus.
func CorpusRoot(root string) zap.Field {
	return zap.String("corpus.root", root)
}

// Path logs a corpus file path.
func Path(p string) zap.Field {
	return zap.String("path", p)
}
