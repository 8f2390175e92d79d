// Package refdb exports a corpus as a flat JSONL file of text chunks and
// searches such exports without building an index.
package refdb

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	// ChunkRunes is the maximum length of an exported chunk.
	ChunkRunes = 1000

	// DefaultLimit is used by Search when limit is not positive.
	DefaultLimit = 10

	maxLineBytes = 1 << 20
)

// ErrEmptyQuery indicates a blank search query.
var ErrEmptyQuery = errors.New("query is empty")

// Source yields corpus files. *corpus.Index implements it.
type Source interface {
	Root() string
	Walk(ctx context.Context, fn func(path, content string) error) error
}

// Chunk is one line of an export.
type Chunk struct {
	ID         string `json:"id"`
	Path       string `json:"path"`
	ChunkIndex int    `json:"chunk_index"`
	Text       string `json:"text"`
}

// ExportStats summarizes an export.
type ExportStats struct {
	Files  int `json:"files"`
	Chunks int `json:"chunks"`
}

// Export writes every file of src as chunks, one JSON object per line.
// Paths are relative to the source root with forward slashes.
func Export(ctx context.Context, src Source, w io.Writer) (ExportStats, error) {
	var stats ExportStats
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)

	root := src.Root()
	err := src.Walk(ctx, func(path, content string) error {
		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)
		for i, text := range ChunkText(content, ChunkRunes) {
			c := Chunk{ID: fmt.Sprintf("%s#%d", rel, i), Path: rel, ChunkIndex: i, Text: text}
			if err := enc.Encode(c); err != nil {
				return fmt.Errorf("writing chunk %s: %w", c.ID, err)
			}
			stats.Chunks++
		}
		stats.Files++
		return nil
	})
	if err != nil {
		return stats, err
	}
	if err := bw.Flush(); err != nil {
		return stats, fmt.Errorf("flushing export: %w", err)
	}
	return stats, nil
}

// ChunkText packs the whitespace-separated words of s, joined by single
// spaces, into chunks of at most maxRunes runes. Words longer than maxRunes
// are cut into maxRunes-rune pieces first.
func ChunkText(s string, maxRunes int) []string {
	if maxRunes <= 0 {
		maxRunes = ChunkRunes
	}
	var (
		chunks []string
		cur    strings.Builder
		curLen int
	)
	for _, word := range splitWords(s, maxRunes) {
		n := utf8.RuneCountInString(word)
		if curLen > 0 && curLen+1+n > maxRunes {
			chunks = append(chunks, cur.String())
			cur.Reset()
			curLen = 0
		}
		if curLen > 0 {
			cur.WriteByte(' ')
			curLen++
		}
		cur.WriteString(word)
		curLen += n
	}
	if curLen > 0 {
		chunks = append(chunks, cur.String())
	}
	return chunks
}

// splitWords returns the fields of s with every field cut to at most
// maxRunes runes.
func splitWords(s string, maxRunes int) []string {
	fields := strings.Fields(s)
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		for utf8.RuneCountInString(f) > maxRunes {
			cut := 0
			for i := 0; i < maxRunes; i++ {
				_, size := utf8.DecodeRuneInString(f[cut:])
				cut += size
			}
			words = append(words, f[:cut])
			f = f[cut:]
		}
		words = append(words, f)
	}
	return words
}

// Hit is a chunk matching a search.
type Hit struct {
	Chunk
	Occurrences int `json:"occurrences"`
}

// Search ranks the chunks of an export by how often query occurs in them,
// case-insensitively. Ties keep file order. Blank and malformed lines are
// skipped.
func Search(ctx context.Context, r io.Reader, query string, limit int) ([]Hit, error) {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)

	var hits []Hit
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var c Chunk
		if err := json.Unmarshal([]byte(line), &c); err != nil {
			continue
		}
		if n := strings.Count(strings.ToLower(c.Text), needle); n > 0 {
			hits = append(hits, Hit{Chunk: c, Occurrences: n})
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading export: %w", err)
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Occurrences > hits[j].Occurrences })
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}
