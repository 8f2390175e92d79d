package corpus

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fyrsmithlabs/lpcassist/internal/logging"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Snippet is a substring-search hit.
type Snippet struct {
	Path string `json:"path"`
	Text string `json:"snippet"`
}

// candidate is a scored line plus its bucket.
type candidate struct {
	SearchResult
	prioritized bool
}

// SearchSubstring returns up to limit files whose content contains query,
// case-insensitively, in traversal order. It never consults the postings.
func (x *Index) SearchSubstring(ctx context.Context, query string, limit int) []Snippet {
	start := time.Now()
	if limit <= 0 {
		return nil
	}

	queryLower := strings.ToLower(query)
	var out []Snippet
	err := x.walk(ctx, func(path, content string) bool {
		if !strings.Contains(strings.ToLower(content), queryLower) {
			return true
		}
		out = append(out, Snippet{Path: path, Text: windowSnippet(content, queryLower, SubstringWindow)})
		return len(out) < limit
	})
	if err != nil {
		x.logger.Debug(ctx, "substring search walk failed", logging.CorpusRoot(x.root), zap.Error(err))
	}

	SearchDuration.WithLabelValues("substring", "rescan").Observe(time.Since(start).Seconds())
	SearchResults.WithLabelValues("substring").Observe(float64(len(out)))
	return out
}

// SearchScored returns up to limit line hits ranked by weighted relevance.
//
// Hits from prioritized paths are offered slots first and each file gets one
// slot before any file gets a second. The returned slice is sorted by
// descending Score, ties in traversal order. A missing root yields nil.
func (x *Index) SearchScored(ctx context.Context, query string, limit int) []SearchResult {
	ctx, span := tracer.Start(ctx, "corpus.SearchScored")
	defer span.End()
	start := time.Now()

	queryLower := strings.ToLower(query)
	terms := queryTerms(queryLower)
	if limit <= 0 || len(terms) == 0 {
		return nil
	}

	var (
		hits []candidate
		via  = "rescan"
	)
	if x.mode == ModeIndexed && postingSafe(terms) {
		var ok bool
		if hits, ok = x.indexedCandidates(ctx, terms, queryLower); ok {
			via = "indexed"
		}
	}
	if via == "rescan" {
		hits = x.rescanCandidates(ctx, terms, queryLower)
	}

	results := rank(hits, limit)

	SearchDuration.WithLabelValues("scored", via).Observe(time.Since(start).Seconds())
	SearchResults.WithLabelValues("scored").Observe(float64(len(results)))
	span.SetAttributes(
		attribute.String("corpus.search_path", via),
		attribute.Int("corpus.candidates", len(hits)),
		attribute.Int("corpus.results", len(results)),
	)
	x.logger.Debug(ctx, "scored search",
		logging.Query(query),
		zap.String("via", via),
		zap.Int("candidates", len(hits)),
		zap.Int("results", len(results)),
	)
	return results
}

// indexedCandidates scores the lines the postings point at. It returns false
// when the index has not been built.
func (x *Index) indexedCandidates(ctx context.Context, terms []string, queryLower string) ([]candidate, bool) {
	x.mu.RLock()
	if !x.built {
		x.mu.RUnlock()
		return nil, false
	}
	lines := make(map[uint32]map[uint32]struct{})
	for term, postings := range x.postings {
		if !containsAny(term, terms) {
			continue
		}
		for _, p := range postings {
			set, ok := lines[p.File]
			if !ok {
				set = make(map[uint32]struct{})
				lines[p.File] = set
			}
			set[p.Line] = struct{}{}
		}
	}
	paths := make(map[uint32]string, len(lines))
	for id := range lines {
		paths[id] = x.files[id]
	}
	x.mu.RUnlock()

	ids := make([]uint32, 0, len(lines))
	for id := range lines {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var hits []candidate
	for _, id := range ids {
		path := paths[id]
		content, ok := x.readFile(ctx, path)
		if !ok {
			continue
		}
		fileLines := splitLines(content)

		lineNos := make([]int, 0, len(lines[id]))
		for ln := range lines[id] {
			if int(ln) < len(fileLines) {
				lineNos = append(lineNos, int(ln))
			}
		}
		sort.Ints(lineNos)

		hits = x.scoreLines(hits, path, fileLines, lineNos, terms, queryLower)
	}
	return hits, true
}

// rescanCandidates walks the corpus and scores every line.
func (x *Index) rescanCandidates(ctx context.Context, terms []string, queryLower string) []candidate {
	var hits []candidate
	err := x.walk(ctx, func(path, content string) bool {
		hits = x.scoreLines(hits, path, splitLines(content), nil, terms, queryLower)
		return true
	})
	if err != nil {
		x.logger.Debug(ctx, "scored search walk failed", logging.CorpusRoot(x.root), zap.Error(err))
	}
	return hits
}

// scoreLines appends a candidate for each line in lineNos (every line when
// nil) that contains at least one query term.
func (x *Index) scoreLines(hits []candidate, path string, lines []string, lineNos []int, terms []string, queryLower string) []candidate {
	rel := x.relLower(path)
	bonus := x.weights.Bonus(rel, queryLower)
	prioritized := x.weights.Prioritized(rel, queryLower)
	fileType := FileType(path)

	score := func(i int) {
		relevance := lineRelevance(strings.ToLower(lines[i]), terms)
		if relevance == 0 {
			return
		}
		hits = append(hits, candidate{
			SearchResult: SearchResult{
				Path:     path,
				Line:     i,
				Snippet:  lineSnippet(lines, i),
				Score:    relevance + bonus,
				FileType: fileType,
			},
			prioritized: prioritized,
		})
	}

	if lineNos == nil {
		for i := range lines {
			score(i)
		}
		return hits
	}
	for _, i := range lineNos {
		score(i)
	}
	return hits
}

// relLower returns path relative to the root, slash separated and lowercase.
// Path heuristics only look at the part of the path inside the corpus.
func (x *Index) relLower(path string) string {
	rel, err := filepath.Rel(x.root, path)
	if err != nil {
		rel = path
	}
	return strings.ToLower(filepath.ToSlash(rel))
}

// lineRelevance is the fraction of terms contained in lineLower.
func lineRelevance(lineLower string, terms []string) float64 {
	matched := 0
	for _, t := range terms {
		if strings.Contains(lineLower, t) {
			matched++
		}
	}
	return float64(matched) / float64(len(terms))
}

// rank orders candidates by score, fills limit slots bucket by bucket with
// one hit per file, tops up with further hits when slots remain, and returns
// the selection sorted by score.
func rank(hits []candidate, limit int) []SearchResult {
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })

	ordered := make([]candidate, 0, len(hits))
	for _, h := range hits {
		if h.prioritized {
			ordered = append(ordered, h)
		}
	}
	for _, h := range hits {
		if !h.prioritized {
			ordered = append(ordered, h)
		}
	}

	selected := make([]SearchResult, 0, min(limit, len(ordered)))
	used := make([]bool, len(ordered))
	seen := make(map[string]bool)
	for i, h := range ordered {
		if len(selected) == limit {
			break
		}
		if seen[h.Path] {
			continue
		}
		seen[h.Path] = true
		used[i] = true
		selected = append(selected, h.SearchResult)
	}
	for i, h := range ordered {
		if len(selected) == limit {
			break
		}
		if !used[i] {
			selected = append(selected, h.SearchResult)
		}
	}

	sort.SliceStable(selected, func(i, j int) bool { return selected[i].Score > selected[j].Score })
	return selected
}
