package corpus

import (
	"strings"
	"unicode"
)

const (
	// snippetBefore and snippetAfter bound the line window of a scored hit.
	snippetBefore = 6
	snippetAfter  = 7

	// SubstringWindow is the rune width of a substring-search snippet.
	SubstringWindow = 1024

	truncationMarker = "\n..."
)

// splitLines splits text into lines, dropping a trailing "\r" from each line
// and the empty element after a final newline.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// lineSnippet joins the lines around i, clamped to the file bounds.
func lineSnippet(lines []string, i int) string {
	start := i - snippetBefore
	if start < 0 {
		start = 0
	}
	end := i + snippetAfter
	if end > len(lines) {
		end = len(lines)
	}
	return strings.Join(lines[start:end], "\n")
}

// isWordRune reports whether r belongs to a posting term.
func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r) || r == '_'
}

// lineTerms returns the distinct lowercase words longer than two runes.
func lineTerms(line string) []string {
	words := strings.FieldsFunc(strings.ToLower(line), func(r rune) bool { return !isWordRune(r) })
	if len(words) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(words))
	terms := make([]string, 0, len(words))
	for _, w := range words {
		if len([]rune(w)) <= 2 {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		terms = append(terms, w)
	}
	return terms
}

// queryTerms splits a lowercase query on whitespace, keeping terms longer
// than two runes. Duplicates are kept; each counts toward the total.
func queryTerms(queryLower string) []string {
	var terms []string
	for _, f := range strings.Fields(queryLower) {
		if len([]rune(f)) > 2 {
			terms = append(terms, f)
		}
	}
	return terms
}

// postingSafe reports whether every term consists solely of word runes, the
// condition under which postings find every line that contains it.
func postingSafe(terms []string) bool {
	for _, t := range terms {
		for _, r := range t {
			if !isWordRune(r) {
				return false
			}
		}
	}
	return true
}

// windowSnippet returns up to width runes of content starting width/4 runes
// before the first case-insensitive occurrence of query. When query does not
// occur the window starts at the head. A marker is appended when the window
// stops short of the end.
func windowSnippet(content, queryLower string, width int) string {
	runes := []rune(content)
	lower := make([]rune, len(runes))
	for i, r := range runes {
		lower[i] = unicode.ToLower(r)
	}

	start := 0
	if idx := indexRunes(lower, []rune(queryLower)); idx > width/4 {
		start = idx - width/4
	}
	end := start + width
	if end > len(runes) {
		end = len(runes)
	}

	snippet := string(runes[start:end])
	if end < len(runes) {
		snippet += truncationMarker
	}
	return snippet
}

// indexRunes returns the first index of needle in haystack, or -1.
func indexRunes(haystack, needle []rune) int {
	if len(needle) == 0 {
		return 0
	}
outer:
	for i := 0; i+len(needle) <= len(haystack); i++ {
		for j, r := range needle {
			if haystack[i+j] != r {
				continue outer
			}
		}
		return i
	}
	return -1
}
