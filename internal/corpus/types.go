package corpus

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Mode selects how scored searches find candidate lines.
type Mode int

const (
	// ModeIndexed answers scored searches from the term postings.
	ModeIndexed Mode = iota

	// ModeRescan reads every eligible file on each scored search.
	ModeRescan
)

// String returns the config name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeIndexed:
		return "indexed"
	case ModeRescan:
		return "rescan"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses "indexed" or "rescan". The empty string is ModeIndexed.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "indexed", "index":
		return ModeIndexed, nil
	case "rescan":
		return ModeRescan, nil
	default:
		return ModeIndexed, fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

// SearchResult is one scored hit.
type SearchResult struct {
	// Path is the file path as walked (corpus root joined with the relative path).
	Path string `json:"path"`

	// Line is the zero-based line number of the matching line.
	Line int `json:"line"`

	// Snippet holds the lines around Line, clamped to the file.
	Snippet string `json:"snippet"`

	// Score is the relevance plus any path bonuses.
	Score float64 `json:"relevance_score"`

	// FileType is the file extension without the dot, or "unknown".
	FileType string `json:"file_type"`
}

// Posting locates one term occurrence: a file in the index arena and a
// zero-based line.
type Posting struct {
	File uint32
	Line uint32
}

// Stats describes the current state of an Index.
type Stats struct {
	Root     string `json:"root"`
	Mode     string `json:"mode"`
	Built    bool   `json:"built"`
	Files    int    `json:"files"`
	Terms    int    `json:"terms"`
	Postings int    `json:"postings"`
}

// DefaultExtensions are the file extensions eligible for indexing.
var DefaultExtensions = []string{"c", "h", "lpc", "y", "txt", "md", "json", "jsonl"}

// SourceExtensions mark files holding driver or mudlib code.
var SourceExtensions = []string{"c", "h", "lpc"}

// FileType returns the extension of path without the dot, or "unknown".
func FileType(path string) string {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "unknown"
	}
	return ext
}

// IsSourceFile reports whether path has a driver/mudlib source extension.
func IsSourceFile(path string) bool {
	ext := strings.ToLower(FileType(path))
	for _, e := range SourceExtensions {
		if ext == e {
			return true
		}
	}
	return false
}
