// Package ignore provides gitignore-style exclusion rules for corpus walks.
package ignore

import (
	"bufio"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Rule is one parsed ignore line.
type Rule struct {
	// Pattern is a path.Match glob.
	Pattern string

	// DirOnly rules (trailing slash) only match directories.
	DirOnly bool

	// Anchored rules contain a slash and match the full relative path;
	// the rest match any single path element.
	Anchored bool
}

// Parser reads and parses gitignore-style files.
type Parser struct {
	// IgnoreFiles is the list of ignore file names to look for at the root.
	IgnoreFiles []string

	// FallbackPatterns are used when no ignore files are found.
	FallbackPatterns []string
}

// NewParser creates a new ignore file parser with the given configuration.
func NewParser(ignoreFiles, fallbackPatterns []string) *Parser {
	return &Parser{
		IgnoreFiles:      ignoreFiles,
		FallbackPatterns: fallbackPatterns,
	}
}

// ParseProject reads all ignore files from root and returns a combined
// Matcher. If no ignore files are found, the fallback patterns are used.
func (p *Parser) ParseProject(root string) (*Matcher, error) {
	var rules []Rule
	foundAny := false

	for _, ignoreFile := range p.IgnoreFiles {
		fileRules, err := parseFile(filepath.Join(root, ignoreFile))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		rules = append(rules, fileRules...)
		foundAny = true
	}

	if !foundAny {
		for _, line := range p.FallbackPatterns {
			if r, ok := parseLine(line); ok {
				rules = append(rules, r)
			}
		}
	}

	return &Matcher{rules: deduplicate(rules)}, nil
}

func parseFile(name string) ([]Rule, error) {
	file, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var rules []Rule
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if r, ok := parseLine(scanner.Text()); ok {
			rules = append(rules, r)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return rules, nil
}

// parseLine parses a single gitignore line. Comments, blank lines and
// negations are dropped.
func parseLine(line string) (Rule, bool) {
	line = strings.TrimRight(line, " \t\r")
	if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
		return Rule{}, false
	}

	var r Rule
	if strings.HasSuffix(line, "/") {
		r.DirOnly = true
		line = strings.TrimRight(line, "/")
	}
	if strings.HasPrefix(line, "/") {
		r.Anchored = true
		line = strings.TrimLeft(line, "/")
	}
	line = strings.TrimPrefix(line, "**/")
	if strings.Contains(line, "/") {
		r.Anchored = true
	}
	if line == "" {
		return Rule{}, false
	}
	if _, err := path.Match(line, ""); err != nil {
		return Rule{}, false
	}
	r.Pattern = line
	return r, true
}

func deduplicate(rules []Rule) []Rule {
	seen := make(map[Rule]bool, len(rules))
	result := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if !seen[r] {
			seen[r] = true
			result = append(result, r)
		}
	}
	return result
}

// Matcher decides whether a corpus-relative path is excluded.
type Matcher struct {
	rules []Rule
}

// Rules returns the parsed rules in file order.
func (m *Matcher) Rules() []Rule {
	if m == nil {
		return nil
	}
	return m.rules
}

// Match reports whether rel (relative to the corpus root, either separator)
// is excluded. A nil Matcher excludes nothing.
func (m *Matcher) Match(rel string, isDir bool) bool {
	if m == nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	base := path.Base(rel)
	for _, r := range m.rules {
		if r.DirOnly && !isDir {
			continue
		}
		target := base
		if r.Anchored {
			target = rel
		}
		if ok, _ := path.Match(r.Pattern, target); ok {
			return true
		}
	}
	return false
}
