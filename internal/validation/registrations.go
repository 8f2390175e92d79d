package validation

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// Registration is one place in a driver source tree that declares an efun.
type Registration struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Line int    `json:"line"`
}

// FileWalker yields corpus files with their text. *corpus.Index implements it.
type FileWalker interface {
	Root() string
	Walk(ctx context.Context, fn func(path, content string) error) error
}

// registrationPatterns capture an efun name in group 1. Names from
// #ifdef F_XXX guards are lowercased.
var registrationPatterns = []struct {
	re    *regexp.Regexp
	lower bool
}{
	{re: regexp.MustCompile(`add_efun\(\s*"([^"]+)"`)},
	{re: regexp.MustCompile(`\{\s*"([^"]+)"\s*,\s*[A-Za-z0-9_]+`)},
	{re: regexp.MustCompile(`register_efun\(\s*"([^"]+)"`)},
	{re: regexp.MustCompile(`\bf_([a-z0-9_]+)\s*\(`)},
	{re: regexp.MustCompile(`#\s*ifdef\s+F_([A-Z0-9_]+)`), lower: true},
}

// notEfuns are LPC and C keywords that the table patterns pick up.
var notEfuns = map[string]bool{
	"if": true, "for": true, "while": true, "return": true, "void": true,
	"int": true, "float": true, "class": true, "mapping": true, "object": true,
	"string": true, "switch": true, "case": true, "default": true, "else": true,
	"do": true, "break": true, "continue": true, "static": true, "private": true,
	"public": true, "protected": true, "nomask": true, "new": true, "save": true,
	"const": true, "typedef": true, "struct": true, "union": true, "sizeof": true,
}

// skipRegistrationPaths hold lexers, package sources and test suites, which
// carry symbol tables unrelated to efun registration.
var skipRegistrationPaths = []string{"lex.c", "/packages/", "testsuite"}

// ScanRegistrations finds efun registrations in the driver sources of src:
// C sources and headers plus files whose name mentions efun, funtab or
// compat. Results are sorted by name, then path and line, without
// duplicates. Paths are relative to the source root.
func ScanRegistrations(ctx context.Context, src FileWalker) ([]Registration, error) {
	root := src.Root()
	var regs []Registration
	err := src.Walk(ctx, func(path, content string) error {
		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)
		if !registrationSource(rel) {
			return nil
		}
		for i, line := range strings.Split(content, "\n") {
			for _, p := range registrationPatterns {
				m := p.re.FindStringSubmatch(line)
				if m == nil {
					continue
				}
				name := m[1]
				if p.lower {
					name = strings.ToLower(name)
				}
				if notEfuns[name] {
					continue
				}
				regs = append(regs, Registration{Name: name, Path: rel, Line: i + 1})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(regs, func(i, j int) bool {
		a, b := regs[i], regs[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		return a.Line < b.Line
	})
	out := regs[:0]
	for i, r := range regs {
		if i > 0 && r == regs[i-1] {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func registrationSource(rel string) bool {
	lower := strings.ToLower(rel)
	for _, s := range skipRegistrationPaths {
		if strings.Contains("/"+lower, s) {
			return false
		}
	}
	switch filepath.Ext(lower) {
	case ".c", ".cc", ".cpp", ".h":
		return true
	}
	base := filepath.Base(lower)
	return strings.Contains(base, "efun") || strings.Contains(base, "funtab") || strings.Contains(base, "compat")
}

// RegistrationNames returns the distinct names of regs, sorted.
func RegistrationNames(regs []Registration) []string {
	seen := make(map[string]bool, len(regs))
	names := make([]string, 0, len(regs))
	for _, r := range regs {
		if seen[r.Name] {
			continue
		}
		seen[r.Name] = true
		names = append(names, r.Name)
	}
	sort.Strings(names)
	return names
}

// WriteIdentifierList writes names one per line in the format
// LoadIdentifiers reads.
func WriteIdentifierList(w io.Writer, names []string) error {
	for _, n := range names {
		if _, err := fmt.Fprintln(w, n); err != nil {
			return err
		}
	}
	return nil
}
