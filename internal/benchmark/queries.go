package benchmark

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

var (
	// ErrInvalidQuery indicates a malformed query in a query suite.
	ErrInvalidQuery = errors.New("invalid test query")

	// ErrNoQueries indicates a query suite without queries.
	ErrNoQueries = errors.New("query suite has no queries")
)

// Category tags a test query.
type Category string

const (
	CategoryEfun         Category = "efun"
	CategoryObjectSystem Category = "object_system"
	CategoryCombat       Category = "combat"
	CategoryCodegen      Category = "codegen"
	CategoryGeneralLPC   Category = "general_lpc"
)

// ParseCategory maps a name to a Category. An empty name is general_lpc.
func ParseCategory(s string) (Category, error) {
	switch c := Category(strings.ToLower(strings.TrimSpace(s))); c {
	case "":
		return CategoryGeneralLPC, nil
	case CategoryEfun, CategoryObjectSystem, CategoryCombat, CategoryCodegen, CategoryGeneralLPC:
		return c, nil
	default:
		return "", fmt.Errorf("%w: unknown category %q", ErrInvalidQuery, s)
	}
}

// TestQuery is a benchmark question with the keywords a good answer uses.
type TestQuery struct {
	Query            string   `json:"query" toml:"query"`
	Category         Category `json:"category" toml:"category"`
	ExpectedKeywords []string `json:"expected_keywords" toml:"expected_keywords"`
}

// DefaultQueries is the built-in battery.
func DefaultQueries() []TestQuery {
	return []TestQuery{
		{
			Query:            "How do I implement a combat system in LPC?",
			Category:         CategoryCombat,
			ExpectedKeywords: []string{"inherit", "attack", "damage", "living"},
		},
		{
			Query:            "Show me the correct syntax for query_* functions",
			Category:         CategoryEfun,
			ExpectedKeywords: []string{"query", "int", "return"},
		},
		{
			Query:            "What's the difference between call_other() and call_out()?",
			Category:         CategoryEfun,
			ExpectedKeywords: []string{"call_other", "call_out", "delay", "object"},
		},
		{
			Query:            "Generate a basic room inherit for the std/room.c",
			Category:         CategoryGeneralLPC,
			ExpectedKeywords: []string{"inherit", "room", "create", "void"},
		},
		{
			Query:            "How does the LPC object inheritance system work?",
			Category:         CategoryObjectSystem,
			ExpectedKeywords: []string{"inherit", "object", "virtual", "scope"},
		},
	}
}

type querySuite struct {
	Query []struct {
		Query            string   `toml:"query"`
		Category         string   `toml:"category"`
		ExpectedKeywords []string `toml:"expected_keywords"`
	} `toml:"query"`
}

// LoadQueries reads a TOML query suite made of [[query]] tables.
func LoadQueries(path string) ([]TestQuery, error) {
	var suite querySuite
	md, err := toml.DecodeFile(path, &suite)
	if err != nil {
		return nil, fmt.Errorf("decoding query suite %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%w: unknown key %s in %s", ErrInvalidQuery, undecoded[0], path)
	}
	if len(suite.Query) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoQueries, path)
	}

	out := make([]TestQuery, 0, len(suite.Query))
	for i, q := range suite.Query {
		text := strings.TrimSpace(q.Query)
		if text == "" {
			return nil, fmt.Errorf("%w: query %d is empty", ErrInvalidQuery, i+1)
		}
		cat, err := ParseCategory(q.Category)
		if err != nil {
			return nil, fmt.Errorf("query %d: %w", i+1, err)
		}
		out = append(out, TestQuery{Query: text, Category: cat, ExpectedKeywords: q.ExpectedKeywords})
	}
	return out, nil
}
