package validation

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/fyrsmithlabs/lpcassist/internal/corpus"
	"github.com/fyrsmithlabs/lpcassist/internal/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("github.com/fyrsmithlabs/lpcassist/internal/validation")

const (
	// DefaultRetrievalLimit is the number of hits Validate corroborates.
	DefaultRetrievalLimit = 25

	// DefaultMinConfidence is the confidence below which a result is
	// reported as weakly supported.
	DefaultMinConfidence = 0.3

	identifierLookupLimit = 10
	minExampleLines       = 3
)

// Searcher is the scored search the validator consumes.
type Searcher interface {
	SearchScored(ctx context.Context, query string, limit int) []corpus.SearchResult
}

// Document is a hit with its per-query status.
type Document struct {
	Path    string  `json:"path" yaml:"path"`
	Score   float64 `json:"relevance_score" yaml:"relevance_score"`
	Snippet string  `json:"snippet" yaml:"snippet"`
	Line    int     `json:"line_number" yaml:"line_number"`
	Status  Status  `json:"validation_status" yaml:"validation_status"`
}

// CodeExample is a source snippet attributed to a driver family.
type CodeExample struct {
	Path    string `json:"path" yaml:"path"`
	Code    string `json:"code" yaml:"code"`
	Context string `json:"context" yaml:"context"`
	Driver  string `json:"driver" yaml:"driver"`
}

// Result aggregates one Validate call.
type Result struct {
	Query            string        `json:"query" yaml:"query"`
	Documents        []Document    `json:"retrieved_documents" yaml:"retrieved_documents"`
	ConfidenceScore  float64       `json:"confidence_score" yaml:"confidence_score"`
	ValidationScore  float64       `json:"validation_score" yaml:"validation_score"`
	SourcesConsulted int           `json:"sources_consulted" yaml:"sources_consulted"`
	KnownIdentifiers []string      `json:"efuns_found" yaml:"efuns_found"`
	CodeExamples     []CodeExample `json:"code_examples" yaml:"code_examples"`
}

// Counts returns how many documents hold each status.
func (r *Result) Counts() map[Status]int {
	counts := make(map[Status]int, 4)
	for _, d := range r.Documents {
		counts[d.Status]++
	}
	return counts
}

// LowConfidence reports whether the confidence is under threshold.
func (r *Result) LowConfidence(threshold float64) bool {
	return r.ConfidenceScore < threshold
}

// driverMarkers map path substrings to driver family names, checked in order.
var driverMarkers = []struct {
	marker string
	name   string
}{
	{"mudos", "MudOS"},
	{"fluffos", "FluffOS"},
	{"dgd", "DGD"},
	{"ldmud", "LDMud"},
}

// UnknownDriver labels examples with no recognised driver marker.
const UnknownDriver = "Unknown"

// Validator corroborates scored search results.
type Validator struct {
	searcher    Searcher
	identifiers *IdentifierTable
	limit       int
	logger      *logging.Logger
}

// Option configures a Validator.
type Option func(*Validator)

// WithLimit overrides DefaultRetrievalLimit.
func WithLimit(n int) Option {
	return func(v *Validator) {
		if n > 0 {
			v.limit = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(v *Validator) {
		if l != nil {
			v.logger = l
		}
	}
}

// New creates a Validator. A nil table behaves as an empty one.
func New(searcher Searcher, identifiers *IdentifierTable, opts ...Option) (*Validator, error) {
	if searcher == nil {
		return nil, fmt.Errorf("searcher is required")
	}
	if identifiers == nil {
		identifiers = NewIdentifierTable(nil)
	}
	v := &Validator{
		searcher:    searcher,
		identifiers: identifiers,
		limit:       DefaultRetrievalLimit,
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(v)
	}
	v.logger = v.logger.Named("validation")
	return v, nil
}

// Identifiers returns the known identifier table.
func (v *Validator) Identifiers() *IdentifierTable {
	return v.identifiers
}

// Validate retrieves hits for query and scores how well they corroborate
// each other. It never fails; an empty corpus yields zero scores.
func (v *Validator) Validate(ctx context.Context, query string) *Result {
	ctx, span := tracer.Start(ctx, "validation.Validate")
	defer span.End()

	hits := v.searcher.SearchScored(ctx, query, v.limit)

	result := &Result{
		Query:            query,
		Documents:        make([]Document, 0, len(hits)),
		SourcesConsulted: len(hits),
		KnownIdentifiers: []string{},
		CodeExamples:     []CodeExample{},
	}

	found := make(map[string]bool)
	for _, hit := range hits {
		status := StatusOf(hit, hits)
		StatusTotal.WithLabelValues(status.String()).Inc()

		result.Documents = append(result.Documents, Document{
			Path:    hit.Path,
			Score:   hit.Score,
			Snippet: hit.Snippet,
			Line:    hit.Line,
			Status:  status,
		})

		for _, name := range v.identifiers.Find(hit.Snippet) {
			found[name] = true
		}

		if ex, ok := extractExample(hit); ok {
			result.CodeExamples = append(result.CodeExamples, ex)
		}
	}

	for name := range found {
		result.KnownIdentifiers = append(result.KnownIdentifiers, name)
	}
	sort.Strings(result.KnownIdentifiers)

	result.ConfidenceScore = confidence(result.Documents)
	result.ValidationScore = validationScore(result.Documents)
	Confidence.Observe(result.ConfidenceScore)

	span.SetAttributes(
		attribute.Int("validation.sources", result.SourcesConsulted),
		attribute.Float64("validation.confidence", result.ConfidenceScore),
	)
	v.logger.Debug(ctx, "query validated",
		logging.Query(query),
		zap.Int("sources", result.SourcesConsulted),
		zap.Float64("confidence", result.ConfidenceScore),
		zap.Float64("validation", result.ValidationScore),
		zap.Int("identifiers", len(result.KnownIdentifiers)),
	)
	return result
}

// LookupIdentifier searches the corpus for the definition and documentation
// of one efun.
func (v *Validator) LookupIdentifier(ctx context.Context, name string) []corpus.SearchResult {
	return v.searcher.SearchScored(ctx, name+" efun function", identifierLookupLimit)
}

// IdentifierReport describes one efun: the identifier lists declaring it
// and where the corpus defines or documents it.
type IdentifierReport struct {
	Name       string                `json:"name"`
	Known      bool                  `json:"known"`
	Sources    []string              `json:"sources"`
	References []corpus.SearchResult `json:"references"`
}

// DescribeIdentifier combines the identifier table entry for name with a
// corpus lookup.
func (v *Validator) DescribeIdentifier(ctx context.Context, name string) *IdentifierReport {
	name = strings.TrimSpace(name)
	sources := v.identifiers.Sources(name)
	refs := v.LookupIdentifier(ctx, name)
	if refs == nil {
		refs = []corpus.SearchResult{}
	}
	return &IdentifierReport{
		Name:       name,
		Known:      len(sources) > 0,
		Sources:    sources,
		References: refs,
	}
}

// extractExample builds a code example from a source-file hit of at least
// minExampleLines lines.
func extractExample(hit corpus.SearchResult) (CodeExample, bool) {
	if !corpus.IsSourceFile(hit.Path) {
		return CodeExample{}, false
	}
	if len(strings.Split(hit.Snippet, "\n")) < minExampleLines {
		return CodeExample{}, false
	}
	driver := DriverOf(hit.Path)
	return CodeExample{
		Path:    hit.Path,
		Code:    hit.Snippet,
		Context: fmt.Sprintf("From %s at line %d", driver, hit.Line+1),
		Driver:  driver,
	}, true
}

// DriverOf infers the driver family from path markers.
func DriverOf(path string) string {
	lower := strings.ToLower(path)
	for _, m := range driverMarkers {
		if strings.Contains(lower, m.marker) {
			return m.name
		}
	}
	return UnknownDriver
}

func confidence(docs []Document) float64 {
	if len(docs) == 0 {
		return 0
	}
	var sum float64
	verified, crossRef := 0, 0
	for _, d := range docs {
		sum += d.Score
		switch d.Status {
		case Verified:
			verified++
		case CrossReferenced:
			crossRef++
		}
	}
	n := float64(len(docs))
	score := sum/n + (0.3*float64(verified)+0.15*float64(crossRef))/n
	if score > 1 {
		return 1
	}
	return score
}

func validationScore(docs []Document) float64 {
	if len(docs) == 0 {
		return 0
	}
	var total float64
	for _, d := range docs {
		switch d.Status {
		case Verified:
			total += 1
		case CrossReferenced:
			total += 0.6
		case SingleSource:
			total += 0.3
		}
	}
	return total / float64(len(docs))
}
