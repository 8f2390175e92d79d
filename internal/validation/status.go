package validation

import (
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/lpcassist/internal/corpus"
)

// Status is the corroboration tier of one hit within its batch.
type Status int

const (
	// SingleSource hits are not corroborated by any other hit.
	SingleSource Status = iota

	// CrossReferenced hits are corroborated by one or two other hits.
	CrossReferenced

	// Verified hits are corroborated by at least VerifiedThreshold other hits.
	Verified

	// Uncertain is reserved for conflicting sources. StatusOf never returns it.
	Uncertain
)

const (
	// VerifiedThreshold is the number of corroborating hits for Verified.
	VerifiedThreshold = 3

	// minTermLength is the exclusive lower bound on corroboration term length.
	minTermLength = 4
)

var statusNames = map[Status]string{
	SingleSource:    "single_source",
	CrossReferenced: "cross_referenced",
	Verified:        "verified",
	Uncertain:       "uncertain",
}

// String returns the snake_case name of the status.
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	for st, name := range statusNames {
		if name == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown validation status %q", text)
}

// StatusOf tiers candidate by how many other-file hits in batch share more
// than a quarter of its long snippet terms.
func StatusOf(candidate corpus.SearchResult, batch []corpus.SearchResult) Status {
	terms := snippetTerms(candidate.Snippet)
	if len(terms) == 0 {
		return SingleSource
	}

	corroborating := 0
	for _, other := range batch {
		if other.Path == candidate.Path {
			continue
		}
		otherLower := strings.ToLower(other.Snippet)
		matches := 0
		for _, term := range terms {
			if strings.Contains(otherLower, term) {
				matches++
			}
		}
		if matches > len(terms)/4 {
			corroborating++
		}
	}

	switch {
	case corroborating >= VerifiedThreshold:
		return Verified
	case corroborating >= 1:
		return CrossReferenced
	default:
		return SingleSource
	}
}

// snippetTerms returns the lowercase whitespace-separated words longer than
// minTermLength runes, duplicates included.
func snippetTerms(snippet string) []string {
	var terms []string
	for _, w := range strings.Fields(strings.ToLower(snippet)) {
		if len([]rune(w)) > minTermLength {
			terms = append(terms, w)
		}
	}
	return terms
}
