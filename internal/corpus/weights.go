package corpus

import "strings"

// WeightRule adds Bonus to a hit when its path contains any PathMarker and
// the query contains any QueryMarker. An empty QueryMarkers list matches
// every query. Markers are compared lowercase.
type WeightRule struct {
	Name         string
	PathMarkers  []string
	QueryMarkers []string
	Bonus        float64

	// Prioritize places matching hits in the bucket that is offered result
	// slots first.
	Prioritize bool
}

// Applies reports whether both the path and the query heuristics agree.
// Both arguments must already be lowercase.
func (r WeightRule) Applies(pathLower, queryLower string) bool {
	if !containsAny(pathLower, r.PathMarkers) {
		return false
	}
	if len(r.QueryMarkers) == 0 {
		return true
	}
	return containsAny(queryLower, r.QueryMarkers)
}

// WeightTable is an ordered set of additive path bonuses.
type WeightTable []WeightRule

// DefaultWeights returns the bonus table tuned for LPC driver corpora.
func DefaultWeights() WeightTable {
	return WeightTable{
		{
			Name:        "driver_source",
			PathMarkers: []string{".c", ".h", "mudos", "fluffos", "interpret", "codegen", "compile", "vm"},
			Bonus:       0.15,
			Prioritize:  true,
		},
		{
			Name:         "object_model",
			PathMarkers:  []string{"object", "inherit", "call_other", "callmethod", "shadow"},
			QueryMarkers: []string{"object"},
			Bonus:        0.2,
			Prioritize:   true,
		},
		{
			Name:         "builtin_functions",
			PathMarkers:  []string{"efun", "simul", "callout", "apply"},
			QueryMarkers: []string{"efun", "call_out", "simul"},
			Bonus:        0.15,
			Prioritize:   true,
		},
		{
			Name:         "call_dispatch",
			PathMarkers:  []string{"call", "method"},
			QueryMarkers: []string{"call_method", "call other"},
			Bonus:        0.1,
		},
	}
}

// Bonus sums the bonuses of every rule that applies.
func (t WeightTable) Bonus(pathLower, queryLower string) float64 {
	var total float64
	for _, r := range t {
		if r.Applies(pathLower, queryLower) {
			total += r.Bonus
		}
	}
	return total
}

// Prioritized reports whether any prioritizing rule applies.
func (t WeightTable) Prioritized(pathLower, queryLower string) bool {
	for _, r := range t {
		if r.Prioritize && r.Applies(pathLower, queryLower) {
			return true
		}
	}
	return false
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
