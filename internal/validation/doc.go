// Package validation corroborates scored corpus hits against each other and
// against curated lists of known LPC identifiers (efuns).
//
// A hit's Status is a pure function of the hit and the batch it was
// retrieved with; it is never stored between queries. Confidence and
// validation scores summarize one Validate call.
package validation
