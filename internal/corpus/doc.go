// Package corpus indexes a tree of LPC driver and mudlib reference files and
// answers substring and scored-relevance queries against it.
//
// # Modes
//
// ModeIndexed (the default) keeps an arena of term postings built by
// Build. Scored searches look candidate lines up in the postings and then
// re-read those files from disk, so scores always reflect current file
// content and line numbers stay within the current file bounds. Lines added
// after Build are only visible after Refresh.
//
// ModeRescan walks and reads the whole tree on every scored search. It is
// also used for individual queries the postings cannot answer (terms with
// punctuation, such as "query_*" or "f_call_other()") and whenever Build has
// not been called.
//
// Both modes return identical results for an unchanged corpus.
//
// # Scoring
//
// A line's relevance is the fraction of query terms (whitespace separated,
// longer than two characters) it contains, case-insensitively. Path-based
// bonuses from a WeightTable are added on top; see DefaultWeights.
//
// # Usage
//
//	idx := corpus.New("/srv/lpc-reference")
//	if _, err := idx.Build(ctx); err != nil {
//	    return err
//	}
//	hits := idx.SearchScored(ctx, "call_other object inherit", 10)
package corpus
