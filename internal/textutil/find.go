package textutil

import "github.com/lithammer/fuzzysearch/fuzzy"

// MatchesQuery reports whether the characters of query appear in order in
// text, ignoring case and diacritics. An empty query matches everything.
func MatchesQuery(query, text string) bool {
	query = Normalize(query)
	if query == "" {
		return true
	}
	return fuzzy.MatchNormalizedFold(query, Normalize(text))
}
