package router

import "strings"

// KeywordPredicate reports whether an utterance mentions any of the given
// keywords. Matching is case-insensitive on whole substrings; capabilities
// use it as their intent predicate.
func KeywordPredicate(keywords ...string) func(string) bool {
	lowered := make([]string, len(keywords))
	for i, kw := range keywords {
		lowered[i] = strings.ToLower(kw)
	}
	return func(utterance string) bool {
		u := strings.ToLower(utterance)
		for _, kw := range lowered {
			if strings.Contains(u, kw) {
				return true
			}
		}
		return false
	}
}
