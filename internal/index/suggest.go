package index

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// DefaultMaxSuggestions is used when Suggestions is called with a
// non-positive limit.
const DefaultMaxSuggestions = 5

// Suggestions returns up to maxSuggestions indexed tokens starting with
// partial, sorted lexicographically. Inputs shorter than two runes yield
// nothing. When more tokens match than fit, the smallest ones are kept.
func (idx *Index) Suggestions(partial string, maxSuggestions int) []string {
	if utf8.RuneCountInString(partial) < minTokenLen {
		return nil
	}
	if maxSuggestions <= 0 {
		maxSuggestions = DefaultMaxSuggestions
	}
	prefix := strings.ToLower(partial)

	idx.mu.RLock()
	var matches []string
	if idx.initialized {
		for token := range idx.postings {
			if strings.HasPrefix(token, prefix) {
				matches = append(matches, token)
			}
		}
	}
	idx.mu.RUnlock()

	sort.Strings(matches)
	if len(matches) > maxSuggestions {
		matches = matches[:maxSuggestions]
	}
	return matches
}
