// Package search decides whether a piece of text matches a user query.
package search

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// DefaultFuzzyDistance is the largest edit distance at which a query word still matches.
const DefaultFuzzyDistance = 2

// PerformSearchInText reports whether text matches query. text is expected
// to be lowercase already.
//
//   - an empty query matches everything
//   - a query wrapped in double quotes must appear literally; an empty or
//     lone-quote phrase matches everything
//   - otherwise every word of the query must appear literally, or be within
//     maxFuzzyDistance edits of a word in text
func PerformSearchInText(query, text string, maxFuzzyDistance int) bool {
	query = strings.TrimSpace(strings.ToLower(query))

	if query == "" {
		return true
	}

	if strings.HasPrefix(query, `"`) && strings.HasSuffix(query, `"`) {
		// a lone quote opens and closes an empty phrase
		if len(query) == 1 {
			return true
		}

		phrase := strings.TrimSpace(query[1 : len(query)-1])
		if phrase == "" {
			return true
		}

		return strings.Contains(text, phrase)
	}

	queryWords := strings.Fields(query)
	if len(queryWords) == 0 {
		return true
	}

	targetWords := uniqueWords(text)

	for _, word := range queryWords {
		if !matchesWord(word, text, targetWords, maxFuzzyDistance) {
			return false
		}
	}

	return true
}

func matchesWord(word, text string, targetWords []string, maxFuzzyDistance int) bool {
	if strings.Contains(text, word) {
		return true
	}

	for _, target := range targetWords {
		if levenshtein.ComputeDistance(word, target) <= maxFuzzyDistance {
			return true
		}
	}

	return false
}

func uniqueWords(text string) []string {
	fields := strings.Fields(text)
	seen := make(map[string]struct{}, len(fields))
	words := make([]string, 0, len(fields))

	for _, f := range fields {
		if _, ok := seen[f]; ok {
			continue
		}

		seen[f] = struct{}{}
		words = append(words, f)
	}

	return words
}
