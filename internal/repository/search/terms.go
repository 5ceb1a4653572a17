package search

import (
	"strings"
	"unicode"
)

// stopWords mirrors the Redis Query Engine default list, which the index drops anyway.
var stopWords = map[string]bool{
	"a": true, "is": true, "the": true, "an": true, "and": true, "are": true,
	"as": true, "at": true, "be": true, "but": true, "by": true, "for": true,
	"if": true, "in": true, "into": true, "it": true, "no": true, "not": true,
	"of": true, "on": true, "or": true, "such": true, "that": true, "their": true,
	"then": true, "there": true, "these": true, "they": true, "this": true,
	"to": true, "was": true, "will": true, "with": true,
}

// QueryTerms lowercases text, splits it on non-alphanumeric boundaries and drops stop
// words and repeats, keeping first-seen order.
func QueryTerms(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]struct{}, len(words))
	terms := make([]string, 0, len(words))
	for _, w := range words {
		if stopWords[w] {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		terms = append(terms, w)
	}
	return terms
}
