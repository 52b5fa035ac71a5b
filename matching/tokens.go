// Package matching scores lost and found reports against each other.
package matching

import "strings"

// TokenSet is a set of normalized words.
type TokenSet map[string]struct{}

// Tokenize lowercases text and splits it on runs of whitespace. Punctuation is
// kept as part of the word.
func Tokenize(text string) TokenSet {
	fields := strings.Fields(strings.ToLower(text))
	set := make(TokenSet, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

func (s TokenSet) Has(word string) bool {
	_, ok := s[word]
	return ok
}
