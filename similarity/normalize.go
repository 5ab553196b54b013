package similarity

import (
	"strings"
	"unicode"
)

// qualifierWords are administrative-division and direction words that vary
// between reports of the same place ("Bailpar District Dandeli" vs
// "bailpar dandeli"). Includes local transliterated direction words.
var qualifierWords = map[string]bool{
	"district": true,
	"dist":     true,
	"uttar":    true,
	"dakshin":  true,
	"purba":    true,
	"paschim":  true,
	"north":    true,
	"south":    true,
	"east":     true,
	"west":     true,
}

// NormalizeLocation canonicalizes a free-text address for comparison.
// Lower-cases, strips punctuation, collapses whitespace and drops
// qualifier words. Total: empty input yields empty output, never errors.
func NormalizeLocation(raw string) string {
	tokens := tokenize(raw)
	if len(tokens) == 0 {
		return ""
	}

	kept := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if !qualifierWords[tok] {
			kept = append(kept, tok)
		}
	}

	// An address made entirely of qualifier words still has to compare
	// against itself, so fall back to the cleaned tokens.
	if len(kept) == 0 {
		kept = tokens
	}

	return strings.Join(kept, " ")
}

// tokenize lower-cases, removes punctuation/symbols and splits on
// whitespace runs.
func tokenize(s string) []string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return nil
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
		// punctuation and symbols are dropped
	}

	return strings.Fields(b.String())
}
