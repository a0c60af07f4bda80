// Package textnorm holds the query/text normalization shared by the FAQ
// router, the relevance pipeline and the answer synthesizer.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks decomposes to NFD, drops combining marks, then recomposes with
// NFKC so "¿Qué es...?" and "Que es...?" collide after folding.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFKC)

func StripDiacritics(s string) string {
	out, _, err := transform.String(stripMarks, s)
	if err != nil {
		return s
	}
	return out
}

// Fold normalizes a query for matching: trim, lowercase, collapse internal
// whitespace and strip diacritics.
func Fold(s string) string {
	s = StripDiacritics(strings.TrimSpace(s))
	s = strings.ToLower(s)
	return strings.Join(strings.Fields(s), " ")
}

// Tokens splits into lowercase letter/digit runs, diacritics preserved.
func Tokens(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// LongestAlphaToken is the naive entity guess used for lexical boosting: the
// longest token consisting only of letters. Empty when nothing qualifies.
func LongestAlphaToken(s string) string {
	best := ""
	for _, tok := range Tokens(s) {
		alpha := true
		for _, r := range tok {
			if !unicode.IsLetter(r) {
				alpha = false
				break
			}
		}
		if alpha && len([]rune(tok)) > len([]rune(best)) {
			best = tok
		}
	}
	return best
}

// CollapseWhitespace flattens all whitespace runs to single spaces.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
