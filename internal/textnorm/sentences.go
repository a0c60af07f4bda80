package textnorm

import (
	"regexp"
	"strings"
)

var sentenceSplit = regexp.MustCompile(`([.!?])\s+`)

// SplitSentences splits after sentence-final punctuation followed by
// whitespace. Locale-agnostic: no abbreviation handling.
func SplitSentences(text string) []string {
	marked := sentenceSplit.ReplaceAllString(text, "$1\x00")
	parts := strings.Split(marked, "\x00")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

var (
	esHints       = regexp.MustCompile(`(?i)[¿¡ñáéíóúü]|\b(el|la|de|y|que|como|una|es)\b`)
	enHints       = regexp.MustCompile(`(?i)\b(the|and|of|how|what|is|are)\b`)
	invertedPunct = []string{"¿", "¡"}
)

// DetectLang guesses es/en from lightweight lexical hints. Used only to pick
// the language of terminal fallback answers.
func DetectLang(text string) string {
	t := strings.TrimSpace(text)
	es := esHints.MatchString(t)
	en := enHints.MatchString(t)
	if es && !en {
		return "es"
	}
	if en && !es {
		return "en"
	}
	for _, p := range invertedPunct {
		if strings.Contains(t, p) {
			return "es"
		}
	}
	return "en"
}
