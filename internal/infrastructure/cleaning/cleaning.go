// Package cleaning scrubs extracted web text before segmentation.
package cleaning

import (
	"regexp"
	"strings"

	"github.com/hectorluisalamo/bilingual-rag/internal/textnorm"
)

const minSentenceLen = 40

var (
	boilerplate = regexp.MustCompile(`(?i)(cookies|suscríbete|boletín|accesibilidad|newsletter|subscribe)`)
	readMore    = regexp.MustCompile(`(?i)(leer más\s*){2,}`)
)

// Clean collapses whitespace and strips repeated boilerplate fragments.
func Clean(text string) string {
	t := textnorm.CollapseWhitespace(text)
	t = readMore.ReplaceAllString(t, "Leer más ")
	return strings.TrimSpace(t)
}

// DropNoise reports whether a sentence is too short or too boilerplate-like
// to be worth chunking.
func DropNoise(sentence string) bool {
	if len([]rune(sentence)) < minSentenceLen {
		return true
	}
	return boilerplate.MatchString(sentence)
}

// FilterSentences removes noisy sentences and rejoins the remainder. When
// everything is filtered out, the cleaned input is returned so short
// legitimate documents still produce a chunk.
func FilterSentences(text string) string {
	kept := make([]string, 0, 32)
	for _, s := range textnorm.SplitSentences(text) {
		if DropNoise(s) {
			continue
		}
		kept = append(kept, s)
	}
	if len(kept) == 0 {
		return text
	}
	return strings.Join(kept, " ")
}
