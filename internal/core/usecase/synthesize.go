package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/hectorluisalamo/bilingual-rag/internal/core/domain"
	"github.com/hectorluisalamo/bilingual-rag/internal/core/ports"
	"github.com/hectorluisalamo/bilingual-rag/internal/textnorm"
)

const (
	maxQuotes       = 3
	maxQuoteWords   = 30
	minAnswerLength = 20
	snippetLimit    = 500
)

var (
	citationMarker = regexp.MustCompile(`\[(\d+)\]`)
	// Definitional verb patterns used by the rule-based fallback, Spanish
	// and English.
	definitional = regexp.MustCompile(`(?i)\b(is|are|was|were|means|se define como|consiste|es una|es un|son)\b`)

	insufficientAnswers = map[string]string{
		"es": "No tengo suficiente información para responder esta pregunta.",
		"en": "I don't have enough information to answer this question.",
	}
)

// Synthesizer produces a short cited answer from ranked candidates:
// extractive quote selection, then abstractive summarization, then a
// rule-based fallback. It never fails; the terminal fallback is a fixed
// insufficient-information message in the query's apparent language.
type Synthesizer struct {
	generator ports.QuoteSynthesizer
}

func NewSynthesizer(generator ports.QuoteSynthesizer) *Synthesizer {
	return &Synthesizer{generator: generator}
}

func (s *Synthesizer) Answer(ctx context.Context, query string, candidates []domain.Candidate) string {
	if len(candidates) == 0 {
		return insufficientAnswer(query)
	}

	contextBlock := BuildContextBlock(candidates)

	quotes, err := s.generator.ExtractQuotes(ctx, query, contextBlock)
	if err != nil {
		if !domain.IsKind(err, domain.ErrUnavailable) {
			slog.Warn("extractive_stage_failed", "error", err)
		}
		return s.ruleBasedAnswer(query, candidates)
	}
	quotes = validQuotes(quotes, len(candidates))
	if len(quotes) == 0 {
		return s.ruleBasedAnswer(query, candidates)
	}

	answer, err := s.generator.WriteAnswer(ctx, query, quotes)
	if err != nil || len(strings.TrimSpace(answer)) < minAnswerLength {
		if err != nil {
			slog.Warn("abstractive_stage_failed", "error", err)
		}
		return s.ruleBasedAnswer(query, candidates)
	}

	return stripInventedCitations(answer, quotes)
}

// BuildContextBlock numbers candidates from 1. The numbering is the single
// source of truth mapping citation markers back to source URIs.
func BuildContextBlock(candidates []domain.Candidate) string {
	blocks := make([]string, 0, len(candidates))
	for i, cand := range candidates {
		snippet := truncateRunes(textnorm.CollapseWhitespace(cand.Text), snippetLimit)
		date := ""
		if cand.PublishedAt != nil {
			date = cand.PublishedAt.Format("2006-01-02")
		}
		blocks = append(blocks, fmt.Sprintf("[%d] %s\nSource: %s (date: %s)", i+1, snippet, cand.SourceURI, date))
	}
	return strings.Join(blocks, "\n\n")
}

// validQuotes rejects quotes with an out-of-range source index or empty
// text, clips over-long quotes, and caps the count.
func validQuotes(quotes []domain.Quote, sources int) []domain.Quote {
	out := make([]domain.Quote, 0, maxQuotes)
	for _, q := range quotes {
		if q.Source < 1 || q.Source > sources {
			continue
		}
		text := strings.TrimSpace(q.Text)
		if text == "" {
			continue
		}
		words := strings.Fields(text)
		if len(words) > maxQuoteWords {
			text = strings.Join(words[:maxQuoteWords], " ")
		}
		out = append(out, domain.Quote{Source: q.Source, Text: text})
		if len(out) == maxQuotes {
			break
		}
	}
	return out
}

// stripInventedCitations removes [n] markers that reference numbers absent
// from the extracted quotes.
func stripInventedCitations(answer string, quotes []domain.Quote) string {
	allowed := make(map[int]struct{}, len(quotes))
	for _, q := range quotes {
		allowed[q.Source] = struct{}{}
	}
	cleaned := citationMarker.ReplaceAllStringFunc(answer, func(marker string) string {
		n, err := strconv.Atoi(citationMarker.FindStringSubmatch(marker)[1])
		if err != nil {
			return ""
		}
		if _, ok := allowed[n]; ok {
			return marker
		}
		return ""
	})
	return textnorm.CollapseWhitespace(cleaned)
}

// ruleBasedAnswer scans the top candidates for a definitional sentence. When
// the query names a specific subject, the sentence must mention it.
func (s *Synthesizer) ruleBasedAnswer(query string, candidates []domain.Candidate) string {
	subject := textnorm.Fold(textnorm.LongestAlphaToken(query))

	for i, cand := range candidates {
		for _, sentence := range textnorm.SplitSentences(cand.Text) {
			if !definitional.MatchString(sentence) {
				continue
			}
			if subject != "" && !strings.Contains(textnorm.Fold(sentence), subject) {
				continue
			}
			return textnorm.CollapseWhitespace(sentence) + fmt.Sprintf(" [%d]", i+1)
		}
	}
	return insufficientAnswer(query)
}

func insufficientAnswer(query string) string {
	return insufficientAnswers[textnorm.DetectLang(query)]
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
