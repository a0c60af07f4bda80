package segmenter

import (
	"strings"

	"github.com/hectorluisalamo/bilingual-rag/internal/core/domain"
	"github.com/hectorluisalamo/bilingual-rag/internal/textnorm"
)

// TokenCounter approximates the token cost of a sentence. The default is a
// whitespace word count, not a real tokenizer count.
type TokenCounter func(string) int

func wordCount(s string) int {
	return len(strings.Fields(s))
}

type Segmenter struct {
	MaxTokens int
	Overlap   int
	Count     TokenCounter
}

func New(maxTokens, overlap int) *Segmenter {
	if maxTokens <= 0 {
		maxTokens = 600
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= maxTokens {
		overlap = maxTokens / 4
	}
	return &Segmenter{
		MaxTokens: maxTokens,
		Overlap:   overlap,
		Count:     wordCount,
	}
}

// Segment packs sentences greedily into token-bounded segments, carrying a
// trailing overlap window across boundaries. A single sentence longer than
// MaxTokens is kept whole rather than split mid-sentence. Non-empty input
// always yields at least one segment.
func (s *Segmenter) Segment(text string) []domain.Segment {
	sentences := textnorm.SplitSentences(text)
	if len(sentences) == 0 {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return nil
		}
		sentences = []string{trimmed}
	}

	count := s.Count
	if count == nil {
		count = wordCount
	}

	var (
		out       []domain.Segment
		buf       []string
		bufTokens int
	)
	for _, sentence := range sentences {
		t := count(sentence)
		if bufTokens+t > s.MaxTokens && len(buf) > 0 {
			out = append(out, domain.Segment{
				Text:   strings.Join(buf, " "),
				Tokens: bufTokens,
			})
			for len(buf) > 0 && bufTokens > s.Overlap {
				bufTokens -= count(buf[0])
				buf = buf[1:]
			}
		}
		buf = append(buf, sentence)
		bufTokens += t
	}
	if len(buf) > 0 {
		out = append(out, domain.Segment{
			Text:   strings.Join(buf, " "),
			Tokens: bufTokens,
		})
	}
	return out
}
