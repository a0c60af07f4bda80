package openaichat

import (
	"fmt"
	"strings"

	"github.com/hectorluisalamo/bilingual-rag/internal/core/domain"
)

const systemPrompt = "You are a precise bilingual assistant. Answer ONLY using the provided context. " +
	"Respond in the language of the question. Each sentence must include citation markers " +
	"like [1], [2] that map to the numbered sources below. If the context lacks facts, say you " +
	"don't have enough information."

func buildExtractPrompt(question, contextBlock string) string {
	return fmt.Sprintf(
		"Question: %s\n\nContext:\n%s\n\n"+
			"Select 3 short quotes (max 30 words each) that directly answer the question. "+
			`Return JSON: {"quotes":[{"i":<source_number>,"text":"..."}]}. `+
			`If not answerable, return {"quotes":[]}.`,
		question, contextBlock,
	)
}

func buildSummaryPrompt(question string, quotes []domain.Quote) string {
	var b strings.Builder
	for _, q := range quotes {
		fmt.Fprintf(&b, "[%d] %s\n", q.Source, q.Text)
	}
	return fmt.Sprintf(
		"Question: %s\n\nQuotes:\n%s\n"+
			"Write a concise answer (1-2 sentences). After each sentence, add [i] markers "+
			"using the source numbers from the quotes. Do not invent citations.",
		question, b.String(),
	)
}
