package openaichat

import (
	"context"
	"strings"
	"testing"

	"github.com/hectorluisalamo/bilingual-rag/internal/core/domain"
)

func TestClientWithoutCredentialsIsUnavailable(t *testing.T) {
	c := New("", "", "gpt-4o-mini", nil)

	_, err := c.ExtractQuotes(context.Background(), "q", "ctx")
	if !domain.IsKind(err, domain.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}

	_, err = c.WriteAnswer(context.Background(), "q", nil)
	if !domain.IsKind(err, domain.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`{"quotes": []}`, `{"quotes": []}`},
		{"Here you go:\n```json\n{\"quotes\": []}\n```", `{"quotes": []}`},
		{"no json at all", "no json at all"},
	}
	for _, tt := range tests {
		if got := extractJSONObject(tt.in); got != tt.want {
			t.Fatalf("extractJSONObject(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBuildExtractPromptNumbersSources(t *testing.T) {
	prompt := buildExtractPrompt("what is an arepa", "[1] some text\nSource: https://x (date: )")
	if !strings.Contains(prompt, "what is an arepa") {
		t.Fatalf("expected question embedded, got %q", prompt)
	}
	if !strings.Contains(prompt, "[1] some text") {
		t.Fatalf("expected context embedded, got %q", prompt)
	}
}

func TestBuildSummaryPromptIncludesQuotes(t *testing.T) {
	prompt := buildSummaryPrompt("what is an arepa", []domain.Quote{
		{Source: 1, Text: "flat round patty"},
		{Source: 2, Text: "made of maize"},
	})
	if !strings.Contains(prompt, "[1] flat round patty") || !strings.Contains(prompt, "[2] made of maize") {
		t.Fatalf("expected numbered quotes, got %q", prompt)
	}
}
