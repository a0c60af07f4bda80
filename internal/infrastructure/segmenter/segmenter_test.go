package segmenter

import (
	"fmt"
	"strings"
	"testing"
)

func TestSegmentRespectsTokenBound(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 40; i++ {
		sb.WriteString(fmt.Sprintf("Sentence number %d has exactly seven words total. ", i))
	}

	s := New(50, 10)
	segments := s.Segment(sb.String())
	if len(segments) < 2 {
		t.Fatalf("expected multiple segments, got %d", len(segments))
	}
	for i, seg := range segments {
		if seg.Tokens > 50 {
			t.Fatalf("segment %d exceeds token bound: %d", i, seg.Tokens)
		}
		if strings.TrimSpace(seg.Text) == "" {
			t.Fatalf("segment %d is empty", i)
		}
	}
}

func TestSegmentCarriesOverlap(t *testing.T) {
	text := "One two three four five. Six seven eight nine ten. Eleven twelve thirteen fourteen fifteen."

	s := New(10, 5)
	segments := s.Segment(text)
	if len(segments) < 2 {
		t.Fatalf("expected at least 2 segments, got %d", len(segments))
	}

	// Consecutive segments must share the carried sentence.
	first := segments[0].Text
	second := segments[1].Text
	lastSentence := "Six seven eight nine ten."
	if !strings.Contains(first, "One two three four five.") {
		t.Fatalf("first segment missing leading sentence: %q", first)
	}
	if strings.Contains(first, lastSentence) && !strings.Contains(second, lastSentence) {
		t.Fatalf("overlap sentence not carried into second segment: %q", second)
	}
}

func TestSegmentKeepsLongSentenceWhole(t *testing.T) {
	words := make([]string, 30)
	for i := range words {
		words[i] = fmt.Sprintf("word%d", i)
	}
	long := strings.Join(words, " ") + "."

	s := New(10, 2)
	segments := s.Segment(long)
	if len(segments) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segments))
	}
	if segments[0].Tokens != 30 {
		t.Fatalf("expected 30 tokens, got %d", segments[0].Tokens)
	}
}

func TestSegmentNonEmptyInputYieldsSegment(t *testing.T) {
	s := New(600, 60)
	segments := s.Segment("hola")
	if len(segments) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segments))
	}

	if got := s.Segment("   "); got != nil {
		t.Fatalf("expected nil for blank input, got %v", got)
	}
}

func TestNewClampsOverlap(t *testing.T) {
	s := New(100, 100)
	if s.Overlap != 25 {
		t.Fatalf("expected overlap clamped to 25, got %d", s.Overlap)
	}

	s = New(0, -1)
	if s.MaxTokens != 600 || s.Overlap != 0 {
		t.Fatalf("unexpected defaults: max=%d overlap=%d", s.MaxTokens, s.Overlap)
	}
}
