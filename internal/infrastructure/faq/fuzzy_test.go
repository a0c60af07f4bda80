package faq

import "testing"

func TestIndelRatio(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 100},
		{"arepa", "arepa", 100},
		{"arepa", "", 0},
		{"abcd", "abce", 75},
	}
	for _, tt := range tests {
		if got := indelRatio(tt.a, tt.b); got != tt.want {
			t.Fatalf("indelRatio(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestTokenSortRatioIgnoresWordOrder(t *testing.T) {
	if got := tokenSortRatio("es una arepa", "arepa una es"); got != 100 {
		t.Fatalf("expected 100 for reordered tokens, got %d", got)
	}
}

func TestTokenSortRatioNearMatch(t *testing.T) {
	score := tokenSortRatio("que es una arepa", "que es un arepa")
	if score < defaultFuzzyThreshold {
		t.Fatalf("expected near-match above threshold %d, got %d", defaultFuzzyThreshold, score)
	}

	far := tokenSortRatio("que es una arepa", "donde queda bogota")
	if far >= defaultFuzzyThreshold {
		t.Fatalf("expected unrelated strings below threshold, got %d", far)
	}
}
