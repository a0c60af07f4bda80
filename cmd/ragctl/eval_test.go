package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseKList(t *testing.T) {
	ks, err := parseKList("1, 3,5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ks) != 3 || ks[0] != 1 || ks[1] != 3 || ks[2] != 5 {
		t.Fatalf("unexpected k list: %v", ks)
	}

	if _, err := parseKList("1,zero"); err == nil {
		t.Fatal("expected error for non-numeric k")
	}
	if _, err := parseKList("0"); err == nil {
		t.Fatal("expected error for k below 1")
	}
}

func TestAnyRelevantMatchesByPrefix(t *testing.T) {
	uris := []string{
		"https://es.wikipedia.org/api/rest_v1/page/html/Arepa",
		"https://example.com/other",
	}
	if !anyRelevant(uris, []string{"https://es.wikipedia.org/api/rest_v1/page/html/Arepa"}) {
		t.Error("expected exact match to hit")
	}
	if !anyRelevant(uris, []string{"https://es.wikipedia.org/"}) {
		t.Error("expected prefix match to hit")
	}
	if anyRelevant(uris, []string{"https://en.wikipedia.org/"}) {
		t.Error("expected no hit for unrelated prefix")
	}
	if anyRelevant(uris, []string{""}) {
		t.Error("expected empty relevant URL to never hit")
	}
}

func TestInferTopicHint(t *testing.T) {
	topics := map[string]string{
		"https://es.wikipedia.org/wiki/Arepa": "food",
		"https://example.com/no-topic":        "",
	}
	if got := inferTopicHint([]string{"https://example.com/no-topic", "https://es.wikipedia.org/wiki/Arepa"}, topics); got != "food" {
		t.Fatalf("expected food, got %q", got)
	}
	if got := inferTopicHint([]string{"https://unknown.example.com"}, topics); got != "" {
		t.Fatalf("expected empty hint, got %q", got)
	}
}

func TestLoadGoldSet(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gold.json")
	content := `[{"query": "¿Qué es una arepa?", "relevant_urls": ["https://es.wikipedia.org/wiki/Arepa"]}]`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	gold, err := loadGoldSet(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(gold) != 1 || gold[0].Query != "¿Qué es una arepa?" {
		t.Fatalf("unexpected gold set: %+v", gold)
	}

	empty := filepath.Join(dir, "empty.json")
	if err := os.WriteFile(empty, []byte("[]"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := loadGoldSet(empty); err == nil {
		t.Fatal("expected error for empty gold set")
	}
}

func TestLatencySummary(t *testing.T) {
	p50, worst := latencySummary([]float64{5, 1, 9, 3, 7})
	if p50 != 5 || worst != 9 {
		t.Fatalf("expected p50=5 max=9, got %v/%v", p50, worst)
	}
	if p50, worst := latencySummary(nil); p50 != 0 || worst != 0 {
		t.Fatal("expected zeros for empty input")
	}
}
