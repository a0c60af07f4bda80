// Package faq short-circuits curated questions before any retrieval work.
package faq

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/hectorluisalamo/bilingual-rag/internal/core/domain"
	"github.com/hectorluisalamo/bilingual-rag/internal/textnorm"
)

const defaultFuzzyThreshold = 88

// Queries matching these patterns bypass the FAQ entirely and are forced
// through retrieval, whatever they would otherwise match.
var injectionGuard = regexp.MustCompile(`(?i)ignore previous|system prompt|do anything now`)

type indexedEntry struct {
	entry  domain.FAQEntry
	normed string
}

// Index is built once at startup and immutable afterwards; reload requires a
// restart.
type Index struct {
	exact     map[string]domain.FAQEntry
	entries   []indexedEntry
	threshold int
}

// Load reads newline-delimited JSON records {"q","a","lang","uri"}. Blank
// lines are skipped; a malformed record fails the load.
func Load(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open faq file: %w", err)
	}
	defer f.Close()

	idx := &Index{
		exact:     make(map[string]domain.FAQEntry),
		threshold: defaultFuzzyThreshold,
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		var entry domain.FAQEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			return nil, fmt.Errorf("parse faq line %d: %w", line, err)
		}
		if strings.TrimSpace(entry.Question) == "" || strings.TrimSpace(entry.Answer) == "" {
			return nil, fmt.Errorf("faq line %d: question and answer are required", line)
		}
		idx.add(entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read faq file: %w", err)
	}
	return idx, nil
}

// Empty returns an index with no entries; every query falls through to
// retrieval.
func Empty() *Index {
	return &Index{
		exact:     make(map[string]domain.FAQEntry),
		threshold: defaultFuzzyThreshold,
	}
}

func (idx *Index) add(entry domain.FAQEntry) {
	normed := textnorm.Fold(entry.Question)
	idx.exact[normed] = entry
	idx.entries = append(idx.entries, indexedEntry{entry: entry, normed: normed})
}

func (idx *Index) Len() int { return len(idx.entries) }

// Route returns the matching entry and true on an exact or high-confidence
// fuzzy hit whose language fits the preference. False means the caller must
// run the full retrieval pipeline.
func (idx *Index) Route(query string, langPref []string) (domain.FAQEntry, bool) {
	if injectionGuard.MatchString(query) {
		return domain.FAQEntry{}, false
	}

	normed := textnorm.Fold(query)
	if normed == "" {
		return domain.FAQEntry{}, false
	}

	if entry, ok := idx.exact[normed]; ok && langAllowed(entry.Lang, langPref) {
		return entry, true
	}

	best := domain.FAQEntry{}
	bestScore := 0
	for _, cand := range idx.entries {
		if !langAllowed(cand.entry.Lang, langPref) {
			continue
		}
		score := tokenSortRatio(normed, cand.normed)
		if score > bestScore {
			bestScore = score
			best = cand.entry
		}
	}
	if bestScore >= idx.threshold {
		return best, true
	}
	return domain.FAQEntry{}, false
}

func langAllowed(lang string, pref []string) bool {
	if lang == "" || len(pref) == 0 {
		return true
	}
	for _, p := range pref {
		if strings.EqualFold(p, lang) {
			return true
		}
	}
	return false
}
