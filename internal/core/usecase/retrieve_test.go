package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/hectorluisalamo/bilingual-rag/internal/core/domain"
)

type embedderFake struct {
	err error
}

func (f embedderFake) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

func (f embedderFake) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := f.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

type storeFake struct {
	results map[string][]domain.Candidate // keyed by topic filter
	calls   []domain.SearchFilter
	fetches []int
	err     error
}

func (f *storeFake) InsertChunks(context.Context, []domain.Chunk) error { return nil }

func (f *storeFake) Search(_ context.Context, _ []float32, k int, filter domain.SearchFilter) ([]domain.Candidate, error) {
	f.calls = append(f.calls, filter)
	f.fetches = append(f.fetches, k)
	if f.err != nil {
		return nil, f.err
	}
	cands := f.results[filter.Topic]
	out := make([]domain.Candidate, len(cands))
	copy(out, cands)
	for i := range out {
		out[i].Adjusted = out[i].Score
	}
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

type rerankerFake struct {
	available bool
	scores    []float64
	err       error
	called    bool
}

func (f *rerankerFake) Available(context.Context) bool { return f.available }

func (f *rerankerFake) Score(context.Context, string, []string) ([]float64, error) {
	f.called = true
	return f.scores, f.err
}

func cand(uri string, score float64, text string) domain.Candidate {
	return domain.Candidate{
		Text:      text,
		DocID:     "doc-" + uri,
		SourceURI: uri,
		Score:     score,
	}
}

func TestRetrieveOverfetchesAtLeastMinimum(t *testing.T) {
	store := &storeFake{results: map[string][]domain.Candidate{
		"": {cand("a", 0.9, "arepa dough")},
	}}
	r := NewRetriever(embedderFake{}, store, nil)

	if _, err := r.Retrieve(context.Background(), "arepa", 3, domain.SearchFilter{}, false); err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if store.fetches[0] != overfetchMin {
		t.Fatalf("expected over-fetch of %d, got %d", overfetchMin, store.fetches[0])
	}
}

func TestRetrieveWidensTopicOnEmptyResult(t *testing.T) {
	store := &storeFake{results: map[string][]domain.Candidate{
		"food": nil,
		"":     {cand("a", 0.9, "arepa dough recipe")},
	}}
	r := NewRetriever(embedderFake{}, store, nil)

	got, err := r.Retrieve(context.Background(), "arepa", 3, domain.SearchFilter{Topic: "food"}, false)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected widened search to find 1 candidate, got %d", len(got))
	}
	if len(store.calls) != 2 || store.calls[0].Topic != "food" || store.calls[1].Topic != "" {
		t.Fatalf("expected second search without topic, got %+v", store.calls)
	}
}

func TestRetrieveEntityBoostReorders(t *testing.T) {
	store := &storeFake{results: map[string][]domain.Candidate{
		"": {
			cand("https://en.wikipedia.org/wiki/Maize", 0.80, "corn cultivation history"),
			cand("https://en.wikipedia.org/wiki/Arepa", 0.75, "the arepa is a maize patty"),
		},
	}}
	r := NewRetriever(embedderFake{}, store, nil)

	got, err := r.Retrieve(context.Background(), "what is an arepa", 2, domain.SearchFilter{}, false)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(got))
	}
	if got[0].SourceURI != "https://en.wikipedia.org/wiki/Arepa" {
		t.Fatalf("expected boosted candidate first, got %q", got[0].SourceURI)
	}
	if got[0].Adjusted <= got[0].Score {
		t.Fatalf("expected adjusted score above raw score, got %f <= %f", got[0].Adjusted, got[0].Score)
	}
}

func TestRetrieveDedupsBySourceURI(t *testing.T) {
	store := &storeFake{results: map[string][]domain.Candidate{
		"": {
			{Text: "arepa chunk one", DocID: "d1", ChunkIndex: 0, SourceURI: "https://x/arepa", Score: 0.9},
			{Text: "arepa chunk two", DocID: "d1", ChunkIndex: 1, SourceURI: "https://x/arepa", Score: 0.85},
			{Text: "other arepa source", DocID: "d2", ChunkIndex: 0, SourceURI: "https://y/arepa", Score: 0.8},
		},
	}}
	r := NewRetriever(embedderFake{}, store, nil)

	got, err := r.Retrieve(context.Background(), "arepa", 5, domain.SearchFilter{}, false)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}

	seen := make(map[string]int)
	for _, c := range got {
		seen[c.SourceURI]++
	}
	for uri, n := range seen {
		if n > 1 {
			t.Fatalf("source %q cited %d times", uri, n)
		}
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 deduplicated candidates, got %d", len(got))
	}
}

func TestRetrieveAppliesScoreFloor(t *testing.T) {
	store := &storeFake{results: map[string][]domain.Candidate{
		"": {
			cand("a", 0.9, "strong match"),
			cand("b", 0.10, "weak match"),
		},
	}}
	r := NewRetriever(embedderFake{}, store, nil)

	got, err := r.Retrieve(context.Background(), "zz", 5, domain.SearchFilter{}, false)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(got) != 1 || got[0].SourceURI != "a" {
		t.Fatalf("expected weak candidate dropped, got %+v", got)
	}
}

func TestRetrieveRerankFailureKeepsOrder(t *testing.T) {
	store := &storeFake{results: map[string][]domain.Candidate{
		"": {
			cand("a", 0.9, "first"),
			cand("b", 0.8, "second"),
		},
	}}
	reranker := &rerankerFake{available: true, err: errors.New("rerank service down")}
	r := NewRetriever(embedderFake{}, store, reranker)

	got, err := r.Retrieve(context.Background(), "zz", 2, domain.SearchFilter{}, true)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if !reranker.called {
		t.Fatal("expected reranker to be attempted")
	}
	if got[0].SourceURI != "a" || got[1].SourceURI != "b" {
		t.Fatalf("expected original order preserved, got %+v", got)
	}
}

func TestRetrieveRerankReorders(t *testing.T) {
	store := &storeFake{results: map[string][]domain.Candidate{
		"": {
			cand("a", 0.9, "first"),
			cand("b", 0.8, "second"),
		},
	}}
	reranker := &rerankerFake{available: true, scores: []float64{0.4, 0.95}}
	r := NewRetriever(embedderFake{}, store, reranker)

	got, err := r.Retrieve(context.Background(), "zz", 2, domain.SearchFilter{}, true)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if got[0].SourceURI != "b" {
		t.Fatalf("expected reranked order, got %+v", got)
	}
}

func TestRetrieveTruncatesToK(t *testing.T) {
	var cands []domain.Candidate
	for _, uri := range []string{"a", "b", "c", "d", "e"} {
		cands = append(cands, cand(uri, 0.9, "text "+uri))
	}
	store := &storeFake{results: map[string][]domain.Candidate{"": cands}}
	r := NewRetriever(embedderFake{}, store, nil)

	got, err := r.Retrieve(context.Background(), "zz", 2, domain.SearchFilter{}, false)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(got))
	}
}

func TestRetrieveEmbedErrorPropagates(t *testing.T) {
	r := NewRetriever(embedderFake{err: errors.New("no backend")}, &storeFake{}, nil)
	if _, err := r.Retrieve(context.Background(), "zz", 2, domain.SearchFilter{}, false); err == nil {
		t.Fatal("expected error from failed query embedding")
	}
}
