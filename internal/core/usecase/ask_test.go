package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hectorluisalamo/bilingual-rag/internal/core/domain"
	"github.com/hectorluisalamo/bilingual-rag/internal/core/ports"
)

type faqFake struct {
	entry domain.FAQEntry
	hit   bool
}

func (f faqFake) Route(string, []string) (domain.FAQEntry, bool) {
	return f.entry, f.hit
}

type blockingStore struct{}

func (blockingStore) InsertChunks(context.Context, []domain.Chunk) error { return nil }

func (blockingStore) Search(ctx context.Context, _ []float32, _ int, _ domain.SearchFilter) ([]domain.Candidate, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func newAskUseCase(faq faqFake, store ports.ChunkStore, cfg AskConfig) *AskUseCase {
	retriever := NewRetriever(embedderFake{}, store, nil)
	synth := NewSynthesizer(synthFake{quotesErr: errors.New("offline")})
	return NewAskUseCase(faq, retriever, synth, cfg)
}

func assertShape(t *testing.T, resp domain.QueryResponse, wantRoute domain.Route) {
	t.Helper()
	if resp.Route != wantRoute {
		t.Fatalf("expected route %q, got %q", wantRoute, resp.Route)
	}
	if resp.Citations == nil {
		t.Fatal("citations must never be nil")
	}
	if resp.RequestID == "" {
		t.Fatal("request_id must always be set")
	}
}

func TestAskRejectsShortAndLongQueries(t *testing.T) {
	uc := newAskUseCase(faqFake{}, &storeFake{}, AskConfig{})

	resp := uc.Ask(context.Background(), domain.QueryRequest{Query: "a"})
	assertShape(t, resp, domain.RouteError)
	if !strings.Contains(resp.Answer, "invalid_request") {
		t.Fatalf("expected invalid_request, got %q", resp.Answer)
	}

	long := strings.Repeat("x", 513)
	resp = uc.Ask(context.Background(), domain.QueryRequest{Query: long})
	assertShape(t, resp, domain.RouteError)
}

func TestAskRejectsOutOfRangeK(t *testing.T) {
	uc := newAskUseCase(faqFake{}, &storeFake{}, AskConfig{})

	resp := uc.Ask(context.Background(), domain.QueryRequest{Query: "what is an arepa", K: 9})
	assertShape(t, resp, domain.RouteError)

	resp = uc.Ask(context.Background(), domain.QueryRequest{Query: "what is an arepa", K: -1})
	assertShape(t, resp, domain.RouteError)
}

func TestAskRejectsUnknownTopicHint(t *testing.T) {
	uc := newAskUseCase(faqFake{}, &storeFake{}, AskConfig{})

	resp := uc.Ask(context.Background(), domain.QueryRequest{Query: "what is an arepa", TopicHint: "sports"})
	assertShape(t, resp, domain.RouteError)
}

func TestValidateAppliesDefaults(t *testing.T) {
	uc := newAskUseCase(faqFake{}, &storeFake{}, AskConfig{})

	req := domain.QueryRequest{Query: "what is an arepa"}
	if err := uc.Validate(&req); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if req.K != defaultK {
		t.Fatalf("expected default k=%d, got %d", defaultK, req.K)
	}
	if len(req.LangPref) != 2 || req.IndexName != "default" {
		t.Fatalf("expected defaults applied, got %+v", req)
	}
}

func TestAskFAQShortCircuit(t *testing.T) {
	entry := domain.FAQEntry{
		Question:  "what is an arepa?",
		Answer:    "An arepa is a corn patty.",
		SourceURI: "https://en.wikipedia.org/wiki/Arepa",
	}
	uc := newAskUseCase(faqFake{entry: entry, hit: true}, &storeFake{}, AskConfig{})

	resp := uc.Ask(context.Background(), domain.QueryRequest{Query: "what is an arepa?"})
	assertShape(t, resp, domain.RouteFAQ)
	if resp.Answer != entry.Answer {
		t.Fatalf("expected curated answer, got %q", resp.Answer)
	}
	if len(resp.Citations) != 0 {
		t.Fatalf("faq answers carry no citations, got %d", len(resp.Citations))
	}
}

func TestAskRAGPathBuildsCitations(t *testing.T) {
	published := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	store := &storeFake{results: map[string][]domain.Candidate{
		"": {
			{
				Text:        "The arepa is a flat round patty made of maize.",
				DocID:       "d1",
				SourceURI:   "https://en.wikipedia.org/wiki/Arepa",
				Score:       0.9,
				PublishedAt: &published,
			},
		},
	}}
	uc := newAskUseCase(faqFake{}, store, AskConfig{})

	resp := uc.Ask(context.Background(), domain.QueryRequest{Query: "what is an arepa"})
	assertShape(t, resp, domain.RouteRAG)
	if len(resp.Citations) != 1 {
		t.Fatalf("expected 1 citation, got %d", len(resp.Citations))
	}
	c := resp.Citations[0]
	if c.URI != "https://en.wikipedia.org/wiki/Arepa" || c.Date != "2024-05-01" {
		t.Fatalf("unexpected citation: %+v", c)
	}
	if c.Score <= 0 {
		t.Fatalf("expected positive score, got %f", c.Score)
	}
	if resp.Answer == "" {
		t.Fatal("expected non-empty answer")
	}
}

func TestAskTimeoutRoute(t *testing.T) {
	uc := newAskUseCase(faqFake{}, blockingStore{}, AskConfig{Timeout: 50 * time.Millisecond})

	start := time.Now()
	resp := uc.Ask(context.Background(), domain.QueryRequest{Query: "what is an arepa"})
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("timeout route took too long: %v", elapsed)
	}
	assertShape(t, resp, domain.RouteTimeout)
	if len(resp.Citations) != 0 {
		t.Fatalf("timeout responses carry no citations, got %d", len(resp.Citations))
	}
}

func TestAskRetrievalErrorRoute(t *testing.T) {
	store := &storeFake{err: errors.New("connection refused")}
	uc := newAskUseCase(faqFake{}, store, AskConfig{})

	resp := uc.Ask(context.Background(), domain.QueryRequest{Query: "what is an arepa"})
	assertShape(t, resp, domain.RouteError)
	if resp.Answer != "retrieval_error" {
		t.Fatalf("expected opaque error code, got %q", resp.Answer)
	}
}

func TestAskDebugErrorsExposesDetail(t *testing.T) {
	store := &storeFake{err: errors.New("connection refused")}
	uc := newAskUseCase(faqFake{}, store, AskConfig{DebugErrors: true})

	resp := uc.Ask(context.Background(), domain.QueryRequest{Query: "what is an arepa"})
	if !strings.Contains(resp.Answer, "connection refused") {
		t.Fatalf("expected error detail with DebugErrors, got %q", resp.Answer)
	}
}

func TestAskNoCandidatesStillAnswers(t *testing.T) {
	store := &storeFake{results: map[string][]domain.Candidate{}}
	uc := newAskUseCase(faqFake{}, store, AskConfig{})

	resp := uc.Ask(context.Background(), domain.QueryRequest{Query: "what is an arepa"})
	assertShape(t, resp, domain.RouteRAG)
	if resp.Answer == "" {
		t.Fatal("expected terminal insufficient-information answer")
	}
}
