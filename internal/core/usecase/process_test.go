package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hectorluisalamo/bilingual-rag/internal/core/domain"
	"github.com/hectorluisalamo/bilingual-rag/internal/core/ports"
)

type repoFake struct {
	docs     map[string]*domain.Document
	statuses []domain.DocumentStatus
	approved []string
	failMsg  string
}

func newRepoFake(docs ...*domain.Document) *repoFake {
	f := &repoFake{docs: make(map[string]*domain.Document)}
	for _, d := range docs {
		f.docs[d.ID] = d
	}
	return f
}

func (f *repoFake) Create(_ context.Context, doc *domain.Document) error {
	f.docs[doc.ID] = doc
	return nil
}

func (f *repoFake) GetByID(_ context.Context, id string) (*domain.Document, error) {
	doc, ok := f.docs[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "get document", errors.New(id))
	}
	return doc, nil
}

func (f *repoFake) NextVersion(context.Context, string, string) (int, error) { return 1, nil }

func (f *repoFake) UpdateStatus(_ context.Context, _ string, status domain.DocumentStatus, errMessage string) error {
	f.statuses = append(f.statuses, status)
	if errMessage != "" {
		f.failMsg = errMessage
	}
	return nil
}

func (f *repoFake) Approve(_ context.Context, id string) error {
	f.approved = append(f.approved, id)
	return nil
}

func (f *repoFake) SoftDelete(context.Context, string) error { return nil }

func (f *repoFake) PurgeByURI(context.Context, string, string) (int, error) { return 0, nil }

func (f *repoFake) Counts(context.Context) (*domain.CorpusCounts, error) {
	return &domain.CorpusCounts{Docs: []domain.DocCount{}, Chunks: []domain.ChunkCount{}}, nil
}

type extractorFake struct {
	text string
	err  error
}

func (f extractorFake) Extract(context.Context, *domain.Document) (string, error) {
	return f.text, f.err
}

type insertRecorder struct {
	chunks []domain.Chunk
	err    error
}

func (f *insertRecorder) InsertChunks(_ context.Context, chunks []domain.Chunk) error {
	f.chunks = append(f.chunks, chunks...)
	return f.err
}

func (f *insertRecorder) Search(context.Context, []float32, int, domain.SearchFilter) ([]domain.Candidate, error) {
	return nil, nil
}

type fixedSegmenter struct{ segments []domain.Segment }

func (f fixedSegmenter) Segment(string) []domain.Segment { return f.segments }

func processFixture(extractor ports.TextExtractor, store *insertRecorder, autoApprove bool) (*ProcessUseCase, *repoFake) {
	doc := &domain.Document{
		ID:         "doc-1",
		SourceURI:  "https://es.wikipedia.org/wiki/Arepa",
		SourceType: domain.SourceURL,
		IndexName:  "default",
		Status:     domain.StatusPending,
	}
	repo := newRepoFake(doc)
	uc := NewProcessUseCase(
		repo,
		map[domain.SourceType]ports.TextExtractor{domain.SourceURL: extractor},
		func(int, int) ports.Segmenter {
			return fixedSegmenter{segments: []domain.Segment{
				{Text: "La arepa es un alimento de maíz.", Tokens: 7},
				{Text: "Se cocina asada o frita.", Tokens: 5},
			}}
		},
		embedderFake{},
		store,
		600, 60,
		autoApprove,
	)
	return uc, repo
}

func TestProcessHappyPath(t *testing.T) {
	store := &insertRecorder{}
	uc, repo := processFixture(extractorFake{text: "La arepa es un alimento de maíz. Se cocina asada o frita."}, store, true)

	if err := uc.Process(context.Background(), domain.IngestJob{DocumentID: "doc-1", Section: "intro"}); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if len(store.chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(store.chunks))
	}
	for i, c := range store.chunks {
		if c.Index != i {
			t.Fatalf("expected contiguous chunk indexes, got %d at position %d", c.Index, i)
		}
		if c.DocID != "doc-1" || c.IndexName != "default" || c.Section != "intro" {
			t.Fatalf("unexpected chunk metadata: %+v", c)
		}
		if len(c.Embedding) == 0 {
			t.Fatalf("chunk %d has no embedding", i)
		}
	}

	if len(repo.approved) != 1 {
		t.Fatalf("expected document approved, got %v", repo.approved)
	}
	last := repo.statuses[len(repo.statuses)-1]
	if last != domain.StatusReady {
		t.Fatalf("expected final status ready, got %q", last)
	}
}

func TestProcessMarksFailedOnExtractError(t *testing.T) {
	store := &insertRecorder{}
	uc, repo := processFixture(extractorFake{err: errors.New("fetch failed")}, store, true)

	err := uc.Process(context.Background(), domain.IngestJob{DocumentID: "doc-1"})
	if err == nil {
		t.Fatal("expected error")
	}

	last := repo.statuses[len(repo.statuses)-1]
	if last != domain.StatusFailed {
		t.Fatalf("expected failed status, got %q", last)
	}
	if !strings.Contains(repo.failMsg, "fetch failed") {
		t.Fatalf("expected failure message recorded, got %q", repo.failMsg)
	}
	if len(store.chunks) != 0 {
		t.Fatalf("expected no chunks inserted, got %d", len(store.chunks))
	}
}

func TestProcessRejectsEmptyText(t *testing.T) {
	uc, repo := processFixture(extractorFake{text: ""}, &insertRecorder{}, true)

	err := uc.Process(context.Background(), domain.IngestJob{DocumentID: "doc-1"})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid-input error, got %v", err)
	}
	if repo.statuses[len(repo.statuses)-1] != domain.StatusFailed {
		t.Fatal("expected document marked failed")
	}
}

func TestProcessReportsInsertedChunkCount(t *testing.T) {
	store := &insertRecorder{}
	uc, _ := processFixture(extractorFake{text: "La arepa es un alimento de maíz. Se cocina asada o frita."}, store, true)

	var reported []int
	uc.WithChunkObserver(func(n int) { reported = append(reported, n) })

	if err := uc.Process(context.Background(), domain.IngestJob{DocumentID: "doc-1"}); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(reported) != 1 || reported[0] != 2 {
		t.Fatalf("expected one report of 2 chunks, got %v", reported)
	}
}

func TestProcessDoesNotReportChunksOnFailure(t *testing.T) {
	store := &insertRecorder{err: errors.New("insert failed")}
	uc, _ := processFixture(extractorFake{text: "some text"}, store, true)

	var reported []int
	uc.WithChunkObserver(func(n int) { reported = append(reported, n) })

	if err := uc.Process(context.Background(), domain.IngestJob{DocumentID: "doc-1"}); err == nil {
		t.Fatal("expected insert error")
	}
	if len(reported) != 0 {
		t.Fatalf("expected no chunk reports, got %v", reported)
	}
}

func TestProcessWithoutAutoApproveLeavesUnapproved(t *testing.T) {
	store := &insertRecorder{}
	uc, repo := processFixture(extractorFake{text: "some text"}, store, false)

	if err := uc.Process(context.Background(), domain.IngestJob{DocumentID: "doc-1"}); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(repo.approved) != 0 {
		t.Fatalf("expected no approval, got %v", repo.approved)
	}
}

func TestProcessUnknownDocument(t *testing.T) {
	store := &insertRecorder{}
	uc, _ := processFixture(extractorFake{text: "text"}, store, true)

	if err := uc.Process(context.Background(), domain.IngestJob{DocumentID: "missing"}); err == nil {
		t.Fatal("expected error for unknown document")
	}
}
