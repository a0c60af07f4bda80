package ports

import (
	"context"
	"io"

	"github.com/hectorluisalamo/bilingual-rag/internal/core/domain"
)

// DocumentRepository persists and reads document state.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	NextVersion(ctx context.Context, sourceURI, indexName string) (int, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	Approve(ctx context.Context, id string) error
	SoftDelete(ctx context.Context, id string) error
	PurgeByURI(ctx context.Context, sourceURI, indexName string) (int, error)
	Counts(ctx context.Context) (*domain.CorpusCounts, error)
}

// ChunkStore persists chunk batches and serves approximate-nearest-neighbor
// similarity queries over them.
type ChunkStore interface {
	InsertChunks(ctx context.Context, chunks []domain.Chunk) error
	Search(ctx context.Context, queryVector []float32, k int, filter domain.SearchFilter) ([]domain.Candidate, error)
}

// Embedder builds vectors for chunks and query text. Output is
// order-preserving and the same length as the input.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Segmenter splits cleaned text into token-bounded overlapping segments.
type Segmenter interface {
	Segment(text string) []domain.Segment
}

// FAQRouter answers curated questions without retrieval. A false second
// return means the query must go through the full pipeline.
type FAQRouter interface {
	Route(query string, langPref []string) (domain.FAQEntry, bool)
}

// QuoteSynthesizer drives the two LLM stages of answer generation. Both
// methods may fail; callers degrade to rule-based answers.
type QuoteSynthesizer interface {
	ExtractQuotes(ctx context.Context, question, contextBlock string) ([]domain.Quote, error)
	WriteAnswer(ctx context.Context, question string, quotes []domain.Quote) (string, error)
}

// Reranker re-scores (query, passage) pairs with a cross-encoder. Unavailable
// rerankers are skipped, never surfaced as pipeline errors.
type Reranker interface {
	Available(ctx context.Context) bool
	Score(ctx context.Context, query string, texts []string) ([]float64, error)
}

// Fetcher retrieves the raw body of a source URL.
type Fetcher interface {
	Fetch(ctx context.Context, url, acceptLang string) (string, error)
}

// TextExtractor turns a stored document into plain text.
type TextExtractor interface {
	Extract(ctx context.Context, doc *domain.Document) (string, error)
}

// ObjectStorage stores raw source payloads (PDF uploads, raw submissions).
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes ingestion jobs.
type MessageQueue interface {
	PublishIngestJob(ctx context.Context, job domain.IngestJob) error
	SubscribeIngestJobs(ctx context.Context, handler func(context.Context, domain.IngestJob) error) error
}
