package ports

import (
	"context"

	"github.com/hectorluisalamo/bilingual-rag/internal/core/domain"
)

// QueryService is the inbound contract for question answering. Ask never
// returns an error: failures surface as error/timeout routes inside the
// response so the wire shape stays stable.
type QueryService interface {
	Ask(ctx context.Context, req domain.QueryRequest) domain.QueryResponse
}

// DocumentIngestor registers new source documents and schedules processing.
type DocumentIngestor interface {
	FromURL(ctx context.Context, req domain.IngestRequest) (*domain.Document, error)
	FromPDF(ctx context.Context, req domain.IngestRequest, storageKey string) (*domain.Document, error)
	FromRaw(ctx context.Context, req domain.IngestRequest, text string) (*domain.Document, error)
}

// DocumentProcessor is the inbound contract for asynchronous chunking and
// embedding of a registered document.
type DocumentProcessor interface {
	Process(ctx context.Context, job domain.IngestJob) error
}

// DocumentAdmin is the inbound read/lifecycle model for document state.
type DocumentAdmin interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	SoftDelete(ctx context.Context, id string) error
	PurgeByURI(ctx context.Context, sourceURI, indexName string) (int, error)
	Counts(ctx context.Context) (*domain.CorpusCounts, error)
}
