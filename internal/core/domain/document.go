package domain

import "time"

type SourceType string

const (
	SourceURL SourceType = "url"
	SourcePDF SourceType = "pdf"
	SourceRaw SourceType = "raw"
)

type DocumentStatus string

const (
	StatusPending    DocumentStatus = "pending"
	StatusProcessing DocumentStatus = "processing"
	StatusReady      DocumentStatus = "ready"
	StatusFailed     DocumentStatus = "failed"
)

// Topics is the closed set accepted as a topic classifier or query hint.
var Topics = map[string]struct{}{
	"food":      {},
	"culture":   {},
	"health":    {},
	"civics":    {},
	"education": {},
}

func ValidTopic(topic string) bool {
	_, ok := Topics[topic]
	return ok
}

// Document is one ingested source unit. For a given source URI within an
// index namespace, the approved document with the highest version is the
// canonical one used for retrieval; soft-deleted documents are excluded.
type Document struct {
	ID          string         `json:"id"`
	SourceURI   string         `json:"source_uri"`
	SourceType  SourceType     `json:"source_type"`
	Lang        string         `json:"lang"`
	Country     string         `json:"country,omitempty"`
	Topic       string         `json:"topic,omitempty"`
	Version     int            `json:"version"`
	Approved    bool           `json:"approved"`
	Deleted     bool           `json:"deleted"`
	PublishedAt *time.Time     `json:"published_at,omitempty"`
	IndexName   string         `json:"index_name"`
	StoragePath string         `json:"storage_path,omitempty"`
	Status      DocumentStatus `json:"status"`
	Error       string         `json:"error,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Chunk is a contiguous span of a document's text after sentence segmentation
// and token-bounded packing. Immutable after insertion.
type Chunk struct {
	ID        string    `json:"id"`
	DocID     string    `json:"doc_id"`
	Index     int       `json:"chunk_index"`
	Text      string    `json:"text"`
	Tokens    int       `json:"tokens"`
	Embedding []float32 `json:"-"`
	Section   string    `json:"section,omitempty"`
	IndexName string    `json:"index_name"`
}

// DocCount is the number of approved, non-deleted documents in one
// (index, topic) bucket.
type DocCount struct {
	IndexName string `json:"index_name"`
	Topic     string `json:"topic,omitempty"`
	Docs      int    `json:"n_docs"`
}

// ChunkCount is the number of stored chunks in one index namespace.
type ChunkCount struct {
	IndexName string `json:"index_name"`
	Chunks    int    `json:"n_chunks"`
}

// CorpusCounts is the operator-facing corpus size summary.
type CorpusCounts struct {
	Docs   []DocCount   `json:"docs"`
	Chunks []ChunkCount `json:"chunks"`
}

// Segment is the segmenter's output unit before persistence.
type Segment struct {
	Text   string
	Tokens int
}

// IngestJob is the queue payload from the API to the processing worker.
type IngestJob struct {
	DocumentID string `json:"document_id"`
	MaxTokens  int    `json:"max_tokens,omitempty"`
	Overlap    int    `json:"overlap,omitempty"`
	Section    string `json:"section,omitempty"`
}
