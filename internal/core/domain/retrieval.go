package domain

import "time"

// SearchFilter restricts a vector search to canonical documents matching the
// requested languages, namespace and optional topic/country classifiers.
type SearchFilter struct {
	Langs     []string
	IndexName string
	Topic     string
	Country   string
}

// Candidate is a single retrieval hit. It lives only for the duration of one
// query. Score is the cosine-derived similarity reported by the store;
// Adjusted carries ranking corrections (entity boost, rerank) applied later.
type Candidate struct {
	Text        string
	Section     string
	DocID       string
	ChunkIndex  int
	SourceURI   string
	Lang        string
	PublishedAt *time.Time
	Score       float64
	Adjusted    float64
}

// Quote is one extracted verbatim passage tagged with its 1-based source
// number in the context block.
type Quote struct {
	Source int    `json:"i"`
	Text   string `json:"text"`
}
