package domain

// IngestRequest carries the caller-supplied ingestion parameters shared by
// the url/pdf/raw entry points. Chunking parameters of zero fall back to the
// configured defaults.
type IngestRequest struct {
	SourceURI string `json:"url"`
	Lang      string `json:"lang,omitempty"`
	Topic     string `json:"topic,omitempty"`
	Country   string `json:"country,omitempty"`
	Section   string `json:"section,omitempty"`
	IndexName string `json:"index_name,omitempty"`
	MaxTokens int    `json:"max_tokens,omitempty"`
	Overlap   int    `json:"overlap,omitempty"`
}
