package domain

type Route string

const (
	RouteFAQ     Route = "faq"
	RouteRAG     Route = "rag"
	RouteError   Route = "error"
	RouteTimeout Route = "timeout"
)

// QueryRequest is the core-facing shape of one question.
type QueryRequest struct {
	Query       string   `json:"query"`
	K           int      `json:"k,omitempty"`
	LangPref    []string `json:"lang_pref,omitempty"`
	UseReranker bool     `json:"use_reranker,omitempty"`
	TopicHint   string   `json:"topic_hint,omitempty"`
	CountryHint string   `json:"country_hint,omitempty"`
	IndexName   string   `json:"index_name,omitempty"`
}

// Citation maps one answer source back to its origin.
type Citation struct {
	URI     string  `json:"uri"`
	Snippet string  `json:"snippet"`
	Date    string  `json:"date"`
	Score   float64 `json:"score"`
}

// QueryResponse always carries exactly these four fields, whichever internal
// path produced it. Callers depend on the shape being stable.
type QueryResponse struct {
	Route     Route      `json:"route"`
	Answer    string     `json:"answer"`
	Citations []Citation `json:"citations"`
	RequestID string     `json:"request_id"`
}

// FAQEntry is one curated question/answer pair, immutable for the process
// lifetime once loaded.
type FAQEntry struct {
	Question  string `json:"q"`
	Answer    string `json:"a"`
	Lang      string `json:"lang,omitempty"`
	SourceURI string `json:"uri,omitempty"`
}
