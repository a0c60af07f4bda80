package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hectorluisalamo/bilingual-rag/internal/core/domain"
	"github.com/hectorluisalamo/bilingual-rag/internal/core/ports"
	"github.com/hectorluisalamo/bilingual-rag/internal/core/usecase"
	"github.com/hectorluisalamo/bilingual-rag/internal/observability/metrics"
)

const maxPDFUploadBytes = 32 << 20

type Router struct {
	service  string
	askUC    *usecase.AskUseCase
	ingestor ports.DocumentIngestor
	admin    ports.DocumentAdmin
	storage  ports.ObjectStorage
	metrics  *metrics.HTTPServerMetrics
}

func NewRouter(
	service string,
	askUC *usecase.AskUseCase,
	ingestor ports.DocumentIngestor,
	admin ports.DocumentAdmin,
	storage ports.ObjectStorage,
	m *metrics.HTTPServerMetrics,
) *Router {
	return &Router{
		service:  service,
		askUC:    askUC,
		ingestor: ingestor,
		admin:    admin,
		storage:  storage,
		metrics:  m,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.Handle("/metrics", rt.metrics.Handler())
	mux.HandleFunc("/v1/query", rt.query)
	mux.HandleFunc("/v1/ingest/url", rt.ingestURL)
	mux.HandleFunc("/v1/ingest/pdf", rt.ingestPDF)
	mux.HandleFunc("/v1/ingest/raw", rt.ingestRaw)
	mux.HandleFunc("/v1/documents/purge", rt.purgeDocuments)
	mux.HandleFunc("/v1/documents/", rt.documentByID)
	mux.HandleFunc("/debug/counts", rt.debugCounts)

	var handler http.Handler = mux
	handler = rt.metrics.Middleware(rt.service, handler)
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) query(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req domain.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, domain.QueryResponse{
			Route:     domain.RouteError,
			Answer:    "invalid_request",
			Citations: []domain.Citation{},
			RequestID: uuid.NewString(),
		})
		return
	}

	// Malformed requests get a 400 but keep the stable response shape.
	if err := rt.askUC.Validate(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, domain.QueryResponse{
			Route:     domain.RouteError,
			Answer:    "invalid_request",
			Citations: []domain.Citation{},
			RequestID: uuid.NewString(),
		})
		return
	}

	start := time.Now()
	resp := rt.askUC.Ask(r.Context(), req)

	rt.metrics.RecordQuery(rt.service, string(resp.Route), len(resp.Citations), time.Since(start))
	if resp.Route == domain.RouteFAQ {
		rt.metrics.RecordFAQShortcircuit(rt.service)
	}

	writeJSON(w, http.StatusOK, resp)
}

func (rt *Router) ingestURL(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req domain.IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	doc, err := rt.ingestor.FromURL(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	rt.metrics.RecordIngestAccepted(rt.service, string(doc.SourceType))
	writeJSON(w, http.StatusAccepted, doc)
}

func (rt *Router) ingestPDF(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxPDFUploadBytes)
	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	key := "pdf/" + uuid.NewString() + ".pdf"
	if err := rt.storage.Save(r.Context(), key, file); err != nil {
		writeError(w, err)
		return
	}

	req := domain.IngestRequest{
		SourceURI: strings.TrimSpace(r.FormValue("url")),
		Lang:      r.FormValue("lang"),
		Topic:     r.FormValue("topic"),
		Country:   r.FormValue("country"),
		Section:   r.FormValue("section"),
		IndexName: r.FormValue("index_name"),
	}
	if req.SourceURI == "" {
		req.SourceURI = "upload:" + fileHeader.Filename
	}

	doc, err := rt.ingestor.FromPDF(r.Context(), req, key)
	if err != nil {
		writeError(w, err)
		return
	}

	rt.metrics.RecordIngestAccepted(rt.service, string(doc.SourceType))
	writeJSON(w, http.StatusAccepted, doc)
}

func (rt *Router) ingestRaw(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		domain.IngestRequest
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	doc, err := rt.ingestor.FromRaw(r.Context(), req.IngestRequest, req.Text)
	if err != nil {
		writeError(w, err)
		return
	}

	rt.metrics.RecordIngestAccepted(rt.service, string(doc.SourceType))
	writeJSON(w, http.StatusAccepted, doc)
}

func (rt *Router) purgeDocuments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		URL       string `json:"url"`
		IndexName string `json:"index_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	purged, err := rt.admin.PurgeByURI(r.Context(), req.URL, req.IndexName)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"purged": purged})
}

func (rt *Router) debugCounts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	counts, err := rt.admin.Counts(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

func (rt *Router) documentByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/documents/")
	if id == "" || strings.Contains(id, "/") {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}

	switch r.Method {
	case http.MethodGet:
		doc, err := rt.admin.GetByID(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, doc)
	case http.MethodDelete:
		if err := rt.admin.SoftDelete(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}
