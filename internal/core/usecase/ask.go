package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hectorluisalamo/bilingual-rag/internal/core/domain"
	"github.com/hectorluisalamo/bilingual-rag/internal/core/ports"
)

const (
	minQueryLen = 2
	maxQueryLen = 512
	maxK        = 8
	defaultK    = 5
)

type AskConfig struct {
	Timeout          time.Duration
	DefaultLangs     []string
	DefaultIndexName string
	// DebugErrors appends internal error text to error responses. For
	// trusted operators only.
	DebugErrors bool
}

// AskUseCase wires FAQ routing, retrieval and synthesis under one global
// timeout. Ask always returns a well-formed response: failures degrade into
// the error/timeout routes, never into a crash or a missing field.
type AskUseCase struct {
	faq       ports.FAQRouter
	retriever *Retriever
	synth     *Synthesizer
	cfg       AskConfig
}

func NewAskUseCase(faq ports.FAQRouter, retriever *Retriever, synth *Synthesizer, cfg AskConfig) *AskUseCase {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 12 * time.Second
	}
	if len(cfg.DefaultLangs) == 0 {
		cfg.DefaultLangs = []string{"en", "es"}
	}
	if cfg.DefaultIndexName == "" {
		cfg.DefaultIndexName = "default"
	}
	return &AskUseCase{
		faq:       faq,
		retriever: retriever,
		synth:     synth,
		cfg:       cfg,
	}
}

// Validate normalizes defaults in place and rejects malformed requests
// before any retrieval work begins.
func (uc *AskUseCase) Validate(req *domain.QueryRequest) error {
	req.Query = strings.TrimSpace(req.Query)
	n := len([]rune(req.Query))
	if n < minQueryLen || n > maxQueryLen {
		return domain.WrapError(domain.ErrInvalidInput, "validate query",
			fmt.Errorf("query length %d outside [%d,%d]", n, minQueryLen, maxQueryLen))
	}
	if req.K < 0 || req.K > maxK {
		return domain.WrapError(domain.ErrInvalidInput, "validate query",
			fmt.Errorf("k=%d outside [1,%d]", req.K, maxK))
	}
	if req.K == 0 {
		req.K = defaultK
	}
	if req.TopicHint != "" && !domain.ValidTopic(req.TopicHint) {
		return domain.WrapError(domain.ErrInvalidInput, "validate query",
			fmt.Errorf("unknown topic_hint %q", req.TopicHint))
	}
	if len(req.LangPref) == 0 {
		req.LangPref = uc.cfg.DefaultLangs
	}
	if req.IndexName == "" {
		req.IndexName = uc.cfg.DefaultIndexName
	}
	return nil
}

func (uc *AskUseCase) Ask(ctx context.Context, req domain.QueryRequest) domain.QueryResponse {
	requestID := uuid.NewString()

	if err := uc.Validate(&req); err != nil {
		return uc.errorResponse(requestID, "invalid_request", err)
	}

	ctx, cancel := context.WithTimeout(ctx, uc.cfg.Timeout)
	defer cancel()

	type outcome struct {
		resp domain.QueryResponse
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("query_panic", "request_id", requestID, "panic", r)
				done <- outcome{uc.errorResponse(requestID, "internal_error", fmt.Errorf("panic: %v", r))}
			}
		}()
		done <- outcome{uc.run(ctx, requestID, req)}
	}()

	select {
	case out := <-done:
		return out.resp
	case <-ctx.Done():
		// In-flight sub-calls are abandoned, not awaited.
		return domain.QueryResponse{
			Route:     domain.RouteTimeout,
			Answer:    "",
			Citations: []domain.Citation{},
			RequestID: requestID,
		}
	}
}

func (uc *AskUseCase) run(ctx context.Context, requestID string, req domain.QueryRequest) domain.QueryResponse {
	if entry, ok := uc.faq.Route(req.Query, req.LangPref); ok {
		return domain.QueryResponse{
			Route:     domain.RouteFAQ,
			Answer:    entry.Answer,
			Citations: []domain.Citation{},
			RequestID: requestID,
		}
	}

	filter := domain.SearchFilter{
		Langs:     req.LangPref,
		IndexName: req.IndexName,
		Topic:     req.TopicHint,
		Country:   req.CountryHint,
	}
	candidates, err := uc.retriever.Retrieve(ctx, req.Query, req.K, filter, req.UseReranker)
	if err != nil {
		if ctx.Err() != nil {
			// The global deadline fired mid-stage.
			return domain.QueryResponse{
				Route:     domain.RouteTimeout,
				Answer:    "",
				Citations: []domain.Citation{},
				RequestID: requestID,
			}
		}
		return uc.errorResponse(requestID, "retrieval_error", err)
	}

	answer := uc.synth.Answer(ctx, req.Query, candidates)

	citations := make([]domain.Citation, 0, len(candidates))
	for _, cand := range candidates {
		date := ""
		if cand.PublishedAt != nil {
			date = cand.PublishedAt.Format("2006-01-02")
		}
		snippet := truncateRunes(cand.Text, 180)
		citations = append(citations, domain.Citation{
			URI:     cand.SourceURI,
			Snippet: snippet,
			Date:    date,
			Score:   cand.Adjusted,
		})
	}

	return domain.QueryResponse{
		Route:     domain.RouteRAG,
		Answer:    answer,
		Citations: citations,
		RequestID: requestID,
	}
}

func (uc *AskUseCase) errorResponse(requestID, code string, err error) domain.QueryResponse {
	answer := code
	if uc.cfg.DebugErrors && err != nil {
		answer = code + ": " + err.Error()
	}
	if err != nil {
		slog.Error("query_failed", "request_id", requestID, "code", code, "error", err)
	}
	return domain.QueryResponse{
		Route:     domain.RouteError,
		Answer:    answer,
		Citations: []domain.Citation{},
		RequestID: requestID,
	}
}
