package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/hectorluisalamo/bilingual-rag/internal/core/domain"
	"github.com/hectorluisalamo/bilingual-rag/internal/core/ports"
	"github.com/hectorluisalamo/bilingual-rag/internal/textnorm"
)

const (
	defaultScoreFloor  = 0.35
	defaultEntityBoost = 0.08
	overfetchMin       = 8
)

// Retriever runs the relevance pipeline: similarity search with over-fetch,
// topic-widening fallback, entity boost, per-source dedup, score floor and
// optional cross-encoder rerank.
type Retriever struct {
	embedder ports.Embedder
	store    ports.ChunkStore
	reranker ports.Reranker

	scoreFloor  float64
	entityBoost float64
}

func NewRetriever(embedder ports.Embedder, store ports.ChunkStore, reranker ports.Reranker) *Retriever {
	return &Retriever{
		embedder:    embedder,
		store:       store,
		reranker:    reranker,
		scoreFloor:  defaultScoreFloor,
		entityBoost: defaultEntityBoost,
	}
}

// WithThresholds overrides the score floor and entity-boost bonus.
func (r *Retriever) WithThresholds(scoreFloor, entityBoost float64) *Retriever {
	if scoreFloor > 0 {
		r.scoreFloor = scoreFloor
	}
	if entityBoost > 0 {
		r.entityBoost = entityBoost
	}
	return r
}

func (r *Retriever) Retrieve(
	ctx context.Context,
	query string,
	k int,
	filter domain.SearchFilter,
	useReranker bool,
) ([]domain.Candidate, error) {
	if k <= 0 {
		k = 5
	}

	queryVector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	fetch := k
	if fetch < overfetchMin {
		fetch = overfetchMin
	}

	candidates, err := r.store.Search(ctx, queryVector, fetch, filter)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	// A stale or missing topic tag must not hide an otherwise matching
	// document: retry once without the topic filter.
	if len(candidates) == 0 && filter.Topic != "" {
		widened := filter
		widened.Topic = ""
		candidates, err = r.store.Search(ctx, queryVector, fetch, widened)
		if err != nil {
			return nil, fmt.Errorf("widened vector search: %w", err)
		}
		if len(candidates) > 0 {
			slog.Debug("retrieval_topic_widened", "topic", filter.Topic, "candidates", len(candidates))
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	candidates = boostByEntity(candidates, query, r.entityBoost)
	candidates = dedupBySourceURI(candidates)
	candidates = applyScoreFloor(candidates, r.scoreFloor)

	if useReranker && r.reranker != nil && r.reranker.Available(ctx) {
		candidates = r.rerank(ctx, query, candidates)
	}

	return trimCandidates(candidates, k), nil
}

// boostByEntity adds a bounded bonus to candidates whose source URI path or
// text contains the query's entity guess, then re-sorts by adjusted score.
// Embedding similarity alone tends to under-rank exact lexical matches.
func boostByEntity(candidates []domain.Candidate, query string, bonus float64) []domain.Candidate {
	entity := textnorm.Fold(textnorm.LongestAlphaToken(query))
	if entity == "" {
		return sortByAdjusted(candidates)
	}

	for i := range candidates {
		uri := textnorm.Fold(candidates[i].SourceURI)
		text := textnorm.Fold(candidates[i].Text)
		if strings.Contains(uri, entity) || strings.Contains(text, entity) {
			candidates[i].Adjusted = candidates[i].Score + bonus
		}
	}
	return sortByAdjusted(candidates)
}

func sortByAdjusted(candidates []domain.Candidate) []domain.Candidate {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Adjusted != candidates[j].Adjusted {
			return candidates[i].Adjusted > candidates[j].Adjusted
		}
		if candidates[i].DocID != candidates[j].DocID {
			return candidates[i].DocID < candidates[j].DocID
		}
		return candidates[i].ChunkIndex < candidates[j].ChunkIndex
	})
	return candidates
}

// dedupBySourceURI keeps only the highest-ranked candidate per source URI so
// one source cannot occupy multiple citation slots.
func dedupBySourceURI(candidates []domain.Candidate) []domain.Candidate {
	seen := make(map[string]struct{}, len(candidates))
	out := candidates[:0]
	for _, cand := range candidates {
		if _, ok := seen[cand.SourceURI]; ok {
			continue
		}
		seen[cand.SourceURI] = struct{}{}
		out = append(out, cand)
	}
	return out
}

func applyScoreFloor(candidates []domain.Candidate, floor float64) []domain.Candidate {
	out := candidates[:0]
	for _, cand := range candidates {
		if cand.Adjusted >= floor {
			out = append(out, cand)
		}
	}
	return out
}

// rerank re-scores (query, text) pairs with the cross-encoder; any failure
// keeps the existing order rather than failing the pipeline.
func (r *Retriever) rerank(ctx context.Context, query string, candidates []domain.Candidate) []domain.Candidate {
	if len(candidates) == 0 {
		return candidates
	}

	texts := make([]string, len(candidates))
	for i, cand := range candidates {
		texts[i] = cand.Text
	}

	scores, err := r.reranker.Score(ctx, query, texts)
	if err != nil || len(scores) != len(candidates) {
		slog.Warn("rerank_skipped", "error", err)
		return candidates
	}

	for i := range candidates {
		candidates[i].Adjusted = scores[i]
	}
	return sortByAdjusted(candidates)
}

func trimCandidates(candidates []domain.Candidate, limit int) []domain.Candidate {
	if limit <= 0 || len(candidates) <= limit {
		return candidates
	}
	return candidates[:limit]
}
