package openaiembed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hectorluisalamo/bilingual-rag/internal/infrastructure/embedding/offline"
	"github.com/hectorluisalamo/bilingual-rag/internal/infrastructure/resilience"
)

const placeholder = "[empty]"

// Embedder batches texts to a hosted embedding endpoint. A failed batch falls
// back to deterministic offline vectors for just that batch; failure never
// propagates to the whole call.
type Embedder struct {
	client    *openai.Client
	model     string
	batchSize int
	fallback  *offline.Provider
	executor  *resilience.Executor
}

func New(apiKey, baseURL, model string, batchSize int, fallback *offline.Provider, executor *resilience.Executor) *Embedder {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	var client *openai.Client
	if apiKey != "" {
		client = openai.NewClientWithConfig(cfg)
	}
	if batchSize <= 0 {
		batchSize = 64
	}
	if fallback == nil {
		fallback = offline.New(model, 0)
	}
	return &Embedder{
		client:    client,
		model:     model,
		batchSize: batchSize,
		fallback:  fallback,
		executor:  executor,
	}
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	// Empty inputs are coerced rather than rejected.
	coerced := make([]string, len(texts))
	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			t = placeholder
		}
		coerced[i] = t
	}

	if e.client == nil {
		return e.fallback.Embed(ctx, coerced)
	}

	out := make([][]float32, 0, len(coerced))
	for start := 0; start < len(coerced); start += e.batchSize {
		end := start + e.batchSize
		if end > len(coerced) {
			end = len(coerced)
		}
		batch := coerced[start:end]

		vectors, err := e.embedBatch(ctx, batch)
		if err != nil {
			slog.Warn("embedding_batch_fallback", "batch_start", start, "batch_len", len(batch), "error", err)
			vectors, _ = e.fallback.Embed(ctx, batch)
		}
		out = append(out, vectors...)
	}
	return out, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return vectors[0], nil
}

func (e *Embedder) embedBatch(ctx context.Context, batch []string) ([][]float32, error) {
	var resp openai.EmbeddingResponse
	call := func(callCtx context.Context) error {
		var err error
		resp, err = e.client.CreateEmbeddings(callCtx, openai.EmbeddingRequest{
			Input: batch,
			Model: openai.EmbeddingModel(e.model),
		})
		return err
	}

	var err error
	if e.executor != nil {
		err = e.executor.Execute(ctx, "openai.embed", call, classifyOpenAIError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return nil, err
	}

	if len(resp.Data) != len(batch) {
		return nil, fmt.Errorf("embedding count mismatch: got %d for %d inputs", len(resp.Data), len(batch))
	}
	vectors := make([][]float32, len(batch))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(batch) {
			return nil, fmt.Errorf("embedding index out of range: %d", d.Index)
		}
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}
