package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/hectorluisalamo/bilingual-rag/internal/core/domain"
	"github.com/hectorluisalamo/bilingual-rag/internal/core/ports"
)

// SegmenterFactory builds a segmenter for the job's chunking parameters, so
// multiple chunking configurations can coexist across namespaces.
type SegmenterFactory func(maxTokens, overlap int) ports.Segmenter

// ProcessUseCase is the worker-side pipeline: extract text, segment, embed
// and persist chunks, then approve the document for retrieval.
type ProcessUseCase struct {
	repo         ports.DocumentRepository
	extractors   map[domain.SourceType]ports.TextExtractor
	newSegmenter SegmenterFactory
	embedder     ports.Embedder
	chunkStore   ports.ChunkStore

	defaultMaxTokens int
	defaultOverlap   int
	autoApprove      bool

	onChunksInserted func(n int)
}

func NewProcessUseCase(
	repo ports.DocumentRepository,
	extractors map[domain.SourceType]ports.TextExtractor,
	newSegmenter SegmenterFactory,
	embedder ports.Embedder,
	chunkStore ports.ChunkStore,
	defaultMaxTokens, defaultOverlap int,
	autoApprove bool,
) *ProcessUseCase {
	if defaultMaxTokens <= 0 {
		defaultMaxTokens = 600
	}
	if defaultOverlap < 0 {
		defaultOverlap = 60
	}
	return &ProcessUseCase{
		repo:             repo,
		extractors:       extractors,
		newSegmenter:     newSegmenter,
		embedder:         embedder,
		chunkStore:       chunkStore,
		defaultMaxTokens: defaultMaxTokens,
		defaultOverlap:   defaultOverlap,
		autoApprove:      autoApprove,
	}
}

// WithChunkObserver registers a callback invoked with the number of chunks
// stored for each successfully processed document.
func (uc *ProcessUseCase) WithChunkObserver(fn func(n int)) *ProcessUseCase {
	uc.onChunksInserted = fn
	return uc
}

func (uc *ProcessUseCase) Process(ctx context.Context, job domain.IngestJob) error {
	if err := uc.repo.UpdateStatus(ctx, job.DocumentID, domain.StatusProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	if err := uc.pipeline(ctx, job); err != nil {
		if failErr := uc.repo.UpdateStatus(ctx, job.DocumentID, domain.StatusFailed, err.Error()); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if uc.autoApprove {
		if err := uc.repo.Approve(ctx, job.DocumentID); err != nil {
			return fmt.Errorf("approve document: %w", err)
		}
	}
	if err := uc.repo.UpdateStatus(ctx, job.DocumentID, domain.StatusReady, ""); err != nil {
		return fmt.Errorf("set status=ready: %w", err)
	}
	return nil
}

func (uc *ProcessUseCase) pipeline(ctx context.Context, job domain.IngestJob) error {
	doc, err := uc.repo.GetByID(ctx, job.DocumentID)
	if err != nil {
		return fmt.Errorf("fetch document by id: %w", err)
	}

	extractor, ok := uc.extractors[doc.SourceType]
	if !ok {
		return domain.WrapError(domain.ErrInvalidInput, "extract text",
			fmt.Errorf("no extractor for source type %q", doc.SourceType))
	}
	text, err := extractor.Extract(ctx, doc)
	if err != nil {
		return fmt.Errorf("extract text: %w", err)
	}
	if text == "" {
		return domain.WrapError(domain.ErrInvalidInput, "extract text", errors.New("empty extracted text"))
	}

	maxTokens := job.MaxTokens
	if maxTokens <= 0 {
		maxTokens = uc.defaultMaxTokens
	}
	overlap := job.Overlap
	if overlap <= 0 {
		overlap = uc.defaultOverlap
	}

	segments := uc.newSegmenter(maxTokens, overlap).Segment(text)
	if len(segments) == 0 {
		return domain.WrapError(domain.ErrInvalidInput, "segment document", errors.New("segmentation produced zero chunks"))
	}

	texts := make([]string, len(segments))
	for i, seg := range segments {
		texts[i] = seg.Text
	}
	vectors, err := uc.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(segments) {
		return domain.WrapError(domain.ErrInvalidInput, "embed chunks",
			fmt.Errorf("vectors/chunks mismatch: %d/%d", len(vectors), len(segments)))
	}

	chunks := make([]domain.Chunk, len(segments))
	for i, seg := range segments {
		chunks[i] = domain.Chunk{
			ID:        uuid.NewString(),
			DocID:     doc.ID,
			Index:     i,
			Text:      seg.Text,
			Tokens:    seg.Tokens,
			Embedding: vectors[i],
			Section:   job.Section,
			IndexName: doc.IndexName,
		}
	}
	if err := uc.chunkStore.InsertChunks(ctx, chunks); err != nil {
		return fmt.Errorf("insert chunks: %w", err)
	}
	if uc.onChunksInserted != nil {
		uc.onChunksInserted(len(chunks))
	}
	return nil
}
