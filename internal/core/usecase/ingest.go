package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hectorluisalamo/bilingual-rag/internal/core/domain"
	"github.com/hectorluisalamo/bilingual-rag/internal/core/ports"
)

// IngestUseCase registers documents and schedules asynchronous processing.
// Re-ingesting a source URI within the same namespace bumps the version; the
// worker approving the new version makes it canonical.
type IngestUseCase struct {
	repo         ports.DocumentRepository
	storage      ports.ObjectStorage
	queue        ports.MessageQueue
	defaultIndex string
}

func NewIngestUseCase(repo ports.DocumentRepository, storage ports.ObjectStorage, queue ports.MessageQueue, defaultIndex string) *IngestUseCase {
	if defaultIndex == "" {
		defaultIndex = "default"
	}
	return &IngestUseCase{
		repo:         repo,
		storage:      storage,
		queue:        queue,
		defaultIndex: defaultIndex,
	}
}

func (uc *IngestUseCase) FromURL(ctx context.Context, req domain.IngestRequest) (*domain.Document, error) {
	if strings.TrimSpace(req.SourceURI) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "ingest url", fmt.Errorf("url is required"))
	}
	return uc.register(ctx, req, domain.SourceURL, req.SourceURI, "")
}

func (uc *IngestUseCase) FromPDF(ctx context.Context, req domain.IngestRequest, storageKey string) (*domain.Document, error) {
	if storageKey == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "ingest pdf", fmt.Errorf("stored file is required"))
	}
	sourceURI := req.SourceURI
	if sourceURI == "" {
		sourceURI = "pdf:" + storageKey
	}
	return uc.register(ctx, req, domain.SourcePDF, sourceURI, storageKey)
}

func (uc *IngestUseCase) FromRaw(ctx context.Context, req domain.IngestRequest, text string) (*domain.Document, error) {
	if strings.TrimSpace(text) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "ingest raw", fmt.Errorf("text is required"))
	}

	key := "raw/" + uuid.NewString() + ".txt"
	if err := uc.storage.Save(ctx, key, strings.NewReader(text)); err != nil {
		return nil, fmt.Errorf("store raw text: %w", err)
	}
	sourceURI := req.SourceURI
	if sourceURI == "" {
		sourceURI = "raw:" + key
	}
	return uc.register(ctx, req, domain.SourceRaw, sourceURI, key)
}

func (uc *IngestUseCase) register(
	ctx context.Context,
	req domain.IngestRequest,
	sourceType domain.SourceType,
	sourceURI string,
	storageKey string,
) (*domain.Document, error) {
	if req.Topic != "" && !domain.ValidTopic(req.Topic) {
		return nil, domain.WrapError(domain.ErrInvalidInput, "ingest", fmt.Errorf("unknown topic %q", req.Topic))
	}

	indexName := req.IndexName
	if indexName == "" {
		indexName = uc.defaultIndex
	}

	version, err := uc.repo.NextVersion(ctx, sourceURI, indexName)
	if err != nil {
		return nil, fmt.Errorf("next document version: %w", err)
	}

	now := time.Now().UTC()
	doc := &domain.Document{
		ID:          uuid.NewString(),
		SourceURI:   sourceURI,
		SourceType:  sourceType,
		Lang:        normalizeLangTag(req.Lang),
		Country:     req.Country,
		Topic:       req.Topic,
		Version:     version,
		IndexName:   indexName,
		StoragePath: storageKey,
		Status:      domain.StatusPending,
		PublishedAt: &now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.repo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}

	job := domain.IngestJob{
		DocumentID: doc.ID,
		MaxTokens:  req.MaxTokens,
		Overlap:    req.Overlap,
		Section:    req.Section,
	}
	if err := uc.queue.PublishIngestJob(ctx, job); err != nil {
		return nil, fmt.Errorf("publish ingest job: %w", err)
	}
	return doc, nil
}

func normalizeLangTag(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	switch {
	case strings.HasPrefix(lang, "es"):
		return "es"
	case strings.HasPrefix(lang, "en"):
		return "en"
	default:
		return "es"
	}
}
