package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/hectorluisalamo/bilingual-rag/internal/core/domain"
	"github.com/hectorluisalamo/bilingual-rag/internal/core/ports"
)

// AdminUseCase exposes document lifecycle operations: status reads,
// soft-delete (hides every version from retrieval) and purge (hard-removes
// all versions of a source, chunks included).
type AdminUseCase struct {
	repo         ports.DocumentRepository
	defaultIndex string
}

func NewAdminUseCase(repo ports.DocumentRepository, defaultIndex string) *AdminUseCase {
	if defaultIndex == "" {
		defaultIndex = "default"
	}
	return &AdminUseCase{repo: repo, defaultIndex: defaultIndex}
}

func (uc *AdminUseCase) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "get document", fmt.Errorf("document id is required"))
	}
	return uc.repo.GetByID(ctx, id)
}

func (uc *AdminUseCase) SoftDelete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "delete document", fmt.Errorf("document id is required"))
	}
	return uc.repo.SoftDelete(ctx, id)
}

func (uc *AdminUseCase) Counts(ctx context.Context) (*domain.CorpusCounts, error) {
	return uc.repo.Counts(ctx)
}

func (uc *AdminUseCase) PurgeByURI(ctx context.Context, sourceURI, indexName string) (int, error) {
	if strings.TrimSpace(sourceURI) == "" {
		return 0, domain.WrapError(domain.ErrInvalidInput, "purge documents", fmt.Errorf("source uri is required"))
	}
	if indexName == "" {
		indexName = uc.defaultIndex
	}
	return uc.repo.PurgeByURI(ctx, sourceURI, indexName)
}
