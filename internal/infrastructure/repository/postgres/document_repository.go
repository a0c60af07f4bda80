package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hectorluisalamo/bilingual-rag/internal/core/domain"
)

type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO documents (
	id, source_uri, source_type, lang, country, topic, version, approved, deleted,
	published_at, index_name, storage_path, status, error_message, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
`,
		doc.ID, doc.SourceURI, string(doc.SourceType), doc.Lang, doc.Country, doc.Topic,
		doc.Version, doc.Approved, doc.Deleted, doc.PublishedAt, doc.IndexName,
		doc.StoragePath, string(doc.Status), doc.Error, doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, source_uri, source_type, lang, country, topic, version, approved, deleted,
	published_at, index_name, storage_path, status, error_message, created_at, updated_at
FROM documents
WHERE id = $1
`, id)

	var (
		doc         domain.Document
		sourceType  string
		status      string
		country     sql.NullString
		topic       sql.NullString
		publishedAt sql.NullTime
		storagePath sql.NullString
		errMessage  sql.NullString
	)
	err := row.Scan(
		&doc.ID, &doc.SourceURI, &sourceType, &doc.Lang, &country, &topic,
		&doc.Version, &doc.Approved, &doc.Deleted, &publishedAt, &doc.IndexName,
		&storagePath, &status, &errMessage, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get document", fmt.Errorf("id=%s", id))
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}

	doc.SourceType = domain.SourceType(sourceType)
	doc.Status = domain.DocumentStatus(status)
	doc.Country = country.String
	doc.Topic = topic.String
	doc.StoragePath = storagePath.String
	doc.Error = errMessage.String
	if publishedAt.Valid {
		t := publishedAt.Time
		doc.PublishedAt = &t
	}
	return &doc, nil
}

// NextVersion returns MAX(version)+1 for a source URI within a namespace, 1
// when the URI has never been ingested.
func (r *DocumentRepository) NextVersion(ctx context.Context, sourceURI, indexName string) (int, error) {
	var current sql.NullInt64
	err := r.db.QueryRowContext(ctx, `
SELECT MAX(version) FROM documents WHERE source_uri = $1 AND index_name = $2
`, sourceURI, indexName).Scan(&current)
	if err != nil {
		return 0, fmt.Errorf("query max version: %w", err)
	}
	return int(current.Int64) + 1, nil
}

func (r *DocumentRepository) UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE documents SET status = $2, error_message = $3, updated_at = $4 WHERE id = $1
`, id, string(status), errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	return requireRow(res, "update document status", id)
}

func (r *DocumentRepository) Approve(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE documents SET approved = TRUE, updated_at = $2 WHERE id = $1
`, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("approve document: %w", err)
	}
	return requireRow(res, "approve document", id)
}

func (r *DocumentRepository) SoftDelete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE documents SET deleted = TRUE, updated_at = $2 WHERE id = $1
`, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("soft delete document: %w", err)
	}
	return requireRow(res, "soft delete document", id)
}

// PurgeByURI physically removes every version of a source URI. Chunks go
// with the documents via ON DELETE CASCADE.
func (r *DocumentRepository) PurgeByURI(ctx context.Context, sourceURI, indexName string) (int, error) {
	res, err := r.db.ExecContext(ctx, `
DELETE FROM documents WHERE source_uri = $1 AND index_name = $2
`, sourceURI, indexName)
	if err != nil {
		return 0, fmt.Errorf("purge documents: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge rows affected: %w", err)
	}
	return int(affected), nil
}

// Counts summarizes corpus size: approved, non-deleted documents per
// (index, topic) and stored chunks per index.
func (r *DocumentRepository) Counts(ctx context.Context) (*domain.CorpusCounts, error) {
	counts := &domain.CorpusCounts{
		Docs:   []domain.DocCount{},
		Chunks: []domain.ChunkCount{},
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT index_name, COALESCE(topic, ''), COUNT(*)
FROM documents
WHERE approved = TRUE AND deleted = FALSE
GROUP BY 1, 2
ORDER BY 1, 2
`)
	if err != nil {
		return nil, fmt.Errorf("query document counts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var c domain.DocCount
		if err := rows.Scan(&c.IndexName, &c.Topic, &c.Docs); err != nil {
			return nil, fmt.Errorf("scan document count: %w", err)
		}
		counts.Docs = append(counts.Docs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate document counts: %w", err)
	}

	chunkRows, err := r.db.QueryContext(ctx, `
SELECT index_name, COUNT(*) FROM chunks GROUP BY 1 ORDER BY 1
`)
	if err != nil {
		return nil, fmt.Errorf("query chunk counts: %w", err)
	}
	defer chunkRows.Close()
	for chunkRows.Next() {
		var c domain.ChunkCount
		if err := chunkRows.Scan(&c.IndexName, &c.Chunks); err != nil {
			return nil, fmt.Errorf("scan chunk count: %w", err)
		}
		counts.Chunks = append(counts.Chunks, c)
	}
	if err := chunkRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunk counts: %w", err)
	}

	return counts, nil
}

func requireRow(res sql.Result, operation, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", operation, err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrNotFound, operation, fmt.Errorf("id=%s", id))
	}
	return nil
}
