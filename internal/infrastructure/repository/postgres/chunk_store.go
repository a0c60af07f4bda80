package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/hectorluisalamo/bilingual-rag/internal/core/domain"
	"github.com/hectorluisalamo/bilingual-rag/internal/infrastructure/resilience"
)

// ChunkStore is the vector store adapter: batch inserts at ingestion time and
// cosine-ordered ANN queries at query time.
//
// Two vector-binding modes are supported: regular parameter binding of the
// pgvector literal, or inlining the literal into the statement for drivers
// and poolers that cannot bind the vector type. The numeric result is
// identical either way.
type ChunkStore struct {
	db            *sql.DB
	inlineVectors bool
	executor      *resilience.Executor
}

func NewChunkStore(db *sql.DB, inlineVectors bool, executor *resilience.Executor) *ChunkStore {
	return &ChunkStore{
		db:            db,
		inlineVectors: inlineVectors,
		executor:      executor,
	}
}

func (s *ChunkStore) InsertChunks(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin chunk tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, chunk := range chunks {
		if len(chunk.Embedding) == 0 {
			return fmt.Errorf("chunk %s has no embedding", chunk.ID)
		}
		_, err := tx.ExecContext(ctx, `
INSERT INTO chunks (id, doc_id, chunk_index, text, tokens, embedding, section, index_name)
VALUES ($1,$2,$3,$4,$5,$6::vector,$7,$8)
`,
			chunk.ID, chunk.DocID, chunk.Index, chunk.Text, chunk.Tokens,
			vectorLiteral(chunk.Embedding), chunk.Section, chunk.IndexName,
		)
		if err != nil {
			return fmt.Errorf("insert chunk %d of doc %s: %w", chunk.Index, chunk.DocID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit chunk tx: %w", err)
	}
	return nil
}

// Search returns candidates ordered by cosine distance ascending, restricted
// to approved, non-deleted, canonical-version documents with a present
// embedding. Similarity is re-expressed as 1 - distance; callers tolerate
// values slightly outside [0,1].
func (s *ChunkStore) Search(ctx context.Context, queryVector []float32, k int, filter domain.SearchFilter) ([]domain.Candidate, error) {
	if k <= 0 {
		k = 8
	}

	query, args := s.buildSearchQuery(queryVector, k, filter)

	var out []domain.Candidate
	call := func(callCtx context.Context) error {
		rows, err := s.db.QueryContext(callCtx, query, args...)
		if err != nil {
			return fmt.Errorf("vector search: %w", err)
		}
		defer rows.Close()

		out = out[:0]
		for rows.Next() {
			var (
				cand        domain.Candidate
				section     sql.NullString
				publishedAt sql.NullTime
			)
			err := rows.Scan(
				&cand.Text, &section, &cand.DocID, &cand.ChunkIndex,
				&cand.SourceURI, &cand.Lang, &publishedAt, &cand.Score,
			)
			if err != nil {
				return fmt.Errorf("scan candidate: %w", err)
			}
			cand.Section = section.String
			if publishedAt.Valid {
				t := publishedAt.Time
				cand.PublishedAt = &t
			}
			cand.Adjusted = cand.Score
			out = append(out, cand)
		}
		return rows.Err()
	}

	var err error
	if s.executor != nil {
		err = s.executor.Execute(ctx, "postgres.search", call, classifyStoreError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ChunkStore) buildSearchQuery(queryVector []float32, k int, filter domain.SearchFilter) (string, []any) {
	var (
		args    []any
		nextArg = func(v any) string {
			args = append(args, v)
			return "$" + strconv.Itoa(len(args))
		}
	)

	vecExpr := ""
	if s.inlineVectors {
		vecExpr = "'" + vectorLiteral(queryVector) + "'::vector"
	} else {
		vecExpr = nextArg(vectorLiteral(queryVector)) + "::vector"
	}

	var b strings.Builder
	b.WriteString(`
SELECT c.text, c.section, c.doc_id, c.chunk_index, d.source_uri, d.lang, d.published_at,
	1 - (c.embedding <=> ` + vecExpr + `) AS score
FROM chunks c
JOIN documents d ON d.id = c.doc_id
WHERE d.approved = TRUE
	AND d.deleted = FALSE
	AND c.embedding IS NOT NULL
	AND NOT EXISTS (
		SELECT 1 FROM documents d2
		WHERE d2.source_uri = d.source_uri
			AND d2.index_name = d.index_name
			AND d2.approved = TRUE
			AND d2.deleted = FALSE
			AND d2.version > d.version
	)`)

	if len(filter.Langs) > 0 {
		b.WriteString("\n\tAND d.lang = ANY(" + nextArg(langArray(filter.Langs)) + "::text[])")
	}
	if filter.IndexName != "" {
		b.WriteString("\n\tAND c.index_name = " + nextArg(filter.IndexName))
	}
	if filter.Topic != "" {
		b.WriteString("\n\tAND d.topic = " + nextArg(filter.Topic))
	}
	if filter.Country != "" {
		b.WriteString("\n\tAND d.country = " + nextArg(filter.Country))
	}

	b.WriteString("\nORDER BY c.embedding <=> " + vecExpr)
	b.WriteString("\nLIMIT " + nextArg(k))

	return b.String(), args
}

// vectorLiteral renders the pgvector input format: [v1,v2,...].
func vectorLiteral(vec []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range vec {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(v), 'g', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}

// langArray renders a text[] literal; language tags are restricted to
// letters/dashes before rendering.
func langArray(langs []string) string {
	clean := make([]string, 0, len(langs))
	for _, lang := range langs {
		lang = strings.TrimSpace(lang)
		if lang == "" {
			continue
		}
		clean = append(clean, strings.ReplaceAll(lang, `"`, ""))
	}
	return "{" + strings.Join(clean, ",") + "}"
}
