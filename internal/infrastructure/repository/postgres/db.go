package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

// EnsureSchema bootstraps the documents/chunks tables and the pgvector
// extension. embedDim fixes the vector column so the ANN index can be built.
func EnsureSchema(ctx context.Context, db *sql.DB, embedDim int) error {
	if embedDim <= 0 {
		return fmt.Errorf("ensure schema: embedding dimension must be positive, got %d", embedDim)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082901)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	query := fmt.Sprintf(`
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	source_uri TEXT NOT NULL,
	source_type TEXT NOT NULL,
	lang TEXT NOT NULL,
	country TEXT,
	topic TEXT,
	version INT NOT NULL DEFAULT 1,
	approved BOOLEAN NOT NULL DEFAULT FALSE,
	deleted BOOLEAN NOT NULL DEFAULT FALSE,
	published_at TIMESTAMPTZ,
	index_name TEXT NOT NULL DEFAULT 'default',
	storage_path TEXT,
	status TEXT NOT NULL,
	error_message TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_source_uri ON documents(source_uri, index_name);
CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status);

CREATE TABLE IF NOT EXISTS chunks (
	id TEXT PRIMARY KEY,
	doc_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	chunk_index INT NOT NULL,
	text TEXT NOT NULL,
	tokens INT NOT NULL DEFAULT 0,
	embedding vector(%d),
	section TEXT,
	index_name TEXT NOT NULL DEFAULT 'default'
);

CREATE INDEX IF NOT EXISTS idx_chunks_doc_id ON chunks(doc_id);
CREATE INDEX IF NOT EXISTS idx_chunks_index_name ON chunks(index_name);
CREATE INDEX IF NOT EXISTS idx_chunks_embedding ON chunks
	USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100);
`, embedDim)

	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}
