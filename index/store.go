package index

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"kbrag/types"
)

// Storer is the vector index contract shared by the ingestion and query
// paths.
type Storer interface {
	EnsureSchema(context.Context)
	Upsert(context.Context, types.IndexEntry) error
	Search(context.Context, []float32, int) ([]types.Snippet, error)
	DeleteDocChunks(context.Context, string) error
}

// PostgresIndex stores chunk embeddings in a pgvector table with an HNSW
// cosine index. The backend serializes concurrent upserts and searches; no
// client-side locking is performed.
type PostgresIndex struct {
	pool   *pgxpool.Pool
	table  string
	dim    int
	logger *slog.Logger
}

func NewPostgresIndex(ctx context.Context, connStr, table string, dim int, logger *slog.Logger) (*PostgresIndex, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresIndex{
		pool:   pool,
		table:  table,
		dim:    dim,
		logger: logger,
	}, nil
}

// EnsureSchema creates the chunk table and its HNSW cosine index if they do
// not already exist. It runs at the start of every invocation and may race
// with concurrent creators; any failure (including "already exists") is
// logged and swallowed so the invocation proceeds on the assumption the
// index is usable.
func (p *PostgresIndex) EnsureSchema(ctx context.Context) {
	query := fmt.Sprintf(`
	CREATE EXTENSION IF NOT EXISTS vector;

	CREATE TABLE IF NOT EXISTS %[1]s (
		doc_id TEXT NOT NULL,
		chunk_id INT NOT NULL,
		chunk_text TEXT NOT NULL,
		embedding vector(%[2]d),
		source TEXT,
		s3_key TEXT,
		url TEXT,
		title TEXT,
		section TEXT,
		tags TEXT[],
		token_count INT,
		created_at TIMESTAMP WITH TIME ZONE,
		updated_at TIMESTAMP WITH TIME ZONE,
		PRIMARY KEY (doc_id, chunk_id)
	);

	CREATE INDEX IF NOT EXISTS idx_%[1]s_embedding ON %[1]s
		USING hnsw (embedding vector_cosine_ops)
		WITH (m = 16, ef_construction = 100);

	CREATE INDEX IF NOT EXISTS idx_%[1]s_doc_id ON %[1]s(doc_id);
	CREATE INDEX IF NOT EXISTS idx_%[1]s_source ON %[1]s(source);
	`, p.table, p.dim)

	if _, err := p.pool.Exec(ctx, query); err != nil {
		p.logger.Warn("ensure index schema failed, continuing", "table", p.table, "error", err)
		return
	}
	p.logger.Debug("index schema ensured", "table", p.table, "dimension", p.dim)
}

// Upsert writes one entry keyed on (doc_id, chunk_id), so re-ingesting a
// source key overwrites its prior chunks instead of accumulating
// duplicates. Transport failures propagate to the caller.
func (p *PostgresIndex) Upsert(ctx context.Context, e types.IndexEntry) error {
	query := fmt.Sprintf(`
	INSERT INTO %s (doc_id, chunk_id, chunk_text, embedding, source, s3_key,
		url, title, section, tags, token_count, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	ON CONFLICT (doc_id, chunk_id) DO UPDATE SET
		chunk_text = EXCLUDED.chunk_text,
		embedding = EXCLUDED.embedding,
		source = EXCLUDED.source,
		s3_key = EXCLUDED.s3_key,
		url = EXCLUDED.url,
		title = EXCLUDED.title,
		section = EXCLUDED.section,
		tags = EXCLUDED.tags,
		token_count = EXCLUDED.token_count,
		updated_at = EXCLUDED.updated_at
	`, p.table)

	_, err := p.pool.Exec(ctx, query,
		e.DocID,
		e.ChunkID,
		e.ChunkText,
		pgvector.NewVector(e.Embedding),
		e.Meta.Source,
		e.Meta.S3Key,
		e.Meta.URL,
		e.Meta.Title,
		e.Meta.Section,
		e.Meta.Tags,
		e.TokenCount,
		e.CreatedAt,
		e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("index chunk %s/%d: %w", e.DocID, e.ChunkID, err)
	}
	return nil
}

// Search returns up to k snippets ordered by descending cosine similarity.
func (p *PostgresIndex) Search(ctx context.Context, vec []float32, k int) ([]types.Snippet, error) {
	if len(vec) == 0 {
		return nil, fmt.Errorf("empty query vector")
	}

	query := fmt.Sprintf(`
	SELECT chunk_text, s3_key, source, 1 - (embedding <=> $1) AS score
	FROM %s
	WHERE embedding IS NOT NULL
	ORDER BY embedding <=> $1
	LIMIT $2
	`, p.table)

	rows, err := p.pool.Query(ctx, query, pgvector.NewVector(vec), k)
	if err != nil {
		return nil, fmt.Errorf("search index %s: %w", p.table, err)
	}
	defer rows.Close()

	var snippets []types.Snippet
	for rows.Next() {
		var text, s3Key, source string
		var score float64
		if err := rows.Scan(&text, &s3Key, &source, &score); err != nil {
			return nil, err
		}
		snippets = append(snippets, types.Snippet{
			Text:   text,
			Source: snippetSource(s3Key, source),
			Score:  score,
		})
	}
	return snippets, rows.Err()
}

// snippetSource prefers the object key over the generic source label.
func snippetSource(s3Key, source string) string {
	if s3Key != "" {
		return s3Key
	}
	return source
}

// DeleteDocChunks removes every chunk of a document, for callers that want
// a clean slate before re-ingesting a shrunk document.
func (p *PostgresIndex) DeleteDocChunks(ctx context.Context, docID string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE doc_id = $1", p.table)
	_, err := p.pool.Exec(ctx, query, docID)
	return err
}

// Close closes the connection pool.
func (p *PostgresIndex) Close() {
	if p.pool != nil {
		p.pool.Close()
		p.logger.Info("index connection pool closed")
	}
}
