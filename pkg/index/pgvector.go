package index

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"github.com/tmc/langchaingo/embeddings"
)

// DBPool defines the interface for database connection pool
type DBPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PgvectorIndex stores chunks in PostgreSQL with the pgvector extension and
// ranks by cosine distance.
type PgvectorIndex struct {
	pool       DBPool
	embedder   embeddings.Embedder
	tableName  string
	dimensions int
}

var _ Index = (*PgvectorIndex)(nil)

// PgvectorOptions configuration for the Postgres connection
type PgvectorOptions struct {
	ConnString string
	TableName  string // Default "opm_documents"
	Dimensions int    // Default 1536, matching text-embedding-3-small
}

// NewPgvectorIndex creates a new pgvector-backed index and ensures the
// schema, so the first Add on a fresh database does not hit a missing table.
func NewPgvectorIndex(ctx context.Context, embedder embeddings.Embedder, opts PgvectorOptions) (*PgvectorIndex, error) {
	pool, err := pgxpool.New(ctx, opts.ConnString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	return newPgvectorIndexFromPool(ctx, pool, embedder, opts)
}

// newPgvectorIndexFromPool finishes construction on an existing pool: apply
// the options and run InitSchema, closing the pool when that fails.
func newPgvectorIndexFromPool(ctx context.Context, pool DBPool, embedder embeddings.Embedder, opts PgvectorOptions) (*PgvectorIndex, error) {
	idx := NewPgvectorIndexWithPool(pool, embedder, opts.TableName)
	if opts.Dimensions > 0 {
		idx.dimensions = opts.Dimensions
	}
	if err := idx.InitSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return idx, nil
}

// NewPgvectorIndexWithPool creates a pgvector index with an existing pool.
// Useful for testing with mocks.
func NewPgvectorIndexWithPool(pool DBPool, embedder embeddings.Embedder, tableName string) *PgvectorIndex {
	if tableName == "" {
		tableName = "opm_documents"
	}
	return &PgvectorIndex{
		pool:       pool,
		embedder:   embedder,
		tableName:  tableName,
		dimensions: 1536,
	}
}

// InitSchema creates the extension and table if they don't exist.
func (s *PgvectorIndex) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE EXTENSION IF NOT EXISTS vector;
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			content TEXT NOT NULL,
			source TEXT NOT NULL,
			embedding vector(%d) NOT NULL
		);
	`, s.tableName, s.dimensions)

	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the connection pool
func (s *PgvectorIndex) Close() {
	s.pool.Close()
}

// Add embeds the chunks and inserts them.
func (s *PgvectorIndex) Add(ctx context.Context, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vectors, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed documents: %w", err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, content, source, embedding)
		VALUES ($1, $2, $3, $4)
	`, s.tableName)

	for i, c := range chunks {
		_, err := s.pool.Exec(ctx, query,
			uuid.New().String(),
			c.Content,
			c.Source,
			pgvector.NewVector(vectors[i]),
		)
		if err != nil {
			return fmt.Errorf("insert chunk from %s: %w", c.Source, err)
		}
	}
	return nil
}

// Search returns the k nearest chunks by cosine distance. The score column
// is 1 - distance, so higher is more similar.
func (s *PgvectorIndex) Search(ctx context.Context, query string, k int) ([]Chunk, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive")
	}

	queryVec, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	sql := fmt.Sprintf(`
		SELECT content, source, 1 - (embedding <=> $1) AS score
		FROM %s
		ORDER BY embedding <=> $1
		LIMIT $2
	`, s.tableName)

	rows, err := s.pool.Query(ctx, sql, pgvector.NewVector(queryVec), k)
	if err != nil {
		return nil, fmt.Errorf("pgvector search: %w", err)
	}
	defer rows.Close()

	var chunks []Chunk
	for rows.Next() {
		var c Chunk
		if err := rows.Scan(&c.Content, &c.Source, &c.Score); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks: %w", err)
	}
	return chunks, nil
}
