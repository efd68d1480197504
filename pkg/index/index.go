// Package index stores document chunks and retrieves the ones most similar
// to a query. Three backends share one interface: an in-memory cosine store,
// Chroma and pgvector.
package index

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"

	"github.com/jemygraw/deepresearch/pkg/config"
)

// Chunk is one retrievable piece of a source document.
type Chunk struct {
	Content string
	Source  string
	Score   float64
}

// Index is the retrieval contract the RAG agents depend on. Add is called
// once during ingestion; Search must be safe for concurrent use afterwards.
type Index interface {
	Add(ctx context.Context, chunks []Chunk) error
	Search(ctx context.Context, query string, k int) ([]Chunk, error)
}

// New builds the backend named in the configuration.
func New(ctx context.Context, cfg config.IndexConfig, embedder embeddings.Embedder) (Index, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryIndex(embedder), nil
	case "chroma":
		return NewChromaIndex(cfg.ChromaURL, cfg.Collection, embedder)
	case "pgvector":
		return NewPgvectorIndex(ctx, embedder, PgvectorOptions{
			ConnString: cfg.PostgresURL,
			TableName:  cfg.Collection,
		})
	default:
		return nil, fmt.Errorf("unknown index backend: %s", cfg.Backend)
	}
}
