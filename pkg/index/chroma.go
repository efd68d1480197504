package index

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores/chroma"
)

// ChromaIndex stores chunks in a Chroma collection. The server handles
// persistence; embeddings go through the configured embedder.
type ChromaIndex struct {
	store chroma.Store
}

var _ Index = (*ChromaIndex)(nil)

// NewChromaIndex connects to the Chroma server at chromaURL and binds the
// named collection.
func NewChromaIndex(chromaURL, collection string, embedder embeddings.Embedder) (*ChromaIndex, error) {
	store, err := chroma.New(
		chroma.WithChromaURL(chromaURL),
		chroma.WithEmbedder(embedder),
		chroma.WithDistanceFunction("cosine"),
		chroma.WithNameSpace(collection),
	)
	if err != nil {
		return nil, fmt.Errorf("connect chroma at %s: %w", chromaURL, err)
	}
	return &ChromaIndex{store: store}, nil
}

// Add upserts the chunks into the collection.
func (c *ChromaIndex) Add(ctx context.Context, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	docs := make([]schema.Document, len(chunks))
	for i, ch := range chunks {
		docs[i] = schema.Document{
			PageContent: ch.Content,
			Metadata:    map[string]any{"source": ch.Source},
		}
	}
	if _, err := c.store.AddDocuments(ctx, docs); err != nil {
		return fmt.Errorf("add documents to chroma: %w", err)
	}
	return nil
}

// Search returns the k most similar chunks in the collection.
func (c *ChromaIndex) Search(ctx context.Context, query string, k int) ([]Chunk, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive")
	}

	docs, err := c.store.SimilaritySearch(ctx, query, k)
	if err != nil {
		return nil, fmt.Errorf("chroma similarity search: %w", err)
	}

	chunks := make([]Chunk, 0, len(docs))
	for _, doc := range docs {
		source := ""
		if s, ok := doc.Metadata["source"].(string); ok {
			source = s
		}
		chunks = append(chunks, Chunk{
			Content: doc.PageContent,
			Source:  source,
			Score:   float64(doc.Score),
		})
	}
	return chunks, nil
}
