package usecases

import (
	"context"
	"fmt"

	"github.com/seaport-labs/lexrag/internal/domain/entities"
	"github.com/seaport-labs/lexrag/internal/domain/ports"
)

// Retriever performs jurisdiction-aware similarity search against the
// vector store.
type Retriever struct {
	embedder  ports.EmbeddingService
	store     ports.VectorStore
	namespace string
	topK      int
}

// NewRetriever creates a Retriever with injected dependencies.
func NewRetriever(embedder ports.EmbeddingService, store ports.VectorStore, namespace string, topK int) *Retriever {
	if topK <= 0 {
		topK = 10
	}
	return &Retriever{
		embedder:  embedder,
		store:     store,
		namespace: namespace,
		topK:      topK,
	}
}

// Retrieve embeds the query, runs a top-K similarity search, and filters the
// results to the requested jurisdiction. If the region name is unknown the
// filter is disabled; if filtering leaves nothing, the unfiltered set is
// returned instead - imperfect context beats none. Ranking order from the
// store is preserved. An empty result set is not an error.
func (r *Retriever) Retrieve(ctx context.Context, query, region string) ([]entities.RetrievalResult, error) {
	embedding, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	results, err := r.store.Search(ctx, r.namespace, embedding, r.topK)
	if err != nil {
		return nil, fmt.Errorf("searching vectors: %w", err)
	}

	tag, ok := entities.ResolveJurisdiction(region)
	if !ok {
		return results, nil
	}

	filtered := make([]entities.RetrievalResult, 0, len(results))
	for _, res := range results {
		if res.Chunk.Jurisdiction == tag {
			filtered = append(filtered, res)
		}
	}
	if len(filtered) == 0 {
		return results, nil
	}
	return filtered, nil
}
