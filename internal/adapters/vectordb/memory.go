package vectordb

import (
	"context"
	"sort"
	"sync"

	"github.com/seaport-labs/lexrag/internal/domain/entities"
	"github.com/seaport-labs/lexrag/internal/domain/ports"
)

// InMemoryStore is a namespace-aware in-memory vector store for tests and
// development. It implements both ports.VectorStore and ports.IndexAdmin.
type InMemoryStore struct {
	mu         sync.RWMutex
	namespaces map[string]map[string]entities.Chunk // namespace -> chunkID -> chunk
	indexes    map[string]int                       // index name -> dimension
	dimension  int                                  // most recently registered dimension
}

// NewInMemoryStore creates a new in-memory vector store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		namespaces: make(map[string]map[string]entities.Chunk),
		indexes:    make(map[string]int),
	}
}

// --- ports.IndexAdmin ---

// ListIndexes returns registered index names.
func (s *InMemoryStore) ListIndexes(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.indexes))
	for name := range s.indexes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// CreateIndex registers an index name.
func (s *InMemoryStore) CreateIndex(ctx context.Context, name string, dimension int, metric string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.indexes[name]; ok {
		return ports.ErrIndexExists
	}
	s.indexes[name] = dimension
	s.dimension = dimension
	return nil
}

// IndexReady always reports true.
func (s *InMemoryStore) IndexReady(ctx context.Context, name string) (bool, error) {
	return true, nil
}

// --- ports.VectorStore ---

// Upsert saves chunks, overwriting existing IDs within the namespace.
func (s *InMemoryStore) Upsert(ctx context.Context, namespace string, chunks []entities.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ns, ok := s.namespaces[namespace]
	if !ok {
		ns = make(map[string]entities.Chunk)
		s.namespaces[namespace] = ns
	}
	for _, chunk := range chunks {
		ns[chunk.ID] = chunk
	}
	return nil
}

// Search ranks the namespace by cosine similarity, best first.
func (s *InMemoryStore) Search(ctx context.Context, namespace string, embedding []float32, topK int) ([]entities.RetrievalResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []entities.RetrievalResult
	for _, chunk := range s.namespaces[namespace] {
		results = append(results, entities.RetrievalResult{
			Chunk: chunk,
			Score: cosineSimilarity(embedding, chunk.Embedding),
		})
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// Fetch returns stored chunks by ID.
func (s *InMemoryStore) Fetch(ctx context.Context, namespace string, ids []string) (map[string]entities.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chunks := make(map[string]entities.Chunk, len(ids))
	for _, id := range ids {
		if chunk, ok := s.namespaces[namespace][id]; ok {
			chunks[id] = chunk
		}
	}
	return chunks, nil
}

// Stats counts vectors per namespace.
func (s *InMemoryStore) Stats(ctx context.Context) (*ports.IndexStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := &ports.IndexStats{Dimension: s.dimension, Namespaces: make(map[string]int)}
	for ns, chunks := range s.namespaces {
		stats.Namespaces[ns] = len(chunks)
		stats.TotalVectors += len(chunks)
	}
	return stats, nil
}

// Clear removes all data from the store.
func (s *InMemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.namespaces = make(map[string]map[string]entities.Chunk)
	return nil
}
