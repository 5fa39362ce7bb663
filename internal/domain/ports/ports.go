// Package ports defines interfaces for external dependencies.
// Clean Architecture: These are the boundaries - usecases depend on these abstractions,
// not concrete implementations. Adapters implement these interfaces.
package ports

import (
	"context"
	"errors"

	"github.com/seaport-labs/lexrag/internal/domain/entities"
)

// ErrIndexExists is returned by CreateIndex when the index is already there.
// Callers treat it as success: index creation is idempotent.
var ErrIndexExists = errors.New("index already exists")

// EmbeddingService generates vector embeddings for text.
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts in one call.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// ChatModel produces a completion for an ordered message sequence.
// The model is invoked as an opaque request/response service.
type ChatModel interface {
	Invoke(ctx context.Context, messages []entities.ChatMessage) (string, error)
}

// IndexStats summarizes the contents of the vector index.
type IndexStats struct {
	Dimension    int
	TotalVectors int
	Namespaces   map[string]int // namespace -> vector count
}

// VectorStore persists and queries chunk embeddings within namespaces.
// Every call is stateless and idempotent given the same corpus snapshot.
type VectorStore interface {
	// Upsert writes chunks with their embeddings into the namespace.
	// Re-upserting an existing chunk ID overwrites the prior vector.
	Upsert(ctx context.Context, namespace string, chunks []entities.Chunk) error

	// Search returns the topK most similar chunks, best first.
	Search(ctx context.Context, namespace string, embedding []float32, topK int) ([]entities.RetrievalResult, error)

	// Fetch returns stored chunks by ID.
	Fetch(ctx context.Context, namespace string, ids []string) (map[string]entities.Chunk, error)

	// Stats describes the index contents.
	Stats(ctx context.Context) (*IndexStats, error)
}

// IndexAdmin manages index lifecycle on the vector store control plane.
// Split from VectorStore: ingestion needs it, querying never does.
type IndexAdmin interface {
	// ListIndexes returns the names of existing indexes.
	ListIndexes(ctx context.Context) ([]string, error)

	// CreateIndex creates an index with the given vector dimension and
	// similarity metric. Returns ErrIndexExists on a duplicate.
	CreateIndex(ctx context.Context, name string, dimension int, metric string) error

	// IndexReady reports whether the named index is queryable yet.
	IndexReady(ctx context.Context, name string) (bool, error)
}

// DocumentLoader reads and parses a source document from a path.
// Binary formats (PDF) are delegated to an external extraction service.
type DocumentLoader interface {
	Load(ctx context.Context, path string) (*entities.Document, error)
}

// FileOperation is the type of file change seen by the corpus watcher.
type FileOperation int

const (
	FileCreated FileOperation = iota
	FileModified
	FileDeleted
)

// FileEvent represents a change to a law source file.
type FileEvent struct {
	Path      string
	Operation FileOperation
}

// CorpusWatcher monitors the law-source directory for changes.
type CorpusWatcher interface {
	// Watch starts monitoring the directory and emits events until ctx ends.
	Watch(ctx context.Context, dir string) (<-chan FileEvent, error)

	// Stop stops the watcher.
	Stop() error
}
