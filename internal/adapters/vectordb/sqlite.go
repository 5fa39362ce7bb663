package vectordb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/seaport-labs/lexrag/internal/domain/entities"
	"github.com/seaport-labs/lexrag/internal/domain/ports"
)

// SQLiteStore is a local persistent vector store for offline and development
// use, ranking by brute-force cosine similarity. It also implements
// ports.IndexAdmin so ingestion runs unchanged against a local backend.
type SQLiteStore struct {
	mu        sync.RWMutex
	db        *sql.DB
	indexName string
	dimension int
}

// NewSQLiteStore opens (or creates) a vector store under dataPath.
func NewSQLiteStore(dataPath, indexName string) (*SQLiteStore, error) {
	if dataPath == "" {
		dataPath = "./data"
	}
	if err := os.MkdirAll(dataPath, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite3", filepath.Join(dataPath, "corpus.db"))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	store := &SQLiteStore{db: db, indexName: indexName}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS chunks (
		id TEXT NOT NULL,
		namespace TEXT NOT NULL,
		document_id TEXT NOT NULL,
		content TEXT NOT NULL,
		chunk_index INTEGER NOT NULL,
		jurisdiction TEXT NOT NULL,
		embedding BLOB NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (namespace, id)
	);
	CREATE INDEX IF NOT EXISTS idx_chunks_namespace ON chunks(namespace);
	CREATE TABLE IF NOT EXISTS indexes (
		name TEXT PRIMARY KEY,
		dimension INTEGER NOT NULL,
		metric TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// --- ports.IndexAdmin ---

// ListIndexes returns the locally registered index names.
func (s *SQLiteStore) ListIndexes(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM indexes")
	if err != nil {
		return nil, fmt.Errorf("listing indexes: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// CreateIndex registers the index locally.
func (s *SQLiteStore) CreateIndex(ctx context.Context, name string, dimension int, metric string) error {
	res, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO indexes (name, dimension, metric) VALUES (?, ?, ?)",
		name, dimension, metric)
	if err != nil {
		return fmt.Errorf("creating index: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ports.ErrIndexExists
	}
	s.dimension = dimension
	return nil
}

// IndexReady always reports true: a local table is queryable immediately.
func (s *SQLiteStore) IndexReady(ctx context.Context, name string) (bool, error) {
	return true, nil
}

// --- ports.VectorStore ---

// Upsert saves chunks with their embeddings, overwriting existing IDs.
func (s *SQLiteStore) Upsert(ctx context.Context, namespace string, chunks []entities.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO chunks (id, namespace, document_id, content, chunk_index, jurisdiction, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		embeddingJSON, err := json.Marshal(chunk.Embedding)
		if err != nil {
			return fmt.Errorf("encoding embedding: %w", err)
		}
		_, err = stmt.ExecContext(ctx,
			chunk.ID, namespace, chunk.DocumentID, chunk.Content,
			chunk.Index, chunk.Jurisdiction, embeddingJSON)
		if err != nil {
			return fmt.Errorf("inserting chunk: %w", err)
		}
	}
	return tx.Commit()
}

// Search loads the namespace and ranks by cosine similarity.
func (s *SQLiteStore) Search(ctx context.Context, namespace string, embedding []float32, topK int) ([]entities.RetrievalResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, content, chunk_index, jurisdiction, embedding
		FROM chunks WHERE namespace = ?
	`, namespace)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var results []entities.RetrievalResult
	for rows.Next() {
		var chunk entities.Chunk
		var embeddingJSON []byte
		if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Content, &chunk.Index, &chunk.Jurisdiction, &embeddingJSON); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		if err := json.Unmarshal(embeddingJSON, &chunk.Embedding); err != nil {
			continue // skip corrupted embeddings
		}
		results = append(results, entities.RetrievalResult{
			Chunk: chunk,
			Score: cosineSimilarity(embedding, chunk.Embedding),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
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
func (s *SQLiteStore) Fetch(ctx context.Context, namespace string, ids []string) (map[string]entities.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chunks := make(map[string]entities.Chunk, len(ids))
	for _, id := range ids {
		var chunk entities.Chunk
		var embeddingJSON []byte
		err := s.db.QueryRowContext(ctx, `
			SELECT id, document_id, content, chunk_index, jurisdiction, embedding
			FROM chunks WHERE namespace = ? AND id = ?
		`, namespace, id).Scan(&chunk.ID, &chunk.DocumentID, &chunk.Content, &chunk.Index, &chunk.Jurisdiction, &embeddingJSON)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("fetching chunk %s: %w", id, err)
		}
		if err := json.Unmarshal(embeddingJSON, &chunk.Embedding); err != nil {
			continue
		}
		chunks[chunk.ID] = chunk
	}
	return chunks, nil
}

// Stats counts vectors per namespace.
func (s *SQLiteStore) Stats(ctx context.Context) (*ports.IndexStats, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT namespace, COUNT(*) FROM chunks GROUP BY namespace")
	if err != nil {
		return nil, fmt.Errorf("counting chunks: %w", err)
	}
	defer rows.Close()

	stats := &ports.IndexStats{
		Dimension:  s.dimension,
		Namespaces: make(map[string]int),
	}
	for rows.Next() {
		var ns string
		var n int
		if err := rows.Scan(&ns, &n); err != nil {
			return nil, err
		}
		stats.Namespaces[ns] = n
		stats.TotalVectors += n
	}
	return stats, rows.Err()
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// cosineSimilarity calculates cosine similarity between two vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
