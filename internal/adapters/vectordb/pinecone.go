// Package vectordb provides vector store adapters.
// Clean Architecture: Adapters implementing ports.VectorStore and
// ports.IndexAdmin.
package vectordb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/seaport-labs/lexrag/internal/domain/entities"
	"github.com/seaport-labs/lexrag/internal/domain/ports"
)

const pineconeAPIVersion = "2025-01"

// PineconeStore talks to Pinecone's control plane (index lifecycle) and data
// plane (vector reads/writes). The data-plane host is resolved lazily from
// the index description and cached. One store is shared by all concurrent
// queries, so the cache is mutex-guarded.
type PineconeStore struct {
	apiKey     string
	controlURL string
	indexName  string
	cloud      string
	region     string
	client     *http.Client

	mu   sync.Mutex
	host string // guarded by mu
}

// NewPineconeStore creates a Pinecone adapter for the named serverless index.
func NewPineconeStore(apiKey, indexName, cloud, region string) *PineconeStore {
	if cloud == "" {
		cloud = "aws"
	}
	if region == "" {
		region = "us-east-1"
	}
	return &PineconeStore{
		apiKey:     apiKey,
		controlURL: "https://api.pinecone.io",
		indexName:  indexName,
		cloud:      cloud,
		region:     region,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// doJSON issues a request with the Pinecone auth headers and decodes the
// JSON response into out (when out is non-nil).
func (s *PineconeStore) doJSON(ctx context.Context, method, rawURL string, body, out interface{}) (int, error) {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Api-Key", s.apiKey)
	req.Header.Set("X-Pinecone-API-Version", pineconeAPIVersion)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("calling Pinecone: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return resp.StatusCode, fmt.Errorf("Pinecone returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decoding response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

// --- control plane (ports.IndexAdmin) ---

type pineconeIndexDescription struct {
	Name   string `json:"name"`
	Host   string `json:"host"`
	Status struct {
		Ready bool   `json:"ready"`
		State string `json:"state"`
	} `json:"status"`
}

// ListIndexes returns the names of existing indexes.
func (s *PineconeStore) ListIndexes(ctx context.Context) ([]string, error) {
	var listResp struct {
		Indexes []pineconeIndexDescription `json:"indexes"`
	}
	if _, err := s.doJSON(ctx, "GET", s.controlURL+"/indexes", nil, &listResp); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(listResp.Indexes))
	for _, idx := range listResp.Indexes {
		names = append(names, idx.Name)
	}
	return names, nil
}

// CreateIndex creates a serverless index. A duplicate creation maps to
// ports.ErrIndexExists so ingestion can treat it as a no-op.
func (s *PineconeStore) CreateIndex(ctx context.Context, name string, dimension int, metric string) error {
	body := map[string]interface{}{
		"name":      name,
		"dimension": dimension,
		"metric":    metric,
		"spec": map[string]interface{}{
			"serverless": map[string]string{
				"cloud":  s.cloud,
				"region": s.region,
			},
		},
	}
	status, err := s.doJSON(ctx, "POST", s.controlURL+"/indexes", body, nil)
	if err != nil {
		if status == http.StatusConflict || strings.Contains(err.Error(), "ALREADY_EXISTS") {
			return ports.ErrIndexExists
		}
		return err
	}
	return nil
}

// IndexReady reports whether the named index is queryable. It also caches
// the data-plane host from the description.
func (s *PineconeStore) IndexReady(ctx context.Context, name string) (bool, error) {
	desc, err := s.describeIndex(ctx, name)
	if err != nil {
		return false, err
	}
	return desc.Status.Ready, nil
}

func (s *PineconeStore) describeIndex(ctx context.Context, name string) (*pineconeIndexDescription, error) {
	var desc pineconeIndexDescription
	if _, err := s.doJSON(ctx, "GET", s.controlURL+"/indexes/"+url.PathEscape(name), nil, &desc); err != nil {
		return nil, err
	}
	if desc.Host != "" {
		s.mu.Lock()
		s.host = desc.Host
		s.mu.Unlock()
	}
	return &desc, nil
}

func (s *PineconeStore) cachedHost() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.host
}

// dataURL resolves the data-plane base URL, describing the index on first use.
// The control plane returns the host bare; a host that already carries a
// scheme is used as-is.
func (s *PineconeStore) dataURL(ctx context.Context) (string, error) {
	host := s.cachedHost()
	if host == "" {
		if _, err := s.describeIndex(ctx, s.indexName); err != nil {
			return "", fmt.Errorf("resolving index host: %w", err)
		}
		if host = s.cachedHost(); host == "" {
			return "", fmt.Errorf("index %s has no data-plane host", s.indexName)
		}
	}
	if strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		return host, nil
	}
	return "https://" + host, nil
}

// --- data plane (ports.VectorStore) ---

// Metadata keys stored with every vector.
const (
	metaText       = "text"
	metaSource     = "source"
	metaDocumentID = "documentId"
	metaChunkIndex = "chunkIndex"
)

type pineconeVector struct {
	ID       string                 `json:"id"`
	Values   []float32              `json:"values"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Upsert writes chunks into the namespace. Existing IDs are overwritten.
func (s *PineconeStore) Upsert(ctx context.Context, namespace string, chunks []entities.Chunk) error {
	base, err := s.dataURL(ctx)
	if err != nil {
		return err
	}

	vectors := make([]pineconeVector, len(chunks))
	for i, c := range chunks {
		vectors[i] = pineconeVector{
			ID:     c.ID,
			Values: c.Embedding,
			Metadata: map[string]interface{}{
				metaText:       c.Content,
				metaSource:     c.Jurisdiction,
				metaDocumentID: c.DocumentID,
				metaChunkIndex: c.Index,
			},
		}
	}

	body := map[string]interface{}{
		"vectors":   vectors,
		"namespace": namespace,
	}
	if _, err := s.doJSON(ctx, "POST", base+"/vectors/upsert", body, nil); err != nil {
		return fmt.Errorf("upserting vectors: %w", err)
	}
	return nil
}

// Search runs a top-K similarity query and maps matches back into chunks.
func (s *PineconeStore) Search(ctx context.Context, namespace string, embedding []float32, topK int) ([]entities.RetrievalResult, error) {
	base, err := s.dataURL(ctx)
	if err != nil {
		return nil, err
	}

	body := map[string]interface{}{
		"vector":          embedding,
		"topK":            topK,
		"namespace":       namespace,
		"includeMetadata": true,
	}
	var queryResp struct {
		Matches []struct {
			ID       string                 `json:"id"`
			Score    float64                `json:"score"`
			Metadata map[string]interface{} `json:"metadata"`
		} `json:"matches"`
	}
	if _, err := s.doJSON(ctx, "POST", base+"/query", body, &queryResp); err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}

	results := make([]entities.RetrievalResult, 0, len(queryResp.Matches))
	for _, m := range queryResp.Matches {
		results = append(results, entities.RetrievalResult{
			Chunk: chunkFromMetadata(m.ID, m.Metadata),
			Score: m.Score,
		})
	}
	return results, nil
}

// Fetch returns stored chunks by ID.
func (s *PineconeStore) Fetch(ctx context.Context, namespace string, ids []string) (map[string]entities.Chunk, error) {
	base, err := s.dataURL(ctx)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	for _, id := range ids {
		params.Add("ids", id)
	}
	params.Set("namespace", namespace)

	var fetchResp struct {
		Vectors map[string]struct {
			ID       string                 `json:"id"`
			Values   []float32              `json:"values"`
			Metadata map[string]interface{} `json:"metadata"`
		} `json:"vectors"`
	}
	if _, err := s.doJSON(ctx, "GET", base+"/vectors/fetch?"+params.Encode(), nil, &fetchResp); err != nil {
		return nil, fmt.Errorf("fetching vectors: %w", err)
	}

	chunks := make(map[string]entities.Chunk, len(fetchResp.Vectors))
	for id, v := range fetchResp.Vectors {
		chunk := chunkFromMetadata(id, v.Metadata)
		chunk.Embedding = v.Values
		chunks[id] = chunk
	}
	return chunks, nil
}

// Stats describes the index contents across namespaces.
func (s *PineconeStore) Stats(ctx context.Context) (*ports.IndexStats, error) {
	base, err := s.dataURL(ctx)
	if err != nil {
		return nil, err
	}

	var statsResp struct {
		Dimension        int `json:"dimension"`
		TotalVectorCount int `json:"totalVectorCount"`
		Namespaces       map[string]struct {
			VectorCount int `json:"vectorCount"`
		} `json:"namespaces"`
	}
	if _, err := s.doJSON(ctx, "POST", base+"/describe_index_stats", map[string]interface{}{}, &statsResp); err != nil {
		return nil, fmt.Errorf("describing index stats: %w", err)
	}

	stats := &ports.IndexStats{
		Dimension:    statsResp.Dimension,
		TotalVectors: statsResp.TotalVectorCount,
		Namespaces:   make(map[string]int, len(statsResp.Namespaces)),
	}
	for ns, n := range statsResp.Namespaces {
		stats.Namespaces[ns] = n.VectorCount
	}
	return stats, nil
}

// chunkFromMetadata rebuilds a chunk from stored vector metadata.
func chunkFromMetadata(id string, metadata map[string]interface{}) entities.Chunk {
	chunk := entities.Chunk{ID: id}
	if v, ok := metadata[metaText].(string); ok {
		chunk.Content = v
	}
	if v, ok := metadata[metaSource].(string); ok {
		chunk.Jurisdiction = v
	}
	if v, ok := metadata[metaDocumentID].(string); ok {
		chunk.DocumentID = v
	}
	if v, ok := metadata[metaChunkIndex].(float64); ok {
		chunk.Index = int(v)
	}
	return chunk
}
