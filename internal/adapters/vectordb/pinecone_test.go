package vectordb

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seaport-labs/lexrag/internal/domain/entities"
	"github.com/seaport-labs/lexrag/internal/domain/ports"
)

func newTestPinecone(controlURL, dataURL string) *PineconeStore {
	s := NewPineconeStore("test-key", "import-export-law", "aws", "us-east-1")
	s.controlURL = controlURL
	s.host = dataURL
	return s
}

func TestPinecone_ListIndexes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/indexes", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("Api-Key"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"indexes": []map[string]interface{}{
				{"name": "import-export-law"},
				{"name": "other"},
			},
		})
	}))
	defer server.Close()

	s := newTestPinecone(server.URL, "")
	names, err := s.ListIndexes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"import-export-law", "other"}, names)
}

func TestPinecone_CreateIndexConflict(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"ALREADY_EXISTS"}`, http.StatusConflict)
	}))
	defer server.Close()

	s := newTestPinecone(server.URL, "")
	err := s.CreateIndex(context.Background(), "import-export-law", 1024, "cosine")
	assert.True(t, errors.Is(err, ports.ErrIndexExists))
}

func TestPinecone_CreateIndexPayload(t *testing.T) {
	var got map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	s := newTestPinecone(server.URL, "")
	require.NoError(t, s.CreateIndex(context.Background(), "import-export-law", 1024, "cosine"))

	assert.Equal(t, "import-export-law", got["name"])
	assert.Equal(t, float64(1024), got["dimension"])
	assert.Equal(t, "cosine", got["metric"])
	spec := got["spec"].(map[string]interface{})["serverless"].(map[string]interface{})
	assert.Equal(t, "aws", spec["cloud"])
	assert.Equal(t, "us-east-1", spec["region"])
}

func TestPinecone_UpsertAndSearch(t *testing.T) {
	var upsertBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/vectors/upsert":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&upsertBody))
			json.NewEncoder(w).Encode(map[string]int{"upsertedCount": 1})
		case "/query":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"matches": []map[string]interface{}{
					{
						"id":    "c1",
						"score": 0.92,
						"metadata": map[string]interface{}{
							"text":       "dairy export rules",
							"source":     "MY",
							"documentId": "d1",
							"chunkIndex": 3,
						},
					},
				},
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	s := newTestPinecone("", server.URL)

	err := s.Upsert(context.Background(), "import-export-law", []entities.Chunk{
		{ID: "c1", Content: "dairy export rules", DocumentID: "d1", Index: 3, Jurisdiction: "MY", Embedding: []float32{0.1}},
	})
	require.NoError(t, err)
	assert.Equal(t, "import-export-law", upsertBody["namespace"])
	vectors := upsertBody["vectors"].([]interface{})
	require.Len(t, vectors, 1)
	metadata := vectors[0].(map[string]interface{})["metadata"].(map[string]interface{})
	assert.Equal(t, "MY", metadata["source"])

	results, err := s.Search(context.Background(), "import-export-law", []float32{0.1}, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "c1", results[0].Chunk.ID)
	assert.Equal(t, "MY", results[0].Chunk.Jurisdiction)
	assert.Equal(t, "dairy export rules", results[0].Chunk.Content)
	assert.Equal(t, 3, results[0].Chunk.Index)
	assert.InDelta(t, 0.92, results[0].Score, 1e-9)
}

func TestPinecone_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/vectors/fetch", r.URL.Path)
		assert.ElementsMatch(t, []string{"c1"}, r.URL.Query()["ids"])
		json.NewEncoder(w).Encode(map[string]interface{}{
			"vectors": map[string]interface{}{
				"c1": map[string]interface{}{
					"id":     "c1",
					"values": []float32{0.5},
					"metadata": map[string]interface{}{
						"text":   "passage",
						"source": "SG",
					},
				},
			},
		})
	}))
	defer server.Close()

	s := newTestPinecone("", server.URL)
	chunks, err := s.Fetch(context.Background(), "import-export-law", []string{"c1"})
	require.NoError(t, err)
	require.Contains(t, chunks, "c1")
	assert.Equal(t, "SG", chunks["c1"].Jurisdiction)
	assert.Equal(t, []float32{0.5}, chunks["c1"].Embedding)
}

func TestPinecone_Stats(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/describe_index_stats", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"dimension":        1024,
			"totalVectorCount": 42,
			"namespaces": map[string]interface{}{
				"import-export-law": map[string]int{"vectorCount": 42},
			},
		})
	}))
	defer server.Close()

	s := newTestPinecone("", server.URL)
	stats, err := s.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1024, stats.Dimension)
	assert.Equal(t, 42, stats.TotalVectors)
	assert.Equal(t, 42, stats.Namespaces["import-export-law"])
}

func TestPinecone_ConcurrentSearchSharesResolvedHost(t *testing.T) {
	dataServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/query", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{"matches": []map[string]interface{}{}})
	}))
	defer dataServer.Close()

	controlServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"name": "import-export-law",
			"host": dataServer.URL,
			"status": map[string]interface{}{
				"ready": true,
				"state": "Ready",
			},
		})
	}))
	defer controlServer.Close()

	// Host is unresolved: simultaneous first queries race to describe the
	// index and populate the cache.
	s := newTestPinecone(controlServer.URL, "")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results, err := s.Search(context.Background(), "import-export-law", []float32{0.1}, 10)
			assert.NoError(t, err)
			assert.Empty(t, results)
		}()
	}
	wg.Wait()

	assert.Equal(t, dataServer.URL, s.cachedHost())
}

func TestPinecone_IndexReady(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/indexes/import-export-law", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"name": "import-export-law",
			"host": "example.pinecone.io",
			"status": map[string]interface{}{
				"ready": true,
				"state": "Ready",
			},
		})
	}))
	defer server.Close()

	s := newTestPinecone(server.URL, "")
	ready, err := s.IndexReady(context.Background(), "import-export-law")
	require.NoError(t, err)
	assert.True(t, ready)
	assert.Equal(t, "example.pinecone.io", s.host)
}
