package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/seaport-labs/lexrag/internal/adapters/vectordb"
	"github.com/seaport-labs/lexrag/internal/domain/entities"
	"github.com/seaport-labs/lexrag/internal/domain/usecases"
)

type stubEmbedder struct {
	calls *int
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	*s.calls++
	return []float32{1, 0}, nil
}

func (s *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

type stubModel struct {
	response string
	calls    *int
}

func (s *stubModel) Invoke(ctx context.Context, messages []entities.ChatMessage) (string, error) {
	*s.calls++
	return s.response, nil
}

// newTestServer wires a server over an in-memory corpus.
func newTestServer(t *testing.T, chunks []entities.Chunk, modelResponse string) (*Server, *int, *int) {
	t.Helper()
	store := vectordb.NewInMemoryStore()
	if len(chunks) > 0 {
		require.NoError(t, store.Upsert(context.Background(), "ns", chunks))
	}
	embedCalls, modelCalls := 0, 0
	retriever := usecases.NewRetriever(&stubEmbedder{calls: &embedCalls}, store, "ns", 10)
	uc := usecases.NewQueryUseCase(retriever, &stubModel{response: modelResponse, calls: &modelCalls}, 80, 5, zap.NewNop())
	return NewServer(uc, ":0", zap.NewNop()), &embedCalls, &modelCalls
}

func postQuery(s *Server, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.handleQuery(w, req)
	return w
}

var myChunk = entities.Chunk{
	ID: "c1", DocumentID: "d1", Content: "MY dairy export rules",
	Jurisdiction: "MY", Embedding: []float32{1, 0},
}

func TestHandleQuery_MissingQuestion(t *testing.T) {
	s, embedCalls, modelCalls := newTestServer(t, []entities.Chunk{myChunk}, "")

	w := postQuery(s, `{"country":"Malaysia"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Missing question", body["error"])
	assert.Zero(t, *embedCalls, "no external calls on input error")
	assert.Zero(t, *modelCalls)
}

func TestHandleQuery_Answer(t *testing.T) {
	answer := "Summary / Simplified Explanation:\n- Plain language summary: fine.\n\nConfidence / Disclaimer:\n- Confidence level: 95%"
	s, _, _ := newTestServer(t, []entities.Chunk{myChunk}, answer)

	w := postQuery(s, `{"question":"How do I export milk from Malaysia?","toCountry":"Singapore"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, answer, body["answer"])
	assert.NotContains(t, body, "followUp")
}

func TestHandleQuery_FollowUp(t *testing.T) {
	s, _, _ := newTestServer(t, []entities.Chunk{myChunk}, "What type of license do you hold?")

	w := postQuery(s, `{"question":"How do I export milk?"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["followUp"])
	assert.Equal(t, "What type of license do you hold?", body["message"])
	assert.NotEmpty(t, body["note"])
}

func TestHandleQuery_EmptyCorpus(t *testing.T) {
	s, _, modelCalls := newTestServer(t, nil, "unused")

	w := postQuery(s, `{"question":"anything"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body["answer"], "could not find relevant legal documents")
	assert.Zero(t, *modelCalls)
}

func TestHandleQuery_InvalidBody(t *testing.T) {
	s, _, _ := newTestServer(t, []entities.Chunk{myChunk}, "")

	w := postQuery(s, `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type failingStore struct {
	vectordb.InMemoryStore
}

func (f *failingStore) Search(ctx context.Context, namespace string, embedding []float32, topK int) ([]entities.RetrievalResult, error) {
	return nil, context.DeadlineExceeded
}

func TestHandleQuery_InternalFailureIsGeneric(t *testing.T) {
	retriever := usecases.NewRetriever(&stubEmbedder{calls: new(int)}, &failingStore{}, "ns", 10)
	uc := usecases.NewQueryUseCase(retriever, &stubModel{calls: new(int)}, 80, 5, zap.NewNop())
	s := NewServer(uc, ":0", zap.NewNop())

	w := postQuery(s, `{"question":"q"}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	// No internal detail leaks to the caller.
	assert.Equal(t, "Failed to process query", body["error"])
}

func TestHandleQuery_MethodNotAllowed(t *testing.T) {
	s, _, _ := newTestServer(t, []entities.Chunk{myChunk}, "")

	req := httptest.NewRequest(http.MethodGet, "/query", nil)
	w := httptest.NewRecorder()
	s.handleQuery(w, req)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
