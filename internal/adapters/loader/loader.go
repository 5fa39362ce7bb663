// Package loader provides document loading adapters.
// PDF text extraction is delegated to an external service; the engine never
// parses binary formats itself.
package loader

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/seaport-labs/lexrag/internal/domain/entities"
)

// TextLoader loads plain text documents (.txt, .md).
type TextLoader struct{}

// NewTextLoader creates a new text document loader.
func NewTextLoader() *TextLoader {
	return &TextLoader{}
}

// Load reads a text document from the given path.
func (l *TextLoader) Load(ctx context.Context, path string) (*entities.Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &entities.Document{
		ID:      generateDocID(path),
		Name:    filepath.Base(path),
		Path:    path,
		Content: string(content),
	}, nil
}

// PDFLoader loads PDF documents via the external extraction service.
type PDFLoader struct {
	serviceURL string
	client     *http.Client
}

// NewPDFLoader creates a PDF loader backed by the extraction service.
func NewPDFLoader(serviceURL string) *PDFLoader {
	if serviceURL == "" {
		serviceURL = "http://localhost:8081"
	}
	return &PDFLoader{
		serviceURL: serviceURL,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// extractResponse is the extraction service response format.
type extractResponse struct {
	Text  string `json:"text"`
	Pages int    `json:"pages"`
	Error string `json:"error,omitempty"`
}

// Load reads a PDF and extracts its text via the service.
func (l *PDFLoader) Load(ctx context.Context, path string) (*entities.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	text, err := l.extract(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("extracting %s: %w", filepath.Base(path), err)
	}

	return &entities.Document{
		ID:      generateDocID(path),
		Name:    filepath.Base(path),
		Path:    path,
		Content: text,
	}, nil
}

// extract calls the extraction service.
func (l *PDFLoader) extract(ctx context.Context, data []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", l.serviceURL+"/extract", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := l.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling extraction service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("extraction service returned status %d", resp.StatusCode)
	}

	var result extractResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if result.Error != "" {
		return "", fmt.Errorf("extraction error: %s", result.Error)
	}
	return result.Text, nil
}

// MultiLoader dispatches to a loader by file extension.
type MultiLoader struct {
	text *TextLoader
	pdf  *PDFLoader
}

// NewMultiLoader creates a loader that handles .txt, .md and .pdf sources.
func NewMultiLoader(pdfServiceURL string) *MultiLoader {
	return &MultiLoader{
		text: NewTextLoader(),
		pdf:  NewPDFLoader(pdfServiceURL),
	}
}

// Load dispatches to the appropriate loader based on extension.
func (m *MultiLoader) Load(ctx context.Context, path string) (*entities.Document, error) {
	if strings.ToLower(filepath.Ext(path)) == ".pdf" {
		return m.pdf.Load(ctx, path)
	}
	return m.text.Load(ctx, path)
}

// generateDocID creates a deterministic ID for a document from its path, so
// re-ingesting the same source produces the same chunk IDs.
func generateDocID(path string) string {
	hash := sha256.Sum256([]byte(path))
	return hex.EncodeToString(hash[:8])
}
