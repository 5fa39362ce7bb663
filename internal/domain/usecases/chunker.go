// Package usecases contains application business rules.
// Clean Architecture: Usecases orchestrate entities and depend on port interfaces.
// They contain NO framework code - just the retrieval engine's logic.
package usecases

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/seaport-labs/lexrag/internal/domain/entities"
)

// Chunker splits documents into fixed-size overlapping segments.
// Splitting is deterministic and length-based, not semantic.
type Chunker struct {
	size    int // max chunk length in runes
	overlap int // runes shared between consecutive chunks
}

// NewChunker creates a Chunker. Non-positive size falls back to 1000,
// negative overlap to 100; overlap is clamped below size.
func NewChunker(size, overlap int) *Chunker {
	if size <= 0 {
		size = 1000
	}
	if overlap < 0 {
		overlap = 100
	}
	if overlap >= size {
		overlap = size / 10
	}
	return &Chunker{size: size, overlap: overlap}
}

// Split cuts the document into ordered overlapping chunks that cover its
// whole text. Every chunk inherits the parent's jurisdiction tag. An empty
// document yields no chunks and no error.
func (c *Chunker) Split(doc *entities.Document) []entities.Chunk {
	content := []rune(doc.Content)
	if len(content) == 0 {
		return nil
	}

	step := c.size - c.overlap
	var chunks []entities.Chunk
	for start, index := 0, 0; start < len(content); start, index = start+step, index+1 {
		end := start + c.size
		if end > len(content) {
			end = len(content)
		}
		chunks = append(chunks, entities.Chunk{
			ID:           chunkID(doc.ID, index),
			DocumentID:   doc.ID,
			Content:      string(content[start:end]),
			Index:        index,
			Jurisdiction: doc.Jurisdiction,
		})
		if end == len(content) {
			break
		}
	}
	return chunks
}

// Overlap returns the configured overlap length.
func (c *Chunker) Overlap() int { return c.overlap }

// chunkID derives a deterministic chunk ID from the parent document and the
// chunk position, so re-ingestion overwrites vectors instead of duplicating.
func chunkID(docID string, index int) string {
	hash := sha256.Sum256([]byte(fmt.Sprintf("%s:%d", docID, index)))
	return hex.EncodeToString(hash[:8])
}
