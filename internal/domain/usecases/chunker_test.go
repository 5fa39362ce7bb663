package usecases

import (
	"strings"
	"testing"

	"github.com/seaport-labs/lexrag/internal/domain/entities"
)

func TestChunker_CoversDocument(t *testing.T) {
	c := NewChunker(100, 20)
	doc := &entities.Document{ID: "d1", Content: strings.Repeat("abcdefghij", 50), Jurisdiction: "MY"}

	chunks := c.Split(doc)
	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}

	// Dropping each chunk's leading overlap reconstructs the document.
	var sb strings.Builder
	sb.WriteString(chunks[0].Content)
	for _, ch := range chunks[1:] {
		sb.WriteString(ch.Content[c.Overlap():])
	}
	if sb.String() != doc.Content {
		t.Error("chunks do not reconstruct the document")
	}
}

func TestChunker_MaxSizeAndOverlap(t *testing.T) {
	c := NewChunker(100, 20)
	doc := &entities.Document{ID: "d1", Content: strings.Repeat("x", 1000)}

	chunks := c.Split(doc)
	for i, ch := range chunks {
		if len(ch.Content) > 100 {
			t.Errorf("chunk %d exceeds max size: %d", i, len(ch.Content))
		}
		if i > 0 {
			prev := chunks[i-1].Content
			if !strings.HasPrefix(ch.Content, prev[len(prev)-20:]) {
				t.Errorf("chunk %d does not overlap its predecessor by 20", i)
			}
		}
	}
}

func TestChunker_InheritsJurisdiction(t *testing.T) {
	c := NewChunker(50, 10)
	doc := &entities.Document{ID: "d1", Content: strings.Repeat("law text ", 30), Jurisdiction: "SG"}

	for _, ch := range c.Split(doc) {
		if ch.Jurisdiction != "SG" {
			t.Fatalf("chunk lost jurisdiction tag: %q", ch.Jurisdiction)
		}
		if ch.DocumentID != "d1" {
			t.Fatalf("chunk lost document ID: %q", ch.DocumentID)
		}
	}
}

func TestChunker_EmptyDocument(t *testing.T) {
	c := NewChunker(100, 20)
	if chunks := c.Split(&entities.Document{ID: "d1"}); chunks != nil {
		t.Errorf("expected no chunks for empty document, got %d", len(chunks))
	}
}

func TestChunker_ShortDocument(t *testing.T) {
	c := NewChunker(1000, 100)
	doc := &entities.Document{ID: "d1", Content: "short text"}

	chunks := c.Split(doc)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Content != "short text" {
		t.Errorf("unexpected content: %q", chunks[0].Content)
	}
}

func TestChunker_DeterministicIDs(t *testing.T) {
	c := NewChunker(100, 20)
	doc := &entities.Document{ID: "d1", Content: strings.Repeat("y", 500)}

	first := c.Split(doc)
	second := c.Split(doc)
	if len(first) != len(second) {
		t.Fatal("chunk counts differ between runs")
	}
	seen := make(map[string]bool)
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("chunk %d ID not deterministic", i)
		}
		if seen[first[i].ID] {
			t.Errorf("duplicate chunk ID %s", first[i].ID)
		}
		seen[first[i].ID] = true
	}
}
