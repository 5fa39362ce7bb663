// Package entities contains core business entities.
// These are the enterprise business rules - pure domain objects with no external dependencies.
package entities

// Document represents a source legal text (statute, regulation, order).
// Immutable once loaded and tagged with its jurisdiction.
type Document struct {
	ID           string
	Name         string // human-readable source name, e.g. "Malaysia"
	Path         string
	Content      string
	Jurisdiction string // short tag, e.g. "MY", "SG"
}

// Chunk is an overlapping sub-span of a Document prepared for embedding.
// Every chunk carries exactly the jurisdiction tag of its parent document.
type Chunk struct {
	ID           string
	DocumentID   string
	Content      string
	Index        int // position within the parent document
	Jurisdiction string
	Embedding    []float32 // populated by the embedding adapter
}

// RetrievalResult is a matching chunk with its similarity score.
// Ephemeral: produced per query, never persisted.
type RetrievalResult struct {
	Chunk Chunk
	Score float64
}

// Message roles within a conversation.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage represents one conversation turn.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// QueryRequest is one invocation of the dialogue loop. Immutable per call.
// History carries prior turns when the caller resubmits a session after a
// follow-up question.
type QueryRequest struct {
	Question    string
	Country     string
	FromCountry string
	ToCountry   string
	History     []ChatMessage
}

// QueryResponse is the terminal output of one dialogue-loop invocation:
// either a final answer, or a clarifying follow-up question.
type QueryResponse struct {
	Answer   string
	FollowUp bool
	Message  string
}

// LawSource describes one entry in the ingestion manifest.
type LawSource struct {
	Path         string `yaml:"path"`
	Name         string `yaml:"name"`
	Jurisdiction string `yaml:"jurisdiction"`
}
