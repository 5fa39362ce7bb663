// Package llm provides the Gemini chat-model adapter.
// Clean Architecture: Adapter implementing ports.ChatModel.
package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/seaport-labs/lexrag/internal/domain/entities"
)

// GeminiAdapter implements ports.ChatModel using Google's Gemini API.
// Temperature is pinned to 0: legal answers should not vary between runs.
type GeminiAdapter struct {
	client *genai.Client
	model  string
}

// NewGeminiAdapter creates a new Gemini chat adapter.
func NewGeminiAdapter(ctx context.Context, apiKey, model string) (*GeminiAdapter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}

	return &GeminiAdapter{client: client, model: model}, nil
}

// Invoke sends the ordered message sequence to the model and returns its
// text output. System messages become the system instruction; user and
// assistant turns map to user and model contents.
func (a *GeminiAdapter) Invoke(ctx context.Context, messages []entities.ChatMessage) (string, error) {
	var system string
	var contents []*genai.Content
	for _, m := range messages {
		switch m.Role {
		case entities.RoleSystem:
			system = m.Content
		case entities.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}

	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0),
	}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	resp, err := a.client.Models.GenerateContent(ctx, a.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("Gemini generate failed: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("Gemini returned no content")
	}
	return text, nil
}
