package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/seaport-labs/lexrag/internal/domain/entities"
	"github.com/seaport-labs/lexrag/internal/domain/ports"
)

// ErrMissingQuestion is returned when the request carries no question.
var ErrMissingQuestion = errors.New("missing question")

// noResultsAnswer is returned without invoking the model when retrieval
// finds nothing relevant.
const noResultsAnswer = "I could not find relevant legal documents for your question. " +
	"Please try rephrasing or ask about specific import/export regulations for Malaysia or Singapore."

// clarificationFallback stands in for assistant output when generation fails.
const clarificationFallback = "I could not produce a confident answer. " +
	"Could you restate your question with the item, origin, and destination?"

// QueryUseCase is the confidence-gated dialogue loop: retrieve, assemble the
// prompt, invoke the model, parse the confidence signal, and either finish
// with an answer or hand a clarifying follow-up back to the caller.
type QueryUseCase struct {
	retriever *Retriever
	model     ports.ChatModel
	threshold int // confidence gate, percent
	maxTurns  int // bound on resubmission-driven refinement
	log       *zap.Logger
}

// NewQueryUseCase creates a QueryUseCase with injected dependencies.
func NewQueryUseCase(retriever *Retriever, model ports.ChatModel, threshold, maxTurns int, log *zap.Logger) *QueryUseCase {
	if threshold <= 0 {
		threshold = 80
	}
	if maxTurns <= 0 {
		maxTurns = 5
	}
	return &QueryUseCase{
		retriever: retriever,
		model:     model,
		threshold: threshold,
		maxTurns:  maxTurns,
		log:       log,
	}
}

// Query runs one retrieve-generate-evaluate cycle. A confident generation
// (or an exhausted turn budget) yields a final answer; anything else yields
// a follow-up question immediately. Refinement across turns is
// resubmission-driven: the caller posts again with accumulated history.
func (uc *QueryUseCase) Query(ctx context.Context, req *entities.QueryRequest) (*entities.QueryResponse, error) {
	if strings.TrimSpace(req.Question) == "" {
		return nil, ErrMissingQuestion
	}

	results, err := uc.retriever.Retrieve(ctx, req.Question, req.JurisdictionFilter())
	if err != nil {
		return nil, fmt.Errorf("retrieving context: %w", err)
	}
	if len(results) == 0 {
		uc.log.Info("no relevant documents found", zap.String("question", req.Question))
		return &entities.QueryResponse{Answer: noResultsAnswer}, nil
	}

	messages := BuildMessages(req.History, results, req.Question, req.FromCountry, req.ToCountry)
	content, err := uc.model.Invoke(ctx, messages)
	if err != nil {
		// A failed generation never terminates the session, not even on the
		// last budgeted turn: the placeholder must not become a final answer.
		uc.log.Warn("model invocation failed", zap.Error(err))
		return &entities.QueryResponse{FollowUp: true, Message: clarificationFallback, Answer: clarificationFallback}, nil
	}

	confidence := ExtractConfidence(content)
	turn := assistantTurns(req.History) + 1
	uc.log.Debug("evaluated turn",
		zap.Int("turn", turn),
		zap.Int("confidence", confidence),
		zap.Int("results", len(results)))

	if confidence >= uc.threshold || turn >= uc.maxTurns {
		return &entities.QueryResponse{Answer: content}, nil
	}
	return &entities.QueryResponse{FollowUp: true, Message: content, Answer: content}, nil
}

// assistantTurns counts prior assistant turns in the session history.
func assistantTurns(history []entities.ChatMessage) int {
	n := 0
	for _, m := range history {
		if m.Role == entities.RoleAssistant {
			n++
		}
	}
	return n
}
