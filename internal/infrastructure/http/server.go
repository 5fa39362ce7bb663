// Package http provides the HTTP server infrastructure.
// Clean Architecture: Framework/driver layer - outermost circle.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seaport-labs/lexrag/internal/domain/entities"
	"github.com/seaport-labs/lexrag/internal/domain/usecases"
)

// followUpNote is attached to every follow-up response so the caller knows
// to solicit more user input.
const followUpNote = "Please provide clarification for the follow-up question."

// Server is the HTTP server for the query API.
type Server struct {
	queryUseCase *usecases.QueryUseCase
	addr         string
	log          *zap.Logger
}

// NewServer creates a new HTTP server.
func NewServer(queryUC *usecases.QueryUseCase, addr string, log *zap.Logger) *Server {
	return &Server{
		queryUseCase: queryUC,
		addr:         addr,
		log:          log,
	}
}

// Start runs the HTTP server until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/query", s.handleQuery)
	mux.HandleFunc("/health", s.handleHealth)

	server := &http.Server{
		Addr:         s.addr,
		Handler:      corsMiddleware(s.loggingMiddleware(mux)),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
	}

	s.log.Info("server starting", zap.String("addr", s.addr))

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	err := server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// queryRequest is the /query request body.
type queryRequest struct {
	Question    string                 `json:"question"`
	Country     string                 `json:"country,omitempty"`
	FromCountry string                 `json:"fromCountry,omitempty"`
	ToCountry   string                 `json:"toCountry,omitempty"`
	History     []entities.ChatMessage `json:"history,omitempty"`
}

// handleQuery runs one dialogue-loop invocation.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
		return
	}

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}
	if req.Question == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing question"})
		return
	}

	resp, err := s.queryUseCase.Query(r.Context(), &entities.QueryRequest{
		Question:    req.Question,
		Country:     req.Country,
		FromCountry: req.FromCountry,
		ToCountry:   req.ToCountry,
		History:     req.History,
	})
	if err != nil {
		if errors.Is(err, usecases.ErrMissingQuestion) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing question"})
			return
		}
		// Internal detail stays in the log, not in the response.
		s.log.Error("query failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to process query"})
		return
	}

	if resp.FollowUp {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"followUp": true,
			"message":  resp.Message,
			"answer":   resp.Answer,
			"note":     followUpNote,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"answer": resp.Answer})
}

// handleHealth returns server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()
		next.ServeHTTP(w, r)
		s.log.Info("request",
			zap.String("request_id", requestID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)))
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			return
		}
		next.ServeHTTP(w, r)
	})
}
