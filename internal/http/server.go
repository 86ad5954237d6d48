// Package http provides the JSON API handlers.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/keatteoh99/medrock/internal/agent"
	"github.com/keatteoh99/medrock/pkg"
)

// SeverityClassifier produces a structured triage assessment.
type SeverityClassifier interface {
	Classify(ctx context.Context, symptomText string) (pkg.SeverityAssessment, error)
}

// ChatService handles conversational turns and facility lookups.
type ChatService interface {
	Chat(ctx context.Context, patientID, message string) (string, error)
	NearbyFacilities(ctx context.Context, patientID string, lat, lon float64, category string, radiusM int32) (string, []pkg.Facility, error)
}

// AgentService runs agent turns with the continuation protocol.
type AgentService interface {
	StartTurn(ctx context.Context, sessionID, prompt string) (agent.TurnResult, error)
	ResumeTurn(ctx context.Context, sessionID string, res agent.Result) (agent.TurnResult, error)
}

// HistoryReader serves transcript queries.
type HistoryReader interface {
	Recent(ctx context.Context, patientID string, limit int) ([]pkg.ChatRecord, error)
}

// ReportService renders and publishes medical reports.
type ReportService interface {
	Generate(ctx context.Context, req pkg.ReportRequest) (string, error)
}

// Server bundles the dependencies required by the HTTP handlers. Optional
// services may be nil; their endpoints then answer 503.
type Server struct {
	Classifier SeverityClassifier
	Chat       ChatService
	Agent      AgentService
	History    HistoryReader
	Reports    ReportService
	Logger     *slog.Logger
}

// NewServer constructs a Server. logger may be nil.
func NewServer(classifier SeverityClassifier, chat ChatService, agentSvc AgentService, history HistoryReader, reports ReportService, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		Classifier: classifier,
		Chat:       chat,
		Agent:      agentSvc,
		History:    history,
		Reports:    reports,
		Logger:     logger,
	}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/healthz"))

	r.Route("/api", func(r chi.Router) {
		r.Post("/severity", s.handleSeverity)
		r.Post("/chat", s.handleChat)
		r.Post("/agent", s.handleAgent)
		r.Post("/facilities", s.handleFacilities)
		r.Post("/reports", s.handleReport)
		r.Get("/patients/{id}/history", s.handleHistory)
	})
	return r
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}
