package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/keatteoh99/medrock/internal/agent"
	"github.com/keatteoh99/medrock/internal/llm"
	"github.com/keatteoh99/medrock/pkg"
)

type severityRequest struct {
	SymptomText string `json:"symptom_text"`
}

func (s *Server) handleSeverity(w http.ResponseWriter, r *http.Request) {
	var req severityRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.SymptomText) == "" {
		Error(w, http.StatusBadRequest, "symptom_text is required")
		return
	}
	assessment, err := s.Classifier.Classify(r.Context(), req.SymptomText)
	if err != nil {
		s.Logger.Error("severity classification failed", "error", err)
		if errors.Is(err, llm.ErrUnavailable) {
			Error(w, http.StatusInternalServerError, "model backend unavailable")
			return
		}
		Error(w, http.StatusInternalServerError, "classification failed")
		return
	}
	JSON(w, http.StatusOK, assessment)
}

type chatRequest struct {
	PatientID string `json:"patient_id"`
	Message   string `json:"message"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !decode(w, r, &req) {
		return
	}
	if req.PatientID == "" {
		Error(w, http.StatusBadRequest, "patient_id is required")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		Error(w, http.StatusBadRequest, "message is required")
		return
	}
	reply, err := s.Chat.Chat(r.Context(), req.PatientID, req.Message)
	if err != nil {
		s.Logger.Error("chat turn failed", "patient_id", req.PatientID, "error", err)
		Error(w, http.StatusInternalServerError, "chat failed")
		return
	}
	JSON(w, http.StatusOK, chatResponse{Reply: reply})
}

type agentRequest struct {
	SessionID     string              `json:"sessionId"`
	Prompt        string              `json:"prompt,omitempty"`
	ReturnControl *agentResultRequest `json:"returnControl,omitempty"`
}

type agentResultRequest struct {
	InvocationID     string `json:"invocationId"`
	ActionGroup      string `json:"actionGroup"`
	Function         string `json:"function"`
	InvocationResult string `json:"invocationResult"`
}

type agentResponse struct {
	Completion    string                    `json:"completion"`
	ReturnControl *pkg.ReturnControlRequest `json:"returnControl,omitempty"`
}

// handleAgent serves both halves of the continuation protocol: a prompt
// starts a turn, a returnControl payload resumes the pending one. Exactly
// one of the two must be present.
func (s *Server) handleAgent(w http.ResponseWriter, r *http.Request) {
	if s.Agent == nil {
		Error(w, http.StatusServiceUnavailable, "agent is not configured")
		return
	}
	var req agentRequest
	if !decode(w, r, &req) {
		return
	}
	if req.SessionID == "" {
		Error(w, http.StatusBadRequest, "sessionId is required")
		return
	}
	hasPrompt := strings.TrimSpace(req.Prompt) != ""
	if hasPrompt == (req.ReturnControl != nil) {
		Error(w, http.StatusBadRequest, "exactly one of prompt or returnControl is required")
		return
	}

	var (
		out agent.TurnResult
		err error
	)
	if hasPrompt {
		out, err = s.Agent.StartTurn(r.Context(), req.SessionID, req.Prompt)
	} else {
		rc := req.ReturnControl
		if rc.InvocationID == "" || rc.ActionGroup == "" || rc.Function == "" {
			Error(w, http.StatusBadRequest, "invocationId, actionGroup and function are required")
			return
		}
		out, err = s.Agent.ResumeTurn(r.Context(), req.SessionID, agent.Result{
			InvocationID: rc.InvocationID,
			ActionGroup:  rc.ActionGroup,
			Function:     rc.Function,
			ResultText:   rc.InvocationResult,
		})
	}
	if err != nil {
		s.writeAgentError(w, req.SessionID, err)
		return
	}

	resp := agentResponse{Completion: out.Completion}
	if out.ReturnControl != nil {
		resp.ReturnControl = &out.ReturnControl.Payload
	}
	JSON(w, http.StatusOK, resp)
}

func (s *Server) writeAgentError(w http.ResponseWriter, sessionID string, err error) {
	s.Logger.Error("agent turn failed", "session_id", sessionID, "error", err)
	switch {
	case errors.Is(err, agent.ErrCorrelationMismatch):
		Error(w, http.StatusConflict, "invocation result does not match the pending invocation")
	case errors.Is(err, agent.ErrPendingInvocation):
		Error(w, http.StatusConflict, "session has a pending invocation awaiting its result")
	case errors.Is(err, agent.ErrTurnExpired):
		Error(w, http.StatusGone, "pending invocation expired")
	default:
		Error(w, http.StatusInternalServerError, "agent turn failed")
	}
}

type facilitiesRequest struct {
	PatientID string  `json:"patient_id"`
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
	Category  string  `json:"category"`
	Radius    int32   `json:"radius"`
}

type facilitiesResponse struct {
	Message    string         `json:"message"`
	Facilities []pkg.Facility `json:"facilities"`
}

func (s *Server) handleFacilities(w http.ResponseWriter, r *http.Request) {
	var req facilitiesRequest
	if !decode(w, r, &req) {
		return
	}
	if req.PatientID == "" {
		Error(w, http.StatusBadRequest, "patient_id is required")
		return
	}
	if req.Latitude < -90 || req.Latitude > 90 || req.Longitude < -180 || req.Longitude > 180 {
		Error(w, http.StatusBadRequest, "latitude/longitude out of range")
		return
	}
	msg, facilities, err := s.Chat.NearbyFacilities(r.Context(), req.PatientID, req.Latitude, req.Longitude, req.Category, req.Radius)
	if err != nil {
		s.Logger.Error("facility search failed", "patient_id", req.PatientID, "error", err)
		Error(w, http.StatusInternalServerError, "facility search failed")
		return
	}
	if facilities == nil {
		facilities = []pkg.Facility{}
	}
	JSON(w, http.StatusOK, facilitiesResponse{Message: msg, Facilities: facilities})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	patientID := chi.URLParam(r, "id")
	if patientID == "" {
		Error(w, http.StatusBadRequest, "patient id is required")
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			Error(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	records, err := s.History.Recent(r.Context(), patientID, limit)
	if err != nil {
		s.Logger.Error("history query failed", "patient_id", patientID, "error", err)
		Error(w, http.StatusInternalServerError, "history query failed")
		return
	}
	if records == nil {
		records = []pkg.ChatRecord{}
	}
	JSON(w, http.StatusOK, map[string]any{
		"patient_id": patientID,
		"records":    records,
	})
}

type reportResponse struct {
	PDFURL string `json:"pdf_url"`
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if s.Reports == nil {
		Error(w, http.StatusServiceUnavailable, "report generation is not configured")
		return
	}
	var req pkg.ReportRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Patient.PatientID == "" {
		Error(w, http.StatusBadRequest, "patient.patient_id is required")
		return
	}
	url, err := s.Reports.Generate(r.Context(), req)
	if err != nil {
		s.Logger.Error("report generation failed", "patient_id", req.Patient.PatientID, "error", err)
		Error(w, http.StatusInternalServerError, "report generation failed")
		return
	}
	JSON(w, http.StatusOK, reportResponse{PDFURL: url})
}
