package core

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/keatteoh99/medrock/internal/llm"
	"github.com/keatteoh99/medrock/pkg"
)

// Chat inference bounds. Conversation gets a higher temperature than
// classification.
const (
	chatMaxTokens   = 400
	chatTemperature = 0.7
	chatTopP        = 0.9

	// historyContextLimit is how many recent messages are folded into the
	// prompt as conversation context.
	historyContextLimit = 10
)

// HistoryStore is the append-only chat-history collaborator. Each turn
// appends rows; prior rows are never mutated.
type HistoryStore interface {
	Append(ctx context.Context, rec pkg.ChatRecord) error
	Recent(ctx context.Context, patientID string, limit int) ([]pkg.ChatRecord, error)
}

// FacilityFinder is the geo-search collaborator. Results are consumed as-is,
// not re-validated here.
type FacilityFinder interface {
	SearchNearby(ctx context.Context, lon, lat float64, category string, radiusM int32) ([]pkg.Facility, error)
}

// ChatService orchestrates the conversation between a patient and the
// assistant: it folds recent history into the prompt, invokes the model
// backend, and appends both sides of the exchange to the history store.
type ChatService struct {
	llm     llm.Client
	history HistoryStore
	places  FacilityFinder
	logger  *slog.Logger
}

// NewChatService constructs a chat orchestrator. logger may be nil.
func NewChatService(client llm.Client, history HistoryStore, places FacilityFinder, logger *slog.Logger) *ChatService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatService{llm: client, history: history, places: places, logger: logger}
}

// Chat generates the assistant's reply to one patient message. The user
// message is persisted before the model call; the reply is persisted after.
// A failed append of the reply does not lose the reply: the conversation is
// worth more than the history row, so the error is logged and the reply
// returned anyway.
func (s *ChatService) Chat(ctx context.Context, patientID, message string) (string, error) {
	recent, err := s.history.Recent(ctx, patientID, historyContextLimit)
	if err != nil {
		return "", fmt.Errorf("load chat history: %w", err)
	}
	if len(recent) == 0 {
		// First contact: open the transcript with the standing greeting so
		// later turns see it as context.
		greeting := pkg.ChatRecord{
			PatientID: patientID,
			Role:      pkg.RoleAssistant,
			Message:   Greeting,
		}
		if err := s.history.Append(ctx, greeting); err != nil {
			s.logger.Warn("failed to append greeting", "patient_id", patientID, "error", err)
		}
		recent = []pkg.ChatRecord{greeting}
	}
	if err := s.history.Append(ctx, pkg.ChatRecord{
		PatientID: patientID,
		Role:      pkg.RoleUser,
		Message:   message,
	}); err != nil {
		return "", fmt.Errorf("append user message: %w", err)
	}
	prompt := buildChatPrompt(recent, message)
	reply, err := s.llm.Generate(ctx, prompt, llm.InferenceConfig{
		MaxTokens:   chatMaxTokens,
		Temperature: chatTemperature,
		TopP:        chatTopP,
	})
	if err != nil {
		return "", fmt.Errorf("generate reply: %w", err)
	}
	if err := s.history.Append(ctx, pkg.ChatRecord{
		PatientID: patientID,
		Role:      pkg.RoleAssistant,
		Message:   reply,
	}); err != nil {
		s.logger.Warn("failed to append assistant message", "patient_id", patientID, "error", err)
	}
	return reply, nil
}

// NearbyFacilities looks up medical facilities around the patient and
// returns both the normalized list and a formatted message suitable for the
// conversation. The formatted result is appended to the history with the
// facility list attached as metadata.
func (s *ChatService) NearbyFacilities(ctx context.Context, patientID string, lat, lon float64, category string, radiusM int32) (string, []pkg.Facility, error) {
	facilities, err := s.places.SearchNearby(ctx, lon, lat, category, radiusM)
	if err != nil {
		return "", nil, fmt.Errorf("search nearby facilities: %w", err)
	}
	msg := FormatFacilities(facilities)
	rec := pkg.ChatRecord{
		PatientID: patientID,
		Role:      pkg.RoleAssistant,
		Message:   msg,
	}
	if encoded, err := json.Marshal(facilities); err == nil && len(facilities) > 0 {
		rec.Facilities = string(encoded)
	}
	if err := s.history.Append(ctx, rec); err != nil {
		s.logger.Warn("failed to append facility message", "patient_id", patientID, "error", err)
	}
	return msg, facilities, nil
}

// buildChatPrompt assembles the persona, the recent conversation as JSON
// context, the new message, and the standing instructions. Records arrive
// most-recent-first from the store and are reversed into chronological
// order for the model.
func buildChatPrompt(recent []pkg.ChatRecord, message string) string {
	type turn struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	turns := make([]turn, 0, len(recent))
	for i := len(recent) - 1; i >= 0; i-- {
		turns = append(turns, turn{Role: string(recent[i].Role), Content: recent[i].Message})
	}
	context, err := json.MarshalIndent(turns, "", "  ")
	if err != nil {
		context = []byte("[]")
	}
	var b strings.Builder
	b.WriteString(ChatPersona)
	b.WriteString("\nCurrent patient context: ")
	b.Write(context)
	b.WriteString("\nUser's new message: \"")
	b.WriteString(message)
	b.WriteString("\"\n\n")
	b.WriteString(ChatInstructions)
	return b.String()
}

// FormatFacilities renders the facility list as a numbered text block for
// the conversation.
func FormatFacilities(facilities []pkg.Facility) string {
	if len(facilities) == 0 {
		return NoFacilitiesMessage
	}
	var b strings.Builder
	b.WriteString("Here are some nearby facilities:\n")
	for i, f := range facilities {
		fmt.Fprintf(&b, "%d. %s (%s)\n", i+1, f.Name, f.Category)
		fmt.Fprintf(&b, "   Address: %s\n", f.Address)
		fmt.Fprintf(&b, "   Phone: %s\n", f.Phone)
		if f.OpenNow != nil {
			open := "No"
			if *f.OpenNow {
				open = "Yes"
			}
			fmt.Fprintf(&b, "   Open now: %s\n", open)
		}
		fmt.Fprintf(&b, "   Distance: %d meters\n", f.DistanceM)
	}
	return b.String()
}
