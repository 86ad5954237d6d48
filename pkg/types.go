package pkg

import "time"

// Severity is the clinical urgency tier assigned to a symptom description.
// Unknown is the fallback for output the classifier could not interpret.
type Severity string

const (
	SeverityMild     Severity = "Mild"
	SeverityModerate Severity = "Moderate"
	SeveritySevere   Severity = "Severe"
	SeverityUnknown  Severity = "Unknown"
)

// ParseSeverity maps free-form model output ("severe", "MILD", ...) onto the
// severity enum. Anything unrecognized becomes SeverityUnknown.
func ParseSeverity(s string) Severity {
	switch {
	case equalsFold(s, string(SeverityMild)):
		return SeverityMild
	case equalsFold(s, string(SeverityModerate)):
		return SeverityModerate
	case equalsFold(s, string(SeveritySevere)):
		return SeveritySevere
	default:
		return SeverityUnknown
	}
}

// equalsFold is an ASCII-only case-insensitive comparison. Severity labels
// are plain ASCII so full Unicode folding is not needed.
func equalsFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// Symptom is a single reported symptom within an assessment.
type Symptom struct {
	Name     string `json:"name"`
	Severity string `json:"severity,omitempty"`
	Duration string `json:"duration,omitempty"`
}

// SeverityAssessment is the structured result of a triage classification.
// Severity is always one of the enum values; Reason is non-empty whenever the
// severity is Unknown so no model output is silently dropped.
type SeverityAssessment struct {
	Severity           Severity  `json:"severity"`
	Reason             string    `json:"reason"`
	Recommendation     string    `json:"recommendation"`
	Symptoms           []Symptom `json:"symptoms"`
	PossibleConditions []string  `json:"possible_conditions"`
}

// MessageRole describes who authored a chat message.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// ChatRecord is one append-only row of a patient's chat history. Severity,
// Recommendation and Facilities are optional metadata attached to assistant
// messages.
type ChatRecord struct {
	PatientID      string      `json:"patient_id" dynamodbav:"patient_id"`
	Timestamp      string      `json:"timestamp" dynamodbav:"timestamp"`
	ConversationID string      `json:"conversation_id" dynamodbav:"conversation_id"`
	Role           MessageRole `json:"message_role" dynamodbav:"message_role"`
	Message        string      `json:"message_text" dynamodbav:"message_text"`
	Severity       string      `json:"severity,omitempty" dynamodbav:"severity,omitempty"`
	Recommendation string      `json:"recommendation,omitempty" dynamodbav:"recommendation,omitempty"`
	Facilities     string      `json:"facilities,omitempty" dynamodbav:"facilities,omitempty"`
	CreatedAt      time.Time   `json:"created_at" dynamodbav:"created_at"`
}

// Facility is a normalized nearby medical facility. OpenNow is nil when the
// provider did not report opening hours.
type Facility struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	DistanceM int64   `json:"distance_m"`
	Phone     string  `json:"phone"`
	Website   string  `json:"website"`
	Category  string  `json:"category"`
	OpenNow   *bool   `json:"open_now"`
}

// FunctionParameter is a single input parameter the agent supplies for a
// client-executed function call.
type FunctionParameter struct {
	Name  string `json:"name"`
	Type  string `json:"type,omitempty"`
	Value string `json:"value"`
}

// FunctionInvocation names a function the caller must execute on the agent's
// behalf, together with its inputs.
type FunctionInvocation struct {
	ActionGroup string              `json:"actionGroup"`
	Function    string              `json:"function"`
	Parameters  []FunctionParameter `json:"parameters,omitempty"`
}

// ReturnControlRequest is the payload the agent emits when it pauses a turn
// and hands control back to the caller. The invocation ID correlates the
// eventual result with this pause.
type ReturnControlRequest struct {
	InvocationID     string               `json:"invocationId"`
	InvocationInputs []FunctionInvocation `json:"invocationInputs"`
}

// PatientInfo is the administrative section of a medical report.
type PatientInfo struct {
	PatientID      string   `json:"patient_id"`
	Name           string   `json:"name"`
	Age            int      `json:"age"`
	Gender         string   `json:"gender"`
	MedicalHistory []string `json:"medical_history,omitempty"`
}

// ReportRequest carries everything needed to render a medical report.
type ReportRequest struct {
	Patient            PatientInfo `json:"patient"`
	Severity           Severity    `json:"severity"`
	Reason             string      `json:"reason"`
	Recommendation     string      `json:"recommendation"`
	Symptoms           []Symptom   `json:"symptoms,omitempty"`
	PossibleConditions []string    `json:"possible_conditions,omitempty"`
}
