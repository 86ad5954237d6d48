package core

import (
	"context"
	"fmt"

	"github.com/keatteoh99/medrock/internal/extract"
	"github.com/keatteoh99/medrock/internal/llm"
	"github.com/keatteoh99/medrock/pkg"
)

// Classification inference bounds. Low temperature because this is a
// classification task, not open-ended generation.
const (
	classifyMaxTokens   = 300
	classifyTemperature = 0.3
	classifyTopP        = 0.9
)

// Classifier turns a free-text symptom description into a typed
// SeverityAssessment. A backend failure is surfaced to the caller unretried;
// retry policy belongs to the orchestrator, which knows the latency and cost
// budget of a repeated inference call.
type Classifier struct {
	llm llm.Client
}

// NewClassifier constructs a severity classifier backed by the given model
// client.
func NewClassifier(client llm.Client) *Classifier {
	return &Classifier{llm: client}
}

// Classify invokes the model with the triage instruction and extracts a
// structured assessment from whatever text comes back. Malformed model
// output never fails the call: the extractor's fallback yields an Unknown
// assessment carrying the raw reply in its reason.
func (c *Classifier) Classify(ctx context.Context, symptomText string) (pkg.SeverityAssessment, error) {
	prompt := TriageInstruction + "\n\nSymptom description: " + symptomText
	raw, err := c.llm.Generate(ctx, prompt, llm.InferenceConfig{
		MaxTokens:   classifyMaxTokens,
		Temperature: classifyTemperature,
		TopP:        classifyTopP,
	})
	if err != nil {
		return pkg.SeverityAssessment{}, fmt.Errorf("classify severity: %w", err)
	}
	fields := extract.Extract(raw, map[string]any{
		"severity":            string(pkg.SeverityUnknown),
		"recommendation":      "Retry classification",
		"symptoms":            []any{},
		"possible_conditions": []any{},
	}, "reason")
	return assessmentFromFields(fields), nil
}

// assessmentFromFields converts the extractor's generic record into a typed
// assessment, normalizing the severity label and guaranteeing a non-empty
// reason whenever the severity falls back to Unknown.
func assessmentFromFields(fields map[string]any) pkg.SeverityAssessment {
	rawSeverity := stringField(fields, "severity")
	a := pkg.SeverityAssessment{
		Severity:           pkg.ParseSeverity(rawSeverity),
		Reason:             stringField(fields, "reason"),
		Recommendation:     stringField(fields, "recommendation"),
		Symptoms:           symptomsField(fields, "symptoms"),
		PossibleConditions: stringsField(fields, "possible_conditions"),
	}
	if a.Severity == pkg.SeverityUnknown && a.Reason == "" {
		if rawSeverity != "" {
			a.Reason = fmt.Sprintf("unrecognized severity %q", rawSeverity)
		} else {
			a.Reason = extract.NoResponse
		}
	}
	if a.Symptoms == nil {
		a.Symptoms = []pkg.Symptom{}
	}
	if a.PossibleConditions == nil {
		a.PossibleConditions = []string{}
	}
	return a
}

func stringField(fields map[string]any, key string) string {
	if s, ok := fields[key].(string); ok {
		return s
	}
	return ""
}

func stringsField(fields map[string]any, key string) []string {
	items, ok := fields[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func symptomsField(fields map[string]any, key string) []pkg.Symptom {
	items, ok := fields[key].([]any)
	if !ok {
		return nil
	}
	out := make([]pkg.Symptom, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, pkg.Symptom{
			Name:     stringField(m, "name"),
			Severity: stringField(m, "severity"),
			Duration: stringField(m, "duration"),
		})
	}
	return out
}
