package extract_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/keatteoh99/medrock/internal/extract"
)

func fallbackFields() map[string]any {
	return map[string]any{
		"severity":       "Unknown",
		"recommendation": "Retry classification",
	}
}

func TestExtractDirectParse(t *testing.T) {
	raw := `{"severity":"mild","reason":"sore throat","recommendation":"rest"}`
	got := extract.Extract(raw, fallbackFields(), "reason")
	require.Equal(t, "mild", got["severity"])
	require.Equal(t, "sore throat", got["reason"])
	require.Equal(t, "rest", got["recommendation"])
}

func TestExtractFencedBlock(t *testing.T) {
	raw := "Sure! ```json\n{\"severity\":\"severe\",\"reason\":\"chest pain\",\"recommendation\":\"ER now\",\"symptoms\":[],\"possible_conditions\":[]}\n```"
	got := extract.Extract(raw, fallbackFields(), "reason")
	require.Equal(t, "severe", got["severity"])
	require.Equal(t, "chest pain", got["reason"])
	require.Equal(t, "ER now", got["recommendation"])
	require.Empty(t, got["symptoms"])
	require.Empty(t, got["possible_conditions"])
}

func TestExtractFencedBlockWithoutTag(t *testing.T) {
	raw := "Here you go:\n```\n{\"severity\":\"moderate\"}\n```\nHope that helps."
	got := extract.Extract(raw, fallbackFields(), "reason")
	require.Equal(t, "moderate", got["severity"])
}

func TestExtractBracketScanInsideProse(t *testing.T) {
	raw := `The assessment is {"severity":"mild","reason":"cough"} based on your description.`
	got := extract.Extract(raw, fallbackFields(), "reason")
	require.Equal(t, "mild", got["severity"])
	require.Equal(t, "cough", got["reason"])
}

func TestExtractBracketScanNestedObject(t *testing.T) {
	// The shortest bracket pair is not parseable here; the scan must expand
	// past the inner closing brace to recover the outer object.
	raw := `Result: {"severity":"severe","vitals":{"hr":120},"reason":"tachycardia"} done`
	got := extract.Extract(raw, fallbackFields(), "reason")
	require.Equal(t, "severe", got["severity"])
	require.Equal(t, "tachycardia", got["reason"])
	vitals, ok := got["vitals"].(map[string]any)
	require.True(t, ok)
	require.InDelta(t, 120.0, vitals["hr"], 0.001)
}

func TestExtractPicksFirstObjectOnly(t *testing.T) {
	raw := `{"severity":"mild"} and later {"severity":"severe"}`
	got := extract.Extract(raw, fallbackFields(), "reason")
	require.Equal(t, "mild", got["severity"])
	_, hasReason := got["reason"]
	require.False(t, hasReason)
}

func TestExtractDoesNotSwallowTrailingProse(t *testing.T) {
	// A greedy match would pair the first '{' with the final '}' and fail to
	// parse; the leftmost-shortest policy recovers the object.
	raw := `{"severity":"mild"} anyway, see {you} later`
	got := extract.Extract(raw, fallbackFields(), "reason")
	require.Equal(t, "mild", got["severity"])
	require.Len(t, got, 1)
}

func TestExtractScalarAndArrayAreNotObjects(t *testing.T) {
	for _, raw := range []string{`42`, `"severe"`, `[1,2,3]`, `null`, `true`} {
		got := extract.Extract(raw, fallbackFields(), "reason")
		require.Equal(t, "Unknown", got["severity"], "input %q", raw)
		require.Equal(t, raw, got["reason"], "input %q", raw)
	}
}

func TestExtractFallbackPreservesRawText(t *testing.T) {
	raw := "I'm sorry, I cannot classify that."
	got := extract.Extract(raw, fallbackFields(), "reason")
	require.Equal(t, "Unknown", got["severity"])
	require.Equal(t, "Retry classification", got["recommendation"])
	require.Equal(t, raw, got["reason"])
}

func TestExtractEmptyInput(t *testing.T) {
	for _, raw := range []string{"", "   \n\t"} {
		got := extract.Extract(raw, fallbackFields(), "reason")
		require.Equal(t, extract.NoResponse, got["reason"])
		require.Equal(t, "Unknown", got["severity"])
	}
}

func TestExtractMalformedFenceFallsThrough(t *testing.T) {
	// Broken JSON inside the fence; the bracket scan then finds the valid
	// object later in the prose.
	raw := "```json\n{\"severity\": oops}\n```\nActually: {\"severity\":\"moderate\"}"
	got := extract.Extract(raw, fallbackFields(), "reason")
	require.Equal(t, "moderate", got["severity"])
}

func TestObjectReportsNoMatch(t *testing.T) {
	_, ok := extract.Object("no braces here")
	require.False(t, ok)
	_, ok = extract.Object("unclosed {brace")
	require.False(t, ok)
}
