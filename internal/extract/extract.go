// Package extract converts free-text language-model replies into structured
// records. Models are asked for bare JSON but routinely wrap it in prose or
// markdown fences; the staged scans here recover the object anyway, and a
// deterministic fallback record guarantees a well-formed result for input
// that contains no object at all.
package extract

import (
	"encoding/json"
	"regexp"
	"strings"
)

// NoResponse is the message placed in the fallback record when the model
// produced no text at all.
const NoResponse = "No response"

// fencedRE matches the first triple-backtick block, optionally tagged json.
// The body match is non-greedy so a second fence later in the text is not
// swallowed into the first.
var fencedRE = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// Extract returns the first JSON object found in raw, or a fallback record
// when none parses. The fallback is a copy of fallback with textKey set to
// the raw text (or NoResponse when raw is blank), so the model's words are
// never silently dropped. Extract never fails and never returns nil.
func Extract(raw string, fallback map[string]any, textKey string) map[string]any {
	if obj, ok := Object(raw); ok {
		return obj
	}
	out := make(map[string]any, len(fallback)+1)
	for k, v := range fallback {
		out[k] = v
	}
	text := strings.TrimSpace(raw)
	if text == "" {
		text = NoResponse
	}
	out[textKey] = text
	return out
}

// Object runs the staged scans in order and stops at the first success:
// whole-input parse, first fenced block, then bracket scan. It reports false
// when no stage yields an object.
func Object(raw string) (map[string]any, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, false
	}
	if obj, ok := parseObject(trimmed); ok {
		return obj, true
	}
	if m := fencedRE.FindStringSubmatch(raw); m != nil {
		if obj, ok := parseObject(m[1]); ok {
			return obj, true
		}
	}
	return bracketScan(raw)
}

// parseObject parses s as JSON and reports success only for objects. Scalars
// and arrays decode fine as JSON but are not usable records, and "null"
// decodes into a nil map; all of those count as failures.
func parseObject(s string) (map[string]any, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil, false
	}
	if obj == nil {
		return nil, false
	}
	return obj, true
}

// bracketScan walks '{' positions left to right and, for each, tries every
// following '}' from nearest to farthest until a substring parses as an
// object. The first parseable span wins, so the scan prefers the leftmost
// start and the shortest extent; a greedy rightmost match would swallow
// trailing prose whenever the text ends with a stray brace. For nested
// objects the expansion past the inner '}' is what makes the outer object
// parseable.
func bracketScan(raw string) (map[string]any, bool) {
	for start := 0; ; start++ {
		off := strings.IndexByte(raw[start:], '{')
		if off < 0 {
			return nil, false
		}
		start += off
		end := start + 1
		for {
			off := strings.IndexByte(raw[end:], '}')
			if off < 0 {
				break
			}
			end += off + 1
			if obj, ok := parseObject(raw[start:end]); ok {
				return obj, true
			}
		}
	}
}
