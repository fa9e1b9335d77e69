package anthropic

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/oralprep/interview-core/core/interviews"
)

// fenceLabelPattern matches the optional language label after an opening
// code fence, e.g. the "json" in "```json".
const fenceLabelPattern = `[a-z0-9_+\-]*`

var (
	backtickPrefixRe = regexp.MustCompile(`(?i)^` + "```" + fenceLabelPattern + `\s*`)
	backtickSuffixRe = regexp.MustCompile(`(?i)\s*` + "```" + `$`)
	tildePrefixRe    = regexp.MustCompile(`(?i)^~~~` + fenceLabelPattern + `\s*`)
	tildeSuffixRe    = regexp.MustCompile(`(?i)\s*~~~$`)
)

// sanitizeEvaluationText strips Markdown code fences the model sometimes
// wraps its JSON in, so the payload can be parsed.
func sanitizeEvaluationText(text string) string {
	sanitized := strings.TrimSpace(text)
	if sanitized == "" {
		return sanitized
	}

	sanitized = backtickPrefixRe.ReplaceAllString(sanitized, "")
	sanitized = backtickSuffixRe.ReplaceAllString(sanitized, "")
	sanitized = tildePrefixRe.ReplaceAllString(sanitized, "")
	sanitized = tildeSuffixRe.ReplaceAllString(sanitized, "")

	return strings.TrimSpace(sanitized)
}

// decodeEvaluation parses and normalizes a sanitized evaluation payload
// into a report. Malformed list entries are dropped; structurally wrong
// fields are an error.
func decodeEvaluation(raw string) (*interviews.Report, error) {
	var payload map[string]any
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("evaluation response is not a JSON object: %w", err)
	}
	if payload == nil {
		return nil, fmt.Errorf("evaluation response is not a JSON object")
	}

	normalized, err := normalizeEvaluation(payload)
	if err != nil {
		return nil, err
	}

	normalizedBytes, err := json.Marshal(normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to re-encode evaluation payload: %w", err)
	}

	report := interviews.Report{}
	if err := json.Unmarshal(normalizedBytes, &report); err != nil {
		return nil, fmt.Errorf("evaluation payload does not match the report shape: %w", err)
	}
	return &report, nil
}

func normalizeEvaluation(payload map[string]any) (map[string]any, error) {
	result := map[string]any{}
	for key, value := range payload {
		result[key] = value
	}

	if mode, present := result["mode"]; present && mode != nil && mode != "" {
		modeString, ok := mode.(string)
		if !ok {
			return nil, fmt.Errorf("evaluation mode must be a string")
		}
		result["mode"] = strings.ToLower(modeString)
	}

	for _, key := range []string{"criterion_scores", "equivalent_scores"} {
		if err := ensureObject(result, key); err != nil {
			return nil, err
		}
	}

	breakdown, err := ensureList(result, "question_breakdown")
	if err != nil {
		return nil, err
	}
	questions := []any{}
	for _, item := range breakdown {
		if _, ok := item.(map[string]any); ok {
			questions = append(questions, item)
		}
	}
	result["question_breakdown"] = questions

	for _, key := range []string{"strengths", "improvements"} {
		entries, err := ensureList(result, key)
		if err != nil {
			return nil, err
		}
		result[key] = filterStrings(entries)
	}

	examples := result["specific_examples"]
	if examples == nil {
		examples = map[string]any{}
	}
	exampleSet, ok := examples.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("field 'specific_examples' must be an object")
	}
	for _, key := range []string{"good", "needs_work"} {
		entries := exampleSet[key]
		if entries == nil {
			entries = []any{}
		}
		entryList, ok := entries.([]any)
		if !ok {
			return nil, fmt.Errorf("example lists must be arrays")
		}
		exampleSet[key] = filterStrings(entryList)
	}
	result["specific_examples"] = exampleSet

	if feedback, present := result["detailed_feedback"]; present && feedback != nil {
		if _, ok := feedback.(string); !ok {
			return nil, fmt.Errorf("field 'detailed_feedback' must be a string if provided")
		}
	}

	return result, nil
}

func ensureObject(payload map[string]any, key string) error {
	value := payload[key]
	if value == nil {
		payload[key] = map[string]any{}
		return nil
	}
	if _, ok := value.(map[string]any); !ok {
		return fmt.Errorf("field '%s' must be an object", key)
	}
	return nil
}

func ensureList(payload map[string]any, key string) ([]any, error) {
	value := payload[key]
	if value == nil {
		payload[key] = []any{}
		return []any{}, nil
	}
	list, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("field '%s' must be a list", key)
	}
	return list, nil
}

func filterStrings(entries []any) []any {
	filtered := []any{}
	for _, entry := range entries {
		if text, ok := entry.(string); ok && strings.TrimSpace(text) != "" {
			filtered = append(filtered, text)
		}
	}
	return filtered
}
