// Package extract parses loosely structured LLM replies into codes and
// confidence verdicts. Strict JSON decoding is attempted first; free-text
// replies fall back to a regex over code-shaped substrings.
package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// codePattern matches a simplified ICD-10 shape: one uppercase letter,
// one or two digits, optional decimal suffix. Intentionally lenient;
// real ICD-10 grammar also allows alphanumeric suffixes.
var codePattern = regexp.MustCompile(`\b[A-Z]\d{1,2}\.?\d*\b`)

// structuredReply mirrors the strict RAG-output payload shape. Both fields
// must be present for the structured path to be accepted.
type structuredReply struct {
	FinalCodes *[]string                `json:"finalCodes"`
	Content    *[]map[string]interface{} `json:"content"`
}

// Codes extracts ICD-10-like code strings from a model reply. A reply that
// decodes as a full structured payload yields its finalCodes verbatim;
// anything else is scanned with the regex fallback. A reply with neither
// yields an empty list.
func Codes(reply string) []string {
	var structured structuredReply
	if err := json.Unmarshal([]byte(StripFences(reply)), &structured); err == nil {
		if structured.FinalCodes != nil && structured.Content != nil {
			return *structured.FinalCodes
		}
	}
	matches := codePattern.FindAllString(reply, -1)
	if matches == nil {
		return []string{}
	}
	return matches
}

// StripFences removes an optional markdown code fence wrapping from a reply.
// The language tag on the opening fence is discarded with the fence line.
func StripFences(reply string) string {
	reply = strings.TrimSpace(reply)
	if !strings.HasPrefix(reply, "```") {
		return reply
	}
	lines := strings.Split(reply, "\n")
	if strings.HasPrefix(strings.TrimSpace(lines[0]), "```") {
		lines = lines[1:]
	}
	if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// ErrMalformedConfidence reports a confidence reply that could not be
// accepted: invalid JSON, score out of range, or empty evidence.
var ErrMalformedConfidence = errors.New("malformed confidence reply")

// confidenceReply is the expected scoring payload. Score is decoded as a
// float and truncated, matching lenient handling of models that emit
// fractional scores.
type confidenceReply struct {
	Score    *float64 `json:"score"`
	Evidence []string `json:"evidence"`
}

// Confidence parses a scoring reply into a score and evidence list.
// Missing keys fall back to the supplied defaults before validation, so a
// bare "{}" is accepted as the default pair. The score must land in
// [0,100] and evidence must be non-empty.
func Confidence(reply string, defaultScore int, defaultEvidence []string) (int, []string, error) {
	var parsed confidenceReply
	if err := json.Unmarshal([]byte(StripFences(reply)), &parsed); err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrMalformedConfidence, err)
	}

	score := defaultScore
	if parsed.Score != nil {
		score = int(*parsed.Score)
	}
	evidence := parsed.Evidence
	if evidence == nil {
		evidence = defaultEvidence
	}

	if score < 0 || score > 100 {
		return 0, nil, fmt.Errorf("%w: score %d out of range", ErrMalformedConfidence, score)
	}
	if len(evidence) == 0 {
		return 0, nil, fmt.Errorf("%w: empty evidence list", ErrMalformedConfidence)
	}
	return score, evidence, nil
}
