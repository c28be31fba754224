// Package schema reshapes pipeline results into the fixed-field ICD-10
// output document consumed downstream. Fields with no source in the
// pipeline carry hardcoded defaults.
package schema

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"icdcheck/internal/pipeline"
)

// DefaultFilename is where `export` writes the converted document.
const DefaultFilename = "icd_schema_output.json"

// Attribute is one evidence attribution on an entry.
type Attribute struct {
	Type              string `json:"type"`
	Score             int    `json:"score"`
	RelationshipScore int    `json:"relationshipScore"`
	Text              string `json:"text"`
}

// Trait is a named score on an entry.
type Trait struct {
	Name  string `json:"Name"`
	Score int    `json:"Score"`
}

// Concept is one ICD-10-CM concept attribution.
type Concept struct {
	Description string `json:"Description"`
	Code        string `json:"Code"`
	HCCCode     string `json:"hccCode"`
	Score       int    `json:"Score"`
}

// Entry is the fixed-field output record for a single code.
type Entry struct {
	Text              string      `json:"Text"`
	Disease           string      `json:"disease"`
	Category          string      `json:"Category"`
	Type              string      `json:"Type"`
	Score             int         `json:"Score"`
	Attributes        []Attribute `json:"Attributes"`
	Traits            []Trait     `json:"Traits"`
	ICD10CMConcepts   []Concept   `json:"ICD10CMConcepts"`
	DOS               string      `json:"DOS"`
	Provider          string      `json:"Provider"`
	PlaceOfService    string      `json:"PlaceOfService"`
	SignatureProvider string      `json:"SignatureProvider"`
	NoteType          string      `json:"NoteType"`
	PageNumbers       []int       `json:"PageNumbers"`
}

// ModelCodes groups the converted entries for one agent.
type ModelCodes struct {
	ICD10Codes []Entry `json:"ICD10Codes"`
}

// Output is the full document, keyed by agent name.
type Output map[string]ModelCodes

// FromCodeResult maps a scored code onto the fixed schema, applying the
// documented defaults for fields the pipeline does not produce.
func FromCodeResult(r pipeline.CodeResult) Entry {
	text := "No text provided"
	if len(r.Evidence) > 0 {
		words := strings.Fields(r.Evidence[0])
		if len(words) > 10 {
			words = words[:10]
		}
		text = strings.Join(words, " ")
	}

	disease := r.Description
	if disease == "" {
		disease = "Unknown disease"
	}
	description := r.Description
	if description == "" {
		description = "No description"
	}
	code := r.Code
	if code == "" {
		code = "Unknown"
	}

	evidence := r.Evidence
	if len(evidence) == 0 {
		evidence = []string{"No evidence provided"}
	}
	attributes := make([]Attribute, 0, len(evidence))
	for _, ev := range evidence {
		attributes = append(attributes, Attribute{
			Type:              "evidence",
			Score:             r.Score,
			RelationshipScore: 50,
			Text:              ev,
		})
	}

	return Entry{
		Text:       text,
		Disease:    disease,
		Category:   "General",
		Type:       "Default",
		Score:      r.Score,
		Attributes: attributes,
		Traits: []Trait{
			{Name: "default", Score: r.Score},
		},
		ICD10CMConcepts: []Concept{
			{Description: description, Code: code, HCCCode: "24", Score: r.Score},
		},
		DOS:               "01-01-2020",
		Provider:          "Unknown Provider",
		PlaceOfService:    "Unknown",
		SignatureProvider: "Unknown",
		NoteType:          "Unknown",
		PageNumbers:       []int{},
	}
}

// Convert reshapes per-agent code results into the output document.
func Convert(results map[string][]pipeline.CodeResult) Output {
	out := make(Output, len(results))
	for agentName, codes := range results {
		entries := make([]Entry, 0, len(codes))
		for _, r := range codes {
			entries = append(entries, FromCodeResult(r))
		}
		out[agentName] = ModelCodes{ICD10Codes: entries}
	}
	return out
}

// Write serializes the output document to path with two-space indentation.
func Write(path string, out Output) error {
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal schema output: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
