// Package rag decodes upstream retrieval output documents. Two wire shapes
// exist in the field: the original finalCodes/content form and the chart
// export dxCodes/summaryInfo form. Both resolve to a single Document at the
// decode boundary so nothing downstream guesses about field names.
package rag

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// Entry is one per-disease summary block within a document.
type Entry struct {
	Disease string
	Summary string
}

// Document is the resolved input record for one agent run.
type Document struct {
	ChartID             string
	MemberID            string
	LLM                 string
	Codes               []string
	PreviouslySubmitted []string
	Entries             []Entry
}

// rawDocument accepts both wire shapes. The misspelled
// "previouslSubmittedCodes" key is what upstream actually emits.
type rawDocument struct {
	ChartID             string   `json:"chartId"`
	MemberID            string   `json:"MemberId"`
	LLM                 string   `json:"llm"`
	FinalCodes          []string `json:"finalCodes"`
	DxCodes             []string `json:"dxCodes"`
	PreviouslySubmitted []string `json:"previouslSubmittedCodes"`
	Content             []struct {
		Disease string `json:"disease"`
		Summary string `json:"summary"`
	} `json:"content"`
	SummaryInfo []struct {
		Disease string `json:"disease"`
		Text    string `json:"text"`
	} `json:"summaryInfo"`
}

// Decode parses a retrieval output document, resolving the shape variant
// once. dxCodes/summaryInfo take precedence when present.
func Decode(data []byte) (*Document, error) {
	var raw rawDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode retrieval output: %w", err)
	}

	doc := &Document{
		ChartID:             raw.ChartID,
		MemberID:            raw.MemberID,
		LLM:                 raw.LLM,
		PreviouslySubmitted: raw.PreviouslySubmitted,
	}

	if raw.DxCodes != nil {
		doc.Codes = raw.DxCodes
	} else {
		doc.Codes = raw.FinalCodes
	}

	if raw.SummaryInfo != nil {
		for _, e := range raw.SummaryInfo {
			doc.Entries = append(doc.Entries, Entry{Disease: e.Disease, Summary: e.Text})
		}
	} else {
		for _, e := range raw.Content {
			doc.Entries = append(doc.Entries, Entry{Disease: e.Disease, Summary: e.Summary})
		}
	}

	return doc, nil
}

// DecodeFile reads and decodes a document from disk.
func DecodeFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	doc, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// JointSummary concatenates all entry summaries with newlines.
func (d *Document) JointSummary() string {
	parts := make([]string, 0, len(d.Entries))
	for _, e := range d.Entries {
		parts = append(parts, e.Summary)
	}
	return strings.Join(parts, "\n")
}

var sentenceBoundary = regexp.MustCompile(`([.!?])\s+`)

// DefaultEvidence is the placeholder used when a summary yields no
// usable evidence sentences.
const DefaultEvidence = "No evidence provided"

// Evidence splits the joint summary into sentences and keeps those longer
// than five words. An empty result collapses to the default placeholder.
func (d *Document) Evidence() []string {
	marked := sentenceBoundary.ReplaceAllString(d.JointSummary(), "$1\n")
	var valid []string
	for _, sentence := range strings.Split(marked, "\n") {
		sentence = strings.TrimSpace(sentence)
		if len(strings.Fields(sentence)) > 5 {
			valid = append(valid, sentence)
		}
	}
	if len(valid) == 0 {
		return []string{DefaultEvidence}
	}
	return valid
}
