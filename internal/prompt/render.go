package prompt

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Templates holds the four prompt texts used by the pipeline. Zero value is
// not usable; construct with Defaults and optionally merge a YAML override
// file on top.
type Templates struct {
	Validation  string `yaml:"validation"`
	Alternative string `yaml:"alternative"`
	Confidence  string `yaml:"confidence"`
	Corrective  string `yaml:"corrective"`
}

// Defaults returns the built-in templates.
func Defaults() Templates {
	return Templates{
		Validation:  validationDefault,
		Alternative: alternativeDefault,
		Confidence:  confidenceDefault,
		Corrective:  correctiveDefault,
	}
}

// LoadOverrides merges non-empty fields from a YAML file into t.
// Unknown keys are rejected so typos surface instead of silently
// falling back to defaults.
func (t *Templates) LoadOverrides(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read prompt overrides: %w", err)
	}

	var o Templates
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	if err := dec.Decode(&o); err != nil {
		return fmt.Errorf("failed to parse prompt overrides %s: %w", path, err)
	}

	if o.Validation != "" {
		t.Validation = o.Validation
	}
	if o.Alternative != "" {
		t.Alternative = o.Alternative
	}
	if o.Confidence != "" {
		t.Confidence = o.Confidence
	}
	if o.Corrective != "" {
		t.Corrective = o.Corrective
	}
	return nil
}

// RenderValidation substitutes a single code, its description and the
// clinical summary into the validation template.
func (t Templates) RenderValidation(code, description, summary string) string {
	r := strings.NewReplacer(
		"{ICD_CODE}", code,
		"{DESCRIPTION}", description,
		"{SUMMARY}", summary,
	)
	return r.Replace(t.Validation)
}

// RenderAlternative substitutes the previously submitted code list and the
// summary into the alternative-suggestion template.
func (t Templates) RenderAlternative(previous []string, summary string) string {
	r := strings.NewReplacer(
		"{PREVIOUS_CODES}", strings.Join(previous, ", "),
		"{SUMMARY}", summary,
	)
	return r.Replace(t.Alternative)
}

// RenderConfidence substitutes a single code, its description and the
// summary into the confidence-scoring template.
func (t Templates) RenderConfidence(code, description, summary string) string {
	r := strings.NewReplacer(
		"{ICD_CODE}", code,
		"{DESCRIPTION}", description,
		"{SUMMARY}", summary,
	)
	return r.Replace(t.Confidence)
}
