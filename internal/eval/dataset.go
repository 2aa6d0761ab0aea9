package eval

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed dataset.schema.json
var datasetSchemaJSON []byte

var datasetSchema = jsonschema.MustCompileString("dataset.schema.json", string(datasetSchemaJSON))

// SampleDataset is an ordered sequence of samples with unique ids.
type SampleDataset struct {
	Samples []Sample `json:"samples"`
}

// LoadDataset reads a JSON dataset document from disk.
func LoadDataset(path string) (*SampleDataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}
	return ParseDataset(data)
}

// ParseDataset decodes a JSON dataset document.
func ParseDataset(data []byte) (*SampleDataset, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var ds SampleDataset
	if err := dec.Decode(&ds); err != nil {
		return nil, fmt.Errorf("failed to parse dataset: %w", err)
	}
	return &ds, nil
}

// Validate checks dataset shape: unique non-empty ids and well-formed
// samples, plus known-label resolution against the configured label universe
// in strict mode.
//
// In non-strict mode unknown labels are reported through warn and tolerated.
func (d *SampleDataset) Validate(strict bool, knownLabels []string, warn func(string)) error {
	var issues []string

	seen := make(map[string]bool, len(d.Samples))
	for i := range d.Samples {
		s := &d.Samples[i]
		issues = append(issues, s.validate(i)...)
		if s.ID == "" {
			continue
		}
		if seen[s.ID] {
			issues = append(issues, fmt.Sprintf("duplicate sample id %q", s.ID))
		}
		seen[s.ID] = true
	}

	known := make(map[string]bool, len(knownLabels))
	for _, k := range knownLabels {
		known[k] = true
	}
	for i := range d.Samples {
		s := &d.Samples[i]
		for _, label := range s.ExpectedLabels {
			if known[label] {
				continue
			}
			msg := fmt.Sprintf("sample %q: unknown label %q", s.ID, label)
			if strict {
				issues = append(issues, msg)
			} else if warn != nil {
				warn(msg)
			}
		}
	}

	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}

// ValidateSchema checks a raw dataset document against the embedded JSON
// Schema. Used by strict mode before decoding.
func ValidateSchema(data []byte) error {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return &ValidationError{Issues: []string{fmt.Sprintf("invalid JSON: %v", err)}}
	}
	if err := datasetSchema.Validate(doc); err != nil {
		return &ValidationError{Issues: []string{err.Error()}}
	}
	return nil
}

// ValidationError reports dataset shape violations. It aggregates every issue
// found rather than stopping at the first.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	switch len(e.Issues) {
	case 0:
		return "dataset validation failed"
	case 1:
		return "dataset validation failed: " + e.Issues[0]
	}
	return fmt.Sprintf("dataset validation failed (%d issues):\n  %s",
		len(e.Issues), strings.Join(e.Issues, "\n  "))
}
