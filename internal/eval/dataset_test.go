package eval

import (
	"strings"
	"testing"
)

const smokeDataset = `{
  "samples": [
    {
      "id": "s1",
      "text": "remember to renew the passport",
      "expected_decision": "accept",
      "expected_labels": ["Task.task"],
      "primary_category": "Task",
      "difficulty": "easy"
    },
    {
      "id": "s2",
      "text": "hi how are you?",
      "expected_decision": "reject",
      "expected_labels": ["Context.phatic"]
    }
  ]
}`

func TestParseDataset(t *testing.T) {
	ds, err := ParseDataset([]byte(smokeDataset))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(ds.Samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(ds.Samples))
	}
	if !ds.Samples[0].ExpectedDecision.Accepted {
		t.Fatalf("expected s1 to expect accept")
	}
	if ds.Samples[1].ExpectedDecision.Accepted {
		t.Fatalf("expected s2 to expect reject")
	}
}

func TestParseDatasetRejectsUnknownFields(t *testing.T) {
	if _, err := ParseDataset([]byte(`{"samples": [], "extra": 1}`)); err == nil {
		t.Fatalf("expected unknown field rejection")
	}
}

func knownLabels() []string {
	return []string{"Task.task", "Context.phatic"}
}

func TestValidateDetectsDuplicateIDs(t *testing.T) {
	ds := &SampleDataset{Samples: []Sample{
		{ID: "dup", Text: "a", ExpectedDecision: Accept},
		{ID: "dup", Text: "b", ExpectedDecision: Accept},
	}}
	err := ds.Validate(false, knownLabels(), nil)
	if err == nil {
		t.Fatalf("expected duplicate id error")
	}
	if !strings.Contains(err.Error(), "duplicate sample id") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateUnknownLabelsStrictVsLenient(t *testing.T) {
	ds := &SampleDataset{Samples: []Sample{
		{ID: "s1", Text: "x", ExpectedDecision: Accept, ExpectedLabels: []string{"Nope.nothing"}},
	}}

	var warnings []string
	warn := func(msg string) { warnings = append(warnings, msg) }

	if err := ds.Validate(false, knownLabels(), warn); err != nil {
		t.Fatalf("lenient validation must tolerate unknown labels: %v", err)
	}
	if len(warnings) != 1 {
		t.Fatalf("expected one warning, got %v", warnings)
	}

	if err := ds.Validate(true, knownLabels(), warn); err == nil {
		t.Fatalf("strict validation must reject unknown labels")
	}
}

func TestValidateAggregatesAllIssues(t *testing.T) {
	ds := &SampleDataset{Samples: []Sample{
		{ID: "", Text: ""},
		{ID: "s2", Text: "ok", Difficulty: "impossible"},
	}}
	err := ds.Validate(false, nil, nil)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	ve, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if len(ve.Issues) < 3 {
		t.Fatalf("expected all issues collected, got %v", ve.Issues)
	}
}

func TestValidateSchema(t *testing.T) {
	if err := ValidateSchema([]byte(smokeDataset)); err != nil {
		t.Fatalf("valid dataset rejected: %v", err)
	}
	if err := ValidateSchema([]byte(`{"samples": [{"id": "x"}]}`)); err == nil {
		t.Fatalf("expected schema violation for missing fields")
	}
	if err := ValidateSchema([]byte(`{"samples": [{"id": "x", "text": "t", "expected_decision": "maybe", "expected_labels": []}]}`)); err == nil {
		t.Fatalf("expected schema violation for bad decision")
	}
	if err := ValidateSchema([]byte(`not json`)); err == nil {
		t.Fatalf("expected schema violation for invalid JSON")
	}
}
