package eval

import "testing"

func defaultedConfig(t *testing.T, categories ...CategoryConfig) *Config {
	t.Helper()
	cfg := &Config{Categories: categories}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config did not validate: %v", err)
	}
	return cfg
}

func simpleCategory(name string, labels ...LabelConfig) CategoryConfig {
	return CategoryConfig{Name: name, Labels: labels}
}

func simpleLabel(name string) LabelConfig {
	return LabelConfig{Name: name, Hypothesis: "This example is " + name + "."}
}

func TestThresholdForBoundaries(t *testing.T) {
	cfg := defaultedConfig(t, simpleCategory("Context", simpleLabel("fact")))

	cases := []struct {
		length int
		want   float64
	}{
		{0, 0.70},
		{10, 0.70},
		{20, 0.70},  // short_limit is inclusive
		{21, 0.75},  // just past short
		{100, 0.75}, // medium
		{200, 0.75}, // long_limit itself is still medium
		{201, 0.80}, // strictly past long_limit
		{250, 0.80},
	}
	for _, tc := range cases {
		if got := cfg.ThresholdFor(tc.length); got != tc.want {
			t.Fatalf("length %d: expected %v, got %v", tc.length, tc.want, got)
		}
	}
}

func TestApplyDefaultsFillsLabelFields(t *testing.T) {
	cfg := defaultedConfig(t, simpleCategory("Context", simpleLabel("fact")))

	cat := cfg.Categories[0]
	if cat.KCap != DefaultTopK {
		t.Fatalf("expected k_cap %d, got %d", DefaultTopK, cat.KCap)
	}
	l := cat.Labels[0]
	if l.Weight != DefaultLabelWeight || l.Threshold != DefaultLabelThreshold {
		t.Fatalf("expected default weight/threshold, got %+v", l)
	}
	if !l.Platt.Identity() {
		t.Fatalf("expected identity Platt defaults, got %+v", l.Platt)
	}
	if cfg.PhaticVetoThreshold != DefaultPhaticVetoThreshold {
		t.Fatalf("expected default veto threshold, got %v", cfg.PhaticVetoThreshold)
	}
}

func TestValidateRejectsOutOfRangeWeight(t *testing.T) {
	cfg := &Config{Categories: []CategoryConfig{
		simpleCategory("Context", LabelConfig{Name: "fact", Hypothesis: "x", Weight: 1.5}),
	}}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected validation error for weight > 1")
	}
}

func TestValidateRejectsDuplicateLabelPair(t *testing.T) {
	cfg := &Config{Categories: []CategoryConfig{
		simpleCategory("Context", simpleLabel("time"), simpleLabel("time")),
	}}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected validation error for duplicate (category, name)")
	}
}

func TestValidateAllowsSameNameAcrossCategories(t *testing.T) {
	// Conversational and Context both declare a "time" label; only the pair
	// (category, name) must be unique.
	defaultedConfig(t,
		simpleCategory("Context", simpleLabel("time")),
		simpleCategory("Conversational", simpleLabel("time")),
	)
}

func TestValidateRejectsShortLimitAtOrAboveLongLimit(t *testing.T) {
	cfg := &Config{Categories: []CategoryConfig{simpleCategory("Context", simpleLabel("fact"))}}
	cfg.ApplyDefaults()
	cfg.Modifier.ShortLimit = 200
	cfg.Modifier.LongLimit = 200
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected validation error for short_limit >= long_limit")
	}
}

func TestValidateRejectsUnresolvablePhaticLabel(t *testing.T) {
	cfg := &Config{
		PhaticLabel: LabelRef{Category: "Context", Name: "smalltalk"},
		Categories:  []CategoryConfig{simpleCategory("Context", simpleLabel("fact"))},
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected validation error for unresolvable phatic_label")
	}
}

func TestValidateToleratesAbsentDefaultPhatic(t *testing.T) {
	// The implicit Context/phatic default may be absent; the veto stays off.
	defaultedConfig(t, simpleCategory("Task", simpleLabel("task")))
}

func TestHypothesesPreserveDeclarationOrder(t *testing.T) {
	cfg := defaultedConfig(t,
		simpleCategory("Outcome", simpleLabel("success"), simpleLabel("failure")),
		simpleCategory("Task", simpleLabel("task")),
	)
	hyps := cfg.Hypotheses()
	want := []string{"Outcome.success", "Outcome.failure", "Task.task"}
	if len(hyps) != len(want) {
		t.Fatalf("expected %d hypotheses, got %d", len(want), len(hyps))
	}
	for i, h := range hyps {
		if h.Key.String() != want[i] {
			t.Fatalf("position %d: expected %s, got %s", i, want[i], h.Key)
		}
	}
}
