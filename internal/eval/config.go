package eval

import (
	"fmt"

	"github.com/haasonsaas/sift/internal/scorer"
)

// Canonical defaults shared by config loading and validation.
const (
	DefaultBaseThreshold       = 0.75
	DefaultShortDelta          = 0.05
	DefaultLongDelta           = 0.05
	DefaultShortLimit          = 20
	DefaultLongLimit           = 200
	DefaultTopK                = 2
	DefaultLabelWeight         = 0.50
	DefaultLabelThreshold      = 0.70
	DefaultPhaticVetoThreshold = 0.80
)

// Config is the `layers.eval` section: the complete description of the gate's
// label space, calibration, and decision rule. It is built once at startup
// and immutable afterwards.
type Config struct {
	// Modifier adjusts the accept threshold by input length.
	Modifier ModifierConfig `yaml:"modifier" json:"modifier"`

	// PhaticVetoThreshold rejects outright when the phatic label's calibrated
	// confidence reaches it, regardless of the overall score.
	PhaticVetoThreshold float64 `yaml:"phatic_veto_threshold" json:"phatic_veto_threshold"`

	// PhaticLabel names the label whose calibrated confidence drives the
	// veto. Empty fields fall back to Context/phatic; the veto is inactive
	// when neither the default nor an explicit reference resolves.
	PhaticLabel LabelRef `yaml:"phatic_label" json:"phatic_label"`

	// Categories in declaration order. Order is load-bearing: it breaks
	// score ties deterministically.
	Categories []CategoryConfig `yaml:"categories" json:"categories"`
}

// ModifierConfig holds the length-sensitive threshold rule. Text at or below
// ShortLimit characters gets the lenient threshold, text strictly above
// LongLimit the strict one.
type ModifierConfig struct {
	BaseThreshold float64 `yaml:"base_threshold" json:"base_threshold"`
	ShortDelta    float64 `yaml:"short_delta" json:"short_delta"`
	LongDelta     float64 `yaml:"long_delta" json:"long_delta"`
	ShortLimit    int     `yaml:"short_limit" json:"short_limit"`
	LongLimit     int     `yaml:"long_limit" json:"long_limit"`
}

// LabelRef points at a label by category and name.
type LabelRef struct {
	Category string `yaml:"category" json:"category"`
	Name     string `yaml:"name" json:"name"`
}

// CategoryConfig is a named group of labels plus its top-k cap.
type CategoryConfig struct {
	Name   string        `yaml:"name" json:"name"`
	KCap   int           `yaml:"k_cap" json:"k_cap"`
	Labels []LabelConfig `yaml:"labels" json:"labels"`
}

// LabelConfig describes one label: the zero-shot hypothesis, its contribution
// weight, its gating threshold, and the Platt calibration parameters.
type LabelConfig struct {
	Name       string      `yaml:"name" json:"name"`
	Hypothesis string      `yaml:"hypothesis" json:"hypothesis"`
	Weight     float64     `yaml:"weight" json:"weight"`
	Threshold  float64     `yaml:"threshold" json:"threshold"`
	Platt      PlattParams `yaml:"platt" json:"platt"`
}

// PlattParams are the logistic calibration coefficients. (1, 0) is the
// identity and skips the sigmoid entirely.
type PlattParams struct {
	A float64 `yaml:"a" json:"a"`
	B float64 `yaml:"b" json:"b"`
}

// Identity reports whether calibration is a no-op for these parameters.
func (p PlattParams) Identity() bool {
	return p.A == 1 && p.B == 0
}

// ApplyDefaults fills zero values with the canonical defaults. It runs before
// Validate so a sparse config document decodes into a usable gate.
func (c *Config) ApplyDefaults() {
	if c.Modifier.BaseThreshold == 0 {
		c.Modifier.BaseThreshold = DefaultBaseThreshold
	}
	if c.Modifier.ShortDelta == 0 {
		c.Modifier.ShortDelta = DefaultShortDelta
	}
	if c.Modifier.LongDelta == 0 {
		c.Modifier.LongDelta = DefaultLongDelta
	}
	if c.Modifier.ShortLimit == 0 {
		c.Modifier.ShortLimit = DefaultShortLimit
	}
	if c.Modifier.LongLimit == 0 {
		c.Modifier.LongLimit = DefaultLongLimit
	}
	if c.PhaticVetoThreshold == 0 {
		c.PhaticVetoThreshold = DefaultPhaticVetoThreshold
	}
	if c.PhaticLabel.Category == "" && c.PhaticLabel.Name == "" {
		c.PhaticLabel = LabelRef{Category: "Context", Name: "phatic"}
	}
	for i := range c.Categories {
		cat := &c.Categories[i]
		if cat.KCap == 0 {
			cat.KCap = DefaultTopK
		}
		for j := range cat.Labels {
			l := &cat.Labels[j]
			if l.Weight == 0 {
				l.Weight = DefaultLabelWeight
			}
			if l.Threshold == 0 {
				l.Threshold = DefaultLabelThreshold
			}
			if l.Platt.A == 0 && l.Platt.B == 0 {
				l.Platt = PlattParams{A: 1, B: 0}
			}
		}
	}
}

// Validate checks ranges and referential integrity. All failures are
// *ConfigError; evaluation never revalidates.
func (c *Config) Validate() error {
	if c.Modifier.BaseThreshold < 0 || c.Modifier.BaseThreshold > 1 {
		return &ConfigError{Field: "modifier.base_threshold", Reason: "must be in [0,1]"}
	}
	if c.Modifier.ShortDelta < 0 || c.Modifier.ShortDelta > 1 {
		return &ConfigError{Field: "modifier.short_delta", Reason: "must be in [0,1]"}
	}
	if c.Modifier.LongDelta < 0 || c.Modifier.LongDelta > 1 {
		return &ConfigError{Field: "modifier.long_delta", Reason: "must be in [0,1]"}
	}
	if c.Modifier.ShortLimit < 1 {
		return &ConfigError{Field: "modifier.short_limit", Reason: "must be positive"}
	}
	if c.Modifier.LongLimit < 1 {
		return &ConfigError{Field: "modifier.long_limit", Reason: "must be positive"}
	}
	if c.Modifier.ShortLimit >= c.Modifier.LongLimit {
		return &ConfigError{Field: "modifier", Reason: "short_limit must be less than long_limit"}
	}
	if c.PhaticVetoThreshold < 0 || c.PhaticVetoThreshold > 1 {
		return &ConfigError{Field: "phatic_veto_threshold", Reason: "must be in [0,1]"}
	}

	seen := make(map[scorer.LabelKey]bool)
	for _, cat := range c.Categories {
		if cat.Name == "" {
			return &ConfigError{Field: "categories", Reason: "category name is required"}
		}
		if cat.KCap < 1 {
			return &ConfigError{
				Field:  fmt.Sprintf("categories.%s.k_cap", cat.Name),
				Reason: "must be at least 1",
			}
		}
		for _, l := range cat.Labels {
			field := fmt.Sprintf("categories.%s.labels.%s", cat.Name, l.Name)
			if l.Name == "" {
				return &ConfigError{Field: field, Reason: "label name is required"}
			}
			if l.Hypothesis == "" {
				return &ConfigError{Field: field, Reason: "hypothesis is required"}
			}
			if l.Weight < 0 || l.Weight > 1 {
				return &ConfigError{Field: field, Reason: "weight must be in [0,1]"}
			}
			if l.Threshold < 0 || l.Threshold > 1 {
				return &ConfigError{Field: field, Reason: "threshold must be in [0,1]"}
			}
			key := scorer.LabelKey{Category: cat.Name, Name: l.Name}
			if seen[key] {
				return &ConfigError{Field: field, Reason: "duplicate (category, name) pair"}
			}
			seen[key] = true
		}
	}

	// An explicitly configured phatic label must resolve; the implicit
	// Context/phatic default is allowed to be absent (the veto stays off).
	ref := scorer.LabelKey{Category: c.PhaticLabel.Category, Name: c.PhaticLabel.Name}
	if !seen[ref] && !c.phaticDefaulted() {
		return &ConfigError{
			Field:  "phatic_label",
			Reason: fmt.Sprintf("label %s is not declared in any category", ref),
		}
	}
	return nil
}

func (c *Config) phaticDefaulted() bool {
	return c.PhaticLabel == (LabelRef{Category: "Context", Name: "phatic"})
}

// ThresholdFor computes the applied accept threshold for a text of the given
// character length. Both limits are inclusive on the lenient side.
func (c *Config) ThresholdFor(textLen int) float64 {
	switch {
	case textLen <= c.Modifier.ShortLimit:
		return c.Modifier.BaseThreshold - c.Modifier.ShortDelta
	case textLen > c.Modifier.LongLimit:
		return c.Modifier.BaseThreshold + c.Modifier.LongDelta
	default:
		return c.Modifier.BaseThreshold
	}
}

// Hypotheses flattens the configured labels, in declaration order, into the
// hypothesis set a Scorer is constructed with.
func (c *Config) Hypotheses() []scorer.Hypothesis {
	var out []scorer.Hypothesis
	for _, cat := range c.Categories {
		for _, l := range cat.Labels {
			key := scorer.LabelKey{Category: cat.Name, Name: l.Name}
			text := l.Hypothesis
			if text == "" {
				text = scorer.DefaultHypothesis(key)
			}
			out = append(out, scorer.Hypothesis{Key: key, Text: text})
		}
	}
	return out
}

// LabelKeys returns every configured (category, name) pair in declaration
// order, rendered in the "Category.Name" dataset form.
func (c *Config) LabelKeys() []string {
	var out []string
	for _, cat := range c.Categories {
		for _, l := range cat.Labels {
			out = append(out, scorer.LabelKey{Category: cat.Name, Name: l.Name}.String())
		}
	}
	return out
}

// Label looks up a label's config by key.
func (c *Config) Label(key scorer.LabelKey) (*LabelConfig, bool) {
	for i := range c.Categories {
		cat := &c.Categories[i]
		if cat.Name != key.Category {
			continue
		}
		for j := range cat.Labels {
			if cat.Labels[j].Name == key.Name {
				return &cat.Labels[j], true
			}
		}
	}
	return nil, false
}

// ConfigError reports a malformed or contradictory configuration value.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("eval config: %s: %s", e.Field, e.Reason)
}
