package eval

import (
	"context"
	"strings"

	"github.com/haasonsaas/sift/internal/scorer"
)

// Evaluator turns raw per-label confidences into a calibrated, weighted,
// thresholded decision. It is deterministic given a deterministic Scorer, and
// inherits the Scorer's concurrency contract: one caller at a time.
type Evaluator struct {
	cfg    *Config
	scorer scorer.Scorer

	phatic    scorer.LabelKey
	hasPhatic bool
}

// New builds an Evaluator over the given config and scorer. Configuration
// problems surface here, never during evaluation.
func New(cfg *Config, s scorer.Scorer) (*Evaluator, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Evaluator{cfg: cfg, scorer: s}
	key := scorer.LabelKey{Category: cfg.PhaticLabel.Category, Name: cfg.PhaticLabel.Name}
	if _, ok := cfg.Label(key); ok {
		e.phatic = key
		e.hasPhatic = true
	}
	return e, nil
}

// Config returns the immutable evaluation config.
func (e *Evaluator) Config() *Config {
	return e.cfg
}

// Score evaluates one utterance: normalize, score every label, calibrate,
// gate, aggregate per category, and record the decision-relevant metadata.
// Text that is empty after normalization yields a zero output without
// touching the scorer. Scorer failures surface verbatim.
func (e *Evaluator) Score(ctx context.Context, text string) (*EvalOutput, error) {
	normalized := strings.TrimSpace(text)
	textLen := len([]rune(normalized))

	out := e.zeroOutput()
	out.TextLen = textLen
	out.Threshold = e.cfg.ThresholdFor(textLen)
	if normalized == "" {
		return out, nil
	}

	raw, err := e.scorer.Score(ctx, normalized)
	if err != nil {
		return nil, err
	}

	categories := make([]CategoryOutput, 0, len(e.cfg.Categories))
	for _, cat := range e.cfg.Categories {
		labels := make([]LabelOutput, 0, len(cat.Labels))
		for i := range cat.Labels {
			lc := &cat.Labels[i]
			key := scorer.LabelKey{Category: cat.Name, Name: lc.Name}
			labels = append(labels, newLabelOutput(lc.Name, raw[key], 0, lc))
		}
		categories = append(categories, newCategoryOutput(cat.Name, labels, cat.KCap))
	}

	result := newEvalOutput(categories)
	result.TextLen = textLen
	result.Threshold = out.Threshold
	if e.hasPhatic {
		if l, ok := result.Label(e.phatic.Category, e.phatic.Name); ok {
			result.Phatic = l.Calibrated
		}
	}
	return result, nil
}

// Raw returns the uncalibrated per-label confidences for one utterance, for
// offline calibration training. Same normalization as Score and scorer
// failures surface verbatim, but text that is empty after normalization fails
// with scorer.ErrEmptyInput instead of yielding a zero result.
func (e *Evaluator) Raw(ctx context.Context, text string) (map[scorer.LabelKey]float64, error) {
	normalized := strings.TrimSpace(text)
	if normalized == "" {
		return nil, scorer.ErrEmptyInput
	}
	return e.scorer.Score(ctx, normalized)
}

// Decide applies the decision rule at the output's own threshold.
func (e *Evaluator) Decide(out *EvalOutput) Decision {
	return e.DecideAt(out, out.Threshold)
}

// DecideAt re-decides an output at an arbitrary threshold. The phatic veto
// takes precedence and both comparisons are inclusive.
func (e *Evaluator) DecideAt(out *EvalOutput, threshold float64) Decision {
	if e.hasPhatic && out.Phatic >= e.cfg.PhaticVetoThreshold {
		return Reject(RejectPhatic)
	}
	if out.Overall >= threshold {
		return Accept
	}
	return Reject(RejectBelowThreshold)
}

// DetectedLabels returns the labels the output detected, as
// "Category.Name" keys in declaration order.
func (e *Evaluator) DetectedLabels(out *EvalOutput) []string {
	return out.DetectedLabels()
}

// ToResult tallies one output against a sample's expectations into a
// single-sample EvalResult: decision compared by outcome, labels by exact
// set membership over the configured label universe.
func (e *Evaluator) ToResult(out *EvalOutput, sample *Sample) *EvalResult {
	actual := e.Decide(out)
	sr := SampleResult{
		ID:               sample.ID,
		ExpectedDecision: sample.ExpectedDecision,
		ActualDecision:   actual,
		Correct:          actual.SameOutcome(sample.ExpectedDecision),
		Overall:          out.Overall,
		ExpectedLabels:   sample.ExpectedLabels,
		DetectedLabels:   out.DetectedLabels(),
	}

	result := NewResult()
	result.Add(sample, &sr, e.cfg.LabelKeys())
	return result
}

func (e *Evaluator) zeroOutput() *EvalOutput {
	categories := make([]CategoryOutput, 0, len(e.cfg.Categories))
	for _, cat := range e.cfg.Categories {
		labels := make([]LabelOutput, 0, len(cat.Labels))
		for _, lc := range cat.Labels {
			labels = append(labels, LabelOutput{Name: lc.Name})
		}
		categories = append(categories, CategoryOutput{Name: cat.Name, Labels: labels})
	}
	return &EvalOutput{Categories: categories}
}
