package eval

import (
	"math"
	"sort"
)

// calibrate applies Platt scaling sigma(a*raw + b) to a raw confidence.
// Identity parameters (1, 0) short-circuit to the raw value. The result is
// clamped to [0,1]; non-finite inputs collapse to 0 and never propagate.
func calibrate(raw float64, p PlattParams) float64 {
	if p.Identity() {
		return clamp01(raw)
	}
	return clamp01(1 / (1 + math.Exp(-(p.A*raw + p.B))))
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// LabelOutput is the per-label trace of one evaluation: the raw model
// confidence, its calibrated form, and the gated weighted score.
type LabelOutput struct {
	Name          string  `json:"name"`
	Raw           float64 `json:"raw"`
	Calibrated    float64 `json:"calibrated"`
	Score         float64 `json:"score"`
	SentenceIndex int     `json:"sentence_index,omitempty"`
}

func newLabelOutput(name string, raw float64, sentence int, cfg *LabelConfig) LabelOutput {
	c := calibrate(raw, cfg.Platt)
	score := 0.0
	if c >= cfg.Threshold {
		score = c * cfg.Weight
	}
	return LabelOutput{
		Name:          name,
		Raw:           clamp01(raw),
		Calibrated:    c,
		Score:         score,
		SentenceIndex: sentence,
	}
}

// CategoryOutput groups the label outputs of one category, in declaration
// order, with the top-k mean score.
type CategoryOutput struct {
	Name   string        `json:"name"`
	Score  float64       `json:"score"`
	Labels []LabelOutput `json:"labels"`
}

// topKScore computes the mean of the largest min(kCap, n) non-zero label
// scores, where n is the non-zero count. No non-zero labels means 0; there is
// never a division by zero. Ties keep declaration order (stable sort), so
// repeated runs aggregate identically.
func topKScore(labels []LabelOutput, kCap int) float64 {
	nonzero := make([]float64, 0, len(labels))
	for _, l := range labels {
		if l.Score > 0 {
			nonzero = append(nonzero, l.Score)
		}
	}
	if len(nonzero) == 0 {
		return 0
	}
	sort.SliceStable(nonzero, func(i, j int) bool { return nonzero[i] > nonzero[j] })
	k := kCap
	if k > len(nonzero) {
		k = len(nonzero)
	}
	if k < 1 {
		k = 1
	}
	sum := 0.0
	for _, v := range nonzero[:k] {
		sum += v
	}
	return sum / float64(k)
}

func newCategoryOutput(name string, labels []LabelOutput, kCap int) CategoryOutput {
	return CategoryOutput{Name: name, Score: topKScore(labels, kCap), Labels: labels}
}

// EvalOutput is the structured, interpretable explanation of one evaluation:
// every label's scores, every category's aggregate, the winning overall
// score, and the decision-relevant metadata.
type EvalOutput struct {
	// Overall is the maximum category score, 0 when no categories exist.
	Overall float64 `json:"overall"`

	Categories []CategoryOutput `json:"categories"`

	// TextLen is the character length of the normalized input.
	TextLen int `json:"text_len"`

	// Threshold is the length-adjusted accept threshold applied to Overall.
	Threshold float64 `json:"threshold"`

	// Phatic is the calibrated confidence of the configured phatic label,
	// 0 when no phatic label resolves.
	Phatic float64 `json:"phatic"`
}

func newEvalOutput(categories []CategoryOutput) *EvalOutput {
	overall := 0.0
	for _, c := range categories {
		if c.Score > overall {
			overall = c.Score
		}
	}
	return &EvalOutput{Overall: overall, Categories: categories}
}

// Category returns the named category's output.
func (o *EvalOutput) Category(name string) (*CategoryOutput, bool) {
	for i := range o.Categories {
		if o.Categories[i].Name == name {
			return &o.Categories[i], true
		}
	}
	return nil, false
}

// Label returns the output for (category, name).
func (o *EvalOutput) Label(category, name string) (*LabelOutput, bool) {
	cat, ok := o.Category(category)
	if !ok {
		return nil, false
	}
	for i := range cat.Labels {
		if cat.Labels[i].Name == name {
			return &cat.Labels[i], true
		}
	}
	return nil, false
}

// DetectedLabels returns the "Category.Name" keys whose gated score is
// positive, in declaration order.
func (o *EvalOutput) DetectedLabels() []string {
	var out []string
	for _, cat := range o.Categories {
		for _, l := range cat.Labels {
			if l.Score > 0 {
				out = append(out, cat.Name+"."+l.Name)
			}
		}
	}
	return out
}

// RawScores flattens the uncalibrated model confidences keyed by
// "Category.Name", for calibration training exports.
func (o *EvalOutput) RawScores() map[string]float64 {
	out := make(map[string]float64)
	for _, cat := range o.Categories {
		for _, l := range cat.Labels {
			out[cat.Name+"."+l.Name] = l.Raw
		}
	}
	return out
}
