// Package scorer defines the zero-shot classification abstraction that the
// evaluator consumes. A Scorer owns its underlying model handle for the
// lifetime of all evaluations; implementations are safe to move across
// goroutine boundaries but are NOT required to tolerate concurrent calls.
// Callers that need concurrency must serialize access (see internal/runner).
package scorer

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// LabelKey identifies a label by its category and name. Label names may repeat
// across categories; only the pair is unique.
type LabelKey struct {
	Category string
	Name     string
}

// String renders the key in the canonical "Category.Name" dataset form.
func (k LabelKey) String() string {
	return k.Category + "." + k.Name
}

// ParseLabelKey parses the "Category.Name" form used in datasets and config
// references. Only the first dot separates category from name, so category
// names may not contain dots; any later dots stay part of the label name.
func ParseLabelKey(s string) (LabelKey, error) {
	category, name, ok := strings.Cut(s, ".")
	if !ok || category == "" || name == "" {
		return LabelKey{}, fmt.Errorf("scorer: malformed label key %q (want Category.Name)", s)
	}
	return LabelKey{Category: category, Name: name}, nil
}

// Hypothesis binds a label to the natural-language premise the zero-shot
// model scores the input text against.
type Hypothesis struct {
	Key  LabelKey
	Text string
}

// Scorer scores a text against a fixed set of hypotheses established at
// construction time. Each hypothesis is scored independently (multi-label;
// confidences are not normalized across hypotheses).
//
// Score is deterministic for a fixed model and input. The context is honored
// at safe points; implementations backed by native inference may not be
// interruptible mid-call.
type Scorer interface {
	// Score returns a raw confidence in [0,1] per label. The label set is
	// fixed by construction; every configured label appears in the result.
	// Returns ErrEmptyInput if text is empty after trimming, or a *ModelError
	// if the underlying inference fails. Never returns partial results.
	Score(ctx context.Context, text string) (map[LabelKey]float64, error)
}

// BatchScorer is an optional extension for scorers that can amortize model
// invocation across several texts. Output order matches input order.
type BatchScorer interface {
	Scorer

	ScoreBatch(ctx context.Context, texts []string) ([]map[LabelKey]float64, error)
}

// ErrEmptyInput reports text that is empty after normalization and therefore
// cannot be scored.
var ErrEmptyInput = errors.New("scorer: empty input text")

// ModelError wraps a failure of the underlying inference engine.
type ModelError struct {
	Op  string
	Err error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("scorer: model %s failed: %v", e.Op, e.Err)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// DefaultHypothesis is the fallback premise for labels configured without one.
func DefaultHypothesis(key LabelKey) string {
	return fmt.Sprintf("This example is %s.", key.Name)
}
