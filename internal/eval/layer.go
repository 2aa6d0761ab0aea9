package eval

import (
	"context"
	"fmt"

	"github.com/haasonsaas/sift/internal/pipeline"
)

// Layer hosts the Evaluator inside a pipeline. It reads the utterance from
// the layer context, scores it, emits the eval.scored signal, and passes the
// EvalOutput downstream.
type Layer struct {
	eval *Evaluator
}

// NewLayer wraps an evaluator as a pipeline layer.
func NewLayer(e *Evaluator) *Layer {
	return &Layer{eval: e}
}

// Evaluator exposes the hosted evaluator.
func (l *Layer) Evaluator() *Evaluator {
	return l.eval
}

func (l *Layer) Name() string { return "eval" }

// Process implements pipeline.Layer.
func (l *Layer) Process(ctx context.Context, lc pipeline.Context) (any, error) {
	text, ok := lc.Input().(string)
	if !ok {
		return nil, fmt.Errorf("eval layer: input must be a string, got %T", lc.Input())
	}

	out, err := l.eval.Score(ctx, text)
	if err != nil {
		return nil, err
	}
	decision := l.eval.Decide(out)

	lc.Emit(ctx, "eval.scored", map[string]any{
		"overall":   out.Overall,
		"threshold": out.Threshold,
		"phatic":    out.Phatic,
		"accepted":  decision.Accepted,
	})
	return out, nil
}
