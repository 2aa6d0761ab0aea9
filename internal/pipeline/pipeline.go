package pipeline

import (
	"context"
	"fmt"
)

// Layer is one processing stage. Layers are stateless per invocation; any
// internal mutable state must be thread-safe.
type Layer interface {
	// Process reads the current value from the layer context and returns the
	// next value. ctx carries cancellation and deadlines.
	Process(ctx context.Context, lc Context) (any, error)

	// Name identifies the layer in errors and signals.
	Name() string
}

// LayerFunc adapts a function into a Layer.
type LayerFunc struct {
	LayerName string
	Fn        func(ctx context.Context, lc Context) (any, error)
}

func (l LayerFunc) Process(ctx context.Context, lc Context) (any, error) {
	return l.Fn(ctx, lc)
}

func (l LayerFunc) Name() string { return l.LayerName }

// Pipeline is an ordered chain of layers over a shared context. Execution is
// strictly sequential: each layer's output becomes the next layer's input via
// a derived context. A failing layer halts the chain; its error is wrapped in
// a LayerError carrying the layer name, so nested pipelines accumulate a name
// stack.
type Pipeline struct {
	layers []Layer
}

// Builder accumulates layers in order. The builder can only produce an
// ordered sequence, never a graph, so layer cycles cannot be expressed.
type Builder struct {
	layers []Layer
	err    error
}

// NewBuilder starts an empty pipeline definition.
func NewBuilder() *Builder {
	return &Builder{}
}

// Then appends a layer.
func (b *Builder) Then(l Layer) *Builder {
	if b.err == nil && l == nil {
		b.err = fmt.Errorf("pipeline: nil layer")
	}
	b.layers = append(b.layers, l)
	return b
}

// Build finalizes the pipeline. Nothing executes until Run.
func (b *Builder) Build() (*Pipeline, error) {
	if b.err != nil {
		return nil, b.err
	}
	return &Pipeline{layers: b.layers}, nil
}

// Len reports the number of layers.
func (p *Pipeline) Len() int { return len(p.layers) }

// Run threads the initial context through every layer and returns the final
// value.
func (p *Pipeline) Run(ctx context.Context, lc Context) (any, error) {
	current := lc
	for _, layer := range p.layers {
		if err := ctx.Err(); err != nil {
			return nil, &LayerError{Layer: layer.Name(), Err: err}
		}
		v, err := layer.Process(ctx, current)
		if err != nil {
			return nil, &LayerError{Layer: layer.Name(), Err: err}
		}
		current = current.WithInput(v)
	}
	return current.Input(), nil
}
