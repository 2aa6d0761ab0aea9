// Package pipeline provides the lazy, type-erased layer chain the gate runs
// inside: a Context carried between Layers, a sequential Pipeline executor,
// and the Source combinators (Map, Filter, Guard, Router, FanOut, Parallel,
// Retry, Timeout, Spawn) used to compose work before anything runs.
package pipeline

import "context"

// Emitter receives named signals with attributes. Implementations must
// tolerate concurrent Emit calls.
type Emitter interface {
	Emit(ctx context.Context, name string, attrs map[string]any)
}

// Context is the only channel through which a Layer reaches the surrounding
// runtime: the current value, run metadata, named data sources, and signal
// emission. Contexts are immutable; each layer's output derives a new context
// via WithInput.
type Context interface {
	// Input is the current value for this layer.
	Input() any

	// Meta is metadata carried through the run. Layers must not mutate it.
	Meta() map[string]any

	// DataSource looks up a named host-provided handle.
	DataSource(name string) (any, bool)

	// Emit publishes a named signal with attributes.
	Emit(ctx context.Context, name string, attrs map[string]any)

	// WithInput derives a context identical to this one with a new input.
	WithInput(v any) Context
}

// RunContext is the standard Context implementation.
type RunContext struct {
	input   any
	meta    map[string]any
	sources map[string]any
	emitter Emitter
}

// ContextOption configures a new RunContext.
type ContextOption func(*RunContext)

// WithMeta attaches a metadata entry.
func WithMeta(key string, value any) ContextOption {
	return func(c *RunContext) { c.meta[key] = value }
}

// WithDataSource registers a named data source handle.
func WithDataSource(name string, handle any) ContextOption {
	return func(c *RunContext) { c.sources[name] = handle }
}

// WithEmitter sets the signal emitter. Without one, Emit is a no-op.
func WithEmitter(e Emitter) ContextOption {
	return func(c *RunContext) { c.emitter = e }
}

// NewContext builds a context carrying the initial input.
func NewContext(input any, opts ...ContextOption) *RunContext {
	c := &RunContext{
		input:   input,
		meta:    make(map[string]any),
		sources: make(map[string]any),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *RunContext) Input() any { return c.input }

func (c *RunContext) Meta() map[string]any { return c.meta }

func (c *RunContext) DataSource(name string) (any, bool) {
	h, ok := c.sources[name]
	return h, ok
}

func (c *RunContext) Emit(ctx context.Context, name string, attrs map[string]any) {
	if c.emitter != nil {
		c.emitter.Emit(ctx, name, attrs)
	}
}

// WithInput derives a new context sharing metadata, sources, and emitter.
func (c *RunContext) WithInput(v any) Context {
	return &RunContext{
		input:   v,
		meta:    c.meta,
		sources: c.sources,
		emitter: c.emitter,
	}
}
