package pipeline

import "context"

// Source is a lazy computation producing a T. Building a source and piping
// operators over it only records the plan; nothing executes until Build.
type Source[T any] struct {
	run func(ctx context.Context) (T, error)
}

// From wraps an already-known value.
func From[T any](v T) Source[T] {
	return Source[T]{run: func(context.Context) (T, error) { return v, nil }}
}

// NewSource wraps a deferred computation.
func NewSource[T any](fn func(ctx context.Context) (T, error)) Source[T] {
	return Source[T]{run: fn}
}

// Build executes the recorded plan.
func (s Source[T]) Build(ctx context.Context) (T, error) {
	if err := ctx.Err(); err != nil {
		var zero T
		return zero, err
	}
	return s.run(ctx)
}
