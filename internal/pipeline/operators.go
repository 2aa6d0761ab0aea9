package pipeline

import (
	"context"
	"time"

	"github.com/haasonsaas/sift/internal/retry"
)

// Map transforms the source value with a pure function.
func Map[T, U any](s Source[T], f func(T) U) Source[U] {
	return NewSource(func(ctx context.Context) (U, error) {
		v, err := s.Build(ctx)
		if err != nil {
			var zero U
			return zero, err
		}
		return f(v), nil
	})
}

// TryMap transforms the source value with a fallible function.
func TryMap[T, U any](s Source[T], f func(T) (U, error)) Source[U] {
	return NewSource(func(ctx context.Context) (U, error) {
		v, err := s.Build(ctx)
		if err != nil {
			var zero U
			return zero, err
		}
		return f(v)
	})
}

// Filter keeps the slice elements matching the predicate.
func Filter[T any](s Source[[]T], pred func(T) bool) Source[[]T] {
	return Map(s, func(items []T) []T {
		kept := make([]T, 0, len(items))
		for _, item := range items {
			if pred(item) {
				kept = append(kept, item)
			}
		}
		return kept
	})
}

// Maybe is an optional value produced by Guard.
type Maybe[T any] struct {
	Value T
	OK    bool
}

// Guard passes the value through when the predicate holds and blocks it
// otherwise.
func Guard[T any](s Source[T], pred func(T) bool) Source[Maybe[T]] {
	return Map(s, func(v T) Maybe[T] {
		if pred(v) {
			return Maybe[T]{Value: v, OK: true}
		}
		return Maybe[T]{}
	})
}

// Route pairs a predicate with the operator applied when it matches.
type Route[T, U any] struct {
	When func(T) bool
	Op   func(Source[T]) Source[U]
}

// Router dispatches the value to the first matching route, or to fallback
// when none match. A nil fallback makes an unmatched value an error.
func Router[T, U any](s Source[T], routes []Route[T, U], fallback func(Source[T]) Source[U]) Source[U] {
	return NewSource(func(ctx context.Context) (U, error) {
		v, err := s.Build(ctx)
		if err != nil {
			var zero U
			return zero, err
		}
		for _, r := range routes {
			if r.When(v) {
				return r.Op(From(v)).Build(ctx)
			}
		}
		if fallback != nil {
			return fallback(From(v)).Build(ctx)
		}
		var zero U
		return zero, &LayerError{Layer: "router", Err: ErrNoRoute}
	})
}

// FanOut clones the value into every branch sequentially and collects the
// results in declaration order. Any branch failure fails the whole fan-out.
func FanOut[T, U any](s Source[T], branches ...func(Source[T]) Source[U]) Source[[]U] {
	return NewSource(func(ctx context.Context) ([]U, error) {
		v, err := s.Build(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]U, 0, len(branches))
		for _, branch := range branches {
			u, err := branch(From(v)).Build(ctx)
			if err != nil {
				return nil, err
			}
			out = append(out, u)
		}
		return out, nil
	})
}

// TaskResult is one branch outcome from Parallel.
type TaskResult[U any] struct {
	Value U
	Err   error
}

// Parallel clones the value into every branch concurrently and collects a
// TaskResult per branch, preserving declaration order. Branch failures are
// captured per slot, never lost and never fatal to the others.
func Parallel[T, U any](s Source[T], branches ...func(ctx context.Context, v T) (U, error)) Source[[]TaskResult[U]] {
	return NewSource(func(ctx context.Context) ([]TaskResult[U], error) {
		v, err := s.Build(ctx)
		if err != nil {
			return nil, err
		}
		results := make([]TaskResult[U], len(branches))
		done := make(chan int, len(branches))
		for i, branch := range branches {
			go func(i int, branch func(ctx context.Context, v T) (U, error)) {
				u, err := branch(ctx, v)
				results[i] = TaskResult[U]{Value: u, Err: err}
				done <- i
			}(i, branch)
		}
		for range branches {
			<-done
		}
		return results, nil
	})
}

// Retry re-executes the source on failure per the policy. Errors wrapped with
// retry.Permanent stop immediately.
func Retry[T any](s Source[T], policy retry.Config) Source[T] {
	return NewSource(func(ctx context.Context) (T, error) {
		v, result := retry.DoWithValue(ctx, policy, func() (T, error) {
			return s.Build(ctx)
		})
		return v, result.Err
	})
}

// Timeout fails the source when it runs past d. The underlying work is not
// interrupted; it finishes on its own goroutine and its result is discarded.
func Timeout[T any](s Source[T], d time.Duration) Source[T] {
	return NewSource(func(ctx context.Context) (T, error) {
		type outcome struct {
			v   T
			err error
		}
		ch := make(chan outcome, 1)
		go func() {
			v, err := s.Build(ctx)
			ch <- outcome{v: v, err: err}
		}()
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case o := <-ch:
			return o.v, o.err
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		case <-timer.C:
			var zero T
			return zero, &TimeoutError{Op: "source", Limit: d}
		}
	})
}

// ErrNoRoute reports a Router value no route accepted.
var ErrNoRoute = errNoRoute{}

type errNoRoute struct{}

func (errNoRoute) Error() string { return "no route matched" }
