package pipeline

import "context"

// Task is a handle to work running on its own goroutine. Await collects the
// result; Cancel signals the task's context so abandoned pipelines release
// what they spawned.
type Task[T any] struct {
	done   chan TaskResult[T]
	cancel context.CancelFunc
}

// Spawn starts the source on its own goroutine as soon as the returned
// source is built, yielding a Task handle that bridges the synchronous plan
// into async execution.
func Spawn[T any](s Source[T]) Source[*Task[T]] {
	return NewSource(func(ctx context.Context) (*Task[T], error) {
		taskCtx, cancel := context.WithCancel(ctx)
		t := &Task[T]{
			done:   make(chan TaskResult[T], 1),
			cancel: cancel,
		}
		go func() {
			v, err := s.Build(taskCtx)
			t.done <- TaskResult[T]{Value: v, Err: err}
		}()
		return t, nil
	})
}

// Await blocks until the task finishes or ctx is done.
func (t *Task[T]) Await(ctx context.Context) (T, error) {
	select {
	case r := <-t.done:
		return r.Value, r.Err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Cancel signals the task's context. The task still completes its in-flight
// work; Await returns whatever it produced.
func (t *Task[T]) Cancel() {
	t.cancel()
}

// Await converts a task source back into a value source.
func Await[T any](s Source[*Task[T]]) Source[T] {
	return NewSource(func(ctx context.Context) (T, error) {
		t, err := s.Build(ctx)
		if err != nil {
			var zero T
			return zero, err
		}
		return t.Await(ctx)
	})
}
