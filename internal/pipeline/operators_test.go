package pipeline

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/haasonsaas/sift/internal/retry"
)

func TestSourceIsLazy(t *testing.T) {
	var ran atomic.Int32
	src := NewSource(func(context.Context) (int, error) {
		ran.Add(1)
		return 1, nil
	})
	mapped := Map(src, func(v int) int { return v * 2 })

	if ran.Load() != 0 {
		t.Fatalf("piping operators must not execute the source")
	}
	got, err := mapped.Build(context.Background())
	if err != nil || got != 2 {
		t.Fatalf("expected 2, got %v (%v)", got, err)
	}
	if ran.Load() != 1 {
		t.Fatalf("expected exactly one execution, got %d", ran.Load())
	}
}

func TestTryMapPropagatesError(t *testing.T) {
	boom := errors.New("boom")
	src := TryMap(From(1), func(int) (int, error) { return 0, boom })
	if _, err := src.Build(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestFilterKeepsMatching(t *testing.T) {
	src := Filter(From([]int{1, 2, 3, 4}), func(v int) bool { return v%2 == 0 })
	got, err := src.Build(context.Background())
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if len(got) != 2 || got[0] != 2 || got[1] != 4 {
		t.Fatalf("unexpected result: %v", got)
	}
}

func TestGuardBlocksAndPasses(t *testing.T) {
	pass, err := Guard(From(10), func(v int) bool { return v > 5 }).Build(context.Background())
	if err != nil || !pass.OK || pass.Value != 10 {
		t.Fatalf("expected pass-through, got %+v (%v)", pass, err)
	}
	blocked, err := Guard(From(1), func(v int) bool { return v > 5 }).Build(context.Background())
	if err != nil || blocked.OK {
		t.Fatalf("expected blocked value, got %+v (%v)", blocked, err)
	}
}

func TestRouterPicksFirstMatch(t *testing.T) {
	double := func(s Source[int]) Source[string] {
		return Map(s, func(int) string { return "double" })
	}
	negative := func(s Source[int]) Source[string] {
		return Map(s, func(int) string { return "negative" })
	}
	fallback := func(s Source[int]) Source[string] {
		return Map(s, func(int) string { return "fallback" })
	}
	routes := []Route[int, string]{
		{When: func(v int) bool { return v < 0 }, Op: negative},
		{When: func(v int) bool { return v%2 == 0 }, Op: double},
	}

	got, _ := Router(From(4), routes, fallback).Build(context.Background())
	if got != "double" {
		t.Fatalf("expected double, got %v", got)
	}
	got, _ = Router(From(-3), routes, fallback).Build(context.Background())
	if got != "negative" {
		t.Fatalf("expected negative, got %v", got)
	}
	got, _ = Router(From(3), routes, fallback).Build(context.Background())
	if got != "fallback" {
		t.Fatalf("expected fallback, got %v", got)
	}

	if _, err := Router(From(3), routes, nil).Build(context.Background()); !errors.Is(err, ErrNoRoute) {
		t.Fatalf("expected ErrNoRoute without fallback")
	}
}

func TestFanOutCollectsInDeclarationOrder(t *testing.T) {
	branch := func(suffix string) func(Source[string]) Source[string] {
		return func(s Source[string]) Source[string] {
			return Map(s, func(v string) string { return v + suffix })
		}
	}
	got, err := FanOut(From("x"), branch("1"), branch("2"), branch("3")).Build(context.Background())
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	want := []string{"x1", "x2", "x3"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestParallelPreservesOrderAndCapturesErrors(t *testing.T) {
	boom := errors.New("branch failed")
	slow := func(_ context.Context, v int) (int, error) {
		time.Sleep(20 * time.Millisecond)
		return v * 10, nil
	}
	fast := func(_ context.Context, v int) (int, error) { return v + 1, nil }
	bad := func(context.Context, int) (int, error) { return 0, boom }

	got, err := Parallel(From(5), slow, fast, bad).Build(context.Background())
	if err != nil {
		t.Fatalf("parallel itself must not fail: %v", err)
	}
	if got[0].Err != nil || got[0].Value != 50 {
		t.Fatalf("slow branch out of order: %+v", got[0])
	}
	if got[1].Err != nil || got[1].Value != 6 {
		t.Fatalf("fast branch out of order: %+v", got[1])
	}
	if !errors.Is(got[2].Err, boom) {
		t.Fatalf("expected captured branch error, got %+v", got[2])
	}
}

func TestRetryRecoversTransientFailure(t *testing.T) {
	var attempts atomic.Int32
	src := NewSource(func(context.Context) (string, error) {
		if attempts.Add(1) < 3 {
			return "", errors.New("flaky")
		}
		return "ok", nil
	})

	got, err := Retry(src, retry.Linear(5, time.Millisecond)).Build(context.Background())
	if err != nil || got != "ok" {
		t.Fatalf("expected recovery, got %v (%v)", got, err)
	}
	if attempts.Load() != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts.Load())
	}
}

func TestRetryStopsOnPermanentError(t *testing.T) {
	var attempts atomic.Int32
	fatal := errors.New("fatal")
	src := NewSource(func(context.Context) (int, error) {
		attempts.Add(1)
		return 0, retry.Permanent(fatal)
	})

	_, err := Retry(src, retry.Linear(5, time.Millisecond)).Build(context.Background())
	if !errors.Is(err, fatal) {
		t.Fatalf("expected fatal error, got %v", err)
	}
	if attempts.Load() != 1 {
		t.Fatalf("permanent error must not retry, got %d attempts", attempts.Load())
	}
}

func TestTimeoutConvertsDeadlineToFailure(t *testing.T) {
	src := NewSource(func(ctx context.Context) (int, error) {
		time.Sleep(100 * time.Millisecond)
		return 42, nil
	})
	_, err := Timeout(src, 5*time.Millisecond).Build(context.Background())
	if !IsTimeout(err) {
		t.Fatalf("expected TimeoutError, got %v", err)
	}

	fast := Timeout(From(7), time.Second)
	got, err := fast.Build(context.Background())
	if err != nil || got != 7 {
		t.Fatalf("fast source must pass through, got %v (%v)", got, err)
	}
}

func TestSpawnAwaitBridgesAsync(t *testing.T) {
	src := NewSource(func(context.Context) (int, error) {
		time.Sleep(5 * time.Millisecond)
		return 9, nil
	})
	got, err := Await(Spawn(src)).Build(context.Background())
	if err != nil || got != 9 {
		t.Fatalf("expected 9, got %v (%v)", got, err)
	}
}

func TestTaskCancelReleasesWork(t *testing.T) {
	started := make(chan struct{})
	src := NewSource(func(ctx context.Context) (int, error) {
		close(started)
		<-ctx.Done()
		return 0, ctx.Err()
	})

	task, err := Spawn(src).Build(context.Background())
	if err != nil {
		t.Fatalf("spawn failed: %v", err)
	}
	<-started
	task.Cancel()

	_, err = task.Await(context.Background())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation to reach the task, got %v", err)
	}
}
