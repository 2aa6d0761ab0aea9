// Package runner drives an Evaluator over a dataset with bounded
// concurrency. The evaluator (and the model handle inside its scorer) is not
// safe for concurrent use, so the runner serializes the scoring call behind
// an exclusive guard while workers overlap dequeueing, result assembly,
// signal emission, and aggregation. True parallel scoring would require one
// evaluator replica per worker; the contract here is compatible with either.
package runner

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/haasonsaas/sift/internal/eval"
	"github.com/haasonsaas/sift/internal/observability"
)

// Progress is delivered once per completed sample, in completion order.
type Progress struct {
	Current  int
	Total    int
	SampleID string
	Correct  bool
}

// Config tunes a run.
type Config struct {
	// Concurrency is the worker count. Defaults to 4.
	Concurrency int

	// BatchSize is a hint for batch-capable scorers. Stream does not read it:
	// every sample is scored with its own Score call.
	BatchSize int

	// OnProgress, when set, fires after every completed sample. It is called
	// from worker goroutines and must be safe for concurrent use.
	OnProgress func(Progress)
}

// Runner evaluates datasets.
type Runner struct {
	mu   sync.Mutex // exclusive guard around the evaluator's scorer
	eval *eval.Evaluator

	log     *observability.Logger
	metrics *observability.Metrics
	emitter observability.Emitter
	tracer  *observability.Tracer
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger attaches a logger.
func WithLogger(l *observability.Logger) Option {
	return func(r *Runner) { r.log = l }
}

// WithMetrics attaches metrics collection.
func WithMetrics(m *observability.Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// WithEmitter attaches the signal emitter.
func WithEmitter(e observability.Emitter) Option {
	return func(r *Runner) { r.emitter = e }
}

// WithTracer attaches span creation around the run and each sample.
func WithTracer(t *observability.Tracer) Option {
	return func(r *Runner) { r.tracer = t }
}

// New creates a Runner owning exclusive access to the evaluator.
func New(e *eval.Evaluator, opts ...Option) *Runner {
	r := &Runner{eval: e}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Stream evaluates every sample and sends results on the returned channel in
// completion order; callers needing dataset order re-sort by id. The channel
// closes when all workers drain or cancellation stops new work. In-flight
// evaluations always finish: the CPU-bound model call cannot be interrupted
// safely, so cancellation is observed at dequeue and after each evaluation.
//
// Per-sample evaluation errors become failed SampleResults; they never stop
// the stream.
func (r *Runner) Stream(ctx context.Context, dataset *eval.SampleDataset, cfg Config) <-chan eval.SampleResult {
	workers := cfg.Concurrency
	if workers <= 0 {
		workers = 4
	}

	// Bounded input queue: producers block when workers fall behind.
	input := make(chan *eval.Sample, workers)
	results := make(chan eval.SampleResult, workers)
	total := len(dataset.Samples)

	var done int
	var doneMu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(input)
		for i := range dataset.Samples {
			select {
			case input <- &dataset.Samples[i]:
			case <-gctx.Done():
				return nil
			}
		}
		return nil
	})

	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for {
				var sample *eval.Sample
				select {
				case s, ok := <-input:
					if !ok {
						return nil
					}
					sample = s
				case <-gctx.Done():
					return nil
				}

				sr := r.evaluateSample(gctx, sample)

				doneMu.Lock()
				done++
				current := done
				doneMu.Unlock()

				if cfg.OnProgress != nil {
					cfg.OnProgress(Progress{
						Current:  current,
						Total:    total,
						SampleID: sr.ID,
						Correct:  sr.Correct,
					})
				}
				if r.emitter != nil {
					r.emitter.Emit(gctx, "eval.sample.completed", map[string]any{
						"id":         sr.ID,
						"elapsed_ms": sr.ElapsedMS,
					})
				}

				select {
				case results <- sr:
				case <-gctx.Done():
					// Best-effort delivery of work that already finished.
					select {
					case results <- sr:
					default:
					}
					return nil
				}
			}
		})
	}

	go func() {
		_ = g.Wait()
		close(results)
	}()

	return results
}

// Run evaluates the dataset and aggregates everything into one EvalResult,
// emitting eval.run.done with the derived metrics at the end.
func (r *Runner) Run(ctx context.Context, dataset *eval.SampleDataset, cfg Config) (*eval.EvalResult, error) {
	runID := uuid.NewString()
	ctx = observability.AddRunID(ctx, runID)

	start := time.Now()
	var runEnd func()
	if r.tracer != nil {
		sctx, span := r.tracer.Start(ctx, "eval.run",
			attribute.String("run.id", runID),
			attribute.Int("run.samples", len(dataset.Samples)),
		)
		ctx = sctx
		runEnd = func() { span.End() }
	}

	byID := make(map[string]*eval.Sample, len(dataset.Samples))
	for i := range dataset.Samples {
		byID[dataset.Samples[i].ID] = &dataset.Samples[i]
	}

	result := eval.NewResult()
	universe := r.eval.Config().LabelKeys()
	for sr := range r.Stream(ctx, dataset, cfg) {
		sample := byID[sr.ID]
		result.Add(sample, &sr, universe)
		if sr.Err != "" && r.metrics != nil {
			r.metrics.SampleFailures.Inc()
		}
	}

	elapsed := time.Since(start)
	result.ElapsedMS = elapsed.Milliseconds()
	if secs := elapsed.Seconds(); secs > 0 {
		result.Throughput = float64(result.Total) / secs
	}

	if r.metrics != nil {
		r.metrics.RunDuration.Observe(elapsed.Seconds())
	}
	metrics := result.Metrics()
	if r.emitter != nil {
		r.emitter.Emit(ctx, "eval.run.done", map[string]any{
			"run_id":    runID,
			"total":     result.Total,
			"correct":   result.Correct,
			"failed":    result.Failed,
			"accuracy":  metrics.Accuracy,
			"precision": metrics.Precision,
			"recall":    metrics.Recall,
			"f1":        metrics.F1,
		})
	}
	if r.log != nil {
		r.log.Info(ctx, "run complete",
			"total", result.Total,
			"correct", result.Correct,
			"failed", result.Failed,
			"accuracy", metrics.Accuracy,
			"elapsed_ms", result.ElapsedMS,
		)
	}
	if runEnd != nil {
		runEnd()
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

// evaluateSample scores one sample under the exclusive guard and assembles
// its result. Evaluation failures are captured on the result.
func (r *Runner) evaluateSample(ctx context.Context, sample *eval.Sample) eval.SampleResult {
	sctx := observability.AddSampleID(ctx, sample.ID)
	var end func()
	if r.tracer != nil {
		tctx, span := r.tracer.Start(sctx, "eval.sample", attribute.String("sample.id", sample.ID))
		sctx = tctx
		end = func() { span.End() }
	}
	start := time.Now()

	r.mu.Lock()
	out, err := r.eval.Score(sctx, sample.Text)
	r.mu.Unlock()

	elapsed := time.Since(start)
	if r.metrics != nil {
		r.metrics.EvalDuration.Observe(elapsed.Seconds())
	}

	var sr eval.SampleResult
	if err != nil {
		sr = eval.SampleResult{
			ID:               sample.ID,
			ExpectedDecision: sample.ExpectedDecision,
			ExpectedLabels:   sample.ExpectedLabels,
			Err:              err.Error(),
		}
		if r.log != nil {
			r.log.Warn(sctx, "sample evaluation failed", "error", err)
		}
	} else {
		actual := r.eval.Decide(out)
		if r.metrics != nil {
			r.metrics.ObserveDecision(actual.Accepted, string(actual.Reason))
		}
		sr = eval.SampleResult{
			ID:               sample.ID,
			ExpectedDecision: sample.ExpectedDecision,
			ActualDecision:   actual,
			Correct:          actual.SameOutcome(sample.ExpectedDecision),
			Overall:          out.Overall,
			ExpectedLabels:   sample.ExpectedLabels,
			DetectedLabels:   out.DetectedLabels(),
		}
	}
	sr.ElapsedMS = elapsed.Milliseconds()
	if end != nil {
		end()
	}
	return sr
}
