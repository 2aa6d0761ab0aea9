package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/haasonsaas/sift/internal/config"
	"github.com/haasonsaas/sift/internal/eval"
	"github.com/haasonsaas/sift/internal/observability"
	"github.com/haasonsaas/sift/internal/report"
	"github.com/haasonsaas/sift/internal/runner"
	"github.com/haasonsaas/sift/internal/scorer"
)

type runFlags struct {
	configPath  string
	output      string
	verbose     bool
	concurrency int
	batchSize   int
	strict      bool
	exportRaw   bool
	codec       string
}

func buildRunCmd() *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run <dataset>",
		Short: "Evaluate a dataset through the gate and report metrics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd.Context(), args[0], flags)
		},
	}

	cmd.Flags().StringVar(&flags.configPath, "config", "configs/sift.yaml", "Path to the configuration file")
	cmd.Flags().StringVar(&flags.output, "output", "", "Directory to write results into (omit to skip writing)")
	cmd.Flags().BoolVar(&flags.verbose, "verbose", false, "Print per-sample progress")
	cmd.Flags().IntVar(&flags.concurrency, "concurrency", 0, "Worker count (overrides config)")
	cmd.Flags().IntVar(&flags.batchSize, "batch-size", 0, "Batch size hint (overrides config)")
	cmd.Flags().BoolVar(&flags.strict, "strict", false, "Promote dataset validation warnings to errors")
	cmd.Flags().BoolVar(&flags.exportRaw, "export-raw", false, "Also write uncalibrated scores for calibration training")
	cmd.Flags().StringVar(&flags.codec, "format", "json", "Results format: json or yaml")

	return cmd
}

func runRun(ctx context.Context, datasetPath string, flags *runFlags) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return &exitError{code: exitConfig, err: err}
	}
	if flags.concurrency > 0 {
		cfg.Concurrency = flags.concurrency
	}
	if flags.batchSize > 0 {
		cfg.BatchSize = flags.batchSize
	}

	logLevel := cfg.Logging.Level
	if flags.verbose {
		logLevel = "debug"
	}
	logger := observability.NewLogger(observability.LogConfig{
		Level:  logLevel,
		Format: cfg.Logging.Format,
	})

	data, err := os.ReadFile(datasetPath)
	if err != nil {
		return &exitError{code: exitConfig, err: fmt.Errorf("failed to read dataset: %w", err)}
	}
	if flags.strict {
		if err := eval.ValidateSchema(data); err != nil {
			return &exitError{code: exitValidation, err: err}
		}
	}
	dataset, err := eval.ParseDataset(data)
	if err != nil {
		return &exitError{code: exitConfig, err: err}
	}

	evalCfg := &cfg.Layers.Eval
	warn := func(msg string) { logger.Warn(ctx, msg) }
	if err := dataset.Validate(flags.strict, evalCfg.LabelKeys(), warn); err != nil {
		return &exitError{code: exitValidation, err: err}
	}

	ev, err := eval.New(evalCfg, scorer.NewKeywordScorer(evalCfg.Hypotheses()))
	if err != nil {
		return &exitError{code: exitConfig, err: err}
	}

	tracer, shutdownTracer, err := observability.NewTracer(ctx, observability.TraceConfig{
		ServiceName:    "sift",
		ServiceVersion: version,
		Endpoint:       cfg.Tracing.Endpoint,
		SamplingRate:   cfg.Tracing.SamplingRate,
		Insecure:       cfg.Tracing.Insecure,
	})
	if err != nil {
		return &exitError{code: exitConfig, err: err}
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracer(shutdownCtx)
	}()

	metrics := observability.NewMetrics()
	signals := observability.NewSignalStore(0)
	emitter := observability.NewMultiEmitter(&observability.LogEmitter{Logger: logger}, signals)

	run := runner.New(ev,
		runner.WithLogger(logger),
		runner.WithMetrics(metrics),
		runner.WithEmitter(emitter),
		runner.WithTracer(tracer),
	)

	runCfg := runner.Config{
		Concurrency: cfg.Concurrency,
		BatchSize:   cfg.BatchSize,
	}
	if flags.verbose {
		runCfg.OnProgress = func(p runner.Progress) {
			mark := "✓"
			if !p.Correct {
				mark = "✗"
			}
			fmt.Fprintf(os.Stderr, "[%d/%d] %s %s\n", p.Current, p.Total, mark, p.SampleID)
		}
	}

	started := time.Now()
	result, err := run.Run(ctx, dataset, runCfg)
	if err != nil {
		return &exitError{code: exitRuntime, err: err}
	}
	finished := time.Now()
	metricsOut := result.Metrics()

	if flags.output != "" {
		rep := &report.Report{
			RunID:      uuid.NewString(),
			Dataset:    datasetPath,
			StartedAt:  started,
			FinishedAt: finished,
			Result:     result,
			Metrics:    metricsOut,
		}
		path, err := report.WriteResults(flags.output, datasetPath, rep, report.Codec(flags.codec))
		if err != nil {
			return &exitError{code: exitConfig, err: err}
		}
		logger.Info(ctx, "results written", "path", path)

		if flags.exportRaw {
			export, err := run.Export(ctx, dataset, nil)
			if err != nil {
				return &exitError{code: exitRuntime, err: err}
			}
			rawPath, err := report.WriteRawExport(flags.output, datasetPath, export)
			if err != nil {
				return &exitError{code: exitConfig, err: err}
			}
			logger.Info(ctx, "raw scores written", "path", rawPath)
		}
	}

	printSummary(result, metricsOut)
	return nil
}

func printSummary(result *eval.EvalResult, m eval.Metrics) {
	fmt.Printf("samples:   %d (%d correct, %d failed)\n", result.Total, result.Correct, result.Failed)
	fmt.Printf("accuracy:  %.3f\n", m.Accuracy)
	fmt.Printf("precision: %.3f  recall: %.3f  f1: %.3f\n", m.Precision, m.Recall, m.F1)
	fmt.Printf("elapsed:   %dms (%.1f samples/s)\n", result.ElapsedMS, result.Throughput)
}
