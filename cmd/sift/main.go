// Package main provides the CLI entry point for Sift, a write-time relevance
// gate for agent memory.
//
// Sift scores short utterances against a configurable multi-category label
// set with a local zero-shot scorer, calibrates the confidences, and decides
// whether each utterance carries enough signal to be retained downstream.
//
// # Basic Usage
//
// Evaluate a dataset:
//
//	sift run testdata/smoke.json --config configs/sift.yaml --output results/
//
// # Environment Variables
//
// Any config value can be overridden with a SIFT_-prefixed variable. A single
// underscore steps into the hierarchy; a doubled underscore escapes a literal
// underscore in a key:
//
//   - SIFT_CONCURRENCY=8
//   - SIFT_LAYERS_EVAL_MODIFIER_BASE__THRESHOLD=0.8
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Build information - populated by ldflags during build.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Process exit codes.
const (
	exitOK         = 0
	exitValidation = 1
	exitConfig     = 2
	exitRuntime    = 3
)

// exitError carries the process exit code alongside the cause.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	rootCmd := buildRootCmd()
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command execution failed", "error", err)
		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		os.Exit(exitRuntime)
	}
}

// buildRootCmd creates the root command with all subcommands attached.
// Separated from main() to facilitate testing.
func buildRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sift",
		Short: "Sift - write-time relevance gate for agent memory",
		Long: `Sift decides whether a short utterance carries enough signal to be
retained in agent memory, and explains the decision with a structured,
per-label score breakdown.

The gate runs locally, deterministically, and in well under 200ms per
utterance on commodity hardware.`,
		Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage: true,
	}

	rootCmd.AddCommand(buildRunCmd())
	return rootCmd
}
