// Package observability provides the ambient stack around the gate: slog
// structured logging, the signal emitters behind Context.Emit, Prometheus
// metrics, and OpenTelemetry tracing.
package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger provides structured logging with run/sample correlation.
//
// Built on Go's slog package:
//   - Configurable log levels (debug, info, warn, error)
//   - JSON output for production, text for development
//   - Automatic run and sample id correlation from context
//
// Usage:
//
//	logger := observability.NewLogger(observability.LogConfig{
//	    Level:  "info",
//	    Format: "json",
//	})
//	logger.Info(ctx, "sample evaluated", "id", "s-012", "accepted", true)
type Logger struct {
	logger *slog.Logger
	config LogConfig
}

// LogConfig configures logging behavior.
type LogConfig struct {
	// Level sets the minimum log level: "debug", "info", "warn", "error".
	Level string

	// Format is "json" or "text". JSON is the production default.
	Format string

	// Output is the log writer (defaults to os.Stderr).
	Output io.Writer

	// AddSource includes file and line in log records.
	AddSource bool
}

// ContextKey is the type for correlation keys stored in context.
type ContextKey string

const (
	// RunIDKey correlates all records of one runner invocation.
	RunIDKey ContextKey = "run_id"

	// SampleIDKey correlates records of one sample evaluation.
	SampleIDKey ContextKey = "sample_id"
)

// NewLogger creates a structured logger. Empty or invalid config fields fall
// back to info level, JSON format, stderr.
func NewLogger(config LogConfig) *Logger {
	if config.Output == nil {
		config.Output = os.Stderr
	}
	if config.Format == "" {
		config.Format = "json"
	}

	opts := &slog.HandlerOptions{
		Level:     LogLevelFromString(config.Level),
		AddSource: config.AddSource,
	}
	var handler slog.Handler
	if config.Format == "json" {
		handler = slog.NewJSONHandler(config.Output, opts)
	} else {
		handler = slog.NewTextHandler(config.Output, opts)
	}

	return &Logger{logger: slog.New(handler), config: config}
}

// Debug logs at debug level with optional key-value pairs.
func (l *Logger) Debug(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelDebug, msg, args...)
}

// Info logs at info level with optional key-value pairs.
func (l *Logger) Info(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelInfo, msg, args...)
}

// Warn logs at warn level with optional key-value pairs.
func (l *Logger) Warn(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelWarn, msg, args...)
}

// Error logs at error level with optional key-value pairs.
func (l *Logger) Error(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelError, msg, args...)
}

func (l *Logger) log(ctx context.Context, level slog.Level, msg string, args ...any) {
	attrs := make([]any, 0, len(args)+4)
	if runID, ok := ctx.Value(RunIDKey).(string); ok && runID != "" {
		attrs = append(attrs, "run_id", runID)
	}
	if sampleID, ok := ctx.Value(SampleIDKey).(string); ok && sampleID != "" {
		attrs = append(attrs, "sample_id", sampleID)
	}
	attrs = append(attrs, args...)
	l.logger.Log(ctx, level, msg, attrs...)
}

// WithFields returns a logger with the given fields on every record.
func (l *Logger) WithFields(args ...any) *Logger {
	return &Logger{logger: l.logger.With(args...), config: l.config}
}

// AddRunID attaches a run id to the context for correlation.
func AddRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RunIDKey, runID)
}

// AddSampleID attaches a sample id to the context for correlation.
func AddSampleID(ctx context.Context, sampleID string) context.Context {
	return context.WithValue(ctx, SampleIDKey, sampleID)
}

// LogLevelFromString converts a string to a slog.Level, defaulting to info.
func LogLevelFromString(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "info", "":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
