// Package logger installs the process-wide slog handler and carries the run
// id and the current stage through contexts, so every record of one
// evaluation run can be correlated.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
)

type contextKey struct{}

type fields struct {
	runID string
	stage string
}

// Setup installs the default logger on stderr; stdout carries the report.
func Setup(level string, format string) {
	SetupWriter(os.Stderr, level, format)
}

func SetupWriter(w io.Writer, level string, format string) {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	var handler slog.Handler = slog.NewTextHandler(w, opts)
	if format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// ParseLevel accepts slog level names in any case, with optional offsets
// such as "debug+2". Unknown names fall back to info.
func ParseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

func fieldsFrom(ctx context.Context) fields {
	f, _ := ctx.Value(contextKey{}).(fields)
	return f
}

func WithRunID(ctx context.Context, runID string) context.Context {
	f := fieldsFrom(ctx)
	f.runID = runID
	return context.WithValue(ctx, contextKey{}, f)
}

// WithStage tags records logged under ctx with the pipeline stage.
func WithStage(ctx context.Context, stage string) context.Context {
	f := fieldsFrom(ctx)
	f.stage = stage
	return context.WithValue(ctx, contextKey{}, f)
}

// FromContext returns the default logger with the run id and stage of ctx.
func FromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()
	f := fieldsFrom(ctx)
	if f.runID != "" {
		logger = logger.With("run_id", f.runID)
	}
	if f.stage != "" {
		logger = logger.With("stage", f.stage)
	}
	return logger
}

func WithComponent(component string) *slog.Logger {
	return slog.Default().With("component", component)
}
