package blobio

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/hupe1980/blobio/blobstore"
)

// Logger wraps slog.Logger with blobio-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	}))
}

// WithDescriptor adds a descriptor field to the logger.
func (l *Logger) WithDescriptor(d blobstore.Descriptor) *Logger {
	return &Logger{
		Logger: l.Logger.With("descriptor", int(d)),
	}
}

// WithMode adds a mode field to the logger.
func (l *Logger) WithMode(m Mode) *Logger {
	return &Logger{
		Logger: l.Logger.With("mode", m.String()),
	}
}

// LogOpen logs an open operation.
func (l *Logger) LogOpen(ctx context.Context, bufferSize int, pos int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "open failed",
			"buffer_size", bufferSize,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "stream opened",
			"buffer_size", bufferSize,
			"position", pos,
		)
	}
}

// LogClose logs a close operation.
func (l *Logger) LogClose(ctx context.Context, err error) {
	if err != nil {
		l.ErrorContext(ctx, "close failed", "error", err)
	} else {
		l.DebugContext(ctx, "stream closed")
	}
}

// LogFetch logs a fetch round trip.
func (l *Logger) LogFetch(ctx context.Context, off int64, n int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "fetch failed",
			"offset", off,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "window fetched",
			"offset", off,
			"bytes", n,
		)
	}
}

// LogFlush logs a flush round trip. An offset of blobstore.AppendOffset
// is logged as an append.
func (l *Logger) LogFlush(ctx context.Context, off int64, n int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "flush failed",
			"offset", off,
			"bytes", n,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "window flushed",
			"offset", off,
			"append", off == blobstore.AppendOffset,
			"bytes", n,
		)
	}
}
