// Package logger builds the zerolog loggers used across bankload and carries
// them through context.Context.
package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

// ContextKey is the type for context keys used by the logger
type ContextKey string

const (
	// LoggerKey is the context key for the logger instance
	LoggerKey ContextKey = "logger"
)

func init() {
	// Errors built with github.com/pkg/errors carry a stack; render it when a
	// log event asks for .Stack().
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
}

// Options selects level and output format.
type Options struct {
	Level  string // trace|debug|info|warn|error; empty means info
	Format string // console|json; empty means console
}

var fallback = New(Options{})

// New creates a structured logger writing to stderr.
func New(opts Options) zerolog.Logger {
	var w io.Writer = os.Stderr
	if !strings.EqualFold(opts.Format, "json") {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}
	return NewWithWriter(w, opts.Level)
}

// NewWithWriter creates a structured logger with a custom writer
func NewWithWriter(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// SetDefault replaces the logger returned by FromContext when the context
// carries none.
func SetDefault(l zerolog.Logger) { fallback = l }

// WithContext adds the logger to the context
func WithContext(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// FromContext retrieves the logger from the context or returns the default logger
func FromContext(ctx context.Context) zerolog.Logger {
	if logger, ok := ctx.Value(LoggerKey).(zerolog.Logger); ok {
		return logger
	}
	return fallback
}
