// Package logging builds the zerolog loggers used by the CLI and the engine.
//
//	log := logging.New(os.Stderr, logging.Options{Level: "debug"})
//	log.Info().Str("run_id", id).Int("rows", n).Msg("reconciled")
package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// Nop discards everything.
var Nop = zerolog.Nop()

// Options controls logger construction.
type Options struct {
	Level   string // trace, debug, info, warn, error; default info
	Format  string // "json" or "console"; default console on a terminal, json otherwise
	NoColor bool
}

// ParseLevel converts a level name, falling back to info.
func ParseLevel(s string) zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

// New creates a logger writing to w.
func New(w io.Writer, opts Options) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	if useConsole(w, opts.Format) {
		w = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.Kitchen,
			NoColor:    opts.NoColor || os.Getenv("NO_COLOR") != "",
		}
	}

	level := ParseLevel(opts.Level)
	logger := zerolog.New(w).Level(level).With().Timestamp().Logger()
	if level <= zerolog.DebugLevel {
		logger = logger.With().Caller().Logger()
	}
	return logger
}

func useConsole(w io.Writer, format string) bool {
	switch strings.ToLower(format) {
	case "json":
		return false
	case "console", "text":
		return true
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

type contextKey struct{}

// WithLogger stores logger in ctx.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext returns the logger stored in ctx, or Nop.
func FromContext(ctx context.Context) zerolog.Logger {
	if ctx == nil {
		return Nop
	}
	if logger, ok := ctx.Value(contextKey{}).(zerolog.Logger); ok {
		return logger
	}
	return Nop
}
