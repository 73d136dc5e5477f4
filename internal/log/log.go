// Package log provides the logging infrastructure for ragstack.
//
// Components receive a log.Logger via their constructor rather than using
// a package-level logger. Add component context with logger.With():
//
//	gate := readiness.NewGate(cfg, logger.With("component", "readiness"))
//
// In tests, use NewNop() or NewWithWriter with a bytes.Buffer to inspect
// output.
package log

import (
	"io"
	"log/slog"
	"os"
)

// Logger is a type alias for *slog.Logger so components depend on the
// standard library type directly while the injection point stays uniform.
type Logger = *slog.Logger

// Config defines logger options.
type Config struct {
	// Level sets the minimum log level. Default: slog.LevelInfo
	Level slog.Level

	// JSON enables JSON output. Default: false (text)
	JSON bool

	// AddSource adds source file information to log entries.
	AddSource bool
}

// New creates a logger writing to os.Stderr.
func New(cfg Config) Logger {
	return NewWithWriter(os.Stderr, cfg)
}

// NewWithWriter creates a logger writing to w.
func NewWithWriter(w io.Writer, cfg Config) Logger {
	opts := &slog.HandlerOptions{
		Level:     cfg.Level,
		AddSource: cfg.AddSource,
	}

	var handler slog.Handler
	if cfg.JSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// Default returns the process-wide logger installed at CLI entry.
func Default() Logger {
	return slog.Default()
}

// NewNop creates a logger that discards all output. Tests only; production
// code should always log somewhere.
func NewNop() Logger {
	return slog.New(slog.DiscardHandler)
}
