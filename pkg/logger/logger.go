package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Format selects the record encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Options configures the stdout side of a logger.
type Options struct {
	// Output defaults to os.Stdout.
	Output io.Writer
	Format Format
	Level  slog.Level
}

// New creates a logger with optional context extractors.
// Records are JSON encoded unless opts.Format is FormatText.
func New(opts Options, extractors ...ContextExtractor) *slog.Logger {
	return slog.New(NewContextHandler(newBaseHandler(opts), extractors...))
}

// NewNope creates a logger that discards everything.
// Components fall back to it when no logger is supplied.
func NewNope() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// ParseLevel maps debug, info, warn and error onto slog levels.
// Anything else yields info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newBaseHandler(opts Options) slog.Handler {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	ho := &slog.HandlerOptions{Level: opts.Level}
	if opts.Format == FormatText {
		return slog.NewTextHandler(out, ho)
	}
	return slog.NewJSONHandler(out, ho)
}
