package logger

import (
	"context"
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
	sentryslog "github.com/getsentry/sentry-go/slog"
)

// SentryConfig holds the error reporting settings.
type SentryConfig struct {
	DSN         string `mapstructure:"sentry_dsn"`
	Environment string `mapstructure:"sentry_environment"`
	Release     string `mapstructure:"sentry_release"`
	// MinLevel is the lowest level stored as a Sentry log. Errors always
	// become Sentry events.
	MinLevel slog.Level `mapstructure:"-"`
}

// NewWithSentry creates a logger writing to stdout and, when cfg.DSN is set,
// to Sentry. A failed Sentry init degrades to stdout only.
func NewWithSentry(cfg SentryConfig, opts Options, extractors ...ContextExtractor) *slog.Logger {
	base := newBaseHandler(opts)
	if cfg.DSN == "" {
		return slog.New(NewContextHandler(base, extractors...))
	}

	environment := cfg.Environment
	if environment == "" {
		environment = "production"
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.DSN,
		Environment: environment,
		Release:     cfg.Release,
		EnableLogs:  true,
	}); err != nil {
		slog.New(base).Error("sentry init failed", slog.String("error", err.Error()))
		return slog.New(NewContextHandler(base, extractors...))
	}

	logLevels := []slog.Level{slog.LevelWarn, slog.LevelError}
	if cfg.MinLevel >= slog.LevelError {
		logLevels = []slog.Level{slog.LevelError}
	}
	sentryHandler := sentryslog.Option{
		EventLevel: []slog.Level{slog.LevelError},
		LogLevel:   logLevels,
	}.NewSentryHandler(context.Background())

	return slog.New(NewContextHandler(fanout{base, sentryHandler}, extractors...))
}

// FlushSentry returns a shutdown hook that drains buffered Sentry events.
// It is a no-op when Sentry was never initialised.
func FlushSentry() func(ctx context.Context) error {
	return func(ctx context.Context) error {
		timeout := 2 * time.Second
		if deadline, ok := ctx.Deadline(); ok {
			timeout = time.Until(deadline)
		}
		sentry.Flush(timeout)
		return nil
	}
}
