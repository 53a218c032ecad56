// Package logger builds the structured loggers used across the site.
//
// Loggers are plain *slog.Logger values. Two additions sit on top of log/slog:
//
//   - ContextHandler copies request-scoped values out of the context of each
//     record through ContextExtractor functions.
//   - NewWithSentry mirrors warnings and errors to Sentry when a DSN is set and
//     falls back to stdout only when it is not.
//
// Usage:
//
//	log := logger.New(logger.Options{Level: logger.ParseLevel("debug")},
//		logger.ValueExtractor(requestIDKey{}, "request_id"),
//	)
//	log.InfoContext(ctx, "request served", slog.Int("status", 200))
//	// {"level":"INFO","msg":"request served","status":200,"request_id":"..."}
//
// Components that accept an optional logger default to NewNope.
package logger
