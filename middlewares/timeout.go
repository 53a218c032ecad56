package middlewares

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/candlewaxgames/candlewax/internal"
)

// DefaultTimeout applies when Timeout is given a non-positive duration.
const DefaultTimeout = 30 * time.Second

// Timeout puts a deadline on the request context, so store queries issued
// while dispatching are cancelled with it. A handler still running at the
// deadline yields a *TimeoutError. The handler goroutine itself runs on
// until it observes the cancelled context.
func Timeout(d time.Duration) internal.Middleware {
	if d <= 0 {
		d = DefaultTimeout
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			ctx, cancel := context.WithTimeout(c.Context(), d)
			defer cancel()
			c.SetContext(ctx)

			done := make(chan error, 1)
			go func() { done <- next(c) }()

			select {
			case err := <-done:
				return err
			case <-ctx.Done():
				if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
					return ctx.Err()
				}
				c.LogWarn("request timed out",
					slog.String("path", c.Request().URL.Path),
					slog.Duration("after", d),
				)
				return &TimeoutError{After: d}
			}
		}
	}
}
