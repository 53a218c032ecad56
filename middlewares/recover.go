package middlewares

import (
	"log/slog"
	"runtime"

	"github.com/candlewaxgames/candlewax/internal"
)

const defaultStackSize = 4 << 10

type recoverConfig struct {
	stackSize int
}

// RecoverOption configures Recover.
type RecoverOption func(*recoverConfig)

// WithStackSize caps the captured stack at n bytes. Zero disables capture.
func WithStackSize(n int) RecoverOption {
	return func(cfg *recoverConfig) {
		if n >= 0 {
			cfg.stackSize = n
		}
	}
}

// Recover turns a panic in a later handler into a *PanicError, so the
// visitor gets an error page instead of a dropped connection.
func Recover(opts ...RecoverOption) internal.Middleware {
	cfg := recoverConfig{stackSize: defaultStackSize}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) (err error) {
			defer func() {
				v := recover()
				if v == nil {
					return
				}
				pe := &PanicError{Value: v}
				attrs := []any{slog.Any("panic", v), slog.String("path", c.Request().URL.Path)}
				if cfg.stackSize > 0 {
					buf := make([]byte, cfg.stackSize)
					pe.Stack = buf[:runtime.Stack(buf, false)]
					attrs = append(attrs, slog.String("stack", string(pe.Stack)))
				}
				c.LogError("panic recovered", attrs...)
				err = pe
			}()
			return next(c)
		}
	}
}
