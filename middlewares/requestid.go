package middlewares

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/candlewaxgames/candlewax/internal"
	"github.com/candlewaxgames/candlewax/pkg/logger"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

const maxRequestIDLen = 128

// upstreamHeaders are consulted in order for an id set by a proxy.
var upstreamHeaders = []string{RequestIDHeader, "X-Correlation-ID"}

type requestIDKey struct{}

// RequestID tags every request with an id. A well formed upstream id is
// kept, otherwise a UUID is generated. The id is echoed in the
// X-Request-ID response header.
func RequestID() internal.Middleware {
	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			id := upstreamRequestID(c)
			if id == "" {
				id = uuid.NewString()
			}
			c.Set(requestIDKey{}, id)
			c.SetHeader(RequestIDHeader, id)
			return next(c)
		}
	}
}

func upstreamRequestID(c internal.Context) string {
	for _, h := range upstreamHeaders {
		if v := c.Header(h); validRequestID(v) {
			return v
		}
	}
	return ""
}

// validRequestID accepts up to 128 visible ASCII characters. Anything else
// could smuggle spaces or control bytes into log lines.
func validRequestID(s string) bool {
	if s == "" || len(s) > maxRequestIDLen {
		return false
	}
	for i := range len(s) {
		if s[i] <= ' ' || s[i] > '~' {
			return false
		}
	}
	return true
}

// GetRequestID returns the id RequestID stored in ctx, or "".
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// RequestIDExtractor adds request_id to every record logged with a
// request context.
func RequestIDExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id := GetRequestID(ctx); id != "" {
			return slog.String("request_id", id), true
		}
		return slog.Attr{}, false
	}
}
