package internal

import (
	"io/fs"
	"log/slog"
	"net/http"
	"strings"

	"github.com/candlewaxgames/candlewax/pkg/session"
)

// Option configures an App.
type Option func(*App)

// WithDispatcher hands every path not claimed by a health endpoint or a static mount
// to the MVC router.
func WithDispatcher(r *Router) Option {
	return func(a *App) { a.dispatcher = r }
}

// WithMiddleware appends middleware. The first one given runs outermost.
func WithMiddleware(mw ...Middleware) Option {
	return func(a *App) { a.middlewares = append(a.middlewares, mw...) }
}

// WithStaticFiles serves the subDir of fsys under pattern, which should end
// in a slash:
//
//	candlewax.WithStaticFiles("/static/", static.FS, ".")
//
// Directory paths answer 404. A bad subDir panics at construction.
func WithStaticFiles(pattern string, fsys fs.FS, subDir string) Option {
	return func(a *App) {
		root, err := fs.Sub(fsys, subDir)
		if err != nil {
			panic(err)
		}
		files := http.StripPrefix(strings.TrimSuffix(pattern, "/"), http.FileServerFS(root))

		a.staticRoutes = append(a.staticRoutes, staticRoute{
			pattern: pattern,
			handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if strings.HasSuffix(r.URL.Path, "/") {
					http.NotFound(w, r)
					return
				}
				h := w.Header()
				h.Set("Cache-Control", "public, max-age=3600")
				h.Set("X-Content-Type-Options", "nosniff")
				files.ServeHTTP(w, r)
			}),
		})
	}
}

// WithErrorHandler replaces the plain-text error page, for instance with
// one rendered in the site layout:
//
//	candlewax.WithErrorHandler(func(c candlewax.Context, err error) error {
//	    return c.Render(candlewax.StatusFor(err), pages.ErrorPage(candlewax.StatusFor(err)))
//	})
func WithErrorHandler(h ErrorHandler) Option {
	return func(a *App) { a.errorHandler = h }
}

// WithHealthChecks mounts the liveness and readiness endpoints. Readiness runs
// every check added with WithReadinessCheck.
func WithHealthChecks(opts ...HealthOption) Option {
	return func(a *App) {
		cfg := &healthConfig{liveness: defaultLivenessPath, readiness: defaultReadinessPath}
		for _, opt := range opts {
			opt(cfg)
		}
		a.healthConfig = cfg
	}
}

// WithLogger sets the logger handed to contexts, sessions and health checks.
// A nil logger is ignored.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithSession loads a session for every dispatched request and saves it
// right before the response header is written.
func WithSession(store session.Store, opts ...SessionOption) Option {
	return func(a *App) { a.sessionManager = NewSessionManager(store, opts...) }
}

// WithMaxFormMemory caps the memory used for multipart bodies. Defaults to
// 32 MB; non-positive values are ignored.
func WithMaxFormMemory(n int64) Option {
	return func(a *App) {
		if n > 0 {
			a.maxFormMemory = n
		}
	}
}
