package internal

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/a-h/templ"

	"github.com/candlewaxgames/candlewax/pkg/session"
)

// Context is what middleware and error handlers see of a request. It is a
// context.Context over the request context, which Set and SetContext
// replace.
type Context interface {
	context.Context

	Request() *http.Request
	// Response is the hook-aware writer; writing to it commits the session.
	Response() http.ResponseWriter
	Context() context.Context

	Query(name string) string
	Header(name string) string
	SetHeader(name, value string)

	String(code int, s string) error
	Redirect(code int, url string) error
	Render(code int, component templ.Component) error
	// Written reports whether the response header has been sent.
	Written() bool

	LogWarn(msg string, attrs ...any)
	LogError(msg string, attrs ...any)

	Set(key, value any)
	Get(key any) any
	SetContext(ctx context.Context)

	// Session loads the visitor's session on first use. It returns
	// ErrSessionNotConfigured when the app has no session store.
	Session() (*session.Session, error)
}

// requestContext implements the Context interface.
type requestContext struct {
	request        *http.Request
	responseWriter *ResponseWriter
	logger         *slog.Logger
	sessionManager *SessionManager
	session        *session.Session
	sessionLoaded  bool
}

func newContext(w http.ResponseWriter, r *http.Request, app *App) *requestContext {
	return &requestContext{
		request:        r,
		responseWriter: NewResponseWriter(w),
		logger:         app.logger,
		sessionManager: app.sessionManager,
	}
}

func (c *requestContext) Request() *http.Request        { return c.request }
func (c *requestContext) Response() http.ResponseWriter { return c.responseWriter }
func (c *requestContext) Context() context.Context      { return c.request.Context() }

func (c *requestContext) Deadline() (time.Time, bool) { return c.request.Context().Deadline() }
func (c *requestContext) Done() <-chan struct{}       { return c.request.Context().Done() }
func (c *requestContext) Err() error                  { return c.request.Context().Err() }
func (c *requestContext) Value(key any) any           { return c.request.Context().Value(key) }

func (c *requestContext) Query(name string) string     { return c.request.URL.Query().Get(name) }
func (c *requestContext) Header(name string) string    { return c.request.Header.Get(name) }
func (c *requestContext) SetHeader(name, value string) { c.responseWriter.Header().Set(name, value) }
func (c *requestContext) Written() bool                { return c.responseWriter.Written() }

func (c *requestContext) String(code int, s string) error {
	c.responseWriter.Header().Set("Content-Type", "text/plain; charset=utf-8")
	c.responseWriter.WriteHeader(code)
	_, err := io.WriteString(c.responseWriter, s)
	return err
}

func (c *requestContext) Redirect(code int, url string) error {
	http.Redirect(c.responseWriter, c.request, url, code)
	return nil
}

func (c *requestContext) Render(code int, component templ.Component) error {
	c.responseWriter.Header().Set("Content-Type", "text/html; charset=utf-8")
	c.responseWriter.WriteHeader(code)
	return component.Render(c.request.Context(), c.responseWriter)
}

func (c *requestContext) LogWarn(msg string, attrs ...any) {
	c.logger.WarnContext(c.request.Context(), msg, attrs...)
}

func (c *requestContext) LogError(msg string, attrs ...any) {
	c.logger.ErrorContext(c.request.Context(), msg, attrs...)
}

func (c *requestContext) Set(key, value any) {
	c.SetContext(context.WithValue(c.request.Context(), key, value))
}

func (c *requestContext) Get(key any) any { return c.request.Context().Value(key) }

func (c *requestContext) SetContext(ctx context.Context) {
	c.request = c.request.WithContext(ctx)
}

// Session loads the session once per request and registers a hook that
// flushes it before the first byte of the response.
func (c *requestContext) Session() (*session.Session, error) {
	if c.sessionManager == nil {
		return nil, ErrSessionNotConfigured
	}
	if c.sessionLoaded {
		return c.session, nil
	}

	sess, err := c.sessionManager.Load(c.Context(), c.request)
	if err != nil {
		return nil, err
	}
	c.session = sess
	c.sessionLoaded = true
	c.SetContext(session.WithContext(c.Context(), sess))

	c.responseWriter.OnBeforeWrite(func() {
		// A failed save is logged and the response still goes out.
		if err := c.sessionManager.Flush(c.Context(), c.responseWriter, c.session); err != nil {
			c.logger.ErrorContext(c.Context(), "failed to save session", slog.Any("error", err))
		}
	})
	return c.session, nil
}
