package middlewares_test

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/a-h/templ"

	"github.com/candlewaxgames/candlewax/internal"
	"github.com/candlewaxgames/candlewax/pkg/session"
)

// testContext is a minimal internal.Context that records log calls.
type testContext struct {
	response http.ResponseWriter
	request  *http.Request
	logs     *bytes.Buffer
	logger   *slog.Logger
	mu       sync.RWMutex
}

func newTestContext(w http.ResponseWriter, r *http.Request) *testContext {
	buf := &bytes.Buffer{}
	return &testContext{
		response: w,
		request:  r,
		logs:     buf,
		logger:   slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})),
	}
}

func (c *testContext) req() *http.Request {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.request
}

func (c *testContext) Request() *http.Request        { return c.req() }
func (c *testContext) Response() http.ResponseWriter { return c.response }
func (c *testContext) Context() context.Context      { return c.req().Context() }
func (c *testContext) Deadline() (time.Time, bool)   { return c.Context().Deadline() }
func (c *testContext) Done() <-chan struct{}         { return c.Context().Done() }
func (c *testContext) Err() error                    { return c.Context().Err() }
func (c *testContext) Value(key any) any             { return c.Context().Value(key) }
func (c *testContext) Query(name string) string      { return c.req().URL.Query().Get(name) }
func (c *testContext) Header(name string) string     { return c.req().Header.Get(name) }
func (c *testContext) SetHeader(name, value string)  { c.response.Header().Set(name, value) }
func (c *testContext) Written() bool                 { return false }

func (c *testContext) String(code int, s string) error {
	c.response.WriteHeader(code)
	_, err := c.response.Write([]byte(s))
	return err
}

func (c *testContext) Redirect(code int, url string) error {
	http.Redirect(c.response, c.req(), url, code)
	return nil
}

func (c *testContext) Render(code int, component templ.Component) error {
	c.response.WriteHeader(code)
	return component.Render(c.Context(), c.response)
}

func (c *testContext) LogWarn(msg string, attrs ...any) {
	c.logger.WarnContext(c.Context(), msg, attrs...)
}

func (c *testContext) LogError(msg string, attrs ...any) {
	c.logger.ErrorContext(c.Context(), msg, attrs...)
}

func (c *testContext) Set(key, value any) {
	c.SetContext(context.WithValue(c.Context(), key, value))
}

func (c *testContext) Get(key any) any { return c.Context().Value(key) }

func (c *testContext) SetContext(ctx context.Context) {
	c.mu.Lock()
	c.request = c.request.WithContext(ctx)
	c.mu.Unlock()
}

func (c *testContext) Session() (*session.Session, error) {
	return nil, internal.ErrSessionNotConfigured
}

func (c *testContext) logged() string {
	return c.logs.String()
}
