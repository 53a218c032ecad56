package internal_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/candlewaxgames/candlewax/internal"
	"github.com/candlewaxgames/candlewax/pkg/session"
)

type homeController struct{}

func textView(format string, keys ...string) internal.ViewFunc {
	return func(data map[string]any) templ.Component {
		return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
			args := make([]any, len(keys))
			for i, k := range keys {
				args[i] = data[k]
			}
			_, err := fmt.Fprintf(w, format, args...)
			return err
		})
	}
}

func newDispatcher(t *testing.T) *internal.Router {
	t.Helper()

	in := internal.NewInjector()
	for _, typ := range []internal.TypeID{"Index.Index", "User.Account"} {
		in.Provide(typ, nil, func([]any) (any, error) { return homeController{}, nil })
	}

	views := internal.NewViews().
		Add("Index/index", textView("home %v", "session")).
		Add("Index/404", textView("nothing here"))

	action := func(fn func(ctx context.Context, args internal.Args) (internal.Outcome, error)) internal.ActionFunc {
		return func(ctx context.Context, _ any, args internal.Args) (internal.Outcome, error) {
			return fn(ctx, args)
		}
	}

	return internal.NewRouter(in, views,
		internal.WithControllers(
			internal.ControllerSpec{
				Type: "Index.Index",
				Actions: []internal.ActionSpec{
					{Name: "index", Invoke: action(func(context.Context, internal.Args) (internal.Outcome, error) {
						return internal.Render{View: "Index/index"}, nil
					})},
					{Name: "notFound", Invoke: action(func(context.Context, internal.Args) (internal.Outcome, error) {
						return internal.Render{View: "Index/404"}, nil
					})},
					{Name: "broken", Invoke: action(func(context.Context, internal.Args) (internal.Outcome, error) {
						return nil, errors.New("db: connection reset")
					})},
					{Name: "secret", Invoke: action(func(context.Context, internal.Args) (internal.Outcome, error) {
						return nil, internal.ErrForbidden("members only")
					})},
				},
			},
			internal.ControllerSpec{
				Type: "User.Account",
				Actions: []internal.ActionSpec{
					{
						Name:   "login",
						Params: []internal.Param{{Name: "post", Kind: internal.KindForm}},
						Invoke: action(func(ctx context.Context, args internal.Args) (internal.Outcome, error) {
							sess := session.FromContext(ctx)
							sess.Set("user", args.Form(0)["name"])
							sess.Regenerate()
							return internal.Redirect{URL: "/"}, nil
						}),
					},
				},
			},
		),
	)
}

func TestApp_RendersThroughDispatcher(t *testing.T) {
	t.Parallel()

	app := internal.New(internal.WithDispatcher(newDispatcher(t)))

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "home"))

	rec = httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/no/such/page/here", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "nothing here", rec.Body.String())
}

func TestApp_LoginStoresSessionAndRedirects(t *testing.T) {
	t.Parallel()

	store := session.NewMemoryStore()
	app := internal.New(
		internal.WithDispatcher(newDispatcher(t)),
		internal.WithSession(store),
	)

	form := url.Values{"name": {"ann"}}
	req := httptest.NewRequest(http.MethodPost, "/user/account/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, 1, store.Len())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "home map[user:ann]", rec.Body.String())
	assert.Empty(t, rec.Result().Cookies())
}

func TestApp_Errors(t *testing.T) {
	t.Parallel()

	t.Run("unexpected errors become 500", func(t *testing.T) {
		t.Parallel()

		app := internal.New(internal.WithDispatcher(newDispatcher(t)))
		rec := httptest.NewRecorder()
		app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/index/index/broken", nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "connection reset")
	})

	t.Run("http errors keep their status", func(t *testing.T) {
		t.Parallel()

		app := internal.New(internal.WithDispatcher(newDispatcher(t)))
		rec := httptest.NewRecorder()
		app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/index/index/secret", nil))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("custom handler writes the page", func(t *testing.T) {
		t.Parallel()

		var seen error
		app := internal.New(
			internal.WithDispatcher(newDispatcher(t)),
			internal.WithErrorHandler(func(c internal.Context, err error) error {
				seen = err
				return c.String(internal.StatusFor(err), "sorry")
			}),
		)
		rec := httptest.NewRecorder()
		app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/index/index/secret", nil))
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "sorry", rec.Body.String())
		assert.True(t, internal.IsHTTPError(seen))
	})

	t.Run("failing handler falls back to default", func(t *testing.T) {
		t.Parallel()

		app := internal.New(
			internal.WithDispatcher(newDispatcher(t)),
			internal.WithErrorHandler(func(internal.Context, error) error {
				return errors.New("template missing")
			}),
		)
		rec := httptest.NewRecorder()
		app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/index/index/secret", nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("malformed form is a bad request", func(t *testing.T) {
		t.Parallel()

		app := internal.New(internal.WithDispatcher(newDispatcher(t)))
		req := httptest.NewRequest(http.MethodPost, "/user/account/login", strings.NewReader("name=%zz"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestApp_HealthChecks(t *testing.T) {
	t.Parallel()

	app := internal.New(internal.WithHealthChecks(
		internal.WithReadinessCheck("db", func(context.Context) error { return errors.New("down") }),
	))

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestApp_StaticFiles(t *testing.T) {
	t.Parallel()

	assets := fstest.MapFS{"public/app.css": {Data: []byte("body{}")}}
	app := internal.New(
		internal.WithStaticFiles("/static/", assets, "public"),
		internal.WithDispatcher(newDispatcher(t)),
	)

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/app.css", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "body{}", rec.Body.String())
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	rec = httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type tenantKey struct{}

func TestApp_MiddlewareOrderAndValues(t *testing.T) {
	t.Parallel()

	var order []string
	app := internal.New(
		internal.WithMiddleware(
			func(next internal.HandlerFunc) internal.HandlerFunc {
				return func(c internal.Context) error {
					order = append(order, "first")
					c.Set(tenantKey{}, "acme")
					return next(c)
				}
			},
			func(next internal.HandlerFunc) internal.HandlerFunc {
				return func(c internal.Context) error {
					order = append(order, "second")
					c.SetHeader("X-Tenant", internal.ContextValue[string](c, tenantKey{}))
					c.SetHeader("X-Page", fmt.Sprint(internal.QueryDefault(c, "page", 1)))
					c.SetHeader("X-Sort", internal.Query[string](c, "sort"))
					return next(c)
				}
			},
		),
		internal.WithDispatcher(newDispatcher(t)),
	)

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?page=x&sort=new", nil))

	assert.Equal(t, []string{"first", "second"}, order)
	assert.Equal(t, "acme", rec.Header().Get("X-Tenant"))
	assert.Equal(t, "1", rec.Header().Get("X-Page"))
	assert.Equal(t, "new", rec.Header().Get("X-Sort"))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestApp_MiddlewareErrorStopsChain(t *testing.T) {
	t.Parallel()

	app := internal.New(
		internal.WithMiddleware(func(internal.HandlerFunc) internal.HandlerFunc {
			return func(c internal.Context) error {
				return internal.ErrServiceUnavailable("maintenance")
			}
		}),
		internal.WithDispatcher(newDispatcher(t)),
	)

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
