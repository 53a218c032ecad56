package candlewax_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/candlewaxgames/candlewax"
	"github.com/candlewaxgames/candlewax/middlewares"
)

type gameController struct{ title string }

func gameView(data map[string]any) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, templ.EscapeString(data["title"].(string)))
		return err
	})
}

func newApp(t *testing.T, opts ...candlewax.Option) *candlewax.App {
	t.Helper()

	in := candlewax.NewInjector()
	in.Register("Games.Catalogue", func() (any, error) { return &gameController{title: "<Doom>"}, nil })
	in.Provide("Index.Index", nil, func([]any) (any, error) { return struct{}{}, nil })

	views := candlewax.NewViews().
		Add("Games/Catalogue/view", gameView).
		Add("Index/404", func(map[string]any) templ.Component { return templ.Raw("gone") })

	router := candlewax.NewRouter(in, views,
		candlewax.WithControllers(
			candlewax.ControllerSpec{
				Type: candlewax.ControllerType("Games", "Catalogue"),
				Actions: []candlewax.ActionSpec{
					{
						Name:   "view",
						Params: []candlewax.Param{{Name: "slug", Kind: candlewax.KindString}},
						Invoke: func(_ context.Context, c any, args candlewax.Args) (candlewax.Outcome, error) {
							if args.String(0) == "panic" {
								panic("boom")
							}
							return candlewax.Render{
								View: "Games/Catalogue/view",
								Data: map[string]any{"title": c.(*gameController).title + " " + args.String(0)},
							}, nil
						},
					},
				},
			},
			candlewax.ControllerSpec{
				Type: "Index.Index",
				Actions: []candlewax.ActionSpec{{
					Name: "notFound",
					Invoke: func(context.Context, any, candlewax.Args) (candlewax.Outcome, error) {
						return candlewax.Render{View: "Index/404"}, nil
					},
				}},
			},
		),
		candlewax.WithRoutes(candlewax.Route{Path: "/games/{slug}", Controller: "Games.Catalogue", Action: "view"}),
	)

	return candlewax.New(append([]candlewax.Option{candlewax.WithDispatcher(router)}, opts...)...)
}

func TestApp_RouteTable(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	newApp(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/games/quake", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "&lt;Doom&gt; quake", rec.Body.String())
}

func TestApp_NotFound(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	newApp(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/games/quake/extra", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "gone", rec.Body.String())
}

func TestApp_MiddlewareStack(t *testing.T) {
	t.Parallel()

	var handled error
	app := newApp(t,
		candlewax.WithMiddleware(middlewares.RequestID(), middlewares.Recover()),
		candlewax.WithErrorHandler(func(c candlewax.Context, err error) error {
			handled = err
			return c.String(candlewax.StatusFor(err), "oops "+middlewares.GetRequestID(c))
		}),
	)

	req := httptest.NewRequest(http.MethodGet, "/games/panic", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "oops req-42", rec.Body.String())
	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))
	require.True(t, middlewares.IsPanicError(handled))
}

func TestApp_Run(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	stopped := false

	errCh := make(chan error, 1)
	go func() {
		errCh <- newApp(t).Run(
			candlewax.Address("127.0.0.1:0"),
			candlewax.WithContext(ctx),
			candlewax.StartupHook(func(context.Context) error {
				close(started)
				return nil
			}),
			candlewax.ShutdownHook(func(context.Context) error {
				stopped = true
				return nil
			}),
		)
	}()

	<-started
	cancel()
	require.NoError(t, <-errCh)
	assert.True(t, stopped)
}

func TestApp_RunStartupFailure(t *testing.T) {
	t.Parallel()

	err := newApp(t).Run(
		candlewax.Address("127.0.0.1:0"),
		candlewax.StartupHook(func(context.Context) error { return errors.New("migrations failed") }),
	)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "migrations failed"))
}
