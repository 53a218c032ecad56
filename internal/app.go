package internal

import (
	"errors"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/candlewaxgames/candlewax/pkg/health"
	"github.com/candlewaxgames/candlewax/pkg/logger"
)

const defaultMaxFormMemory = 32 << 20

// App is the HTTP front of the site. Health endpoints and static mounts get their own
// chi routes; every other path is turned into a Request and dispatched.
// Options are applied once, in New.
type App struct {
	router         chi.Router
	dispatcher     *Router
	errorHandler   ErrorHandler
	healthConfig   *healthConfig
	logger         *slog.Logger
	sessionManager *SessionManager
	middlewares    []Middleware
	staticRoutes   []staticRoute
	maxFormMemory  int64
}

type staticRoute struct {
	pattern string
	handler http.Handler
}

// New builds an App:
//
//	app := candlewax.New(
//	    candlewax.WithLogger(log),
//	    candlewax.WithSession(session.NewMemoryStore()),
//	    candlewax.WithDispatcher(router),
//	)
func New(opts ...Option) *App {
	a := &App{
		router:        chi.NewRouter(),
		logger:        logger.NewNope(),
		maxFormMemory: defaultMaxFormMemory,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.sessionManager != nil {
		a.sessionManager.SetLogger(a.logger)
	}
	a.mount()
	return a
}

func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

func (a *App) mount() {
	for _, mw := range a.middlewares {
		a.router.Use(a.chiMiddleware(mw))
	}
	for _, sr := range a.staticRoutes {
		a.router.Mount(sr.pattern, sr.handler)
	}
	if hc := a.healthConfig; hc != nil {
		a.router.Get(hc.liveness, health.LivenessHandler())
		a.router.Get(hc.readiness, health.ReadinessHandler(hc.checks, health.WithLogger(a.logger)))
	}
	if a.dispatcher != nil {
		a.router.Handle("/*", a.handle(a.dispatch))
	}
}

func (a *App) dispatch(c Context) error {
	req, err := a.buildRequest(c)
	if err != nil {
		return err
	}
	return a.dispatcher.HandleRequest(c.Context(), c.Response(), req)
}

// buildRequest gathers what actions may bind to: the first value of each
// posted field, the first upload per field and the session values.
func (a *App) buildRequest(c Context) (*Request, error) {
	r := c.Request()
	if err := a.parseForm(r); err != nil {
		return nil, err
	}

	req := &Request{
		Method:  r.Method,
		Path:    r.URL.Path,
		Form:    make(map[string]string, len(r.PostForm)),
		Session: map[string]any{},
		Files:   map[string]*multipart.FileHeader{},
	}
	for name, vals := range r.PostForm {
		if len(vals) > 0 {
			req.Form[name] = vals[0]
		}
	}
	if mf := r.MultipartForm; mf != nil {
		for name, fhs := range mf.File {
			if len(fhs) > 0 {
				req.Files[name] = fhs[0]
			}
		}
	}

	if a.sessionManager == nil {
		return req, nil
	}
	sess, err := c.Session()
	if err != nil {
		return nil, err
	}
	req.Session = sess.Data()
	return req, nil
}

func (a *App) parseForm(r *http.Request) error {
	if r.Method != http.MethodPost && r.Method != http.MethodPut && r.Method != http.MethodPatch {
		return nil
	}

	var err error
	if mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mt == "multipart/form-data" {
		err = r.ParseMultipartForm(a.maxFormMemory)
	} else {
		err = r.ParseForm()
	}

	var tooLarge *http.MaxBytesError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &tooLarge):
		return ErrRequestTooLarge("upload too large", WithError(err))
	default:
		return ErrBadRequest("malformed form data", WithError(err))
	}
}

func (a *App) handle(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := newContext(w, r, a)
		if err := h(c); err != nil {
			a.fail(c, err)
		}
	}
}

// chiMiddleware runs mw with a fresh Context; next continues down the chi
// chain with whatever request mw left on that Context.
func (a *App) chiMiddleware(mw Middleware) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return a.handle(mw(func(c Context) error {
			next.ServeHTTP(c.Response(), c.Request())
			return nil
		}))
	}
}

// fail answers a request whose handler returned err.
func (a *App) fail(c Context, err error) {
	if c.Written() {
		c.LogError("error after response was written", slog.Any("error", err))
		return
	}
	if a.errorHandler != nil {
		herr := a.errorHandler(c, err)
		if herr == nil || c.Written() {
			return
		}
		err = herr
	}

	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		c.LogError("request failed", slog.Any("error", err))
	}
	http.Error(c.Response(), http.StatusText(status), status)
}
