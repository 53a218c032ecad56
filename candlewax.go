package candlewax

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/candlewaxgames/candlewax/internal"
	"github.com/candlewaxgames/candlewax/pkg/health"
	"github.com/candlewaxgames/candlewax/pkg/session"
)

// Type aliases - public API
type (
	// App owns the HTTP server: middleware, health checks, static files and
	// the dispatcher behind them.
	App = internal.App

	// Context provides request/response access to middleware and error handlers.
	Context = internal.Context

	// HandlerFunc is the signature of middleware-wrapped handlers.
	HandlerFunc = internal.HandlerFunc

	// Middleware wraps a HandlerFunc to add cross-cutting concerns.
	Middleware = internal.Middleware

	// ErrorHandler handles errors returned from the dispatcher or middleware.
	ErrorHandler = internal.ErrorHandler

	// Option configures the application.
	Option = internal.Option

	// RunOption configures the server runtime.
	RunOption = internal.RunOption

	// HealthOption configures health check endpoints.
	HealthOption = internal.HealthOption

	// SessionOption configures the session cookie.
	SessionOption = internal.SessionOption

	// ResponseWriter wraps http.ResponseWriter with before-write hooks.
	ResponseWriter = internal.ResponseWriter

	// HTTPError carries a response status with an error.
	HTTPError = internal.HTTPError

	// HTTPErrorOption configures an HTTPError.
	HTTPErrorOption = internal.HTTPErrorOption

	// Router dispatches requests to controller actions.
	Router = internal.Router

	// RouterOption configures the Router.
	RouterOption = internal.RouterOption

	// Route maps a path template such as /p/{slug} onto an action.
	Route = internal.Route

	// Target is a matched action with its bound arguments.
	Target = internal.Target

	// Injector builds controllers and their dependencies.
	Injector = internal.Injector

	// TypeID names a type known to the Injector.
	TypeID = internal.TypeID

	// Dependency declares one constructor parameter.
	Dependency = internal.Dependency

	// Factory builds an instance without the Injector's help.
	Factory = internal.Factory

	// Constructor builds an instance from its resolved dependencies.
	Constructor = internal.Constructor

	// ControllerSpec lists the actions of a controller.
	ControllerSpec = internal.ControllerSpec

	// ActionSpec declares an action and its parameters.
	ActionSpec = internal.ActionSpec

	// ActionFunc invokes an action on a built controller.
	ActionFunc = internal.ActionFunc

	// Param declares one action parameter.
	Param = internal.Param

	// Kind is the declared type of an action parameter.
	Kind = internal.Kind

	// Args are the bound arguments of an action.
	Args = internal.Args

	// Request is what an action can see of the incoming HTTP request.
	Request = internal.Request

	// Outcome is what an action asks the router to do next.
	Outcome = internal.Outcome

	// Render shows a view.
	Render = internal.Render

	// Redirect sends the client elsewhere.
	Redirect = internal.Redirect

	// Forward runs another action within the same request.
	Forward = internal.Forward

	// Renderer turns a view path and its data into HTML.
	Renderer = internal.Renderer

	// Views is a Renderer backed by templ components.
	Views = internal.Views

	// ViewFunc builds the component for a view from its data.
	ViewFunc = internal.ViewFunc

	// Session represents a visitor session.
	Session = session.Session

	// SessionStore persists sessions.
	SessionStore = session.Store
)

// Parameter kinds.
const (
	KindString  = internal.KindString
	KindInt     = internal.KindInt
	KindFloat   = internal.KindFloat
	KindBool    = internal.KindBool
	KindAny     = internal.KindAny
	KindForm    = internal.KindForm
	KindSession = internal.KindSession
	KindFiles   = internal.KindFiles
)

// Names of the parameters bound from ambient request state.
const (
	ParamPost    = internal.ParamPost
	ParamSession = internal.ParamSession
	ParamFiles   = internal.ParamFiles
)

// Dispatch errors.
var (
	ErrUnresolvableParameter = internal.ErrUnresolvableParameter
	ErrNotInstantiable       = internal.ErrNotInstantiable
	ErrRouteNotFound         = internal.ErrRouteNotFound
	ErrForwardLoopDetected   = internal.ErrForwardLoopDetected
	ErrInvalidForward        = internal.ErrInvalidForward
	ErrInvalidOutcome        = internal.ErrInvalidOutcome
	ErrViewNotFound          = internal.ErrViewNotFound
	ErrSessionNotConfigured  = internal.ErrSessionNotConfigured
)

// New creates a new application with the given options.
// The App is immutable after creation.
//
// Example:
//
//	app := candlewax.New(
//	    candlewax.WithLogger(log),
//	    candlewax.WithMiddleware(middlewares.RequestID(), middlewares.Recover()),
//	    candlewax.WithSession(session.NewRedisStore(client, "sess:")),
//	    candlewax.WithDispatcher(router),
//	)
//
//	err := app.Run(candlewax.Address(":8080"))
func New(opts ...Option) *App {
	return internal.New(opts...)
}

// App options

// WithDispatcher routes every path not claimed by health checks or static
// files to router.
func WithDispatcher(router *Router) Option {
	return internal.WithDispatcher(router)
}

// WithMiddleware adds global middleware to the application.
// Middleware is applied in the order provided.
func WithMiddleware(mw ...Middleware) Option {
	return internal.WithMiddleware(mw...)
}

// WithStaticFiles mounts fsys/subDir at pattern.
func WithStaticFiles(pattern string, fsys fs.FS, subDir string) Option {
	return internal.WithStaticFiles(pattern, fsys, subDir)
}

// WithErrorHandler sets a custom error handler.
func WithErrorHandler(h ErrorHandler) Option {
	return internal.WithErrorHandler(h)
}

// WithHealthChecks enables the liveness and readiness endpoints.
func WithHealthChecks(opts ...HealthOption) Option {
	return internal.WithHealthChecks(opts...)
}

// WithLivenessPath sets a custom liveness endpoint path.
func WithLivenessPath(path string) HealthOption {
	return internal.WithLivenessPath(path)
}

// WithReadinessPath sets a custom readiness endpoint path.
func WithReadinessPath(path string) HealthOption {
	return internal.WithReadinessPath(path)
}

// WithReadinessCheck adds a named readiness check.
func WithReadinessCheck(name string, fn health.CheckFunc) HealthOption {
	return internal.WithReadinessCheck(name, fn)
}

// WithLogger sets the application logger.
func WithLogger(l *slog.Logger) Option {
	return internal.WithLogger(l)
}

// WithSession enables server-side sessions kept in store.
func WithSession(store SessionStore, opts ...SessionOption) Option {
	return internal.WithSession(store, opts...)
}

// WithSessionCookieName sets the session cookie name. Defaults to "__sid".
func WithSessionCookieName(name string) SessionOption {
	return internal.WithSessionCookieName(name)
}

// WithSessionMaxAge sets the session lifetime in seconds.
func WithSessionMaxAge(seconds int) SessionOption {
	return internal.WithSessionMaxAge(seconds)
}

// WithSessionDomain sets the cookie domain.
func WithSessionDomain(domain string) SessionOption {
	return internal.WithSessionDomain(domain)
}

// WithSessionSecure sets the Secure cookie flag.
func WithSessionSecure(secure bool) SessionOption {
	return internal.WithSessionSecure(secure)
}

// WithSessionSameSite sets the SameSite cookie attribute.
func WithSessionSameSite(sameSite http.SameSite) SessionOption {
	return internal.WithSessionSameSite(sameSite)
}

// WithMaxFormMemory caps the memory used to parse multipart forms.
func WithMaxFormMemory(n int64) Option {
	return internal.WithMaxFormMemory(n)
}

// Run options

// Address sets the listen address. Defaults to ":8080".
func Address(addr string) RunOption {
	return internal.Address(addr)
}

// Logger sets the logger used by the server runtime.
func Logger(l *slog.Logger) RunOption {
	return internal.Logger(l)
}

// ShutdownTimeout bounds graceful shutdown.
func ShutdownTimeout(d time.Duration) RunOption {
	return internal.ShutdownTimeout(d)
}

// StartupHook runs fn before the server starts listening.
func StartupHook(fn func(context.Context) error) RunOption {
	return internal.StartupHook(fn)
}

// ShutdownHook runs fn after the server stopped accepting requests.
func ShutdownHook(fn func(context.Context) error) RunOption {
	return internal.ShutdownHook(fn)
}

// WithContext sets the base context; cancelling it stops the server.
func WithContext(ctx context.Context) RunOption {
	return internal.WithContext(ctx)
}

// Dispatch

// NewRouter creates a Router building controllers with in and rendering
// views with renderer.
func NewRouter(in *Injector, renderer Renderer, opts ...RouterOption) *Router {
	return internal.NewRouter(in, renderer, opts...)
}

// WithControllers registers controller action tables.
func WithControllers(specs ...ControllerSpec) RouterOption {
	return internal.WithControllers(specs...)
}

// WithRoutes appends explicit routes. Earlier routes win.
func WithRoutes(routes ...Route) RouterOption {
	return internal.WithRoutes(routes...)
}

// WithDefaultModule sets the module used for "/".
func WithDefaultModule(name string) RouterOption {
	return internal.WithDefaultModule(name)
}

// WithNotFoundAction overrides the action rendered for unmatched paths.
func WithNotFoundAction(controller TypeID, action string) RouterOption {
	return internal.WithNotFoundAction(controller, action)
}

// WithMaxForwards caps how many forwards one request may follow.
func WithMaxForwards(n int) RouterOption {
	return internal.WithMaxForwards(n)
}

// WithRouterLogger sets the logger for dispatch decisions.
func WithRouterLogger(l *slog.Logger) RouterOption {
	return internal.WithRouterLogger(l)
}

// ControllerType is the injector type of a module's controller, e.g. "Discussion.Post".
func ControllerType(module, controller string) TypeID {
	return internal.ControllerType(module, controller)
}

// NewInjector creates an empty Injector.
func NewInjector() *Injector {
	return internal.NewInjector()
}

// Resolve builds t with in and asserts the result to T.
func Resolve[T any](in *Injector, t TypeID) (T, error) {
	return internal.Resolve[T](in, t)
}

// Dep returns the i-th resolved dependency asserted to T.
func Dep[T any](deps []any, i int) T {
	return internal.Dep[T](deps, i)
}

// NewViews creates an empty view registry.
func NewViews() *Views {
	return internal.NewViews()
}

// WithRequest returns a copy of ctx carrying req.
func WithRequest(ctx context.Context, req *Request) context.Context {
	return internal.WithRequest(ctx, req)
}

// RequestFromContext returns the request being dispatched, or nil.
func RequestFromContext(ctx context.Context) *Request {
	return internal.RequestFromContext(ctx)
}

// TypeCastFromString turns numeric text into int64 or float64 and leaves
// everything else as a string.
func TypeCastFromString(s string) any {
	return internal.TypeCastFromString(s)
}

// Errors

// NewHTTPError creates an HTTPError.
func NewHTTPError(code int, message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.NewHTTPError(code, message, opts...)
}

// ErrBadRequest creates a 400 HTTPError.
func ErrBadRequest(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrBadRequest(message, opts...)
}

// ErrForbidden creates a 403 HTTPError.
func ErrForbidden(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrForbidden(message, opts...)
}

// ErrNotFound creates a 404 HTTPError.
func ErrNotFound(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrNotFound(message, opts...)
}

// ErrInternal creates a 500 HTTPError.
func ErrInternal(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrInternal(message, opts...)
}

// WithError attaches the underlying error to an HTTPError.
func WithError(err error) HTTPErrorOption {
	return internal.WithError(err)
}

// StatusFor maps an error onto the response status the app sends for it.
func StatusFor(err error) int {
	return internal.StatusFor(err)
}

// IsHTTPError reports whether err carries an HTTPError.
func IsHTTPError(err error) bool {
	return internal.IsHTTPError(err)
}

// Helpers

// ContextValue returns the value stored under key, or the zero T.
func ContextValue[T any](c Context, key any) T {
	return internal.ContextValue[T](c, key)
}

// Query returns the query parameter converted to T, or the zero T.
func Query[T ~string | ~int | ~int64 | ~float64 | ~bool](c Context, name string) T {
	return internal.Query[T](c, name)
}

// QueryDefault returns the query parameter converted to T, or defaultValue.
func QueryDefault[T ~string | ~int | ~int64 | ~float64 | ~bool](c Context, name string, defaultValue T) T {
	return internal.QueryDefault(c, name, defaultValue)
}
