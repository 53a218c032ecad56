package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/candlewaxgames/candlewax/pkg/logger"
	"github.com/candlewaxgames/candlewax/pkg/session"
)

// Dispatch defaults.
const (
	DefaultModule      = "Index"
	defaultController  = "Index"
	defaultAction      = "index"
	notFoundAction     = "notFound"
	defaultMaxForwards = 10
)

// Route maps a path template such as "/p/{slug}" to a controller action.
type Route struct {
	Path       string
	Controller TypeID
	Action     string
}

type compiledRoute struct {
	Route
	segments []string
}

// Target is a matched action with its bound arguments.
type Target struct {
	Controller TypeID
	Action     string
	Args       Args
	Status     int
}

// Router dispatches requests to controller actions. It tries the
// /module/controller/action convention first, then the route table in
// declaration order, then the not-found action of the Index controller.
type Router struct {
	injector      *Injector
	renderer      Renderer
	logger        *slog.Logger
	controllers   map[TypeID]*ControllerSpec
	defaultModule string
	notFound      Target
	routes        []compiledRoute
	maxForwards   int
}

// RouterOption configures the Router.
type RouterOption func(*Router)

// WithControllers registers the action tables of controllers. The
// controllers themselves are built by the injector.
func WithControllers(specs ...ControllerSpec) RouterOption {
	return func(r *Router) {
		for i := range specs {
			spec := specs[i]
			r.controllers[spec.Type] = &spec
		}
	}
}

// WithRoutes appends explicit routes. Earlier routes win.
//
// Example:
//
//	internal.WithRoutes(
//	    internal.Route{Path: "/p/{slug}", Controller: "Discussion.Post", Action: "view"},
//	    internal.Route{Path: "/discussion/{pageNumber}", Controller: "Discussion.Post", Action: "index"},
//	)
func WithRoutes(routes ...Route) RouterOption {
	return func(r *Router) {
		for _, rt := range routes {
			r.routes = append(r.routes, compiledRoute{Route: rt, segments: splitPath(rt.Path)})
		}
	}
}

// WithDefaultModule sets the module used for "/". Defaults to "Index".
// The not-found action stays on Index.Index regardless.
func WithDefaultModule(name string) RouterOption {
	return func(r *Router) {
		if name != "" {
			r.defaultModule = titleCase(name)
		}
	}
}

// WithNotFoundAction overrides the action rendered for unmatched paths.
func WithNotFoundAction(controller TypeID, action string) RouterOption {
	return func(r *Router) {
		if controller != "" && action != "" {
			r.notFound = Target{Controller: controller, Action: action, Status: http.StatusNotFound}
		}
	}
}

// WithMaxForwards caps how many forwards one request may follow.
func WithMaxForwards(n int) RouterOption {
	return func(r *Router) {
		if n > 0 {
			r.maxForwards = n
		}
	}
}

// WithRouterLogger sets the logger for dispatch decisions.
func WithRouterLogger(l *slog.Logger) RouterOption {
	return func(r *Router) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRouter creates a Router that builds controllers with in and renders
// views with renderer.
func NewRouter(in *Injector, renderer Renderer, opts ...RouterOption) *Router {
	r := &Router{
		injector:      in,
		renderer:      renderer,
		logger:        logger.NewNope(),
		controllers:   make(map[TypeID]*ControllerSpec),
		defaultModule: DefaultModule,
		maxForwards:   defaultMaxForwards,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.notFound.Controller == "" {
		r.notFound = Target{
			Controller: ControllerType(DefaultModule, defaultController),
			Action:     notFoundAction,
			Status:     http.StatusNotFound,
		}
	}
	return r
}

// Match finds the action for req. It returns ErrRouteNotFound when neither
// the convention nor the route table yields a bindable action.
func (r *Router) Match(req *Request) (Target, error) {
	segs := splitPath(req.Path)
	if t, ok := r.lookupConvention(segs, req); ok {
		return t, nil
	}
	if t, ok := r.lookupTable(segs, req); ok {
		return t, nil
	}
	return Target{}, ErrRouteNotFound
}

// HandleRequest matches req, runs the action and writes its outcome to w.
// Unmatched paths render the not-found action with status 404.
func (r *Router) HandleRequest(ctx context.Context, w http.ResponseWriter, req *Request) error {
	ctx = WithRequest(ctx, req)
	target, err := r.Match(req)
	if errors.Is(err, ErrRouteNotFound) {
		r.logger.InfoContext(ctx, "route not found", slog.String("path", req.Path))
		target, err = r.notFoundTarget(req)
		if err != nil {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return nil
		}
	}
	if err != nil {
		return err
	}

	r.logger.DebugContext(ctx, "dispatch",
		slog.String("path", req.Path),
		slog.String("controller", string(target.Controller)),
		slog.String("action", target.Action),
	)
	return r.dispatch(ctx, w, req, target, 0)
}

func (r *Router) lookupConvention(segs []string, req *Request) (Target, bool) {
	module, controller, action := r.defaultModule, defaultController, defaultAction
	if len(segs) > 0 {
		module = titleCase(segs[0])
	}
	if len(segs) > 1 {
		controller = titleCase(segs[1])
	}
	if len(segs) > 2 {
		action = segs[2]
	}
	var trailing []any
	if len(segs) > 3 {
		for _, seg := range segs[3:] {
			trailing = append(trailing, NewURLValue(seg))
		}
	}

	spec, act, ok := r.action(ControllerType(module, controller), action)
	if !ok {
		return Target{}, false
	}
	args, ok := ResolveParams(act.Params, Positional(trailing...), req)
	if !ok {
		return Target{}, false
	}
	return Target{Controller: spec.Type, Action: act.Name, Args: args, Status: http.StatusOK}, true
}

// lookupTable scans the table in order. The first route whose literal
// segments match decides the result: if its parameters cannot be bound the
// table yields nothing.
func (r *Router) lookupTable(segs []string, req *Request) (Target, bool) {
	for _, rt := range r.routes {
		values, ok := matchSegments(rt.segments, segs)
		if !ok {
			continue
		}

		spec, act, ok := r.action(rt.Controller, rt.Action)
		if !ok {
			r.logger.Warn("route points at a missing action",
				slog.String("route", rt.Path),
				slog.String("controller", string(rt.Controller)),
				slog.String("action", rt.Action),
			)
			return Target{}, false
		}
		args, ok := ResolveParams(act.Params, Named(values), req)
		if !ok {
			return Target{}, false
		}
		return Target{Controller: spec.Type, Action: act.Name, Args: args, Status: http.StatusOK}, true
	}
	return Target{}, false
}

func matchSegments(route, path []string) (map[string]any, bool) {
	if len(route) != len(path) {
		return nil, false
	}
	values := make(map[string]any)
	for i, seg := range route {
		if name, ok := placeholder(seg); ok {
			values[name] = NewURLValue(path[i])
			continue
		}
		if seg != path[i] {
			return nil, false
		}
	}
	return values, true
}

func (r *Router) notFoundTarget(req *Request) (Target, error) {
	_, act, ok := r.action(r.notFound.Controller, r.notFound.Action)
	if !ok {
		return Target{}, ErrRouteNotFound
	}
	args, ok := ResolveParams(act.Params, Positional(), req)
	if !ok {
		return Target{}, ErrRouteNotFound
	}
	t := r.notFound
	t.Action = act.Name
	t.Args = args
	return t, nil
}

// action reports whether the controller artifact and its action exist.
func (r *Router) action(controller TypeID, name string) (*ControllerSpec, *ActionSpec, bool) {
	spec, ok := r.controllers[controller]
	if !ok || !r.injector.Has(controller) {
		return nil, nil, false
	}
	act, ok := spec.Action(name)
	if !ok {
		return nil, nil, false
	}
	return spec, act, true
}

func (r *Router) dispatch(ctx context.Context, w http.ResponseWriter, req *Request, target Target, depth int) error {
	_, act, ok := r.action(target.Controller, target.Action)
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrInvalidForward, target.Controller, target.Action)
	}
	controller, err := r.injector.Get(target.Controller)
	if err != nil {
		return err
	}

	outcome, err := act.Invoke(ctx, controller, target.Args)
	if err != nil {
		return err
	}

	switch o := outcome.(type) {
	case Redirect:
		return r.redirect(w, req, o)
	case *Redirect:
		return r.redirect(w, req, *o)
	case Forward:
		return r.forward(ctx, w, req, target, o, depth)
	case *Forward:
		return r.forward(ctx, w, req, target, *o, depth)
	case Render:
		return r.render(ctx, w, req, target.Status, o)
	case *Render:
		return r.render(ctx, w, req, target.Status, *o)
	case nil:
		return fmt.Errorf("%w: %s.%s", ErrInvalidOutcome, target.Controller, target.Action)
	default:
		return fmt.Errorf("%w: %T", ErrInvalidOutcome, o)
	}
}

func (r *Router) redirect(w http.ResponseWriter, req *Request, o Redirect) error {
	status := http.StatusFound
	if req.Method == http.MethodPost {
		status = http.StatusSeeOther
	}
	w.Header().Set("Location", o.URL)
	w.WriteHeader(status)
	return nil
}

func (r *Router) forward(ctx context.Context, w http.ResponseWriter, req *Request, from Target, o Forward, depth int) error {
	if depth >= r.maxForwards {
		return fmt.Errorf("%w: more than %d forwards from %s.%s",
			ErrForwardLoopDetected, r.maxForwards, from.Controller, from.Action)
	}

	_, act, ok := r.action(o.Controller, o.Action)
	if !ok {
		return fmt.Errorf("%w: %s.%s does not exist", ErrInvalidForward, o.Controller, o.Action)
	}
	args, ok := ResolveParams(act.Params, Named(o.Params), req)
	if !ok {
		return fmt.Errorf("%w: cannot bind parameters of %s.%s", ErrInvalidForward, o.Controller, o.Action)
	}

	r.logger.DebugContext(ctx, "forward",
		slog.String("controller", string(o.Controller)),
		slog.String("action", act.Name),
		slog.Int("depth", depth+1),
	)
	next := Target{Controller: o.Controller, Action: act.Name, Args: args, Status: from.Status}
	return r.dispatch(ctx, w, req, next, depth+1)
}

func (r *Router) render(ctx context.Context, w http.ResponseWriter, req *Request, status int, o Render) error {
	data := make(map[string]any, len(o.Data)+1)
	maps.Copy(data, o.Data)
	if _, ok := data[ParamSession]; !ok {
		data[ParamSession] = sessionData(ctx, req)
	}

	body, err := r.renderer.Render(ctx, o.View, data)
	if err != nil {
		return err
	}
	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err = w.Write(body)
	return err
}

// sessionData prefers the live session, which reflects changes the action
// made, over the snapshot taken when the request was built.
func sessionData(ctx context.Context, req *Request) map[string]any {
	if s := session.FromContext(ctx); s != nil {
		return s.Data()
	}
	return req.Session
}

func splitPath(p string) []string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	var segs []string
	for seg := range strings.SplitSeq(p, "/") {
		if seg != "" {
			segs = append(segs, seg)
		}
	}
	return segs
}

func placeholder(seg string) (string, bool) {
	if len(seg) > 2 && strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
		return seg[1 : len(seg)-1], true
	}
	return "", false
}

// titleCase maps a URL segment onto a module or controller name:
// "DISCUSSION" and "discussion" both become "Discussion".
// A Caser is not safe for concurrent use, so one is made per call.
func titleCase(s string) string {
	return cases.Title(language.Und).String(s)
}
