// Package candlewax is a small MVC runtime for server-rendered sites.
//
// A request reaches a controller action in three steps. The Router maps
// the path, either by convention (/module/controller/action/args...) or
// through a table of {placeholder} routes. The Injector builds the
// controller with its services. Action parameters are then bound from the
// URL, the posted form, the session, uploads and declared defaults.
//
// # Quick Start
//
//	in := candlewax.NewInjector()
//	in.Provide("Index.Index", nil, func([]any) (any, error) { return &IndexController{}, nil })
//
//	views := candlewax.NewViews().Add("Index/index", views.Home)
//
//	router := candlewax.NewRouter(in, views,
//	    candlewax.WithControllers(candlewax.ControllerSpec{
//	        Type: "Index.Index",
//	        Actions: []candlewax.ActionSpec{{
//	            Name: "index",
//	            Invoke: func(ctx context.Context, c any, _ candlewax.Args) (candlewax.Outcome, error) {
//	                return candlewax.Render{View: "Index/index"}, nil
//	            },
//	        }},
//	    }),
//	    candlewax.WithRoutes(candlewax.Route{Path: "/p/{slug}", Controller: "Discussion.Post", Action: "view"}),
//	)
//
//	app := candlewax.New(
//	    candlewax.WithLogger(log),
//	    candlewax.WithSession(session.NewMemoryStore()),
//	    candlewax.WithDispatcher(router),
//	)
//	if err := app.Run(candlewax.Address(":8080")); err != nil {
//	    log.Error("server stopped", "error", err)
//	}
//
// # Outcomes
//
// Actions return an [Outcome]: [Render] a view, [Redirect] the client (303
// after a POST, 302 otherwise) or [Forward] to another action within the
// same request. Unmatched paths render the Index controller's notFound
// action with status 404.
//
// # Sessions
//
// With [WithSession], the session is loaded before dispatch and is
// reachable from actions through session.FromContext. It is saved just
// before the response is written, so redirects carry the cookie.
package candlewax
