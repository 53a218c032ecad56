// Package internal holds the runtime behind candlewax. Import
// "github.com/candlewaxgames/candlewax" instead, which re-exports the
// public API.
//
// # Dispatch
//
// A request flows through three pieces:
//
//   - Router maps a path onto a controller action. It tries the
//     /module/controller/action convention, then the route table of
//     {placeholder} patterns, then the not-found action.
//   - Injector builds the controller and everything it depends on, fresh
//     for every request. Factories registered for a type win over its
//     constructor.
//   - ResolveParams binds action parameters from URL values, the posted
//     form, the session, uploaded files and declared defaults.
//
// An action answers with an Outcome: Render a view, Redirect the client
// or Forward to another action in the same request. Forwards are capped
// so a loop fails with ErrForwardLoopDetected.
//
// # HTTP
//
// App owns the chi router. Health endpoints and static files get their own
// routes, everything else goes to the Router. Middleware uses the Context
// interface and sessions are saved by a before-write hook on
// ResponseWriter, so redirects carry the cookie too.
package internal
