package internal

// HandlerFunc serves one request. A returned error goes to the app's
// ErrorHandler unless a response has already been written.
type HandlerFunc func(c Context) error

// Middleware decorates a HandlerFunc. It runs around the dispatcher, so it
// may short-circuit the request before any controller is built:
//
//	func RequireLogin(next internal.HandlerFunc) internal.HandlerFunc {
//	    return func(c internal.Context) error {
//	        if s, err := c.Session(); err == nil && s.Data()["user_id"] == nil {
//	            return c.Redirect(http.StatusSeeOther, "/user/account/login")
//	        }
//	        return next(c)
//	    }
//	}
type Middleware func(next HandlerFunc) HandlerFunc

// ErrorHandler turns a failed request into a response. Returning an error
// without writing falls back to a plain status page.
type ErrorHandler func(Context, error) error
