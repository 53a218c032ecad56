// Package middlewares provides HTTP middleware for candlewax applications.
//
// # Request ID
//
// RequestID assigns an ID to every request. Upstream headers
// (X-Request-ID, X-Correlation-ID) win, otherwise a UUID is generated.
// Pair it with RequestIDExtractor so every log line carries request_id:
//
//	log := logger.New(logger.Options{Format: "json"}, middlewares.RequestIDExtractor())
//	app := candlewax.New(
//	    candlewax.WithLogger(log),
//	    candlewax.WithMiddleware(middlewares.RequestID()),
//	)
//
// # Recover
//
// Recover converts panics into *PanicError. Without a custom error
// handler the app answers 500.
//
// # Timeout
//
// Timeout puts a deadline on the request context, so database queries
// issued by actions are cancelled with it. A request that runs past the
// deadline yields *TimeoutError, answered with 503.
//
// # Order
//
//	candlewax.WithMiddleware(
//	    middlewares.RequestID(),
//	    middlewares.Recover(),
//	    middlewares.Timeout(10*time.Second),
//	)
package middlewares
