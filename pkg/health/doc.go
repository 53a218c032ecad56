// Package health runs dependency checks and serves liveness and readiness endpoints.
//
//	r.Get("/health/live", health.LivenessHandler())
//	r.Get("/health/ready", health.ReadinessHandler(health.Checks{
//		"database": db.Healthcheck(store),
//		"redis":    redis.Healthcheck(client),
//	}, health.WithTimeout(2*time.Second)))
//
// Checks run concurrently. Responses are plain text ("OK" or "Service
// Unavailable") unless JSON is requested with ?format=json or an Accept
// header, in which case the per-check report is returned.
package health
