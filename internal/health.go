package internal

import "github.com/candlewaxgames/candlewax/pkg/health"

const (
	defaultLivenessPath  = "/health/live"
	defaultReadinessPath = "/health/ready"
)

type healthConfig struct {
	checks    health.Checks
	liveness  string
	readiness string
}

// HealthOption configures the health endpoints mounted by WithHealthChecks.
type HealthOption func(*healthConfig)

// WithLivenessPath moves the liveness endpoint from /health/live.
func WithLivenessPath(path string) HealthOption {
	return func(c *healthConfig) {
		if path != "" {
			c.liveness = path
		}
	}
}

// WithReadinessPath moves the readiness endpoint from /health/ready.
func WithReadinessPath(path string) HealthOption {
	return func(c *healthConfig) {
		if path != "" {
			c.readiness = path
		}
	}
}

// WithReadinessCheck registers a named check, such as db.Healthcheck(store).
// A later check with the same name replaces the earlier one.
func WithReadinessCheck(name string, fn health.CheckFunc) HealthOption {
	return func(c *healthConfig) {
		if c.checks == nil {
			c.checks = health.Checks{}
		}
		c.checks[name] = fn
	}
}
