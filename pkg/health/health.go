package health

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/candlewaxgames/candlewax/pkg/logger"
)

const (
	defaultTimeout = 5 * time.Second

	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// ErrCheckFailed is returned by Run when at least one check failed.
var ErrCheckFailed = errors.New("health: check failed")

// CheckFunc reports the health of one dependency.
// db.Healthcheck and redis.Healthcheck have this shape.
type CheckFunc func(ctx context.Context) error

// Checks maps check names to their functions.
type Checks map[string]CheckFunc

// Report is the aggregated outcome of a run.
type Report struct {
	Checks map[string]Result `json:"checks,omitempty"`
	Status string            `json:"status"`
}

// Healthy reports whether every check passed.
func (r *Report) Healthy() bool { return r.Status == StatusHealthy }

// Result is the outcome of a single check.
type Result struct {
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
	Duration string `json:"duration"`
}

type config struct {
	logger  *slog.Logger
	timeout time.Duration
	limit   int
}

// Option configures a check run.
type Option func(*config)

// WithTimeout bounds the whole run. Defaults to 5s.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger failed checks are reported to.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithConcurrency caps the number of checks running at once.
func WithConcurrency(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.limit = n
		}
	}
}

func newConfig(opts ...Option) *config {
	cfg := &config{timeout: defaultTimeout, logger: logger.NewNope(), limit: -1}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Run executes checks concurrently and returns the report. The error is
// ErrCheckFailed when any check failed; the report is always complete.
func Run(ctx context.Context, checks Checks, opts ...Option) (*Report, error) {
	return run(ctx, checks, newConfig(opts...))
}

func run(ctx context.Context, checks Checks, cfg *config) (*Report, error) {
	report := &Report{Status: StatusHealthy}
	if len(checks) == 0 {
		return report, nil
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	var mu sync.Mutex
	report.Checks = make(map[string]Result, len(checks))

	// Checks never return their error to the group so one failure does not
	// cancel the others.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.limit)
	for name, check := range checks {
		g.Go(func() error {
			start := time.Now()
			res := Result{Status: StatusHealthy}
			if err := check(gctx); err != nil {
				res.Status = StatusUnhealthy
				res.Error = err.Error()
				cfg.logger.WarnContext(gctx, "health check failed",
					slog.String("check", name),
					slog.String("error", err.Error()),
				)
			}
			res.Duration = time.Since(start).Round(time.Microsecond).String()

			mu.Lock()
			report.Checks[name] = res
			if res.Status == StatusUnhealthy {
				report.Status = StatusUnhealthy
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if !report.Healthy() {
		return report, ErrCheckFailed
	}
	return report, nil
}
