package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/candlewaxgames/candlewax/pkg/health"
)

func ok(context.Context) error { return nil }

func TestRun(t *testing.T) {
	t.Parallel()

	t.Run("no checks", func(t *testing.T) {
		t.Parallel()
		report, err := health.Run(context.Background(), nil)
		require.NoError(t, err)
		assert.True(t, report.Healthy())
		assert.Empty(t, report.Checks)
	})

	t.Run("one failure does not stop the rest", func(t *testing.T) {
		t.Parallel()
		var ran atomic.Int32
		report, err := health.Run(context.Background(), health.Checks{
			"database": func(context.Context) error { ran.Add(1); return errors.New("refused") },
			"redis":    func(context.Context) error { ran.Add(1); return nil },
			"storage":  func(context.Context) error { ran.Add(1); return nil },
		}, health.WithConcurrency(1))
		require.ErrorIs(t, err, health.ErrCheckFailed)
		assert.Equal(t, int32(3), ran.Load())
		assert.Equal(t, health.StatusUnhealthy, report.Status)
		assert.Equal(t, "refused", report.Checks["database"].Error)
		assert.Equal(t, health.StatusHealthy, report.Checks["redis"].Status)
	})

	t.Run("timeout", func(t *testing.T) {
		t.Parallel()
		report, err := health.Run(context.Background(), health.Checks{
			"slow": func(ctx context.Context) error {
				<-ctx.Done()
				return ctx.Err()
			},
		}, health.WithTimeout(10*time.Millisecond))
		require.ErrorIs(t, err, health.ErrCheckFailed)
		assert.Contains(t, report.Checks["slow"].Error, "deadline exceeded")
	})
}

func TestLivenessHandler(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	health.LivenessHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestReadinessHandler(t *testing.T) {
	t.Parallel()

	t.Run("healthy plain text", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		health.ReadinessHandler(health.Checks{"database": ok})(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "OK", rec.Body.String())
	})

	t.Run("unhealthy json", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
		req.Header.Set("Accept", "application/json")
		rec := httptest.NewRecorder()

		health.ReadinessHandler(health.Checks{
			"database": ok,
			"redis":    func(context.Context) error { return errors.New("down") },
		})(rec, req)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var report health.Report
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
		assert.Equal(t, health.StatusUnhealthy, report.Status)
		assert.Equal(t, "down", report.Checks["redis"].Error)
		assert.Equal(t, health.StatusHealthy, report.Checks["database"].Status)
	})

	t.Run("json via query", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		health.ReadinessHandler(nil)(rec, httptest.NewRequest(http.MethodGet, "/health/ready?format=json", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
	})
}
