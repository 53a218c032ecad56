package middlewares_test

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/candlewaxgames/candlewax/internal"
	"github.com/candlewaxgames/candlewax/middlewares"
)

func runTimeout(d time.Duration, h internal.HandlerFunc) (*testContext, error) {
	c := newTestContext(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/discussion", nil))
	return c, middlewares.Timeout(d)(h)(c)
}

func TestTimeout(t *testing.T) {
	t.Parallel()

	t.Run("fast handlers pass through", func(t *testing.T) {
		t.Parallel()

		want := errors.New("not found")
		_, err := runTimeout(time.Second, func(internal.Context) error { return want })
		require.Same(t, want, err)
	})

	t.Run("slow handlers time out", func(t *testing.T) {
		t.Parallel()

		c, err := runTimeout(10*time.Millisecond, func(c internal.Context) error {
			<-c.Done()
			return c.Err()
		})
		var te *middlewares.TimeoutError
		require.ErrorAs(t, err, &te)
		require.Equal(t, 10*time.Millisecond, te.After)
		require.True(t, middlewares.IsTimeoutError(err))
		require.Contains(t, c.logged(), "request timed out")
		require.Contains(t, c.logged(), "/discussion")
	})

	t.Run("zero means the default", func(t *testing.T) {
		t.Parallel()

		var deadline time.Time
		_, err := runTimeout(0, func(c internal.Context) error {
			deadline, _ = c.Request().Context().Deadline()
			return nil
		})
		require.NoError(t, err)
		require.WithinDuration(t, time.Now().Add(middlewares.DefaultTimeout), deadline, 5*time.Second)
	})
}

func TestTimeoutError(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("dispatch: %w", &middlewares.TimeoutError{After: time.Second})
	require.Equal(t, http.StatusServiceUnavailable, internal.StatusFor(err))
	require.Equal(t, "request timed out after 1s", errors.Unwrap(err).Error())
	require.False(t, middlewares.IsTimeoutError(http.ErrNoCookie))
}
