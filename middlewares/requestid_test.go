package middlewares_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/candlewaxgames/candlewax/internal"
	"github.com/candlewaxgames/candlewax/middlewares"
)

func runRequestID(t *testing.T, headers map[string]string) (*httptest.ResponseRecorder, *testContext, string) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	c := newTestContext(rec, req)
	var seen string
	err := middlewares.RequestID()(func(c internal.Context) error {
		seen = middlewares.GetRequestID(c)
		return nil
	})(c)
	require.NoError(t, err)
	return rec, c, seen
}

func TestRequestID(t *testing.T) {
	t.Parallel()

	t.Run("generates a uuid", func(t *testing.T) {
		t.Parallel()

		rec, _, seen := runRequestID(t, nil)
		require.Equal(t, seen, rec.Header().Get(middlewares.RequestIDHeader))
		_, err := uuid.Parse(seen)
		require.NoError(t, err)
	})

	t.Run("keeps upstream ids in header order", func(t *testing.T) {
		t.Parallel()

		rec, _, seen := runRequestID(t, map[string]string{"X-Correlation-ID": "corr-1"})
		require.Equal(t, "corr-1", seen)
		require.Equal(t, "corr-1", rec.Header().Get(middlewares.RequestIDHeader))

		_, _, seen = runRequestID(t, map[string]string{"X-Correlation-ID": "corr-1", "X-Request-ID": "req-1"})
		require.Equal(t, "req-1", seen)
	})

	t.Run("malformed upstream ids are replaced", func(t *testing.T) {
		t.Parallel()

		for _, bad := range []string{"has space", "tab\there", strings.Repeat("a", 129)} {
			_, _, seen := runRequestID(t, map[string]string{"X-Request-ID": bad})
			require.NotEqual(t, bad, seen)
			_, err := uuid.Parse(seen)
			require.NoError(t, err)
		}
	})

	t.Run("empty outside the middleware", func(t *testing.T) {
		t.Parallel()

		c := newTestContext(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		require.Empty(t, middlewares.GetRequestID(c))
	})
}

func TestRequestIDExtractor(t *testing.T) {
	t.Parallel()

	_, c, seen := runRequestID(t, nil)

	extract := middlewares.RequestIDExtractor()
	attr, ok := extract(c.Context())
	require.True(t, ok)
	require.Equal(t, "request_id", attr.Key)
	require.Equal(t, seen, attr.Value.String())

	_, ok = extract(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	require.False(t, ok)
}
