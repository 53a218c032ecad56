package internal_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/candlewaxgames/candlewax/internal"
)

func TestResponseWriter_WriteHeader(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	rw := internal.NewResponseWriter(w)

	rw.WriteHeader(http.StatusNotFound)
	rw.WriteHeader(http.StatusOK)

	assert.Equal(t, http.StatusNotFound, rw.Status())
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.True(t, rw.Written())
}

func TestResponseWriter_Write(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	rw := internal.NewResponseWriter(w)
	assert.False(t, rw.Written())

	n, err := rw.Write([]byte("hello world"))
	require.NoError(t, err)
	assert.Equal(t, 11, n)
	assert.Equal(t, int64(11), rw.Size())
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hello world", w.Body.String())
}

func TestResponseWriter_OnBeforeWrite(t *testing.T) {
	t.Parallel()

	t.Run("hooks run once in order before the header", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		rw := internal.NewResponseWriter(w)

		var order []int
		rw.OnBeforeWrite(func() {
			order = append(order, 1)
			rw.Header().Set("Set-Cookie", "__sid=abc")
		})
		rw.OnBeforeWrite(func() { order = append(order, 2) })

		rw.WriteHeader(http.StatusFound)
		_, _ = rw.Write([]byte("x"))

		assert.Equal(t, []int{1, 2}, order)
		assert.Equal(t, "__sid=abc", w.Header().Get("Set-Cookie"))
	})

	t.Run("first write triggers hooks", func(t *testing.T) {
		t.Parallel()

		rw := internal.NewResponseWriter(httptest.NewRecorder())
		called := 0
		rw.OnBeforeWrite(func() { called++ })

		_, _ = rw.Write([]byte("a"))
		_, _ = rw.Write([]byte("b"))
		assert.Equal(t, 1, called)
	})
}

func TestResponseWriter_Unwrap(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	rw := internal.NewResponseWriter(w)
	assert.Same(t, w, rw.Unwrap())

	rw.Flush()
	assert.True(t, w.Flushed)
}
