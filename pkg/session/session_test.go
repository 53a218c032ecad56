package session

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_Values(t *testing.T) {
	t.Parallel()

	s := New("id", "token", time.Now().Add(time.Hour))
	assert.True(t, s.IsNew())
	assert.True(t, s.IsDirty())

	s.ClearDirty()
	s.Set("user_id", int64(4))
	assert.True(t, s.IsDirty())

	v, ok := s.Get("user_id")
	require.True(t, ok)
	assert.Equal(t, int64(4), v)

	s.ClearDirty()
	s.Delete("missing")
	assert.False(t, s.IsDirty(), "deleting an absent key keeps the session clean")

	s.Delete("user_id")
	assert.True(t, s.IsDirty())
	_, ok = s.Get("user_id")
	assert.False(t, ok)
}

func TestSession_Flash(t *testing.T) {
	t.Parallel()

	s := New("id", "token", time.Now().Add(time.Hour))
	s.Set("user_id", int64(1))
	s.Flash("error", "Wrong password")
	s.Flash("input", map[string]any{"email": "a@example.com"})

	assert.Equal(t, map[string]any{"user_id": int64(1)}, s.Data(), "flashes are not part of the data")

	flashes := s.Flashes()
	assert.Equal(t, "Wrong password", flashes["error"])
	assert.Equal(t, map[string]any{"email": "a@example.com"}, flashes["input"])
	assert.Empty(t, s.Flashes(), "flashes are consumed once")
}

func TestSession_Clear(t *testing.T) {
	t.Parallel()

	s := New("id", "token", time.Now().Add(time.Hour))
	s.Set("a", 1)
	s.ClearDirty()
	s.Clear()

	assert.True(t, s.IsDirty())
	assert.Empty(t, s.Data())
	assert.Equal(t, "id", s.ID)
}

func TestSession_RegenerateAndDestroy(t *testing.T) {
	t.Parallel()

	s := New("id", "token", time.Now().Add(time.Hour))
	s.ClearDirty()
	s.Regenerate()
	assert.True(t, s.NeedsRegenerate())
	assert.True(t, s.IsDirty())
	s.Regenerated()
	assert.False(t, s.NeedsRegenerate())

	s.Set("user_id", int64(1))
	s.Destroy()
	assert.True(t, s.IsDestroyed())
	assert.Empty(t, s.Data())
}

func TestContext(t *testing.T) {
	t.Parallel()

	assert.Nil(t, FromContext(context.Background()))
	s := New("id", "token", time.Now().Add(time.Hour))
	assert.Same(t, s, FromContext(WithContext(context.Background(), s)))
}

func TestValue(t *testing.T) {
	t.Parallel()

	s := New("id", "token", time.Now().Add(time.Hour))
	s.Set("name", "ann")

	name, err := Value[string](s, "name")
	require.NoError(t, err)
	assert.Equal(t, "ann", name)

	_, err = Value[int64](s, "name")
	assert.ErrorIs(t, err, ErrTypeMismatch)

	_, err = Value[string](s, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = Value[string](nil, "name")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, int64(9), ValueOr(s, "missing", int64(9)))
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Get(ctx, "nope")
	require.ErrorIs(t, err, ErrNotFound)

	s := New("id-1", "tok-1", time.Now().Add(time.Hour))
	s.Set("user_id", int64(3))
	require.NoError(t, store.Save(ctx, s))

	s.Set("user_id", int64(99))
	got, err := store.Get(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.Values["user_id"], "stored copy is isolated from later writes")
	assert.False(t, got.IsNew())
	assert.False(t, got.IsDirty())

	require.NoError(t, store.Delete(ctx, "tok-1"))
	_, err = store.Get(ctx, "tok-1")
	require.ErrorIs(t, err, ErrNotFound)

	stale := New("id-2", "tok-2", time.Now().Add(-time.Minute))
	require.NoError(t, store.Save(ctx, stale))
	_, err = store.Get(ctx, "tok-2")
	require.ErrorIs(t, err, ErrExpired)
	assert.Zero(t, store.Len())
}

func TestEncodeDecode_RestoresNumbers(t *testing.T) {
	t.Parallel()

	s := New("id", "token", time.Now().Add(time.Hour))
	s.Set("user_id", int64(42))
	s.Set("ratio", 0.5)
	s.Flash("input", map[string]any{"age": int64(30)})

	data, err := encode(s)
	require.NoError(t, err)

	got, err := decode(data)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.Values["user_id"])
	assert.Equal(t, 0.5, got.Values["ratio"])
	assert.Equal(t, map[string]any{"age": int64(30)}, got.Flashes()["input"])
	assert.Equal(t, "token", got.Token)
}

func TestRedisStore_Integration(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}

	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	store := NewRedisStore(client, "test-session:")

	s := New("id-r", "tok-r", time.Now().Add(time.Minute))
	s.Set("user_id", int64(7))
	require.NoError(t, store.Save(ctx, s))

	got, err := store.Get(ctx, "tok-r")
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.Values["user_id"])

	require.NoError(t, store.Delete(ctx, "tok-r"))
	_, err = store.Get(ctx, "tok-r")
	require.ErrorIs(t, err, ErrNotFound)
}
