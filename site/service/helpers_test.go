package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/candlewaxgames/candlewax/pkg/db"
	"github.com/candlewaxgames/candlewax/pkg/logger"
	"github.com/candlewaxgames/candlewax/pkg/session"
	"github.com/candlewaxgames/candlewax/site/migrations"
)

func newEngine(t *testing.T) *db.Engine {
	t.Helper()

	ctx := context.Background()
	store, err := db.Open(ctx, db.Config{Driver: "sqlite", URL: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	fsys, err := migrations.FS(store.Dialect)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(ctx, store, fsys, "schema_migrations", logger.NewNope()))

	engine := db.NewEngine(db.WithDialect(store.Dialect))
	require.NoError(t, engine.Connect(store.DB))
	return engine
}

func withSession(t *testing.T) (context.Context, *session.Session) {
	t.Helper()
	sess := session.New("id-1", "token-1", time.Now().Add(time.Hour))
	return session.WithContext(context.Background(), sess), sess
}

type sentMail struct {
	data     any
	to       string
	template string
}

type fakeMailer struct {
	sent []sentMail
	mu   sync.Mutex
}

func (m *fakeMailer) Send(_ context.Context, to, template string, data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{to: to, template: template, data: data})
	return nil
}

func (m *fakeMailer) last() sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sent[len(m.sent)-1]
}

func seedUser(t *testing.T, engine *db.Engine, username string) int64 {
	t.Helper()
	rows, err := engine.Create(context.Background(), "users", db.Columns{
		db.Col("username", username),
		db.Col("email", username+"@example.com"),
		db.Col("password", "x"),
	})
	require.NoError(t, err)
	_, err = engine.Create(context.Background(), "user_profiles", db.Columns{
		db.Col("user_id", rows[0].ID()),
		db.Col("image", username+".png"),
	})
	require.NoError(t, err)
	return rows[0].ID()
}
