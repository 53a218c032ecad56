package db_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"

	"github.com/candlewaxgames/candlewax/pkg/db"
)

const testSchema = `
CREATE TABLE users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	email TEXT,
	created_at TEXT NOT NULL DEFAULT '2024-01-01 00:00:00',
	updated_at TEXT
);
CREATE TABLE posts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL,
	parent_id INTEGER,
	title TEXT NOT NULL,
	is_published INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL DEFAULT '2024-01-01 00:00:00',
	updated_at TEXT
);`

func newTestEngine(t *testing.T) (*db.Engine, *sql.DB) {
	t.Helper()

	sqlDB, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	_, err = sqlDB.Exec(testSchema)
	require.NoError(t, err)

	engine := db.NewEngine(db.WithDialect(db.DialectSQLite))
	require.NoError(t, engine.Connect(sqlDB))
	return engine, sqlDB
}

func TestEngine_NotConnected(t *testing.T) {
	t.Parallel()

	engine := db.NewEngine()
	ctx := context.Background()

	_, err := engine.Read(ctx, "posts", nil, "=")
	assert.ErrorIs(t, err, db.ErrNotConnected)

	_, err = engine.Create(ctx, "posts", db.Columns{db.Col("title", "x")})
	assert.ErrorIs(t, err, db.ErrNotConnected)

	_, err = engine.Count(ctx, "posts", nil, "=")
	assert.ErrorIs(t, err, db.ErrNotConnected)

	assert.ErrorIs(t, engine.Delete(ctx, "posts", nil), db.ErrNotConnected)
	assert.False(t, engine.Connected())
}

func TestEngine_AlreadyConnected(t *testing.T) {
	t.Parallel()

	engine, sqlDB := newTestEngine(t)

	assert.True(t, engine.Connected())
	assert.ErrorIs(t, engine.Connect(sqlDB), db.ErrAlreadyConnected)
	assert.ErrorIs(t, db.NewEngine().Connect(nil), db.ErrInvalidOperation)

	engine.Disconnect()
	assert.False(t, engine.Connected())
	assert.NoError(t, engine.Connect(sqlDB))
}

func TestEngine_CreateRequiresRows(t *testing.T) {
	t.Parallel()

	engine, _ := newTestEngine(t)

	_, err := engine.Create(context.Background(), "users")
	assert.ErrorIs(t, err, db.ErrInvalidOperation)

	_, err = engine.Create(context.Background(), "users", db.Columns{})
	assert.ErrorIs(t, err, db.ErrInvalidOperation)
}

func TestEngine_CreateAndRead(t *testing.T) {
	t.Parallel()

	engine, _ := newTestEngine(t)
	ctx := context.Background()

	created, err := engine.Create(ctx, "users",
		db.Columns{db.Col("name", "ann"), db.Col("email", "ann@example.com")},
		db.Columns{db.Col("email", "bob@example.com"), db.Col("name", "bob")},
	)
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.NotZero(t, created[0].ID())
	assert.Equal(t, created[0].ID()+1, created[1].ID())

	rows, err := engine.Read(ctx, "users", db.Columns{db.Col("name", "bob")}, "=")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, created[1].ID(), rows[0].ID())
	assert.Equal(t, "bob@example.com", rows[0].String("email"))
	assert.False(t, rows[0].Has("id"), "id is the entity identity, not a column")

	one, err := engine.ReadOne(ctx, "users", db.Columns{db.Col("name", "nobody")})
	require.NoError(t, err)
	assert.Nil(t, one)
}

func TestEngine_ReadNullPredicate(t *testing.T) {
	t.Parallel()

	engine, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.Create(ctx, "users",
		db.Columns{db.Col("name", "ann"), db.Col("email", nil)},
		db.Columns{db.Col("name", "bob"), db.Col("email", "bob@example.com")},
	)
	require.NoError(t, err)

	rows, err := engine.Read(ctx, "users", db.Columns{db.Col("email", nil)}, "=")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "ann", rows[0].String("name"))

	rows, err = engine.Read(ctx, "users", db.Columns{db.Col("email", nil)}, "!=")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "bob", rows[0].String("name"))
}

func TestEngine_UpdateIsIdempotent(t *testing.T) {
	t.Parallel()

	engine, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.Create(ctx, "users", db.Columns{db.Col("name", "ann"), db.Col("email", "old@example.com")})
	require.NoError(t, err)

	rows, err := engine.Read(ctx, "users", nil, "")
	require.NoError(t, err)
	require.Len(t, rows, 1)

	user := rows[0]
	require.NoError(t, user.Set("email", "new@example.com"))
	require.NoError(t, engine.Update(ctx, user))
	require.NoError(t, engine.Update(ctx, user))

	again, err := engine.ReadOne(ctx, "users", db.Columns{db.Col("name", "ann")})
	require.NoError(t, err)
	require.NotNil(t, again)
	assert.Equal(t, "new@example.com", again.String("email"))
	assert.Equal(t, user.ID(), again.ID())

	assert.ErrorIs(t, user.Set("password", "x"), db.ErrUnknownColumn)
}

func TestEngine_UpdateKeepsFractionalTimestamps(t *testing.T) {
	t.Parallel()

	engine, sqlDB := newTestEngine(t)
	ctx := context.Background()

	_, err := sqlDB.Exec(`CREATE TABLE sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		label TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT '2024-01-01 12:00:00.123456'
	)`)
	require.NoError(t, err)

	_, err = engine.Create(ctx, "sessions", db.Columns{db.Col("label", "a")})
	require.NoError(t, err)

	before, err := engine.ReadOne(ctx, "sessions", db.Columns{db.Col("label", "a")})
	require.NoError(t, err)
	require.NotNil(t, before)
	stamp := before.String("created_at")
	require.Contains(t, stamp, ".123456")

	require.NoError(t, engine.Update(ctx, before))
	var stored string
	require.NoError(t, sqlDB.QueryRow(`SELECT CAST(created_at AS TEXT) FROM sessions`).Scan(&stored))

	require.NoError(t, engine.Update(ctx, before))
	var storedAgain string
	require.NoError(t, sqlDB.QueryRow(`SELECT CAST(created_at AS TEXT) FROM sessions`).Scan(&storedAgain))
	assert.Equal(t, stored, storedAgain)
	assert.Contains(t, stored, ".123456")

	after, err := engine.ReadOne(ctx, "sessions", db.Columns{db.Col("label", "a")})
	require.NoError(t, err)
	assert.Equal(t, stamp, after.String("created_at"))
}

func TestEngine_DeleteAndCount(t *testing.T) {
	t.Parallel()

	engine, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.Create(ctx, "posts",
		db.Columns{db.Col("user_id", 1), db.Col("title", "Hello world")},
		db.Columns{db.Col("user_id", 1), db.Col("title", "Hello again")},
		db.Columns{db.Col("user_id", 2), db.Col("title", "Goodbye")},
	)
	require.NoError(t, err)

	n, err := engine.Count(ctx, "posts", db.Columns{db.Col("title", "Hello%")}, "LIKE")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	require.NoError(t, engine.Delete(ctx, "posts", db.Columns{db.Col("user_id", 1)}))

	n, err = engine.Count(ctx, "posts", nil, "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = engine.Count(ctx, "posts", db.Columns{db.Col("title", "x")}, "; DROP")
	assert.ErrorIs(t, err, db.ErrInvalidOperation)

	assert.ErrorIs(t, engine.Delete(ctx, "posts", nil), db.ErrInvalidOperation)
	n, err = engine.Count(ctx, "posts", nil, "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "a delete without predicates must not touch the table")
}

func TestEngine_ReadLeftJoin(t *testing.T) {
	t.Parallel()

	engine, _ := newTestEngine(t)
	ctx := context.Background()

	users, err := engine.Create(ctx, "users", db.Columns{db.Col("name", "ann"), db.Col("email", "ann@example.com")})
	require.NoError(t, err)
	_, err = engine.Create(ctx, "posts",
		db.Columns{db.Col("user_id", users[0].ID()), db.Col("title", "first"), db.Col("is_published", true)},
		db.Columns{db.Col("user_id", users[0].ID()), db.Col("title", "draft"), db.Col("is_published", false)},
	)
	require.NoError(t, err)

	rows, err := engine.ReadLeftJoin(ctx, db.LeftJoinQuery{
		Table:   "posts",
		Where:   db.Columns{db.Col("is_published", 1), db.Col("parent_id", nil)},
		Joins:   []db.Join{{Table: "users", On: [2]string{"user_id", "id"}}},
		OrderBy: "posts.id DESC",
		Limit:   10,
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	post := rows[0]
	assert.Equal(t, "first", post.String("title"))
	assert.Equal(t, post.ID(), post.Int("posts_id"))
	assert.Equal(t, users[0].ID(), post.Int("users_id"))
	assert.Equal(t, "ann", post.String("name"))
	assert.True(t, post.Has("users_created_at"))
	assert.True(t, post.Has("users_updated_at"))
}

func TestEngine_ReadRecursiveAndFindRoot(t *testing.T) {
	t.Parallel()

	engine, _ := newTestEngine(t)
	ctx := context.Background()

	root, err := engine.Create(ctx, "posts", db.Columns{db.Col("user_id", 1), db.Col("title", "root")})
	require.NoError(t, err)
	rootID := root[0].ID()

	replies, err := engine.Create(ctx, "posts",
		db.Columns{db.Col("user_id", 1), db.Col("parent_id", rootID), db.Col("title", "a")},
		db.Columns{db.Col("user_id", 1), db.Col("parent_id", rootID), db.Col("title", "b")},
	)
	require.NoError(t, err)

	nested, err := engine.Create(ctx, "posts", db.Columns{db.Col("user_id", 1), db.Col("parent_id", replies[0].ID()), db.Col("title", "a.1")})
	require.NoError(t, err)

	tree, err := engine.ReadRecursive(ctx, db.RecursiveQuery{
		Table: "posts",
		Where: db.Columns{db.Col("parent_id", rootID)},
		Union: [2]string{"parent_id", "id"},
		Joins: []db.Join{{Table: "users", On: [2]string{"user_id", "id"}}},
	})
	require.NoError(t, err)
	require.Len(t, tree, 3)

	titles := make([]string, len(tree))
	for i, p := range tree {
		titles[i] = p.String("title")
		assert.Equal(t, p.ID(), p.Int("posts_id"))
	}
	assert.Equal(t, []string{"a", "b", "a.1"}, titles)

	found, err := engine.FindRoot(ctx, "posts", nested[0].ID())
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, rootID, found.ID())
	assert.Equal(t, "root", found.String("title"))

	self, err := engine.FindRoot(ctx, "posts", rootID)
	require.NoError(t, err)
	require.NotNil(t, self)
	assert.Equal(t, rootID, self.ID())

	missing, err := engine.FindRoot(ctx, "posts", 9999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestEngine_WithTx(t *testing.T) {
	t.Parallel()

	engine, _ := newTestEngine(t)
	ctx := context.Background()

	err := engine.WithTx(ctx, func(tx *db.Engine) error {
		_, err := tx.Create(ctx, "users", db.Columns{db.Col("name", "ghost")})
		require.NoError(t, err)
		return db.ErrInvalidOperation
	})
	require.ErrorIs(t, err, db.ErrInvalidOperation)

	n, err := engine.Count(ctx, "users", nil, "")
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, engine.WithTx(ctx, func(tx *db.Engine) error {
		_, err := tx.Create(ctx, "users", db.Columns{db.Col("name", "kept")})
		return err
	}))

	n, err = engine.Count(ctx, "users", nil, "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
