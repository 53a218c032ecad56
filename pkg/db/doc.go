// Package db provides the relational data-access layer of the site.
//
// The [Engine] builds parameterized SQL for generic table operations and maps
// result rows onto [Entity] values. It runs against any [Conn] (a *sql.DB or
// *sql.Tx), so the same code serves PostgreSQL through
// [github.com/jackc/pgx/v5/stdlib] and SQLite through [modernc.org/sqlite].
//
// # Connecting
//
// The process entry point opens a [Store] and hands its handle to the engine:
//
//	store, err := db.Open(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	engine := db.NewEngine(db.WithDialect(store.Dialect))
//	if err := engine.Connect(store.DB); err != nil {
//		return err
//	}
//
// Every operation issued before Connect fails with [ErrNotConnected]; a second
// Connect fails with [ErrAlreadyConnected].
//
// # Operations
//
//	posts, err := engine.Read(ctx, "posts", db.Columns{db.Col("parent_id", nil)}, "=")
//	// SELECT * FROM "posts" WHERE "parent_id" IS NULL
//
//	rows, err := engine.ReadLeftJoin(ctx, db.LeftJoinQuery{
//		Table:   "posts",
//		Joins:   []db.Join{{Table: "users", On: [2]string{"user_id", "id"}}},
//		OrderBy: "posts.created_at DESC",
//		Limit:   10,
//	})
//
// Joined tables expose their id, created_at and updated_at columns as
// <table>_id, <table>_created_at and <table>_updated_at. The primary table's
// id is also available as <table>_id.
//
// [Engine.ReadRecursive] fetches a whole parent/child closure with a recursive
// common table expression and [Engine.FindRoot] walks parent_id upwards.
//
// # Errors
//
//   - [ErrNotConnected], [ErrAlreadyConnected] - connection lifecycle misuse
//   - [ErrInvalidOperation] - a statement cannot be built from the input
//   - [ErrStoreUnavailable] - timeouts and connection failures
//   - [ErrUnknownColumn] - entity access to a column it does not carry
//
// # Migrations
//
//	//go:embed migrations/sqlite/*.sql
//	var migrations embed.FS
//
//	err := db.Migrate(ctx, store, migrations, "schema_migrations", logger)
package db
