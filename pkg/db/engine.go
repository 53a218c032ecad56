package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/candlewaxgames/candlewax/pkg/logger"
)

// Conn is the subset of *sql.DB and *sql.Tx the engine runs statements on.
type Conn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Engine turns table/column operations into parameterized SQL and maps the
// resulting rows onto entities. It holds no references to returned entities.
type Engine struct {
	conn         Conn
	logger       *slog.Logger
	dialect      Dialect
	queryTimeout time.Duration
	mu           sync.RWMutex
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithDialect selects the SQL dialect. Defaults to DialectPostgres.
func WithDialect(d Dialect) EngineOption {
	return func(e *Engine) {
		if d != "" {
			e.dialect = d
		}
	}
}

// WithQueryTimeout bounds every statement issued by the engine.
func WithQueryTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.queryTimeout = d
		}
	}
}

// WithLogger sets the logger used for statement tracing at debug level.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine creates a disconnected engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		dialect: DialectPostgres,
		logger:  logger.NewNope(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Connect attaches the engine to a store connection.
func (e *Engine) Connect(conn Conn) error {
	if conn == nil {
		return fmt.Errorf("%w: nil connection", ErrInvalidOperation)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.conn != nil {
		return ErrAlreadyConnected
	}
	e.conn = conn
	return nil
}

// Disconnect detaches the engine. Closing the connection is left to its owner.
func (e *Engine) Disconnect() {
	e.mu.Lock()
	e.conn = nil
	e.mu.Unlock()
}

// Connected reports whether Connect has been called.
func (e *Engine) Connected() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.conn != nil
}

// Dialect returns the SQL dialect in use.
func (e *Engine) Dialect() Dialect {
	return e.dialect
}

func (e *Engine) connection() (Conn, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.conn == nil {
		return nil, ErrNotConnected
	}
	return e.conn, nil
}

// Create inserts rows in one statement and returns an entity per row, in
// insertion order.
func (e *Engine) Create(ctx context.Context, table string, rows ...Columns) ([]*Entity, error) {
	conn, err := e.connection()
	if err != nil {
		return nil, err
	}
	st, err := buildInsert(e.dialect, table, rows)
	if err != nil {
		return nil, err
	}

	var ids []int64
	err = e.query(ctx, conn, st, func(r *sql.Rows) error {
		var id int64
		if err := r.Scan(&id); err != nil {
			return err
		}
		ids = append(ids, id)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: insert into %s returned no id", ErrInvalidOperation, table)
	}

	entities := make([]*Entity, len(rows))
	for i, row := range rows {
		id := ids[0] + int64(i)
		if i < len(ids) {
			id = ids[i]
		}
		entities[i] = newEntity(table, id, row)
	}
	return entities, nil
}

// Read selects every row of table matching the ANDed predicates. An empty op
// means equality; nil values become IS NULL.
func (e *Engine) Read(ctx context.Context, table string, where Columns, op string) ([]*Entity, error) {
	conn, err := e.connection()
	if err != nil {
		return nil, err
	}
	st, err := buildSelect(e.dialect, table, where, op)
	if err != nil {
		return nil, err
	}
	return e.fetch(ctx, conn, table, "id", st)
}

// ReadOne returns the first row matching where, or nil when none does.
func (e *Engine) ReadOne(ctx context.Context, table string, where Columns) (*Entity, error) {
	rows, err := e.Read(ctx, table, where, "=")
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

// ReadLeftJoin selects rows of q.Table left-joined with q.Joins. The primary
// id is also exposed as <table>_id, and each joined table's id, created_at and
// updated_at as <joined>_id, <joined>_created_at and <joined>_updated_at.
func (e *Engine) ReadLeftJoin(ctx context.Context, q LeftJoinQuery) ([]*Entity, error) {
	conn, err := e.connection()
	if err != nil {
		return nil, err
	}
	st, err := buildLeftJoin(e.dialect, q)
	if err != nil {
		return nil, err
	}
	return e.fetch(ctx, conn, q.Table, "id", st)
}

// ReadRecursive returns the full descendant closure described by q in one
// round trip, joined and aliased like ReadLeftJoin.
func (e *Engine) ReadRecursive(ctx context.Context, q RecursiveQuery) ([]*Entity, error) {
	conn, err := e.connection()
	if err != nil {
		return nil, err
	}
	st, err := buildRecursive(e.dialect, q)
	if err != nil {
		return nil, err
	}
	return e.fetch(ctx, conn, q.Table, "id", st)
}

// FindRoot follows parent_id upwards from startID and returns the row whose
// parent is null, or nil when the chain does not reach one.
func (e *Engine) FindRoot(ctx context.Context, table string, startID int64) (*Entity, error) {
	conn, err := e.connection()
	if err != nil {
		return nil, err
	}
	st, err := buildFindRoot(e.dialect, table, startID)
	if err != nil {
		return nil, err
	}
	rows, err := e.fetch(ctx, conn, table, "id", st)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

// Update writes every column of each entity back by id, one statement per entity.
func (e *Engine) Update(ctx context.Context, entities ...*Entity) error {
	conn, err := e.connection()
	if err != nil {
		return err
	}
	for _, ent := range entities {
		if ent == nil {
			continue
		}
		st, err := buildUpdate(e.dialect, ent)
		if err != nil {
			return err
		}
		if err := e.exec(ctx, conn, st); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes every row of table matching the ANDed equality predicates.
// An empty where fails with ErrInvalidOperation.
func (e *Engine) Delete(ctx context.Context, table string, where Columns) error {
	conn, err := e.connection()
	if err != nil {
		return err
	}
	st, err := buildDelete(e.dialect, table, where)
	if err != nil {
		return err
	}
	return e.exec(ctx, conn, st)
}

// Count returns the number of rows of table matching the predicates.
func (e *Engine) Count(ctx context.Context, table string, where Columns, op string) (int64, error) {
	conn, err := e.connection()
	if err != nil {
		return 0, err
	}
	st, err := buildCount(e.dialect, table, where, op)
	if err != nil {
		return 0, err
	}
	var n int64
	err = e.query(ctx, conn, st, func(r *sql.Rows) error {
		return r.Scan(&n)
	})
	return n, err
}

func (e *Engine) exec(ctx context.Context, conn Conn, st statement) error {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	e.logger.DebugContext(ctx, "db exec", slog.String("sql", st.sql), slog.Int("args", len(st.args)))
	if _, err := conn.ExecContext(ctx, st.sql, st.args...); err != nil {
		return wrapStoreError(err)
	}
	return nil
}

func (e *Engine) query(ctx context.Context, conn Conn, st statement, scan func(*sql.Rows) error) error {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	e.logger.DebugContext(ctx, "db query", slog.String("sql", st.sql), slog.Int("args", len(st.args)))
	rows, err := conn.QueryContext(ctx, st.sql, st.args...)
	if err != nil {
		return wrapStoreError(err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return wrapStoreError(err)
		}
	}
	if err := rows.Err(); err != nil {
		return wrapStoreError(err)
	}
	return nil
}

// fetch runs st and builds one entity per row, popping idColumn out of the
// column set to become the entity id.
func (e *Engine) fetch(ctx context.Context, conn Conn, table, idColumn string, st statement) ([]*Entity, error) {
	var entities []*Entity
	err := e.query(ctx, conn, st, func(r *sql.Rows) error {
		names, err := r.Columns()
		if err != nil {
			return err
		}
		values := make([]any, len(names))
		ptrs := make([]any, len(names))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := r.Scan(ptrs...); err != nil {
			return err
		}

		var id int64
		idSeen := false
		cols := make(Columns, 0, len(names))
		for i, name := range names {
			// Joined tables repeat "id"; their ids are reachable through the aliases.
			if name == idColumn {
				if !idSeen {
					idSeen = true
					if v, ok := normalizeValue(values[i]).(int64); ok {
						id = v
					}
				}
				continue
			}
			cols = append(cols, Column{Name: name, Value: values[i]})
		}
		entities = append(entities, newEntity(table, id, cols))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entities, nil
}

func (e *Engine) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.queryTimeout > 0 {
		return context.WithTimeout(ctx, e.queryTimeout)
	}
	return ctx, func() {}
}

// wrapStoreError marks timeouts and connection failures as ErrStoreUnavailable.
func wrapStoreError(err error) error {
	if err == nil {
		return nil
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.As(err, &netErr) {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return fmt.Errorf("db: %w", err)
}
