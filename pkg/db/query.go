package db

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// ParentColumn is the self-reference FindRoot follows upwards.
const ParentColumn = "parent_id"

// aliasedJoinColumns are renamed to <table>_<column> for every joined table so
// they do not collide with the primary table's columns in a flattened row.
var aliasedJoinColumns = []string{"id", "created_at", "updated_at"}

// allowedOperators are the comparison operators accepted in predicates.
var allowedOperators = []string{"=", "!=", "<>", "<", "<=", ">", ">=", "LIKE", "NOT LIKE"}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Join describes one LEFT JOIN: On[0] is a column of the primary table,
// On[1] the matching column of the joined table.
type Join struct {
	Table string
	On    [2]string
}

// LeftJoinQuery describes a read of one table with any number of left joins.
// Limit 0 means no limit, and then Offset must be 0 too.
type LeftJoinQuery struct {
	Table   string
	Op      string
	OrderBy string
	Where   Columns
	Joins   []Join
	Limit   int
	Offset  int
}

// RecursiveQuery describes a descendant-closure read: it starts with the rows
// matching Where and repeatedly adds rows whose Union[0] equals the Union[1]
// of a row already found.
type RecursiveQuery struct {
	Table   string
	OrderBy string
	Where   Columns
	Joins   []Join
	Union   [2]string
}

// statement is built SQL text plus its bound arguments.
type statement struct {
	sql  string
	args []any
}

// builder accumulates SQL text and arguments. The first error sticks and
// aborts the build.
type builder struct {
	err     error
	dialect Dialect
	args    []any
	sb      strings.Builder
}

func newBuilder(d Dialect) *builder {
	return &builder{dialect: d}
}

func (b *builder) write(parts ...string) {
	for _, p := range parts {
		b.sb.WriteString(p)
	}
}

func (b *builder) fail(format string, args ...any) {
	if b.err == nil {
		b.err = fmt.Errorf("%w: %s", ErrInvalidOperation, fmt.Sprintf(format, args...))
	}
}

// bind registers a value and returns its placeholder.
func (b *builder) bind(v any) string {
	b.args = append(b.args, v)
	return b.dialect.placeholder(len(b.args))
}

// ident quotes a plain or table-qualified identifier.
func (b *builder) ident(name string) string {
	parts := strings.Split(name, ".")
	if len(parts) > 2 {
		b.fail("identifier %q has too many parts", name)
		return ""
	}
	quoted := make([]string, len(parts))
	for i, p := range parts {
		if !identPattern.MatchString(p) {
			b.fail("unsafe identifier %q", name)
			return ""
		}
		quoted[i] = `"` + p + `"`
	}
	return strings.Join(quoted, ".")
}

// column quotes name, qualifying it with table unless it is already qualified.
func (b *builder) column(table, name string) string {
	if table == "" || strings.Contains(name, ".") {
		return b.ident(name)
	}
	return b.ident(table + "." + name)
}

func (b *builder) where(table string, where Columns, op string) {
	if len(where) == 0 {
		return
	}
	op = normalizeOperator(op)
	if !slices.Contains(allowedOperators, op) {
		b.fail("unsupported operator %q", op)
		return
	}
	b.write(" WHERE ")
	for i, c := range where {
		if i > 0 {
			b.write(" AND ")
		}
		col := b.column(table, c.Name)
		if c.Value == nil {
			if op == "!=" || op == "<>" {
				b.write(col, " IS NOT NULL")
			} else {
				b.write(col, " IS NULL")
			}
			continue
		}
		b.write(col, " ", op, " ", b.bind(c.Value))
	}
}

// orderBy renders a comma separated "column [ASC|DESC]" list. Qualifiers
// found in rename are replaced, which lets callers order a CTE by the name of
// the table it was built from.
func (b *builder) orderBy(orderBy, defaultTable string, rename map[string]string) {
	orderBy = strings.TrimSpace(orderBy)
	if orderBy == "" {
		return
	}
	terms := strings.Split(orderBy, ",")
	rendered := make([]string, 0, len(terms))
	for _, term := range terms {
		fields := strings.Fields(term)
		if len(fields) == 0 || len(fields) > 2 {
			b.fail("malformed order term %q", term)
			return
		}
		name := fields[0]
		if q, col, ok := strings.Cut(name, "."); ok {
			if to, found := rename[q]; found {
				name = to + "." + col
			}
		}
		expr := b.column(defaultTable, name)
		if len(fields) == 2 {
			dir := strings.ToUpper(fields[1])
			if dir != "ASC" && dir != "DESC" {
				b.fail("malformed order direction %q", fields[1])
				return
			}
			expr += " " + dir
		}
		rendered = append(rendered, expr)
	}
	b.write(" ORDER BY ", strings.Join(rendered, ", "))
}

// projection renders "<from>.*" followed by the primary id alias and the
// per-table aliases of every joined table.
func (b *builder) projection(from, table string, joins []Join) {
	b.write(b.ident(from), ".*, ", b.ident(from+".id"), " AS ", b.ident(table+"_id"))
	for _, j := range joins {
		b.write(", ", b.ident(j.Table), ".*")
		for _, col := range aliasedJoinColumns {
			b.write(", ", b.ident(j.Table+"."+col), " AS ", b.ident(j.Table+"_"+col))
		}
	}
}

func (b *builder) joins(from string, joins []Join) {
	for _, j := range joins {
		b.write(" LEFT JOIN ", b.ident(j.Table), " ON ", b.column(from, j.On[0]), " = ", b.column(j.Table, j.On[1]))
	}
}

func (b *builder) limit(limit, offset int) {
	if limit < 0 || offset < 0 {
		b.fail("negative limit or offset")
		return
	}
	if limit == 0 && offset > 0 {
		b.fail("offset %d without a limit", offset)
		return
	}
	if limit > 0 {
		b.write(" LIMIT ", b.bind(limit))
		if offset > 0 {
			b.write(" OFFSET ", b.bind(offset))
		}
	}
}

func (b *builder) statement() (statement, error) {
	if b.err != nil {
		return statement{}, b.err
	}
	return statement{sql: b.sb.String(), args: b.args}, nil
}

func normalizeOperator(op string) string {
	op = strings.ToUpper(strings.Join(strings.Fields(op), " "))
	if op == "" {
		return "="
	}
	return op
}

// buildInsert renders a multi-row INSERT ... RETURNING id. Every row must
// carry the column set of the first row; values are reordered to match it.
func buildInsert(d Dialect, table string, rows []Columns) (statement, error) {
	if len(rows) == 0 {
		return statement{}, fmt.Errorf("%w: insert into %s without rows", ErrInvalidOperation, table)
	}
	names := rows[0].Names()
	if len(names) == 0 {
		return statement{}, fmt.Errorf("%w: insert into %s without columns", ErrInvalidOperation, table)
	}

	b := newBuilder(d)
	b.write("INSERT INTO ", b.ident(table), " (")
	for i, n := range names {
		if i > 0 {
			b.write(", ")
		}
		b.write(b.ident(n))
	}
	b.write(") VALUES ")

	for r, row := range rows {
		if len(row) != len(names) {
			return statement{}, fmt.Errorf("%w: row %d of %s has %d columns, want %d", ErrInvalidOperation, r, table, len(row), len(names))
		}
		byName := make(map[string]any, len(row))
		for _, c := range row {
			byName[c.Name] = c.Value
		}
		if r > 0 {
			b.write(", ")
		}
		b.write("(")
		for i, n := range names {
			v, ok := byName[n]
			if !ok {
				return statement{}, fmt.Errorf("%w: row %d of %s lacks column %q", ErrInvalidOperation, r, table, n)
			}
			if i > 0 {
				b.write(", ")
			}
			b.write(b.bind(v))
		}
		b.write(")")
	}
	b.write(" RETURNING ", b.ident("id"))
	return b.statement()
}

func buildSelect(d Dialect, table string, where Columns, op string) (statement, error) {
	b := newBuilder(d)
	b.write("SELECT * FROM ", b.ident(table))
	b.where("", where, op)
	return b.statement()
}

func buildCount(d Dialect, table string, where Columns, op string) (statement, error) {
	b := newBuilder(d)
	b.write("SELECT COUNT(*) FROM ", b.ident(table))
	b.where("", where, op)
	return b.statement()
}

func buildDelete(d Dialect, table string, where Columns) (statement, error) {
	b := newBuilder(d)
	if len(where) == 0 {
		b.fail("delete from %q needs at least one predicate", table)
	}
	b.write("DELETE FROM ", b.ident(table))
	b.where("", where, "=")
	return b.statement()
}

func buildUpdate(d Dialect, e *Entity) (statement, error) {
	if len(e.columns) == 0 {
		return statement{}, fmt.Errorf("%w: update of %s#%d without columns", ErrInvalidOperation, e.table, e.id)
	}
	b := newBuilder(d)
	b.write("UPDATE ", b.ident(e.table), " SET ")
	for i, c := range e.columns {
		if i > 0 {
			b.write(", ")
		}
		b.write(b.ident(c.Name), " = ", b.bind(c.Value))
	}
	b.write(" WHERE ", b.ident("id"), " = ", b.bind(e.id))
	return b.statement()
}

func buildLeftJoin(d Dialect, q LeftJoinQuery) (statement, error) {
	b := newBuilder(d)
	b.write("SELECT ")
	b.projection(q.Table, q.Table, q.Joins)
	b.write(" FROM ", b.ident(q.Table))
	b.joins(q.Table, q.Joins)
	b.where(q.Table, q.Where, q.Op)
	b.orderBy(q.OrderBy, q.Table, nil)
	b.limit(q.Limit, q.Offset)
	return b.statement()
}

// recursiveCTE is the name given to the working set of recursive reads.
const recursiveCTE = "tree"

func buildRecursive(d Dialect, q RecursiveQuery) (statement, error) {
	if q.Union[0] == "" || q.Union[1] == "" {
		return statement{}, fmt.Errorf("%w: recursive read of %s without union columns", ErrInvalidOperation, q.Table)
	}
	b := newBuilder(d)
	b.write("WITH RECURSIVE ", b.ident(recursiveCTE), " AS (SELECT ", b.ident(q.Table), ".* FROM ", b.ident(q.Table))
	b.where(q.Table, q.Where, "=")
	b.write(" UNION SELECT ", b.ident(q.Table), ".* FROM ", b.ident(q.Table),
		" INNER JOIN ", b.ident(recursiveCTE), " ON ",
		b.column(q.Table, q.Union[0]), " = ", b.column(recursiveCTE, q.Union[1]), ") ")
	b.write("SELECT ")
	b.projection(recursiveCTE, q.Table, q.Joins)
	b.write(" FROM ", b.ident(recursiveCTE))
	b.joins(recursiveCTE, q.Joins)
	orderBy := q.OrderBy
	if strings.TrimSpace(orderBy) == "" {
		orderBy = recursiveCTE + ".id"
	}
	b.orderBy(orderBy, recursiveCTE, map[string]string{q.Table: recursiveCTE})
	return b.statement()
}

// rootCTE is the name given to the ancestor chain walked by FindRoot.
const rootCTE = "ancestors"

func buildFindRoot(d Dialect, table string, startID int64) (statement, error) {
	b := newBuilder(d)
	b.write("WITH RECURSIVE ", b.ident(rootCTE), " AS (SELECT ", b.ident(table), ".* FROM ", b.ident(table),
		" WHERE ", b.column(table, "id"), " = ", b.bind(startID),
		" UNION SELECT ", b.ident(table), ".* FROM ", b.ident(table),
		" INNER JOIN ", b.ident(rootCTE), " ON ", b.column(table, "id"), " = ", b.column(rootCTE, ParentColumn), ") ")
	b.write("SELECT * FROM ", b.ident(rootCTE), " WHERE ", b.column(rootCTE, ParentColumn), " IS NULL LIMIT 1")
	return b.statement()
}
