package db

import (
	"fmt"
	"strconv"
	"time"
)

// Column is a single named value of a row.
type Column struct {
	Value any
	Name  string
}

// Col builds a Column.
func Col(name string, value any) Column {
	return Column{Name: name, Value: value}
}

// Columns is an ordered list of columns. It is used both as a row to insert
// and as a list of ANDed predicates.
type Columns []Column

// Names returns the column names in order.
func (c Columns) Names() []string {
	names := make([]string, len(c))
	for i, col := range c {
		names[i] = col.Name
	}
	return names
}

// Values returns the column values in order.
func (c Columns) Values() []any {
	values := make([]any, len(c))
	for i, col := range c {
		values[i] = col.Value
	}
	return values
}

// Entity is one persisted row: an immutable identity plus a fixed set of
// mutable columns. Entities are produced by the Engine and written back with
// Engine.Update.
type Entity struct {
	index   map[string]int
	table   string
	columns Columns
	id      int64
}

func newEntity(table string, id int64, columns Columns) *Entity {
	e := &Entity{
		table:   table,
		id:      id,
		columns: make(Columns, 0, len(columns)),
		index:   make(map[string]int, len(columns)),
	}
	for _, c := range columns {
		// First occurrence wins: joined tables repeat names of the primary table.
		if _, ok := e.index[c.Name]; ok {
			continue
		}
		e.index[c.Name] = len(e.columns)
		e.columns = append(e.columns, Column{Name: c.Name, Value: normalizeValue(c.Value)})
	}
	return e
}

// Table returns the table the entity was read from.
func (e *Entity) Table() string { return e.table }

// ID returns the store-assigned identifier.
func (e *Entity) ID() int64 { return e.id }

// Columns returns a copy of the columns in their original order.
func (e *Entity) Columns() Columns {
	out := make(Columns, len(e.columns))
	copy(out, e.columns)
	return out
}

// Has reports whether the entity carries the named column.
func (e *Entity) Has(name string) bool {
	_, ok := e.index[name]
	return ok
}

// Get returns the value of the named column.
func (e *Entity) Get(name string) (any, error) {
	i, ok := e.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownColumn, e.table, name)
	}
	return e.columns[i].Value, nil
}

// Set replaces the value of an existing column.
// The column set is fixed, so unknown names fail with ErrUnknownColumn.
func (e *Entity) Set(name string, value any) error {
	i, ok := e.index[name]
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrUnknownColumn, e.table, name)
	}
	e.columns[i].Value = normalizeValue(value)
	return nil
}

// Value returns the named column or nil when the column is absent.
func (e *Entity) Value(name string) any {
	v, _ := e.Get(name)
	return v
}

// String returns the named column formatted as a string.
func (e *Entity) String(name string) string {
	switch v := e.Value(name).(type) {
	case nil:
		return ""
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

// Int returns the named column as an integer, or 0 when it is not numeric.
func (e *Entity) Int(name string) int64 {
	switch v := e.Value(name).(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	case bool:
		if v {
			return 1
		}
		return 0
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	default:
		return 0
	}
}

// Bool returns the named column as a boolean. Integer columns are true when non-zero.
func (e *Entity) Bool(name string) bool {
	switch v := e.Value(name).(type) {
	case bool:
		return v
	case int64:
		return v != 0
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	default:
		return false
	}
}

// Map returns the columns as a map, with the entity id under "id".
func (e *Entity) Map() map[string]any {
	m := make(map[string]any, len(e.columns)+1)
	for _, c := range e.columns {
		m[c.Name] = c.Value
	}
	m["id"] = e.id
	return m
}

// normalizeValue folds driver values into the set an entity may hold:
// string, int64, float64, bool or nil.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case nil, string, int64, float64, bool:
		return val
	case []byte:
		return string(val)
	case int:
		return int64(val)
	case int32:
		return int64(val)
	case int16:
		return int64(val)
	case int8:
		return int64(val)
	case uint32:
		return int64(val)
	case uint16:
		return int64(val)
	case uint8:
		return int64(val)
	case float32:
		return float64(val)
	case time.Time:
		return val.UTC().Format(time.RFC3339Nano)
	case *time.Time:
		if val == nil {
			return nil
		}
		return val.UTC().Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(val)
	}
}
