package internal

// ContextValue returns the value stored under key, or the zero T when it
// is missing or of another type.
func ContextValue[T any](c Context, key any) T {
	v, _ := c.Get(key).(T)
	return v
}

type queryValue interface {
	~string | ~int | ~int64 | ~float64 | ~bool
}

// Query returns the query parameter cast like a URL segment, or the zero T
// when it is absent or of another type.
func Query[T queryValue](c Context, name string) T {
	var zero T
	return QueryDefault(c, name, zero)
}

// QueryDefault is Query with a fallback for absent or mistyped values.
func QueryDefault[T queryValue](c Context, name string, def T) T {
	raw := c.Query(name)
	if raw == "" {
		return def
	}

	var kind Kind
	switch any(def).(type) {
	case string:
		kind = KindString
	case int, int64:
		kind = KindInt
	case float64:
		kind = KindFloat
	case bool:
		kind = KindBool
	default:
		return def
	}
	v, ok := coerce(NewURLValue(raw), kind)
	if !ok {
		return def
	}

	var out any
	switch any(def).(type) {
	case int:
		out = int(v.(int64))
	default:
		out = v
	}
	if t, ok := out.(T); ok {
		return t
	}
	return def
}
