package internal

import (
	"context"
	"math"
	"mime/multipart"
	"regexp"
	"strconv"
	"strings"
)

// Kind is the declared type of an action parameter.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindBool
	KindAny
	// KindForm binds the submitted form as map[string]string.
	KindForm
	// KindSession binds the session values as map[string]any.
	KindSession
	// KindFiles binds the uploaded files as map[string]*multipart.FileHeader.
	KindFiles
)

// Names of the parameters bound from ambient request state.
const (
	ParamPost    = "post"
	ParamSession = "session"
	ParamFiles   = "files"
)

// Param declares one action parameter.
type Param struct {
	Default    any
	Name       string
	Kind       Kind
	HasDefault bool
}

// Optional returns a copy of p with a default value.
func (p Param) Optional(def any) Param {
	p.Default = def
	p.HasDefault = true
	return p
}

// Request is what an action can see of the incoming HTTP request.
type Request struct {
	Form    map[string]string
	Session map[string]any
	Files   map[string]*multipart.FileHeader
	Method  string
	Path    string
}

type requestKey struct{}

// WithRequest returns a copy of ctx carrying req. The router stores the
// request it dispatches so services can reach the posted form.
func WithRequest(ctx context.Context, req *Request) context.Context {
	return context.WithValue(ctx, requestKey{}, req)
}

// RequestFromContext returns the request stored by WithRequest, or nil.
func RequestFromContext(ctx context.Context) *Request {
	req, _ := ctx.Value(requestKey{}).(*Request)
	return req
}

// URLValue is a value taken from a URL segment. It keeps the raw text so a
// string parameter receives "2024" rather than the integer 2024.
type URLValue struct {
	Typed any
	Raw   string
}

// NewURLValue casts a URL segment with TypeCastFromString.
func NewURLValue(raw string) URLValue {
	return URLValue{Raw: raw, Typed: TypeCastFromString(raw)}
}

// Values is the bag parameters are bound from: either keyed by parameter
// name or an ordered list consumed front to back.
type Values struct {
	named      map[string]any
	positional []any
}

// Named creates a keyed bag. The map is copied.
func Named(m map[string]any) Values {
	named := make(map[string]any, len(m))
	for k, v := range m {
		named[k] = v
	}
	return Values{named: named}
}

// Positional creates an ordered bag.
func Positional(v ...any) Values {
	return Values{positional: append([]any(nil), v...)}
}

// take returns the entry for p if one exists and matches p's kind.
// Matching entries are consumed; mismatches stay in the bag.
func (v *Values) take(p Param) (any, bool) {
	if v.named != nil {
		raw, ok := v.named[p.Name]
		if !ok {
			return nil, false
		}
		val, ok := coerce(raw, p.Kind)
		if ok {
			delete(v.named, p.Name)
		}
		return val, ok
	}
	if len(v.positional) == 0 {
		return nil, false
	}
	val, ok := coerce(v.positional[0], p.Kind)
	if ok {
		v.positional = v.positional[1:]
	}
	return val, ok
}

// coerce checks value against kind. Integers widen to floats; URL values
// match as text for string parameters and as their cast value otherwise.
func coerce(value any, kind Kind) (any, bool) {
	if u, ok := value.(URLValue); ok {
		if kind == KindString {
			return u.Raw, true
		}
		value = u.Typed
	}
	if value == nil {
		return nil, false
	}

	switch kind {
	case KindString:
		s, ok := value.(string)
		return s, ok
	case KindInt:
		switch n := value.(type) {
		case int64:
			return n, true
		case int:
			return int64(n), true
		}
	case KindFloat:
		switch n := value.(type) {
		case float64:
			return n, true
		case int64:
			return float64(n), true
		case int:
			return float64(n), true
		}
	case KindBool:
		b, ok := value.(bool)
		return b, ok
	case KindForm:
		m, ok := value.(map[string]string)
		return m, ok
	case KindSession:
		m, ok := value.(map[string]any)
		return m, ok
	case KindFiles:
		m, ok := value.(map[string]*multipart.FileHeader)
		return m, ok
	case KindAny:
		return value, true
	}
	return nil, false
}

// ResolveParams binds params from values and the ambient request state.
// Each parameter takes the first of: the values bag, the form for "post",
// the session for "session", the uploads for "files", its default. If any
// parameter stays unbound the whole method does not match.
func ResolveParams(params []Param, values Values, req *Request) (Args, bool) {
	if req == nil {
		req = &Request{}
	}
	args := make(Args, 0, len(params))
	for _, p := range params {
		if v, ok := values.take(p); ok {
			args = append(args, v)
			continue
		}
		if v, ok := ambient(p, req); ok {
			args = append(args, v)
			continue
		}
		if p.HasDefault {
			args = append(args, p.Default)
			continue
		}
		return nil, false
	}
	return args, true
}

func ambient(p Param, req *Request) (any, bool) {
	switch p.Name {
	case ParamPost:
		return req.Form, len(req.Form) > 0
	case ParamSession:
		return req.Session, len(req.Session) > 0
	case ParamFiles:
		return req.Files, len(req.Files) > 0
	}
	return nil, false
}

var numericPattern = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// TypeCastFromString converts URL text to a typed value: numbers with a
// decimal point become float64, other numbers int64, true/false bool and
// null nil. Anything else stays a string. An exponent without a decimal
// point still yields an integer, truncated toward zero ("1e5" is 100000).
func TypeCastFromString(s string) any {
	if numericPattern.MatchString(s) {
		if !strings.Contains(s, ".") {
			if n, err := strconv.ParseInt(s, 10, 64); err == nil {
				return n
			}
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return s
		}
		if !strings.Contains(s, ".") && f >= math.MinInt64 && f < math.MaxInt64 {
			return int64(f)
		}
		return f
	}
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	case "null":
		return nil
	}
	return s
}

// Args are bound action arguments in declaration order. The accessors
// return zero values for absent or mistyped entries.
type Args []any

func (a Args) at(i int) any {
	if i < 0 || i >= len(a) {
		return nil
	}
	return a[i]
}

func (a Args) String(i int) string {
	s, _ := a.at(i).(string)
	return s
}

func (a Args) Int(i int) int64 {
	n, _ := a.at(i).(int64)
	return n
}

func (a Args) Float(i int) float64 {
	f, _ := a.at(i).(float64)
	return f
}

func (a Args) Bool(i int) bool {
	b, _ := a.at(i).(bool)
	return b
}

func (a Args) Form(i int) map[string]string {
	m, _ := a.at(i).(map[string]string)
	if m == nil {
		return map[string]string{}
	}
	return m
}

func (a Args) Session(i int) map[string]any {
	m, _ := a.at(i).(map[string]any)
	if m == nil {
		return map[string]any{}
	}
	return m
}

func (a Args) Files(i int) map[string]*multipart.FileHeader {
	m, _ := a.at(i).(map[string]*multipart.FileHeader)
	if m == nil {
		return map[string]*multipart.FileHeader{}
	}
	return m
}
