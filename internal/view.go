package internal

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/a-h/templ"
)

// Renderer turns a view path and its data into HTML.
type Renderer interface {
	Render(ctx context.Context, view string, data map[string]any) ([]byte, error)
}

// ViewFunc builds the component for a view from its data.
type ViewFunc func(data map[string]any) templ.Component

// Views is a Renderer backed by templ components registered by path.
// Paths are matched ignoring case and surrounding slashes, so
// "/discussion/post/404" and "Discussion/Post/404" are the same view.
type Views struct {
	views map[string]ViewFunc
	mu    sync.RWMutex
}

// NewViews creates an empty view registry.
func NewViews() *Views {
	return &Views{views: make(map[string]ViewFunc)}
}

// Add registers fn under path, replacing any previous registration.
func (v *Views) Add(path string, fn ViewFunc) *Views {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.views[viewKey(path)] = fn
	return v
}

// Has reports whether a view is registered under path.
func (v *Views) Has(path string) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	_, ok := v.views[viewKey(path)]
	return ok
}

// Render renders the view registered under path.
func (v *Views) Render(ctx context.Context, path string, data map[string]any) ([]byte, error) {
	v.mu.RLock()
	fn, ok := v.views[viewKey(path)]
	v.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrViewNotFound, path)
	}
	if data == nil {
		data = map[string]any{}
	}

	var buf bytes.Buffer
	if err := fn(data).Render(ctx, &buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", path, err)
	}
	return buf.Bytes(), nil
}

func viewKey(path string) string {
	return strings.ToLower(strings.Trim(path, "/"))
}
