package internal

import (
	"fmt"
	"slices"
	"strings"
	"sync"
)

// maxResolveDepth bounds dependency chains. Real graphs are a few levels deep.
const maxResolveDepth = 32

// TypeID names a constructible type in the injector registry,
// e.g. "Discussion.Post" for a controller or "service.Post" for a service.
type TypeID string

// Dependency is one declared constructor parameter. An empty Type marks a
// primitive parameter that cannot be resolved automatically.
type Dependency struct {
	Name string
	Type TypeID
}

// Factory builds an instance by hand. Factories decide their own sharing,
// so a factory returning a captured value acts as a singleton.
type Factory func() (any, error)

// Constructor builds an instance from its resolved dependencies, passed in
// declaration order.
type Constructor func(deps []any) (any, error)

type provider struct {
	build Constructor
	deps  []Dependency
}

// Injector resolves types through manual factories and declared providers.
// Providers are constructed fresh on every Get.
type Injector struct {
	factories map[TypeID]Factory
	providers map[TypeID]provider
	abstract  map[TypeID]struct{}
	mu        sync.RWMutex
}

// NewInjector creates an empty injector.
func NewInjector() *Injector {
	return &Injector{
		factories: make(map[TypeID]Factory),
		providers: make(map[TypeID]provider),
		abstract:  make(map[TypeID]struct{}),
	}
}

// Register installs a manual factory for t. Factories win over providers.
func (in *Injector) Register(t TypeID, f Factory) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.factories[t] = f
}

// Provide declares how to auto-wire t: each dependency is resolved with Get
// and handed to build in order.
//
// Example:
//
//	in.Provide("service.Post", []Dependency{{Name: "db", Type: "db.Engine"}},
//	    func(deps []any) (any, error) {
//	        return service.NewPost(Dep[*db.Engine](deps, 0)), nil
//	    })
func (in *Injector) Provide(t TypeID, deps []Dependency, build Constructor) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.providers[t] = provider{deps: slices.Clone(deps), build: build}
}

// Abstract marks t as a type that exists but has no construction of its own,
// such as an interface without a binding. Get on it fails unless a factory
// is registered.
func (in *Injector) Abstract(t TypeID) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.abstract[t] = struct{}{}
}

// Has reports whether t can be looked up at all.
func (in *Injector) Has(t TypeID) bool {
	in.mu.RLock()
	defer in.mu.RUnlock()
	_, f := in.factories[t]
	_, p := in.providers[t]
	return f || p
}

// Get returns an instance of t.
func (in *Injector) Get(t TypeID) (any, error) {
	return in.get(t, nil)
}

func (in *Injector) get(t TypeID, stack []TypeID) (any, error) {
	in.mu.RLock()
	factory, hasFactory := in.factories[t]
	prov, hasProvider := in.providers[t]
	_, isAbstract := in.abstract[t]
	in.mu.RUnlock()

	if hasFactory {
		v, err := factory()
		if err != nil {
			return nil, fmt.Errorf("factory for %s: %w", t, err)
		}
		return v, nil
	}

	switch {
	case isAbstract:
		return nil, fmt.Errorf("%w: %s is abstract", ErrNotInstantiable, t)
	case !hasProvider:
		return nil, fmt.Errorf("%w: %s is not registered", ErrNotInstantiable, t)
	case slices.Contains(stack, t):
		return nil, fmt.Errorf("%w: dependency cycle %s", ErrNotInstantiable, cyclePath(stack, t))
	case len(stack) >= maxResolveDepth:
		return nil, fmt.Errorf("%w: %s exceeds depth %d", ErrNotInstantiable, t, maxResolveDepth)
	}

	stack = append(stack, t)
	args := make([]any, 0, len(prov.deps))
	for _, dep := range prov.deps {
		if dep.Type == "" {
			return nil, fmt.Errorf("%w: cannot resolve primitive parameter %q of %s",
				ErrUnresolvableParameter, dep.Name, t)
		}
		v, err := in.get(dep.Type, stack)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}

	if prov.build == nil {
		return nil, fmt.Errorf("%w: %s has no constructor", ErrNotInstantiable, t)
	}
	v, err := prov.build(args)
	if err != nil {
		return nil, fmt.Errorf("construct %s: %w", t, err)
	}
	return v, nil
}

func cyclePath(stack []TypeID, t TypeID) string {
	start := slices.Index(stack, t)
	parts := make([]string, 0, len(stack)-start+1)
	for _, s := range stack[start:] {
		parts = append(parts, string(s))
	}
	parts = append(parts, string(t))
	return strings.Join(parts, " -> ")
}

// Resolve returns t from the injector as a T.
func Resolve[T any](in *Injector, t TypeID) (T, error) {
	var zero T
	v, err := in.Get(t)
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s resolved to %T", ErrNotInstantiable, t, v)
	}
	return typed, nil
}

// Dep returns the i-th resolved dependency as a T. It panics on a mismatch,
// which means the provider declaration and its constructor disagree.
func Dep[T any](deps []any, i int) T {
	v, ok := deps[i].(T)
	if !ok {
		var zero T
		panic(fmt.Sprintf("injector: dependency %d is %T, not %T", i, deps[i], zero))
	}
	return v
}
