package xentity

import (
	"reflect"
	"sync"
)

// Registry owns resolved mappings, one per record type. Explicit mappings
// are added with Register; any other struct type is derived with Reflect on
// first use and cached. A Registry is safe for concurrent use.
//
// Sessions use the package-level default registry unless WithRegistry is given.
type Registry struct {
	cache sync.Map // reflect.Type -> *Mapping[T]
}

func NewRegistry() *Registry { return &Registry{} }

var (
	registry     *Registry
	registryOnce sync.Once
)

// DefaultRegistry returns the lazily created package-level registry.
func DefaultRegistry() *Registry {
	registryOnce.Do(func() { registry = NewRegistry() })
	return registry
}

// Register installs an explicit mapping for T, replacing any cached one.
func Register[T any](r *Registry, m *Mapping[T]) {
	r.cache.Store(reflect.TypeOf((*T)(nil)).Elem(), m)
}

// Lookup returns the mapping for T from r, deriving and caching it with
// Reflect when none was registered.
func Lookup[T any](r *Registry) (*Mapping[T], error) {
	rt := reflect.TypeOf((*T)(nil)).Elem()
	if v, ok := r.cache.Load(rt); ok {
		return v.(*Mapping[T]), nil
	}
	m, err := Reflect[T]()
	if err != nil {
		return nil, err
	}
	actual, _ := r.cache.LoadOrStore(rt, m)
	return actual.(*Mapping[T]), nil
}

// Resolve returns T's table identity and ordered fields from the default registry.
func Resolve[T any]() (Table, []Field[T], error) {
	m, err := Lookup[T](DefaultRegistry())
	if err != nil {
		return Table{}, nil, err
	}
	return m.Table(), m.Fields(), nil
}
