package scene

import (
	"fmt"
	"reflect"
	"sync"
)

// Registry maps document-facing component type names to constructors. The
// editor bridge and document loader resolve components through it; the undo
// machinery itself works on live instances and never consults the registry.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]func() Component
	names  map[reflect.Type]string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]func() Component),
		names:  make(map[reflect.Type]string),
	}
}

// Register binds a type name to a component constructor. Registering a name
// twice is an error; component palettes are assembled once at startup.
func (r *Registry) Register(name string, factory func() Component) error {
	if name == "" || factory == nil {
		return fmt.Errorf("scene: registry entries need a name and a factory")
	}
	prototype := factory()
	t := reflect.TypeOf(prototype)
	if t == nil || t.Kind() != reflect.Pointer || t.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("scene: factory for %q must produce a pointer to a struct, got %T", name, prototype)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("scene: component type %q already registered", name)
	}
	r.byName[name] = factory
	r.names[t] = name
	return nil
}

// New constructs a fresh component for the given registered name.
func (r *Registry) New(name string) (Component, error) {
	r.mu.RLock()
	factory, ok := r.byName[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("scene: unknown component type %q", name)
	}
	return factory(), nil
}

// NameFor reports the registered name for a live component instance.
func (r *Registry) NameFor(c Component) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.names[reflect.TypeOf(c)]
	return name, ok
}

// Names lists the registered type names. Order is unspecified.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.byName))
	for name := range r.byName {
		out = append(out, name)
	}
	return out
}

// DefaultRegistry returns a registry pre-populated with the built-in
// component palette.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	must := func(name string, factory func() Component) {
		if err := r.Register(name, factory); err != nil {
			panic(err)
		}
	}
	must("transform", func() Component { return &Transform{ScaleX: 1, ScaleY: 1} })
	must("sprite", func() Component { return &Sprite{} })
	must("collider", func() Component { return &Collider{} })
	must("script", func() Component { return &Script{} })
	return r
}
