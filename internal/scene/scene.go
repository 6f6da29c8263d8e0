// Package scene implements the mutable object model the editing runtime
// operates on: a hierarchy of entities, each owning an ordered list of
// attached components. The scene is intentionally unsynchronized; all
// mutation is expected to happen on a single logical thread, with callers
// (such as the editor bridge) serializing access.
package scene

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/google/uuid"
)

// ErrDetached reports an operation against an entity that has been removed
// from its scene.
var ErrDetached = errors.New("scene: entity is detached")

// Component is an attachable unit of state bound to exactly one entity at a
// time. Components are pointers to plain structs; their editable members are
// the exported fields.
type Component interface{}

// RequireComponents is implemented by component types that cannot operate
// without companions. Attaching such a component first attaches any missing
// companion types, mirroring how engines auto-complete dependencies.
type RequireComponents interface {
	RequiredComponents() []Component
}

// Scene owns the entity hierarchy. The root entity always exists and cannot
// be destroyed.
type Scene struct {
	root *Entity
	byID map[string]*Entity
}

// Entity is a node in the scene hierarchy. The exported fields are its
// editable members; identity, hierarchy, and attachment state are managed
// through methods.
type Entity struct {
	Name    string
	Tag     string
	Enabled bool

	id         string
	scene      *Scene
	parent     *Entity
	children   []*Entity
	components []Component
}

// New creates an empty scene whose root entity carries the given name.
func New(name string) *Scene {
	s := &Scene{byID: make(map[string]*Entity)}
	root := &Entity{Name: name, Enabled: true, id: uuid.NewString(), scene: s}
	s.root = root
	s.byID[root.id] = root
	return s
}

// Root returns the scene's root entity.
func (s *Scene) Root() *Entity {
	return s.root
}

// EntityByID resolves a live entity by identifier.
func (s *Scene) EntityByID(id string) (*Entity, bool) {
	e, ok := s.byID[id]
	return e, ok
}

// CreateEntity adds a new enabled entity under parent. A nil parent attaches
// the entity to the root.
func (s *Scene) CreateEntity(name string, parent *Entity) *Entity {
	if parent == nil || parent.scene != s {
		parent = s.root
	}
	e := &Entity{Name: name, Enabled: true, id: uuid.NewString(), scene: s, parent: parent}
	parent.children = append(parent.children, e)
	s.byID[e.id] = e
	return e
}

// ID returns the entity's stable identifier.
func (e *Entity) ID() string {
	return e.id
}

// Scene returns the owning scene, or nil once the entity is destroyed.
func (e *Entity) Scene() *Scene {
	return e.scene
}

// Parent returns the entity's parent in the hierarchy. The root has none.
func (e *Entity) Parent() *Entity {
	return e.parent
}

// SetParent moves the entity under a new parent.
func (e *Entity) SetParent(parent *Entity) error {
	if e.scene == nil {
		return ErrDetached
	}
	if parent == nil {
		parent = e.scene.root
	}
	if parent == e {
		return fmt.Errorf("scene: entity %q cannot parent itself", e.Name)
	}
	if e.parent != nil {
		e.parent.removeChild(e)
	}
	e.parent = parent
	parent.children = append(parent.children, e)
	return nil
}

// Children returns a copy of the entity's child list.
func (e *Entity) Children() []*Entity {
	if len(e.children) == 0 {
		return nil
	}
	out := make([]*Entity, len(e.children))
	copy(out, e.children)
	return out
}

// Components returns a copy of the attachment list in attachment order.
func (e *Entity) Components() []Component {
	if len(e.components) == 0 {
		return nil
	}
	out := make([]Component, len(e.components))
	copy(out, e.components)
	return out
}

// ComponentsOf returns the attached components of the given type, in
// attachment order.
func (e *Entity) ComponentsOf(t reflect.Type) []Component {
	var out []Component
	for _, c := range e.components {
		if reflect.TypeOf(c) == t {
			out = append(out, c)
		}
	}
	return out
}

// Attach appends a component to the entity's attachment list. Companion
// types required by the component are attached first when missing.
func (e *Entity) Attach(c Component) error {
	if e.scene == nil {
		return ErrDetached
	}
	if c == nil {
		return fmt.Errorf("scene: cannot attach nil component")
	}
	t := reflect.TypeOf(c)
	if t.Kind() != reflect.Pointer || t.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("scene: component must be a pointer to a struct, got %T", c)
	}
	if req, ok := c.(RequireComponents); ok {
		for _, proto := range req.RequiredComponents() {
			pt := reflect.TypeOf(proto)
			if len(e.ComponentsOf(pt)) > 0 {
				continue
			}
			companion, err := NewComponentOf(pt)
			if err != nil {
				return err
			}
			if err := e.Attach(companion); err != nil {
				return err
			}
		}
	}
	e.components = append(e.components, c)
	return nil
}

// Remove detaches a component instance from the entity. It reports whether
// the component was attached.
func (e *Entity) Remove(c Component) bool {
	for i, attached := range e.components {
		if attached == c {
			e.components = append(e.components[:i], e.components[i+1:]...)
			return true
		}
	}
	return false
}

// Destroy removes the entity and its descendants from the scene. The root
// entity cannot be destroyed.
func (e *Entity) Destroy() {
	if e.scene == nil || e == e.scene.root {
		return
	}
	if e.parent != nil {
		e.parent.removeChild(e)
		e.parent = nil
	}
	e.detach()
}

func (e *Entity) detach() {
	delete(e.scene.byID, e.id)
	e.scene = nil
	for _, child := range e.children {
		child.parent = nil
		child.detach()
	}
	e.children = nil
}

func (e *Entity) removeChild(child *Entity) {
	for i, c := range e.children {
		if c == child {
			e.children = append(e.children[:i], e.children[i+1:]...)
			return
		}
	}
}

// NewComponentOf constructs a zero-valued component instance of the given
// pointer-to-struct type.
func NewComponentOf(t reflect.Type) (Component, error) {
	if t == nil || t.Kind() != reflect.Pointer || t.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("scene: %v is not a component type", t)
	}
	return reflect.New(t.Elem()).Interface(), nil
}
