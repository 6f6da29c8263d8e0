package scene

import (
	"errors"
	"reflect"
	"testing"
)

func TestCreateEntityUnderParent(t *testing.T) {
	s := New("stage")
	group := s.CreateEntity("group", nil)
	child := s.CreateEntity("child", group)

	if child.Parent() != group {
		t.Fatalf("expected child parented to group")
	}
	if got := len(group.Children()); got != 1 {
		t.Fatalf("expected one child, got %d", got)
	}
	if looked, ok := s.EntityByID(child.ID()); !ok || looked != child {
		t.Fatalf("expected entity resolvable by id")
	}
	if !child.Enabled {
		t.Fatalf("expected new entities to start enabled")
	}
}

func TestAttachKeepsOrderAndTypedQueries(t *testing.T) {
	s := New("stage")
	e := s.CreateEntity("prop", nil)

	first := &Collider{Width: 1}
	second := &Collider{Width: 2}
	if err := e.Attach(first); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if err := e.Attach(&Script{Source: "idle"}); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if err := e.Attach(second); err != nil {
		t.Fatalf("attach: %v", err)
	}

	colliders := e.ComponentsOf(reflect.TypeOf(&Collider{}))
	if len(colliders) != 2 {
		t.Fatalf("expected two colliders, got %d", len(colliders))
	}
	if colliders[0] != Component(first) || colliders[1] != Component(second) {
		t.Fatalf("expected colliders in attachment order")
	}
	if got := len(e.Components()); got != 3 {
		t.Fatalf("expected three components, got %d", got)
	}
}

func TestAttachAutoAttachesCompanions(t *testing.T) {
	s := New("stage")
	e := s.CreateEntity("prop", nil)

	if err := e.Attach(&Sprite{Texture: "grass"}); err != nil {
		t.Fatalf("attach: %v", err)
	}

	components := e.Components()
	if len(components) != 2 {
		t.Fatalf("expected sprite plus auto-attached transform, got %d components", len(components))
	}
	if _, ok := components[0].(*Transform); !ok {
		t.Fatalf("expected companion transform attached first, got %T", components[0])
	}

	// A second sprite must not add a second transform.
	if err := e.Attach(&Sprite{Texture: "dirt"}); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if got := len(e.ComponentsOf(reflect.TypeOf(&Transform{}))); got != 1 {
		t.Fatalf("expected a single transform, got %d", got)
	}
}

func TestRemoveDetachesInstance(t *testing.T) {
	s := New("stage")
	e := s.CreateEntity("prop", nil)
	c := &Collider{}
	if err := e.Attach(c); err != nil {
		t.Fatalf("attach: %v", err)
	}

	if !e.Remove(c) {
		t.Fatalf("expected removal of attached component to succeed")
	}
	if e.Remove(c) {
		t.Fatalf("expected removing twice to report false")
	}
	if got := len(e.Components()); got != 0 {
		t.Fatalf("expected no components, got %d", got)
	}
}

func TestDestroyDetachesSubtree(t *testing.T) {
	s := New("stage")
	group := s.CreateEntity("group", nil)
	child := s.CreateEntity("child", group)

	group.Destroy()

	if group.Scene() != nil || child.Scene() != nil {
		t.Fatalf("expected destroyed subtree to be detached")
	}
	if _, ok := s.EntityByID(child.ID()); ok {
		t.Fatalf("expected destroyed child removed from the index")
	}
	if got := len(s.Root().Children()); got != 0 {
		t.Fatalf("expected root to have no children, got %d", got)
	}
	if err := child.Attach(&Collider{}); !errors.Is(err, ErrDetached) {
		t.Fatalf("expected ErrDetached attaching to destroyed entity, got %v", err)
	}
}

func TestRootCannotBeDestroyed(t *testing.T) {
	s := New("stage")
	s.Root().Destroy()
	if s.Root().Scene() != s {
		t.Fatalf("expected root to survive destroy")
	}
}

func TestSetParentMovesEntity(t *testing.T) {
	s := New("stage")
	a := s.CreateEntity("a", nil)
	b := s.CreateEntity("b", nil)
	child := s.CreateEntity("child", a)

	if err := child.SetParent(b); err != nil {
		t.Fatalf("set parent: %v", err)
	}
	if got := len(a.Children()); got != 0 {
		t.Fatalf("expected old parent emptied, got %d children", got)
	}
	if child.Parent() != b {
		t.Fatalf("expected child under new parent")
	}
	if err := child.SetParent(child); err == nil {
		t.Fatalf("expected self-parenting to fail")
	}
}

func TestNewComponentOfRejectsNonComponents(t *testing.T) {
	if _, err := NewComponentOf(reflect.TypeOf(42)); err == nil {
		t.Fatalf("expected non-pointer type to be rejected")
	}
	c, err := NewComponentOf(reflect.TypeOf(&Collider{}))
	if err != nil {
		t.Fatalf("construct component: %v", err)
	}
	if _, ok := c.(*Collider); !ok {
		t.Fatalf("expected a fresh collider, got %T", c)
	}
}
