package undo

import (
	"reflect"
	"testing"

	"atelier/editor/internal/scene"
)

type placement struct {
	X float64
	Y float64
}

type decal struct {
	Texture string
	Layer   int
}

func (*decal) RequiredComponents() []scene.Component {
	return []scene.Component{&placement{}}
}

type marker struct {
	Note string
}

func TestComponentDestroyRecreate(t *testing.T) {
	backlog := NewBacklog()
	stage := scene.New("test")
	entity := stage.CreateEntity("prop", nil)
	component := &marker{Note: "keep me"}
	if err := entity.Attach(component); err != nil {
		t.Fatalf("attach: %v", err)
	}

	recorder, err := backlog.RecordComponent(entity, component)
	if err != nil {
		t.Fatalf("open component recorder: %v", err)
	}
	recorder.Destroy()
	if err := recorder.Close(); err != nil {
		t.Fatalf("close component recorder: %v", err)
	}

	if got := len(entity.ComponentsOf(reflect.TypeOf(&marker{}))); got != 0 {
		t.Fatalf("expected component removed after destroy, found %d", got)
	}

	if err := backlog.ReplayNext(true); err != nil {
		t.Fatalf("replay: %v", err)
	}
	restored := entity.ComponentsOf(reflect.TypeOf(&marker{}))
	if len(restored) != 1 {
		t.Fatalf("expected one recreated component, got %d", len(restored))
	}
	if got := restored[0].(*marker).Note; got != "keep me" {
		t.Fatalf("expected note restored to %q, got %q", "keep me", got)
	}
}

func TestComponentRecorderWithoutDestroyDiffsNormally(t *testing.T) {
	backlog := NewBacklog()
	stage := scene.New("test")
	entity := stage.CreateEntity("prop", nil)
	component := &marker{Note: "original"}
	if err := entity.Attach(component); err != nil {
		t.Fatalf("attach: %v", err)
	}

	recorder, err := backlog.RecordComponent(entity, component)
	if err != nil {
		t.Fatalf("open component recorder: %v", err)
	}
	component.Note = "edited"
	if err := recorder.Close(); err != nil {
		t.Fatalf("close component recorder: %v", err)
	}

	if err := backlog.ReplayNext(true); err != nil {
		t.Fatalf("replay: %v", err)
	}
	if component.Note != "original" {
		t.Fatalf("expected diff path restore, got %q", component.Note)
	}
}

func TestEntityDestroyRecreate(t *testing.T) {
	backlog := NewBacklog()
	stage := scene.New("test")
	parent := stage.CreateEntity("group", nil)
	entity := stage.CreateEntity("prop", parent)
	entity.Tag = "scenery"
	if err := entity.Attach(&marker{Note: "left"}); err != nil {
		t.Fatalf("attach: %v", err)
	}

	recorder, err := backlog.RecordEntity(entity)
	if err != nil {
		t.Fatalf("open entity recorder: %v", err)
	}
	if err := recorder.Destroy(); err != nil {
		t.Fatalf("destroy entity: %v", err)
	}
	if err := recorder.Close(); err != nil {
		t.Fatalf("close entity recorder: %v", err)
	}

	if entity.Scene() != nil {
		t.Fatalf("expected entity detached after destroy")
	}
	if got := len(parent.Children()); got != 0 {
		t.Fatalf("expected parent to have no children after destroy, got %d", got)
	}

	if err := backlog.ReplayNext(true); err != nil {
		t.Fatalf("replay: %v", err)
	}
	children := parent.Children()
	if len(children) != 1 {
		t.Fatalf("expected recreated entity under original parent, got %d children", len(children))
	}
	recreated := children[0]
	if recreated.Name != "prop" || recreated.Tag != "scenery" || !recreated.Enabled {
		t.Fatalf("expected identity restored, got name=%q tag=%q enabled=%v", recreated.Name, recreated.Tag, recreated.Enabled)
	}
	markers := recreated.ComponentsOf(reflect.TypeOf(&marker{}))
	if len(markers) != 1 {
		t.Fatalf("expected one recreated component, got %d", len(markers))
	}
	if got := markers[0].(*marker).Note; got != "left" {
		t.Fatalf("expected component state restored, got note=%q", got)
	}
}

func TestEntityRecreateDisambiguatesSameTypedComponents(t *testing.T) {
	backlog := NewBacklog()
	stage := scene.New("test")
	entity := stage.CreateEntity("prop", nil)
	if err := entity.Attach(&marker{Note: "V1"}); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if err := entity.Attach(&marker{Note: "V2"}); err != nil {
		t.Fatalf("attach: %v", err)
	}

	recorder, err := backlog.RecordEntity(entity)
	if err != nil {
		t.Fatalf("open entity recorder: %v", err)
	}
	if err := recorder.Destroy(); err != nil {
		t.Fatalf("destroy entity: %v", err)
	}
	if err := recorder.Close(); err != nil {
		t.Fatalf("close entity recorder: %v", err)
	}

	if err := backlog.ReplayNext(true); err != nil {
		t.Fatalf("replay: %v", err)
	}
	children := stage.Root().Children()
	if len(children) != 1 {
		t.Fatalf("expected one recreated entity, got %d", len(children))
	}
	markers := children[0].ComponentsOf(reflect.TypeOf(&marker{}))
	if len(markers) != 2 {
		t.Fatalf("expected two distinct components of the same type, got %d", len(markers))
	}
	first := markers[0].(*marker).Note
	second := markers[1].(*marker).Note
	if first != "V1" || second != "V2" {
		t.Fatalf("expected values V1,V2 in attachment order, got %q,%q", first, second)
	}
}

func TestEntityRecreateReusesCompanionAttachedAutomatically(t *testing.T) {
	backlog := NewBacklog()
	stage := scene.New("test")
	entity := stage.CreateEntity("prop", nil)

	// Attaching the decal auto-attaches a placement companion first.
	sticker := &decal{Texture: "moss", Layer: 3}
	if err := entity.Attach(sticker); err != nil {
		t.Fatalf("attach: %v", err)
	}
	auto := entity.ComponentsOf(reflect.TypeOf(&placement{}))
	if len(auto) != 1 {
		t.Fatalf("expected companion attached automatically, got %d", len(auto))
	}
	spot := auto[0].(*placement)
	spot.X, spot.Y = 10, 20

	// Rearrange so the recorded order replays the decal before the
	// placement, forcing the replay to reuse the companion the decal
	// re-attachment creates.
	entity.Remove(spot)
	if err := entity.Attach(spot); err != nil {
		t.Fatalf("re-attach placement: %v", err)
	}

	recorder, err := backlog.RecordEntity(entity)
	if err != nil {
		t.Fatalf("open entity recorder: %v", err)
	}
	if err := recorder.Destroy(); err != nil {
		t.Fatalf("destroy entity: %v", err)
	}
	if err := recorder.Close(); err != nil {
		t.Fatalf("close entity recorder: %v", err)
	}

	if err := backlog.ReplayNext(true); err != nil {
		t.Fatalf("replay: %v", err)
	}
	children := stage.Root().Children()
	if len(children) != 1 {
		t.Fatalf("expected one recreated entity, got %d", len(children))
	}
	recreated := children[0]

	placements := recreated.ComponentsOf(reflect.TypeOf(&placement{}))
	if len(placements) != 1 {
		t.Fatalf("expected the auto-attached companion to be reused, got %d placements", len(placements))
	}
	got := placements[0].(*placement)
	if got.X != 10 || got.Y != 20 {
		t.Fatalf("expected companion values restored, got (%v,%v)", got.X, got.Y)
	}
	decals := recreated.ComponentsOf(reflect.TypeOf(&decal{}))
	if len(decals) != 1 {
		t.Fatalf("expected one decal, got %d", len(decals))
	}
	if d := decals[0].(*decal); d.Texture != "moss" || d.Layer != 3 {
		t.Fatalf("expected decal restored, got texture=%q layer=%d", d.Texture, d.Layer)
	}
}

func TestEntityRecorderWithoutDestroyDiffsNormally(t *testing.T) {
	backlog := NewBacklog()
	stage := scene.New("test")
	entity := stage.CreateEntity("prop", nil)

	recorder, err := backlog.RecordEntity(entity)
	if err != nil {
		t.Fatalf("open entity recorder: %v", err)
	}
	entity.Name = "renamed"
	if err := recorder.Close(); err != nil {
		t.Fatalf("close entity recorder: %v", err)
	}

	if err := backlog.ReplayNext(true); err != nil {
		t.Fatalf("replay: %v", err)
	}
	if entity.Name != "prop" {
		t.Fatalf("expected name restored, got %q", entity.Name)
	}
	if entity.Scene() == nil {
		t.Fatalf("expected entity to remain attached")
	}
}
