package undo

import (
	"fmt"
	"reflect"

	"atelier/editor/internal/members"
	"atelier/editor/internal/scene"
)

// memberValue pairs a shared member descriptor with the value captured when
// the recorder opened.
type memberValue struct {
	member members.Descriptor
	value  any
}

// Recorder brackets an editing session around one reflectable object. Its
// member store is captured at construction; Close diffs it against the
// object's current values and, when anything differs, pushes one
// field-change snapshot. Close runs its logic exactly once, so it is safe
// (and intended) to defer.
type Recorder struct {
	backlog *Backlog
	target  any
	store   []memberValue
	closed  bool
}

// Record opens a recorder for any object with introspectable members.
// Introspection failures propagate unmodified.
func (b *Backlog) Record(target any) (*Recorder, error) {
	r, err := newRecorder(b, target)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func newRecorder(b *Backlog, target any) (*Recorder, error) {
	descriptors, err := members.Of(target)
	if err != nil {
		return nil, err
	}
	store := make([]memberValue, 0, len(descriptors))
	for _, d := range descriptors {
		value, err := d.Get(target)
		if err != nil {
			return nil, err
		}
		store = append(store, memberValue{member: d, value: members.Clone(value)})
	}
	return &Recorder{backlog: b, target: target, store: store}, nil
}

// Close finalizes the session. When no member changed, nothing is enqueued.
func (r *Recorder) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	changes, err := r.diff()
	if err != nil {
		return err
	}
	if len(changes) == 0 {
		return nil
	}
	r.backlog.push(&Snapshot{kind: kindFieldChange, target: r.target, changes: changes})
	return nil
}

func (r *Recorder) diff() ([]fieldChange, error) {
	var changes []fieldChange
	for _, mv := range r.store {
		current, err := mv.member.Get(r.target)
		if err != nil {
			return nil, err
		}
		if members.Equal(current, mv.value) {
			continue
		}
		changes = append(changes, fieldChange{
			member:  mv.member,
			before:  mv.value,
			after:   members.Clone(current),
			compare: true,
		})
	}
	return changes, nil
}

// captureAll packages every stored member for unconditional replay. Used by
// the destroy paths, where the object no longer exists to diff against.
func (r *Recorder) captureAll() []fieldChange {
	changes := make([]fieldChange, 0, len(r.store))
	for _, mv := range r.store {
		changes = append(changes, fieldChange{member: mv.member, before: mv.value})
	}
	return changes
}

// ComponentRecorder brackets a session around a component attached to an
// entity, adding a destroy path that packages the component for recreation
// instead of diffing.
type ComponentRecorder struct {
	Recorder
	owner     *scene.Entity
	component scene.Component
	destroyed bool
}

// RecordComponent opens a component recorder. The owner is remembered so a
// later replay knows where to re-attach.
func (b *Backlog) RecordComponent(owner *scene.Entity, component scene.Component) (*ComponentRecorder, error) {
	if owner == nil {
		return nil, fmt.Errorf("undo: component recorder needs an owning entity")
	}
	r, err := newRecorder(b, component)
	if err != nil {
		return nil, err
	}
	return &ComponentRecorder{Recorder: *r, owner: owner, component: component}, nil
}

// Destroy detaches the tracked component from its owner and commits this
// session to the recreate path. Destroying twice is a no-op.
func (cr *ComponentRecorder) Destroy() {
	if cr.destroyed {
		return
	}
	cr.owner.Remove(cr.component)
	cr.destroyed = true
}

// Close finalizes the session: a plain diff when the component still lives,
// or a component-recreate snapshot carrying the full capture otherwise.
func (cr *ComponentRecorder) Close() error {
	if cr.closed {
		return nil
	}
	if !cr.destroyed {
		return cr.Recorder.Close()
	}
	cr.closed = true
	cr.backlog.push(&Snapshot{
		kind:     kindComponentRecreate,
		owner:    cr.owner,
		compType: reflect.TypeOf(cr.component),
		changes:  cr.captureAll(),
	})
	return nil
}

// EntityRecorder brackets a session around a whole entity. Its destroy path
// captures one component-recreate snapshot per attached component before
// removing the entity itself.
type EntityRecorder struct {
	Recorder
	entity    *scene.Entity
	scn       *scene.Scene
	name      string
	parent    *scene.Entity
	destroyed bool
	compSnaps []*Snapshot
}

// RecordEntity opens an entity recorder, remembering the entity's name and
// hierarchy position for a potential recreation.
func (b *Backlog) RecordEntity(entity *scene.Entity) (*EntityRecorder, error) {
	if entity == nil {
		return nil, fmt.Errorf("undo: entity recorder needs an entity")
	}
	r, err := newRecorder(b, entity)
	if err != nil {
		return nil, err
	}
	return &EntityRecorder{
		Recorder: *r,
		entity:   entity,
		scn:      entity.Scene(),
		name:     entity.Name,
		parent:   entity.Parent(),
	}, nil
}

// Destroy captures every attached component through its own component
// recorder (draining each resulting snapshot into this recorder's pending
// list, preserving attachment order), then removes the entity from the
// scene. Destroying twice is a no-op.
func (er *EntityRecorder) Destroy() error {
	if er.destroyed {
		return nil
	}
	for _, component := range er.entity.Components() {
		cr, err := er.backlog.RecordComponent(er.entity, component)
		if err != nil {
			return err
		}
		cr.Destroy()
		if err := cr.Close(); err != nil {
			return err
		}
		if snap := er.backlog.takeNewest(); snap != nil {
			er.compSnaps = append(er.compSnaps, snap)
		}
	}
	er.entity.Destroy()
	er.destroyed = true
	return nil
}

// Close finalizes the session: a plain diff when the entity still lives, or
// an entity-recreate snapshot bundling identity, the ordered component
// snapshots, and the entity's own member capture otherwise.
func (er *EntityRecorder) Close() error {
	if er.closed {
		return nil
	}
	if !er.destroyed {
		return er.Recorder.Close()
	}
	er.closed = true
	er.backlog.push(&Snapshot{
		kind:       kindEntityRecreate,
		scn:        er.scn,
		entityName: er.name,
		parent:     er.parent,
		compSnaps:  er.compSnaps,
		changes:    er.captureAll(),
	})
	return nil
}
