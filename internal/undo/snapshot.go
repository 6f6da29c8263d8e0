package undo

import (
	"fmt"
	"reflect"

	"atelier/editor/internal/members"
	"atelier/editor/internal/scene"
)

// snapshotKind tags the Snapshot union. The variant set is closed; replay
// dispatches on it exhaustively.
type snapshotKind uint8

const (
	kindFieldChange snapshotKind = iota
	kindComponentRecreate
	kindEntityRecreate
	kindValueSet
)

func (k snapshotKind) String() string {
	switch k {
	case kindFieldChange:
		return "field_change"
	case kindComponentRecreate:
		return "component_recreate"
	case kindEntityRecreate:
		return "entity_recreate"
	case kindValueSet:
		return "value_set"
	default:
		return "unknown"
	}
}

// fieldChange records one member's captured value and, for live diffs, the
// value observed at close time. Recreate entries have nothing to compare
// against, so compare stays false and replay is unconditional.
type fieldChange struct {
	member  members.Descriptor
	before  any
	after   any
	compare bool
}

// Snapshot is a self-contained reversal action. It is created at recorder
// close, queued once, replayed once, and never mutated.
type Snapshot struct {
	kind snapshotKind

	// field-change: the live object whose members are reverted.
	target  any
	changes []fieldChange

	// component-recreate: where to re-attach and what to build.
	owner    *scene.Entity
	compType reflect.Type

	// entity-recreate: identity plus the ordered per-component snapshots.
	scn        *scene.Scene
	entityName string
	parent     *scene.Entity
	compSnaps  []*Snapshot

	// value-set: the setter closure and the value to restore.
	set   func(any)
	value any
}

// Kind reports the snapshot's variant name, for logging.
func (s *Snapshot) Kind() string {
	return s.kind.String()
}

// Undo replays the reversal. With checkIfValueChanged set, a member is only
// reverted while its current value still equals the value recorded at close
// time, so an undo never clobbers a later edit by someone else. Replays onto
// freshly recreated objects are always unconditional.
func (s *Snapshot) Undo(checkIfValueChanged bool) error {
	switch s.kind {
	case kindFieldChange:
		return applyChanges(s.target, s.changes, checkIfValueChanged)
	case kindComponentRecreate:
		return s.undoComponentRemoval()
	case kindEntityRecreate:
		return s.undoEntityRemoval()
	case kindValueSet:
		s.set(s.value)
		return nil
	default:
		return fmt.Errorf("undo: unknown snapshot kind %d", s.kind)
	}
}

func (s *Snapshot) undoComponentRemoval() error {
	comp, err := scene.NewComponentOf(s.compType)
	if err != nil {
		return err
	}
	if err := s.owner.Attach(comp); err != nil {
		return fmt.Errorf("undo: re-attach %s: %w", s.compType, err)
	}
	return applyChanges(comp, s.changes, false)
}

// undoEntityRemoval rebuilds a destroyed entity and replays each recorded
// component snapshot in the original attachment order. Attaching one
// component may auto-attach companions, so for every recorded entry the
// replay either creates a fresh instance (while fewer instances of that type
// exist than were recorded) or reuses the last existing one. This is a
// best-effort match, not an identity-preserving one: interleaved companion
// attachments can shift which instance receives which values.
func (s *Snapshot) undoEntityRemoval() error {
	entity := s.scn.CreateEntity(s.entityName, s.parent)

	expected := make(map[reflect.Type]int, len(s.compSnaps))
	for _, snap := range s.compSnaps {
		expected[snap.compType]++
	}

	for _, snap := range s.compSnaps {
		existing := entity.ComponentsOf(snap.compType)
		var target scene.Component
		if len(existing) < expected[snap.compType] {
			comp, err := scene.NewComponentOf(snap.compType)
			if err != nil {
				return err
			}
			if err := entity.Attach(comp); err != nil {
				return fmt.Errorf("undo: re-attach %s: %w", snap.compType, err)
			}
			target = comp
		} else {
			target = existing[len(existing)-1]
		}
		if err := applyChanges(target, snap.changes, false); err != nil {
			return err
		}
	}

	return applyChanges(entity, s.changes, false)
}

func applyChanges(target any, changes []fieldChange, checkIfValueChanged bool) error {
	for _, change := range changes {
		if checkIfValueChanged && change.compare {
			current, err := change.member.Get(target)
			if err != nil {
				return err
			}
			if !members.Equal(current, change.after) {
				continue
			}
		}
		if err := change.member.Set(target, change.before); err != nil {
			return err
		}
	}
	return nil
}
