// Package net exposes the editing runtime to clients over HTTP and
// websockets. The bridge owns the only goroutine-facing entry points to the
// scene, so every mutation and every replay runs under its lock.
package net

import (
	"fmt"
	"reflect"
	"sync"

	"atelier/editor/internal/members"
	"atelier/editor/internal/scene"
	"atelier/editor/internal/undo"
	"atelier/editor/logging"
)

// Bridge serializes edit commands onto the scene and fans state updates out
// to subscribed editor clients.
type Bridge struct {
	mu          sync.Mutex
	scene       *scene.Scene
	registry    *scene.Registry
	backlog     *undo.Backlog
	subscribers map[uint64]*subscriber
	nextID      uint64
	publisher   logging.Publisher
}

// NewBridge wires a bridge over the given scene, registry, and backlog.
func NewBridge(s *scene.Scene, registry *scene.Registry, backlog *undo.Backlog, publisher logging.Publisher) *Bridge {
	if publisher == nil {
		publisher = logging.NopPublisher()
	}
	return &Bridge{
		scene:       s,
		registry:    registry,
		backlog:     backlog,
		subscribers: make(map[uint64]*subscriber),
		publisher:   publisher,
	}
}

// commandMessage is the JSON envelope editor clients send.
type commandMessage struct {
	Type      string `json:"type"`
	Entity    string `json:"entity,omitempty"`
	Parent    string `json:"parent,omitempty"`
	Name      string `json:"name,omitempty"`
	Component string `json:"component,omitempty"`
	Index     int    `json:"index,omitempty"`
	Member    string `json:"member,omitempty"`
	Value     any    `json:"value,omitempty"`
	Check     *bool  `json:"check,omitempty"`
}

// EntityState mirrors one entity for clients.
type EntityState struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Tag        string           `json:"tag,omitempty"`
	Enabled    bool             `json:"enabled"`
	Components []ComponentState `json:"components,omitempty"`
	Children   []EntityState    `json:"children,omitempty"`
}

// ComponentState mirrors one attached component for clients.
type ComponentState struct {
	Type   string         `json:"type"`
	Values map[string]any `json:"values,omitempty"`
}

// SceneState is the full scene payload broadcast after every command.
type SceneState struct {
	Name    string      `json:"name"`
	Root    EntityState `json:"root"`
	Pending int         `json:"pendingUndo"`
}

// Apply runs one edit command and returns the resulting scene state.
func (b *Bridge) Apply(cmd commandMessage) (SceneState, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.applyLocked(cmd); err != nil {
		return SceneState{}, err
	}
	return b.stateLocked(), nil
}

// State returns the current scene state.
func (b *Bridge) State() SceneState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stateLocked()
}

func (b *Bridge) applyLocked(cmd commandMessage) error {
	switch cmd.Type {
	case "set":
		return b.setMemberLocked(cmd)
	case "create-entity":
		return b.createEntityLocked(cmd)
	case "attach":
		return b.attachLocked(cmd)
	case "destroy-component":
		return b.destroyComponentLocked(cmd)
	case "destroy-entity":
		return b.destroyEntityLocked(cmd)
	case "undo":
		check := true
		if cmd.Check != nil {
			check = *cmd.Check
		}
		return b.backlog.ReplayNext(check)
	default:
		return fmt.Errorf("net: unknown command %q", cmd.Type)
	}
}

func (b *Bridge) setMemberLocked(cmd commandMessage) (err error) {
	entity, err := b.entityLocked(cmd.Entity)
	if err != nil {
		return err
	}

	var target any = entity
	if cmd.Component != "" {
		component, err := b.componentLocked(entity, cmd.Component, cmd.Index)
		if err != nil {
			return err
		}
		target = component
	}

	recorder, err := b.backlog.Record(target)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := recorder.Close(); err == nil {
			err = cerr
		}
	}()

	descriptor, err := members.ByName(target, cmd.Member)
	if err != nil {
		return err
	}
	value, err := scene.CoerceValue(cmd.Value, descriptor.Type())
	if err != nil {
		return fmt.Errorf("net: member %q: %w", cmd.Member, err)
	}
	return descriptor.Set(target, value)
}

func (b *Bridge) createEntityLocked(cmd commandMessage) error {
	if cmd.Name == "" {
		return fmt.Errorf("net: create-entity needs a name")
	}
	var parent *scene.Entity
	if cmd.Parent != "" {
		p, err := b.entityLocked(cmd.Parent)
		if err != nil {
			return err
		}
		parent = p
	}
	b.scene.CreateEntity(cmd.Name, parent)
	return nil
}

func (b *Bridge) attachLocked(cmd commandMessage) error {
	entity, err := b.entityLocked(cmd.Entity)
	if err != nil {
		return err
	}
	component, err := b.registry.New(cmd.Component)
	if err != nil {
		return err
	}
	return entity.Attach(component)
}

func (b *Bridge) destroyComponentLocked(cmd commandMessage) error {
	entity, err := b.entityLocked(cmd.Entity)
	if err != nil {
		return err
	}
	component, err := b.componentLocked(entity, cmd.Component, cmd.Index)
	if err != nil {
		return err
	}
	recorder, err := b.backlog.RecordComponent(entity, component)
	if err != nil {
		return err
	}
	recorder.Destroy()
	return recorder.Close()
}

func (b *Bridge) destroyEntityLocked(cmd commandMessage) error {
	entity, err := b.entityLocked(cmd.Entity)
	if err != nil {
		return err
	}
	recorder, err := b.backlog.RecordEntity(entity)
	if err != nil {
		return err
	}
	if err := recorder.Destroy(); err != nil {
		return err
	}
	return recorder.Close()
}

func (b *Bridge) entityLocked(id string) (*scene.Entity, error) {
	if id == "" {
		return nil, fmt.Errorf("net: command needs an entity id")
	}
	entity, ok := b.scene.EntityByID(id)
	if !ok {
		return nil, fmt.Errorf("net: unknown entity %q", id)
	}
	return entity, nil
}

func (b *Bridge) componentLocked(entity *scene.Entity, typeName string, index int) (scene.Component, error) {
	prototype, err := b.registry.New(typeName)
	if err != nil {
		return nil, err
	}
	matches := entity.ComponentsOf(reflect.TypeOf(prototype))
	if index < 0 || index >= len(matches) {
		return nil, fmt.Errorf("net: entity %q has no %q component at index %d", entity.Name, typeName, index)
	}
	return matches[index], nil
}

func (b *Bridge) stateLocked() SceneState {
	return SceneState{
		Name:    b.scene.Root().Name,
		Root:    b.entityStateLocked(b.scene.Root()),
		Pending: b.backlog.Len(),
	}
}

func (b *Bridge) entityStateLocked(entity *scene.Entity) EntityState {
	state := EntityState{
		ID:      entity.ID(),
		Name:    entity.Name,
		Tag:     entity.Tag,
		Enabled: entity.Enabled,
	}
	for _, component := range entity.Components() {
		compState := ComponentState{Values: make(map[string]any)}
		if name, ok := b.registry.NameFor(component); ok {
			compState.Type = name
		} else {
			compState.Type = fmt.Sprintf("%T", component)
		}
		if descriptors, err := members.Of(component); err == nil {
			for _, d := range descriptors {
				if value, err := d.Get(component); err == nil {
					compState.Values[d.Name] = value
				}
			}
		}
		state.Components = append(state.Components, compState)
	}
	for _, child := range entity.Children() {
		state.Children = append(state.Children, b.entityStateLocked(child))
	}
	return state
}
