package scene

import (
	"fmt"
	"os"
	"reflect"

	"gopkg.in/yaml.v3"

	"atelier/editor/internal/members"
)

// Document is the on-disk description of a scene. Component member values
// are matched to the component's editable members by name.
type Document struct {
	Name     string           `yaml:"name" json:"name"`
	Entities []EntityDocument `yaml:"entities,omitempty" json:"entities,omitempty"`
}

// EntityDocument describes one entity and its subtree.
type EntityDocument struct {
	Name       string              `yaml:"name" json:"name"`
	Tag        string              `yaml:"tag,omitempty" json:"tag,omitempty"`
	Disabled   bool                `yaml:"disabled,omitempty" json:"disabled,omitempty"`
	Components []ComponentDocument `yaml:"components,omitempty" json:"components,omitempty"`
	Children   []EntityDocument    `yaml:"children,omitempty" json:"children,omitempty"`
}

// ComponentDocument names a registered component type and the member values
// to apply after construction.
type ComponentDocument struct {
	Type   string         `yaml:"type" json:"type"`
	Values map[string]any `yaml:"values,omitempty" json:"values,omitempty"`
}

// LoadDocument reads and decodes a YAML scene document.
func LoadDocument(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("scene: read document: %w", err)
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("scene: decode document: %w", err)
	}
	return doc, nil
}

// Build instantiates a scene from a document, resolving component types
// through the registry.
func Build(doc Document, registry *Registry) (*Scene, error) {
	name := doc.Name
	if name == "" {
		name = "scene"
	}
	s := New(name)
	for _, entityDoc := range doc.Entities {
		if err := buildEntity(s, s.Root(), entityDoc, registry); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func buildEntity(s *Scene, parent *Entity, doc EntityDocument, registry *Registry) error {
	e := s.CreateEntity(doc.Name, parent)
	e.Tag = doc.Tag
	e.Enabled = !doc.Disabled
	for _, compDoc := range doc.Components {
		comp, err := registry.New(compDoc.Type)
		if err != nil {
			return fmt.Errorf("scene: entity %q: %w", doc.Name, err)
		}
		if err := e.Attach(comp); err != nil {
			return fmt.Errorf("scene: entity %q: %w", doc.Name, err)
		}
		if err := applyValues(comp, compDoc.Values); err != nil {
			return fmt.Errorf("scene: entity %q component %q: %w", doc.Name, compDoc.Type, err)
		}
	}
	for _, childDoc := range doc.Children {
		if err := buildEntity(s, e, childDoc, registry); err != nil {
			return err
		}
	}
	return nil
}

func applyValues(comp Component, values map[string]any) error {
	for name, raw := range values {
		descriptor, err := members.ByName(comp, name)
		if err != nil {
			return err
		}
		value, err := CoerceValue(raw, descriptor.Type())
		if err != nil {
			return fmt.Errorf("member %q: %w", name, err)
		}
		if err := descriptor.Set(comp, value); err != nil {
			return err
		}
	}
	return nil
}

// CoerceValue adapts a decoded document or command value to a member's
// static type. Decoders hand back untyped maps, slices, and ints where the
// member may want typed collections or floats.
func CoerceValue(raw any, t reflect.Type) (any, error) {
	if raw == nil {
		return nil, nil
	}
	rv := reflect.ValueOf(raw)
	if rv.Type().AssignableTo(t) {
		return raw, nil
	}
	if rv.Type().ConvertibleTo(t) && rv.Kind() != reflect.Slice && rv.Kind() != reflect.Map && rv.Kind() != reflect.String {
		return rv.Convert(t).Interface(), nil
	}
	if rv.Kind() == reflect.String && t.Kind() == reflect.String {
		return rv.Convert(t).Interface(), nil
	}
	switch t.Kind() {
	case reflect.Map:
		if rv.Kind() != reflect.Map {
			return nil, fmt.Errorf("expected a mapping, got %T", raw)
		}
		out := reflect.MakeMapWithSize(t, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			key, err := CoerceValue(iter.Key().Interface(), t.Key())
			if err != nil {
				return nil, err
			}
			elem, err := CoerceValue(iter.Value().Interface(), t.Elem())
			if err != nil {
				return nil, err
			}
			out.SetMapIndex(reflect.ValueOf(key), reflect.ValueOf(elem))
		}
		return out.Interface(), nil
	case reflect.Slice:
		if rv.Kind() != reflect.Slice {
			return nil, fmt.Errorf("expected a sequence, got %T", raw)
		}
		out := reflect.MakeSlice(t, rv.Len(), rv.Len())
		for i := 0; i < rv.Len(); i++ {
			elem, err := CoerceValue(rv.Index(i).Interface(), t.Elem())
			if err != nil {
				return nil, err
			}
			out.Index(i).Set(reflect.ValueOf(elem))
		}
		return out.Interface(), nil
	default:
		return nil, fmt.Errorf("cannot use %T as %s", raw, t)
	}
}
