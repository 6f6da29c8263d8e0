// Package members exposes the introspection capability used by the editing
// runtime: for a pointer to a struct it enumerates the instance-level members
// that may be captured and rewritten by name.
//
// The member schema is declared on the type itself through struct tags.
// Exported fields participate by default; `undo:"-"` removes a field from
// the schema and `undo:"deprecated"` marks it as retired so tooling skips it
// while the field keeps compiling. Unexported fields are not settable and
// therefore never qualify.
package members

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
)

// ErrNotStruct reports that a target does not expose introspectable members.
var ErrNotStruct = errors.New("members: target is not a pointer to a struct")

const tagName = "undo"

// Descriptor identifies one introspectable member of a target type. It is
// shared, read-only data; recorders hold descriptors but never own them.
// A descriptor is bound to the struct type it was enumerated from and
// refuses targets of any other type.
type Descriptor struct {
	Name  string
	index int
	typ   reflect.Type
	owner reflect.Type
}

// Type reports the static type of the member's value.
func (d Descriptor) Type() reflect.Type {
	return d.typ
}

// Get reads the member's current value from target.
func (d Descriptor) Get(target any) (any, error) {
	v, err := structValue(target)
	if err != nil {
		return nil, err
	}
	if v.Type() != d.owner {
		return nil, fmt.Errorf("members: descriptor %s.%s applied to %s", d.owner, d.Name, v.Type())
	}
	return v.Field(d.index).Interface(), nil
}

// Set writes value into the member on target. Values convertible to the
// member type are converted, which keeps document-sourced numbers usable.
func (d Descriptor) Set(target any, value any) error {
	v, err := structValue(target)
	if err != nil {
		return err
	}
	if v.Type() != d.owner {
		return fmt.Errorf("members: descriptor %s.%s applied to %s", d.owner, d.Name, v.Type())
	}
	field := v.Field(d.index)
	if value == nil {
		field.Set(reflect.Zero(field.Type()))
		return nil
	}
	rv := reflect.ValueOf(value)
	switch {
	case rv.Type().AssignableTo(field.Type()):
		field.Set(rv)
	case rv.Type().ConvertibleTo(field.Type()):
		field.Set(rv.Convert(field.Type()))
	default:
		return fmt.Errorf("members: cannot assign %T to member %q (%s)", value, d.Name, field.Type())
	}
	return nil
}

var (
	schemaMu sync.RWMutex
	schemas  = make(map[reflect.Type][]Descriptor)
)

// Of returns the descriptors for target's type in declaration order. The
// slice is cached per type and must not be mutated by callers.
func Of(target any) ([]Descriptor, error) {
	v, err := structValue(target)
	if err != nil {
		return nil, err
	}
	t := v.Type()

	schemaMu.RLock()
	cached, ok := schemas[t]
	schemaMu.RUnlock()
	if ok {
		return cached, nil
	}

	descriptors := make([]Descriptor, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		switch field.Tag.Get(tagName) {
		case "-", "deprecated":
			continue
		}
		descriptors = append(descriptors, Descriptor{Name: field.Name, index: i, typ: field.Type, owner: t})
	}

	schemaMu.Lock()
	schemas[t] = descriptors
	schemaMu.Unlock()
	return descriptors, nil
}

// ByName resolves a single descriptor on target's type.
func ByName(target any, name string) (Descriptor, error) {
	descriptors, err := Of(target)
	if err != nil {
		return Descriptor{}, err
	}
	for _, d := range descriptors {
		if d.Name == name {
			return d, nil
		}
	}
	return Descriptor{}, fmt.Errorf("members: %T has no member %q", target, name)
}

// Equal compares two captured values using total value equality.
func Equal(a, b any) bool {
	return reflect.DeepEqual(a, b)
}

// Clone returns a copy of a captured value that does not alias mutable
// state reachable from the original. Slices and maps are copied
// recursively; everything else is returned as-is.
func Clone(value any) any {
	if value == nil {
		return nil
	}
	return cloneValue(reflect.ValueOf(value)).Interface()
}

func cloneValue(v reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Slice:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(cloneValue(v.Index(i)))
		}
		return out
	case reflect.Map:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), cloneValue(iter.Value()))
		}
		return out
	default:
		return v
	}
}

func structValue(target any) (reflect.Value, error) {
	if target == nil {
		return reflect.Value{}, ErrNotStruct
	}
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return reflect.Value{}, ErrNotStruct
	}
	return v.Elem(), nil
}
