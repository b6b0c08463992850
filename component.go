package autoconf

import (
	"fmt"
	"reflect"
	"sort"
)

// Origin tells whether a component was supplied by the caller or produced by
// an auto-configuration descriptor.
type Origin string

const (
	OriginUser Origin = "user"
	OriginAuto Origin = "auto"
)

// Component is a named, typed instance held by a Result.
type Component struct {
	Name          string
	Type          reflect.Type
	Instance      any
	Origin        Origin
	Configuration string
}

// User declares a caller-supplied component. T is the type the component is
// registered under; user components shadow every descriptor whose produced
// type T satisfies.
func User[T any](name string, instance T) Component {
	return Component{
		Name:     name,
		Type:     reflect.TypeFor[T](),
		Instance: instance,
		Origin:   OriginUser,
	}
}

// Satisfies reports whether the component can be injected where t is expected,
// judged by its declared type or the dynamic type of the instance.
func (c Component) Satisfies(t reflect.Type) bool {
	if t == nil {
		return false
	}
	if c.Type != nil && c.Type.AssignableTo(t) {
		return true
	}
	if c.Instance == nil {
		return false
	}
	return reflect.TypeOf(c.Instance).AssignableTo(t)
}

// Components is a read-only view of registered components and the snapshot
// they were resolved against. Factories receive it so they can bind their
// properties and depend on components registered before them.
type Components interface {
	Lookup(name string) (Component, bool)
	OfType(t reflect.Type) []Component
	Names() []string
	Properties() Snapshot
}

// Get returns the single component instance assignable to T.
func Get[T any](c Components) (T, error) {
	var zero T
	matches := c.OfType(reflect.TypeFor[T]())
	switch len(matches) {
	case 0:
		return zero, fmt.Errorf("%w: %s", ErrNotFound, reflect.TypeFor[T]())
	case 1:
		value, ok := matches[0].Instance.(T)
		if !ok {
			return zero, fmt.Errorf("%w: %s", ErrNotFound, reflect.TypeFor[T]())
		}
		return value, nil
	default:
		return zero, fmt.Errorf("%w: %s (%v)", ErrAmbiguous, reflect.TypeFor[T](), componentNames(matches))
	}
}

// MustGet is Get that panics when no single instance matches.
func MustGet[T any](c Components) T {
	value, err := Get[T](c)
	if err != nil {
		panic(err)
	}
	return value
}

// Named returns the component registered under name when it is assignable to T.
func Named[T any](c Components, name string) (T, bool) {
	var zero T
	component, ok := c.Lookup(name)
	if !ok {
		return zero, false
	}
	value, ok := component.Instance.(T)
	return value, ok
}

// All returns every instance assignable to T in registration order.
func All[T any](c Components) []T {
	matches := c.OfType(reflect.TypeFor[T]())
	out := make([]T, 0, len(matches))
	for _, component := range matches {
		if value, ok := component.Instance.(T); ok {
			out = append(out, value)
		}
	}
	return out
}

// NamesOf returns the names of components assignable to T, sorted.
func NamesOf[T any](c Components) []string {
	names := componentNames(c.OfType(reflect.TypeFor[T]()))
	sort.Strings(names)
	return names
}

// Has reports whether at least one component is assignable to T.
func Has[T any](c Components) bool {
	return len(c.OfType(reflect.TypeFor[T]())) > 0
}

// Count returns the number of components assignable to T.
func Count[T any](c Components) int {
	return len(c.OfType(reflect.TypeFor[T]()))
}

func componentNames(components []Component) []string {
	names := make([]string, 0, len(components))
	for _, component := range components {
		names = append(names, component.Name)
	}
	return names
}
