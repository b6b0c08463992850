package autoconf

import (
	"errors"
	"fmt"
	"io"
	"reflect"
)

// Result is the outcome of one resolution: the registered components in
// registration order plus the condition report. The caller owns the instances.
type Result struct {
	ID         string
	Report     Report
	snapshot   Snapshot
	components []Component
	byName     map[string]int
}

func newResult(id string, snapshot Snapshot) *Result {
	return &Result{
		ID:       id,
		Report:   Report{EvaluationID: id},
		snapshot: snapshot,
		byName:   map[string]int{},
	}
}

func (r *Result) register(c Component) {
	r.byName[c.Name] = len(r.components)
	r.components = append(r.components, c)
}

// Lookup implements Components.
func (r *Result) Lookup(name string) (Component, bool) {
	if r == nil {
		return Component{}, false
	}
	idx, ok := r.byName[name]
	if !ok {
		return Component{}, false
	}
	return r.components[idx], true
}

// OfType implements Components.
func (r *Result) OfType(t reflect.Type) []Component {
	if r == nil {
		return nil
	}
	var out []Component
	for _, c := range r.components {
		if c.Satisfies(t) {
			out = append(out, c)
		}
	}
	return out
}

// Names implements Components, in registration order.
func (r *Result) Names() []string {
	if r == nil {
		return nil
	}
	return componentNames(r.components)
}

// Properties implements Components.
func (r *Result) Properties() Snapshot {
	if r == nil {
		return Snapshot{}
	}
	return r.snapshot
}

// Components returns a copy of the registered components.
func (r *Result) Components() []Component {
	if r == nil {
		return nil
	}
	out := make([]Component, len(r.components))
	copy(out, r.components)
	return out
}

// Len returns the number of registered components.
func (r *Result) Len() int {
	if r == nil {
		return 0
	}
	return len(r.components)
}

// Close closes auto-registered instances implementing io.Closer in reverse
// registration order. User components are left to their owner.
func (r *Result) Close() error {
	if r == nil {
		return nil
	}
	return closeComponents(r.components)
}

func closeComponents(components []Component) error {
	var errs []error
	for i := len(components) - 1; i >= 0; i-- {
		c := components[i]
		if c.Origin != OriginAuto {
			continue
		}
		closer, ok := c.Instance.(io.Closer)
		if !ok {
			continue
		}
		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %q: %w", c.Name, err))
		}
	}
	return errors.Join(errs...)
}

// view is the Components handed to conditions and factories while a
// resolution is in progress.
type view struct {
	result *Result
}

func (v view) Lookup(name string) (Component, bool) { return v.result.Lookup(name) }
func (v view) OfType(t reflect.Type) []Component    { return v.result.OfType(t) }
func (v view) Names() []string                      { return v.result.Names() }
func (v view) Properties() Snapshot                 { return v.result.Properties() }
