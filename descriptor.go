package autoconf

import (
	"context"
	"errors"
	"fmt"
	"reflect"
)

// Factory builds a component instance. It may read components registered
// before it through c.
type Factory func(ctx context.Context, c Components) (any, error)

// Descriptor declares an auto-component: the name and type it produces, the
// conditions gating it and the factory that builds it. Descriptors are plain
// values and are never mutated by the resolver.
type Descriptor struct {
	Name          string
	Type          reflect.Type
	Configuration string
	Conditions    []Condition
	Factory       Factory
	Properties    []PropertyMetadata
}

// DescriptorOption configures a Descriptor built by Provide.
type DescriptorOption func(*Descriptor)

// When appends activation conditions; all of them must match.
func When(conditions ...Condition) DescriptorOption {
	return func(d *Descriptor) {
		for _, condition := range conditions {
			if condition != nil {
				d.Conditions = append(d.Conditions, condition)
			}
		}
	}
}

// InConfiguration names the auto-configuration group owning the descriptor.
func InConfiguration(name string) DescriptorOption {
	return func(d *Descriptor) {
		d.Configuration = name
	}
}

// Describes declares the properties the factory consumes.
func Describes(props ...PropertyMetadata) DescriptorOption {
	return func(d *Descriptor) {
		d.Properties = append(d.Properties, props...)
	}
}

// Provide declares a descriptor producing T.
func Provide[T any](name string, factory func(ctx context.Context, c Components) (T, error), opts ...DescriptorOption) Descriptor {
	d := Descriptor{
		Name: name,
		Type: reflect.TypeFor[T](),
	}
	if factory != nil {
		d.Factory = func(ctx context.Context, c Components) (any, error) {
			return factory(ctx, c)
		}
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&d)
		}
	}
	return d
}

// ProvideValue declares a descriptor returning a fixed instance.
func ProvideValue[T any](name string, value T, opts ...DescriptorOption) Descriptor {
	return Provide(name, func(context.Context, Components) (T, error) {
		return value, nil
	}, opts...)
}

// Validate checks the descriptor is usable by the resolver.
func (d Descriptor) Validate() error {
	var errs []error
	if d.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if d.Type == nil {
		errs = append(errs, errors.New("type must be set"))
	}
	if d.Factory == nil {
		errs = append(errs, errors.New("factory must be set"))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("autoconf: descriptor %q: %w", d.Name, errors.Join(errs...))
}

// AutoConfiguration groups descriptors under a name, the unit a caller enables.
type AutoConfiguration struct {
	Name        string
	Descriptors []Descriptor
}

// NewAutoConfiguration builds a group and stamps its name on each descriptor.
func NewAutoConfiguration(name string, descriptors ...Descriptor) AutoConfiguration {
	out := make([]Descriptor, len(descriptors))
	for i, d := range descriptors {
		if d.Configuration == "" {
			d.Configuration = name
		}
		out[i] = d
	}
	return AutoConfiguration{Name: name, Descriptors: out}
}

// Flatten concatenates the descriptors of configs in order.
func Flatten(configs ...AutoConfiguration) []Descriptor {
	var out []Descriptor
	for _, cfg := range configs {
		out = append(out, cfg.Descriptors...)
	}
	return out
}
