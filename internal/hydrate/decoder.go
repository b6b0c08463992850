// Package hydrate decodes flat property maps into typed structs.
package hydrate

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// TagName is the struct tag read when matching property keys to fields.
const TagName = "mapstructure"

// Context identifies the property group being decoded.
type Context struct {
	Prefix string
}

func (c Context) label() string {
	if c.Prefix == "" {
		return "<root>"
	}
	return c.Prefix
}

// PreHook lets callers rewrite the payload before decoding.
type PreHook func(Context, map[string]any) (map[string]any, error)

// PostHook lets callers adjust or validate the decoded struct.
type PostHook[T any] func(Context, *T) error

// DecoderOption configures a Decoder instance.
type DecoderOption[T any] func(*Decoder[T])

// Decoder converts nested property payloads into structs of type T.
type Decoder[T any] struct {
	preHooks    []PreHook
	postHooks   []PostHook[T]
	decodeHooks []mapstructure.DecodeHookFunc
	errorUnused bool
}

// WithPreHook applies hook prior to decoding.
func WithPreHook[T any](hook PreHook) DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.preHooks = append(d.preHooks, hook)
	}
}

// WithPostHook applies hook after decoding completes.
func WithPostHook[T any](hook PostHook[T]) DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.postHooks = append(d.postHooks, hook)
	}
}

// WithDecodeHook adds a mapstructure hook run before the built-in ones.
func WithDecodeHook[T any](hook mapstructure.DecodeHookFunc) DecoderOption[T] {
	return func(d *Decoder[T]) {
		if hook != nil {
			d.decodeHooks = append(d.decodeHooks, hook)
		}
	}
}

// WithErrorUnused rejects payload keys that match no field.
func WithErrorUnused[T any]() DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.errorUnused = true
	}
}

// NewDecoder builds a decoder.
func NewDecoder[T any](opts ...DecoderOption[T]) *Decoder[T] {
	d := &Decoder[T]{}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Decode converts payload into a zero T.
func (d *Decoder[T]) Decode(ctx Context, payload map[string]any) (T, error) {
	var zero T
	return d.DecodeInto(ctx, payload, zero)
}

// DecodeInto decodes payload on top of base: fields with no matching key keep
// the value they have in base. The caller must not share maps with base.
func (d *Decoder[T]) DecodeInto(ctx Context, payload map[string]any, base T) (T, error) {
	var zero T
	current := payload
	if current == nil {
		current = map[string]any{}
	}

	for _, hook := range d.preHooks {
		if hook == nil {
			continue
		}
		next, err := hook(ctx, current)
		if err != nil {
			return zero, fmt.Errorf("hydrate: pre-hook for %s failed: %w", ctx.label(), err)
		}
		if next != nil {
			current = next
		}
	}

	result := base
	hooks := append([]mapstructure.DecodeHookFunc{}, d.decodeHooks...)
	hooks = append(hooks,
		flattenStringMapHook,
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.ComposeDecodeHookFunc(hooks...),
		WeaklyTypedInput: true,
		ErrorUnused:      d.errorUnused,
		TagName:          TagName,
		Result:           &result,
	})
	if err != nil {
		return zero, fmt.Errorf("hydrate: configure decoder for %s: %w", ctx.label(), err)
	}
	if err := decoder.Decode(current); err != nil {
		return zero, fmt.Errorf("hydrate: decode %s: %w", ctx.label(), err)
	}

	for _, hook := range d.postHooks {
		if hook == nil {
			continue
		}
		if err := hook(ctx, &result); err != nil {
			return zero, fmt.Errorf("hydrate: post-hook for %s failed: %w", ctx.label(), err)
		}
	}
	return result, nil
}

// Nest turns dotted keys into nested maps: "a.b" = "v" becomes
// {"a": {"b": "v"}}. A key that is both a value and a group is an error.
func Nest(flat map[string]string) (map[string]any, error) {
	keys := make([]string, 0, len(flat))
	for key := range flat {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	root := map[string]any{}
	for _, key := range keys {
		segments := strings.Split(key, ".")
		node := root
		for i, segment := range segments[:len(segments)-1] {
			next, exists := node[segment]
			if !exists {
				child := map[string]any{}
				node[segment] = child
				node = child
				continue
			}
			child, ok := next.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("hydrate: property %q is both a value and a group", strings.Join(segments[:i+1], "."))
			}
			node = child
		}
		leaf := segments[len(segments)-1]
		if _, exists := node[leaf]; exists {
			return nil, fmt.Errorf("hydrate: property %q is both a value and a group", key)
		}
		node[leaf] = flat[key]
	}
	return root, nil
}

var stringMapType = reflect.TypeOf(map[string]string{})

// flattenStringMapHook lets a map[string]string field collect a whole
// property group, re-joining nested keys with dots.
func flattenStringMapHook(from, to reflect.Type, data any) (any, error) {
	if to != stringMapType || from.Kind() != reflect.Map {
		return data, nil
	}
	nested, ok := data.(map[string]any)
	if !ok {
		return data, nil
	}
	out := map[string]string{}
	flatten("", nested, out)
	return out, nil
}

func flatten(prefix string, nested map[string]any, out map[string]string) {
	for key, value := range nested {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		if child, ok := value.(map[string]any); ok {
			flatten(full, child, out)
			continue
		}
		out[full] = fmt.Sprint(value)
	}
}
