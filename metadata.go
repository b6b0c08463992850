package autoconf

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"
)

// PropertyMetadata describes one property key a descriptor consumes.
type PropertyMetadata struct {
	Name        string `json:"name" yaml:"name"`
	Type        string `json:"type" yaml:"type"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Default     string `json:"default,omitempty" yaml:"default,omitempty"`
}

// Metadata collects the property metadata of descriptors, deduplicated by
// name and sorted. The first declaration of a key wins.
func Metadata(descriptors []Descriptor) []PropertyMetadata {
	seen := map[string]struct{}{}
	var out []PropertyMetadata
	for _, d := range descriptors {
		for _, p := range d.Properties {
			if _, ok := seen[p.Name]; ok {
				continue
			}
			seen[p.Name] = struct{}{}
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// DescribeProperties derives metadata from a properties struct. Keys come
// from the `mapstructure` tag (the field name otherwise), descriptions from
// the `desc` tag, and defaults from the non-zero fields of defaults.
func DescribeProperties(prefix string, defaults any) []PropertyMetadata {
	value := reflect.ValueOf(defaults)
	for value.Kind() == reflect.Pointer {
		if value.IsNil() {
			return nil
		}
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return nil
	}
	return describeStruct(prefix, value)
}

var durationType = reflect.TypeOf(time.Duration(0))

func describeStruct(prefix string, value reflect.Value) []PropertyMetadata {
	var out []PropertyMetadata
	t := value.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		key, squash := propertyKey(field)
		if key == "-" {
			continue
		}
		fv := value.Field(i)
		if squash && field.Type.Kind() == reflect.Struct {
			out = append(out, describeStruct(prefix, fv)...)
			continue
		}
		name := joinPath(prefix, key)
		if field.Type.Kind() == reflect.Struct && field.Type != durationType {
			out = append(out, describeStruct(name, fv)...)
			continue
		}
		if field.Type.Kind() == reflect.Map {
			name += ".*"
		}
		out = append(out, PropertyMetadata{
			Name:        name,
			Type:        propertyTypeName(field.Type),
			Description: field.Tag.Get("desc"),
			Default:     defaultString(fv),
		})
	}
	return out
}

func propertyKey(field reflect.StructField) (string, bool) {
	tag := field.Tag.Get("mapstructure")
	if tag == "" {
		return field.Name, false
	}
	parts := strings.Split(tag, ",")
	squash := false
	for _, opt := range parts[1:] {
		if opt == "squash" {
			squash = true
		}
	}
	if parts[0] == "" {
		return field.Name, squash
	}
	return parts[0], squash
}

func propertyTypeName(t reflect.Type) string {
	switch {
	case t == durationType:
		return "duration"
	case t.Kind() == reflect.Slice:
		return "[]" + propertyTypeName(t.Elem())
	case t.Kind() == reflect.Map:
		return "map[string]" + propertyTypeName(t.Elem())
	default:
		return t.Kind().String()
	}
}

func defaultString(v reflect.Value) string {
	if v.IsZero() {
		return ""
	}
	if v.Type() == durationType {
		return time.Duration(v.Int()).String()
	}
	if v.Kind() == reflect.Slice {
		parts := make([]string, 0, v.Len())
		for i := 0; i < v.Len(); i++ {
			parts = append(parts, fmt.Sprint(v.Index(i).Interface()))
		}
		return strings.Join(parts, ",")
	}
	return fmt.Sprint(v.Interface())
}

func joinPath(prefix, segment string) string {
	if prefix == "" {
		return segment
	}
	return prefix + "." + segment
}
