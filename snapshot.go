package autoconf

import (
	"fmt"
	"sort"
	"strings"
)

// Property is a single key/value pair contributing to a Snapshot.
type Property struct {
	Key   string
	Value string
}

// Snapshot is an immutable, ordered view of configuration properties. Keys keep
// the position of their first occurrence; values are last-wins.
type Snapshot struct {
	keys   []string
	values map[string]string
}

// NewSnapshot builds a Snapshot from properties in declaration order.
func NewSnapshot(props ...Property) Snapshot {
	s := Snapshot{
		keys:   make([]string, 0, len(props)),
		values: make(map[string]string, len(props)),
	}
	for _, prop := range props {
		s.put(prop.Key, prop.Value)
	}
	return s
}

// ParseProperties builds a Snapshot from "key:value" or "key=value" entries.
// The entry is split at the first ':' or '=' so values may contain either
// character (for example "cluster-nodes:localhost:9300").
func ParseProperties(entries ...string) (Snapshot, error) {
	props := make([]Property, 0, len(entries))
	for _, entry := range entries {
		prop, err := ParseProperty(entry)
		if err != nil {
			return Snapshot{}, err
		}
		props = append(props, prop)
	}
	return NewSnapshot(props...), nil
}

// MustParseProperties is ParseProperties for static inputs; it panics on error.
func MustParseProperties(entries ...string) Snapshot {
	s, err := ParseProperties(entries...)
	if err != nil {
		panic(err)
	}
	return s
}

// ParseProperty splits a single "key:value" or "key=value" entry.
func ParseProperty(entry string) (Property, error) {
	idx := strings.IndexAny(entry, ":=")
	if idx < 0 {
		return Property{}, fmt.Errorf("autoconf: property %q has no ':' or '=' separator", entry)
	}
	key := strings.TrimSpace(entry[:idx])
	if key == "" {
		return Property{}, fmt.Errorf("autoconf: property %q has an empty key", entry)
	}
	return Property{Key: key, Value: strings.TrimSpace(entry[idx+1:])}, nil
}

// SnapshotFromMap builds a Snapshot from m with keys sorted alphabetically.
func SnapshotFromMap(m map[string]string) Snapshot {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	props := make([]Property, 0, len(keys))
	for _, key := range keys {
		props = append(props, Property{Key: key, Value: m[key]})
	}
	return NewSnapshot(props...)
}

func (s *Snapshot) put(key, value string) {
	if s.values == nil {
		s.values = map[string]string{}
	}
	if _, exists := s.values[key]; !exists {
		s.keys = append(s.keys, key)
	}
	s.values[key] = value
}

// Get returns the value stored under key.
func (s Snapshot) Get(key string) (string, bool) {
	value, ok := s.values[key]
	return value, ok
}

// Value returns the value stored under key or the empty string.
func (s Snapshot) Value(key string) string {
	return s.values[key]
}

// Has reports whether key is present, even with an empty value.
func (s Snapshot) Has(key string) bool {
	_, ok := s.values[key]
	return ok
}

// HasPrefix reports whether any key equals prefix or starts with "prefix.".
func (s Snapshot) HasPrefix(prefix string) bool {
	for _, key := range s.keys {
		if matchesPrefix(key, prefix) {
			return true
		}
	}
	return false
}

// WithPrefix returns the properties under prefix with "prefix." stripped from
// their keys. A key equal to prefix is kept under the empty key.
func (s Snapshot) WithPrefix(prefix string) Snapshot {
	out := Snapshot{values: map[string]string{}}
	for _, key := range s.keys {
		if !matchesPrefix(key, prefix) {
			continue
		}
		trimmed := strings.TrimPrefix(strings.TrimPrefix(key, prefix), ".")
		out.put(trimmed, s.values[key])
	}
	return out
}

// With returns a copy of s with props applied on top (last-wins).
func (s Snapshot) With(props ...Property) Snapshot {
	out := Snapshot{
		keys:   make([]string, len(s.keys), len(s.keys)+len(props)),
		values: make(map[string]string, len(s.values)+len(props)),
	}
	copy(out.keys, s.keys)
	for key, value := range s.values {
		out.values[key] = value
	}
	for _, prop := range props {
		out.put(prop.Key, prop.Value)
	}
	return out
}

// Keys returns the keys in first-occurrence order.
func (s Snapshot) Keys() []string {
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

// Properties returns the pairs in first-occurrence order.
func (s Snapshot) Properties() []Property {
	out := make([]Property, 0, len(s.keys))
	for _, key := range s.keys {
		out = append(out, Property{Key: key, Value: s.values[key]})
	}
	return out
}

// Len returns the number of distinct keys.
func (s Snapshot) Len() int {
	return len(s.keys)
}

// Map returns a detached copy of the key/value mapping.
func (s Snapshot) Map() map[string]string {
	out := make(map[string]string, len(s.values))
	for key, value := range s.values {
		out[key] = value
	}
	return out
}

// binding exposes the snapshot to expression evaluators.
func (s Snapshot) binding() map[string]any {
	out := make(map[string]any, len(s.values))
	for key, value := range s.values {
		out[key] = value
	}
	return out
}

func matchesPrefix(key, prefix string) bool {
	if prefix == "" {
		return true
	}
	if key == prefix {
		return true
	}
	return strings.HasPrefix(key, prefix+".")
}
