package elasticsearch

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Indexed lets an entity choose its index name.
type Indexed interface {
	IndexName() string
}

// EntityMetadata describes how an entity type maps onto an index.
type EntityMetadata struct {
	Type    reflect.Type
	Index   string
	IDField string
	idIndex []int
}

// ID reads the identifier of entity, empty when unset.
func (m *EntityMetadata) ID(entity any) (string, error) {
	v, err := m.structValue(entity)
	if err != nil {
		return "", err
	}
	field := v.FieldByIndex(m.idIndex)
	switch field.Kind() {
	case reflect.String:
		return field.String(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Int() == 0 {
			return "", nil
		}
		return strconv.FormatInt(field.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if field.Uint() == 0 {
			return "", nil
		}
		return strconv.FormatUint(field.Uint(), 10), nil
	}
	return "", fmt.Errorf("elasticsearch: id field %s.%s has unsupported kind %s", m.Type, m.IDField, field.Kind())
}

// SetID writes id into entity, which must be a pointer.
func (m *EntityMetadata) SetID(entity any, id string) error {
	rv := reflect.ValueOf(entity)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("elasticsearch: cannot set id on non-pointer %T", entity)
	}
	field := rv.Elem().FieldByIndex(m.idIndex)
	switch field.Kind() {
	case reflect.String:
		field.SetString(id)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			return fmt.Errorf("elasticsearch: id %q for %s: %w", id, m.Type, err)
		}
		field.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(id, 10, 64)
		if err != nil {
			return fmt.Errorf("elasticsearch: id %q for %s: %w", id, m.Type, err)
		}
		field.SetUint(n)
	default:
		return fmt.Errorf("elasticsearch: id field %s.%s has unsupported kind %s", m.Type, m.IDField, field.Kind())
	}
	return nil
}

func (m *EntityMetadata) structValue(entity any) (reflect.Value, error) {
	rv := reflect.ValueOf(entity)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return reflect.Value{}, fmt.Errorf("elasticsearch: nil %s", m.Type)
		}
		rv = rv.Elem()
	}
	if rv.Type() != m.Type {
		return reflect.Value{}, fmt.Errorf("elasticsearch: %s is not %s", rv.Type(), m.Type)
	}
	return rv, nil
}

// MappingContext caches entity metadata. It is safe for concurrent use.
type MappingContext struct {
	mu       sync.RWMutex
	entities map[reflect.Type]*EntityMetadata
}

// NewMappingContext registers the given entities up front.
func NewMappingContext(entities ...any) (*MappingContext, error) {
	m := &MappingContext{entities: map[reflect.Type]*EntityMetadata{}}
	var errs []error
	for _, entity := range entities {
		if _, err := m.Metadata(entity); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return m, nil
}

// Metadata returns the metadata for entity's type, registering it on first use.
func (m *MappingContext) Metadata(entity any) (*EntityMetadata, error) {
	t := reflect.TypeOf(entity)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("elasticsearch: entity must be a struct, got %T", entity)
	}

	m.mu.RLock()
	meta, ok := m.entities[t]
	m.mu.RUnlock()
	if ok {
		return meta, nil
	}

	meta, err := inspectEntity(t)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.entities[t]; ok {
		return existing, nil
	}
	m.entities[t] = meta
	return meta, nil
}

// Entities lists registered metadata sorted by index name.
func (m *MappingContext) Entities() []*EntityMetadata {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*EntityMetadata, 0, len(m.entities))
	for _, meta := range m.entities {
		out = append(out, meta)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

var indexedType = reflect.TypeOf((*Indexed)(nil)).Elem()

func inspectEntity(t reflect.Type) (*EntityMetadata, error) {
	meta := &EntityMetadata{Type: t, Index: strings.ToLower(t.Name())}
	switch {
	case t.Implements(indexedType):
		meta.Index = reflect.Zero(t).Interface().(Indexed).IndexName()
	case reflect.PointerTo(t).Implements(indexedType):
		meta.Index = reflect.New(t).Interface().(Indexed).IndexName()
	}
	if meta.Index == "" {
		return nil, fmt.Errorf("elasticsearch: entity %s has no index name", t)
	}

	var fallback *reflect.StructField
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		if field.Tag.Get("es") == "id" {
			meta.IDField = field.Name
			meta.idIndex = field.Index
			return meta, nil
		}
		if field.Name == "ID" && fallback == nil {
			fallback = &field
		}
	}
	if fallback == nil {
		return nil, fmt.Errorf("elasticsearch: entity %s has no id field; tag one with `es:\"id\"`", t)
	}
	meta.IDField = fallback.Name
	meta.idIndex = fallback.Index
	return meta, nil
}
