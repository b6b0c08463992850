package autoconf

import (
	"errors"
	"fmt"
	"sort"
)

// Source models a named precedence bucket (defaults, file, env, inline).
// Higher priority values represent stronger sources.
type Source struct {
	Name     string         `json:"name" yaml:"name"`
	Label    string         `json:"label,omitempty" yaml:"label,omitempty"`
	Priority int            `json:"priority" yaml:"priority"`
	Metadata map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// SourceOption configures metadata on Source creation.
type SourceOption func(*sourceConfig)

type sourceConfig struct {
	label    string
	metadata map[string]any
}

// WithSourceLabel sets a human-friendly label on the source.
func WithSourceLabel(label string) SourceOption {
	return func(cfg *sourceConfig) {
		cfg.label = label
	}
}

// WithSourceMetadata attaches arbitrary metadata to the source. The map is
// copied so later mutation by the caller is not observed.
func WithSourceMetadata(metadata map[string]any) SourceOption {
	return func(cfg *sourceConfig) {
		if len(metadata) == 0 {
			return
		}
		cfg.metadata = copyMetadata(metadata)
	}
}

// NewSource builds a Source. Validation is deferred to NewPropertySources.
func NewSource(name string, priority int, opts ...SourceOption) Source {
	cfg := sourceConfig{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	return Source{
		Name:     name,
		Label:    cfg.label,
		Priority: priority,
		Metadata: copyMetadata(cfg.metadata),
	}
}

func (s Source) clone() Source {
	return Source{
		Name:     s.Name,
		Label:    s.Label,
		Priority: s.Priority,
		Metadata: copyMetadata(s.Metadata),
	}
}

// PropertySource pairs a Source with the properties it contributes.
type PropertySource struct {
	Source     Source
	Snapshot   Snapshot
	SnapshotID string
}

// PropertySourceOption configures optional metadata for a property source.
type PropertySourceOption func(*PropertySource)

// WithSnapshotID sets the identifier reported in provenance.
func WithSnapshotID(id string) PropertySourceOption {
	return func(ps *PropertySource) {
		ps.SnapshotID = id
	}
}

// NewPropertySource pairs source with snapshot.
func NewPropertySource(source Source, snapshot Snapshot, opts ...PropertySourceOption) PropertySource {
	ps := PropertySource{
		Source:   source.clone(),
		Snapshot: snapshot.With(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&ps)
	}
	return ps
}

var (
	// ErrSourceNameRequired indicates a missing source name.
	ErrSourceNameRequired = errors.New("sources: name must be provided")
	// ErrDuplicateSourceName indicates multiple sources share a name.
	ErrDuplicateSourceName = errors.New("sources: names must be unique")
	// ErrPriorityOrder indicates duplicate priorities.
	ErrPriorityOrder = errors.New("sources: priorities must be strictly ordered")
)

// PropertySources is an immutable set of sources ordered from strongest to
// weakest.
type PropertySources struct {
	sources []PropertySource
}

// NewPropertySources validates and sorts sources so the strongest comes first.
func NewPropertySources(sources ...PropertySource) (*PropertySources, error) {
	if len(sources) == 0 {
		return &PropertySources{}, nil
	}

	seen := make(map[string]struct{}, len(sources))
	copied := make([]PropertySource, len(sources))
	for i, ps := range sources {
		if ps.Source.Name == "" {
			return nil, ErrSourceNameRequired
		}
		if _, ok := seen[ps.Source.Name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSourceName, ps.Source.Name)
		}
		seen[ps.Source.Name] = struct{}{}
		copied[i] = NewPropertySource(ps.Source, ps.Snapshot, WithSnapshotID(ps.SnapshotID))
	}

	sort.Slice(copied, func(i, j int) bool {
		if copied[i].Source.Priority == copied[j].Source.Priority {
			return copied[i].Source.Name < copied[j].Source.Name
		}
		return copied[i].Source.Priority > copied[j].Source.Priority
	})

	for i := 1; i < len(copied); i++ {
		if copied[i-1].Source.Priority <= copied[i].Source.Priority {
			return nil, fmt.Errorf("%w: %d", ErrPriorityOrder, copied[i].Source.Priority)
		}
	}
	return &PropertySources{sources: copied}, nil
}

// Sources returns a copy of the ordered sources.
func (p *PropertySources) Sources() []PropertySource {
	if p == nil || len(p.sources) == 0 {
		return nil
	}
	out := make([]PropertySource, len(p.sources))
	copy(out, p.sources)
	return out
}

// Len returns the number of sources.
func (p *PropertySources) Len() int {
	if p == nil {
		return 0
	}
	return len(p.sources)
}

// Merge flattens the sources into one Snapshot. Keys are ordered weakest
// source first so defaults keep their declaration order; values come from the
// strongest source that defines them.
func (p *PropertySources) Merge() Snapshot {
	if p == nil {
		return NewSnapshot()
	}
	merged := NewSnapshot()
	for i := len(p.sources) - 1; i >= 0; i-- {
		merged = merged.With(p.sources[i].Snapshot.Properties()...)
	}
	return merged
}

// Trace reports how each source contributed to key, strongest first.
func (p *PropertySources) Trace(key string) Trace {
	trace := Trace{Key: key}
	if p == nil {
		return trace
	}
	for _, ps := range p.sources {
		value, found := ps.Snapshot.Get(key)
		trace.Sources = append(trace.Sources, Provenance{
			Source:     ps.Source.clone(),
			SnapshotID: ps.SnapshotID,
			Value:      value,
			Found:      found,
		})
	}
	return trace
}

// Origin returns the source whose value wins for key.
func (p *PropertySources) Origin(key string) (Source, bool) {
	if p == nil {
		return Source{}, false
	}
	for _, ps := range p.sources {
		if ps.Snapshot.Has(key) {
			return ps.Source.clone(), true
		}
	}
	return Source{}, false
}

func copyMetadata(origin map[string]any) map[string]any {
	if len(origin) == 0 {
		return nil
	}
	out := make(map[string]any, len(origin))
	for key, value := range origin {
		out[key] = value
	}
	return out
}
