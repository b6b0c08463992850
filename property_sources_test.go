package autoconf

import (
	"errors"
	"testing"
)

func TestDefaultsFileEnvInlinePrecedence(t *testing.T) {
	sources, err := DefaultsFileEnvInline(
		MustParseProperties("name=defaults", "only.defaults=1"),
		MustParseProperties("name=file", "only.file=1"),
		MustParseProperties("name=env"),
		MustParseProperties("name=inline"),
	)
	if err != nil {
		t.Fatalf("DefaultsFileEnvInline: %v", err)
	}
	merged := sources.Merge()
	if got := merged.Value("name"); got != "inline" {
		t.Fatalf("expected inline to win, got %q", got)
	}
	if !merged.Has("only.defaults") || !merged.Has("only.file") {
		t.Fatalf("expected weaker-only keys to survive: %v", merged.Map())
	}
	if keys := merged.Keys(); keys[0] != "name" || keys[1] != "only.defaults" {
		t.Fatalf("expected defaults to keep their declaration order, got %v", keys)
	}

	origin, ok := sources.Origin("only.file")
	if !ok || origin.Name != "file" {
		t.Fatalf("unexpected origin %+v", origin)
	}
	if _, ok := sources.Origin("missing"); ok {
		t.Fatalf("missing key should have no origin")
	}
}

func TestTraceListsSourcesStrongestFirst(t *testing.T) {
	sources, err := DefaultsFileEnvInline(
		MustParseProperties("k=d"),
		NewSnapshot(),
		MustParseProperties("k=e"),
		NewSnapshot(),
	)
	if err != nil {
		t.Fatalf("DefaultsFileEnvInline: %v", err)
	}
	trace := sources.Trace("k")
	names := make([]string, 0, len(trace.Sources))
	for _, p := range trace.Sources {
		names = append(names, p.Source.Name)
	}
	if len(names) != 4 || names[0] != "inline" || names[3] != "defaults" {
		t.Fatalf("unexpected order %v", names)
	}
	winner, ok := trace.Winner()
	if !ok || winner.Source.Name != "env" || winner.Value != "e" {
		t.Fatalf("unexpected winner %+v", winner)
	}

	payload, err := trace.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	decoded, err := TraceFromJSON(payload)
	if err != nil {
		t.Fatalf("TraceFromJSON: %v", err)
	}
	if w, _ := decoded.Winner(); w.Source.Name != "env" {
		t.Fatalf("decoded winner %+v", w)
	}
}

func TestNewPropertySourcesValidation(t *testing.T) {
	if _, err := NewPropertySources(NewPropertySource(NewSource("", 1), NewSnapshot())); !errors.Is(err, ErrSourceNameRequired) {
		t.Fatalf("expected ErrSourceNameRequired, got %v", err)
	}
	_, err := NewPropertySources(
		NewPropertySource(NewSource("a", 1), NewSnapshot()),
		NewPropertySource(NewSource("a", 2), NewSnapshot()),
	)
	if !errors.Is(err, ErrDuplicateSourceName) {
		t.Fatalf("expected ErrDuplicateSourceName, got %v", err)
	}
	_, err = NewPropertySources(
		NewPropertySource(NewSource("a", 1), NewSnapshot()),
		NewPropertySource(NewSource("b", 1), NewSnapshot()),
	)
	if !errors.Is(err, ErrPriorityOrder) {
		t.Fatalf("expected ErrPriorityOrder, got %v", err)
	}
}

func TestEmptyPropertySources(t *testing.T) {
	sources, err := NewPropertySources()
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if sources.Merge().Len() != 0 || sources.Len() != 0 {
		t.Fatalf("expected empty merge")
	}
	if _, ok := sources.Trace("x").Winner(); ok {
		t.Fatalf("expected no winner")
	}
}
