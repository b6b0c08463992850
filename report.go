package autoconf

import (
	"time"

	json "github.com/goccy/go-json"
)

// OutcomeKind classifies what happened to a descriptor during resolution.
type OutcomeKind string

const (
	OutcomeRegistered OutcomeKind = "registered"
	OutcomeNoMatch    OutcomeKind = "no_match"
	OutcomeOverridden OutcomeKind = "overridden"
	OutcomeNameTaken  OutcomeKind = "name_taken"
)

// ConditionResult records a single condition verdict.
type ConditionResult struct {
	Condition string `json:"condition" yaml:"condition"`
	Match     bool   `json:"match" yaml:"match"`
	Message   string `json:"message,omitempty" yaml:"message,omitempty"`
}

// ReportEntry explains the fate of one descriptor.
type ReportEntry struct {
	Descriptor    string            `json:"descriptor" yaml:"descriptor"`
	Configuration string            `json:"configuration,omitempty" yaml:"configuration,omitempty"`
	Type          string            `json:"type" yaml:"type"`
	Outcome       OutcomeKind       `json:"outcome" yaml:"outcome"`
	Message       string            `json:"message,omitempty" yaml:"message,omitempty"`
	Conditions    []ConditionResult `json:"conditions,omitempty" yaml:"conditions,omitempty"`
	Duration      time.Duration     `json:"duration_ns" yaml:"duration_ns"`
}

// Report lists one entry per descriptor, in declaration order.
type Report struct {
	EvaluationID string        `json:"evaluation_id" yaml:"evaluation_id"`
	Entries      []ReportEntry `json:"entries" yaml:"entries"`
	UserNames    []string      `json:"user_components,omitempty" yaml:"user_components,omitempty"`
}

// Entry returns the entry for descriptor.
func (r Report) Entry(descriptor string) (ReportEntry, bool) {
	for _, entry := range r.Entries {
		if entry.Descriptor == descriptor {
			return entry, true
		}
	}
	return ReportEntry{}, false
}

// Positive returns the entries that produced a component.
func (r Report) Positive() []ReportEntry {
	return r.filter(func(e ReportEntry) bool { return e.Outcome == OutcomeRegistered })
}

// Negative returns the entries that did not produce a component.
func (r Report) Negative() []ReportEntry {
	return r.filter(func(e ReportEntry) bool { return e.Outcome != OutcomeRegistered })
}

func (r Report) filter(keep func(ReportEntry) bool) []ReportEntry {
	var out []ReportEntry
	for _, entry := range r.Entries {
		if keep(entry) {
			out = append(out, entry)
		}
	}
	return out
}

// ToJSON serialises the report.
func (r Report) ToJSON() ([]byte, error) {
	type alias Report
	return json.Marshal(alias(r))
}

// ReportFromJSON deserialises a payload previously generated via ToJSON.
func ReportFromJSON(payload []byte) (Report, error) {
	type alias Report
	var report alias
	if err := json.Unmarshal(payload, &report); err != nil {
		return Report{}, err
	}
	return Report(report), nil
}
