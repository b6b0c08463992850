package autoconf

import json "github.com/goccy/go-json"

// Trace captures provenance information for a property key across the sources
// that were merged into the effective Snapshot.
type Trace struct {
	Key     string       `json:"key" yaml:"key"`
	Sources []Provenance `json:"sources" yaml:"sources"`
}

// Provenance details how a specific source contributed to a traced key.
type Provenance struct {
	Source     Source `json:"source" yaml:"source"`
	SnapshotID string `json:"snapshot_id,omitempty" yaml:"snapshot_id,omitempty"`
	Value      string `json:"value,omitempty" yaml:"value,omitempty"`
	Found      bool   `json:"found" yaml:"found"`
}

// Winner returns the strongest provenance entry that defines the key.
func (t Trace) Winner() (Provenance, bool) {
	for _, p := range t.Sources {
		if p.Found {
			return p, true
		}
	}
	return Provenance{}, false
}

// ToJSON serialises the trace into JSON for logging or transport helpers.
func (t Trace) ToJSON() ([]byte, error) {
	type alias Trace
	return json.Marshal(alias(t))
}

// TraceFromJSON deserialises a payload previously generated via ToJSON.
func TraceFromJSON(payload []byte) (Trace, error) {
	type alias Trace
	var trace alias
	if err := json.Unmarshal(payload, &trace); err != nil {
		return Trace{}, err
	}
	return Trace(trace), nil
}
