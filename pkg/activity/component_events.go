package activity

import (
	"strings"
	"time"
)

// Component event verbs.
const (
	VerbComponentRegistered = "component.registered"
	VerbComponentSkipped    = "component.skipped"
	VerbComponentOverridden = "component.overridden"
	VerbResolutionFailed    = "resolution.failed"
)

// ObjectTypeComponent is the object type of component events.
const ObjectTypeComponent = "component"

// ComponentEventInput describes the fields shared by component events.
type ComponentEventInput struct {
	EvaluationID  string
	Descriptor    string
	Configuration string
	Type          string
	Outcome       string
	Reason        string
	Duration      time.Duration
	ActorID       string
	TenantID      string
	Channel       string
	Metadata      map[string]any
	OccurredAt    time.Time
}

// BuildComponentRegisteredEvent reports a descriptor whose factory ran.
func BuildComponentRegisteredEvent(input ComponentEventInput) Event {
	return buildComponentEvent(VerbComponentRegistered, input)
}

// BuildComponentSkippedEvent reports a descriptor whose conditions failed or
// whose name was already taken.
func BuildComponentSkippedEvent(input ComponentEventInput) Event {
	return buildComponentEvent(VerbComponentSkipped, input)
}

// BuildComponentOverriddenEvent reports a descriptor shadowed by a user component.
func BuildComponentOverriddenEvent(input ComponentEventInput) Event {
	return buildComponentEvent(VerbComponentOverridden, input)
}

// BuildResolutionFailedEvent reports an aborted resolution.
func BuildResolutionFailedEvent(input ComponentEventInput) Event {
	return buildComponentEvent(VerbResolutionFailed, input)
}

func buildComponentEvent(verb string, input ComponentEventInput) Event {
	metadata := CloneMetadata(input.Metadata)
	set := func(key string, value any) {
		if metadata == nil {
			metadata = map[string]any{}
		}
		metadata[key] = value
	}
	if input.EvaluationID != "" {
		set("evaluation_id", input.EvaluationID)
	}
	if input.Configuration != "" {
		set("configuration", input.Configuration)
	}
	if input.Type != "" {
		set("type", input.Type)
	}
	if input.Outcome != "" {
		set("outcome", input.Outcome)
	}
	if input.Reason != "" {
		set("reason", input.Reason)
	}
	if input.Duration > 0 {
		set("duration_ms", input.Duration.Milliseconds())
	}

	objectID := strings.TrimSpace(input.Descriptor)
	if objectID == "" {
		objectID = strings.TrimSpace(input.EvaluationID)
	}
	if objectID == "" {
		objectID = ObjectTypeComponent
	}

	return Event{
		Verb:       verb,
		ActorID:    strings.TrimSpace(input.ActorID),
		TenantID:   strings.TrimSpace(input.TenantID),
		ObjectType: ObjectTypeComponent,
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(input.Channel),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}
