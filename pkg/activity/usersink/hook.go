package usersink

import (
	"context"
	"strings"

	"github.com/goliatone/go-autoconf/pkg/activity"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

// recordNamespace seeds record IDs derived from an evaluation.
var recordNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/goliatone/go-autoconf/activity"))

// Hook forwards component events to a go-users ActivitySink.
type Hook struct {
	Sink usertypes.ActivitySink
}

// Notify logs one ActivityRecord per component event. Events missing a verb
// or descriptor are dropped.
func (h Hook) Notify(ctx context.Context, event activity.Event) error {
	if h.Sink == nil {
		return nil
	}
	normalized := activity.NormalizeEvent(event)
	if normalized.Verb == "" || normalized.ObjectType == "" || normalized.ObjectID == "" {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return h.Sink.Log(ctx, componentRecord(normalized))
}

// componentRecord keys the record by evaluation, verb and descriptor so the
// same outcome logged twice keeps one ID. The actor doubles as the user.
func componentRecord(event activity.Event) usertypes.ActivityRecord {
	actor := parseUUID(event.ActorID)
	evaluationID := metadataString(event.Metadata, "evaluation_id")

	data := activity.CloneMetadata(event.Metadata)
	if data == nil {
		data = map[string]any{}
	}
	if event.Verb != activity.VerbResolutionFailed {
		data["descriptor"] = event.ObjectID
	}

	channel := event.Channel
	if channel == "" {
		channel = activity.DefaultChannel
	}

	record := usertypes.ActivityRecord{
		UserID:     actor,
		ActorID:    actor,
		TenantID:   parseUUID(event.TenantID),
		Verb:       event.Verb,
		ObjectType: event.ObjectType,
		ObjectID:   event.ObjectID,
		Channel:    channel,
		Data:       data,
		OccurredAt: event.OccurredAt,
	}
	if evaluationID != "" {
		record.ID = uuid.NewSHA1(recordNamespace, []byte(evaluationID+"/"+event.Verb+"/"+event.ObjectID))
	}
	return record
}

func metadataString(metadata map[string]any, key string) string {
	value, _ := metadata[key].(string)
	return strings.TrimSpace(value)
}

func parseUUID(input string) uuid.UUID {
	id, err := uuid.Parse(strings.TrimSpace(input))
	if err != nil {
		return uuid.Nil
	}
	return id
}
