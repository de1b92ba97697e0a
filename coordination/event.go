package coordination

import (
	"time"

	"github.com/google/uuid"
)

// EventIDString is an alias type for the opaque event identifier.
type EventIDString = string

// EventTypeString is an alias type for the event type tag used as dispatch key.
type EventTypeString = string

// Events is an alias type for a slice of Event.
type Events = []Event

// Event is the contract for immutable domain events.
//
// An Event describes something that already happened in the domain. Once
// constructed it must be fully immutable: implementations should be value
// types built by factory functions, with no mutating methods.
type Event interface {
	EventID() EventIDString
	EventType() EventTypeString
	HasOccurredAt() time.Time
	PayloadToJSON() ([]byte, error)
}

// EventRecord carries the identity part of an Event: the unique identifier
// and the timestamp fixed at construction.
//
// Concrete events embed an EventRecord and add their type-specific payload.
// It should only be constructed with BuildEventRecord or BuildEventRecordAt
// so that identifiers are never reused and timestamps are normalized.
type EventRecord struct {
	ID         EventIDString
	OccurredAt time.Time
}

// BuildEventRecord creates an EventRecord with a fresh identifier and the
// current time.
func BuildEventRecord() EventRecord {
	return BuildEventRecordAt(time.Now())
}

// BuildEventRecordAt creates an EventRecord with a fresh identifier and the
// given occurred-at time, normalized to UTC with microsecond precision.
func BuildEventRecordAt(occurredAt time.Time) EventRecord {
	return EventRecord{
		ID:         uuid.NewString(),
		OccurredAt: ToOccurredAt(occurredAt),
	}
}

// EventID returns the unique event identifier.
func (r EventRecord) EventID() EventIDString {
	return r.ID
}

// HasOccurredAt returns when the event occurred.
func (r EventRecord) HasOccurredAt() time.Time {
	return r.OccurredAt
}

// ToOccurredAt normalizes a time to UTC with microsecond precision, matching
// what Postgres timestamps can round-trip.
func ToOccurredAt(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
