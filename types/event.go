package types

import "time"

// RecordEventType identifies the kind of change made to a record.
type RecordEventType string

const (
	RecordCreated RecordEventType = "record.created"
	RecordUpdated RecordEventType = "record.updated"
	RecordDeleted RecordEventType = "record.deleted"
)

// RecordEvent is published whenever a record is created, updated or deleted.
type RecordEvent struct {
	// Type is the kind of change.
	Type RecordEventType `json:"type"`

	// Collection is the API path segment of the record's collection.
	Collection string `json:"collection"`

	// RecordID identifies the changed record.
	RecordID string `json:"record_id"`

	// OccurredAt is the time the change was committed.
	OccurredAt time.Time `json:"occurred_at"`
}
