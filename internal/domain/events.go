package domain

import "time"

// EventType names a connection lifecycle change.
type EventType string

const (
	EventConnectionCreated EventType = "ConnectionCreated"
	EventConnectionUpdated EventType = "ConnectionUpdated"
	EventConnectionDeleted EventType = "ConnectionDeleted"
)

// ConnectionEvent records a committed change to one connection. Events carry ids and
// versions only, never personal fields.
type ConnectionEvent struct {
	EventID      string    `json:"eventId"`
	Type         EventType `json:"eventType"`
	ConnectionID string    `json:"connectionId"`
	Version      int       `json:"version"`
	OccurredAt   time.Time `json:"occurredAt"`
}
