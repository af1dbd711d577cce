package service

import (
	"context"
	"time"
)

// Event types published to the time-entry exchange.
const (
	EventEntryCreated = "entry.created"
	EventEntryDeleted = "entry.deleted"
)

// EntryEvent is the message published for every time-entry mutation. The
// audit worker consumes these and materializes them into the audit trail.
type EntryEvent struct {
	Type       string    `json:"type"`
	EntryID    string    `json:"entry_id"`
	ProjectID  string    `json:"project_id"`
	UserID     string    `json:"user_id"`
	Date       string    `json:"date"`
	Hours      string    `json:"hours"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EventPublisher is satisfied by the queue publisher. A nil publisher
// disables event publishing.
type EventPublisher interface {
	PublishJSON(ctx context.Context, exchange, routingKey string, body any) error
}
