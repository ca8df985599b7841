package types

import "time"

// EventType names a ledger change.
type EventType string

const (
	EventUserRegistered     EventType = "user.registered"
	EventTransactionCreated EventType = "transaction.created"
	EventTransactionUpdated EventType = "transaction.updated"
	EventTransactionDeleted EventType = "transaction.deleted"
)

// Event is published after a ledger write has been committed.
type Event struct {
	Type          EventType `json:"type"`
	UserID        int       `json:"user_id"`
	TransactionID int       `json:"transaction_id,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// StatementExport describes a CSV statement written to object storage.
type StatementExport struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
	Count  int    `json:"count"`
}
