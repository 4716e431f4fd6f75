package core

import "time"

// Event is a typed domain event produced by an orchestrated mutation.
// Events are collected inside the transaction and only handed to the sinks
// after a successful commit.
type Event struct {
	Name       string // eg. "shift_transfer.applied"
	Kind       string // transfer kind that produced the event
	TransferID string
	MemberID   string
	ActorID    string
	OccurredAt time.Time // UTC
	Data       map[string]string
}

type (
	// NotificationSink delivers events to interested parties (push, email, websocket...).
	// Publish is fire-and-forget: a failing sink must never fail the caller.
	NotificationSink interface {
		Publish(event Event)
	}

	// AuditSink records events in an external audit trail.
	// Same fire-and-forget contract as NotificationSink.
	AuditSink interface {
		Record(event Event)
	}
)
