package ticket

import "time"

// EventKind identifies what happened to a ticket for notification purposes.
type EventKind string

const (
	EventTicketCreated  EventKind = "ticket_created"
	EventCustomerReply  EventKind = "customer_reply"
	EventTicketReopened EventKind = "ticket_reopened"
)

func (k EventKind) String() string {
	return string(k)
}

// Event is emitted after a committed ingestion and drives notifications.
type Event struct {
	Kind         EventKind
	TicketID     uint
	TicketNumber string
	Subject      string
	// EmailID is the inbound email that caused the event.
	EmailID   uint
	MessageID string
	Requester string
	// SupporterID is the assigned supporter, if any.
	SupporterID *uint
	OccurredAt  time.Time
}
