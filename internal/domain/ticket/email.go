package ticket

import (
	"fmt"
	"time"

	vo "github.com/orris-inc/helpdesk/internal/domain/ticket/valueobjects"
)

// Email is one message of a ticket conversation. It is immutable once
// stored; the only setter is SetID, used by the repository after insert.
type Email struct {
	id          uint
	ticketID    uint
	messageID   string
	direction   vo.Direction
	fromAddress string
	toAddress   string
	subject     string
	body        string
	receivedAt  time.Time
	inReplyTo   string
	references  []string
	createdAt   time.Time
}

// EmailParams carries the fields of a new email.
type EmailParams struct {
	TicketID    uint
	MessageID   string
	Direction   vo.Direction
	FromAddress string
	ToAddress   string
	Subject     string
	Body        string
	ReceivedAt  time.Time
	InReplyTo   string
	References  []string
}

func NewEmail(p EmailParams) (*Email, error) {
	if p.TicketID == 0 {
		return nil, fmt.Errorf("ticket ID is required")
	}
	if p.MessageID == "" {
		return nil, fmt.Errorf("message ID is required")
	}
	if !p.Direction.IsValid() {
		return nil, fmt.Errorf("invalid direction: %q", p.Direction)
	}
	if p.FromAddress == "" {
		return nil, fmt.Errorf("from address is required")
	}
	if p.ReceivedAt.IsZero() {
		return nil, fmt.Errorf("received time is required")
	}

	return &Email{
		ticketID:    p.TicketID,
		messageID:   p.MessageID,
		direction:   p.Direction,
		fromAddress: p.FromAddress,
		toAddress:   p.ToAddress,
		subject:     p.Subject,
		body:        p.Body,
		receivedAt:  p.ReceivedAt,
		inReplyTo:   p.InReplyTo,
		references:  cloneStrings(p.References),
	}, nil
}

func ReconstructEmail(id uint, p EmailParams, createdAt time.Time) (*Email, error) {
	if id == 0 {
		return nil, fmt.Errorf("email ID cannot be zero")
	}
	e, err := NewEmail(p)
	if err != nil {
		return nil, err
	}
	e.id = id
	e.createdAt = createdAt
	return e, nil
}

func (e *Email) ID() uint {
	return e.id
}

func (e *Email) TicketID() uint {
	return e.ticketID
}

func (e *Email) MessageID() string {
	return e.messageID
}

func (e *Email) Direction() vo.Direction {
	return e.direction
}

func (e *Email) FromAddress() string {
	return e.fromAddress
}

func (e *Email) ToAddress() string {
	return e.toAddress
}

func (e *Email) Subject() string {
	return e.subject
}

func (e *Email) Body() string {
	return e.body
}

func (e *Email) ReceivedAt() time.Time {
	return e.receivedAt
}

func (e *Email) InReplyTo() string {
	return e.inReplyTo
}

// References returns the reference chain, oldest first.
func (e *Email) References() []string {
	return cloneStrings(e.references)
}

func (e *Email) CreatedAt() time.Time {
	return e.createdAt
}

func (e *Email) SetID(id uint) error {
	if e.id != 0 {
		return fmt.Errorf("email ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("email ID cannot be zero")
	}
	e.id = id
	return nil
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
