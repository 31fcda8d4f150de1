package ticket

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
)

// Supporter is an agent tickets can be assigned to.
type Supporter struct {
	id     uint
	email  string
	name   string
	active bool
}

func NewSupporter(email, name string) (*Supporter, error) {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return nil, fmt.Errorf("invalid supporter email %q: %w", email, err)
	}
	return &Supporter{
		email:  strings.ToLower(addr.Address),
		name:   strings.TrimSpace(name),
		active: true,
	}, nil
}

func ReconstructSupporter(id uint, email, name string, active bool) *Supporter {
	return &Supporter{id: id, email: email, name: name, active: active}
}

func (s *Supporter) ID() uint {
	return s.id
}

func (s *Supporter) Email() string {
	return s.email
}

func (s *Supporter) Name() string {
	return s.name
}

func (s *Supporter) IsActive() bool {
	return s.active
}

func (s *Supporter) Deactivate() {
	s.active = false
}

func (s *Supporter) Activate() {
	s.active = true
}

func (s *Supporter) SetID(id uint) {
	s.id = id
}

// Assignment is one entry of a ticket's assignment history.
type Assignment struct {
	ticketID    uint
	supporterID uint
	assignedAt  time.Time
}

func NewAssignment(ticketID, supporterID uint, assignedAt time.Time) (*Assignment, error) {
	if ticketID == 0 {
		return nil, fmt.Errorf("ticket ID is required")
	}
	if supporterID == 0 {
		return nil, fmt.Errorf("supporter ID is required")
	}
	return &Assignment{ticketID: ticketID, supporterID: supporterID, assignedAt: assignedAt}, nil
}

func (a *Assignment) TicketID() uint {
	return a.ticketID
}

func (a *Assignment) SupporterID() uint {
	return a.supporterID
}

func (a *Assignment) AssignedAt() time.Time {
	return a.assignedAt
}
