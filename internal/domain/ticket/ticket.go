package ticket

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	vo "github.com/orris-inc/helpdesk/internal/domain/ticket/valueobjects"
)

const maxSubjectLength = 998

// Ticket is a support case. Its base status is never stored; it is looked up
// through the status definition named by statusName.
type Ticket struct {
	id                  uint
	number              vo.TicketNumber
	queueID             uint
	subject             string
	statusName          string
	assignedSupporterID *uint
	createdAt           time.Time
	updatedAt           time.Time
}

// NewTicket builds an unsaved ticket. The number is assigned inside the
// persisting transaction through SetNumber.
func NewTicket(queueID uint, subject string, statusName string, now time.Time) (*Ticket, error) {
	if queueID == 0 {
		return nil, fmt.Errorf("queue ID is required")
	}
	if statusName == "" {
		return nil, fmt.Errorf("status name is required")
	}

	return &Ticket{
		queueID:    queueID,
		subject:    truncateSubject(subject),
		statusName: statusName,
		createdAt:  now,
		updatedAt:  now,
	}, nil
}

func ReconstructTicket(
	id uint,
	number string,
	queueID uint,
	subject string,
	statusName string,
	assignedSupporterID *uint,
	createdAt, updatedAt time.Time,
) (*Ticket, error) {
	if id == 0 {
		return nil, fmt.Errorf("ticket ID cannot be zero")
	}
	n, err := vo.ParseTicketNumber(number)
	if err != nil {
		return nil, err
	}
	if statusName == "" {
		return nil, fmt.Errorf("status name is required")
	}

	return &Ticket{
		id:                  id,
		number:              n,
		queueID:             queueID,
		subject:             subject,
		statusName:          statusName,
		assignedSupporterID: assignedSupporterID,
		createdAt:           createdAt,
		updatedAt:           updatedAt,
	}, nil
}

func (t *Ticket) ID() uint {
	return t.id
}

func (t *Ticket) Number() vo.TicketNumber {
	return t.number
}

func (t *Ticket) QueueID() uint {
	return t.queueID
}

func (t *Ticket) Subject() string {
	return t.subject
}

func (t *Ticket) StatusName() string {
	return t.statusName
}

func (t *Ticket) AssignedSupporterID() *uint {
	return t.assignedSupporterID
}

func (t *Ticket) CreatedAt() time.Time {
	return t.createdAt
}

func (t *Ticket) UpdatedAt() time.Time {
	return t.updatedAt
}

func (t *Ticket) IsNew() bool {
	return t.id == 0
}

func (t *Ticket) SetID(id uint) error {
	if t.id != 0 {
		return fmt.Errorf("ticket ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("ticket ID cannot be zero")
	}
	t.id = id
	return nil
}

func (t *Ticket) SetNumber(number vo.TicketNumber) error {
	if !t.number.IsZero() {
		return fmt.Errorf("ticket number is already set")
	}
	if number.IsZero() {
		return fmt.Errorf("ticket number cannot be empty")
	}
	t.number = number
	return nil
}

// ChangeStatus moves the ticket to a named status. Validation of the name
// against the status catalog is the caller's job.
func (t *Ticket) ChangeStatus(statusName string, now time.Time) error {
	if statusName == "" {
		return fmt.Errorf("status name is required")
	}
	if t.statusName == statusName {
		return nil
	}
	t.statusName = statusName
	t.updatedAt = now
	return nil
}

func (t *Ticket) AssignTo(supporterID uint, now time.Time) error {
	if supporterID == 0 {
		return fmt.Errorf("supporter ID cannot be zero")
	}
	t.assignedSupporterID = &supporterID
	t.updatedAt = now
	return nil
}

// Touch records activity on the ticket.
func (t *Ticket) Touch(now time.Time) {
	if now.After(t.updatedAt) {
		t.updatedAt = now
	}
}

func truncateSubject(subject string) string {
	subject = strings.TrimSpace(subject)
	if len(subject) <= maxSubjectLength {
		return subject
	}
	cut := maxSubjectLength
	for cut > 0 && !utf8.RuneStart(subject[cut]) {
		cut--
	}
	return subject[:cut]
}
