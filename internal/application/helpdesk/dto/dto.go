package dto

import (
	"time"

	"github.com/orris-inc/helpdesk/internal/domain/ticket"
)

type TicketDTO struct {
	ID                  uint      `json:"id"`
	Number              string    `json:"number"`
	QueueID             uint      `json:"queue_id"`
	Subject             string    `json:"subject"`
	Status              string    `json:"status"`
	BaseStatus          string    `json:"base_status,omitempty"`
	AssignedSupporterID *uint     `json:"assigned_supporter_id"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

type EmailDTO struct {
	ID         uint      `json:"id"`
	MessageID  string    `json:"message_id"`
	Direction  string    `json:"direction"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	Subject    string    `json:"subject"`
	Body       string    `json:"body"`
	InReplyTo  string    `json:"in_reply_to,omitempty"`
	References []string  `json:"references,omitempty"`
	ReceivedAt time.Time `json:"received_at"`
}

type ThreadEdgeDTO struct {
	ParentEmailID uint `json:"parent_email_id"`
	ChildEmailID  uint `json:"child_email_id"`
}

type AssignmentDTO struct {
	SupporterID uint      `json:"supporter_id"`
	AssignedAt  time.Time `json:"assigned_at"`
}

// TicketDetailDTO is a ticket with its whole conversation.
type TicketDetailDTO struct {
	TicketDTO
	Emails      []EmailDTO      `json:"emails"`
	Thread      []ThreadEdgeDTO `json:"thread"`
	Assignments []AssignmentDTO `json:"assignments"`
}

type ListTicketsResult struct {
	Items []TicketDTO `json:"items"`
	Total int64       `json:"total"`
}

type ParkedMessageDTO struct {
	ID        uint       `json:"id"`
	SourceUID string     `json:"source_uid"`
	Reason    string     `json:"reason"`
	Size      int        `json:"size"`
	ParkedAt  time.Time  `json:"parked_at"`
	RetriedAt *time.Time `json:"retried_at,omitempty"`
	Resolved  bool       `json:"resolved"`
}

type ListParkedResult struct {
	Items []ParkedMessageDTO `json:"items"`
	Total int64              `json:"total"`
}

type RetryParkedResult struct {
	ParkedID     uint   `json:"parked_id"`
	Resolved     bool   `json:"resolved"`
	Outcome      string `json:"outcome"`
	TicketNumber string `json:"ticket_number,omitempty"`
	Reason       string `json:"reason,omitempty"`
}

type StatusDTO struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	BaseStatus  string `json:"base_status"`
	Description string `json:"description,omitempty"`
}

type QueueDTO struct {
	ID            uint   `json:"id"`
	Name          string `json:"name"`
	Prefix        string `json:"prefix"`
	DefaultStatus string `json:"default_status"`
}

type SupporterDTO struct {
	ID     uint   `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// SeedResult counts what a seed run created; existing rows are skipped.
type SeedResult struct {
	Statuses   int `json:"statuses"`
	Queues     int `json:"queues"`
	Supporters int `json:"supporters"`
	Skipped    int `json:"skipped"`
}

func ToTicketDTO(t *ticket.Ticket, base string) TicketDTO {
	return TicketDTO{
		ID:                  t.ID(),
		Number:              t.Number().String(),
		QueueID:             t.QueueID(),
		Subject:             t.Subject(),
		Status:              t.StatusName(),
		BaseStatus:          base,
		AssignedSupporterID: t.AssignedSupporterID(),
		CreatedAt:           t.CreatedAt(),
		UpdatedAt:           t.UpdatedAt(),
	}
}

func ToEmailDTO(e *ticket.Email) EmailDTO {
	return EmailDTO{
		ID:         e.ID(),
		MessageID:  e.MessageID(),
		Direction:  e.Direction().String(),
		From:       e.FromAddress(),
		To:         e.ToAddress(),
		Subject:    e.Subject(),
		Body:       e.Body(),
		InReplyTo:  e.InReplyTo(),
		References: e.References(),
		ReceivedAt: e.ReceivedAt(),
	}
}

func ToParkedMessageDTO(p *ticket.ParkedMessage) ParkedMessageDTO {
	return ParkedMessageDTO{
		ID:        p.ID(),
		SourceUID: p.SourceUID(),
		Reason:    p.Reason(),
		Size:      len(p.Raw()),
		ParkedAt:  p.ParkedAt(),
		RetriedAt: p.RetriedAt(),
		Resolved:  p.IsResolved(),
	}
}

func ToStatusDTO(s *ticket.StatusDefinition) StatusDTO {
	return StatusDTO{
		ID:          s.ID(),
		Name:        s.Name(),
		BaseStatus:  s.Base().String(),
		Description: s.Description(),
	}
}

func ToQueueDTO(q *ticket.Queue) QueueDTO {
	return QueueDTO{
		ID:            q.ID(),
		Name:          q.Name(),
		Prefix:        q.Prefix(),
		DefaultStatus: q.DefaultStatus(),
	}
}

func ToSupporterDTO(s *ticket.Supporter) SupporterDTO {
	return SupporterDTO{
		ID:     s.ID(),
		Email:  s.Email(),
		Name:   s.Name(),
		Active: s.IsActive(),
	}
}
