package ingestion

import (
	"context"

	vo "github.com/orris-inc/helpdesk/internal/domain/ticket/valueobjects"
)

// OutcomeKind is the terminal result of processing one message.
type OutcomeKind string

const (
	OutcomeCreated  OutcomeKind = "created"
	OutcomeAppended OutcomeKind = "appended"
	OutcomeSkipped  OutcomeKind = "skipped"
	OutcomeFailed   OutcomeKind = "failed"
)

func (k OutcomeKind) String() string {
	return string(k)
}

// Outcome describes what happened to one message.
type Outcome struct {
	Kind         OutcomeKind  `json:"kind"`
	SourceUID    string       `json:"source_uid,omitempty"`
	MessageID    string       `json:"message_id,omitempty"`
	TicketID     uint         `json:"ticket_id,omitempty"`
	TicketNumber string       `json:"ticket_number,omitempty"`
	Rule         vo.MatchRule `json:"rule,omitempty"`
	Reopened     bool         `json:"reopened,omitempty"`
	Failure      FailureKind  `json:"failure,omitempty"`
	Reason       string       `json:"reason,omitempty"`
	Attempts     int          `json:"attempts,omitempty"`
	ParkedID     uint         `json:"parked_id,omitempty"`
}

// Ackable reports whether the source may forget the message. Transient
// failures stay in the source so a later poll delivers them again.
func (o Outcome) Ackable() bool {
	return o.Kind != OutcomeFailed || !o.Failure.Transient()
}

// OutcomeReporter receives every terminal outcome.
type OutcomeReporter interface {
	Report(ctx context.Context, outcome Outcome)
}
