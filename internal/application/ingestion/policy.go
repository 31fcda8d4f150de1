package ingestion

import (
	"fmt"

	vo "github.com/orris-inc/helpdesk/internal/domain/ticket/valueobjects"
	"github.com/orris-inc/helpdesk/internal/shared/config"
)

// Transition is the status change an inbound reply causes.
type Transition struct {
	StatusName string
	Changed    bool
	Reopened   bool
}

// StatusPolicy decides the status of an existing ticket after an inbound
// reply, switching over the base status only.
type StatusPolicy struct {
	activeStatus string
	reopenStatus string
}

func NewStatusPolicy(workflow config.WorkflowConfig) *StatusPolicy {
	return &StatusPolicy{
		activeStatus: workflow.ActiveStatus,
		reopenStatus: workflow.ReopenStatus,
	}
}

// OnInboundReply returns the transition for a ticket currently in
// currentStatus with the given base. A closed ticket only reopens for a
// header chain match; for a subject match it returns ErrTicketClosed.
func (p *StatusPolicy) OnInboundReply(currentStatus string, base vo.BaseStatus, rule vo.MatchRule) (Transition, error) {
	switch base {
	case vo.BaseOpen, vo.BaseWaiting:
		return p.moveTo(currentStatus, p.activeStatus, false), nil
	case vo.BaseDoing:
		return Transition{StatusName: currentStatus}, nil
	case vo.BaseClosed:
		if !rule.IsHeaderChain() {
			return Transition{}, ErrTicketClosed
		}
		return p.moveTo(currentStatus, p.reopenStatus, true), nil
	}
	return Transition{}, fmt.Errorf("unknown base status %q", base)
}

func (p *StatusPolicy) moveTo(current, next string, reopened bool) Transition {
	if current == next {
		return Transition{StatusName: current}
	}
	return Transition{StatusName: next, Changed: true, Reopened: reopened}
}
