package ingestion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/orris-inc/helpdesk/internal/domain/ticket"
	vo "github.com/orris-inc/helpdesk/internal/domain/ticket/valueobjects"
	"github.com/orris-inc/helpdesk/internal/shared/logger"
)

// Transactor runs fn inside one database transaction carried by ctx.
type Transactor interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ApplyResult is the committed state change of one message.
type ApplyResult struct {
	Ticket         *ticket.Ticket
	Email          *ticket.Email
	Created        bool
	Reopened       bool
	PreviousStatus string
}

// UpdaterRepositories groups the stores the state updater writes to.
type UpdaterRepositories struct {
	Tickets     ticket.TicketRepository
	Emails      ticket.EmailRepository
	Threads     ticket.ThreadRepository
	Assignments ticket.AssignmentRepository
	Supporters  ticket.SupporterRepository
	Statuses    ticket.StatusRepository
}

// StateUpdater applies a resolution in a single transaction: ticket row,
// email row, thread edges and assignment bookkeeping commit together or not
// at all.
type StateUpdater struct {
	tx         Transactor
	repos      UpdaterRepositories
	numbers    ticket.NumberGenerator
	policy     *StatusPolicy
	autoAssign bool
	logger     logger.Interface
}

func NewStateUpdater(
	tx Transactor,
	repos UpdaterRepositories,
	numbers ticket.NumberGenerator,
	policy *StatusPolicy,
	autoAssign bool,
	log logger.Interface,
) *StateUpdater {
	return &StateUpdater{
		tx:         tx,
		repos:      repos,
		numbers:    numbers,
		policy:     policy,
		autoAssign: autoAssign,
		logger:     log,
	}
}

// Apply stores msg either on the ticket named by res or, when draft is set,
// on a new ticket.
func (u *StateUpdater) Apply(ctx context.Context, msg *InboundMessage, res *Resolution, draft *Draft, now time.Time) (*ApplyResult, error) {
	if draft == nil && !res.Matched() {
		return nil, errors.New("apply requires a matched resolution or a draft ticket")
	}

	var result *ApplyResult
	err := u.tx.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		if draft != nil {
			result, err = u.createTicket(ctx, draft, now)
		} else {
			result, err = u.continueTicket(ctx, res, now)
		}
		if err != nil {
			return err
		}

		email, err := ticket.NewEmail(ticket.EmailParams{
			TicketID:    result.Ticket.ID(),
			MessageID:   msg.MessageID,
			Direction:   vo.DirectionInbound,
			FromAddress: msg.From,
			ToAddress:   msg.To,
			Subject:     msg.Subject,
			Body:        msg.Body,
			ReceivedAt:  msg.ReceivedAt,
			InReplyTo:   msg.InReplyTo,
			References:  msg.References,
		})
		if err != nil {
			return err
		}
		if err := u.repos.Emails.Create(ctx, email); err != nil {
			return err
		}
		result.Email = email

		edges := make([]ticket.ThreadEdge, 0, 1)
		if res != nil {
			edges = append(edges, res.ChainEdges...)
			if res.ParentEmailID != 0 && res.ParentEmailID != email.ID() {
				edges = append(edges, ticket.ThreadEdge{ParentEmailID: res.ParentEmailID, ChildEmailID: email.ID()})
			}
		}
		if edges = ticket.DedupEdges(edges); len(edges) > 0 {
			if err := u.repos.Threads.CreateEdges(ctx, edges); err != nil {
				return fmt.Errorf("create thread edges: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (u *StateUpdater) createTicket(ctx context.Context, draft *Draft, now time.Time) (*ApplyResult, error) {
	t := draft.Ticket

	number, err := u.numbers.Generate(ctx, draft.Queue.Prefix())
	if err != nil {
		return nil, err
	}
	if err := t.SetNumber(number); err != nil {
		return nil, err
	}

	var supporter *ticket.Supporter
	if u.autoAssign {
		supporter, err = u.repos.Supporters.LeastLoaded(ctx)
		switch {
		case errors.Is(err, ticket.ErrSupporterNotFound):
			u.logger.Debugw("no active supporter, ticket stays unassigned", "ticket_number", number.String())
			supporter = nil
		case err != nil:
			return nil, fmt.Errorf("pick supporter: %w", err)
		default:
			if err := t.AssignTo(supporter.ID(), now); err != nil {
				return nil, err
			}
		}
	}

	if err := u.repos.Tickets.Create(ctx, t); err != nil {
		return nil, err
	}

	if supporter != nil {
		assignment, err := ticket.NewAssignment(t.ID(), supporter.ID(), now)
		if err != nil {
			return nil, err
		}
		if err := u.repos.Assignments.Create(ctx, assignment); err != nil {
			return nil, fmt.Errorf("record assignment: %w", err)
		}
	}

	return &ApplyResult{Ticket: t, Created: true}, nil
}

func (u *StateUpdater) continueTicket(ctx context.Context, res *Resolution, now time.Time) (*ApplyResult, error) {
	t, err := u.repos.Tickets.GetByIDForUpdate(ctx, res.TicketID)
	if err != nil {
		return nil, err
	}

	current, err := u.repos.Statuses.GetByName(ctx, t.StatusName())
	if err != nil {
		return nil, fmt.Errorf("status %q of ticket %s: %w", t.StatusName(), t.Number(), err)
	}

	transition, err := u.policy.OnInboundReply(t.StatusName(), current.Base(), res.Rule)
	if err != nil {
		return nil, err
	}

	result := &ApplyResult{Ticket: t, PreviousStatus: t.StatusName(), Reopened: transition.Reopened}
	if transition.Changed {
		if _, err := u.repos.Statuses.GetByName(ctx, transition.StatusName); err != nil {
			return nil, fmt.Errorf("target status %q: %w", transition.StatusName, err)
		}
		if err := t.ChangeStatus(transition.StatusName, now); err != nil {
			return nil, err
		}
	}
	t.Touch(now)

	if err := u.repos.Tickets.Update(ctx, t); err != nil {
		return nil, err
	}
	return result, nil
}
