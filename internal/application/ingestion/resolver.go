package ingestion

import (
	"context"
	"errors"
	"fmt"

	"github.com/orris-inc/helpdesk/internal/domain/ticket"
	vo "github.com/orris-inc/helpdesk/internal/domain/ticket/valueobjects"
	"github.com/orris-inc/helpdesk/internal/shared/logger"
)

// Resolution is where a message belongs. A zero TicketID means no existing
// conversation matched.
type Resolution struct {
	TicketID     uint
	TicketNumber string
	Rule         vo.MatchRule
	// ParentEmailID is the stored email the new one replies to, if known.
	ParentEmailID uint
	// ChainEdges link adjacent stored emails of the reference chain.
	ChainEdges []ticket.ThreadEdge
}

func (r *Resolution) Matched() bool {
	return r != nil && r.TicketID != 0
}

func noMatch() *Resolution {
	return &Resolution{Rule: vo.MatchNone}
}

// Resolver finds the ticket a message continues. Rules are tried in a
// fixed order and the first hit wins: In-Reply-To, References newest to
// oldest, then a ticket token in the subject.
type Resolver struct {
	emails        ticket.EmailRepository
	tickets       ticket.TicketRepository
	queues        ticket.QueueRepository
	statuses      ticket.StatusRepository
	requireSender bool
	logger        logger.Interface
}

func NewResolver(
	emails ticket.EmailRepository,
	tickets ticket.TicketRepository,
	queues ticket.QueueRepository,
	statuses ticket.StatusRepository,
	requireSender bool,
	log logger.Interface,
) *Resolver {
	return &Resolver{
		emails:        emails,
		tickets:       tickets,
		queues:        queues,
		statuses:      statuses,
		requireSender: requireSender,
		logger:        log,
	}
}

func (r *Resolver) Resolve(ctx context.Context, msg *InboundMessage) (*Resolution, error) {
	ids := make([]string, 0, len(msg.References)+1)
	if msg.InReplyTo != "" {
		ids = append(ids, msg.InReplyTo)
	}
	ids = append(ids, msg.References...)

	var stored map[string]*ticket.Email
	if len(ids) > 0 {
		var err error
		stored, err = r.emails.FindByMessageIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("look up referenced emails: %w", err)
		}
	}

	if parent, ok := stored[msg.InReplyTo]; ok && msg.InReplyTo != "" {
		return r.headerMatch(ctx, parent, vo.MatchInReplyTo, msg.References, stored)
	}

	for i := len(msg.References) - 1; i >= 0; i-- {
		if parent, ok := stored[msg.References[i]]; ok {
			return r.headerMatch(ctx, parent, vo.MatchReferences, msg.References, stored)
		}
	}

	return r.matchSubject(ctx, msg)
}

func (r *Resolver) headerMatch(
	ctx context.Context,
	parent *ticket.Email,
	rule vo.MatchRule,
	refs []string,
	stored map[string]*ticket.Email,
) (*Resolution, error) {
	t, err := r.tickets.GetByID(ctx, parent.TicketID())
	if err != nil {
		return nil, fmt.Errorf("load ticket %d of email %s: %w", parent.TicketID(), parent.MessageID(), err)
	}
	return &Resolution{
		TicketID:      t.ID(),
		TicketNumber:  t.Number().String(),
		Rule:          rule,
		ParentEmailID: parent.ID(),
		ChainEdges:    chainEdges(refs, stored),
	}, nil
}

// chainEdges returns an edge for every adjacent pair of the reference chain
// where both emails are stored.
func chainEdges(refs []string, stored map[string]*ticket.Email) []ticket.ThreadEdge {
	var edges []ticket.ThreadEdge
	for i := 0; i+1 < len(refs); i++ {
		parent, okParent := stored[refs[i]]
		child, okChild := stored[refs[i+1]]
		if !okParent || !okChild {
			continue
		}
		edge, err := ticket.NewThreadEdge(parent.ID(), child.ID())
		if err != nil {
			continue
		}
		edges = append(edges, edge)
	}
	return ticket.DedupEdges(edges)
}

func (r *Resolver) matchSubject(ctx context.Context, msg *InboundMessage) (*Resolution, error) {
	for _, number := range vo.FindTicketNumbers(msg.Subject) {
		if _, err := r.queues.GetByPrefix(ctx, number.Prefix()); err != nil {
			if errors.Is(err, ticket.ErrQueueNotFound) {
				continue
			}
			return nil, err
		}

		t, err := r.tickets.GetByNumber(ctx, number.String())
		if err != nil {
			if errors.Is(err, ticket.ErrTicketNotFound) {
				continue
			}
			return nil, err
		}

		status, err := r.statuses.GetByName(ctx, t.StatusName())
		if err != nil {
			return nil, fmt.Errorf("load status %q of ticket %s: %w", t.StatusName(), t.Number(), err)
		}
		if status.Base().IsClosed() {
			r.logger.Debugw("subject token points at closed ticket, not reopening",
				"message_id", msg.MessageID,
				"ticket_number", t.Number().String(),
			)
			continue
		}

		if r.requireSender {
			ok, err := r.emails.HasParticipant(ctx, t.ID(), msg.From)
			if err != nil {
				return nil, err
			}
			if !ok {
				r.logger.Infow("subject token ignored, sender not part of the conversation",
					"message_id", msg.MessageID,
					"ticket_number", t.Number().String(),
					"from", msg.From,
				)
				continue
			}
		}

		return &Resolution{
			TicketID:     t.ID(),
			TicketNumber: t.Number().String(),
			Rule:         vo.MatchSubjectToken,
		}, nil
	}
	return noMatch(), nil
}
