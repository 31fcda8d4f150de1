package ingestion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/orris-inc/helpdesk/internal/domain/ticket"
	vo "github.com/orris-inc/helpdesk/internal/domain/ticket/valueobjects"
	"github.com/orris-inc/helpdesk/internal/shared/config"
	"github.com/orris-inc/helpdesk/internal/shared/logger"
)

// Draft is a ticket that will be created by the state updater. Its number
// is reserved inside the write transaction.
type Draft struct {
	Ticket *ticket.Ticket
	Queue  *ticket.Queue
}

// Allocator picks the queue and initial status for a message that starts a
// new conversation.
type Allocator struct {
	router   *Router
	queues   ticket.QueueRepository
	statuses ticket.StatusRepository
	workflow config.WorkflowConfig
	logger   logger.Interface
}

func NewAllocator(
	router *Router,
	queues ticket.QueueRepository,
	statuses ticket.StatusRepository,
	workflow config.WorkflowConfig,
	log logger.Interface,
) *Allocator {
	return &Allocator{
		router:   router,
		queues:   queues,
		statuses: statuses,
		workflow: workflow,
		logger:   log,
	}
}

func (a *Allocator) Allocate(ctx context.Context, msg *InboundMessage, now time.Time) (*Draft, error) {
	queue, err := a.resolveQueue(ctx, msg.To)
	if err != nil {
		return nil, err
	}

	statusName, err := a.initialStatus(ctx, queue)
	if err != nil {
		return nil, err
	}

	t, err := ticket.NewTicket(queue.ID(), msg.Subject, statusName, now)
	if err != nil {
		return nil, err
	}
	return &Draft{Ticket: t, Queue: queue}, nil
}

func (a *Allocator) resolveQueue(ctx context.Context, to string) (*ticket.Queue, error) {
	if prefix, ok := a.router.Match(to); ok {
		q, err := a.queues.GetByPrefix(ctx, prefix)
		if err == nil {
			return q, nil
		}
		if !errors.Is(err, ticket.ErrQueueNotFound) {
			return nil, err
		}
		a.logger.Warnw("routed queue does not exist, using default queue",
			"to", to,
			"queue", prefix,
			"default_queue", a.router.DefaultQueue(),
		)
	}

	def := a.router.DefaultQueue()
	if def == "" {
		return nil, &NoQueueResolvedError{Address: to}
	}
	q, err := a.queues.GetByPrefix(ctx, def)
	if err != nil {
		if errors.Is(err, ticket.ErrQueueNotFound) {
			return nil, &NoQueueResolvedError{Address: to, DefaultQueue: def}
		}
		return nil, err
	}
	return q, nil
}

// initialStatus prefers the queue's default status when it has base Open
// and falls back to the workflow's initial status otherwise.
func (a *Allocator) initialStatus(ctx context.Context, queue *ticket.Queue) (string, error) {
	if name := queue.DefaultStatus(); name != "" {
		s, err := a.statuses.GetByName(ctx, name)
		switch {
		case err == nil && s.Base() == vo.BaseOpen:
			return s.Name(), nil
		case err == nil:
			a.logger.Warnw("queue default status is not an open status, using workflow default",
				"queue", queue.Prefix(),
				"status", name,
				"base_status", s.Base().String(),
			)
		case errors.Is(err, ticket.ErrStatusNotFound):
			a.logger.Warnw("queue default status does not exist, using workflow default",
				"queue", queue.Prefix(),
				"status", name,
			)
		default:
			return "", err
		}
	}

	s, err := a.statuses.GetByName(ctx, a.workflow.InitialStatus)
	if err != nil {
		return "", fmt.Errorf("initial status %q: %w", a.workflow.InitialStatus, err)
	}
	return s.Name(), nil
}
