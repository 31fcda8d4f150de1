package usecases

import (
	"context"
	"errors"

	"github.com/orris-inc/helpdesk/internal/application/helpdesk/dto"
	"github.com/orris-inc/helpdesk/internal/domain/ticket"
	apperrors "github.com/orris-inc/helpdesk/internal/shared/errors"
	"github.com/orris-inc/helpdesk/internal/shared/logger"
)

type ListTicketsQuery struct {
	QueuePrefix string
	Status      string
	SupporterID *uint
	Page        int
	PageSize    int
}

type ListTicketsUseCase struct {
	tickets  ticket.TicketRepository
	queues   ticket.QueueRepository
	statuses ticket.StatusRepository
	logger   logger.Interface
}

func NewListTicketsUseCase(
	tickets ticket.TicketRepository,
	queues ticket.QueueRepository,
	statuses ticket.StatusRepository,
	logger logger.Interface,
) *ListTicketsUseCase {
	return &ListTicketsUseCase{
		tickets:  tickets,
		queues:   queues,
		statuses: statuses,
		logger:   logger,
	}
}

func (uc *ListTicketsUseCase) Execute(ctx context.Context, query ListTicketsQuery) (*dto.ListTicketsResult, error) {
	filter := ticket.TicketFilter{
		SupporterID: query.SupporterID,
		Page:        query.Page,
		PageSize:    query.PageSize,
	}

	if query.QueuePrefix != "" {
		queue, err := uc.queues.GetByPrefix(ctx, query.QueuePrefix)
		if err != nil {
			if errors.Is(err, ticket.ErrQueueNotFound) {
				return nil, apperrors.NewNotFoundError("queue not found", query.QueuePrefix)
			}
			return nil, apperrors.NewInternalError(err, "failed to load queue")
		}
		queueID := queue.ID()
		filter.QueueID = &queueID
	}
	if query.Status != "" {
		filter.StatusName = &query.Status
	}

	tickets, total, err := uc.tickets.List(ctx, filter)
	if err != nil {
		uc.logger.Errorw("failed to list tickets", "error", err)
		return nil, apperrors.NewInternalError(err, "failed to list tickets")
	}

	bases, err := uc.baseStatuses(ctx)
	if err != nil {
		uc.logger.Errorw("failed to list statuses", "error", err)
		return nil, apperrors.NewInternalError(err, "failed to list statuses")
	}

	result := &dto.ListTicketsResult{
		Items: make([]dto.TicketDTO, 0, len(tickets)),
		Total: total,
	}
	for _, t := range tickets {
		result.Items = append(result.Items, dto.ToTicketDTO(t, bases[t.StatusName()]))
	}
	return result, nil
}

func (uc *ListTicketsUseCase) baseStatuses(ctx context.Context) (map[string]string, error) {
	defs, err := uc.statuses.List(ctx)
	if err != nil {
		return nil, err
	}
	bases := make(map[string]string, len(defs))
	for _, d := range defs {
		bases[d.Name()] = d.Base().String()
	}
	return bases, nil
}
