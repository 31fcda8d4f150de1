package usecases

import (
	"context"
	"errors"

	"github.com/orris-inc/helpdesk/internal/application/helpdesk/dto"
	"github.com/orris-inc/helpdesk/internal/domain/ticket"
	apperrors "github.com/orris-inc/helpdesk/internal/shared/errors"
	"github.com/orris-inc/helpdesk/internal/shared/logger"
)

type GetTicketUseCase struct {
	tickets     ticket.TicketRepository
	statuses    ticket.StatusRepository
	emails      ticket.EmailRepository
	threads     ticket.ThreadRepository
	assignments ticket.AssignmentRepository
	logger      logger.Interface
}

func NewGetTicketUseCase(
	tickets ticket.TicketRepository,
	statuses ticket.StatusRepository,
	emails ticket.EmailRepository,
	threads ticket.ThreadRepository,
	assignments ticket.AssignmentRepository,
	logger logger.Interface,
) *GetTicketUseCase {
	return &GetTicketUseCase{
		tickets:     tickets,
		statuses:    statuses,
		emails:      emails,
		threads:     threads,
		assignments: assignments,
		logger:      logger,
	}
}

// Execute loads the ticket with the given number together with its emails in
// arrival order, the thread edges between them and the assignment history.
func (uc *GetTicketUseCase) Execute(ctx context.Context, number string) (*dto.TicketDetailDTO, error) {
	if number == "" {
		return nil, apperrors.NewValidationError("ticket number is required")
	}

	t, err := uc.tickets.GetByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, ticket.ErrTicketNotFound) {
			return nil, apperrors.NewNotFoundError("ticket not found", number)
		}
		uc.logger.Errorw("failed to load ticket", "ticket_number", number, "error", err)
		return nil, apperrors.NewInternalError(err, "failed to load ticket")
	}

	base := ""
	if status, err := uc.statuses.GetByName(ctx, t.StatusName()); err == nil {
		base = status.Base().String()
	} else if !errors.Is(err, ticket.ErrStatusNotFound) {
		return nil, apperrors.NewInternalError(err, "failed to load ticket status")
	}

	emails, err := uc.emails.ListByTicket(ctx, t.ID())
	if err != nil {
		uc.logger.Errorw("failed to load emails", "ticket_id", t.ID(), "error", err)
		return nil, apperrors.NewInternalError(err, "failed to load emails")
	}
	edges, err := uc.threads.ListByTicket(ctx, t.ID())
	if err != nil {
		uc.logger.Errorw("failed to load thread", "ticket_id", t.ID(), "error", err)
		return nil, apperrors.NewInternalError(err, "failed to load thread")
	}
	assignments, err := uc.assignments.ListByTicket(ctx, t.ID())
	if err != nil {
		uc.logger.Errorw("failed to load assignments", "ticket_id", t.ID(), "error", err)
		return nil, apperrors.NewInternalError(err, "failed to load assignments")
	}

	detail := &dto.TicketDetailDTO{
		TicketDTO:   dto.ToTicketDTO(t, base),
		Emails:      make([]dto.EmailDTO, 0, len(emails)),
		Thread:      make([]dto.ThreadEdgeDTO, 0, len(edges)),
		Assignments: make([]dto.AssignmentDTO, 0, len(assignments)),
	}
	for _, e := range emails {
		detail.Emails = append(detail.Emails, dto.ToEmailDTO(e))
	}
	for _, edge := range edges {
		detail.Thread = append(detail.Thread, dto.ThreadEdgeDTO{
			ParentEmailID: edge.ParentEmailID,
			ChildEmailID:  edge.ChildEmailID,
		})
	}
	for _, a := range assignments {
		detail.Assignments = append(detail.Assignments, dto.AssignmentDTO{
			SupporterID: a.SupporterID(),
			AssignedAt:  a.AssignedAt(),
		})
	}
	return detail, nil
}
