package usecases

import (
	"context"
	"errors"
	"time"

	"github.com/orris-inc/helpdesk/internal/application/helpdesk/dto"
	"github.com/orris-inc/helpdesk/internal/domain/ticket"
	apperrors "github.com/orris-inc/helpdesk/internal/shared/errors"
	"github.com/orris-inc/helpdesk/internal/shared/logger"
)

type AssignSupporterCommand struct {
	TicketNumber   string
	SupporterEmail string
}

// AssignSupporterUseCase hands a ticket to a supporter and appends the pair
// to the ticket's assignment history.
type AssignSupporterUseCase struct {
	tx          Transactor
	tickets     ticket.TicketRepository
	supporters  ticket.SupporterRepository
	assignments ticket.AssignmentRepository
	now         func() time.Time
	logger      logger.Interface
}

func NewAssignSupporterUseCase(
	tx Transactor,
	tickets ticket.TicketRepository,
	supporters ticket.SupporterRepository,
	assignments ticket.AssignmentRepository,
	logger logger.Interface,
) *AssignSupporterUseCase {
	return &AssignSupporterUseCase{
		tx:          tx,
		tickets:     tickets,
		supporters:  supporters,
		assignments: assignments,
		now:         time.Now,
		logger:      logger,
	}
}

func (uc *AssignSupporterUseCase) Execute(ctx context.Context, cmd AssignSupporterCommand) (*dto.TicketDTO, error) {
	if cmd.TicketNumber == "" {
		return nil, apperrors.NewValidationError("ticket number is required")
	}
	if cmd.SupporterEmail == "" {
		return nil, apperrors.NewValidationError("supporter email is required")
	}

	supporter, err := uc.supporters.GetByEmail(ctx, cmd.SupporterEmail)
	if err != nil {
		if errors.Is(err, ticket.ErrSupporterNotFound) {
			return nil, apperrors.NewNotFoundError("supporter not found", cmd.SupporterEmail)
		}
		return nil, apperrors.NewInternalError(err, "failed to load supporter")
	}
	if !supporter.IsActive() {
		return nil, apperrors.NewValidationError("supporter is not active", cmd.SupporterEmail)
	}

	var assigned *ticket.Ticket
	err = uc.tx.RunInTransaction(ctx, func(ctx context.Context) error {
		t, err := uc.tickets.GetByNumber(ctx, cmd.TicketNumber)
		if err != nil {
			return err
		}
		if t, err = uc.tickets.GetByIDForUpdate(ctx, t.ID()); err != nil {
			return err
		}

		now := uc.now().UTC()
		if err := t.AssignTo(supporter.ID(), now); err != nil {
			return err
		}
		if err := uc.tickets.Update(ctx, t); err != nil {
			return err
		}
		assignment, err := ticket.NewAssignment(t.ID(), supporter.ID(), now)
		if err != nil {
			return err
		}
		if err := uc.assignments.Create(ctx, assignment); err != nil {
			return err
		}
		assigned = t
		return nil
	})
	if err != nil {
		if errors.Is(err, ticket.ErrTicketNotFound) {
			return nil, apperrors.NewNotFoundError("ticket not found", cmd.TicketNumber)
		}
		uc.logger.Errorw("failed to assign supporter",
			"ticket_number", cmd.TicketNumber,
			"supporter", cmd.SupporterEmail,
			"error", err,
		)
		return nil, apperrors.NewInternalError(err, "failed to assign supporter")
	}

	uc.logger.Infow("supporter assigned",
		"ticket_number", cmd.TicketNumber,
		"supporter_id", supporter.ID(),
	)
	result := dto.ToTicketDTO(assigned, "")
	return &result, nil
}
