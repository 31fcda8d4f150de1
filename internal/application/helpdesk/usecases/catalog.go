package usecases

import (
	"context"
	"errors"

	"github.com/orris-inc/helpdesk/internal/application/helpdesk/dto"
	"github.com/orris-inc/helpdesk/internal/domain/ticket"
	vo "github.com/orris-inc/helpdesk/internal/domain/ticket/valueobjects"
	apperrors "github.com/orris-inc/helpdesk/internal/shared/errors"
	"github.com/orris-inc/helpdesk/internal/shared/logger"
)

type CreateStatusCommand struct {
	Name        string
	BaseStatus  string
	Description string
}

// CatalogUseCase manages the lookup tables: status definitions, queues and
// supporters.
type CatalogUseCase struct {
	statuses   ticket.StatusRepository
	queues     ticket.QueueRepository
	supporters ticket.SupporterRepository
	logger     logger.Interface
}

func NewCatalogUseCase(
	statuses ticket.StatusRepository,
	queues ticket.QueueRepository,
	supporters ticket.SupporterRepository,
	logger logger.Interface,
) *CatalogUseCase {
	return &CatalogUseCase{
		statuses:   statuses,
		queues:     queues,
		supporters: supporters,
		logger:     logger,
	}
}

func (uc *CatalogUseCase) CreateStatus(ctx context.Context, cmd CreateStatusCommand) (*dto.StatusDTO, error) {
	base, err := vo.NewBaseStatus(cmd.BaseStatus)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	def, err := ticket.NewStatusDefinition(cmd.Name, base, cmd.Description)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	if err := uc.statuses.Create(ctx, def); err != nil {
		if errors.Is(err, ticket.ErrDuplicateStatus) {
			return nil, apperrors.NewConflictError("status already exists", cmd.Name)
		}
		uc.logger.Errorw("failed to create status", "name", cmd.Name, "error", err)
		return nil, apperrors.NewInternalError(err, "failed to create status")
	}

	uc.logger.Infow("status created", "name", def.Name(), "base_status", base.String())
	result := dto.ToStatusDTO(def)
	return &result, nil
}

func (uc *CatalogUseCase) ListStatuses(ctx context.Context) ([]dto.StatusDTO, error) {
	defs, err := uc.statuses.List(ctx)
	if err != nil {
		uc.logger.Errorw("failed to list statuses", "error", err)
		return nil, apperrors.NewInternalError(err, "failed to list statuses")
	}
	items := make([]dto.StatusDTO, 0, len(defs))
	for _, d := range defs {
		items = append(items, dto.ToStatusDTO(d))
	}
	return items, nil
}

func (uc *CatalogUseCase) ListQueues(ctx context.Context) ([]dto.QueueDTO, error) {
	queues, err := uc.queues.List(ctx)
	if err != nil {
		uc.logger.Errorw("failed to list queues", "error", err)
		return nil, apperrors.NewInternalError(err, "failed to list queues")
	}
	items := make([]dto.QueueDTO, 0, len(queues))
	for _, q := range queues {
		items = append(items, dto.ToQueueDTO(q))
	}
	return items, nil
}

func (uc *CatalogUseCase) ListSupporters(ctx context.Context) ([]dto.SupporterDTO, error) {
	supporters, err := uc.supporters.List(ctx)
	if err != nil {
		uc.logger.Errorw("failed to list supporters", "error", err)
		return nil, apperrors.NewInternalError(err, "failed to list supporters")
	}
	items := make([]dto.SupporterDTO, 0, len(supporters))
	for _, s := range supporters {
		items = append(items, dto.ToSupporterDTO(s))
	}
	return items, nil
}

// SetSupporterActive toggles whether a supporter takes new tickets.
func (uc *CatalogUseCase) SetSupporterActive(ctx context.Context, email string, active bool) (*dto.SupporterDTO, error) {
	s, err := uc.supporters.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ticket.ErrSupporterNotFound) {
			return nil, apperrors.NewNotFoundError("supporter not found", email)
		}
		return nil, apperrors.NewInternalError(err, "failed to load supporter")
	}
	if active {
		s.Activate()
	} else {
		s.Deactivate()
	}
	if err := uc.supporters.Update(ctx, s); err != nil {
		uc.logger.Errorw("failed to update supporter", "email", email, "error", err)
		return nil, apperrors.NewInternalError(err, "failed to update supporter")
	}
	result := dto.ToSupporterDTO(s)
	return &result, nil
}
