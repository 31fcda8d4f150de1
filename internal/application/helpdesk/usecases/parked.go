package usecases

import (
	"context"
	"errors"
	"time"

	"github.com/orris-inc/helpdesk/internal/application/helpdesk/dto"
	"github.com/orris-inc/helpdesk/internal/application/ingestion"
	"github.com/orris-inc/helpdesk/internal/domain/ticket"
	apperrors "github.com/orris-inc/helpdesk/internal/shared/errors"
	"github.com/orris-inc/helpdesk/internal/shared/logger"
)

type ListParkedQuery struct {
	IncludeResolved bool
	Page            int
	PageSize        int
}

type ListParkedUseCase struct {
	parked ticket.ParkedMessageRepository
	logger logger.Interface
}

func NewListParkedUseCase(parked ticket.ParkedMessageRepository, logger logger.Interface) *ListParkedUseCase {
	return &ListParkedUseCase{parked: parked, logger: logger}
}

func (uc *ListParkedUseCase) Execute(ctx context.Context, query ListParkedQuery) (*dto.ListParkedResult, error) {
	msgs, total, err := uc.parked.List(ctx, ticket.ParkedFilter{
		IncludeResolved: query.IncludeResolved,
		Page:            query.Page,
		PageSize:        query.PageSize,
	})
	if err != nil {
		uc.logger.Errorw("failed to list parked messages", "error", err)
		return nil, apperrors.NewInternalError(err, "failed to list parked messages")
	}

	result := &dto.ListParkedResult{
		Items: make([]dto.ParkedMessageDTO, 0, len(msgs)),
		Total: total,
	}
	for _, m := range msgs {
		result.Items = append(result.Items, dto.ToParkedMessageDTO(m))
	}
	return result, nil
}

// RetryParkedUseCase runs a parked message through ingestion again, usually
// after a normalizer fix. The parked row is resolved when the message
// reaches a ticket or turns out to be recorded already.
type RetryParkedUseCase struct {
	parked   ticket.ParkedMessageRepository
	ingester Ingester
	now      func() time.Time
	logger   logger.Interface
}

func NewRetryParkedUseCase(parked ticket.ParkedMessageRepository, ingester Ingester, logger logger.Interface) *RetryParkedUseCase {
	return &RetryParkedUseCase{
		parked:   parked,
		ingester: ingester,
		now:      time.Now,
		logger:   logger,
	}
}

func (uc *RetryParkedUseCase) Execute(ctx context.Context, parkedID uint) (*dto.RetryParkedResult, error) {
	p, err := uc.parked.GetByID(ctx, parkedID)
	if err != nil {
		if errors.Is(err, ticket.ErrParkedNotFound) {
			return nil, apperrors.NewNotFoundError("parked message not found")
		}
		uc.logger.Errorw("failed to load parked message", "parked_id", parkedID, "error", err)
		return nil, apperrors.NewInternalError(err, "failed to load parked message")
	}
	if p.IsResolved() {
		return nil, apperrors.NewConflictError("parked message already resolved")
	}

	result := &dto.RetryParkedResult{ParkedID: p.ID()}

	msg, err := uc.ingester.Normalize(ingestion.RawMessage{
		UID:       p.SourceUID(),
		Data:      p.Raw(),
		FetchedAt: p.ParkedAt(),
	})
	if err != nil {
		result.Outcome = ingestion.OutcomeFailed.String()
		result.Reason = err.Error()
	} else {
		out := uc.ingester.Ingest(ctx, p.SourceUID(), msg)
		result.Outcome = out.Kind.String()
		result.TicketNumber = out.TicketNumber
		result.Reason = out.Reason
		result.Resolved = out.Kind != ingestion.OutcomeFailed
	}

	p.MarkRetried(uc.now().UTC(), result.Resolved, result.Reason)
	if err := uc.parked.Update(ctx, p); err != nil {
		uc.logger.Errorw("failed to update parked message", "parked_id", p.ID(), "error", err)
		return nil, apperrors.NewInternalError(err, "failed to update parked message")
	}

	uc.logger.Infow("parked message retried",
		"parked_id", p.ID(),
		"outcome", result.Outcome,
		"resolved", result.Resolved,
		"ticket_number", result.TicketNumber,
	)
	return result, nil
}
