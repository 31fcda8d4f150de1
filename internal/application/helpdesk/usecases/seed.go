package usecases

import (
	"context"
	"errors"
	"fmt"

	"github.com/orris-inc/helpdesk/internal/application/helpdesk/dto"
	"github.com/orris-inc/helpdesk/internal/domain/ticket"
	vo "github.com/orris-inc/helpdesk/internal/domain/ticket/valueobjects"
	"github.com/orris-inc/helpdesk/internal/shared/logger"
)

type SeedStatus struct {
	Name        string
	BaseStatus  string
	Description string
}

type SeedQueue struct {
	Name          string
	Prefix        string
	DefaultStatus string
}

type SeedSupporter struct {
	Email    string
	Name     string
	Inactive bool
}

// SeedCommand is a set of catalog rows. Statuses are created first so queues
// can name their default status.
type SeedCommand struct {
	Statuses   []SeedStatus
	Queues     []SeedQueue
	Supporters []SeedSupporter
}

// SeedUseCase creates catalog rows. Rows that already exist are left alone,
// so a seed file can be applied repeatedly.
type SeedUseCase struct {
	tx         Transactor
	statuses   ticket.StatusRepository
	queues     ticket.QueueRepository
	supporters ticket.SupporterRepository
	logger     logger.Interface
}

func NewSeedUseCase(
	tx Transactor,
	statuses ticket.StatusRepository,
	queues ticket.QueueRepository,
	supporters ticket.SupporterRepository,
	logger logger.Interface,
) *SeedUseCase {
	return &SeedUseCase{
		tx:         tx,
		statuses:   statuses,
		queues:     queues,
		supporters: supporters,
		logger:     logger,
	}
}

func (uc *SeedUseCase) Execute(ctx context.Context, cmd SeedCommand) (*dto.SeedResult, error) {
	result := &dto.SeedResult{}

	err := uc.tx.RunInTransaction(ctx, func(ctx context.Context) error {
		*result = dto.SeedResult{}

		for _, s := range cmd.Statuses {
			created, err := uc.seedStatus(ctx, s)
			if err != nil {
				return err
			}
			count(result, &result.Statuses, created)
		}
		for _, q := range cmd.Queues {
			created, err := uc.seedQueue(ctx, q)
			if err != nil {
				return err
			}
			count(result, &result.Queues, created)
		}
		for _, s := range cmd.Supporters {
			created, err := uc.seedSupporter(ctx, s)
			if err != nil {
				return err
			}
			count(result, &result.Supporters, created)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Infow("seed applied",
		"statuses", result.Statuses,
		"queues", result.Queues,
		"supporters", result.Supporters,
		"skipped", result.Skipped,
	)
	return result, nil
}

func count(result *dto.SeedResult, created *int, ok bool) {
	if ok {
		*created++
		return
	}
	result.Skipped++
}

func (uc *SeedUseCase) seedStatus(ctx context.Context, s SeedStatus) (bool, error) {
	if _, err := uc.statuses.GetByName(ctx, s.Name); err == nil {
		return false, nil
	} else if !errors.Is(err, ticket.ErrStatusNotFound) {
		return false, err
	}

	base, err := vo.NewBaseStatus(s.BaseStatus)
	if err != nil {
		return false, fmt.Errorf("status %q: %w", s.Name, err)
	}
	def, err := ticket.NewStatusDefinition(s.Name, base, s.Description)
	if err != nil {
		return false, err
	}
	if err := uc.statuses.Create(ctx, def); err != nil {
		return false, fmt.Errorf("create status %q: %w", s.Name, err)
	}
	return true, nil
}

func (uc *SeedUseCase) seedQueue(ctx context.Context, q SeedQueue) (bool, error) {
	if _, err := uc.queues.GetByPrefix(ctx, q.Prefix); err == nil {
		return false, nil
	} else if !errors.Is(err, ticket.ErrQueueNotFound) {
		return false, err
	}

	if _, err := uc.statuses.GetByName(ctx, q.DefaultStatus); err != nil {
		return false, fmt.Errorf("queue %s default status %q: %w", q.Prefix, q.DefaultStatus, err)
	}
	queue, err := ticket.NewQueue(q.Name, q.Prefix, q.DefaultStatus)
	if err != nil {
		return false, err
	}
	if err := uc.queues.Create(ctx, queue); err != nil {
		return false, fmt.Errorf("create queue %s: %w", q.Prefix, err)
	}
	return true, nil
}

func (uc *SeedUseCase) seedSupporter(ctx context.Context, s SeedSupporter) (bool, error) {
	if _, err := uc.supporters.GetByEmail(ctx, s.Email); err == nil {
		return false, nil
	} else if !errors.Is(err, ticket.ErrSupporterNotFound) {
		return false, err
	}

	supporter, err := ticket.NewSupporter(s.Email, s.Name)
	if err != nil {
		return false, err
	}
	if s.Inactive {
		supporter.Deactivate()
	}
	if err := uc.supporters.Create(ctx, supporter); err != nil {
		return false, fmt.Errorf("create supporter %s: %w", s.Email, err)
	}
	return true, nil
}
