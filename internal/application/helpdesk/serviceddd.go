// Package helpdesk exposes the operator facing use cases: ticket lookup,
// parked message review, manual assignment and catalog maintenance.
package helpdesk

import (
	"context"

	"github.com/orris-inc/helpdesk/internal/application/helpdesk/dto"
	"github.com/orris-inc/helpdesk/internal/application/helpdesk/usecases"
	"github.com/orris-inc/helpdesk/internal/domain/ticket"
	"github.com/orris-inc/helpdesk/internal/shared/logger"
)

// Repositories groups the stores the helpdesk use cases read and write.
type Repositories struct {
	Tickets     ticket.TicketRepository
	Emails      ticket.EmailRepository
	Threads     ticket.ThreadRepository
	Queues      ticket.QueueRepository
	Statuses    ticket.StatusRepository
	Supporters  ticket.SupporterRepository
	Assignments ticket.AssignmentRepository
	Parked      ticket.ParkedMessageRepository
}

// ServiceDDD aggregates all helpdesk use cases
type ServiceDDD struct {
	getTicketUC       *usecases.GetTicketUseCase
	listTicketsUC     *usecases.ListTicketsUseCase
	listParkedUC      *usecases.ListParkedUseCase
	retryParkedUC     *usecases.RetryParkedUseCase
	assignSupporterUC *usecases.AssignSupporterUseCase
	catalogUC         *usecases.CatalogUseCase
	seedUC            *usecases.SeedUseCase
}

func NewServiceDDD(
	repos Repositories,
	tx usecases.Transactor,
	ingester usecases.Ingester,
	logger logger.Interface,
) *ServiceDDD {
	return &ServiceDDD{
		getTicketUC:       usecases.NewGetTicketUseCase(repos.Tickets, repos.Statuses, repos.Emails, repos.Threads, repos.Assignments, logger),
		listTicketsUC:     usecases.NewListTicketsUseCase(repos.Tickets, repos.Queues, repos.Statuses, logger),
		listParkedUC:      usecases.NewListParkedUseCase(repos.Parked, logger),
		retryParkedUC:     usecases.NewRetryParkedUseCase(repos.Parked, ingester, logger),
		assignSupporterUC: usecases.NewAssignSupporterUseCase(tx, repos.Tickets, repos.Supporters, repos.Assignments, logger),
		catalogUC:         usecases.NewCatalogUseCase(repos.Statuses, repos.Queues, repos.Supporters, logger),
		seedUC:            usecases.NewSeedUseCase(tx, repos.Statuses, repos.Queues, repos.Supporters, logger),
	}
}

func (s *ServiceDDD) GetTicket(ctx context.Context, number string) (*dto.TicketDetailDTO, error) {
	return s.getTicketUC.Execute(ctx, number)
}

func (s *ServiceDDD) ListTickets(ctx context.Context, query usecases.ListTicketsQuery) (*dto.ListTicketsResult, error) {
	return s.listTicketsUC.Execute(ctx, query)
}

func (s *ServiceDDD) ListParked(ctx context.Context, query usecases.ListParkedQuery) (*dto.ListParkedResult, error) {
	return s.listParkedUC.Execute(ctx, query)
}

func (s *ServiceDDD) RetryParked(ctx context.Context, parkedID uint) (*dto.RetryParkedResult, error) {
	return s.retryParkedUC.Execute(ctx, parkedID)
}

func (s *ServiceDDD) AssignSupporter(ctx context.Context, cmd usecases.AssignSupporterCommand) (*dto.TicketDTO, error) {
	return s.assignSupporterUC.Execute(ctx, cmd)
}

func (s *ServiceDDD) CreateStatus(ctx context.Context, cmd usecases.CreateStatusCommand) (*dto.StatusDTO, error) {
	return s.catalogUC.CreateStatus(ctx, cmd)
}

func (s *ServiceDDD) ListStatuses(ctx context.Context) ([]dto.StatusDTO, error) {
	return s.catalogUC.ListStatuses(ctx)
}

func (s *ServiceDDD) ListQueues(ctx context.Context) ([]dto.QueueDTO, error) {
	return s.catalogUC.ListQueues(ctx)
}

func (s *ServiceDDD) ListSupporters(ctx context.Context) ([]dto.SupporterDTO, error) {
	return s.catalogUC.ListSupporters(ctx)
}

func (s *ServiceDDD) SetSupporterActive(ctx context.Context, email string, active bool) (*dto.SupporterDTO, error) {
	return s.catalogUC.SetSupporterActive(ctx, email, active)
}

func (s *ServiceDDD) Seed(ctx context.Context, cmd usecases.SeedCommand) (*dto.SeedResult, error) {
	return s.seedUC.Execute(ctx, cmd)
}
