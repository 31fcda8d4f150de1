package usecases_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/orris-inc/helpdesk/internal/application/helpdesk/usecases"
	"github.com/orris-inc/helpdesk/internal/domain/ticket"
	vo "github.com/orris-inc/helpdesk/internal/domain/ticket/valueobjects"
	"github.com/orris-inc/helpdesk/internal/infrastructure/database/testutil"
	"github.com/orris-inc/helpdesk/internal/infrastructure/repository"
	"github.com/orris-inc/helpdesk/internal/shared/db"
	"github.com/orris-inc/helpdesk/internal/shared/logger"
)

type fixture struct {
	tx          *db.TransactionManager
	tickets     *repository.TicketRepository
	emails      *repository.EmailRepository
	threads     *repository.ThreadRepository
	queues      *repository.QueueRepository
	statuses    *repository.StatusRepository
	supporters  *repository.SupporterRepository
	assignments *repository.AssignmentRepository
	parked      *repository.ParkedMessageRepository
	log         logger.Interface
}

var baseSeed = usecases.SeedCommand{
	Statuses: []usecases.SeedStatus{
		{Name: "New", BaseStatus: "Open"},
		{Name: "In Progress", BaseStatus: "Doing"},
		{Name: "Closed", BaseStatus: "Closed"},
	},
	Queues: []usecases.SeedQueue{
		{Name: "Default", Prefix: "DEF", DefaultStatus: "New"},
		{Name: "Billing", Prefix: "BILL", DefaultStatus: "New"},
	},
	Supporters: []usecases.SeedSupporter{
		{Email: "ann@acme.example", Name: "Ann"},
		{Email: "bob@acme.example", Name: "Bob", Inactive: true},
	},
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gdb := testutil.NewDB(t)
	f := &fixture{
		tx:          db.NewTransactionManager(gdb),
		tickets:     repository.NewTicketRepository(gdb),
		emails:      repository.NewEmailRepository(gdb),
		threads:     repository.NewThreadRepository(gdb),
		queues:      repository.NewQueueRepository(gdb),
		statuses:    repository.NewStatusRepository(gdb),
		supporters:  repository.NewSupporterRepository(gdb),
		assignments: repository.NewAssignmentRepository(gdb),
		parked:      repository.NewParkedMessageRepository(gdb),
		log:         logger.NewNopLogger(),
	}
	_, err := f.seedUseCase().Execute(context.Background(), baseSeed)
	require.NoError(t, err)
	return f
}

func (f *fixture) seedUseCase() *usecases.SeedUseCase {
	return usecases.NewSeedUseCase(f.tx, f.statuses, f.queues, f.supporters, f.log)
}

func (f *fixture) queue(t *testing.T, prefix string) *ticket.Queue {
	t.Helper()
	q, err := f.queues.GetByPrefix(context.Background(), prefix)
	require.NoError(t, err)
	return q
}

func (f *fixture) createTicket(t *testing.T, prefix string, seq int64, subject, status string, at time.Time) *ticket.Ticket {
	t.Helper()
	tk, err := ticket.NewTicket(f.queue(t, prefix).ID(), subject, status, at)
	require.NoError(t, err)
	number, err := vo.NewTicketNumber(prefix, seq)
	require.NoError(t, err)
	require.NoError(t, tk.SetNumber(number))
	require.NoError(t, f.tickets.Create(context.Background(), tk))
	return tk
}

func (f *fixture) createEmail(t *testing.T, ticketID uint, messageID string, at time.Time) *ticket.Email {
	t.Helper()
	e, err := ticket.NewEmail(ticket.EmailParams{
		TicketID:    ticketID,
		MessageID:   messageID,
		Direction:   vo.DirectionInbound,
		FromAddress: "alice@example.com",
		ToAddress:   "support@acme.example",
		Subject:     "Printer broken",
		Body:        "it is broken",
		ReceivedAt:  at,
	})
	require.NoError(t, err)
	require.NoError(t, f.emails.Create(context.Background(), e))
	return e
}

