package http

import (
	"github.com/orris-inc/helpdesk/internal/infrastructure/repository"
)

// repositories holds all repository instances used by the application.
type repositories struct {
	tickets     *repository.TicketRepository
	emails      *repository.EmailRepository
	threads     *repository.ThreadRepository
	queues      *repository.QueueRepository
	statuses    *repository.StatusRepository
	supporters  *repository.SupporterRepository
	assignments *repository.AssignmentRepository
	sequences   *repository.SequenceRepository
	parked      *repository.ParkedMessageRepository
}

func (c *Container) initRepositories() {
	c.repos = &repositories{
		tickets:     repository.NewTicketRepository(c.db),
		emails:      repository.NewEmailRepository(c.db),
		threads:     repository.NewThreadRepository(c.db),
		queues:      repository.NewQueueRepository(c.db),
		statuses:    repository.NewStatusRepository(c.db),
		supporters:  repository.NewSupporterRepository(c.db),
		assignments: repository.NewAssignmentRepository(c.db),
		sequences:   repository.NewSequenceRepository(c.db),
		parked:      repository.NewParkedMessageRepository(c.db),
	}
}
