package ingestion

import (
	"context"

	"github.com/orris-inc/helpdesk/internal/domain/ticket"
)

type mockEmailRepository struct {
	CreateFunc            func(ctx context.Context, e *ticket.Email) error
	GetByMessageIDFunc    func(ctx context.Context, messageID string) (*ticket.Email, error)
	FindByMessageIDsFunc  func(ctx context.Context, messageIDs []string) (map[string]*ticket.Email, error)
	ExistsByMessageIDFunc func(ctx context.Context, messageID string) (bool, error)
	ListByTicketFunc      func(ctx context.Context, ticketID uint) ([]*ticket.Email, error)
	HasParticipantFunc    func(ctx context.Context, ticketID uint, address string) (bool, error)
}

func (m *mockEmailRepository) Create(ctx context.Context, e *ticket.Email) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, e)
	}
	return nil
}

func (m *mockEmailRepository) GetByMessageID(ctx context.Context, messageID string) (*ticket.Email, error) {
	if m.GetByMessageIDFunc != nil {
		return m.GetByMessageIDFunc(ctx, messageID)
	}
	return nil, ticket.ErrEmailNotFound
}

func (m *mockEmailRepository) FindByMessageIDs(ctx context.Context, messageIDs []string) (map[string]*ticket.Email, error) {
	if m.FindByMessageIDsFunc != nil {
		return m.FindByMessageIDsFunc(ctx, messageIDs)
	}
	return map[string]*ticket.Email{}, nil
}

func (m *mockEmailRepository) ExistsByMessageID(ctx context.Context, messageID string) (bool, error) {
	if m.ExistsByMessageIDFunc != nil {
		return m.ExistsByMessageIDFunc(ctx, messageID)
	}
	return false, nil
}

func (m *mockEmailRepository) ListByTicket(ctx context.Context, ticketID uint) ([]*ticket.Email, error) {
	if m.ListByTicketFunc != nil {
		return m.ListByTicketFunc(ctx, ticketID)
	}
	return nil, nil
}

func (m *mockEmailRepository) HasParticipant(ctx context.Context, ticketID uint, address string) (bool, error) {
	if m.HasParticipantFunc != nil {
		return m.HasParticipantFunc(ctx, ticketID, address)
	}
	return false, nil
}

type mockTicketRepository struct {
	CreateFunc           func(ctx context.Context, t *ticket.Ticket) error
	UpdateFunc           func(ctx context.Context, t *ticket.Ticket) error
	GetByIDFunc          func(ctx context.Context, ticketID uint) (*ticket.Ticket, error)
	GetByIDForUpdateFunc func(ctx context.Context, ticketID uint) (*ticket.Ticket, error)
	GetByNumberFunc      func(ctx context.Context, number string) (*ticket.Ticket, error)
	ListFunc             func(ctx context.Context, filter ticket.TicketFilter) ([]*ticket.Ticket, int64, error)
}

func (m *mockTicketRepository) Create(ctx context.Context, t *ticket.Ticket) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, t)
	}
	return nil
}

func (m *mockTicketRepository) Update(ctx context.Context, t *ticket.Ticket) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, t)
	}
	return nil
}

func (m *mockTicketRepository) GetByID(ctx context.Context, ticketID uint) (*ticket.Ticket, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, ticketID)
	}
	return nil, ticket.ErrTicketNotFound
}

func (m *mockTicketRepository) GetByIDForUpdate(ctx context.Context, ticketID uint) (*ticket.Ticket, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, ticketID)
	}
	return nil, ticket.ErrTicketNotFound
}

func (m *mockTicketRepository) GetByNumber(ctx context.Context, number string) (*ticket.Ticket, error) {
	if m.GetByNumberFunc != nil {
		return m.GetByNumberFunc(ctx, number)
	}
	return nil, ticket.ErrTicketNotFound
}

func (m *mockTicketRepository) List(ctx context.Context, filter ticket.TicketFilter) ([]*ticket.Ticket, int64, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	return nil, 0, nil
}

type mockQueueRepository struct {
	CreateFunc      func(ctx context.Context, q *ticket.Queue) error
	GetByIDFunc     func(ctx context.Context, queueID uint) (*ticket.Queue, error)
	GetByPrefixFunc func(ctx context.Context, prefix string) (*ticket.Queue, error)
	ListFunc        func(ctx context.Context) ([]*ticket.Queue, error)
}

func (m *mockQueueRepository) Create(ctx context.Context, q *ticket.Queue) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, q)
	}
	return nil
}

func (m *mockQueueRepository) GetByID(ctx context.Context, queueID uint) (*ticket.Queue, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, queueID)
	}
	return nil, ticket.ErrQueueNotFound
}

func (m *mockQueueRepository) GetByPrefix(ctx context.Context, prefix string) (*ticket.Queue, error) {
	if m.GetByPrefixFunc != nil {
		return m.GetByPrefixFunc(ctx, prefix)
	}
	return nil, ticket.ErrQueueNotFound
}

func (m *mockQueueRepository) List(ctx context.Context) ([]*ticket.Queue, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return nil, nil
}

// mockStatusRepository serves status definitions from a map keyed by name.
type mockStatusRepository struct {
	statuses map[string]*ticket.StatusDefinition
}

func newMockStatusRepository(defs ...*ticket.StatusDefinition) *mockStatusRepository {
	m := &mockStatusRepository{statuses: make(map[string]*ticket.StatusDefinition)}
	for _, d := range defs {
		m.statuses[d.Name()] = d
	}
	return m
}

func (m *mockStatusRepository) Create(ctx context.Context, s *ticket.StatusDefinition) error {
	if _, ok := m.statuses[s.Name()]; ok {
		return ticket.ErrDuplicateStatus
	}
	m.statuses[s.Name()] = s
	return nil
}

func (m *mockStatusRepository) GetByName(ctx context.Context, name string) (*ticket.StatusDefinition, error) {
	if s, ok := m.statuses[name]; ok {
		return s, nil
	}
	return nil, ticket.ErrStatusNotFound
}

func (m *mockStatusRepository) List(ctx context.Context) ([]*ticket.StatusDefinition, error) {
	out := make([]*ticket.StatusDefinition, 0, len(m.statuses))
	for _, s := range m.statuses {
		out = append(out, s)
	}
	return out, nil
}

type mockSeenSet struct {
	ContainsFunc func(ctx context.Context, messageID string) (bool, error)
	AddFunc      func(ctx context.Context, messageID string) error
}

func (m *mockSeenSet) Contains(ctx context.Context, messageID string) (bool, error) {
	if m.ContainsFunc != nil {
		return m.ContainsFunc(ctx, messageID)
	}
	return false, nil
}

func (m *mockSeenSet) Add(ctx context.Context, messageID string) error {
	if m.AddFunc != nil {
		return m.AddFunc(ctx, messageID)
	}
	return nil
}
