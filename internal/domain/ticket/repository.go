package ticket

import (
	"context"
)

type TicketRepository interface {
	Create(ctx context.Context, ticket *Ticket) error
	Update(ctx context.Context, ticket *Ticket) error
	GetByID(ctx context.Context, ticketID uint) (*Ticket, error)
	// GetByIDForUpdate loads the ticket and locks its row until the
	// surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, ticketID uint) (*Ticket, error)
	GetByNumber(ctx context.Context, number string) (*Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]*Ticket, int64, error)
}

type TicketFilter struct {
	QueueID     *uint
	StatusName  *string
	SupporterID *uint
	Page        int
	PageSize    int
}

type EmailRepository interface {
	// Create inserts the email. A message ID that already exists yields
	// ErrDuplicateMessage.
	Create(ctx context.Context, email *Email) error
	GetByMessageID(ctx context.Context, messageID string) (*Email, error)
	// FindByMessageIDs returns the stored emails keyed by message ID;
	// unknown IDs are absent from the map.
	FindByMessageIDs(ctx context.Context, messageIDs []string) (map[string]*Email, error)
	ExistsByMessageID(ctx context.Context, messageID string) (bool, error)
	ListByTicket(ctx context.Context, ticketID uint) ([]*Email, error)
	// HasParticipant reports whether address sent or received any email
	// of the ticket.
	HasParticipant(ctx context.Context, ticketID uint, address string) (bool, error)
}

type QueueRepository interface {
	Create(ctx context.Context, queue *Queue) error
	GetByID(ctx context.Context, queueID uint) (*Queue, error)
	GetByPrefix(ctx context.Context, prefix string) (*Queue, error)
	List(ctx context.Context) ([]*Queue, error)
}

type StatusRepository interface {
	Create(ctx context.Context, status *StatusDefinition) error
	GetByName(ctx context.Context, name string) (*StatusDefinition, error)
	List(ctx context.Context) ([]*StatusDefinition, error)
}

type SupporterRepository interface {
	Create(ctx context.Context, supporter *Supporter) error
	Update(ctx context.Context, supporter *Supporter) error
	GetByID(ctx context.Context, supporterID uint) (*Supporter, error)
	GetByEmail(ctx context.Context, email string) (*Supporter, error)
	List(ctx context.Context) ([]*Supporter, error)
	// LeastLoaded returns the active supporter with the fewest assigned
	// tickets whose status is not base Closed, ties broken by ID.
	// ErrSupporterNotFound when no supporter is active.
	LeastLoaded(ctx context.Context) (*Supporter, error)
}

type AssignmentRepository interface {
	// Create records an assignment; a repeated ticket/supporter pair is ignored.
	Create(ctx context.Context, assignment *Assignment) error
	ListByTicket(ctx context.Context, ticketID uint) ([]*Assignment, error)
}

type ThreadRepository interface {
	// CreateEdges inserts edges, ignoring pairs that already exist.
	CreateEdges(ctx context.Context, edges []ThreadEdge) error
	ListByTicket(ctx context.Context, ticketID uint) ([]ThreadEdge, error)
}

type SequenceRepository interface {
	// Next atomically increments and returns the counter for prefix,
	// creating it at zero first when absent.
	Next(ctx context.Context, prefix string) (int64, error)
}

type ParkedMessageRepository interface {
	Create(ctx context.Context, msg *ParkedMessage) error
	Update(ctx context.Context, msg *ParkedMessage) error
	GetByID(ctx context.Context, id uint) (*ParkedMessage, error)
	// GetByDigest returns ErrParkedNotFound when these bytes were never parked.
	GetByDigest(ctx context.Context, digest string) (*ParkedMessage, error)
	List(ctx context.Context, filter ParkedFilter) ([]*ParkedMessage, int64, error)
}

type ParkedFilter struct {
	IncludeResolved bool
	Page            int
	PageSize        int
}
