package ticket

import (
	"fmt"
	"strings"

	vo "github.com/orris-inc/helpdesk/internal/domain/ticket/valueobjects"
)

// Queue is a routing bucket. Its prefix seeds the ticket numbers.
type Queue struct {
	id            uint
	name          string
	prefix        string
	defaultStatus string
}

func NewQueue(name, prefix, defaultStatus string) (*Queue, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("queue name is required")
	}
	if err := vo.ValidatePrefix(prefix); err != nil {
		return nil, err
	}
	return &Queue{name: name, prefix: prefix, defaultStatus: defaultStatus}, nil
}

func ReconstructQueue(id uint, name, prefix, defaultStatus string) (*Queue, error) {
	if id == 0 {
		return nil, fmt.Errorf("queue ID cannot be zero")
	}
	q, err := NewQueue(name, prefix, defaultStatus)
	if err != nil {
		return nil, err
	}
	q.id = id
	return q, nil
}

func (q *Queue) ID() uint {
	return q.id
}

func (q *Queue) Name() string {
	return q.name
}

func (q *Queue) Prefix() string {
	return q.prefix
}

// DefaultStatus is the status name new tickets start in, empty when the
// queue defers to the workflow default.
func (q *Queue) DefaultStatus() string {
	return q.defaultStatus
}

func (q *Queue) SetID(id uint) error {
	if q.id != 0 {
		return fmt.Errorf("queue ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("queue ID cannot be zero")
	}
	q.id = id
	return nil
}
