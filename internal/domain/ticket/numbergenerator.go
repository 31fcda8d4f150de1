package ticket

import (
	"context"
	"fmt"

	vo "github.com/orris-inc/helpdesk/internal/domain/ticket/valueobjects"
)

// NumberGenerator reserves the next ticket number of a queue.
type NumberGenerator interface {
	Generate(ctx context.Context, prefix string) (vo.TicketNumber, error)
}

// SequenceNumberGenerator reserves numbers from the per-prefix counter
// row. It must run inside the transaction that inserts the ticket so a
// rollback releases nothing but a gap.
type SequenceNumberGenerator struct {
	sequences SequenceRepository
}

func NewSequenceNumberGenerator(sequences SequenceRepository) *SequenceNumberGenerator {
	return &SequenceNumberGenerator{sequences: sequences}
}

func (g *SequenceNumberGenerator) Generate(ctx context.Context, prefix string) (vo.TicketNumber, error) {
	if err := vo.ValidatePrefix(prefix); err != nil {
		return vo.TicketNumber{}, err
	}
	next, err := g.sequences.Next(ctx, prefix)
	if err != nil {
		return vo.TicketNumber{}, fmt.Errorf("reserve ticket number for %s: %w", prefix, err)
	}
	return vo.NewTicketNumber(prefix, next)
}
