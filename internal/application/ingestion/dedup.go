package ingestion

import (
	"context"

	"github.com/orris-inc/helpdesk/internal/domain/ticket"
	"github.com/orris-inc/helpdesk/internal/shared/logger"
)

// SeenSet is a pre-check cache of committed message IDs. A miss proves
// nothing; the email table stays authoritative.
type SeenSet interface {
	Contains(ctx context.Context, messageID string) (bool, error)
	Add(ctx context.Context, messageID string) error
}

// Verdict is the result of a dedup check.
type Verdict int

const (
	Fresh Verdict = iota
	Duplicate
)

func (v Verdict) String() string {
	if v == Duplicate {
		return "duplicate"
	}
	return "fresh"
}

// DedupGuard rejects messages whose ID is already recorded.
type DedupGuard struct {
	seen   SeenSet
	emails ticket.EmailRepository
	logger logger.Interface
}

// NewDedupGuard builds a guard. seen may be nil, in which case every check
// goes to the store.
func NewDedupGuard(seen SeenSet, emails ticket.EmailRepository, log logger.Interface) *DedupGuard {
	return &DedupGuard{seen: seen, emails: emails, logger: log}
}

func (g *DedupGuard) Check(ctx context.Context, messageID string) (Verdict, error) {
	if g.seen != nil {
		hit, err := g.seen.Contains(ctx, messageID)
		if err != nil {
			g.logger.Warnw("seen-set lookup failed, falling back to store", "message_id", messageID, "error", err)
		} else if hit {
			return Duplicate, nil
		}
	}

	exists, err := g.emails.ExistsByMessageID(ctx, messageID)
	if err != nil {
		return Fresh, err
	}
	if exists {
		g.Remember(ctx, messageID)
		return Duplicate, nil
	}
	return Fresh, nil
}

// Remember records a committed message ID. Cache errors are only logged.
func (g *DedupGuard) Remember(ctx context.Context, messageID string) {
	if g.seen == nil {
		return
	}
	if err := g.seen.Add(ctx, messageID); err != nil {
		g.logger.Warnw("failed to remember message id", "message_id", messageID, "error", err)
	}
}
