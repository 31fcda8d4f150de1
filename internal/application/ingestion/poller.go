package ingestion

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/orris-inc/helpdesk/internal/shared/logger"
)

// MailSource hands out raw messages and forgets them once acked. Messages
// that are never acked are delivered again on a later fetch.
type MailSource interface {
	Fetch(ctx context.Context) ([]RawMessage, error)
	Ack(ctx context.Context, uids []string) error
	Close() error
}

// PollResult summarises one poll cycle.
type PollResult struct {
	Fetched  int
	Created  int
	Appended int
	Skipped  int
	Failed   int
	Acked    int
}

// Poller drains a mail source through the engine. Only one cycle runs at a
// time; an overlapping call returns immediately.
type Poller struct {
	source MailSource
	engine *Engine
	logger logger.Interface

	mu      sync.Mutex
	running bool
}

func NewPoller(source MailSource, engine *Engine, log logger.Interface) *Poller {
	return &Poller{source: source, engine: engine, logger: log}
}

func (p *Poller) PollOnce(ctx context.Context) (PollResult, error) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		p.logger.Debugw("poll cycle still running, skipping")
		return PollResult{}, nil
	}
	p.running = true
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
	}()

	start := time.Now()
	defer func() {
		if err := p.source.Close(); err != nil {
			p.logger.Warnw("failed to close mail source", "error", err)
		}
	}()

	msgs, err := p.source.Fetch(ctx)
	if err != nil {
		return PollResult{}, fmt.Errorf("fetch: %w", err)
	}
	result := PollResult{Fetched: len(msgs)}
	if len(msgs) == 0 {
		return result, nil
	}

	outcomes := p.engine.ProcessBatch(ctx, msgs)

	ack := make([]string, 0, len(outcomes))
	for _, out := range outcomes {
		switch out.Kind {
		case OutcomeCreated:
			result.Created++
		case OutcomeAppended:
			result.Appended++
		case OutcomeSkipped:
			result.Skipped++
		case OutcomeFailed:
			result.Failed++
		}
		if out.Ackable() && out.SourceUID != "" {
			ack = append(ack, out.SourceUID)
		}
	}

	if len(ack) > 0 {
		if err := p.source.Ack(ctx, ack); err != nil {
			return result, fmt.Errorf("ack: %w", err)
		}
		result.Acked = len(ack)
	}

	p.logger.Infow("poll cycle finished",
		"fetched", result.Fetched,
		"created", result.Created,
		"appended", result.Appended,
		"skipped", result.Skipped,
		"failed", result.Failed,
		"acked", result.Acked,
		"duration", time.Since(start).String(),
	)
	return result, nil
}
