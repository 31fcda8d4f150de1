package ingestion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"

	"github.com/orris-inc/helpdesk/internal/domain/ticket"
	vo "github.com/orris-inc/helpdesk/internal/domain/ticket/valueobjects"
	"github.com/orris-inc/helpdesk/internal/shared/goroutine"
	"github.com/orris-inc/helpdesk/internal/shared/logger"
)

const (
	defaultWorkers     = 4
	defaultMaxAttempts = 3
	defaultRetryBase   = 50 * time.Millisecond
	defaultDBTimeout   = 10 * time.Second
)

// Notifier is told about committed ticket events. Implementations must not
// block the caller for mail delivery.
type Notifier interface {
	Notify(ctx context.Context, event ticket.Event)
}

type EngineConfig struct {
	Workers     int
	MaxAttempts int
	RetryBase   time.Duration
	DBTimeout   time.Duration
}

func (c EngineConfig) withDefaults() EngineConfig {
	if c.Workers <= 0 {
		c.Workers = defaultWorkers
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = defaultMaxAttempts
	}
	if c.RetryBase <= 0 {
		c.RetryBase = defaultRetryBase
	}
	if c.DBTimeout <= 0 {
		c.DBTimeout = defaultDBTimeout
	}
	return c
}

// Engine runs every message through normalize, dedup, resolve, allocate
// and apply, and turns the result into an Outcome.
type Engine struct {
	normalizer *Normalizer
	dedup      *DedupGuard
	resolver   *Resolver
	allocator  *Allocator
	updater    *StateUpdater
	parked     ticket.ParkedMessageRepository
	notifier   Notifier
	reporter   OutcomeReporter
	cfg        EngineConfig
	now        func() time.Time
	logger     logger.Interface
}

type EngineOption func(*Engine)

func WithNotifier(n Notifier) EngineOption {
	return func(e *Engine) { e.notifier = n }
}

func WithOutcomeReporter(r OutcomeReporter) EngineOption {
	return func(e *Engine) { e.reporter = r }
}

func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

func NewEngine(
	normalizer *Normalizer,
	dedup *DedupGuard,
	resolver *Resolver,
	allocator *Allocator,
	updater *StateUpdater,
	parked ticket.ParkedMessageRepository,
	cfg EngineConfig,
	log logger.Interface,
	opts ...EngineOption,
) *Engine {
	e := &Engine{
		normalizer: normalizer,
		dedup:      dedup,
		resolver:   resolver,
		allocator:  allocator,
		updater:    updater,
		parked:     parked,
		cfg:        cfg.withDefaults(),
		now:        time.Now,
		logger:     log,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Normalize parses raw without storing anything. Callers that re-run parked
// messages use it to avoid parking the same bytes twice.
func (e *Engine) Normalize(raw RawMessage) (*InboundMessage, error) {
	return e.normalizer.Normalize(raw)
}

// ProcessBatch processes msgs on a bounded worker pool. outcomes[i]
// belongs to msgs[i]; one message never stops the others. Messages linked
// by Message-ID within the batch run in order on one worker, parents first,
// so a reply fetched together with its parent joins the parent's ticket.
func (e *Engine) ProcessBatch(ctx context.Context, msgs []RawMessage) []Outcome {
	outcomes := make([]Outcome, len(msgs))
	normalized := make([]*InboundMessage, len(msgs))
	failures := make([]error, len(msgs))
	for i := range msgs {
		normalized[i], failures[i] = e.normalize(msgs[i])
	}

	var g errgroup.Group
	g.SetLimit(e.cfg.Workers)
	for _, chain := range threadChains(normalized) {
		g.Go(func() error {
			for _, i := range chain {
				if failures[i] != nil {
					outcomes[i] = e.reject(ctx, msgs[i], failures[i])
					continue
				}
				outcomes[i] = e.Ingest(ctx, msgs[i].UID, normalized[i])
			}
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

// Process handles one raw message. Messages that fail normalization are
// parked.
func (e *Engine) Process(ctx context.Context, raw RawMessage) Outcome {
	msg, err := e.normalize(raw)
	if err != nil {
		return e.reject(ctx, raw, err)
	}
	return e.Ingest(ctx, raw.UID, msg)
}

// normalize turns a parser panic into a normalization failure so the bytes
// get parked.
func (e *Engine) normalize(raw RawMessage) (msg *InboundMessage, err error) {
	defer goroutine.Recover(e.logger, "normalize "+raw.UID, func(r any) {
		msg, err = nil, newNormalizationError(fmt.Sprintf("parser panic: %v", r), nil)
	})
	return e.normalizer.Normalize(raw)
}

func (e *Engine) reject(ctx context.Context, raw RawMessage, cause error) (out Outcome) {
	defer goroutine.Recover(e.logger, "park "+raw.UID, func(r any) {
		out = Outcome{
			Kind:      OutcomeFailed,
			SourceUID: raw.UID,
			Failure:   FailureInternal,
			Reason:    fmt.Sprintf("panic: %v", r),
		}
		e.report(ctx, out)
	})
	out = e.park(ctx, raw, cause)
	e.report(ctx, out)
	return out
}

// Ingest handles an already normalized message.
func (e *Engine) Ingest(ctx context.Context, sourceUID string, msg *InboundMessage) (out Outcome) {
	out = Outcome{Kind: OutcomeFailed, SourceUID: sourceUID, MessageID: msg.MessageID}
	defer goroutine.Recover(e.logger, "ingest "+msg.MessageID, func(r any) {
		out.Kind = OutcomeFailed
		out.Failure = FailureInternal
		out.Reason = fmt.Sprintf("panic: %v", r)
		e.report(ctx, out)
	})

	if msg.SyntheticID {
		e.logger.Infow("message has no Message-ID, using synthetic id",
			"message_id", msg.MessageID,
			"from", msg.From,
		)
	}

	var (
		result *ApplyResult
		res    *Resolution
	)
	backoff := retry.WithMaxRetries(uint64(e.cfg.MaxAttempts-1), retry.NewExponential(e.cfg.RetryBase))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		out.Attempts++
		var err error
		result, res, err = e.attempt(ctx, msg)
		if err == nil {
			return nil
		}
		kind := classify(err)
		if kind == FailureConflict || kind == FailureTimeout {
			e.logger.Debugw("ingest attempt failed, retrying",
				"message_id", msg.MessageID,
				"attempt", out.Attempts,
				"failure", string(kind),
				"error", err,
			)
			return retry.RetryableError(err)
		}
		return err
	})

	if err != nil {
		out = e.failure(out, err)
		e.report(ctx, out)
		return out
	}

	out.TicketID = result.Ticket.ID()
	out.TicketNumber = result.Ticket.Number().String()
	out.Failure = FailureNone
	if result.Created {
		out.Kind = OutcomeCreated
		out.Rule = vo.MatchNone
	} else {
		out.Kind = OutcomeAppended
		out.Rule = res.Rule
		out.Reopened = result.Reopened
	}

	e.dedup.Remember(ctx, msg.MessageID)
	e.notify(ctx, msg, result)
	e.report(ctx, out)
	return out
}

func (e *Engine) attempt(ctx context.Context, msg *InboundMessage) (*ApplyResult, *Resolution, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.DBTimeout)
	defer cancel()

	result, res, err := e.resolveAndApply(ctx, msg)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, ticket.ErrTimeout) {
		err = fmt.Errorf("%w: %w", ticket.ErrTimeout, err)
	}
	return result, res, err
}

func (e *Engine) resolveAndApply(ctx context.Context, msg *InboundMessage) (*ApplyResult, *Resolution, error) {
	verdict, err := e.dedup.Check(ctx, msg.MessageID)
	if err != nil {
		return nil, nil, fmt.Errorf("dedup check: %w", err)
	}
	if verdict == Duplicate {
		return nil, nil, ticket.ErrDuplicateMessage
	}

	res, err := e.resolver.Resolve(ctx, msg)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve: %w", err)
	}

	now := e.now().UTC()
	var draft *Draft
	if !res.Matched() {
		draft, err = e.allocator.Allocate(ctx, msg, now)
		if err != nil {
			return nil, res, err
		}
	}

	result, err := e.updater.Apply(ctx, msg, res, draft, now)
	if err != nil {
		return nil, res, err
	}
	return result, res, nil
}

func (e *Engine) failure(out Outcome, err error) Outcome {
	kind := classify(err)
	out.Failure = kind
	out.Reason = err.Error()
	if kind == FailureDuplicate {
		out.Kind = OutcomeSkipped
		out.Reason = "message already recorded"
		return out
	}
	out.Kind = OutcomeFailed
	return out
}

func (e *Engine) park(ctx context.Context, raw RawMessage, cause error) Outcome {
	out := Outcome{
		Kind:      OutcomeFailed,
		SourceUID: raw.UID,
		Failure:   FailureNormalization,
		Reason:    cause.Error(),
	}

	if len(raw.Data) == 0 {
		return out
	}
	p, err := ticket.NewParkedMessage(raw.UID, raw.Data, cause.Error(), e.now().UTC())
	if err != nil {
		out.Failure = FailureUnparked
		out.Reason = err.Error()
		return out
	}

	pctx, cancel := context.WithTimeout(ctx, e.cfg.DBTimeout)
	defer cancel()

	// A message left on the server or pushed again arrives with the same
	// bytes; it keeps its first parked row.
	if existing, err := e.parked.GetByDigest(pctx, p.Digest()); err == nil {
		out.ParkedID = existing.ID()
		return out
	} else if !errors.Is(err, ticket.ErrParkedNotFound) {
		out.Failure = FailureUnparked
		out.Reason = fmt.Sprintf("%s; park: %v", cause, err)
		return out
	}

	if err := e.parked.Create(pctx, p); err != nil {
		if errors.Is(err, ticket.ErrDuplicateParked) {
			if existing, gerr := e.parked.GetByDigest(pctx, p.Digest()); gerr == nil {
				out.ParkedID = existing.ID()
				return out
			}
		}
		out.Failure = FailureUnparked
		out.Reason = fmt.Sprintf("%s; park: %v", cause, err)
		return out
	}
	out.ParkedID = p.ID()
	return out
}

func (e *Engine) notify(ctx context.Context, msg *InboundMessage, result *ApplyResult) {
	if e.notifier == nil {
		return
	}

	t := result.Ticket
	event := ticket.Event{
		TicketID:     t.ID(),
		TicketNumber: t.Number().String(),
		Subject:      t.Subject(),
		EmailID:      result.Email.ID(),
		MessageID:    msg.MessageID,
		Requester:    msg.From,
		SupporterID:  t.AssignedSupporterID(),
		OccurredAt:   t.UpdatedAt(),
	}
	switch {
	case result.Created:
		event.Kind = ticket.EventTicketCreated
	case result.Reopened:
		event.Kind = ticket.EventTicketReopened
	default:
		event.Kind = ticket.EventCustomerReply
	}

	e.notifier.Notify(context.WithoutCancel(ctx), event)
}

func (e *Engine) report(ctx context.Context, out Outcome) {
	fields := []any{
		"outcome", out.Kind.String(),
		"message_id", out.MessageID,
		"source_uid", out.SourceUID,
		"ticket_number", out.TicketNumber,
		"rule", string(out.Rule),
		"attempts", out.Attempts,
	}

	switch {
	case out.Kind != OutcomeFailed:
		e.logger.Infow("message processed", append(fields, "reopened", out.Reopened)...)
	case out.Failure == FailureNoQueue || out.Failure == FailureInternal || out.Failure == FailureUnparked:
		e.logger.Errorw("message failed", append(fields, "failure", string(out.Failure), "reason", out.Reason)...)
	default:
		e.logger.Warnw("message failed", append(fields, "failure", string(out.Failure), "reason", out.Reason, "parked_id", out.ParkedID)...)
	}

	if e.reporter != nil {
		e.reporter.Report(context.WithoutCancel(ctx), out)
	}
}
