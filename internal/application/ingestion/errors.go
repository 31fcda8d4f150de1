package ingestion

import (
	"context"
	"errors"
	"fmt"

	"github.com/orris-inc/helpdesk/internal/domain/ticket"
	"github.com/orris-inc/helpdesk/internal/shared/db"
)

// NormalizationError reports a message that cannot be turned into an
// InboundMessage. Such messages are parked, never retried automatically.
type NormalizationError struct {
	Reason string
	Err    error
}

func (e *NormalizationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("normalize message: %s: %v", e.Reason, e.Err)
	}
	return "normalize message: " + e.Reason
}

func (e *NormalizationError) Unwrap() error {
	return e.Err
}

func newNormalizationError(reason string, err error) *NormalizationError {
	return &NormalizationError{Reason: reason, Err: err}
}

// NoQueueResolvedError means neither a route nor the default queue led to
// an existing queue. It is a configuration problem.
type NoQueueResolvedError struct {
	Address      string
	DefaultQueue string
}

func (e *NoQueueResolvedError) Error() string {
	if e.DefaultQueue == "" {
		return fmt.Sprintf("no queue resolved for %q and no default queue configured", e.Address)
	}
	return fmt.Sprintf("no queue resolved for %q: default queue %s does not exist", e.Address, e.DefaultQueue)
}

// ErrTicketClosed is returned from inside the transaction when a ticket
// matched by subject token turned out to be closed. The message is resolved
// again from scratch.
var ErrTicketClosed = errors.New("subject matched ticket is closed")

// FailureKind classifies why a message ended in Failed or Skipped.
type FailureKind string

const (
	FailureNone          FailureKind = ""
	FailureNormalization FailureKind = "normalization"
	FailureDuplicate     FailureKind = "duplicate"
	FailureNoQueue       FailureKind = "no_queue"
	FailureConflict      FailureKind = "conflict"
	FailureTimeout       FailureKind = "timeout"
	FailureCanceled      FailureKind = "canceled"
	FailureInternal      FailureKind = "internal"
	// FailureUnparked is a normalization failure whose raw message could
	// not be parked either. The source must keep it.
	FailureUnparked      FailureKind = "unparked"
)

// Transient reports whether the same message may succeed on a later try.
// Internal failures count: they usually mean the store was unreachable.
func (k FailureKind) Transient() bool {
	switch k {
	case FailureConflict, FailureTimeout, FailureCanceled, FailureUnparked, FailureInternal:
		return true
	}
	return false
}

func classify(err error) FailureKind {
	var normErr *NormalizationError
	var queueErr *NoQueueResolvedError
	switch {
	case err == nil:
		return FailureNone
	case errors.As(err, &normErr):
		return FailureNormalization
	case errors.As(err, &queueErr):
		return FailureNoQueue
	case errors.Is(err, ticket.ErrDuplicateMessage):
		return FailureDuplicate
	case errors.Is(err, ticket.ErrTimeout), db.IsTimeout(err):
		return FailureTimeout
	case errors.Is(err, context.Canceled):
		return FailureCanceled
	case errors.Is(err, ticket.ErrTransactionConflict), errors.Is(err, ErrTicketClosed), db.IsConflict(err):
		return FailureConflict
	case db.IsDuplicateKey(err):
		return FailureDuplicate
	}
	return FailureInternal
}
