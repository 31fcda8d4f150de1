package ticket

import "errors"

var (
	ErrTicketNotFound     = errors.New("ticket not found")
	ErrEmailNotFound      = errors.New("email not found")
	ErrQueueNotFound      = errors.New("queue not found")
	ErrStatusNotFound     = errors.New("status definition not found")
	ErrSupporterNotFound  = errors.New("supporter not found")
	ErrParkedNotFound     = errors.New("parked message not found")
	ErrDuplicateParked    = errors.New("message already parked")
	ErrDuplicateMessage   = errors.New("message already recorded")
	ErrDuplicateQueue     = errors.New("queue prefix already exists")
	ErrDuplicateStatus    = errors.New("status definition already exists")
	ErrDuplicateSupporter = errors.New("supporter email already exists")
	ErrSelfLoop           = errors.New("thread edge cannot link an email to itself")

	// ErrTransactionConflict marks a serialization failure, deadlock or lock
	// timeout. The attempt may be retried.
	ErrTransactionConflict = errors.New("transaction conflict")
	// ErrTimeout marks an attempt that exceeded its database deadline.
	ErrTimeout = errors.New("database timeout")
)
