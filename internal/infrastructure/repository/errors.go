// Package repository implements the ticket domain repositories on GORM.
package repository

import (
	"fmt"

	"github.com/orris-inc/helpdesk/internal/domain/ticket"
	db "github.com/orris-inc/helpdesk/internal/shared/db"
)

// translate maps driver errors onto domain sentinels. duplicate is the
// sentinel for a unique violation and may be nil when the caller expects none.
func translate(op string, err error, duplicate error) error {
	switch {
	case err == nil:
		return nil
	case duplicate != nil && db.IsDuplicateKey(err):
		return fmt.Errorf("%s: %w: %w", op, duplicate, err)
	case db.IsConflict(err):
		return fmt.Errorf("%s: %w: %w", op, ticket.ErrTransactionConflict, err)
	case db.IsTimeout(err):
		return fmt.Errorf("%s: %w: %w", op, ticket.ErrTimeout, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func pageBounds(page, pageSize int) (limit, offset int) {
	if pageSize <= 0 {
		return -1, 0
	}
	if page < 1 {
		page = 1
	}
	return pageSize, (page - 1) * pageSize
}
