package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/orris-inc/helpdesk/internal/domain/ticket"
	"github.com/orris-inc/helpdesk/internal/infrastructure/persistence/models"
	db "github.com/orris-inc/helpdesk/internal/shared/db"
)

type ThreadRepository struct {
	db *gorm.DB
}

func NewThreadRepository(db *gorm.DB) *ThreadRepository {
	return &ThreadRepository{db: db}
}

func (r *ThreadRepository) CreateEdges(ctx context.Context, edges []ticket.ThreadEdge) error {
	edges = ticket.DedupEdges(edges)
	if len(edges) == 0 {
		return nil
	}

	rows := make([]models.EmailThreadModel, 0, len(edges))
	for _, e := range edges {
		rows = append(rows, models.EmailThreadModel{ParentEmailID: e.ParentEmailID, ChildEmailID: e.ChildEmailID})
	}

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error; err != nil {
		return translate("create thread edges", err, nil)
	}
	return nil
}

// ListByTicket returns the edges whose child email belongs to the ticket.
func (r *ThreadRepository) ListByTicket(ctx context.Context, ticketID uint) ([]ticket.ThreadEdge, error) {
	var rows []models.EmailThreadModel
	tx := db.GetTxFromContext(ctx, r.db)
	err := tx.Model(&models.EmailThreadModel{}).
		Select("email_threads.parent_email_id, email_threads.child_email_id").
		Joins("JOIN emails ON emails.id = email_threads.child_email_id").
		Where("emails.ticket_id = ?", ticketID).
		Order("email_threads.child_email_id ASC").
		Order("email_threads.parent_email_id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, translate("list thread edges", err, nil)
	}

	edges := make([]ticket.ThreadEdge, 0, len(rows))
	for _, row := range rows {
		edges = append(edges, ticket.ThreadEdge{ParentEmailID: row.ParentEmailID, ChildEmailID: row.ChildEmailID})
	}
	return edges, nil
}
