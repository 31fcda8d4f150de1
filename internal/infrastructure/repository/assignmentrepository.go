package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/orris-inc/helpdesk/internal/domain/ticket"
	"github.com/orris-inc/helpdesk/internal/infrastructure/persistence/models"
	db "github.com/orris-inc/helpdesk/internal/shared/db"
)

type AssignmentRepository struct {
	db *gorm.DB
}

func NewAssignmentRepository(db *gorm.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

func (r *AssignmentRepository) Create(ctx context.Context, a *ticket.Assignment) error {
	model := &models.TicketAssignmentModel{
		TicketID:    a.TicketID(),
		SupporterID: a.SupporterID(),
		AssignedAt:  a.AssignedAt().UnixMilli(),
	}
	tx := db.GetTxFromContext(ctx, r.db)
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "ticket_id"}, {Name: "supporter_id"}},
		DoNothing: true,
	}).Create(model).Error
	return translate("create assignment", err, nil)
}

func (r *AssignmentRepository) ListByTicket(ctx context.Context, ticketID uint) ([]*ticket.Assignment, error) {
	var list []*models.TicketAssignmentModel
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Where("ticket_id = ?", ticketID).Order("assigned_at ASC").Order("id ASC").Find(&list).Error; err != nil {
		return nil, translate("list assignments", err, nil)
	}

	out := make([]*ticket.Assignment, 0, len(list))
	for _, model := range list {
		a, err := ticket.NewAssignment(model.TicketID, model.SupporterID, time.UnixMilli(model.AssignedAt).UTC())
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}
