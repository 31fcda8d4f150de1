package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/orris-inc/helpdesk/internal/domain/ticket"
	"github.com/orris-inc/helpdesk/internal/infrastructure/persistence/mappers"
	"github.com/orris-inc/helpdesk/internal/infrastructure/persistence/models"
	db "github.com/orris-inc/helpdesk/internal/shared/db"
)

type TicketRepository struct {
	db     *gorm.DB
	mapper mappers.TicketMapper
}

func NewTicketRepository(db *gorm.DB) *TicketRepository {
	return &TicketRepository{
		db:     db,
		mapper: mappers.NewTicketMapper(),
	}
}

func (r *TicketRepository) Create(ctx context.Context, t *ticket.Ticket) error {
	model := r.mapper.ToModel(t)
	tx := db.GetTxFromContext(ctx, r.db)

	if err := tx.Create(model).Error; err != nil {
		return translate("create ticket", err, ticket.ErrTransactionConflict)
	}
	return t.SetID(model.ID)
}

func (r *TicketRepository) Update(ctx context.Context, t *ticket.Ticket) error {
	tx := db.GetTxFromContext(ctx, r.db)

	result := tx.
		Model(&models.TicketModel{}).
		Where("id = ?", t.ID()).
		Updates(map[string]any{
			"subject":               t.Subject(),
			"status_name":           t.StatusName(),
			"assigned_supporter_id": t.AssignedSupporterID(),
			"updated_at":            t.UpdatedAt().UnixMilli(),
		})
	if result.Error != nil {
		return translate("update ticket", result.Error, nil)
	}

	// Note: RowsAffected may be 0 when updated values are identical to existing values.

	return nil
}

func (r *TicketRepository) GetByID(ctx context.Context, ticketID uint) (*ticket.Ticket, error) {
	return r.first(db.GetTxFromContext(ctx, r.db).Where("id = ?", ticketID))
}

func (r *TicketRepository) GetByIDForUpdate(ctx context.Context, ticketID uint) (*ticket.Ticket, error) {
	tx := db.ForUpdate(db.GetTxFromContext(ctx, r.db))
	return r.first(tx.Where("id = ?", ticketID))
}

func (r *TicketRepository) GetByNumber(ctx context.Context, number string) (*ticket.Ticket, error) {
	return r.first(db.GetTxFromContext(ctx, r.db).Where("ticket_number = ?", number))
}

func (r *TicketRepository) first(query *gorm.DB) (*ticket.Ticket, error) {
	var model models.TicketModel
	if err := query.First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ticket.ErrTicketNotFound
		}
		return nil, translate("find ticket", err, nil)
	}
	return r.mapper.ToDomain(&model)
}

func (r *TicketRepository) List(ctx context.Context, filter ticket.TicketFilter) ([]*ticket.Ticket, int64, error) {
	tx := db.GetTxFromContext(ctx, r.db)
	query := tx.Model(&models.TicketModel{})

	if filter.QueueID != nil {
		query = query.Where("queue_id = ?", *filter.QueueID)
	}
	if filter.StatusName != nil {
		query = query.Where("status_name = ?", *filter.StatusName)
	}
	if filter.SupporterID != nil {
		query = query.Where("assigned_supporter_id = ?", *filter.SupporterID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translate("count tickets", err, nil)
	}

	limit, offset := pageBounds(filter.Page, filter.PageSize)
	var list []*models.TicketModel
	if err := query.Order("updated_at DESC").Order("id DESC").Limit(limit).Offset(offset).Find(&list).Error; err != nil {
		return nil, 0, translate("list tickets", err, nil)
	}

	tickets, err := r.mapper.ToDomainList(list)
	if err != nil {
		return nil, 0, err
	}
	return tickets, total, nil
}
