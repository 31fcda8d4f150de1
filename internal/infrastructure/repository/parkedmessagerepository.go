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

// ParkedMessageRepository stores raw messages that could not be normalized
// so they can be inspected and retried.
type ParkedMessageRepository struct {
	db     *gorm.DB
	mapper mappers.ParkedMessageMapper
}

func NewParkedMessageRepository(db *gorm.DB) *ParkedMessageRepository {
	return &ParkedMessageRepository{
		db:     db,
		mapper: mappers.NewParkedMessageMapper(),
	}
}

func (r *ParkedMessageRepository) Create(ctx context.Context, p *ticket.ParkedMessage) error {
	model := r.mapper.ToModel(p)
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Create(model).Error; err != nil {
		return translate("park message", err, ticket.ErrDuplicateParked)
	}
	p.SetID(model.ID)
	return nil
}

func (r *ParkedMessageRepository) Update(ctx context.Context, p *ticket.ParkedMessage) error {
	model := r.mapper.ToModel(p)
	tx := db.GetTxFromContext(ctx, r.db)
	result := tx.Model(&models.ParkedMessageModel{}).
		Where("id = ?", p.ID()).
		Updates(map[string]any{
			"reason":     model.Reason,
			"retried_at": model.RetriedAt,
			"resolved":   model.Resolved,
		})
	if result.Error != nil {
		return translate("update parked message", result.Error, nil)
	}
	return nil
}

func (r *ParkedMessageRepository) GetByID(ctx context.Context, id uint) (*ticket.ParkedMessage, error) {
	var model models.ParkedMessageModel
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ticket.ErrParkedNotFound
		}
		return nil, translate("find parked message", err, nil)
	}
	return r.mapper.ToDomain(&model), nil
}

func (r *ParkedMessageRepository) GetByDigest(ctx context.Context, digest string) (*ticket.ParkedMessage, error) {
	var model models.ParkedMessageModel
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Where("digest = ?", digest).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ticket.ErrParkedNotFound
		}
		return nil, translate("find parked message by digest", err, nil)
	}
	return r.mapper.ToDomain(&model), nil
}

func (r *ParkedMessageRepository) List(ctx context.Context, filter ticket.ParkedFilter) ([]*ticket.ParkedMessage, int64, error) {
	tx := db.GetTxFromContext(ctx, r.db)
	query := tx.Model(&models.ParkedMessageModel{})
	if !filter.IncludeResolved {
		query = query.Where("resolved = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translate("count parked messages", err, nil)
	}

	limit, offset := pageBounds(filter.Page, filter.PageSize)
	var list []*models.ParkedMessageModel
	if err := query.Order("parked_at DESC").Order("id DESC").Limit(limit).Offset(offset).Find(&list).Error; err != nil {
		return nil, 0, translate("list parked messages", err, nil)
	}

	out := make([]*ticket.ParkedMessage, 0, len(list))
	for _, model := range list {
		out = append(out, r.mapper.ToDomain(model))
	}
	return out, total, nil
}
