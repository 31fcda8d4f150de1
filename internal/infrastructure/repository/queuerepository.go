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

type QueueRepository struct {
	db     *gorm.DB
	mapper mappers.CatalogMapper
}

func NewQueueRepository(db *gorm.DB) *QueueRepository {
	return &QueueRepository{
		db:     db,
		mapper: mappers.NewCatalogMapper(),
	}
}

func (r *QueueRepository) Create(ctx context.Context, q *ticket.Queue) error {
	model := r.mapper.QueueToModel(q)
	tx := db.GetTxFromContext(ctx, r.db)

	if err := tx.Create(model).Error; err != nil {
		return translate("create queue", err, ticket.ErrDuplicateQueue)
	}
	return q.SetID(model.ID)
}

func (r *QueueRepository) GetByID(ctx context.Context, queueID uint) (*ticket.Queue, error) {
	return r.first(db.GetTxFromContext(ctx, r.db).Where("id = ?", queueID))
}

func (r *QueueRepository) GetByPrefix(ctx context.Context, prefix string) (*ticket.Queue, error) {
	return r.first(db.GetTxFromContext(ctx, r.db).Where("prefix = ?", prefix))
}

func (r *QueueRepository) first(query *gorm.DB) (*ticket.Queue, error) {
	var model models.QueueModel
	if err := query.First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ticket.ErrQueueNotFound
		}
		return nil, translate("find queue", err, nil)
	}
	return r.mapper.QueueToDomain(&model)
}

func (r *QueueRepository) List(ctx context.Context) ([]*ticket.Queue, error) {
	var list []*models.QueueModel
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Order("prefix ASC").Find(&list).Error; err != nil {
		return nil, translate("list queues", err, nil)
	}

	queues := make([]*ticket.Queue, 0, len(list))
	for _, model := range list {
		q, err := r.mapper.QueueToDomain(model)
		if err != nil {
			return nil, err
		}
		queues = append(queues, q)
	}
	return queues, nil
}
