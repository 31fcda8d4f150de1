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

type StatusRepository struct {
	db     *gorm.DB
	mapper mappers.CatalogMapper
}

func NewStatusRepository(db *gorm.DB) *StatusRepository {
	return &StatusRepository{
		db:     db,
		mapper: mappers.NewCatalogMapper(),
	}
}

func (r *StatusRepository) Create(ctx context.Context, s *ticket.StatusDefinition) error {
	model := r.mapper.StatusToModel(s)
	tx := db.GetTxFromContext(ctx, r.db)

	if err := tx.Create(model).Error; err != nil {
		return translate("create status", err, ticket.ErrDuplicateStatus)
	}
	s.SetID(model.ID)
	return nil
}

func (r *StatusRepository) GetByName(ctx context.Context, name string) (*ticket.StatusDefinition, error) {
	var model models.StatusDefinitionModel
	tx := db.GetTxFromContext(ctx, r.db)

	if err := tx.Where("name = ?", name).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ticket.ErrStatusNotFound
		}
		return nil, translate("find status", err, nil)
	}
	return r.mapper.StatusToDomain(&model)
}

func (r *StatusRepository) List(ctx context.Context) ([]*ticket.StatusDefinition, error) {
	var list []*models.StatusDefinitionModel
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Order("id ASC").Find(&list).Error; err != nil {
		return nil, translate("list statuses", err, nil)
	}

	statuses := make([]*ticket.StatusDefinition, 0, len(list))
	for _, model := range list {
		s, err := r.mapper.StatusToDomain(model)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, s)
	}
	return statuses, nil
}
