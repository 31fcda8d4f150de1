package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/orris-inc/helpdesk/internal/domain/ticket"
	vo "github.com/orris-inc/helpdesk/internal/domain/ticket/valueobjects"
	"github.com/orris-inc/helpdesk/internal/infrastructure/persistence/mappers"
	"github.com/orris-inc/helpdesk/internal/infrastructure/persistence/models"
	db "github.com/orris-inc/helpdesk/internal/shared/db"
)

type SupporterRepository struct {
	db     *gorm.DB
	mapper mappers.CatalogMapper
}

func NewSupporterRepository(db *gorm.DB) *SupporterRepository {
	return &SupporterRepository{
		db:     db,
		mapper: mappers.NewCatalogMapper(),
	}
}

func (r *SupporterRepository) Create(ctx context.Context, s *ticket.Supporter) error {
	model := r.mapper.SupporterToModel(s)
	tx := db.GetTxFromContext(ctx, r.db)

	if err := tx.Create(model).Error; err != nil {
		return translate("create supporter", err, ticket.ErrDuplicateSupporter)
	}
	s.SetID(model.ID)
	return nil
}

func (r *SupporterRepository) Update(ctx context.Context, s *ticket.Supporter) error {
	tx := db.GetTxFromContext(ctx, r.db)
	err := tx.Model(&models.SupporterModel{}).
		Where("id = ?", s.ID()).
		Updates(map[string]any{
			"name":   s.Name(),
			"active": s.IsActive(),
		}).Error
	return translate("update supporter", err, nil)
}

func (r *SupporterRepository) GetByID(ctx context.Context, supporterID uint) (*ticket.Supporter, error) {
	return r.first(db.GetTxFromContext(ctx, r.db).Where("id = ?", supporterID))
}

func (r *SupporterRepository) GetByEmail(ctx context.Context, email string) (*ticket.Supporter, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.first(db.GetTxFromContext(ctx, r.db).Where("email = ?", email))
}

func (r *SupporterRepository) first(query *gorm.DB) (*ticket.Supporter, error) {
	var model models.SupporterModel
	if err := query.First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ticket.ErrSupporterNotFound
		}
		return nil, translate("find supporter", err, nil)
	}
	return r.mapper.SupporterToDomain(&model), nil
}

func (r *SupporterRepository) List(ctx context.Context) ([]*ticket.Supporter, error) {
	var list []*models.SupporterModel
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Order("id ASC").Find(&list).Error; err != nil {
		return nil, translate("list supporters", err, nil)
	}

	supporters := make([]*ticket.Supporter, 0, len(list))
	for _, model := range list {
		supporters = append(supporters, r.mapper.SupporterToDomain(model))
	}
	return supporters, nil
}

func (r *SupporterRepository) LeastLoaded(ctx context.Context) (*ticket.Supporter, error) {
	tx := db.GetTxFromContext(ctx, r.db)

	var list []*models.SupporterModel
	err := tx.Table("supporters AS s").
		Select("s.id, s.email, s.name, s.active").
		Joins("LEFT JOIN tickets t ON t.assigned_supporter_id = s.id AND t.status_name IN (SELECT name FROM status_definitions WHERE base_status <> ?)", vo.BaseClosed.String()).
		Where("s.active = ?", true).
		Group("s.id, s.email, s.name, s.active").
		Order("COUNT(t.id) ASC").
		Order("s.id ASC").
		Limit(1).
		Find(&list).Error
	if err != nil {
		return nil, translate("pick least loaded supporter", err, nil)
	}
	if len(list) == 0 {
		return nil, ticket.ErrSupporterNotFound
	}
	return r.mapper.SupporterToDomain(list[0]), nil
}
