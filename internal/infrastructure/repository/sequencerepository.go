package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/orris-inc/helpdesk/internal/infrastructure/persistence/models"
	db "github.com/orris-inc/helpdesk/internal/shared/db"
)

// SequenceRepository hands out ticket sequence numbers per queue prefix.
// The increment and the read happen in one transaction; the row lock taken
// by the UPDATE serializes concurrent callers until commit.
type SequenceRepository struct {
	db *gorm.DB
}

func NewSequenceRepository(db *gorm.DB) *SequenceRepository {
	return &SequenceRepository{db: db}
}

func (r *SequenceRepository) Next(ctx context.Context, prefix string) (int64, error) {
	if db.InTransaction(ctx) {
		return r.next(db.GetTxFromContext(ctx, r.db), prefix)
	}

	var value int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		value, err = r.next(tx, prefix)
		return err
	})
	return value, err
}

func (r *SequenceRepository) next(tx *gorm.DB, prefix string) (int64, error) {
	seed := models.TicketSequenceModel{Prefix: prefix, LastValue: 0}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
		return 0, translate("init ticket sequence", err, nil)
	}

	err := tx.Model(&models.TicketSequenceModel{}).
		Where("prefix = ?", prefix).
		Update("last_value", gorm.Expr("last_value + 1")).Error
	if err != nil {
		return 0, translate("advance ticket sequence", err, nil)
	}

	var row models.TicketSequenceModel
	if err := tx.Where("prefix = ?", prefix).First(&row).Error; err != nil {
		return 0, translate("read ticket sequence", err, nil)
	}
	return row.LastValue, nil
}
