package migration

import (
	"context"
	"errors"
	"fmt"
	"io"

	"gorm.io/gorm"

	"github.com/orris-inc/helpdesk/internal/infrastructure/persistence/models"
	"github.com/orris-inc/helpdesk/internal/shared/logger"
)

var ErrDownUnsupported = errors.New("gorm auto migrate cannot roll back")

// GormAutoMigrateStrategy derives the schema from the persistence models.
// It serves the MySQL and SQLite stores.
type GormAutoMigrateStrategy struct {
	logger logger.Interface
}

func NewGormAutoMigrateStrategy(log logger.Interface) *GormAutoMigrateStrategy {
	return &GormAutoMigrateStrategy{logger: log}
}

func (s *GormAutoMigrateStrategy) GetName() string {
	return "gorm_auto_migrate"
}

func (s *GormAutoMigrateStrategy) Up(ctx context.Context, db *gorm.DB) error {
	all := models.All()
	s.logger.Infow("starting gorm auto migrate", "models_count", len(all))
	if err := db.WithContext(ctx).AutoMigrate(all...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	s.logger.Infow("gorm auto migrate completed")
	return nil
}

func (s *GormAutoMigrateStrategy) Down(ctx context.Context, db *gorm.DB, steps int) error {
	return ErrDownUnsupported
}

// Status lists each model table and whether it exists.
func (s *GormAutoMigrateStrategy) Status(ctx context.Context, db *gorm.DB, w io.Writer) error {
	migrator := db.WithContext(ctx).Migrator()
	for _, m := range models.All() {
		table, ok := m.(interface{ TableName() string })
		if !ok {
			continue
		}
		state := "missing"
		if migrator.HasTable(m) {
			state = "present"
		}
		if _, err := fmt.Fprintf(w, "%-24s %s\n", table.TableName(), state); err != nil {
			return err
		}
	}
	return nil
}
