package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/orris-inc/helpdesk/internal/domain/ticket"
	"github.com/orris-inc/helpdesk/internal/infrastructure/persistence/mappers"
	"github.com/orris-inc/helpdesk/internal/infrastructure/persistence/models"
	db "github.com/orris-inc/helpdesk/internal/shared/db"
)

type EmailRepository struct {
	db     *gorm.DB
	mapper mappers.EmailMapper
}

func NewEmailRepository(db *gorm.DB) *EmailRepository {
	return &EmailRepository{
		db:     db,
		mapper: mappers.NewEmailMapper(),
	}
}

func (r *EmailRepository) Create(ctx context.Context, e *ticket.Email) error {
	model := r.mapper.ToModel(e)
	tx := db.GetTxFromContext(ctx, r.db)

	if err := tx.Create(model).Error; err != nil {
		return translate("create email", err, ticket.ErrDuplicateMessage)
	}
	return e.SetID(model.ID)
}

func (r *EmailRepository) GetByMessageID(ctx context.Context, messageID string) (*ticket.Email, error) {
	var model models.EmailModel
	tx := db.GetTxFromContext(ctx, r.db)

	if err := tx.Where("message_id = ?", messageID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ticket.ErrEmailNotFound
		}
		return nil, translate("find email", err, nil)
	}
	return r.mapper.ToDomain(&model)
}

func (r *EmailRepository) FindByMessageIDs(ctx context.Context, messageIDs []string) (map[string]*ticket.Email, error) {
	found := make(map[string]*ticket.Email, len(messageIDs))
	if len(messageIDs) == 0 {
		return found, nil
	}

	var list []*models.EmailModel
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Where("message_id IN ?", messageIDs).Find(&list).Error; err != nil {
		return nil, translate("find emails by message id", err, nil)
	}

	emails, err := r.mapper.ToDomainList(list)
	if err != nil {
		return nil, err
	}
	for _, e := range emails {
		found[e.MessageID()] = e
	}
	return found, nil
}

func (r *EmailRepository) ExistsByMessageID(ctx context.Context, messageID string) (bool, error) {
	var count int64
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Model(&models.EmailModel{}).Where("message_id = ?", messageID).Count(&count).Error; err != nil {
		return false, translate("check email", err, nil)
	}
	return count > 0, nil
}

// ListByTicket returns the ticket's emails oldest first.
func (r *EmailRepository) ListByTicket(ctx context.Context, ticketID uint) ([]*ticket.Email, error) {
	var list []*models.EmailModel
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Where("ticket_id = ?", ticketID).Order("received_at ASC").Order("id ASC").Find(&list).Error; err != nil {
		return nil, translate("list emails", err, nil)
	}
	return r.mapper.ToDomainList(list)
}

func (r *EmailRepository) HasParticipant(ctx context.Context, ticketID uint, address string) (bool, error) {
	address = strings.ToLower(strings.TrimSpace(address))
	if address == "" {
		return false, nil
	}

	var count int64
	tx := db.GetTxFromContext(ctx, r.db)
	err := tx.Model(&models.EmailModel{}).
		Where("ticket_id = ?", ticketID).
		Where("from_address = ? OR to_address = ?", address, address).
		Count(&count).Error
	if err != nil {
		return false, translate("check participant", err, nil)
	}
	return count > 0, nil
}
