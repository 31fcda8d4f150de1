package mappers

import (
	"fmt"
	"time"

	"gorm.io/datatypes"

	"github.com/orris-inc/helpdesk/internal/domain/ticket"
	vo "github.com/orris-inc/helpdesk/internal/domain/ticket/valueobjects"
	"github.com/orris-inc/helpdesk/internal/infrastructure/persistence/models"
)

type EmailMapper interface {
	ToModel(e *ticket.Email) *models.EmailModel
	ToDomain(model *models.EmailModel) (*ticket.Email, error)
	ToDomainList(models []*models.EmailModel) ([]*ticket.Email, error)
}

type EmailMapperImpl struct{}

func NewEmailMapper() EmailMapper {
	return &EmailMapperImpl{}
}

func (m *EmailMapperImpl) ToModel(e *ticket.Email) *models.EmailModel {
	if e == nil {
		return nil
	}
	refs := e.References()
	if refs == nil {
		refs = []string{}
	}
	model := &models.EmailModel{
		ID:          e.ID(),
		TicketID:    e.TicketID(),
		MessageID:   e.MessageID(),
		Direction:   e.Direction().String(),
		FromAddress: e.FromAddress(),
		ToAddress:   e.ToAddress(),
		Subject:     e.Subject(),
		Body:        e.Body(),
		ReceivedAt:  e.ReceivedAt().UnixMilli(),
		InReplyTo:   e.InReplyTo(),
		References:  datatypes.JSONSlice[string](refs),
	}
	if !e.CreatedAt().IsZero() {
		model.CreatedAt = e.CreatedAt().UnixMilli()
	}
	return model
}

func (m *EmailMapperImpl) ToDomain(model *models.EmailModel) (*ticket.Email, error) {
	if model == nil {
		return nil, nil
	}
	e, err := ticket.ReconstructEmail(model.ID, ticket.EmailParams{
		TicketID:    model.TicketID,
		MessageID:   model.MessageID,
		Direction:   vo.Direction(model.Direction),
		FromAddress: model.FromAddress,
		ToAddress:   model.ToAddress,
		Subject:     model.Subject,
		Body:        model.Body,
		ReceivedAt:  time.UnixMilli(model.ReceivedAt).UTC(),
		InReplyTo:   model.InReplyTo,
		References:  []string(model.References),
	}, time.UnixMilli(model.CreatedAt).UTC())
	if err != nil {
		return nil, fmt.Errorf("reconstruct email %d: %w", model.ID, err)
	}
	return e, nil
}

func (m *EmailMapperImpl) ToDomainList(list []*models.EmailModel) ([]*ticket.Email, error) {
	out := make([]*ticket.Email, 0, len(list))
	for _, model := range list {
		e, err := m.ToDomain(model)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
