package mappers

import (
	"time"

	"github.com/orris-inc/helpdesk/internal/domain/ticket"
	"github.com/orris-inc/helpdesk/internal/infrastructure/persistence/models"
)

type ParkedMessageMapper interface {
	ToModel(p *ticket.ParkedMessage) *models.ParkedMessageModel
	ToDomain(model *models.ParkedMessageModel) *ticket.ParkedMessage
}

type ParkedMessageMapperImpl struct{}

func NewParkedMessageMapper() ParkedMessageMapper {
	return &ParkedMessageMapperImpl{}
}

func (m *ParkedMessageMapperImpl) ToModel(p *ticket.ParkedMessage) *models.ParkedMessageModel {
	model := &models.ParkedMessageModel{
		ID:        p.ID(),
		SourceUID: p.SourceUID(),
		Raw:       p.Raw(),
		Reason:    p.Reason(),
		ParkedAt:  p.ParkedAt().UnixMilli(),
		Resolved:  p.IsResolved(),
	}
	if d := p.Digest(); d != "" {
		model.Digest = &d
	}
	if p.RetriedAt() != nil {
		ms := p.RetriedAt().UnixMilli()
		model.RetriedAt = &ms
	}
	return model
}

func (m *ParkedMessageMapperImpl) ToDomain(model *models.ParkedMessageModel) *ticket.ParkedMessage {
	var retriedAt *time.Time
	if model.RetriedAt != nil {
		t := time.UnixMilli(*model.RetriedAt).UTC()
		retriedAt = &t
	}
	digest := ""
	if model.Digest != nil {
		digest = *model.Digest
	}
	return ticket.ReconstructParkedMessage(
		model.ID,
		model.SourceUID,
		model.Raw,
		digest,
		model.Reason,
		time.UnixMilli(model.ParkedAt).UTC(),
		retriedAt,
		model.Resolved,
	)
}
