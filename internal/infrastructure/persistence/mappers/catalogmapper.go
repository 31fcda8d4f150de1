package mappers

import (
	"fmt"

	"github.com/orris-inc/helpdesk/internal/domain/ticket"
	vo "github.com/orris-inc/helpdesk/internal/domain/ticket/valueobjects"
	"github.com/orris-inc/helpdesk/internal/infrastructure/persistence/models"
)

// CatalogMapper converts the reference data of the helpdesk: queues, status
// definitions and supporters.
type CatalogMapper interface {
	QueueToModel(q *ticket.Queue) *models.QueueModel
	QueueToDomain(model *models.QueueModel) (*ticket.Queue, error)
	StatusToModel(s *ticket.StatusDefinition) *models.StatusDefinitionModel
	StatusToDomain(model *models.StatusDefinitionModel) (*ticket.StatusDefinition, error)
	SupporterToModel(s *ticket.Supporter) *models.SupporterModel
	SupporterToDomain(model *models.SupporterModel) *ticket.Supporter
}

type CatalogMapperImpl struct{}

func NewCatalogMapper() CatalogMapper {
	return &CatalogMapperImpl{}
}

func (m *CatalogMapperImpl) QueueToModel(q *ticket.Queue) *models.QueueModel {
	return &models.QueueModel{
		ID:            q.ID(),
		Name:          q.Name(),
		Prefix:        q.Prefix(),
		DefaultStatus: q.DefaultStatus(),
	}
}

func (m *CatalogMapperImpl) QueueToDomain(model *models.QueueModel) (*ticket.Queue, error) {
	q, err := ticket.ReconstructQueue(model.ID, model.Name, model.Prefix, model.DefaultStatus)
	if err != nil {
		return nil, fmt.Errorf("reconstruct queue %d: %w", model.ID, err)
	}
	return q, nil
}

func (m *CatalogMapperImpl) StatusToModel(s *ticket.StatusDefinition) *models.StatusDefinitionModel {
	return &models.StatusDefinitionModel{
		ID:          s.ID(),
		Name:        s.Name(),
		BaseStatus:  s.Base().String(),
		Description: s.Description(),
	}
}

func (m *CatalogMapperImpl) StatusToDomain(model *models.StatusDefinitionModel) (*ticket.StatusDefinition, error) {
	s, err := ticket.ReconstructStatusDefinition(model.ID, model.Name, vo.BaseStatus(model.BaseStatus), model.Description)
	if err != nil {
		return nil, fmt.Errorf("reconstruct status %q: %w", model.Name, err)
	}
	return s, nil
}

func (m *CatalogMapperImpl) SupporterToModel(s *ticket.Supporter) *models.SupporterModel {
	return &models.SupporterModel{
		ID:     s.ID(),
		Email:  s.Email(),
		Name:   s.Name(),
		Active: s.IsActive(),
	}
}

func (m *CatalogMapperImpl) SupporterToDomain(model *models.SupporterModel) *ticket.Supporter {
	return ticket.ReconstructSupporter(model.ID, model.Email, model.Name, model.Active)
}
