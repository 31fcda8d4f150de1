package ticket

import (
	"fmt"
	"strings"

	vo "github.com/orris-inc/helpdesk/internal/domain/ticket/valueobjects"
)

// StatusDefinition names a workflow status and maps it to its base status.
type StatusDefinition struct {
	id          uint
	name        string
	base        vo.BaseStatus
	description string
}

func NewStatusDefinition(name string, base vo.BaseStatus, description string) (*StatusDefinition, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("status name is required")
	}
	if len(name) > 64 {
		return nil, fmt.Errorf("status name exceeds maximum length of 64 characters")
	}
	if !base.IsValid() {
		return nil, fmt.Errorf("invalid base status: %q", base)
	}
	return &StatusDefinition{name: name, base: base, description: description}, nil
}

func ReconstructStatusDefinition(id uint, name string, base vo.BaseStatus, description string) (*StatusDefinition, error) {
	s, err := NewStatusDefinition(name, base, description)
	if err != nil {
		return nil, err
	}
	s.id = id
	return s, nil
}

func (s *StatusDefinition) ID() uint {
	return s.id
}

func (s *StatusDefinition) Name() string {
	return s.name
}

func (s *StatusDefinition) Base() vo.BaseStatus {
	return s.base
}

func (s *StatusDefinition) Description() string {
	return s.description
}

func (s *StatusDefinition) SetID(id uint) {
	s.id = id
}
