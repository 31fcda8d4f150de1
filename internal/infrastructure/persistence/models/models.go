// Package models holds the GORM persistence models.
package models

// All returns every model, in creation order, for AutoMigrate.
func All() []any {
	return []any{
		&StatusDefinitionModel{},
		&QueueModel{},
		&SupporterModel{},
		&TicketSequenceModel{},
		&TicketModel{},
		&TicketAssignmentModel{},
		&EmailModel{},
		&EmailThreadModel{},
		&ParkedMessageModel{},
	}
}
