package models

// TicketModel stores a ticket. Its base status is not stored; it is derived
// from status_definitions through status_name.
type TicketModel struct {
	ID                  uint   `gorm:"primaryKey"`
	TicketNumber        string `gorm:"uniqueIndex;size:32;not null"`
	QueueID             uint   `gorm:"not null;index"`
	Subject             string `gorm:"size:1000;not null"`
	StatusName          string `gorm:"size:64;not null;index"`
	AssignedSupporterID *uint  `gorm:"index"`
	CreatedAt           int64  `gorm:"autoCreateTime:false;not null"`
	UpdatedAt           int64  `gorm:"autoUpdateTime:false;not null;index"`

	// Note: No foreign key constraints or associations.
	// All relationships are managed by application business logic.
}

func (TicketModel) TableName() string {
	return "tickets"
}

// TicketSequenceModel is the per-prefix ticket number counter.
type TicketSequenceModel struct {
	Prefix    string `gorm:"primaryKey;size:10"`
	LastValue int64  `gorm:"not null;default:0"`
}

func (TicketSequenceModel) TableName() string {
	return "ticket_sequences"
}

type TicketAssignmentModel struct {
	ID          uint  `gorm:"primaryKey"`
	TicketID    uint  `gorm:"not null;uniqueIndex:idx_ticket_assignments_pair"`
	SupporterID uint  `gorm:"not null;uniqueIndex:idx_ticket_assignments_pair;index"`
	AssignedAt  int64 `gorm:"not null"`
}

func (TicketAssignmentModel) TableName() string {
	return "ticket_assignments"
}
