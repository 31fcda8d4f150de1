package models

import "gorm.io/datatypes"

type EmailModel struct {
	ID          uint                        `gorm:"primaryKey"`
	TicketID    uint                        `gorm:"not null;index"`
	MessageID   string                      `gorm:"uniqueIndex;size:512;not null"`
	Direction   string                      `gorm:"size:16;not null"`
	FromAddress string                      `gorm:"size:320;not null;index"`
	ToAddress   string                      `gorm:"size:320;not null;default:''"`
	Subject     string                      `gorm:"size:1000;not null;default:''"`
	Body        string                      `gorm:"type:text;not null"`
	ReceivedAt  int64                       `gorm:"not null;index"`
	InReplyTo   string                      `gorm:"size:512;not null;default:''"`
	References  datatypes.JSONSlice[string] `gorm:"column:references_list"`
	CreatedAt   int64                       `gorm:"autoCreateTime:milli;not null"`
}

func (EmailModel) TableName() string {
	return "emails"
}

// EmailThreadModel is a directed parent -> child edge between two emails.
type EmailThreadModel struct {
	ParentEmailID uint `gorm:"primaryKey;autoIncrement:false"`
	ChildEmailID  uint `gorm:"primaryKey;autoIncrement:false;index"`
}

func (EmailThreadModel) TableName() string {
	return "email_threads"
}
