package models

type QueueModel struct {
	ID            uint   `gorm:"primaryKey"`
	Name          string `gorm:"size:100;not null"`
	Prefix        string `gorm:"uniqueIndex;size:10;not null"`
	DefaultStatus string `gorm:"size:64;not null;default:''"`
}

func (QueueModel) TableName() string {
	return "queues"
}

type StatusDefinitionModel struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"uniqueIndex;size:64;not null"`
	BaseStatus  string `gorm:"size:16;not null;index"`
	Description string `gorm:"size:255;not null;default:''"`
}

func (StatusDefinitionModel) TableName() string {
	return "status_definitions"
}

type SupporterModel struct {
	ID     uint   `gorm:"primaryKey"`
	Email  string `gorm:"uniqueIndex;size:320;not null"`
	Name   string `gorm:"size:100;not null;default:''"`
	Active bool   `gorm:"not null;index"`
}

func (SupporterModel) TableName() string {
	return "supporters"
}
