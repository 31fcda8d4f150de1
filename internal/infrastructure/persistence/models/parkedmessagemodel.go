package models

// ParkedMessageModel.Digest is NULL only on rows parked before digests were
// recorded.
type ParkedMessageModel struct {
	ID        uint    `gorm:"primaryKey"`
	SourceUID string  `gorm:"size:255;not null;default:'';index"`
	Raw       []byte  `gorm:"not null"`
	Digest    *string `gorm:"size:64;uniqueIndex:uq_parked_messages_digest"`
	Reason    string  `gorm:"type:text;not null"`
	ParkedAt  int64   `gorm:"not null;index"`
	RetriedAt *int64
	Resolved  bool `gorm:"not null;default:false;index"`
}

func (ParkedMessageModel) TableName() string {
	return "parked_messages"
}
