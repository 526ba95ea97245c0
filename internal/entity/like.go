package entity

import (
	"time"
)

// Like records that UserID likes MessageID; one row per pair at most.
type Like struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	User      User      `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
	MessageID uint      `gorm:"primaryKey;autoIncrement:false;index" json:"message_id"`
	Message   Message   `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Like) TableName() string {
	return "likes"
}
