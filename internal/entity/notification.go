package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	NotificationFollow = "follow"
	NotificationLike   = "like"
)

type Notification struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`  // recipient
	ActorID   uint      `gorm:"not null;index" json:"actor_id"` // who followed or liked
	MessageID *uint     `gorm:"index" json:"message_id,omitempty"`
	Type      string    `gorm:"size:20;not null" json:"type"`
	Text      string    `gorm:"type:text" json:"text"`
	IsRead    bool      `gorm:"default:false" json:"is_read"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	Actor *User `gorm:"foreignKey:ActorID;constraint:OnDelete:RESTRICT" json:"actor,omitempty"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) (err error) {
	if n.ID == uuid.Nil {
		n.ID, err = uuid.NewV7()
	}
	return
}
