package entity

import (
	"time"
)

const (
	DefaultImageURL       = "/static/images/default-pic.png"
	DefaultHeaderImageURL = "/static/images/warbler-hero.jpg"
)

type User struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Username       string    `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Email          string    `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash   string    `gorm:"size:255;not null" json:"-"`
	ImageURL       string    `gorm:"type:text;not null" json:"image_url"`
	HeaderImageURL string    `gorm:"type:text;not null" json:"header_image_url"`
	Bio            *string   `gorm:"type:text" json:"bio,omitempty"`
	Location       *string   `gorm:"size:100" json:"location,omitempty"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// ApplyImageDefaults fills empty image URLs with the site defaults.
func (u *User) ApplyImageDefaults() {
	if u.ImageURL == "" {
		u.ImageURL = DefaultImageURL
	}
	if u.HeaderImageURL == "" {
		u.HeaderImageURL = DefaultHeaderImageURL
	}
}
