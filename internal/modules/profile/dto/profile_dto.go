package dto

import (
	"io"

	"anoa.com/warbler/internal/entity"
)

// UpdateProfileInput is the profile edit form. Password is the current
// password and is always required.
type UpdateProfileInput struct {
	Username       string  `json:"username" form:"username" binding:"required,max=50"`
	Email          string  `json:"email" form:"email" binding:"required,email,max=100"`
	ImageURL       string  `json:"image_url" form:"image_url" binding:"omitempty,max=2048"`
	HeaderImageURL string  `json:"header_image_url" form:"header_image_url" binding:"omitempty,max=2048"`
	Bio            *string `json:"bio" form:"bio" binding:"omitempty,max=500"`
	Location       *string `json:"location" form:"location" binding:"omitempty,max=100"`
	Password       string  `json:"password" form:"password" binding:"required"`
	NewPassword    string  `json:"new_password" form:"new_password" binding:"omitempty,min=6,max=72"`
}

// ImageFile is an uploaded image taken from a multipart form.
type ImageFile struct {
	Reader   io.Reader
	FileName string
}

type Counts struct {
	Messages  int64 `json:"messages"`
	Followers int64 `json:"followers"`
	Following int64 `json:"following"`
	Likes     int64 `json:"likes"`
}

type ProfileResponse struct {
	User   *entity.User `json:"user"`
	Counts Counts       `json:"counts"`
}

type PublicProfileResponse struct {
	User        *entity.User      `json:"user"`
	Counts      Counts            `json:"counts"`
	Messages    []*entity.Message `json:"messages"`
	IsFollowing bool              `json:"is_following"`
	FollowsYou  bool              `json:"follows_you"`
}
