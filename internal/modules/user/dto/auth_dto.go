package dto

import "anoa.com/warbler/internal/entity"

type SignupInput struct {
	Username string `json:"username" form:"username" binding:"required,max=50"`
	Email    string `json:"email" form:"email" binding:"required,email,max=100"`
	Password string `json:"password" form:"password" binding:"required,min=6,max=72"`
	ImageURL string `json:"image_url" form:"image_url" binding:"omitempty,max=2048"`
}

type LoginInput struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

type SearchFilter struct {
	Query string `form:"q"`
}

type AuthResponse struct {
	User     *entity.User `json:"user"`
	Redirect string       `json:"redirect"`
}

type UserListResponse struct {
	Data []*entity.User `json:"data"`
}
