package dto

import "anoa.com/warbler/internal/entity"

type CreateMessageRequest struct {
	Text string `json:"text" form:"text" binding:"required"`
}

type MessageResponse struct {
	*entity.Message
	Liked     bool  `json:"liked"`
	LikeCount int64 `json:"like_count"`
}

type MessageListResponse struct {
	Data []*entity.Message `json:"data"`
}
