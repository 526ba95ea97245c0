package dto

import "anoa.com/warbler/internal/entity"

type NotificationFilter struct {
	Limit  int `form:"limit" binding:"omitempty,min=1,max=100"`
	Offset int `form:"offset" binding:"omitempty,min=0"`
}

type NotificationListResponse struct {
	Data []entity.Notification `json:"data"`
}

type MarkReadRequest struct {
	ID string `uri:"id" binding:"required,uuid"`
}
