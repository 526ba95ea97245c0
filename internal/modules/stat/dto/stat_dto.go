package dto

import "anoa.com/warbler/internal/entity"

type TotalsResponse struct {
	TotalUsers    int64 `json:"total_users"`
	TotalMessages int64 `json:"total_messages"`
}

type TrendingFilter struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=50"`
}

type TrendingResponse struct {
	Data []*entity.Message `json:"data"`
}
