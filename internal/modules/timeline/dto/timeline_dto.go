package dto

import "anoa.com/warbler/internal/entity"

type TimelineResponse struct {
	Anonymous       bool              `json:"anonymous"`
	User            *entity.User      `json:"user,omitempty"`
	Messages        []*entity.Message `json:"messages"`
	LikedMessageIDs []uint            `json:"liked_message_ids,omitempty"`
}
