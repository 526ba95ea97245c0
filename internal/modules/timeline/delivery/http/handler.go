package handler

import (
	"net/http"

	"anoa.com/warbler/internal/entity"
	like "anoa.com/warbler/internal/modules/like/service"
	timelineDto "anoa.com/warbler/internal/modules/timeline/dto"
	timeline "anoa.com/warbler/internal/modules/timeline/service"
	"anoa.com/warbler/internal/session"
	"anoa.com/warbler/pkg/response"
	"github.com/gin-gonic/gin"
)

type TimelineHandler struct {
	service     timeline.TimelineService
	likeService like.LikeService
}

func NewTimelineHandler(service timeline.TimelineService, likeService like.LikeService) *TimelineHandler {
	return &TimelineHandler{
		service:     service,
		likeService: likeService,
	}
}

// GetTimeline is the home view. Anonymous visitors get an empty page rather
// than an error.
func (h *TimelineHandler) GetTimeline(c *gin.Context) {
	rc := session.FromGin(c)
	if !rc.IsAuthenticated() {
		c.JSON(http.StatusOK, timelineDto.TimelineResponse{Anonymous: true, Messages: []*entity.Message{}})
		return
	}

	ctx := c.Request.Context()
	messages, err := h.service.TimelineFor(ctx, rc.User)
	if err != nil {
		response.Error(c, err)
		return
	}

	liked, err := h.likeService.LikedMessageIDs(ctx, rc.User.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, timelineDto.TimelineResponse{
		User:            rc.User,
		Messages:        messages,
		LikedMessageIDs: liked,
	})
}
