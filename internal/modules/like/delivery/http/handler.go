package handler

import (
	"net/http"

	like "anoa.com/warbler/internal/modules/like/service"
	messageDto "anoa.com/warbler/internal/modules/message/dto"
	"anoa.com/warbler/internal/session"
	commonDto "anoa.com/warbler/pkg/dto"
	"anoa.com/warbler/pkg/response"
	"github.com/gin-gonic/gin"
)

type LikeHandler struct {
	service like.LikeService
}

func NewLikeHandler(service like.LikeService) *LikeHandler {
	return &LikeHandler{service: service}
}

func (h *LikeHandler) Like(c *gin.Context) {
	h.toggle(c, true)
}

func (h *LikeHandler) Unlike(c *gin.Context) {
	h.toggle(c, false)
}

func (h *LikeHandler) toggle(c *gin.Context, liked bool) {
	user, err := session.RequireLogin(session.FromGin(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	var req commonDto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}

	ctx := c.Request.Context()
	if liked {
		err = h.service.Like(ctx, user, req.ID)
	} else {
		err = h.service.Unlike(ctx, user, req.ID)
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	count, err := h.service.CountForMessage(ctx, req.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message_id": req.ID, "liked": liked, "like_count": count})
}

func (h *LikeHandler) LikedMessages(c *gin.Context) {
	var req commonDto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	messages, err := h.service.LikedMessages(c.Request.Context(), req.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, messageDto.MessageListResponse{Data: messages})
}
