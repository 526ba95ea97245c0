package handler

import (
	"net/http"

	follow "anoa.com/warbler/internal/modules/follow/service"
	"anoa.com/warbler/internal/session"
	commonDto "anoa.com/warbler/pkg/dto"
	"anoa.com/warbler/pkg/response"
	"github.com/gin-gonic/gin"
)

type FollowHandler struct {
	service follow.FollowService
}

func NewFollowHandler(service follow.FollowService) *FollowHandler {
	return &FollowHandler{service: service}
}

func (h *FollowHandler) Follow(c *gin.Context) {
	user, err := session.RequireLogin(session.FromGin(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	var req commonDto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	if err := h.service.Follow(c.Request.Context(), user, req.ID); err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"following": true, "user_id": req.ID})
}

func (h *FollowHandler) StopFollowing(c *gin.Context) {
	user, err := session.RequireLogin(session.FromGin(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	var req commonDto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	if err := h.service.Unfollow(c.Request.Context(), user, req.ID); err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"following": false, "user_id": req.ID})
}

func (h *FollowHandler) Following(c *gin.Context) {
	var req commonDto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	users, err := h.service.Following(c.Request.Context(), req.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": users})
}

func (h *FollowHandler) Followers(c *gin.Context) {
	var req commonDto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	users, err := h.service.Followers(c.Request.Context(), req.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": users})
}
