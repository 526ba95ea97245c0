package handler

import (
	"net/http"

	like "anoa.com/warbler/internal/modules/like/service"
	messageDto "anoa.com/warbler/internal/modules/message/dto"
	message "anoa.com/warbler/internal/modules/message/service"
	"anoa.com/warbler/internal/session"
	commonDto "anoa.com/warbler/pkg/dto"
	"anoa.com/warbler/pkg/response"
	"anoa.com/warbler/pkg/validator"
	"github.com/gin-gonic/gin"
)

type MessageHandler struct {
	service     message.MessageService
	likeService like.LikeService
}

func NewMessageHandler(service message.MessageService, likeService like.LikeService) *MessageHandler {
	return &MessageHandler{
		service:     service,
		likeService: likeService,
	}
}

func (h *MessageHandler) CreateMessage(c *gin.Context) {
	user, err := session.RequireLogin(session.FromGin(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	var req messageDto.CreateMessageRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	msg, err := h.service.Create(c.Request.Context(), user, req.Text)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func (h *MessageHandler) GetMessage(c *gin.Context) {
	var req commonDto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}

	ctx := c.Request.Context()
	msg, err := h.service.GetByID(ctx, req.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	resp := messageDto.MessageResponse{Message: msg}
	if resp.LikeCount, err = h.likeService.CountForMessage(ctx, msg.ID); err != nil {
		response.Error(c, err)
		return
	}
	if rc := session.FromGin(c); rc.IsAuthenticated() {
		if resp.Liked, err = h.likeService.IsLiked(ctx, rc.User.ID, msg.ID); err != nil {
			response.Error(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (h *MessageHandler) DeleteMessage(c *gin.Context) {
	var req commonDto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}

	ctx := c.Request.Context()
	msg, err := h.service.GetByID(ctx, req.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	user, err := session.RequireOwner(session.FromGin(c), msg.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.service.Delete(ctx, user, msg.ID); err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, commonDto.MessageResponse{Message: "message deleted", Redirect: "/"})
}
