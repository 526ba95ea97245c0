package handler

import (
	"net/http"
	"net/url"
	"slices"

	notifDto "anoa.com/warbler/internal/modules/notification/dto"
	notifService "anoa.com/warbler/internal/modules/notification/service"
	"anoa.com/warbler/internal/session"
	commonDto "anoa.com/warbler/pkg/dto"
	"anoa.com/warbler/pkg/response"
	"anoa.com/warbler/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type NotificationHandler struct {
	service     notifService.NotificationService
	redisClient *redis.Client
	upgrader    websocket.Upgrader
}

// NewNotificationHandler accepts websocket upgrades from the listed origins
// and from same-host pages.
func NewNotificationHandler(service notifService.NotificationService, redisClient *redis.Client, allowedOrigins []string) *NotificationHandler {
	return &NotificationHandler{
		service:     service,
		redisClient: redisClient,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				if slices.Contains(allowedOrigins, origin) {
					return true
				}
				u, err := url.Parse(origin)
				return err == nil && u.Host == r.Host
			},
		},
	}
}

func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	user, err := session.RequireLogin(session.FromGin(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	var filter notifDto.NotificationFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	notifications, err := h.service.GetNotifications(c.Request.Context(), user.ID, filter.Limit, filter.Offset)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, notifDto.NotificationListResponse{Data: notifications})
}

func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	user, err := session.RequireLogin(session.FromGin(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	var req notifDto.MarkReadRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notification id"})
		return
	}

	if err := h.service.MarkAsRead(c.Request.Context(), uuid.MustParse(req.ID), user.ID); err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, commonDto.MessageResponse{Message: "marked as read"})
}

func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	user, err := session.RequireLogin(session.FromGin(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.service.MarkAllAsRead(c.Request.Context(), user.ID); err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, commonDto.MessageResponse{Message: "all notifications marked as read"})
}

func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	user, err := session.RequireLogin(session.FromGin(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	count, err := h.service.UnreadCount(c.Request.Context(), user.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, commonDto.CountResponse{Count: count})
}

// HandleWebSocket forwards the user's pubsub channel to the socket until
// either side goes away.
func (h *NotificationHandler) HandleWebSocket(c *gin.Context) {
	user, err := session.RequireLogin(session.FromGin(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.redisClient == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "live notifications are unavailable"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Warn("failed to upgrade websocket")
		return
	}
	defer conn.Close()

	ctx := c.Request.Context()
	pubsub := h.redisClient.Subscribe(ctx, notifService.Channel(user.ID))
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Warn("failed to subscribe to notifications")
		return
	}
	ch := pubsub.Channel()

	clientClosed := make(chan struct{})
	go func() {
		defer close(clientClosed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				logrus.WithError(err).WithField("user_id", user.ID).Debug("websocket write failed")
				return
			}
		case <-clientClosed:
			return
		case <-ctx.Done():
			return
		}
	}
}
