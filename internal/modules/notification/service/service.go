package service

import (
	"context"
	"encoding/json"
	"fmt"

	"anoa.com/warbler/internal/entity"
	notifRepo "anoa.com/warbler/internal/modules/notification/repository"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const defaultPageSize = 20

type NotificationService interface {
	// Notify records a notification for recipientID. Acting on your own
	// content produces nothing.
	Notify(ctx context.Context, recipientID uint, actor *entity.User, kind string, messageID *uint) error
	GetNotifications(ctx context.Context, userID uint, limit, offset int) ([]entity.Notification, error)
	MarkAsRead(ctx context.Context, id uuid.UUID, userID uint) error
	MarkAllAsRead(ctx context.Context, userID uint) error
	UnreadCount(ctx context.Context, userID uint) (int64, error)
}

type notificationService struct {
	repo        notifRepo.NotificationRepository
	redisClient *redis.Client
}

func NewNotificationService(repo notifRepo.NotificationRepository, redisClient *redis.Client) NotificationService {
	return &notificationService{
		repo:        repo,
		redisClient: redisClient,
	}
}

// Channel is the pubsub channel carrying userID's live notifications.
func Channel(userID uint) string {
	return fmt.Sprintf("user_notifications:%d", userID)
}

func (s *notificationService) Notify(ctx context.Context, recipientID uint, actor *entity.User, kind string, messageID *uint) error {
	if actor == nil || actor.ID == recipientID {
		return nil
	}

	var text string
	switch kind {
	case entity.NotificationFollow:
		text = fmt.Sprintf("%s started following you", actor.Username)
	case entity.NotificationLike:
		text = fmt.Sprintf("%s liked your message", actor.Username)
	default:
		return fmt.Errorf("unknown notification type %q", kind)
	}

	notification := &entity.Notification{
		UserID:    recipientID,
		ActorID:   actor.ID,
		MessageID: messageID,
		Type:      kind,
		Text:      text,
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		return err
	}

	if s.redisClient != nil {
		payload, err := json.Marshal(notification)
		if err == nil {
			if err := s.redisClient.Publish(ctx, Channel(recipientID), payload).Err(); err != nil {
				logrus.WithError(err).WithField("user_id", recipientID).Warn("failed to publish notification")
			}
		}
	}
	return nil
}

func (s *notificationService) GetNotifications(ctx context.Context, userID uint, limit, offset int) ([]entity.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = defaultPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.GetByUserID(ctx, userID, limit, offset)
}

func (s *notificationService) MarkAsRead(ctx context.Context, id uuid.UUID, userID uint) error {
	return s.repo.MarkAsRead(ctx, id, userID)
}

func (s *notificationService) MarkAllAsRead(ctx context.Context, userID uint) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

func (s *notificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}
