package like

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"anoa.com/warbler/internal/entity"
	likeRepo "anoa.com/warbler/internal/modules/like/repository"
	messageRepo "anoa.com/warbler/internal/modules/message/repository"
	notifService "anoa.com/warbler/internal/modules/notification/service"
	userRepo "anoa.com/warbler/internal/modules/user/repository"
	"anoa.com/warbler/internal/monitoring"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const countTTL = 7 * 24 * time.Hour

type LikeService interface {
	// Like is idempotent. The message must exist.
	Like(ctx context.Context, user *entity.User, messageID uint) error
	// Unlike of a message that was never liked is a no-op.
	Unlike(ctx context.Context, user *entity.User, messageID uint) error
	IsLiked(ctx context.Context, userID, messageID uint) (bool, error)
	LikedMessageIDs(ctx context.Context, userID uint) ([]uint, error)
	LikedMessages(ctx context.Context, userID uint) ([]*entity.Message, error)
	CountForMessage(ctx context.Context, messageID uint) (int64, error)
	CountByUser(ctx context.Context, userID uint) (int64, error)
}

type likeService struct {
	repo                likeRepo.LikeRepository
	messageRepo         messageRepo.MessageRepository
	userRepo            userRepo.UserRepository
	notificationService notifService.NotificationService
	redisClient         *redis.Client
}

func NewLikeService(repo likeRepo.LikeRepository, messageRepo messageRepo.MessageRepository, userRepo userRepo.UserRepository, notificationService notifService.NotificationService, redisClient *redis.Client) LikeService {
	return &likeService{
		repo:                repo,
		messageRepo:         messageRepo,
		userRepo:            userRepo,
		notificationService: notificationService,
		redisClient:         redisClient,
	}
}

func countKey(messageID uint) string {
	return fmt.Sprintf("counts:likes:message:%d", messageID)
}

func (s *likeService) Like(ctx context.Context, user *entity.User, messageID uint) error {
	message, err := s.messageRepo.FindByID(ctx, messageID)
	if err != nil {
		return err
	}

	created, err := s.repo.Create(ctx, user.ID, messageID)
	if err != nil {
		return err
	}
	if !created {
		return nil
	}

	monitoring.LikesCreated.Inc()
	s.invalidate(ctx, messageID)

	if s.notificationService != nil {
		if err := s.notificationService.Notify(ctx, message.UserID, user, entity.NotificationLike, &message.ID); err != nil {
			logrus.WithError(err).WithField("message_id", messageID).Warn("failed to create like notification")
		}
	}
	return nil
}

func (s *likeService) Unlike(ctx context.Context, user *entity.User, messageID uint) error {
	removed, err := s.repo.Delete(ctx, user.ID, messageID)
	if err != nil {
		return err
	}
	if removed {
		s.invalidate(ctx, messageID)
	}
	return nil
}

func (s *likeService) IsLiked(ctx context.Context, userID, messageID uint) (bool, error) {
	return s.repo.Exists(ctx, userID, messageID)
}

func (s *likeService) LikedMessageIDs(ctx context.Context, userID uint) ([]uint, error) {
	return s.repo.MessageIDsByUser(ctx, userID)
}

func (s *likeService) LikedMessages(ctx context.Context, userID uint) ([]*entity.Message, error) {
	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		return nil, err
	}
	ids, err := s.repo.MessageIDsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.messageRepo.FindByIDs(ctx, ids)
}

// CountForMessage serves from Redis when possible and repopulates on a miss.
func (s *likeService) CountForMessage(ctx context.Context, messageID uint) (int64, error) {
	if s.redisClient != nil {
		val, err := s.redisClient.Get(ctx, countKey(messageID)).Result()
		if err == nil {
			if count, perr := strconv.ParseInt(val, 10, 64); perr == nil {
				return count, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			logrus.WithError(err).Debug("like count cache read failed")
		}
	}

	count, err := s.repo.CountForMessage(ctx, messageID)
	if err != nil {
		return 0, err
	}

	if s.redisClient != nil {
		if err := s.redisClient.Set(ctx, countKey(messageID), count, countTTL).Err(); err != nil {
			logrus.WithError(err).Debug("like count cache write failed")
		}
	}
	return count, nil
}

func (s *likeService) CountByUser(ctx context.Context, userID uint) (int64, error) {
	return s.repo.CountByUser(ctx, userID)
}

func (s *likeService) invalidate(ctx context.Context, messageID uint) {
	if s.redisClient == nil {
		return
	}
	if err := s.redisClient.Del(ctx, countKey(messageID)).Err(); err != nil {
		logrus.WithError(err).WithField("message_id", messageID).Warn("failed to invalidate like count")
	}
}
