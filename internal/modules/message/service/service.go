package message

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"anoa.com/warbler/internal/entity"
	messageRepo "anoa.com/warbler/internal/modules/message/repository"
	search "anoa.com/warbler/internal/modules/search/service"
	"anoa.com/warbler/internal/monitoring"
	"anoa.com/warbler/pkg/apperror"
	"anoa.com/warbler/pkg/ratelimiter"
	"anoa.com/warbler/pkg/sanitize"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	rateLimitAction = "message"
	DefaultListSize = 100
)

type MessageService interface {
	Create(ctx context.Context, author *entity.User, text string) (*entity.Message, error)
	// Delete fails with ErrUnauthorized unless requestor wrote the message.
	Delete(ctx context.Context, requestor *entity.User, id uint) error
	GetByID(ctx context.Context, id uint) (*entity.Message, error)
	ListByUser(ctx context.Context, userID uint, limit int) ([]*entity.Message, error)
	CountByUser(ctx context.Context, userID uint) (int64, error)
}

type messageService struct {
	repo        messageRepo.MessageRepository
	redisClient *redis.Client
	search      search.SearchService
	cooldown    time.Duration
	now         func() time.Time
}

func NewMessageService(repo messageRepo.MessageRepository, redisClient *redis.Client, search search.SearchService, cooldown time.Duration) MessageService {
	return &messageService{
		repo:        repo,
		redisClient: redisClient,
		search:      search,
		cooldown:    cooldown,
		now:         time.Now,
	}
}

// NormalizeText strips markup and enforces the 1..MaxMessageLength rule.
func NormalizeText(text string) (string, error) {
	cleaned := sanitize.Text(text)
	if cleaned == "" {
		return "", apperror.Validation("message text is required")
	}
	if utf8.RuneCountInString(cleaned) > entity.MaxMessageLength {
		return "", apperror.Validation(fmt.Sprintf("message must be at most %d characters", entity.MaxMessageLength))
	}
	return cleaned, nil
}

func (s *messageService) Create(ctx context.Context, author *entity.User, text string) (*entity.Message, error) {
	cleaned, err := NormalizeText(text)
	if err != nil {
		return nil, err
	}

	allowed, err := ratelimiter.CheckAndSetRateLimit(ctx, s.redisClient, author.ID, rateLimitAction, s.cooldown)
	if err != nil {
		// redis trouble should not stop people posting
		logrus.WithError(err).Warn("rate limit check failed")
		allowed = true
	}
	if !allowed {
		ttl, _ := ratelimiter.GetRateLimitTTL(ctx, s.redisClient, author.ID, rateLimitAction)
		return nil, &ratelimiter.RateLimitError{
			Message:    fmt.Sprintf("you are posting too fast, please wait %.0f seconds", ttl.Seconds()),
			RetryAfter: ttl,
		}
	}

	message := &entity.Message{
		Text:      cleaned,
		Timestamp: s.now().UTC(),
		UserID:    author.ID,
	}
	if err := s.repo.Create(ctx, message); err != nil {
		_ = ratelimiter.ClearRateLimit(ctx, s.redisClient, author.ID, rateLimitAction)
		return nil, err
	}
	message.User = *author

	monitoring.MessagesPosted.Inc()
	if s.search != nil {
		if err := s.search.IndexMessage(message); err != nil {
			logrus.WithError(err).WithField("message_id", message.ID).Warn("failed to index message")
		}
	}
	return message, nil
}

func (s *messageService) Delete(ctx context.Context, requestor *entity.User, id uint) error {
	message, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if requestor == nil || message.UserID != requestor.ID {
		return apperror.ErrUnauthorized
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if s.search != nil {
		if err := s.search.DeleteMessages([]uint{id}); err != nil {
			logrus.WithError(err).WithField("message_id", id).Warn("failed to remove message from search index")
		}
	}
	return nil
}

func (s *messageService) GetByID(ctx context.Context, id uint) (*entity.Message, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *messageService) ListByUser(ctx context.Context, userID uint, limit int) ([]*entity.Message, error) {
	if limit <= 0 || limit > DefaultListSize {
		limit = DefaultListSize
	}
	return s.repo.ListByAuthors(ctx, []uint{userID}, limit)
}

func (s *messageService) CountByUser(ctx context.Context, userID uint) (int64, error) {
	return s.repo.CountByUser(ctx, userID)
}
