package service

import (
	"context"
	"time"

	"anoa.com/warbler/internal/entity"
	likeRepo "anoa.com/warbler/internal/modules/like/repository"
	messageRepo "anoa.com/warbler/internal/modules/message/repository"
	statDto "anoa.com/warbler/internal/modules/stat/dto"
	userRepo "anoa.com/warbler/internal/modules/user/repository"
)

const (
	defaultTrendingLimit = 10
	trendingWindow       = 7 * 24 * time.Hour
)

type StatService interface {
	GetTotals(ctx context.Context) (*statDto.TotalsResponse, error)
	// GetTrendingMessages lists the most liked messages of the last week.
	GetTrendingMessages(ctx context.Context, limit int) ([]*entity.Message, error)
}

type statService struct {
	userRepo    userRepo.UserRepository
	messageRepo messageRepo.MessageRepository
	likeRepo    likeRepo.LikeRepository
	now         func() time.Time
}

func NewStatService(userRepo userRepo.UserRepository, messageRepo messageRepo.MessageRepository, likeRepo likeRepo.LikeRepository) StatService {
	return &statService{
		userRepo:    userRepo,
		messageRepo: messageRepo,
		likeRepo:    likeRepo,
		now:         time.Now,
	}
}

func (s *statService) GetTotals(ctx context.Context) (*statDto.TotalsResponse, error) {
	users, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	messages, err := s.messageRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	return &statDto.TotalsResponse{TotalUsers: users, TotalMessages: messages}, nil
}

func (s *statService) GetTrendingMessages(ctx context.Context, limit int) ([]*entity.Message, error) {
	if limit <= 0 {
		limit = defaultTrendingLimit
	}

	ids, err := s.likeRepo.MostLiked(ctx, s.now().Add(-trendingWindow), limit)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*entity.Message{}, nil
	}

	found, err := s.messageRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	// FindByIDs sorts by time; restore like order
	byID := make(map[uint]*entity.Message, len(found))
	for _, m := range found {
		byID[m.ID] = m
	}
	messages := make([]*entity.Message, 0, len(found))
	for _, id := range ids {
		if m, ok := byID[id]; ok {
			messages = append(messages, m)
		}
	}
	return messages, nil
}
