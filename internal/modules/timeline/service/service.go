package timeline

import (
	"context"

	"anoa.com/warbler/internal/entity"
	followRepo "anoa.com/warbler/internal/modules/follow/repository"
	messageRepo "anoa.com/warbler/internal/modules/message/repository"
)

// Limit caps how many messages a timeline holds.
const Limit = 100

type TimelineService interface {
	// TimelineFor returns the newest messages by user and everyone user
	// follows. A nil user gets an empty timeline.
	TimelineFor(ctx context.Context, user *entity.User) ([]*entity.Message, error)
}

type timelineService struct {
	followRepo  followRepo.FollowRepository
	messageRepo messageRepo.MessageRepository
}

func NewTimelineService(followRepo followRepo.FollowRepository, messageRepo messageRepo.MessageRepository) TimelineService {
	return &timelineService{
		followRepo:  followRepo,
		messageRepo: messageRepo,
	}
}

func (s *timelineService) TimelineFor(ctx context.Context, user *entity.User) ([]*entity.Message, error) {
	if user == nil {
		return []*entity.Message{}, nil
	}

	authors, err := s.followRepo.FollowingIDs(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	authors = append(authors, user.ID)

	return s.messageRepo.ListByAuthors(ctx, authors, Limit)
}
