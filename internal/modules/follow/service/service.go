package follow

import (
	"context"

	"anoa.com/warbler/internal/entity"
	followRepo "anoa.com/warbler/internal/modules/follow/repository"
	notifService "anoa.com/warbler/internal/modules/notification/service"
	userRepo "anoa.com/warbler/internal/modules/user/repository"
	"anoa.com/warbler/internal/monitoring"
	"anoa.com/warbler/pkg/apperror"
	"github.com/sirupsen/logrus"
)

type FollowService interface {
	// Follow is idempotent; following yourself is rejected.
	Follow(ctx context.Context, follower *entity.User, targetID uint) error
	// Unfollow of an absent edge is a no-op.
	Unfollow(ctx context.Context, follower *entity.User, targetID uint) error
	IsFollowing(ctx context.Context, followerID, followedID uint) (bool, error)
	IsFollowedBy(ctx context.Context, userID, otherID uint) (bool, error)
	Followers(ctx context.Context, userID uint) ([]*entity.User, error)
	Following(ctx context.Context, userID uint) ([]*entity.User, error)
	FollowingIDs(ctx context.Context, userID uint) ([]uint, error)
	Counts(ctx context.Context, userID uint) (followers, following int64, err error)
}

type followService struct {
	repo                followRepo.FollowRepository
	userRepo            userRepo.UserRepository
	notificationService notifService.NotificationService
}

func NewFollowService(repo followRepo.FollowRepository, userRepo userRepo.UserRepository, notificationService notifService.NotificationService) FollowService {
	return &followService{
		repo:                repo,
		userRepo:            userRepo,
		notificationService: notificationService,
	}
}

func (s *followService) Follow(ctx context.Context, follower *entity.User, targetID uint) error {
	if follower.ID == targetID {
		return apperror.Validation("cannot follow yourself")
	}
	if _, err := s.userRepo.FindByID(ctx, targetID); err != nil {
		return err
	}

	created, err := s.repo.Create(ctx, follower.ID, targetID)
	if err != nil {
		return err
	}
	if !created {
		return nil
	}

	monitoring.FollowsCreated.Inc()
	if s.notificationService != nil {
		if err := s.notificationService.Notify(ctx, targetID, follower, entity.NotificationFollow, nil); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{"follower_id": follower.ID, "followed_id": targetID}).Warn("failed to create follow notification")
		}
	}
	return nil
}

func (s *followService) Unfollow(ctx context.Context, follower *entity.User, targetID uint) error {
	return s.repo.Delete(ctx, follower.ID, targetID)
}

func (s *followService) IsFollowing(ctx context.Context, followerID, followedID uint) (bool, error) {
	return s.repo.Exists(ctx, followerID, followedID)
}

// IsFollowedBy reports whether otherID follows userID.
func (s *followService) IsFollowedBy(ctx context.Context, userID, otherID uint) (bool, error) {
	return s.repo.Exists(ctx, otherID, userID)
}

func (s *followService) Followers(ctx context.Context, userID uint) ([]*entity.User, error) {
	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.repo.Followers(ctx, userID)
}

func (s *followService) Following(ctx context.Context, userID uint) ([]*entity.User, error) {
	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.repo.Following(ctx, userID)
}

func (s *followService) FollowingIDs(ctx context.Context, userID uint) ([]uint, error) {
	return s.repo.FollowingIDs(ctx, userID)
}

func (s *followService) Counts(ctx context.Context, userID uint) (int64, int64, error) {
	followers, err := s.repo.CountFollowers(ctx, userID)
	if err != nil {
		return 0, 0, err
	}
	following, err := s.repo.CountFollowing(ctx, userID)
	if err != nil {
		return 0, 0, err
	}
	return followers, following, nil
}
