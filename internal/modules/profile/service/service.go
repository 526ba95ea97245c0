package profile

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"anoa.com/warbler/internal/entity"
	follow "anoa.com/warbler/internal/modules/follow/service"
	like "anoa.com/warbler/internal/modules/like/service"
	message "anoa.com/warbler/internal/modules/message/service"
	profileDto "anoa.com/warbler/internal/modules/profile/dto"
	search "anoa.com/warbler/internal/modules/search/service"
	userRepo "anoa.com/warbler/internal/modules/user/repository"
	userService "anoa.com/warbler/internal/modules/user/service"
	"anoa.com/warbler/pkg/apperror"
	"anoa.com/warbler/pkg/credential"
	"anoa.com/warbler/pkg/sanitize"
	"anoa.com/warbler/pkg/storage"
	"github.com/sirupsen/logrus"
)

// ErrWrongPassword rejects a profile edit whose current password does not match.
var ErrWrongPassword = apperror.New(http.StatusForbidden, "wrong password, please try again", apperror.ErrUnauthorized)

type ProfileService interface {
	GetCurrentProfile(ctx context.Context, user *entity.User) (*profileDto.ProfileResponse, error)
	// GetPublicProfile shows userID as seen by viewer, who may be nil.
	GetPublicProfile(ctx context.Context, viewer *entity.User, userID uint) (*profileDto.PublicProfileResponse, error)
	UpdateProfile(ctx context.Context, user *entity.User, input profileDto.UpdateProfileInput, avatar, header *profileDto.ImageFile) (*entity.User, error)
}

type profileService struct {
	repo           userRepo.UserRepository
	users          userService.UserService
	hasher         *credential.Hasher
	followService  follow.FollowService
	messageService message.MessageService
	likeService    like.LikeService
	imageStorage   storage.ImageStorage
	search         search.SearchService
}

func NewProfileService(
	repo userRepo.UserRepository,
	users userService.UserService,
	hasher *credential.Hasher,
	followService follow.FollowService,
	messageService message.MessageService,
	likeService like.LikeService,
	imageStorage storage.ImageStorage,
	search search.SearchService,
) ProfileService {
	return &profileService{
		repo:           repo,
		users:          users,
		hasher:         hasher,
		followService:  followService,
		messageService: messageService,
		likeService:    likeService,
		imageStorage:   imageStorage,
		search:         search,
	}
}

func (s *profileService) counts(ctx context.Context, userID uint) (profileDto.Counts, error) {
	var counts profileDto.Counts
	var err error

	if counts.Messages, err = s.messageService.CountByUser(ctx, userID); err != nil {
		return counts, err
	}
	if counts.Followers, counts.Following, err = s.followService.Counts(ctx, userID); err != nil {
		return counts, err
	}
	if counts.Likes, err = s.likeService.CountByUser(ctx, userID); err != nil {
		return counts, err
	}
	return counts, nil
}

func (s *profileService) GetCurrentProfile(ctx context.Context, user *entity.User) (*profileDto.ProfileResponse, error) {
	counts, err := s.counts(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &profileDto.ProfileResponse{User: user, Counts: counts}, nil
}

func (s *profileService) GetPublicProfile(ctx context.Context, viewer *entity.User, userID uint) (*profileDto.PublicProfileResponse, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	counts, err := s.counts(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	messages, err := s.messageService.ListByUser(ctx, user.ID, message.DefaultListSize)
	if err != nil {
		return nil, err
	}

	resp := &profileDto.PublicProfileResponse{
		User:     user,
		Counts:   counts,
		Messages: messages,
	}

	if viewer != nil && viewer.ID != user.ID {
		if resp.IsFollowing, err = s.followService.IsFollowing(ctx, viewer.ID, user.ID); err != nil {
			return nil, err
		}
		if resp.FollowsYou, err = s.followService.IsFollowedBy(ctx, viewer.ID, user.ID); err != nil {
			return nil, err
		}
	}
	return resp, nil
}

// UpdateProfile re-authenticates with the current password, then applies the
// form. Empty image fields reset to the site defaults.
func (s *profileService) UpdateProfile(ctx context.Context, user *entity.User, input profileDto.UpdateProfileInput, avatar, header *profileDto.ImageFile) (*entity.User, error) {
	if !s.hasher.Verify(input.Password, user.PasswordHash) {
		return nil, ErrWrongPassword
	}

	username := strings.TrimSpace(input.Username)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if username == "" {
		return nil, apperror.Validation("username is required")
	}
	if email == "" {
		return nil, apperror.Validation("email is required")
	}
	if err := s.users.EnsureAvailable(ctx, username, email, user.ID); err != nil {
		return nil, err
	}

	updated := *user
	updated.Username = username
	updated.Email = email
	updated.ImageURL = strings.TrimSpace(input.ImageURL)
	updated.HeaderImageURL = strings.TrimSpace(input.HeaderImageURL)
	updated.Bio = sanitize.Optional(input.Bio)
	updated.Location = sanitize.Optional(input.Location)

	if input.NewPassword != "" {
		hash, err := s.hasher.Hash(input.NewPassword)
		if err != nil {
			return nil, err
		}
		updated.PasswordHash = hash
	}

	var uploaded []string
	if avatar != nil {
		url, err := s.upload(ctx, avatar, "avatars")
		if err != nil {
			return nil, err
		}
		updated.ImageURL = url
		uploaded = append(uploaded, url)
	}
	if header != nil {
		url, err := s.upload(ctx, header, "headers")
		if err != nil {
			s.discard(ctx, uploaded...)
			return nil, err
		}
		updated.HeaderImageURL = url
		uploaded = append(uploaded, url)
	}

	updated.ApplyImageDefaults()

	if err := s.repo.Update(ctx, &updated); err != nil {
		s.discard(ctx, uploaded...)
		if errors.Is(err, apperror.ErrDuplicate) {
			return nil, apperror.Duplicate("username or email already taken")
		}
		return nil, err
	}

	// replaced images we host are no longer referenced
	if user.ImageURL != updated.ImageURL {
		s.discard(ctx, user.ImageURL)
	}
	if user.HeaderImageURL != updated.HeaderImageURL {
		s.discard(ctx, user.HeaderImageURL)
	}

	if s.search != nil {
		if err := s.search.IndexUser(&updated); err != nil {
			logrus.WithError(err).WithField("user_id", updated.ID).Warn("failed to reindex user")
		}
	}

	*user = updated
	return user, nil
}

func (s *profileService) upload(ctx context.Context, file *profileDto.ImageFile, folder string) (string, error) {
	if s.imageStorage == nil {
		return "", apperror.Validation("image uploads are not available")
	}
	return s.imageStorage.UploadImage(ctx, file.Reader, folder, file.FileName)
}

func (s *profileService) discard(ctx context.Context, urls ...string) {
	if s.imageStorage == nil {
		return
	}
	for _, url := range urls {
		if !storage.IsHosted(url) {
			continue
		}
		if err := s.imageStorage.DeleteImage(ctx, url); err != nil {
			logrus.WithError(err).WithField("url", url).Warn("failed to delete image")
		}
	}
}
