package service

import (
	"context"
	"errors"
	"sort"
	"strings"

	"anoa.com/warbler/internal/entity"
	"anoa.com/warbler/internal/modules/user/dto"
	"anoa.com/warbler/internal/modules/user/repository"
	"anoa.com/warbler/internal/monitoring"
	search "anoa.com/warbler/internal/modules/search/service"
	"anoa.com/warbler/pkg/apperror"
	"anoa.com/warbler/pkg/credential"
	"github.com/sirupsen/logrus"
)

type UserService interface {
	Signup(ctx context.Context, input dto.SignupInput) (*entity.User, error)
	// Authenticate returns nil, nil on any credential mismatch.
	Authenticate(ctx context.Context, username, password string) (*entity.User, error)
	GetByID(ctx context.Context, id uint) (*entity.User, error)
	Search(ctx context.Context, query string) ([]*entity.User, error)
	Delete(ctx context.Context, user *entity.User) error
	// EnsureAvailable fails with ErrDuplicate when username or email belongs
	// to someone other than selfID.
	EnsureAvailable(ctx context.Context, username, email string, selfID uint) error
}

type userService struct {
	repo   repository.UserRepository
	hasher *credential.Hasher
	search search.SearchService
}

func NewUserService(repo repository.UserRepository, hasher *credential.Hasher, search search.SearchService) UserService {
	return &userService{
		repo:   repo,
		hasher: hasher,
		search: search,
	}
}

func (s *userService) Signup(ctx context.Context, input dto.SignupInput) (*entity.User, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if username == "" {
		return nil, apperror.Validation("username is required")
	}
	if email == "" {
		return nil, apperror.Validation("email is required")
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	if err := s.EnsureAvailable(ctx, username, email, 0); err != nil {
		return nil, err
	}

	user := &entity.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		ImageURL:     strings.TrimSpace(input.ImageURL),
	}
	user.ApplyImageDefaults()

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrDuplicate) {
			// lost a race with a concurrent signup
			return nil, apperror.Duplicate("username or email already taken")
		}
		return nil, err
	}

	monitoring.SignupSuccess.Inc()
	s.index(user)
	return user, nil
}

func (s *userService) EnsureAvailable(ctx context.Context, username, email string, selfID uint) error {
	if existing, err := s.repo.FindByUsername(ctx, username); err == nil && existing.ID != selfID {
		return apperror.Duplicate("username already taken")
	} else if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		return err
	}

	if existing, err := s.repo.FindByEmail(ctx, email); err == nil && existing.ID != selfID {
		return apperror.Duplicate("email already taken")
	} else if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		return err
	}
	return nil
}

func (s *userService) Authenticate(ctx context.Context, username, password string) (*entity.User, error) {
	user, err := s.repo.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			monitoring.LoginFailure.Inc()
			return nil, nil
		}
		return nil, err
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		monitoring.LoginFailure.Inc()
		return nil, nil
	}

	monitoring.LoginSuccess.Inc()
	return user, nil
}

func (s *userService) GetByID(ctx context.Context, id uint) (*entity.User, error) {
	return s.repo.FindByID(ctx, id)
}

// Search returns every user whose username contains query. Meilisearch,
// when wired, only decides the order; users it does not rank follow in id order.
func (s *userService) Search(ctx context.Context, query string) ([]*entity.User, error) {
	query = strings.TrimSpace(query)
	users, err := s.repo.Search(ctx, query)
	if err != nil || query == "" || s.search == nil || len(users) == 0 {
		return users, err
	}

	ids, err := s.search.SearchUsers(query, len(users))
	if err != nil {
		logrus.WithError(err).Warn("user search ranking failed, using database order")
		return users, nil
	}
	return rankByIDs(users, ids), nil
}

// rankByIDs moves users named in ids to the front in that order. Ids that
// are not in users are ignored.
func rankByIDs(users []*entity.User, ids []uint) []*entity.User {
	rank := make(map[uint]int, len(ids))
	for i, id := range ids {
		if _, seen := rank[id]; !seen {
			rank[id] = i
		}
	}

	ranked := make([]*entity.User, 0, len(users))
	var rest []*entity.User
	for _, u := range users {
		if _, ok := rank[u.ID]; ok {
			ranked = append(ranked, u)
		} else {
			rest = append(rest, u)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return rank[ranked[i].ID] < rank[ranked[j].ID]
	})
	return append(ranked, rest...)
}

func (s *userService) Delete(ctx context.Context, user *entity.User) error {
	messageIDs, err := s.repo.DeleteCascade(ctx, user.ID)
	if err != nil {
		return err
	}

	if s.search != nil {
		if err := s.search.DeleteUser(user.ID); err != nil {
			logrus.WithError(err).WithField("user_id", user.ID).Warn("failed to remove user from search index")
		}
		if err := s.search.DeleteMessages(messageIDs); err != nil {
			logrus.WithError(err).WithField("user_id", user.ID).Warn("failed to remove messages from search index")
		}
	}

	logrus.WithFields(logrus.Fields{"user_id": user.ID, "messages": len(messageIDs)}).Info("user deleted")
	return nil
}

func (s *userService) index(user *entity.User) {
	if s.search == nil {
		return
	}
	if err := s.search.IndexUser(user); err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Warn("failed to index user")
	}
}
