package repository

import (
	"context"
	"errors"
	"strings"

	"anoa.com/warbler/internal/entity"
	"anoa.com/warbler/pkg/apperror"
	"gorm.io/gorm"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindByID(ctx context.Context, id uint) (*entity.User, error)
	FindByUsername(ctx context.Context, username string) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	Search(ctx context.Context, query string) ([]*entity.User, error)
	Update(ctx context.Context, user *entity.User) error
	// DeleteCascade removes the user and everything that references it,
	// returning the ids of the messages that went with it.
	DeleteCascade(ctx context.Context, id uint) ([]uint, error)
	Count(ctx context.Context) (int64, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	return translate(r.db.WithContext(ctx).Create(user).Error)
}

func (r *userRepository) FindByID(ctx context.Context, id uint) (*entity.User, error) {
	var user entity.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	var user entity.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	var user entity.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// likeEscaper makes LIKE treat the wildcard characters of a query literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Search matches username substrings; an empty query lists everyone.
// Results are ordered by id so repeated listings are stable.
func (r *userRepository) Search(ctx context.Context, query string) ([]*entity.User, error) {
	users := []*entity.User{}
	q := r.db.WithContext(ctx).Order("id ASC")
	if query != "" {
		q = q.Where(`username LIKE ? ESCAPE '\'`, "%"+likeEscaper.Replace(query)+"%")
	}
	if err := q.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) Update(ctx context.Context, user *entity.User) error {
	return translate(r.db.WithContext(ctx).Save(user).Error)
}

func (r *userRepository) DeleteCascade(ctx context.Context, id uint) ([]uint, error) {
	var messageIDs []uint
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&entity.Message{}).Where("user_id = ?", id).Pluck("id", &messageIDs).Error; err != nil {
			return err
		}

		notifications := tx.Where("user_id = ? OR actor_id = ?", id, id)
		if len(messageIDs) > 0 {
			notifications = notifications.Or("message_id IN ?", messageIDs)
		}
		if err := notifications.Delete(&entity.Notification{}).Error; err != nil {
			return err
		}

		likes := tx.Where("user_id = ?", id)
		if len(messageIDs) > 0 {
			likes = likes.Or("message_id IN ?", messageIDs)
		}
		if err := likes.Delete(&entity.Like{}).Error; err != nil {
			return err
		}

		if err := tx.Where("follower_id = ? OR followed_id = ?", id, id).Delete(&entity.Follow{}).Error; err != nil {
			return err
		}

		if err := tx.Where("user_id = ?", id).Delete(&entity.Message{}).Error; err != nil {
			return err
		}

		res := tx.Delete(&entity.User{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperror.NotFound("user")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return messageIDs, nil
}

func (r *userRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entity.User{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperror.NotFound("user")
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperror.ErrDuplicate
	default:
		return err
	}
}
