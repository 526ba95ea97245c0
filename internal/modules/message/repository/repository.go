package repository

import (
	"context"
	"errors"

	"anoa.com/warbler/internal/entity"
	"anoa.com/warbler/pkg/apperror"
	"gorm.io/gorm"
)

type MessageRepository interface {
	Create(ctx context.Context, message *entity.Message) error
	FindByID(ctx context.Context, id uint) (*entity.Message, error)
	// FindByIDs returns newest first and skips missing ids.
	FindByIDs(ctx context.Context, ids []uint) ([]*entity.Message, error)
	// ListByAuthors returns the newest messages written by any of userIDs.
	ListByAuthors(ctx context.Context, userIDs []uint, limit int) ([]*entity.Message, error)
	CountByUser(ctx context.Context, userID uint) (int64, error)
	Count(ctx context.Context) (int64, error)
	// Delete removes the message together with its likes and notifications.
	Delete(ctx context.Context, id uint) error
}

type messageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, message *entity.Message) error {
	return r.db.WithContext(ctx).Omit("User").Create(message).Error
}

func (r *messageRepository) FindByID(ctx context.Context, id uint) (*entity.Message, error) {
	var message entity.Message
	err := r.db.WithContext(ctx).Preload("User").Where("id = ?", id).First(&message).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("message")
		}
		return nil, err
	}
	return &message, nil
}

func (r *messageRepository) FindByIDs(ctx context.Context, ids []uint) ([]*entity.Message, error) {
	messages := []*entity.Message{}
	if len(ids) == 0 {
		return messages, nil
	}
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("id IN ?", ids).
		Order("timestamp DESC, id DESC").
		Find(&messages).Error
	return messages, err
}

func (r *messageRepository) ListByAuthors(ctx context.Context, userIDs []uint, limit int) ([]*entity.Message, error) {
	messages := []*entity.Message{}
	if len(userIDs) == 0 {
		return messages, nil
	}
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("user_id IN ?", userIDs).
		Order("timestamp DESC, id DESC").
		Limit(limit).
		Find(&messages).Error
	return messages, err
}

func (r *messageRepository) CountByUser(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Message{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *messageRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Message{}).Count(&count).Error
	return count, err
}

func (r *messageRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("message_id = ?", id).Delete(&entity.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("message_id = ?", id).Delete(&entity.Notification{}).Error; err != nil {
			return err
		}

		res := tx.Delete(&entity.Message{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperror.NotFound("message")
		}
		return nil
	})
}
