package repository

import (
	"context"
	"time"

	"anoa.com/warbler/internal/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LikeRepository interface {
	// Create reports whether a new row was written.
	Create(ctx context.Context, userID, messageID uint) (bool, error)
	// Delete reports whether a row was removed.
	Delete(ctx context.Context, userID, messageID uint) (bool, error)
	Exists(ctx context.Context, userID, messageID uint) (bool, error)
	MessageIDsByUser(ctx context.Context, userID uint) ([]uint, error)
	CountForMessage(ctx context.Context, messageID uint) (int64, error)
	CountByUser(ctx context.Context, userID uint) (int64, error)
	// MostLiked returns message ids with the most likes since the given time,
	// most liked first.
	MostLiked(ctx context.Context, since time.Time, limit int) ([]uint, error)
}

type likeRepository struct {
	db *gorm.DB
}

func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db}
}

func (r *likeRepository) Create(ctx context.Context, userID, messageID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&entity.Like{UserID: userID, MessageID: messageID})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *likeRepository) Delete(ctx context.Context, userID, messageID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND message_id = ?", userID, messageID).
		Delete(&entity.Like{})
	return res.RowsAffected > 0, res.Error
}

func (r *likeRepository) Exists(ctx context.Context, userID, messageID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.Like{}).
		Where("user_id = ? AND message_id = ?", userID, messageID).
		Count(&count).Error
	return count > 0, err
}

func (r *likeRepository) MessageIDsByUser(ctx context.Context, userID uint) ([]uint, error) {
	ids := []uint{}
	err := r.db.WithContext(ctx).
		Model(&entity.Like{}).
		Where("user_id = ?", userID).
		Order("message_id ASC").
		Pluck("message_id", &ids).Error
	return ids, err
}

func (r *likeRepository) CountForMessage(ctx context.Context, messageID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Like{}).Where("message_id = ?", messageID).Count(&count).Error
	return count, err
}

func (r *likeRepository) CountByUser(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Like{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *likeRepository) MostLiked(ctx context.Context, since time.Time, limit int) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&entity.Like{}).
		Where("created_at >= ?", since).
		Group("message_id").
		Order("COUNT(*) DESC, message_id DESC").
		Limit(limit).
		Pluck("message_id", &ids).Error
	return ids, err
}
