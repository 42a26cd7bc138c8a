package repository

import (
	"context"

	"github.com/ManuelReschke/tutorsite/app/models"
	"gorm.io/gorm"
)

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new message repository instance
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, message *models.Message) error {
	return r.db.WithContext(ctx).Create(message).Error
}

// List returns messages newest first
func (r *messageRepository) List(ctx context.Context, filter MessageFilter) ([]models.Message, error) {
	q := r.db.WithContext(ctx)
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.UnreadOnly {
		q = q.Where("is_read = ?", false)
	}
	var messages []models.Message
	err := q.Order("created_at DESC").Find(&messages).Error
	return messages, err
}

func (r *messageRepository) SetRead(ctx context.Context, id uint, isRead bool) error {
	tx := r.db.WithContext(ctx).Model(&models.Message{}).Where("id = ?", id).Update("is_read", isRead)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&models.Message{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}
	}
	return nil
}

func (r *messageRepository) Delete(ctx context.Context, id uint) error {
	return deleteByID(ctx, r.db, &models.Message{}, id)
}
