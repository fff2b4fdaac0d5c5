package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Mkw68Mkw/fast-chat/internal/domain"
)

// GormMessageRepository implements MessageRepository using GORM.
type GormMessageRepository struct {
	db *gorm.DB
}

// NewGormMessageRepository creates a new GORM-based message repository.
func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	return &GormMessageRepository{db: db}
}

// Append stores one chat message.
func (r *GormMessageRepository) Append(ctx context.Context, msg *domain.ChatMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	return r.db.WithContext(ctx).Create(domain.MessageToModel(msg)).Error
}

// ListByRoom returns up to limit of the most recent messages in a room,
// ordered ascending by timestamp. limit <= 0 returns everything.
func (r *GormMessageRepository) ListByRoom(ctx context.Context, roomID string, limit int) ([]domain.ChatMessage, error) {
	q := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("timestamp desc")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var models []domain.MessageModel
	if err := q.Find(&models).Error; err != nil {
		return nil, err
	}

	// Query is newest-first so limit trims the oldest; flip to ascending.
	messages := make([]domain.ChatMessage, len(models))
	for i := range models {
		messages[len(models)-1-i] = *models[i].ToDomain()
	}
	return messages, nil
}
