package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Mkw68Mkw/fast-chat/internal/domain"
)

// GormRoomRepository implements RoomRepository using GORM.
type GormRoomRepository struct {
	db *gorm.DB
}

// NewGormRoomRepository creates a new GORM-based room repository.
func NewGormRoomRepository(db *gorm.DB) *GormRoomRepository {
	return &GormRoomRepository{db: db}
}

// Create creates a new chatroom.
func (r *GormRoomRepository) Create(ctx context.Context, room *domain.Room) error {
	if room.ID == "" {
		room.ID = uuid.New().String()
	}

	model := domain.RoomToModel(room)
	result := r.db.WithContext(ctx).Create(model)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return ErrRoomExists
		}
		return result.Error
	}

	room.CreatedAt = model.CreatedAt
	return nil
}

// GetByID retrieves a chatroom by ID.
func (r *GormRoomRepository) GetByID(ctx context.Context, id string) (*domain.Room, error) {
	var model domain.RoomModel
	result := r.db.WithContext(ctx).First(&model, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, result.Error
	}
	return model.ToDomain(), nil
}

// List returns all chatrooms ordered by creation time.
func (r *GormRoomRepository) List(ctx context.Context) ([]domain.Room, error) {
	var models []domain.RoomModel
	result := r.db.WithContext(ctx).Order("created_at asc").Find(&models)
	if result.Error != nil {
		return nil, result.Error
	}

	rooms := make([]domain.Room, 0, len(models))
	for i := range models {
		rooms = append(rooms, *models[i].ToDomain())
	}
	return rooms, nil
}

// Count returns the number of chatrooms.
func (r *GormRoomRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&domain.RoomModel{}).Count(&count)
	return count, result.Error
}
