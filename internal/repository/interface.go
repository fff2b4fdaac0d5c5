package repository

import (
	"context"
	"errors"

	"github.com/Mkw68Mkw/fast-chat/internal/domain"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already taken")
	ErrRoomNotFound  = errors.New("room not found")
	ErrRoomExists    = errors.New("room already exists")
)

// UserRepository defines the interface for user persistence.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

// RoomRepository defines the interface for chatroom persistence.
type RoomRepository interface {
	Create(ctx context.Context, room *domain.Room) error
	GetByID(ctx context.Context, id string) (*domain.Room, error)
	List(ctx context.Context) ([]domain.Room, error)
	Count(ctx context.Context) (int64, error)
}

// MessageRepository is the durable history store: append-only writes and
// reads ordered ascending by timestamp.
type MessageRepository interface {
	Append(ctx context.Context, msg *domain.ChatMessage) error
	ListByRoom(ctx context.Context, roomID string, limit int) ([]domain.ChatMessage, error)
}
