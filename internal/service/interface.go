package service

import (
	"context"
	"errors"

	"github.com/Mkw68Mkw/fast-chat/internal/domain"
	"github.com/Mkw68Mkw/fast-chat/internal/hub"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMissingCredential  = errors.New("missing credential")
	ErrUserNotFound       = errors.New("user not found")
	ErrRoomNotFound       = errors.New("room not found")
)

// Identity is the verified, stable identity extracted from a credential.
type Identity struct {
	UserID   string
	Username string
}

// IdentityVerifier validates a bearer credential and yields the identity it
// was issued for.
type IdentityVerifier interface {
	Verify(ctx context.Context, credential string) (*Identity, error)
}

// ChatService drives the lifecycle of one realtime connection from
// handshake to teardown.
type ChatService interface {
	Run(ctx context.Context, client *hub.Client, credential string)
}

// AccountService handles signup, login, logout and token refresh.
type AccountService interface {
	Register(ctx context.Context, req *domain.RegisterRequest) (*domain.AuthResponse, error)
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.AuthResponse, error)
	Logout(ctx context.Context, userID string) error
	Refresh(ctx context.Context, req *domain.RefreshTokenRequest) (*domain.AuthResponse, error)
	GetProfile(ctx context.Context, userID string) (*domain.UserResponse, error)
}

// RoomService handles chatroom management.
type RoomService interface {
	CreateRoom(ctx context.Context, req *domain.CreateRoomRequest) (*domain.Room, error)
	GetRoom(ctx context.Context, id string) (*domain.Room, error)
	ListRooms(ctx context.Context) ([]domain.Room, error)
	SeedDefaults(ctx context.Context) error
}

// HistoryService fronts the durable message store with a read cache.
type HistoryService interface {
	Append(ctx context.Context, msg *domain.ChatMessage) error
	GetHistory(ctx context.Context, roomID string, limit int) ([]domain.ChatMessage, error)
}
