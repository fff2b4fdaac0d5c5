package service

import (
	"context"
	"errors"

	"github.com/Mkw68Mkw/fast-chat/internal/audit"
	"github.com/Mkw68Mkw/fast-chat/internal/domain"
	"github.com/Mkw68Mkw/fast-chat/internal/repository"
	"github.com/Mkw68Mkw/fast-chat/pkg/log"
)

// defaultRooms are created on first boot so a fresh deployment is usable
// immediately.
var defaultRooms = []string{
	"Allgemein",
	"Technik",
	"Gaming",
	"Programmierung",
	"Off-Topic",
}

type roomService struct {
	repo repository.RoomRepository
}

// NewRoomService creates the room service.
func NewRoomService(repo repository.RoomRepository) RoomService {
	return &roomService{repo: repo}
}

// CreateRoom creates a new chatroom.
func (s *roomService) CreateRoom(ctx context.Context, req *domain.CreateRoomRequest) (*domain.Room, error) {
	room := &domain.Room{Name: req.Name}
	if err := s.repo.Create(ctx, room); err != nil {
		return nil, err
	}

	audit.LogWithDetail(ctx, audit.ActionCreateRoom, "", room.ID, "chatroom created")
	return room, nil
}

// GetRoom retrieves a chatroom by ID.
func (s *roomService) GetRoom(ctx context.Context, id string) (*domain.Room, error) {
	room, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return room, nil
}

// ListRooms returns all chatrooms.
func (s *roomService) ListRooms(ctx context.Context) ([]domain.Room, error) {
	return s.repo.List(ctx)
}

// SeedDefaults creates the default chatrooms if none exist yet.
func (s *roomService) SeedDefaults(ctx context.Context) error {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	l := log.Ctx(ctx)
	for _, name := range defaultRooms {
		if err := s.repo.Create(ctx, &domain.Room{Name: name}); err != nil {
			if errors.Is(err, repository.ErrRoomExists) {
				continue
			}
			return err
		}
	}
	l.Info().Int("count", len(defaultRooms)).Msg("seeded default chatrooms")
	return nil
}
