package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Mkw68Mkw/fast-chat/internal/cache"
	"github.com/Mkw68Mkw/fast-chat/internal/domain"
	"github.com/Mkw68Mkw/fast-chat/internal/repository"
	"github.com/Mkw68Mkw/fast-chat/pkg/log"
)

type historyService struct {
	repo     repository.MessageRepository
	cache    cache.HistoryCache
	cacheTTL time.Duration
	sf       singleflight.Group
}

// NewHistoryService fronts the message repository with a read cache.
func NewHistoryService(
	repo repository.MessageRepository,
	historyCache cache.HistoryCache,
	cacheTTL time.Duration,
) HistoryService {
	return &historyService{
		repo:     repo,
		cache:    historyCache,
		cacheTTL: cacheTTL,
	}
}

// Append stores one message and invalidates the room's cached pages so the
// next history read sees it.
func (s *historyService) Append(ctx context.Context, msg *domain.ChatMessage) error {
	if err := s.repo.Append(ctx, msg); err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}

	// Invalidate off the request path.
	go func() {
		ictx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.cache.InvalidateRoom(ictx, msg.RoomID); err != nil {
			l := log.L()
			l.Warn().Err(err).Str(log.FieldRoomID, msg.RoomID).Msg("cache invalidation error")
		}
	}()

	return nil
}

// GetHistory returns up to limit messages for a room, ascending by
// timestamp. Concurrent reads for the same page are collapsed through
// singleflight.
func (s *historyService) GetHistory(ctx context.Context, roomID string, limit int) ([]domain.ChatMessage, error) {
	key := s.cache.BuildKey(roomID, limit)

	result, err, _ := s.sf.Do(key, func() (interface{}, error) {
		return s.fetchWithCache(ctx, roomID, limit, key)
	})
	if err != nil {
		return nil, err
	}

	messages, ok := result.([]domain.ChatMessage)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from singleflight")
	}
	return messages, nil
}

func (s *historyService) fetchWithCache(ctx context.Context, roomID string, limit int, key string) ([]domain.ChatMessage, error) {
	cached, err := s.cache.Get(ctx, key)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Msg("cache get error")
	}

	messages, err := s.repo.ListByRoom(ctx, roomID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	// Store off the request path.
	go func() {
		cctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.cache.Set(cctx, key, messages, s.cacheTTL); err != nil {
			l := log.L()
			l.Warn().Err(err).Msg("cache set error")
		}
	}()

	return messages, nil
}
