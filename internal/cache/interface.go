package cache

import (
	"context"
	"errors"
	"time"

	"github.com/Mkw68Mkw/fast-chat/internal/domain"
)

// ErrCacheMiss is returned when a key is absent.
var ErrCacheMiss = errors.New("cache miss")

// HistoryCache caches room history pages in front of the message repository.
type HistoryCache interface {
	BuildKey(roomID string, limit int) string
	Get(ctx context.Context, key string) ([]domain.ChatMessage, error)
	Set(ctx context.Context, key string, messages []domain.ChatMessage, ttl time.Duration) error
	InvalidateRoom(ctx context.Context, roomID string) error
	Close() error
}
