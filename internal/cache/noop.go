package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/Mkw68Mkw/fast-chat/internal/domain"
)

// NoopHistoryCache is used when caching is disabled: every Get is a miss.
type NoopHistoryCache struct{}

// NewNoopHistoryCache creates a cache that caches nothing.
func NewNoopHistoryCache() *NoopHistoryCache {
	return &NoopHistoryCache{}
}

func (NoopHistoryCache) BuildKey(roomID string, limit int) string {
	return fmt.Sprintf("%s:%d", roomID, limit)
}

func (NoopHistoryCache) Get(ctx context.Context, key string) ([]domain.ChatMessage, error) {
	return nil, ErrCacheMiss
}

func (NoopHistoryCache) Set(ctx context.Context, key string, messages []domain.ChatMessage, ttl time.Duration) error {
	return nil
}

func (NoopHistoryCache) InvalidateRoom(ctx context.Context, roomID string) error {
	return nil
}

func (NoopHistoryCache) Close() error {
	return nil
}
