package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Mkw68Mkw/fast-chat/internal/domain"
)

// RedisHistoryCache implements HistoryCache on Redis. Keys are grouped per
// room under a common prefix so invalidation can clear a whole room at once.
type RedisHistoryCache struct {
	client *redis.Client
	prefix string
}

// Config holds Redis connection settings.
type Config struct {
	Address  string
	Password string
	DB       int
}

// NewRedisHistoryCache connects to Redis and returns a history cache.
func NewRedisHistoryCache(cfg Config, prefix string) (*RedisHistoryCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisHistoryCache{
		client: client,
		prefix: prefix,
	}, nil
}

// BuildKey builds the cache key for one history page.
func (c *RedisHistoryCache) BuildKey(roomID string, limit int) string {
	return fmt.Sprintf("%s:%s:%d", c.prefix, roomID, limit)
}

// Get reads a cached history page.
func (c *RedisHistoryCache) Get(ctx context.Context, key string) ([]domain.ChatMessage, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var messages []domain.ChatMessage
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache data: %w", err)
	}

	return messages, nil
}

// Set stores a history page with a TTL.
func (c *RedisHistoryCache) Set(ctx context.Context, key string, messages []domain.ChatMessage, ttl time.Duration) error {
	data, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %w", err)
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set in redis: %w", err)
	}

	return nil
}

// InvalidateRoom drops all cached pages for a room. Called after an append
// so history reads never serve a page missing the newest message past the
// TTL window.
func (c *RedisHistoryCache) InvalidateRoom(ctx context.Context, roomID string) error {
	pattern := fmt.Sprintf("%s:%s:*", c.prefix, roomID)

	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cache keys: %w", err)
	}

	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete cache keys: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (c *RedisHistoryCache) Close() error {
	return c.client.Close()
}
