package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/match-predictor/internal/config"
)

// RedisClient wraps redis.Client
type RedisClient struct {
	client *redis.Client
}

// NewRedisClient creates a new Redis client and checks the connection
func NewRedisClient(ctx context.Context, cfg config.RedisConfig, log *logrus.Logger) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	if log != nil {
		log.WithField("addr", cfg.Addr).Info("Connected to Redis")
	}
	return &RedisClient{client: client}, nil
}

// SetString stores a plain string value without expiration
func (r *RedisClient) SetString(ctx context.Context, key, value string) error {
	if r.client == nil {
		return fmt.Errorf("redis client not initialized")
	}
	return r.client.Set(ctx, key, value, 0).Err()
}

// GetString retrieves a plain string value. A missing key yields redis.Nil.
func (r *RedisClient) GetString(ctx context.Context, key string) (string, error) {
	if r.client == nil {
		return "", fmt.Errorf("redis client not initialized")
	}
	return r.client.Get(ctx, key).Result()
}

// Delete removes a key from Redis
func (r *RedisClient) Delete(ctx context.Context, key string) error {
	if r.client == nil {
		return fmt.Errorf("redis client not initialized")
	}
	return r.client.Del(ctx, key).Err()
}

// Close closes the Redis connection
func (r *RedisClient) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// RedisLastUpdateStore keeps the timestamp as an RFC3339 UTC string under a
// single key.
type RedisLastUpdateStore struct {
	client *RedisClient
	key    string
}

// NewRedisLastUpdateStore creates a store on client
func NewRedisLastUpdateStore(client *RedisClient, key string) *RedisLastUpdateStore {
	return &RedisLastUpdateStore{client: client, key: key}
}

// Name implements LastUpdateStore.
func (s *RedisLastUpdateStore) Name() string {
	return "redis"
}

// Save implements LastUpdateStore.
func (s *RedisLastUpdateStore) Save(ctx context.Context, at time.Time) error {
	if err := s.client.SetString(ctx, s.key, formatTimestamp(at)); err != nil {
		return fmt.Errorf("failed to save last update: %w", err)
	}
	return nil
}

// Load implements LastUpdateStore.
func (s *RedisLastUpdateStore) Load(ctx context.Context) (time.Time, error) {
	val, err := s.client.GetString(ctx, s.key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return time.Time{}, ErrNoLastUpdate
		}
		return time.Time{}, fmt.Errorf("failed to load last update: %w", err)
	}
	at, err := parseTimestamp(val)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid last update %q: %w", val, err)
	}
	return at, nil
}

// Close implements LastUpdateStore.
func (s *RedisLastUpdateStore) Close() error {
	return s.client.Close()
}

// Ping checks the connection
func (r *RedisClient) Ping(ctx context.Context) error {
	if r.client == nil {
		return fmt.Errorf("redis client not initialized")
	}
	return r.client.Ping(ctx).Err()
}

// Ping checks the store's Redis connection
func (s *RedisLastUpdateStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}
