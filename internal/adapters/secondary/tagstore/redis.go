package tagstore

import (
	"context"
	"fmt"
	"time"

	"github.com/lorrc/helpdesk-bridge/internal/core/domain"
	"github.com/lorrc/helpdesk-bridge/internal/core/ports"
	"github.com/redis/go-redis/v9"
)

// RedisConfig configures the Redis-backed store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Key      string
	Timeout  time.Duration
}

// RedisStore keeps the notified tags as members of one Redis set.
type RedisStore struct {
	client  *redis.Client
	key     string
	timeout time.Duration
}

var _ ports.NotifiedTagStore = (*RedisStore)(nil)

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	key := cfg.Key
	if key == "" {
		key = "bridge:notified_tags"
	}
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.Timeout,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
	})

	s := &RedisStore{client: client, key: key, timeout: cfg.Timeout}
	if err := s.Ping(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("tagstore: connect to redis: %w", err)
	}
	return s, nil
}

func (s *RedisStore) Contains(ctx context.Context, tag domain.NotifiedTag) (bool, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	ok, err := s.client.SIsMember(ctx, s.key, string(tag)).Result()
	if err != nil {
		return false, fmt.Errorf("tagstore: lookup %s: %w", tag, err)
	}
	return ok, nil
}

func (s *RedisStore) Add(ctx context.Context, tag domain.NotifiedTag) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.client.SAdd(ctx, s.key, string(tag)).Err(); err != nil {
		return fmt.Errorf("tagstore: add %s: %w", tag, err)
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
