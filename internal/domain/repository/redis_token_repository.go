package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clinic/internal/common"

	"github.com/redis/go-redis/v9"
)

type redisTokenRepository struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisTokenRepository stores each slot under prefix+key. A positive ttl
// expires idle slots; zero keeps them until deleted.
func NewRedisTokenRepository(rdb *redis.Client, prefix string, ttl time.Duration) TokenRepository {
	return &redisTokenRepository{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (r *redisTokenRepository) key(key string) string {
	return r.prefix + key
}

func (r *redisTokenRepository) Get(ctx context.Context, key string) (string, error) {
	token, err := r.rdb.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", common.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redisTokenRepository.Get: %w", err)
	}
	return token, nil
}

func (r *redisTokenRepository) Set(ctx context.Context, key, token string) error {
	if err := r.rdb.Set(ctx, r.key(key), token, r.ttl).Err(); err != nil {
		return fmt.Errorf("redisTokenRepository.Set: %w", err)
	}
	return nil
}

func (r *redisTokenRepository) Delete(ctx context.Context, key string) error {
	if err := r.rdb.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("redisTokenRepository.Delete: %w", err)
	}
	return nil
}
