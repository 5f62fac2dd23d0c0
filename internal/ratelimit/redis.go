package ratelimit

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter shares failure counters across instances through Redis.
type RedisLimiter struct {
	redis  redis.UniversalClient
	config Config
}

func NewRedisLimiter(client redis.UniversalClient, cfg Config) *RedisLimiter {
	return &RedisLimiter{redis: client, config: cfg.withDefaults()}
}

func (l *RedisLimiter) Allow(ctx context.Context, identifier string) (bool, error) {
	count, err := l.redis.Get(ctx, failureKey(identifier)).Int()
	if errors.Is(err, redis.Nil) {
		return true, nil
	}
	if err != nil {
		return true, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return count < l.config.MaxAttempts, nil
}

func (l *RedisLimiter) RecordFailure(ctx context.Context, identifier string) error {
	key := failureKey(identifier)

	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.config.Window).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
		}
	}
	return nil
}

func (l *RedisLimiter) Reset(ctx context.Context, identifier string) error {
	if err := l.redis.Del(ctx, failureKey(identifier)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}
