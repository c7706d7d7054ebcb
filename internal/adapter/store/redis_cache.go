package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const replyKeyPrefix = "reply:"

type RedisReplyCache struct {
	client *redis.Client
	ttl    time.Duration // zero keeps entries until evicted
}

func NewRedisReplyCache(client *redis.Client, ttl time.Duration) *RedisReplyCache {
	return &RedisReplyCache{
		client: client,
		ttl:    ttl,
	}
}

func (r *RedisReplyCache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := r.client.Get(ctx, replyKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get reply: %w", err)
	}
	return val, true, nil
}

func (r *RedisReplyCache) Set(ctx context.Context, key, reply string) error {
	if err := r.client.Set(ctx, replyKeyPrefix+key, reply, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set reply: %w", err)
	}
	return nil
}

// Ping is used at startup to fail fast on a misconfigured address.
func (r *RedisReplyCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
