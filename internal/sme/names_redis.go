package sme

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisNames is a NameCache shared between gateway instances, stored as one
// Redis hash. Redis failures are logged and reported as an unpopulated
// cache, so the next metadata call asks the upstream for names again.
type RedisNames struct {
	client *redis.Client
	key    string
	log    zerolog.Logger
}

// NewRedisNames connects to redisURL and returns a cache stored under key.
func NewRedisNames(redisURL, key string, log zerolog.Logger) (*RedisNames, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisNamesWithClient(client, key, log), nil
}

// NewRedisNamesWithClient creates a cache from an existing Redis client.
func NewRedisNamesWithClient(client *redis.Client, key string, log zerolog.Logger) *RedisNames {
	if key == "" {
		key = "smesearch:metanames"
	}
	return &RedisNames{client: client, key: key, log: log}
}

func (r *RedisNames) Populated(ctx context.Context) bool {
	n, err := r.client.HLen(ctx, r.key).Result()
	if err != nil {
		r.log.Warn().Err(err).Str("key", r.key).Msg("reading metadata name count")
		return false
	}
	return n > 0
}

func (r *RedisNames) Names(ctx context.Context) map[string]string {
	names, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		r.log.Warn().Err(err).Str("key", r.key).Msg("reading metadata names")
		return map[string]string{}
	}
	return names
}

func (r *RedisNames) Store(ctx context.Context, names map[string]string) {
	if len(names) == 0 {
		return
	}
	values := make(map[string]any, len(names))
	for id, name := range names {
		values[id] = name
	}
	if err := r.client.HSet(ctx, r.key, values).Err(); err != nil {
		r.log.Warn().Err(err).Str("key", r.key).Msg("storing metadata names")
	}
}

// Close closes the Redis connection.
func (r *RedisNames) Close() error {
	return r.client.Close()
}
