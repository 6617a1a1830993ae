package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"kata/internal/config"
	"kata/internal/logger"

	"github.com/redis/go-redis/v9"
)

// New connects to Redis using the environment configuration.
func New(ctx context.Context) (*redis.Client, error) {
	host, port, password := config.RedisConfig()

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", host, port),
		Password: password,
		DB:       0,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Get().Info("Redis connection successful")
	return client, nil
}

// GetJSON reads key and unmarshals its value into dest. The boolean reports
// whether the key existed.
func GetJSON(ctx context.Context, client *redis.Client, key string, dest any) (bool, error) {
	if client == nil {
		return false, nil
	}

	val, err := client.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cached value for %s: %w", key, err)
	}
	return true, nil
}

// SetJSON marshals value and stores it under key with the given TTL.
// A zero TTL stores the key without expiry.
func SetJSON(ctx context.Context, client *redis.Client, key string, value any, ttl time.Duration) error {
	if client == nil {
		return nil
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value for %s: %w", key, err)
	}
	return client.Set(ctx, key, raw, ttl).Err()
}
