package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// client is the shared Redis connection, injected at startup.
var client *redis.Client

// Init wires the cache package to an established Redis connection.
func Init(c *redis.Client) {
	client = c
}

// Enabled reports whether caching is available. The server runs fine with
// caching off, every read falls through to the database.
func Enabled() bool {
	return client != nil
}

func setJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if client == nil {
		return fmt.Errorf("cache not initialized")
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value: %w", err)
	}
	return client.Set(ctx, key, payload, ttl).Err()
}

// getJSON loads a key into dest. Returns false on a miss.
func getJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	if client == nil {
		return false, nil
	}
	payload, err := client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		return false, fmt.Errorf("unmarshal cache value: %w", err)
	}
	return true, nil
}

func drop(ctx context.Context, keys ...string) {
	if client == nil || len(keys) == 0 {
		return
	}
	client.Del(ctx, keys...)
}
