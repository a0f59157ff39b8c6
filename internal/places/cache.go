package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"carburapp/internal/models"
)

const generationKey = "places:gen"

// RedisCache stores search results keyed by normalized input plus a
// generation counter. Bumping the generation orphans every cached entry at
// once, which is how price writes invalidate stale searches without SCAN.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache returns redis-backed search cache.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) key(ctx context.Context, input string) (string, error) {
	gen, err := c.client.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		gen = 0
	} else if err != nil {
		return "", err
	}
	return fmt.Sprintf("places:%d:%s", gen, input), nil
}

// Get returns cached stations for the input, or (nil, false) on miss.
func (c *RedisCache) Get(ctx context.Context, input string) ([]models.Station, bool, error) {
	key, err := c.key(ctx, input)
	if err != nil {
		return nil, false, err
	}
	raw, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var stations []models.Station
	if err := json.Unmarshal([]byte(raw), &stations); err != nil {
		return nil, false, err
	}
	return stations, true, nil
}

// Set caches stations for the input.
func (c *RedisCache) Set(ctx context.Context, input string, stations []models.Station) error {
	key, err := c.key(ctx, input)
	if err != nil {
		return err
	}
	data, err := json.Marshal(stations)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

// Invalidate bumps the generation so all cached searches go stale.
func (c *RedisCache) Invalidate(ctx context.Context) error {
	return c.client.Incr(ctx, generationKey).Err()
}
