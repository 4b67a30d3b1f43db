package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rishabh-registerkaro/review-scrapper/internal/observability"
)

const metricsName = "redis"

// Redis stores JSON encoded values with a TTL.
type Redis struct{ c *redis.Client }

func New(addr, pass string, db int) *Redis {
	return &Redis{c: redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db})}
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.c.Ping(ctx).Err()
}

// Get decodes the value at key into dst. A missing key is (false, nil).
func (r *Redis) Get(ctx context.Context, key string, dst any) (bool, error) {
	v, err := r.c.Get(ctx, key).Bytes()
	if err == redis.Nil {
		observability.ObserveCache(metricsName, "miss")
		return false, nil
	}
	if err != nil {
		observability.ObserveCache(metricsName, "error")
		return false, err
	}
	if err := json.Unmarshal(v, dst); err != nil {
		observability.ObserveCache(metricsName, "error")
		return false, fmt.Errorf("decode cached %v: %w", key, err)
	}
	observability.ObserveCache(metricsName, "hit")
	return true, nil
}

func (r *Redis) Set(ctx context.Context, key string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	observability.ObserveCache(metricsName, "set")
	return r.c.Set(ctx, key, b, ttl).Err()
}

func (r *Redis) Close() error {
	return r.c.Close()
}
