package vindecode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix = "vindecode:vin:"
	redisOpTimeout = 2 * time.Second
	redisPingWait  = 5 * time.Second
)

// RedisCache shares decoded vehicles between processes. Redis owns expiry,
// so Stats never reports expired entries. Redis errors count as misses.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewRedisCache wraps an existing client. ttl <= 0 defaults to seven days.
func NewRedisCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisCache {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisCache{client: client, ttl: ttl, logger: logger}
}

// DialRedis connects and pings, closing the client when the ping fails.
func DialRedis(addr string, db int) (*redis.Client, error) {
	if addr == "" {
		return nil, errors.New("redis address is required")
	}
	client := redis.NewClient(&redis.Options{Addr: addr, DB: db})

	ctx, cancel := context.WithTimeout(context.Background(), redisPingWait)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

func (c *RedisCache) Get(vin string) (Vehicle, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	raw, err := c.client.Get(ctx, redisKeyPrefix+vin).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("vindecode.redis.get failed", "vin", vin, "error", err)
		}
		c.misses.Add(1)
		return Vehicle{}, false
	}
	var v Vehicle
	if err := json.Unmarshal(raw, &v); err != nil {
		c.logger.Warn("vindecode.redis.corrupt entry", "vin", vin, "error", err)
		c.misses.Add(1)
		return Vehicle{}, false
	}
	c.hits.Add(1)
	return v, true
}

func (c *RedisCache) Add(vin string, v Vehicle) {
	raw, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("vindecode.redis.encode failed", "vin", vin, "error", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if err := c.client.Set(ctx, redisKeyPrefix+vin, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("vindecode.redis.set failed", "vin", vin, "error", err)
	}
}

func (c *RedisCache) keys(ctx context.Context) ([]string, error) {
	var (
		out    []string
		cursor uint64
	)
	for {
		batch, next, err := c.client.Scan(ctx, cursor, redisKeyPrefix+"*", 256).Result()
		if err != nil {
			return nil, err
		}
		out = append(out, batch...)
		if next == 0 {
			return out, nil
		}
		cursor = next
	}
}

func (c *RedisCache) Len() int {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	keys, err := c.keys(ctx)
	if err != nil {
		c.logger.Warn("vindecode.redis.scan failed", "error", err)
		return 0
	}
	return len(keys)
}

func (c *RedisCache) Stats() Stats {
	n := c.Len()
	return Stats{
		Entries: n,
		Active:  n,
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		TTL:     c.ttl,
	}
}

// Purge deletes only this cache's keys and resets the counters.
func (c *RedisCache) Purge() {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	keys, err := c.keys(ctx)
	if err == nil && len(keys) > 0 {
		err = c.client.Del(ctx, keys...).Err()
	}
	if err != nil {
		c.logger.Warn("vindecode.redis.purge failed", "error", err)
	}
	c.hits.Store(0)
	c.misses.Store(0)
}
