// Package db holds thin wrappers around backing stores shared across the
// core: Redis for hot, short-lived counters, and ClickHouse (see
// internal/analytics) for durable, queryable history.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisStore wraps a redis client and context for operations.
type RedisStore struct {
	Client *redis.Client
	Ctx    context.Context
}

// InitRedis initializes a Redis client and returns a RedisStore.
func InitRedis(addr string) (*RedisStore, error) {
	rs := &RedisStore{
		Client: redis.NewClient(&redis.Options{Addr: addr}),
		Ctx:    context.Background(),
	}

	// Add OpenTelemetry instrumentation to Redis client
	if err := redisotel.InstrumentTracing(rs.Client); err != nil {
		return nil, fmt.Errorf("failed to instrument redis tracing: %w", err)
	}

	if err := rs.Client.Ping(rs.Ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	zap.L().Info("Connected to Redis", zap.String("addr", addr))
	return rs, nil
}

// IncrementHourlyAdmitted increments the rolling count of matches admitted
// for a campaign within the current UTC hour bucket. A 2h TTL is applied on
// first set, comfortably outliving the bucket it counts so a slightly late
// reader still sees it. This is a fast, best-effort supplement to the
// pacing engine's ClickHouse-backed read; it never gates an admission
// decision on its own.
func (r *RedisStore) IncrementHourlyAdmitted(campaignID string) error {
	if r == nil || r.Client == nil {
		return nil
	}
	key := fmt.Sprintf("pacing:admitted:%s:%s", campaignID, time.Now().UTC().Format("2006010215"))
	val, err := r.Client.Incr(r.Ctx, key).Result()
	if err != nil {
		return err
	}
	if val == 1 {
		r.Client.Expire(r.Ctx, key, 2*time.Hour)
	}
	return nil
}

// HourlyAdmitted returns the rolling hourly admitted count for a campaign,
// or 0 if unset or Redis is unavailable.
func (r *RedisStore) HourlyAdmitted(campaignID string) int64 {
	if r == nil || r.Client == nil {
		return 0
	}
	key := fmt.Sprintf("pacing:admitted:%s:%s", campaignID, time.Now().UTC().Format("2006010215"))
	val, err := r.Client.Get(r.Ctx, key).Int64()
	if err != nil {
		return 0
	}
	return val
}

// Close shuts down the Redis client.
func (r *RedisStore) Close() {
	if r != nil && r.Client != nil {
		if err := r.Client.Close(); err != nil {
			zap.L().Error("redis close", zap.Error(err))
		}
	}
}
