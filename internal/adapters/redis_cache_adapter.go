package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Marketen/epoch-clock/internal/application/domain"
	"github.com/Marketen/epoch-clock/internal/application/ports"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "epochclock:schedule:"

// redisCacheAdapter implements ports.ScheduleCache on top of Redis.
type redisCacheAdapter struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisCacheAdapter parses a redis:// URL and returns the cache and the underlying
// client so the caller can close it on shutdown.
func NewRedisCacheAdapter(redisURL string, ttl time.Duration) (ports.ScheduleCache, *redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	return newRedisCacheAdapter(client, ttl), client, nil
}

func newRedisCacheAdapter(client redis.Cmdable, ttl time.Duration) *redisCacheAdapter {
	return &redisCacheAdapter{client: client, ttl: ttl}
}

func redisKey(key domain.ScheduleKey) string {
	return redisKeyPrefix + string(key.Kind) + ":" + string(key.Network)
}

func (r *redisCacheAdapter) Get(ctx context.Context, key domain.ScheduleKey) (domain.EpochSchedule, bool, error) {
	raw, err := r.client.Get(ctx, redisKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return domain.EpochSchedule{}, false, nil
	}
	if err != nil {
		return domain.EpochSchedule{}, false, fmt.Errorf("redis get %s: %w", key, err)
	}

	var schedule domain.EpochSchedule
	if err := json.Unmarshal([]byte(raw), &schedule); err != nil {
		return domain.EpochSchedule{}, false, fmt.Errorf("decode cached schedule %s: %w", key, err)
	}
	return schedule, true, nil
}

func (r *redisCacheAdapter) Put(ctx context.Context, key domain.ScheduleKey, schedule domain.EpochSchedule) error {
	payload, err := json.Marshal(schedule)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, redisKey(key), string(payload), r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}
