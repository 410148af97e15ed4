package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const slotLockPrefix = "slotlock:"

type redisSlotLockRepository struct {
	client *redis.Client
}

// NewRedisSlotLockRepository stores locks as "slotlock:<key>" with a PX expiry.
func NewRedisSlotLockRepository(client *redis.Client) SlotLockRepository {
	return &redisSlotLockRepository{client: client}
}

// Acquire is SET NX PX: the key is written only if absent, and Redis drops it
// on its own once the TTL passes.
func (r *redisSlotLockRepository) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := r.client.SetNX(ctx, slotLockPrefix+key, time.Now().UTC().Format(time.RFC3339Nano), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire slot lock: %w", err)
	}
	return ok, nil
}

func (r *redisSlotLockRepository) Release(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, slotLockPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to release slot lock: %w", err)
	}
	return nil
}
