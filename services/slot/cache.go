package slot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/kishan2613/Sarthi/models"
	"github.com/kishan2613/Sarthi/utils"
)

const defaultListTTL = 30 * time.Second

// errStaleListing aborts a write whose listing was read before the last
// invalidation.
var errStaleListing = errors.New("slot listing is stale")

// RedisSlotCache keeps the slot listing in Redis for a short TTL. Every
// invalidation bumps a generation counter, and a listing is only stored if
// the generation it was read under is still current.
type RedisSlotCache struct {
	client *redis.Client
	key    string
	genKey string
	ttl    time.Duration
}

func NewRedisSlotCache(client *redis.Client, ttl time.Duration) *RedisSlotCache {
	if ttl <= 0 {
		ttl = defaultListTTL
	}
	return &RedisSlotCache{
		client: client,
		key:    utils.SlotListCacheKey,
		genKey: utils.SlotListCacheKey + ":gen",
		ttl:    ttl,
	}
}

// Get reports a miss with ok=false and a nil error.
func (c *RedisSlotCache) Get(ctx context.Context) ([]models.Slot, bool, error) {
	raw, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read slot cache: %w", err)
	}
	var slots []models.Slot
	if err := json.Unmarshal(raw, &slots); err != nil {
		// A corrupt entry is treated as a miss and dropped.
		_ = c.client.Del(ctx, c.key).Err()
		return nil, false, nil
	}
	return slots, true, nil
}

// Generation returns the current invalidation counter. Read it before
// loading the listing that will be passed to Set.
func (c *RedisSlotCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.readGeneration(ctx, c.client)
	if err != nil {
		return 0, fmt.Errorf("failed to read slot cache generation: %w", err)
	}
	return gen, nil
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (c *RedisSlotCache) readGeneration(ctx context.Context, cmd getter) (int64, error) {
	gen, err := cmd.Get(ctx, c.genKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// Set stores slots if no invalidation happened since gen was read. A stale
// listing is dropped without error.
func (c *RedisSlotCache) Set(ctx context.Context, gen int64, slots []models.Slot) error {
	data, err := json.Marshal(slots)
	if err != nil {
		return fmt.Errorf("failed to encode slot cache: %w", err)
	}

	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := c.readGeneration(ctx, tx)
		if err != nil {
			return err
		}
		if current != gen {
			return errStaleListing
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, c.key, data, c.ttl)
			return nil
		})
		return err
	}, c.genKey)
	if errors.Is(err, errStaleListing) || errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to write slot cache: %w", err)
	}
	return nil
}

func (c *RedisSlotCache) Invalidate(ctx context.Context) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, c.genKey)
		pipe.Del(ctx, c.key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to invalidate slot cache: %w", err)
	}
	return nil
}
