package redis

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

const seatKeyPrefix = "slot_seats:"

// SeatCache keeps derived seat counts in Redis with a short TTL. Writers
// delete the key on every ticket status change, so a stale count never
// gates a sale past its TTL.
type SeatCache struct {
	Client *redis.Client
	Logger *log.Logger
	ttl    time.Duration
}

func NewSeatCache(client *redis.Client, ttl time.Duration) *SeatCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &SeatCache{
		Client: client,
		Logger: log.Default(),
		ttl:    ttl,
	}
}

func (c *SeatCache) Get(ctx context.Context, slotUID string) (int, bool, error) {
	val, err := c.Client.Get(ctx, seatKeyPrefix+slotUID).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	seats, err := strconv.Atoi(val)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt seat count for %s: %w", slotUID, err)
	}
	return seats, true, nil
}

func (c *SeatCache) Set(ctx context.Context, slotUID string, seats int) error {
	return c.Client.Set(ctx, seatKeyPrefix+slotUID, strconv.Itoa(seats), c.ttl).Err()
}

func (c *SeatCache) Invalidate(ctx context.Context, slotUID string) error {
	return c.Client.Del(ctx, seatKeyPrefix+slotUID).Err()
}
