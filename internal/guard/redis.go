package guard

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

const redisKeyPrefix = "redeemed:"

// RedisStore shares the consumed set between scanners through Redis. SetNX
// is the atomic insert-if-absent: when two gates scan the same physical
// ticket in the same instant, Redis lets exactly one of them win.
type RedisStore struct {
	Client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{Client: client}
}

func (s *RedisStore) InsertIfAbsent(ctx context.Context, ticketID string) (bool, error) {
	value := time.Now().UTC().Format(time.RFC3339)
	// No TTL: a redeemed ticket stays redeemed for the life of the store.
	return s.Client.SetNX(ctx, redisKeyPrefix+ticketID, value, 0).Result()
}

func (s *RedisStore) Contains(ctx context.Context, ticketID string) (bool, error) {
	_, err := s.Client.Get(ctx, redisKeyPrefix+ticketID).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *RedisStore) RedeemedAt(ctx context.Context, ticketID string) (time.Time, error) {
	val, err := s.Client.Get(ctx, redisKeyPrefix+ticketID).Result()
	if err == redis.Nil {
		return time.Time{}, ErrNotConsumed
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339, val)
}
