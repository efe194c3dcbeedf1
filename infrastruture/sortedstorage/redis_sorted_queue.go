package sortedstorage

import (
	"context"
	"fmt"
	"time"

	"github.com/beka-birhanu/vinom-labyrinth/service/i"
	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

const matchLockSuffix = ":match_lock"

// RedisSortedQueue manages a sorted queue in Redis with TTL support.
type RedisSortedQueue struct {
	client *redis.Client
	locker *redsync.Redsync
	ttl    time.Duration
}

// NewRedisSortedQueue initializes a RedisSortedQueue with the provided Redis client and TTL.
func NewRedisSortedQueue(client *redis.Client, ttlSeconds int) (i.SortedQueue, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	queue := &RedisSortedQueue{
		client: client,
		ttl:    time.Duration(ttlSeconds) * time.Second,
	}
	pool := goredis.NewPool(client)
	queue.locker = redsync.New(pool)
	return queue, nil
}

// Enqueue adds a member to the sorted queue with a given score and sets expiration if necessary.
// Re-enqueuing a member keeps its original score so a player cannot lose their place.
func (rsq *RedisSortedQueue) Enqueue(ctx context.Context, queueKey string, score float64, member string) error {
	err := rsq.client.ZAddNX(ctx, queueKey, redis.Z{Score: score, Member: member}).Err()
	if err != nil {
		return fmt.Errorf("enqueuing %s: %w", member, err)
	}

	// Set expiration only if it's not already set
	ttl, err := rsq.client.TTL(ctx, queueKey).Result()
	if err == nil && ttl == -1 && rsq.ttl > 0 {
		_ = rsq.client.Expire(ctx, queueKey, rsq.ttl).Err()
	}

	return nil
}

// DequeTops removes and retrieves exactly `amount` members with the lowest scores,
// or nothing when fewer are queued. The pop holds a redsync lock per queue.
func (rsq *RedisSortedQueue) DequeTops(ctx context.Context, queueKey string, amount int64) ([]string, error) {
	mutex := rsq.locker.NewMutex(queueKey + matchLockSuffix)
	if err := mutex.LockContext(ctx); err != nil {
		return nil, fmt.Errorf("obtaining match lock: %w", err)
	}
	defer func() {
		_, _ = mutex.UnlockContext(ctx)
	}()

	size, err := rsq.client.ZCard(ctx, queueKey).Result()
	if err != nil {
		return nil, err
	}
	if size < amount {
		return nil, nil
	}

	popped, err := rsq.client.ZPopMin(ctx, queueKey, amount).Result()
	if err != nil {
		return nil, err
	}
	members := make([]string, 0, len(popped))
	for _, p := range popped {
		members = append(members, fmt.Sprint(p.Member))
	}
	return members, nil
}

// Remove drops a member. Removing an absent member is not an error.
func (rsq *RedisSortedQueue) Remove(ctx context.Context, queueKey string, member string) error {
	return rsq.client.ZRem(ctx, queueKey, member).Err()
}

// Count returns the number of members in the sorted queue.
func (rsq *RedisSortedQueue) Count(ctx context.Context, queueKey string) int64 {
	return rsq.client.ZCard(ctx, queueKey).Val()
}
