package i

import (
	"context"
)

// SortedQueue is a score-ordered queue shared by every API process.
type SortedQueue interface {
	Enqueue(ctx context.Context, queueKey string, score float64, member string) error
	// DequeTops pops exactly amount members with the lowest scores, or none
	// when fewer are queued.
	DequeTops(ctx context.Context, queueKey string, amount int64) ([]string, error)
	Remove(ctx context.Context, queueKey string, member string) error
	Count(ctx context.Context, queueKey string) int64
}

// Matchmaker groups queued players into matches of a fixed size per queue.
type Matchmaker interface {
	PushToQueue(ctx context.Context, queue string, size int64, playerID, name string) error
	Leave(ctx context.Context, queue, playerID, name string) error
	SetMatchHandler(func(queue string, players []QueuedPlayer))
}

// QueuedPlayer is a matched queue entry.
type QueuedPlayer struct {
	ID   string
	Name string
}
