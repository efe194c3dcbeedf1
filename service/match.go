package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/beka-birhanu/vinom-labyrinth/service/i"
)

const (
	defaultPrefix    = "matchmaker"
	defaultMaxPlayer = 2
	queueKeyFmt      = "%s:queue:%s"
	memberSeparator  = ":"
)

var (
	ErrInvalidQueueSize = errors.New("queue size must be positive")
)

type handlerFunc func(queue string, players []i.QueuedPlayer)

type Options struct {
	Prefix  string
	Handler handlerFunc
}

// Matchmaker pairs players waiting in the same named queue, oldest first.
type Matchmaker struct {
	sortedQueue i.SortedQueue
	logger      i.Logger
	opts        *Options
	now         func() time.Time
}

func NewMatchmaker(sortedQueue i.SortedQueue, logger i.Logger, opts *Options) (*Matchmaker, error) {
	if sortedQueue == nil {
		return nil, errors.New("sorted queue is required")
	}
	if opts == nil {
		opts = &Options{Prefix: defaultPrefix}
	}

	if opts.Prefix == "" {
		opts.Prefix = defaultPrefix
	}

	return &Matchmaker{
		opts:        opts,
		sortedQueue: sortedQueue,
		logger:      logger,
		now:         time.Now,
	}, nil
}

// PushToQueue enqueues a player and tries to form a match of size players.
// Matching runs in the background and reports through the match handler.
func (mm *Matchmaker) PushToQueue(ctx context.Context, queue string, size int64, playerID, name string) error {
	if size <= 0 {
		return ErrInvalidQueueSize
	}
	mm.logger.Info(fmt.Sprintf("Adding player to queue %s: ID=%s", queue, playerID))

	score := float64(mm.now().UnixNano())
	err := mm.sortedQueue.Enqueue(ctx, mm.queueKey(queue), score, encodeMember(playerID, name))
	if err != nil {
		mm.logger.Error(fmt.Sprintf("Failed to enqueue player: %s", err))
		return err
	}

	mm.logger.Info(fmt.Sprintf("Player enqueued successfully: ID=%s", playerID))
	go mm.match(context.WithoutCancel(ctx), queue, size)
	return nil
}

// Leave removes a waiting player from a queue.
func (mm *Matchmaker) Leave(ctx context.Context, queue, playerID, name string) error {
	if err := mm.sortedQueue.Remove(ctx, mm.queueKey(queue), encodeMember(playerID, name)); err != nil {
		return fmt.Errorf("leaving queue %s: %w", queue, err)
	}
	mm.logger.Info(fmt.Sprintf("Player left queue %s: ID=%s", queue, playerID))
	return nil
}

func (mm *Matchmaker) match(ctx context.Context, queue string, size int64) {
	queueKey := mm.queueKey(queue)
	if mm.sortedQueue.Count(ctx, queueKey) < size {
		return
	}

	rawPlayers, err := mm.sortedQueue.DequeTops(ctx, queueKey, size)
	if err != nil {
		mm.logger.Error(fmt.Sprintf("obtaining match lock: %s", err))
		return
	}
	if len(rawPlayers) == 0 {
		return
	}

	players := make([]i.QueuedPlayer, 0, len(rawPlayers))
	for _, raw := range rawPlayers {
		players = append(players, decodeMember(raw))
	}

	if mm.opts.Handler != nil {
		mm.logger.Info(fmt.Sprintf("Match found in queue %s for players: %v", queue, players))
		mm.opts.Handler(queue, players)
	}
}

func (mm *Matchmaker) SetMatchHandler(f func(queue string, players []i.QueuedPlayer)) {
	mm.opts.Handler = f
}

func (mm *Matchmaker) queueKey(queue string) string {
	return fmt.Sprintf(queueKeyFmt, mm.opts.Prefix, queue)
}

func encodeMember(playerID, name string) string {
	return playerID + memberSeparator + name
}

// decodeMember splits at the first separator; player IDs never contain it.
func decodeMember(raw string) i.QueuedPlayer {
	id, name, _ := strings.Cut(raw, memberSeparator)
	return i.QueuedPlayer{ID: id, Name: name}
}
