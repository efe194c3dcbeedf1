package statestore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/beka-birhanu/vinom-labyrinth/game"
	"github.com/beka-birhanu/vinom-labyrinth/service/i"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
)

const (
	defaultPrefix     = "labyrinth"
	defaultTTL        = 24 * time.Hour
	maxUpdateAttempts = 50
	gameKeyFmt        = "%s:game:%s"
	gameChannelFmt    = "%s:game:%s:changes"
	playerGameKeyFmt  = "%s:player:%s:game"
)

var (
	_ i.StateGateway = &RedisStore{}
	_ i.SessionIndex = &RedisStore{}
)

// RedisStore keeps each game as a BSON document under one key. Commits use
// WATCH/MULTI so a write lands only if the key is untouched since the read,
// and publish the new document on the game's channel in the same MULTI.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger i.Logger
}

// RedisConfig configures a RedisStore.
type RedisConfig struct {
	Client *redis.Client
	Prefix string
	TTL    time.Duration // expiry of game documents, refreshed on every write
	Logger i.Logger
}

// NewRedisStore creates a store over an existing client.
func NewRedisStore(c RedisConfig) (*RedisStore, error) {
	if c.Client == nil {
		return nil, errors.New("redis client is required")
	}
	if c.Prefix == "" {
		c.Prefix = defaultPrefix
	}
	if c.TTL <= 0 {
		c.TTL = defaultTTL
	}
	return &RedisStore{client: c.Client, prefix: c.Prefix, ttl: c.TTL, logger: c.Logger}, nil
}

func (s *RedisStore) gameKey(id string) string {
	return fmt.Sprintf(gameKeyFmt, s.prefix, id)
}

func (s *RedisStore) channel(id string) string {
	return fmt.Sprintf(gameChannelFmt, s.prefix, id)
}

func (s *RedisStore) playerKey(playerID string) string {
	return fmt.Sprintf(playerGameKeyFmt, s.prefix, playerID)
}

func (s *RedisStore) Get(ctx context.Context, id string) (*game.GameState, error) {
	return s.read(ctx, s.client, id)
}

// read loads a document through any Redis command runner, a plain client or
// a WATCH transaction.
func (s *RedisStore) read(ctx context.Context, c redis.Cmdable, id string) (*game.GameState, error) {
	raw, err := c.Get(ctx, s.gameKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, i.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading game %s: %w", id, err)
	}
	var g game.GameState
	if err := bson.Unmarshal(raw, &g); err != nil {
		return nil, fmt.Errorf("decoding game %s: %w", id, err)
	}
	return &g, nil
}

func (s *RedisStore) Create(ctx context.Context, g *game.GameState) error {
	g.Version = 1
	raw, err := bson.Marshal(g)
	if err != nil {
		return fmt.Errorf("encoding game %s: %w", g.ID, err)
	}
	created, err := s.client.SetNX(ctx, s.gameKey(g.ID), raw, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("creating game %s: %w", g.ID, err)
	}
	if !created {
		return i.ErrAlreadyExists
	}
	if err := s.client.Publish(ctx, s.channel(g.ID), raw).Err(); err != nil && s.logger != nil {
		s.logger.Warning(fmt.Sprintf("publishing new game %s: %v", g.ID, err))
	}
	return nil
}

func (s *RedisStore) RunTransaction(ctx context.Context, id string, fn i.TxFunc) (*game.GameState, error) {
	var committed *game.GameState
	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		g, err := s.read(ctx, tx, id)
		if err != nil {
			return err
		}
		readVersion := g.Version
		if err := fn(g); err != nil {
			return err
		}
		g.ID = id
		g.Version = readVersion + 1
		if err := s.commit(ctx, tx, g); err != nil {
			return err
		}
		committed = g
		return nil
	}, s.gameKey(id))

	if errors.Is(err, redis.TxFailedErr) {
		return nil, fmt.Errorf("%w: game %s", i.ErrConflict, id)
	}
	if err != nil {
		return nil, err
	}
	return committed, nil
}

// Update retries the WATCH cycle until it commits, so callers never see a
// conflict.
func (s *RedisStore) Update(ctx context.Context, id string, fn i.TxFunc) (*game.GameState, error) {
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		g, err := s.RunTransaction(ctx, id, fn)
		if errors.Is(err, i.ErrConflict) {
			continue
		}
		return g, err
	}
	return nil, fmt.Errorf("updating game %s: gave up after %d attempts", id, maxUpdateAttempts)
}

func (s *RedisStore) commit(ctx context.Context, tx *redis.Tx, g *game.GameState) error {
	raw, err := bson.Marshal(g)
	if err != nil {
		return fmt.Errorf("encoding game %s: %w", g.ID, err)
	}
	_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.gameKey(g.ID), raw, s.ttl)
		pipe.Publish(ctx, s.channel(g.ID), raw)
		return nil
	})
	return err
}

func (s *RedisStore) Subscribe(ctx context.Context, id string, onChange func(*game.GameState)) (func(), error) {
	pubsub := s.client.Subscribe(ctx, s.channel(id))
	// Wait for the subscription to be confirmed so no commit after this call is missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribing to game %s: %w", id, err)
	}

	done := make(chan struct{})
	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			close(done)
			_ = pubsub.Close()
		})
	}

	messages := pubsub.Channel()
	go func() {
		defer unsubscribe()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				var g game.GameState
				if err := bson.Unmarshal([]byte(msg.Payload), &g); err != nil {
					if s.logger != nil {
						s.logger.Error(fmt.Sprintf("decoding change of game %s: %v", id, err))
					}
					continue
				}
				onChange(&g)
			}
		}
	}()
	return unsubscribe, nil
}

func (s *RedisStore) SetPlayerGame(ctx context.Context, playerID, gameID string) error {
	return s.client.Set(ctx, s.playerKey(playerID), gameID, s.ttl).Err()
}

func (s *RedisStore) PlayerGame(ctx context.Context, playerID string) (string, error) {
	gameID, err := s.client.Get(ctx, s.playerKey(playerID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", i.ErrNotFound
	}
	return gameID, err
}

func (s *RedisStore) ClearPlayerGame(ctx context.Context, playerID string) error {
	return s.client.Del(ctx, s.playerKey(playerID)).Err()
}
