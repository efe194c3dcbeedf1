package eventbus

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/beka-birhanu/vinom-labyrinth/service/i"
	"github.com/redis/go-redis/v9"
)

const topicFmt = "%s:events:%s"

var _ i.EventBus = &RedisBus{}

// RedisBus publishes on Redis channels so every API process streaming a game
// receives its events.
type RedisBus struct {
	client *redis.Client
	prefix string
	logger i.Logger
}

// RedisConfig configures a RedisBus.
type RedisConfig struct {
	Client *redis.Client
	Prefix string
	Logger i.Logger
}

// NewRedisBus creates a bus over an existing client.
func NewRedisBus(c RedisConfig) (*RedisBus, error) {
	if c.Client == nil {
		return nil, errors.New("redis client is required")
	}
	if c.Prefix == "" {
		c.Prefix = "labyrinth"
	}
	return &RedisBus{client: c.Client, prefix: c.Prefix, logger: c.Logger}, nil
}

func (b *RedisBus) channel(topic string) string {
	return fmt.Sprintf(topicFmt, b.prefix, topic)
}

func (b *RedisBus) Publish(ctx context.Context, topic string, payload []byte) error {
	if err := b.client.Publish(ctx, b.channel(topic), payload).Err(); err != nil {
		return fmt.Errorf("publishing on %s: %w", topic, err)
	}
	return nil
}

func (b *RedisBus) Subscribe(ctx context.Context, topic string, handler func([]byte)) (func(), error) {
	pubsub := b.client.Subscribe(ctx, b.channel(topic))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribing to %s: %w", topic, err)
	}

	done := make(chan struct{})
	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			close(done)
			if err := pubsub.Close(); err != nil && b.logger != nil {
				b.logger.Warning(fmt.Sprintf("closing subscription to %s: %v", topic, err))
			}
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
				handler([]byte(msg.Payload))
			}
		}
	}()
	return unsubscribe, nil
}
