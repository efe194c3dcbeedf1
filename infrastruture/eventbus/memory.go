// Package eventbus fans chat and notice payloads out to stream listeners,
// in process or across API processes through Redis pub/sub.
package eventbus

import (
	"context"
	"sync"

	"github.com/beka-birhanu/vinom-labyrinth/service/i"
)

const subscriberBuffer = 16

var _ i.EventBus = &Broadcaster{}

type subscriber struct {
	topic   string
	ch      chan []byte
	handler func([]byte)
}

// Broadcaster delivers payloads to subscribers of the same process. Each
// subscriber drains its own buffered channel, and a slow one loses payloads
// instead of blocking publishers.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[*subscriber]struct{}
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subscribers: make(map[*subscriber]struct{})}
}

func (b *Broadcaster) Publish(_ context.Context, topic string, payload []byte) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for s := range b.subscribers {
		if s.topic != topic {
			continue
		}
		select {
		case s.ch <- payload:
		default:
			// Channel full, skip slow subscriber.
		}
	}
	return nil
}

func (b *Broadcaster) Subscribe(ctx context.Context, topic string, handler func([]byte)) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := &subscriber{topic: topic, ch: make(chan []byte, subscriberBuffer), handler: handler}
	b.mu.Lock()
	b.subscribers[s] = struct{}{}
	b.mu.Unlock()

	done := make(chan struct{})
	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subscribers, s)
			b.mu.Unlock()
			close(done)
		})
	}

	go func() {
		defer unsubscribe()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case payload := <-s.ch:
				s.handler(payload)
			}
		}
	}()
	return unsubscribe, nil
}

// SubscriberCount returns the number of live subscribers of a topic.
func (b *Broadcaster) SubscriberCount(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	n := 0
	for s := range b.subscribers {
		if s.topic == topic {
			n++
		}
	}
	return n
}
