package eventbus

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/beka-birhanu/vinom-labyrinth/service/i"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan []byte) []byte {
	t.Helper()
	select {
	case p := <-ch:
		return p
	case <-time.After(2 * time.Second):
		t.Fatal("no payload delivered")
		return nil
	}
}

func assertSilent(t *testing.T, ch <-chan []byte) {
	t.Helper()
	select {
	case p := <-ch:
		t.Fatalf("unexpected payload %q", p)
	case <-time.After(100 * time.Millisecond):
	}
}

func runBusContract(t *testing.T, newBus func(t *testing.T) i.EventBus) {
	ctx := context.Background()

	t.Run("delivers to subscribers of the topic", func(t *testing.T) {
		bus := newBus(t)
		g1 := make(chan []byte, 4)
		g2 := make(chan []byte, 4)
		stop1, err := bus.Subscribe(ctx, "g1", func(p []byte) { g1 <- p })
		require.NoError(t, err)
		defer stop1()
		stop2, err := bus.Subscribe(ctx, "g2", func(p []byte) { g2 <- p })
		require.NoError(t, err)
		defer stop2()

		require.NoError(t, bus.Publish(ctx, "g1", []byte("hello")))
		assert.Equal(t, []byte("hello"), receive(t, g1))
		assertSilent(t, g2)
	})

	t.Run("unsubscribe stops delivery", func(t *testing.T) {
		bus := newBus(t)
		ch := make(chan []byte, 4)
		stop, err := bus.Subscribe(ctx, "g1", func(p []byte) { ch <- p })
		require.NoError(t, err)
		stop()
		stop()

		require.NoError(t, bus.Publish(ctx, "g1", []byte("late")))
		assertSilent(t, ch)
	})
}

func TestBroadcaster(t *testing.T) {
	runBusContract(t, func(*testing.T) i.EventBus { return NewBroadcaster() })
}

func TestBroadcasterCancelledContext(t *testing.T) {
	b := NewBroadcaster()
	ctx, cancel := context.WithCancel(context.Background())
	_, err := b.Subscribe(ctx, "g1", func([]byte) {})
	require.NoError(t, err)
	assert.Equal(t, 1, b.SubscriberCount("g1"))

	cancel()
	assert.Eventually(t, func() bool { return b.SubscriberCount("g1") == 0 }, time.Second, 10*time.Millisecond)

	_, err = b.Subscribe(ctx, "g1", func([]byte) {})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRedisBus(t *testing.T) {
	runBusContract(t, func(t *testing.T) i.EventBus {
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = client.Close() })
		bus, err := NewRedisBus(RedisConfig{Client: client, Prefix: "test"})
		require.NoError(t, err)
		return bus
	})
}

func TestNewRedisBusNeedsClient(t *testing.T) {
	_, err := NewRedisBus(RedisConfig{})
	assert.Error(t, err)
}
