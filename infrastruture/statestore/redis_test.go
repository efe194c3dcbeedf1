package statestore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	s, err := NewRedisStore(RedisConfig{Client: client, Prefix: "test", TTL: time.Hour})
	require.NoError(t, err)
	return s, mr
}

func TestRedisStore(t *testing.T) {
	runGatewayContract(t, func(t *testing.T) gatewayStore {
		s, _ := newRedisStore(t)
		return s
	})
}

func TestNewRedisStoreNeedsClient(t *testing.T) {
	_, err := NewRedisStore(RedisConfig{})
	assert.Error(t, err)
}

func TestRedisStoreKeysAndTTL(t *testing.T) {
	ctx := context.Background()
	s, mr := newRedisStore(t)
	require.NoError(t, s.Create(ctx, newLobby(t, "g1")))
	require.NoError(t, s.SetPlayerGame(ctx, "A", "g1"))

	assert.True(t, mr.Exists("test:game:g1"))
	assert.Equal(t, time.Hour, mr.TTL("test:game:g1"))

	gameID, err := mr.Get("test:player:A:game")
	require.NoError(t, err)
	assert.Equal(t, "g1", gameID)
}

func TestRedisStoreCorruptDocument(t *testing.T) {
	ctx := context.Background()
	s, mr := newRedisStore(t)
	require.NoError(t, mr.Set("test:game:bad", "not bson"))

	_, err := s.Get(ctx, "bad")
	assert.Error(t, err)
}
