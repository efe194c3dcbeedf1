package statestore

import (
	"context"
	"testing"
	"time"

	"github.com/beka-birhanu/vinom-labyrinth/game"
	"github.com/beka-birhanu/vinom-labyrinth/service/i"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type gatewayStore interface {
	i.StateGateway
	i.SessionIndex
}

func newLobby(t *testing.T, id string) *game.GameState {
	t.Helper()
	g, err := game.NewGame(id, game.ModeTwoPlayer, game.TypeStandard, "A", "Alice", t0)
	require.NoError(t, err)
	return g
}

// runGatewayContract exercises the behaviour every store must share.
func runGatewayContract(t *testing.T, newStore func(t *testing.T) gatewayStore) {
	ctx := context.Background()

	t.Run("create and get", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Create(ctx, newLobby(t, "g1")))

		got, err := s.Get(ctx, "g1")
		require.NoError(t, err)
		assert.Equal(t, int64(1), got.Version)
		assert.Equal(t, []string{"A"}, got.Players)
		assert.Equal(t, game.StatusWaiting, got.Status)
		assert.Equal(t, "Alice", got.PlayerNames["A"])
		assert.True(t, t0.Equal(got.CreatedAt))
	})

	t.Run("duplicate create", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Create(ctx, newLobby(t, "g1")))
		assert.ErrorIs(t, s.Create(ctx, newLobby(t, "g1")), i.ErrAlreadyExists)
	})

	t.Run("missing game", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(ctx, "nope")
		assert.ErrorIs(t, err, i.ErrNotFound)
		_, err = s.RunTransaction(ctx, "nope", func(*game.GameState) error { return nil })
		assert.ErrorIs(t, err, i.ErrNotFound)
	})

	t.Run("transaction commits and bumps version", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Create(ctx, newLobby(t, "g1")))

		got, err := s.RunTransaction(ctx, "g1", func(g *game.GameState) error {
			return game.Join(g, "B", "Bob", t0)
		})
		require.NoError(t, err)
		assert.Equal(t, int64(2), got.Version)
		assert.Equal(t, game.StatusCreating, got.Status)

		stored, err := s.Get(ctx, "g1")
		require.NoError(t, err)
		assert.Equal(t, []string{"A", "B"}, stored.Players)
		assert.Equal(t, int64(2), stored.Version)
	})

	t.Run("failed transaction writes nothing", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Create(ctx, newLobby(t, "g1")))

		_, err := s.RunTransaction(ctx, "g1", func(g *game.GameState) error {
			g.Players = append(g.Players, "ghost")
			return game.ErrGameFull
		})
		assert.ErrorIs(t, err, game.ErrGameFull)

		stored, err := s.Get(ctx, "g1")
		require.NoError(t, err)
		assert.Equal(t, []string{"A"}, stored.Players)
		assert.Equal(t, int64(1), stored.Version)
	})

	t.Run("concurrent commit is a conflict", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Create(ctx, newLobby(t, "g1")))

		_, err := s.RunTransaction(ctx, "g1", func(g *game.GameState) error {
			_, err := s.Update(ctx, "g1", func(other *game.GameState) error {
				return game.Join(other, "B", "Bob", t0)
			})
			require.NoError(t, err)
			return game.Join(g, "C", "Carol", t0)
		})
		assert.ErrorIs(t, err, i.ErrConflict)

		stored, err := s.Get(ctx, "g1")
		require.NoError(t, err)
		assert.Equal(t, []string{"A", "B"}, stored.Players)
		assert.Equal(t, int64(2), stored.Version)
	})

	t.Run("update always lands", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Create(ctx, newLobby(t, "g1")))

		got, err := s.Update(ctx, "g1", func(g *game.GameState) error {
			g.Status = game.StatusDisbanded
			g.DisbandedBy = "A"
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, game.StatusDisbanded, got.Status)
		assert.Equal(t, int64(2), got.Version)
	})

	t.Run("subscribers see commits", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Create(ctx, newLobby(t, "g1")))

		changes := make(chan *game.GameState, 4)
		unsubscribe, err := s.Subscribe(ctx, "g1", func(g *game.GameState) { changes <- g })
		require.NoError(t, err)
		defer unsubscribe()

		_, err = s.RunTransaction(ctx, "g1", func(g *game.GameState) error {
			return game.Join(g, "B", "Bob", t0)
		})
		require.NoError(t, err)

		select {
		case g := <-changes:
			assert.Equal(t, int64(2), g.Version)
			assert.Equal(t, []string{"A", "B"}, g.Players)
		case <-time.After(2 * time.Second):
			t.Fatal("no change delivered")
		}
	})

	t.Run("unsubscribe stops delivery", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Create(ctx, newLobby(t, "g1")))

		changes := make(chan *game.GameState, 4)
		unsubscribe, err := s.Subscribe(ctx, "g1", func(g *game.GameState) { changes <- g })
		require.NoError(t, err)
		unsubscribe()
		unsubscribe()

		_, err = s.Update(ctx, "g1", func(g *game.GameState) error { g.TurnNumber = 7; return nil })
		require.NoError(t, err)

		select {
		case <-changes:
			t.Fatal("change delivered after unsubscribe")
		case <-time.After(100 * time.Millisecond):
		}
	})

	t.Run("session index", func(t *testing.T) {
		s := newStore(t)
		_, err := s.PlayerGame(ctx, "A")
		assert.ErrorIs(t, err, i.ErrNotFound)

		require.NoError(t, s.SetPlayerGame(ctx, "A", "g1"))
		gameID, err := s.PlayerGame(ctx, "A")
		require.NoError(t, err)
		assert.Equal(t, "g1", gameID)

		require.NoError(t, s.ClearPlayerGame(ctx, "A"))
		_, err = s.PlayerGame(ctx, "A")
		assert.ErrorIs(t, err, i.ErrNotFound)
	})
}
