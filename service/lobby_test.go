package service

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/beka-birhanu/vinom-labyrinth/game"
	"github.com/beka-birhanu/vinom-labyrinth/game/maze"
	"github.com/beka-birhanu/vinom-labyrinth/service/i"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lobbyFixture struct {
	*fixture
	queue *memQueue
	lobby *LobbyService
}

func newLobbyFixture(t *testing.T) *lobbyFixture {
	t.Helper()
	f := newFixture(t)
	queue := newMemQueue()
	mm, err := NewMatchmaker(queue, nopLogger{}, nil)
	require.NoError(t, err)
	lobby, err := NewLobbyService(&LobbyConfig{
		Gateway:    f.store,
		Sessions:   f.store,
		Matchmaker: mm,
		Logger:     nopLogger{},
		Rand:       rand.New(rand.NewSource(42)),
	})
	require.NoError(t, err)
	return &lobbyFixture{fixture: f, queue: queue, lobby: lobby}
}

func TestQueueName(t *testing.T) {
	assert.Equal(t, "4player-extra", QueueName(game.ModeFourPlayer, game.TypeExtra))

	mode, typ, err := parseQueue("2player-standard")
	require.NoError(t, err)
	assert.Equal(t, game.ModeTwoPlayer, mode)
	assert.Equal(t, game.TypeStandard, typ)

	_, _, err = parseQueue("2player-extra")
	assert.ErrorIs(t, err, game.ErrInvalidMode)
	_, _, err = parseQueue("garbage")
	assert.ErrorIs(t, err, game.ErrInvalidMode)
}

func TestMatchedPlayersSubmitMazesAndPlay(t *testing.T) {
	ctx := context.Background()
	f := newLobbyFixture(t)

	require.NoError(t, f.lobby.Enqueue(ctx, as("A"), game.ModeTwoPlayer, game.TypeStandard))
	require.NoError(t, f.lobby.Enqueue(ctx, as("B"), game.ModeTwoPlayer, game.TypeStandard))

	var g *game.GameState
	require.Eventually(t, func() bool {
		var err error
		g, err = f.lobby.CurrentGame(ctx, as("B"))
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, game.StatusCreating, g.Status)
	assert.ElementsMatch(t, []string{"A", "B"}, g.Players)
	assert.Equal(t, "Bob", g.PlayerNames["B"])

	err := f.lobby.Enqueue(ctx, as("A"), game.ModeTwoPlayer, game.TypeStandard)
	assert.ErrorIs(t, err, ErrAlreadyInGame)

	m, err := maze.New(game.StandardGridSize)
	require.NoError(t, err)
	g, err = f.lobby.SubmitMaze(ctx, g.ID, as("A"), m)
	require.NoError(t, err)
	assert.Equal(t, game.StatusCreating, g.Status)

	_, err = f.lobby.SubmitMaze(ctx, g.ID, as("A"), m)
	assert.ErrorIs(t, err, game.ErrMazeAlreadySet)

	g, err = f.lobby.GenerateMaze(ctx, g.ID, as("B"))
	require.NoError(t, err)
	assert.Equal(t, game.StatusPlaying, g.Status)
	assert.Equal(t, g.Players[0], g.CurrentTurnPlayerID)
	assert.Equal(t, g.Players[1], g.PlayerStates[g.Players[0]].AssignedMazeOwnerID)
}

func TestEnqueueRejectsInvalidMode(t *testing.T) {
	f := newLobbyFixture(t)
	err := f.lobby.Enqueue(context.Background(), as("A"), game.ModeTwoPlayer, game.TypeExtra)
	assert.ErrorIs(t, err, game.ErrInvalidMode)
}

func TestLeaveQueue(t *testing.T) {
	ctx := context.Background()
	f := newLobbyFixture(t)
	require.NoError(t, f.lobby.Enqueue(ctx, as("C"), game.ModeFourPlayer, game.TypeStandard))

	key := "matchmaker:queue:" + QueueName(game.ModeFourPlayer, game.TypeStandard)
	assert.Equal(t, int64(1), f.queue.Count(ctx, key))
	require.NoError(t, f.lobby.Leave(ctx, as("C"), game.ModeFourPlayer, game.TypeStandard))
	assert.Equal(t, int64(0), f.queue.Count(ctx, key))
}

func TestEnqueueMovesPlayerBetweenQueues(t *testing.T) {
	ctx := context.Background()
	f := newLobbyFixture(t)
	two := "matchmaker:queue:" + QueueName(game.ModeTwoPlayer, game.TypeStandard)
	four := "matchmaker:queue:" + QueueName(game.ModeFourPlayer, game.TypeStandard)

	require.NoError(t, f.lobby.Enqueue(ctx, as("A"), game.ModeTwoPlayer, game.TypeStandard))
	require.NoError(t, f.lobby.Enqueue(ctx, as("A"), game.ModeFourPlayer, game.TypeStandard))
	assert.Equal(t, int64(0), f.queue.Count(ctx, two))
	assert.Equal(t, int64(1), f.queue.Count(ctx, four))
}

func TestMatchedPlayerLeavesOtherQueues(t *testing.T) {
	ctx := context.Background()
	f := newLobbyFixture(t)
	four := "matchmaker:queue:" + QueueName(game.ModeFourPlayer, game.TypeStandard)
	two := QueueName(game.ModeTwoPlayer, game.TypeStandard)

	require.NoError(t, f.lobby.matchmaker.PushToQueue(ctx, QueueName(game.ModeFourPlayer, game.TypeStandard), 4, "A", "Alice"))
	require.NoError(t, f.lobby.matchmaker.PushToQueue(ctx, two, 2, "A", "Alice"))
	require.NoError(t, f.lobby.matchmaker.PushToQueue(ctx, two, 2, "B", "Bob"))

	require.Eventually(t, func() bool {
		_, err := f.lobby.CurrentGame(ctx, as("A"))
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool {
		return f.queue.Count(ctx, four) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestCurrentGameForgetsExpiredGames(t *testing.T) {
	ctx := context.Background()
	f := newLobbyFixture(t)

	_, err := f.lobby.CurrentGame(ctx, as("A"))
	assert.ErrorIs(t, err, ErrNoCurrentGame)

	require.NoError(t, f.store.SetPlayerGame(ctx, "A", "expired"))
	_, err = f.lobby.CurrentGame(ctx, as("A"))
	assert.ErrorIs(t, err, ErrNoCurrentGame)
	_, err = f.store.PlayerGame(ctx, "A")
	assert.ErrorIs(t, err, i.ErrNotFound)
}

func TestDebugExtraGameRound(t *testing.T) {
	ctx := context.Background()
	f := newLobbyFixture(t)

	g, err := f.lobby.CreateDebugGame(ctx, as("A"), game.ModeFourPlayer, game.TypeExtra)
	require.NoError(t, err)
	require.Len(t, g.Players, 4)
	assert.Equal(t, "A", g.Players[0])
	assert.Equal(t, game.StatusPlaying, g.Status)
	assert.Equal(t, game.PhaseDeclaration, g.Extra.Phase)
	for _, pid := range g.Players {
		assert.NotNil(t, g.PlayerStates[pid].Extra.SecretObjective, pid)
		current, err := f.store.PlayerGame(ctx, pid)
		require.NoError(t, err)
		assert.Equal(t, g.ID, current)
	}

	seat := func(pid string) game.ActingIdentity {
		return game.ActingIdentity{PlayerID: "A", DebugPlayerID: pid}
	}
	for n, pid := range g.Players {
		all, err := f.svc.Declare(ctx, g.ID, seat(pid), game.Action{Type: game.ActionWait})
		require.NoError(t, err)
		assert.Equal(t, n == len(g.Players)-1, all)
	}
	assert.Contains(t, f.chat.texts(g.ID), "Everyone has declared! Moving to the action phase.")

	_, err = f.svc.Execute(ctx, g.ID, seat(g.Players[1]))
	assert.ErrorIs(t, err, game.ErrNotActionPlayer)

	var out game.ActionOutcome
	for _, pid := range g.Players {
		out, err = f.svc.Execute(ctx, g.ID, seat(pid))
		require.NoError(t, err)
	}
	assert.True(t, out.RoundEnded)
	assert.False(t, out.Finished)
	assert.Contains(t, f.chat.texts(g.ID), "Round 2 begins! Declaration phase has started.")

	stored := f.stored(t, g.ID)
	assert.Equal(t, 2, stored.Extra.RoundNumber)
	assert.Equal(t, game.PhaseDeclaration, stored.Extra.Phase)

	_, err = f.svc.Betray(ctx, g.ID, seat(g.Players[0]))
	assert.ErrorIs(t, err, game.ErrNotAllied)
}

func TestNegotiationThroughService(t *testing.T) {
	ctx := context.Background()
	f := newLobbyFixture(t)
	g, err := f.lobby.CreateDebugGame(ctx, as("A"), game.ModeFourPlayer, game.TypeExtra)
	require.NoError(t, err)
	seat := func(pid string) game.ActingIdentity {
		return game.ActingIdentity{PlayerID: "A", DebugPlayerID: pid}
	}
	p := g.Players

	for _, pid := range p {
		a := game.Action{Type: game.ActionWait}
		if pid == p[0] {
			a = game.Action{Type: game.ActionNegotiate, TargetID: p[1], Negotiation: game.NegotiationAlliance}
		}
		_, err := f.svc.Declare(ctx, g.ID, seat(pid), a)
		require.NoError(t, err)
	}
	out, err := f.svc.Execute(ctx, g.ID, seat(p[0]))
	require.NoError(t, err)
	require.NotEmpty(t, out.NegotiationID)

	_, err = f.svc.RespondNegotiation(ctx, g.ID, seat(p[2]), out.NegotiationID, true)
	assert.ErrorIs(t, err, game.ErrNotRecipient)

	alliance, err := f.svc.RespondNegotiation(ctx, g.ID, seat(p[1]), out.NegotiationID, true)
	require.NoError(t, err)
	require.NotNil(t, alliance)
	assert.ElementsMatch(t, []string{p[0], p[1]}, alliance.Members)

	betrayed, err := f.svc.Betray(ctx, g.ID, seat(p[1]))
	require.NoError(t, err)
	assert.Equal(t, []string{p[0]}, betrayed)
}
