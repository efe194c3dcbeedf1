package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/beka-birhanu/vinom-labyrinth/game"
	"github.com/beka-birhanu/vinom-labyrinth/game/maze"
	"github.com/beka-birhanu/vinom-labyrinth/service/i"
	"github.com/google/uuid"
)

const (
	queueSeparator = "-"
	matchDeadline  = 10 * time.Second
)

var _ i.Lobby = &LobbyService{}

// LobbyService turns queued players into games and walks them through maze
// submission until play starts.
type LobbyService struct {
	tx         *txRunner
	gateway    i.StateGateway
	sessions   i.SessionIndex
	matchmaker i.Matchmaker
	logger     i.Logger

	rngMu sync.Mutex
	rng   *rand.Rand
}

type LobbyConfig struct {
	Gateway       i.StateGateway
	Sessions      i.SessionIndex
	Matchmaker    i.Matchmaker
	Logger        i.Logger
	MaxTxAttempts int
	Now           func() time.Time
	Rand          *rand.Rand // maze generation and objective draws
}

func NewLobbyService(c *LobbyConfig) (*LobbyService, error) {
	if c.Gateway == nil || c.Sessions == nil || c.Matchmaker == nil || c.Logger == nil {
		return nil, errors.New("gateway, sessions, matchmaker and logger are required")
	}
	if c.Rand == nil {
		c.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	l := &LobbyService{
		tx:         newTxRunner(c.Gateway, c.Logger, c.MaxTxAttempts, c.Now),
		gateway:    c.Gateway,
		sessions:   c.Sessions,
		matchmaker: c.Matchmaker,
		logger:     c.Logger,
		rng:        c.Rand,
	}
	c.Matchmaker.SetMatchHandler(l.onMatch)
	return l, nil
}

// QueueName names the matchmaking queue of a mode and rule variant.
func QueueName(mode game.Mode, typ game.Type) string {
	return string(mode) + queueSeparator + string(typ)
}

func parseQueue(queue string) (game.Mode, game.Type, error) {
	mode, typ, ok := strings.Cut(queue, queueSeparator)
	if !ok {
		return "", "", game.ErrInvalidMode
	}
	m, t := game.Mode(mode), game.Type(typ)
	return m, t, game.ValidateMode(m, t)
}

// allQueues names every queue a player can wait in.
var allQueues = []string{
	QueueName(game.ModeTwoPlayer, game.TypeStandard),
	QueueName(game.ModeFourPlayer, game.TypeStandard),
	QueueName(game.ModeFourPlayer, game.TypeExtra),
}

// Enqueue puts who in the queue of the mode, taking them out of any other
// queue. Players already seated in a live game cannot queue again.
func (l *LobbyService) Enqueue(ctx context.Context, who game.ActingIdentity, mode game.Mode, typ game.Type) error {
	if err := game.ValidateMode(mode, typ); err != nil {
		return err
	}
	current, err := l.CurrentGame(ctx, who)
	switch {
	case err == nil && !current.Status.Terminal():
		return ErrAlreadyInGame
	case err != nil && !errors.Is(err, ErrNoCurrentGame):
		return err
	}
	queue := QueueName(mode, typ)
	if err := l.leaveOtherQueues(ctx, queue, who.PlayerID, who.DisplayName); err != nil {
		return err
	}
	return l.matchmaker.PushToQueue(ctx, queue, int64(mode.RequiredPlayers()), who.PlayerID, who.DisplayName)
}

func (l *LobbyService) leaveOtherQueues(ctx context.Context, keep, playerID, name string) error {
	for _, q := range allQueues {
		if q == keep {
			continue
		}
		if err := l.matchmaker.Leave(ctx, q, playerID, name); err != nil {
			return err
		}
	}
	return nil
}

// Leave takes who out of a queue.
func (l *LobbyService) Leave(ctx context.Context, who game.ActingIdentity, mode game.Mode, typ game.Type) error {
	if err := game.ValidateMode(mode, typ); err != nil {
		return err
	}
	return l.matchmaker.Leave(ctx, QueueName(mode, typ), who.PlayerID, who.DisplayName)
}

func (l *LobbyService) onMatch(queue string, players []i.QueuedPlayer) {
	ctx, cancel := context.WithTimeout(context.Background(), matchDeadline)
	defer cancel()

	mode, typ, err := parseQueue(queue)
	if err != nil {
		l.logger.Error(fmt.Sprintf("match from unknown queue %q: %s", queue, err))
		return
	}
	// A player who raced into two queues is matched once.
	for _, p := range players {
		if err := l.leaveOtherQueues(ctx, queue, p.ID, p.Name); err != nil {
			l.logger.Warning(fmt.Sprintf("removing %s from other queues: %s", p.ID, err))
		}
	}
	g, err := l.openGame(ctx, mode, typ, players)
	if err != nil {
		l.logger.Error(fmt.Sprintf("opening game for queue %s: %s", queue, err))
		return
	}
	l.logger.Info(fmt.Sprintf("started game %s (%s) for players: %v", g.ID, queue, g.Players))
}

// CreateDebugGame opens a game whose other seats are filled with generated
// players, so a single client can drive every seat.
func (l *LobbyService) CreateDebugGame(ctx context.Context, who game.ActingIdentity, mode game.Mode, typ game.Type) (*game.GameState, error) {
	if err := game.ValidateMode(mode, typ); err != nil {
		return nil, err
	}
	players := []i.QueuedPlayer{{ID: who.PlayerID, Name: who.DisplayName}}
	for seat := 2; seat <= mode.RequiredPlayers(); seat++ {
		players = append(players, i.QueuedPlayer{ID: uuid.NewString(), Name: fmt.Sprintf("Debug Player %d", seat)})
	}
	return l.openGame(ctx, mode, typ, players)
}

// openGame seats players in a new game, stores it and points every player at
// it. Extra games get generated mazes and start at once.
func (l *LobbyService) openGame(ctx context.Context, mode game.Mode, typ game.Type, players []i.QueuedPlayer) (*game.GameState, error) {
	if len(players) != mode.RequiredPlayers() {
		return nil, fmt.Errorf("%w: %d players for %s", game.ErrInvalidMode, len(players), mode)
	}
	now := l.tx.clock()
	g, err := game.NewGame(uuid.NewString(), mode, typ, players[0].ID, players[0].Name, now)
	if err != nil {
		return nil, err
	}
	for _, p := range players[1:] {
		if err := game.Join(g, p.ID, p.Name, now); err != nil {
			return nil, fmt.Errorf("seating %s: %w", p.ID, err)
		}
	}
	if g.IsExtra() {
		err = l.withRand(func(rng *rand.Rand) error {
			if err := game.FillGeneratedMazes(g, rng); err != nil {
				return err
			}
			return game.Start(g, now, rng)
		})
		if err != nil {
			return nil, err
		}
	}

	if err := l.gateway.Create(ctx, g); err != nil {
		return nil, err
	}
	for _, pid := range g.Players {
		if err := l.sessions.SetPlayerGame(ctx, pid, g.ID); err != nil {
			return nil, fmt.Errorf("recording game of %s: %w", pid, err)
		}
	}
	return g, nil
}

// CurrentGame returns the game who was last placed in.
func (l *LobbyService) CurrentGame(ctx context.Context, who game.ActingIdentity) (*game.GameState, error) {
	gameID, err := l.sessions.PlayerGame(ctx, who.PlayerID)
	if errors.Is(err, i.ErrNotFound) {
		return nil, ErrNoCurrentGame
	}
	if err != nil {
		return nil, err
	}
	g, err := l.tx.get(ctx, gameID)
	if errors.Is(err, ErrGameNotFound) {
		_ = l.sessions.ClearPlayerGame(ctx, who.PlayerID)
		return nil, ErrNoCurrentGame
	}
	return g, err
}

// SubmitMaze stores the maze of who. The last submission starts the game.
func (l *LobbyService) SubmitMaze(ctx context.Context, gameID string, who game.ActingIdentity, m *maze.Maze) (*game.GameState, error) {
	var started bool
	g, err := l.tx.run(ctx, gameID, func(g *game.GameState, now time.Time) error {
		pid, err := actor(g, who)
		if err != nil {
			return err
		}
		ready, err := game.SubmitMaze(g, pid, m)
		if err != nil || !ready {
			started = false
			return err
		}
		started = true
		return l.withRand(func(rng *rand.Rand) error { return game.Start(g, now, rng) })
	})
	if err != nil {
		return nil, err
	}
	if started {
		l.logger.Info(fmt.Sprintf("all mazes in, game %s started", gameID))
	}
	return g, nil
}

// GenerateMaze submits a random solvable maze on behalf of who.
func (l *LobbyService) GenerateMaze(ctx context.Context, gameID string, who game.ActingIdentity) (*game.GameState, error) {
	g, err := l.tx.get(ctx, gameID)
	if err != nil {
		return nil, err
	}
	var m *maze.Maze
	err = l.withRand(func(rng *rand.Rand) error {
		var err error
		m, err = maze.Generate(game.GridSize(g.Type), game.MaxStandardWalls, rng)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("generating maze: %w", err)
	}
	return l.SubmitMaze(ctx, gameID, who, m)
}

func (l *LobbyService) withRand(fn func(*rand.Rand) error) error {
	l.rngMu.Lock()
	defer l.rngMu.Unlock()
	return fn(l.rng)
}
