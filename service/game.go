package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/beka-birhanu/vinom-labyrinth/game"
	"github.com/beka-birhanu/vinom-labyrinth/service/i"
	"github.com/google/uuid"
)

const (
	defaultBattleTimeout = 60 * time.Second
	expiryDeadline       = 10 * time.Second
	exitReason           = "player left"
)

var _ i.GamePlay = &GameService{}

type battleTimer struct {
	startedAt time.Time
	timer     *time.Timer
}

// GameService runs every in-game operation as an optimistic transaction on
// the shared game document.
type GameService struct {
	tx       *txRunner
	gateway  i.StateGateway
	sessions i.SessionIndex
	notices  *notifier
	bus      i.EventBus
	chat     i.ChatLog
	archive  i.GameArchive
	users    i.UserRepo
	logger   i.Logger

	moveDelay     time.Duration
	battleTimeout time.Duration

	battleTimers map[string]battleTimer
	sync.Mutex
}

type GameConfig struct {
	Gateway       i.StateGateway
	Sessions      i.SessionIndex
	Chat          i.ChatLog
	Bus           i.EventBus
	Archive       i.GameArchive // optional
	Users         i.UserRepo    // optional; finished games update player records
	Logger        i.Logger
	MoveDelay     time.Duration // transit delay before a move commits
	BattleTimeout time.Duration
	MaxTxAttempts int
	Now           func() time.Time
}

func NewGameService(c *GameConfig) (*GameService, error) {
	if c.Gateway == nil || c.Sessions == nil || c.Chat == nil || c.Bus == nil || c.Logger == nil {
		return nil, errors.New("gateway, sessions, chat, bus and logger are required")
	}
	if c.BattleTimeout <= 0 {
		c.BattleTimeout = defaultBattleTimeout
	}
	tx := newTxRunner(c.Gateway, c.Logger, c.MaxTxAttempts, c.Now)
	return &GameService{
		tx:            tx,
		gateway:       c.Gateway,
		sessions:      c.Sessions,
		notices:       &notifier{chat: c.Chat, bus: c.Bus, logger: c.Logger, now: tx.now},
		bus:           c.Bus,
		chat:          c.Chat,
		archive:       c.Archive,
		users:         c.Users,
		logger:        c.Logger,
		moveDelay:     c.MoveDelay,
		battleTimeout: c.BattleTimeout,
		battleTimers:  make(map[string]battleTimer),
	}, nil
}

// State returns the game as seen by who. Games whose live copy expired are
// served from the archive.
func (s *GameService) State(ctx context.Context, gameID string, who game.ActingIdentity) (*game.GameState, error) {
	g, err := s.tx.get(ctx, gameID)
	if errors.Is(err, ErrGameNotFound) && s.archive != nil {
		if archived, aerr := s.archive.ByID(ctx, gameID); aerr == nil {
			g, err = archived, nil
		}
	}
	if err != nil {
		return nil, err
	}
	if _, err := actor(g, who); err != nil {
		return nil, err
	}
	s.watchBattle(g)
	return g, nil
}

// Subscribe streams committed states and chat lines of a game until the
// returned function is called or ctx ends.
func (s *GameService) Subscribe(ctx context.Context, gameID string, who game.ActingIdentity,
	onState func(*game.GameState), onChat func(*game.ChatMessage)) (func(), error) {
	if _, err := s.State(ctx, gameID, who); err != nil {
		return nil, err
	}

	stopState, err := s.gateway.Subscribe(ctx, gameID, func(g *game.GameState) {
		s.watchBattle(g)
		onState(g)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribing to game %s: %w", gameID, err)
	}
	stopChat, err := s.bus.Subscribe(ctx, ChatTopic(gameID), func(payload []byte) {
		msg, err := decodeChat(payload)
		if err != nil {
			s.logger.Warning(fmt.Sprintf("dropping undecodable chat of game %s: %s", gameID, err))
			return
		}
		onChat(msg)
	})
	if err != nil {
		stopState()
		return nil, fmt.Errorf("subscribing to chat of game %s: %w", gameID, err)
	}

	return func() {
		stopState()
		stopChat()
	}, nil
}

// Exit disbands the game on behalf of who. It is store-atomic and never
// conflicts, so a leaving player always gets out.
func (s *GameService) Exit(ctx context.Context, gameID string, who game.ActingIdentity) (*game.GameState, error) {
	var disbanded bool
	var name string
	g, err := s.gateway.Update(ctx, gameID, func(g *game.GameState) error {
		pid, err := actor(g, who)
		if err != nil {
			return err
		}
		name = g.DisplayName(pid)
		now := s.tx.clock()
		disbanded, err = game.Disband(g, pid, exitReason, now)
		if err != nil {
			return err
		}
		if !disbanded {
			return errNoChange
		}
		g.UpdatedAt = now
		return nil
	})
	switch {
	case errors.Is(err, errNoChange), errors.Is(err, game.ErrGameFinished):
		if err := s.sessions.ClearPlayerGame(ctx, who.Effective()); err != nil {
			s.logger.Warning(fmt.Sprintf("clearing session of %s: %s", who.Effective(), err))
		}
		return s.tx.get(ctx, gameID)
	case errors.Is(err, i.ErrNotFound):
		return nil, ErrGameNotFound
	case err != nil:
		return nil, err
	}

	s.stopBattleTimer(gameID)
	s.notices.system(ctx, gameID, "%s left, so this game is disbanded.", name)
	s.logger.Info(fmt.Sprintf("game %s disbanded by %s", gameID, who.Effective()))
	s.closeGame(ctx, g)
	return g, nil
}

// Close stops pending battle timers.
func (s *GameService) Close() {
	s.Lock()
	defer s.Unlock()
	for id, bt := range s.battleTimers {
		bt.timer.Stop()
		delete(s.battleTimers, id)
	}
}

// finish announces a finished game and closes it.
func (s *GameService) finish(ctx context.Context, g *game.GameState) {
	s.stopBattleTimer(g.ID)
	standings := game.Standings(g)
	if len(standings) > 0 {
		s.notices.system(ctx, g.ID, "Game over! %s wins with %d points.",
			g.DisplayName(standings[0]), g.PlayerStates[standings[0]].Score)
	}
	s.logger.Info(fmt.Sprintf("game %s finished", g.ID))
	s.recordResults(g)
	s.closeGame(ctx, g)
}

// closeGame archives a terminal game and frees its players for matchmaking.
func (s *GameService) closeGame(ctx context.Context, g *game.GameState) {
	if s.archive != nil {
		if err := s.archive.Save(ctx, g); err != nil {
			s.logger.Error(fmt.Sprintf("archiving game %s: %s", g.ID, err))
		}
	}
	for _, pid := range g.Players {
		current, err := s.sessions.PlayerGame(ctx, pid)
		if err != nil || current != g.ID {
			continue
		}
		if err := s.sessions.ClearPlayerGame(ctx, pid); err != nil {
			s.logger.Warning(fmt.Sprintf("clearing session of %s: %s", pid, err))
		}
	}
}

// recordResults updates the accounts of registered players. Debug seats have
// no account and are skipped.
func (s *GameService) recordResults(g *game.GameState) {
	if s.users == nil || g.Status != game.StatusFinished {
		return
	}
	for _, pid := range g.Players {
		id, err := uuid.Parse(pid)
		if err != nil {
			continue
		}
		user, err := s.users.ByID(id)
		if err != nil {
			continue
		}
		user.RecordResult(g.PlayerStates[pid].Rank)
		if err := s.users.Save(user); err != nil {
			s.logger.Warning(fmt.Sprintf("recording result of %s: %s", pid, err))
		}
	}
}
