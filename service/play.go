package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/beka-birhanu/vinom-labyrinth/game"
	"github.com/beka-birhanu/vinom-labyrinth/game/maze"
)

// Move moves who one cell in a standard game. Invalid moves are rejected on
// a snapshot before the transit delay; the commit re-validates on fresh state.
func (s *GameService) Move(ctx context.Context, gameID string, who game.ActingIdentity, d maze.Direction) (game.MoveOutcome, error) {
	snapshot, err := s.tx.get(ctx, gameID)
	if err != nil {
		return game.MoveOutcome{}, err
	}
	pid, err := actor(snapshot, who)
	if err != nil {
		return game.MoveOutcome{}, err
	}
	if _, err := game.AttemptMove(snapshot, pid, d, s.tx.clock()); err != nil {
		return game.MoveOutcome{}, err
	}
	if err := s.transit(ctx); err != nil {
		return game.MoveOutcome{}, err
	}

	var outcome game.MoveOutcome
	g, err := s.tx.run(ctx, gameID, func(g *game.GameState, now time.Time) error {
		pid, err := actor(g, who)
		if err != nil {
			return err
		}
		outcome, err = game.AttemptMove(g, pid, d, now)
		return err
	})
	if err != nil {
		return game.MoveOutcome{}, err
	}

	s.afterMove(ctx, g, pid, outcome)
	return outcome, nil
}

// transit waits out the move delay. It only shapes pacing; a cancelled
// request commits nothing.
func (s *GameService) transit(ctx context.Context) error {
	if s.moveDelay <= 0 {
		return nil
	}
	t := time.NewTimer(s.moveDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (s *GameService) afterMove(ctx context.Context, g *game.GameState, pid string, o game.MoveOutcome) {
	if o.ReachedGoal {
		s.notices.system(ctx, g.ID, "%s reached the goal in place %d!", g.DisplayName(pid), o.GoalPlace)
	}
	if o.BattleWith != "" && g.ActiveBattle != nil {
		s.notices.system(ctx, g.ID, "A battle broke out between %s and %s!", g.DisplayName(pid), g.DisplayName(o.BattleWith))
		s.scheduleBattleExpiry(g.ID, g.ActiveBattle.StartTime)
	}
	if o.Finished {
		s.finish(ctx, g)
	}
}

// Bet places the bet of who in the active battle.
func (s *GameService) Bet(ctx context.Context, gameID string, who game.ActingIdentity, amount int) (game.BattleResult, error) {
	var result game.BattleResult
	g, err := s.tx.run(ctx, gameID, func(g *game.GameState, now time.Time) error {
		pid, err := actor(g, who)
		if err != nil {
			return err
		}
		result, err = game.PlaceBet(g, pid, amount, now)
		return err
	})
	if err != nil {
		return game.BattleResult{}, err
	}
	s.afterBattle(ctx, g, result)
	return result, nil
}

func (s *GameService) afterBattle(ctx context.Context, g *game.GameState, r game.BattleResult) {
	if !r.Resolved {
		s.watchBattle(g)
		return
	}
	s.stopBattleTimer(g.ID)
	if r.Tie {
		s.notices.system(ctx, g.ID, "The battle was a tie.")
	} else {
		s.notices.system(ctx, g.ID, "The winner is %s!", g.DisplayName(r.Winner))
	}
	if r.Finished {
		s.finish(ctx, g)
	}
}

// scheduleBattleExpiry resolves the battle with default bets once the
// timeout passes, unless it was settled first.
func (s *GameService) scheduleBattleExpiry(gameID string, startedAt time.Time) {
	s.Lock()
	defer s.Unlock()
	s.armBattleTimer(gameID, startedAt, s.battleTimeout)
}

// watchBattle arms the expiry of a battle this process did not start, such
// as one begun by another instance or before a restart. The delay counts
// from the battle start.
func (s *GameService) watchBattle(g *game.GameState) {
	if g == nil || g.ActiveBattle == nil || g.Status.Terminal() {
		return
	}
	startedAt := g.ActiveBattle.StartTime
	s.Lock()
	defer s.Unlock()
	if bt, ok := s.battleTimers[g.ID]; ok && bt.startedAt.Equal(startedAt) {
		return
	}
	s.armBattleTimer(g.ID, startedAt, s.battleTimeout-s.tx.now().Sub(startedAt))
}

// armBattleTimer must be called with s locked.
func (s *GameService) armBattleTimer(gameID string, startedAt time.Time, delay time.Duration) {
	if bt, ok := s.battleTimers[gameID]; ok {
		bt.timer.Stop()
	}
	if delay < 0 {
		delay = 0
	}
	// Documents keep millisecond timestamps.
	delay += time.Millisecond
	s.battleTimers[gameID] = battleTimer{
		startedAt: startedAt,
		timer:     time.AfterFunc(delay, func() { s.expireBattle(gameID, startedAt) }),
	}
}

func (s *GameService) stopBattleTimer(gameID string) {
	s.Lock()
	defer s.Unlock()
	if bt, ok := s.battleTimers[gameID]; ok {
		bt.timer.Stop()
		delete(s.battleTimers, gameID)
	}
}

func (s *GameService) expireBattle(gameID string, startedAt time.Time) {
	s.Lock()
	if bt, ok := s.battleTimers[gameID]; ok && bt.startedAt.Equal(startedAt) {
		delete(s.battleTimers, gameID)
	}
	s.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), expiryDeadline)
	defer cancel()

	var result game.BattleResult
	g, err := s.tx.run(ctx, gameID, func(g *game.GameState, now time.Time) error {
		result = game.ExpireBattle(g, startedAt, now, s.battleTimeout)
		if !result.Resolved {
			return errNoChange
		}
		return nil
	})
	if errors.Is(err, errNoChange) {
		return
	}
	if err != nil {
		s.logger.Error(fmt.Sprintf("expiring battle of game %s: %s", gameID, err))
		return
	}
	s.logger.Info(fmt.Sprintf("battle of game %s timed out", gameID))
	s.afterBattle(ctx, g, result)
}
