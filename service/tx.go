package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/beka-birhanu/vinom-labyrinth/game"
	"github.com/beka-birhanu/vinom-labyrinth/service/i"
)

const defaultMaxTxAttempts = 5

// txRunner wraps the gateway with bounded optimistic retries.
type txRunner struct {
	gateway     i.StateGateway
	logger      i.Logger
	maxAttempts int
	now         func() time.Time
}

func newTxRunner(gateway i.StateGateway, logger i.Logger, maxAttempts int, now func() time.Time) *txRunner {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxTxAttempts
	}
	if now == nil {
		now = time.Now
	}
	return &txRunner{gateway: gateway, logger: logger, maxAttempts: maxAttempts, now: now}
}

// clock returns the current time at the millisecond precision documents keep.
func (r *txRunner) clock() time.Time {
	return r.now().UTC().Truncate(time.Millisecond)
}

func (r *txRunner) get(ctx context.Context, gameID string) (*game.GameState, error) {
	g, err := r.gateway.Get(ctx, gameID)
	if errors.Is(err, i.ErrNotFound) {
		return nil, ErrGameNotFound
	}
	return g, err
}

// run applies fn to a fresh copy of the game until a commit succeeds. fn runs
// once per attempt, so it must only write to g and to its own results.
func (r *txRunner) run(ctx context.Context, gameID string, fn func(g *game.GameState, now time.Time) error) (*game.GameState, error) {
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		now := r.clock()
		g, err := r.gateway.RunTransaction(ctx, gameID, func(g *game.GameState) error {
			if err := fn(g, now); err != nil {
				return err
			}
			g.UpdatedAt = now
			return nil
		})
		switch {
		case err == nil:
			return g, nil
		case errors.Is(err, i.ErrConflict):
			r.logger.Warning(fmt.Sprintf("conflict on game %s, attempt %d/%d", gameID, attempt, r.maxAttempts))
		case errors.Is(err, i.ErrNotFound):
			return nil, ErrGameNotFound
		default:
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: game %s after %d attempts", ErrTransient, gameID, r.maxAttempts)
}

// actor resolves who acts in g. A debug identity may only drive seats of a
// game its real player belongs to.
func actor(g *game.GameState, who game.ActingIdentity) (string, error) {
	if who.IsDebug() && !g.HasPlayer(who.PlayerID) {
		return "", game.ErrPlayerNotInGame
	}
	pid := who.Effective()
	if !g.HasPlayer(pid) {
		return "", game.ErrPlayerNotInGame
	}
	return pid, nil
}
