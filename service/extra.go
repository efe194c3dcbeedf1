package service

import (
	"context"
	"strings"
	"time"

	"github.com/beka-birhanu/vinom-labyrinth/game"
)

// Declare records the action of who for the current round of an extra game.
// It reports whether the round moved on to action execution.
func (s *GameService) Declare(ctx context.Context, gameID string, who game.ActingIdentity, a game.Action) (bool, error) {
	var allDeclared bool
	_, err := s.tx.run(ctx, gameID, func(g *game.GameState, now time.Time) error {
		pid, err := actor(g, who)
		if err != nil {
			return err
		}
		allDeclared, err = game.Declare(g, pid, a, now)
		return err
	})
	if err != nil {
		return false, err
	}
	if allDeclared {
		s.notices.system(ctx, gameID, "Everyone has declared! Moving to the action phase.")
	}
	return allDeclared, nil
}

// Execute runs the declared action of who. Declared moves wait out the
// transit delay like standard moves.
func (s *GameService) Execute(ctx context.Context, gameID string, who game.ActingIdentity) (game.ActionOutcome, error) {
	snapshot, err := s.tx.get(ctx, gameID)
	if err != nil {
		return game.ActionOutcome{}, err
	}
	pid, err := actor(snapshot, who)
	if err != nil {
		return game.ActionOutcome{}, err
	}
	preview, err := game.ExecuteAction(snapshot, pid, s.tx.clock())
	if err != nil {
		return game.ActionOutcome{}, err
	}
	if preview.Action.Type == game.ActionMove {
		if err := s.transit(ctx); err != nil {
			return game.ActionOutcome{}, err
		}
	}

	var outcome game.ActionOutcome
	g, err := s.tx.run(ctx, gameID, func(g *game.GameState, now time.Time) error {
		pid, err := actor(g, who)
		if err != nil {
			return err
		}
		outcome, err = game.ExecuteAction(g, pid, now)
		return err
	})
	if err != nil {
		return game.ActionOutcome{}, err
	}

	if outcome.Move != nil && outcome.Move.ReachedGoal {
		s.notices.system(ctx, gameID, "%s reached the goal in place %d!", g.DisplayName(pid), outcome.Move.GoalPlace)
	}
	switch {
	case outcome.Finished:
		s.finish(ctx, g)
	case outcome.RoundEnded:
		s.notices.system(ctx, gameID, "Round %d begins! Declaration phase has started.", g.Extra.RoundNumber)
	}
	return outcome, nil
}

// RespondNegotiation accepts or rejects a proposal addressed to who.
func (s *GameService) RespondNegotiation(ctx context.Context, gameID string, who game.ActingIdentity, negotiationID string, accept bool) (*game.Alliance, error) {
	var alliance *game.Alliance
	g, err := s.tx.run(ctx, gameID, func(g *game.GameState, _ time.Time) error {
		pid, err := actor(g, who)
		if err != nil {
			return err
		}
		a, err := game.RespondNegotiation(g, pid, negotiationID, accept)
		if err != nil {
			return err
		}
		alliance = nil
		if a != nil {
			formed := *a
			alliance = &formed
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if alliance != nil {
		names := make([]string, 0, len(alliance.Members))
		for _, m := range alliance.Members {
			names = append(names, g.DisplayName(m))
		}
		s.notices.system(ctx, gameID, "An alliance was formed: %s.", strings.Join(names, " & "))
	}
	return alliance, nil
}

// Betray breaks the alliance of who and returns the betrayed players.
func (s *GameService) Betray(ctx context.Context, gameID string, who game.ActingIdentity) ([]string, error) {
	var betrayed []string
	var name string
	_, err := s.tx.run(ctx, gameID, func(g *game.GameState, _ time.Time) error {
		pid, err := actor(g, who)
		if err != nil {
			return err
		}
		name = g.DisplayName(pid)
		betrayed, err = game.BetrayAlliance(g, pid)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.notices.system(ctx, gameID, "%s betrayed their alliance!", name)
	return betrayed, nil
}
