package game

import (
	"slices"
	"time"
)

// Advance returns the player after current in seat order, wrapping around.
// An unknown current player yields the first seat.
func Advance(players []string, current string) string {
	if len(players) == 0 {
		return ""
	}
	idx := slices.Index(players, current)
	return players[(idx+1)%len(players)]
}

// NextTurn hands the turn to the next eligible player and returns its ID.
// Candidates carrying skipNextTurn lose the flag and are passed over.
func (g *GameState) NextTurn() string {
	next := g.CurrentTurnPlayerID
	found := false
	for range g.Players {
		next = Advance(g.Players, next)
		ps := g.PlayerStates[next]
		if ps == nil {
			continue
		}
		if ps.SkipNextTurn {
			ps.SkipNextTurn = false
			continue
		}
		found = true
		break
	}

	if !found {
		// Everybody was skipped once; the flags are consumed, play resumes in order.
		next = Advance(g.Players, g.CurrentTurnPlayerID)
	}
	g.CurrentTurnPlayerID = next
	g.TurnNumber++
	return next
}

// standardFinished reports whether a standard game reached its end condition.
func (g *GameState) standardFinished() bool {
	goaled := g.goaledCount()
	if g.Mode == ModeTwoPlayer {
		return goaled >= 1
	}
	return goaled >= fourPlayerFinishingGoals || goaled == len(g.Players)
}

// endTurn closes the mover's turn: the game finalizes when it is over,
// otherwise the turn passes on. Nothing happens while a battle is pending.
func (g *GameState) endTurn(now time.Time) (next string, finished bool) {
	if g.ActiveBattle != nil {
		return g.CurrentTurnPlayerID, false
	}
	if g.standardFinished() {
		Finalize(g, now)
		return g.CurrentTurnPlayerID, true
	}
	return g.NextTurn(), false
}
