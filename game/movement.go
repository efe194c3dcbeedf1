package game

import (
	"time"

	"github.com/beka-birhanu/vinom-labyrinth/game/maze"
)

// MoveResult tells what a committed move did.
type MoveResult string

const (
	MoveMoved       MoveResult = "moved"
	MoveWallBlocked MoveResult = "wall_blocked"
	MoveSkipped     MoveResult = "skipped"
	MoveCancelled   MoveResult = "cancelled" // extra mode, swallowed by move_block
)

// MoveOutcome describes the effects of one move on the document.
type MoveOutcome struct {
	Result           MoveResult    `json:"result"`
	From             maze.Position `json:"from"`
	To               maze.Position `json:"to"`
	Wall             *maze.Wall    `json:"wall,omitempty"`
	Discovered       bool          `json:"discovered"`
	PointsAwarded    int           `json:"pointsAwarded"`
	ReachedGoal      bool          `json:"reachedGoal"`
	GoalPlace        int           `json:"goalPlace,omitempty"`
	BattleWith       string        `json:"battleWith,omitempty"`
	NextTurnPlayerID string        `json:"nextTurnPlayerId,omitempty"`
	Finished         bool          `json:"finished"`
}

// AttemptMove applies a standard-mode move of playerID in direction d. The
// whole outcome, including turn passing and finalization, is written to g;
// callers commit g in one transaction. Validation errors leave g untouched.
func AttemptMove(g *GameState, playerID string, d maze.Direction, now time.Time) (MoveOutcome, error) {
	if g.IsExtra() {
		return MoveOutcome{}, ErrStandardOnly
	}
	if err := g.ensurePlaying(); err != nil {
		return MoveOutcome{}, err
	}
	ps, err := g.Player(playerID)
	if err != nil {
		return MoveOutcome{}, err
	}
	if g.ActiveBattle != nil {
		if g.ActiveBattle.Involves(playerID) {
			return MoveOutcome{}, ErrInBattle
		}
		return MoveOutcome{}, ErrBattleActive
	}
	if ps.InBattleWith != "" {
		return MoveOutcome{}, ErrInBattle
	}
	if g.CurrentTurnPlayerID != playerID {
		return MoveOutcome{}, ErrNotYourTurn
	}
	if _, _, err := d.Delta(); err != nil {
		return MoveOutcome{}, err
	}
	m, err := g.AssignedMaze(playerID)
	if err != nil {
		return MoveOutcome{}, err
	}

	if ps.SkipNextTurn {
		ps.SkipNextTurn = false
		out := MoveOutcome{Result: MoveSkipped, From: ps.Position, To: ps.Position}
		out.NextTurnPlayerID, out.Finished = g.endTurn(now)
		return out, nil
	}

	out, err := applyStep(g, playerID, ps, m, d, now, g.Mode == ModeFourPlayer)
	if err != nil {
		return MoveOutcome{}, err
	}
	out.NextTurnPlayerID, out.Finished = g.endTurn(now)
	return out, nil
}

// applyStep moves ps one cell on m and applies discovery, goal and, when
// collisions is set, battle side effects. It does not pass the turn.
func applyStep(g *GameState, playerID string, ps *PlayerState, m *maze.Maze, d maze.Direction, now time.Time, collisions bool) (MoveOutcome, error) {
	from := ps.Position
	to, err := from.Step(d)
	if err != nil {
		return MoveOutcome{}, err
	}
	if !maze.InBounds(to, m.GridSize) {
		return MoveOutcome{}, ErrOutOfBounds
	}

	out := MoveOutcome{From: from, To: to}
	if blocked, wall := m.IsBlocked(from, d); blocked {
		ps.revealWall(*wall)
		out.Result = MoveWallBlocked
		out.To = from
		out.Wall = wall
		return out, nil
	}

	out.Result = MoveMoved
	ps.Position = to
	if ps.revealCell(to) {
		out.Discovered = true
		out.PointsAwarded += g.discoveryBonus()
	}

	if to == m.Goal && !ps.Goaled() {
		at := now
		ps.GoalTime = &at
		g.GoalCount++
		out.ReachedGoal = true
		out.GoalPlace = g.GoalCount
		if !g.IsExtra() && g.Mode == ModeFourPlayer && out.GoalPlace <= len(standardPlacementBonus) {
			out.PointsAwarded += standardPlacementBonus[out.GoalPlace-1]
		}
	}
	ps.Score += out.PointsAwarded

	if collisions {
		if other := g.occupant(playerID, to); other != "" {
			g.startBattle(playerID, other, now)
			out.BattleWith = other
		}
	}
	return out, nil
}

// occupant returns the first other player standing on pos.
func (g *GameState) occupant(playerID string, pos maze.Position) string {
	for _, pid := range g.Players {
		if pid == playerID {
			continue
		}
		if ps := g.PlayerStates[pid]; ps != nil && ps.Position == pos {
			return pid
		}
	}
	return ""
}
