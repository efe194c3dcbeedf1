package game

import (
	"slices"
	"time"
)

// Standings orders the players for ranking: earliest goal time first,
// players without a goal last, ties broken by higher score then seat order.
func Standings(g *GameState) []string {
	order := slices.Clone(g.Players)
	seat := make(map[string]int, len(order))
	for i, pid := range order {
		seat[pid] = i
	}
	slices.SortStableFunc(order, func(a, b string) int {
		pa, pb := g.PlayerStates[a], g.PlayerStates[b]
		switch {
		case pa == nil || pb == nil:
			return seat[a] - seat[b]
		case pa.GoalTime != nil && pb.GoalTime == nil:
			return -1
		case pa.GoalTime == nil && pb.GoalTime != nil:
			return 1
		case pa.GoalTime != nil && !pa.GoalTime.Equal(*pb.GoalTime):
			return pa.GoalTime.Compare(*pb.GoalTime)
		case pa.Score != pb.Score:
			return pb.Score - pa.Score
		default:
			return seat[a] - seat[b]
		}
	})
	return order
}

// Finalize freezes the game: ranks are assigned, end-of-game bonuses are paid
// and the status becomes finished. It reports false when the game was already
// terminal.
func Finalize(g *GameState, now time.Time) bool {
	if g.Status.Terminal() {
		return false
	}
	if g.IsExtra() {
		finalizeExtra(g)
	} else {
		assignRanks(g)
	}

	at := now
	g.Status = StatusFinished
	g.FinishedAt = &at
	g.ActiveBattle = nil
	if g.Extra != nil {
		g.Extra.Phase = PhaseGameOver
		g.Extra.CurrentActionPlayerID = ""
	}
	return true
}

func assignRanks(g *GameState) []string {
	order := Standings(g)
	for i, pid := range order {
		if ps := g.PlayerStates[pid]; ps != nil {
			ps.Rank = i + 1
		}
	}
	return order
}

func finalizeExtra(g *GameState) {
	for _, pid := range g.Players {
		ps := g.PlayerStates[pid]
		if ps == nil {
			continue
		}
		if ps.Extra == nil {
			ps.Extra = newExtraPlayerState()
		}
		ps.Score += timePenalty(time.Duration(ps.Extra.PersonalTimeUsedMillis) * time.Millisecond)
		ps.Extra.ScoreBeforeFullAllianceBonus = ps.Score
	}

	order := assignRanks(g)
	for i, pid := range order {
		ps := g.PlayerStates[pid]
		if ps != nil && ps.Goaled() && i < len(extraPlacementBonus) {
			ps.Score += extraPlacementBonus[i]
		}
	}

	for _, pid := range g.Players {
		ps := g.PlayerStates[pid]
		if ps == nil {
			continue
		}
		if obj := ps.Extra.SecretObjective; obj != nil && !obj.Achieved && g.objectiveAchieved(pid) {
			obj.Achieved = true
			ps.Score += obj.Points
		}
		for _, ally := range g.unbrokenAllies(pid) {
			if a := g.PlayerStates[ally]; a != nil && a.Rank < ps.Rank {
				ps.Score += extraAllyHigherRankBonus
				break
			}
		}
		if ps.Rank == 1 && !ps.Extra.EverAllied {
			ps.Score += extraSoloWinnerBonus
		}
	}

	// Full alliances pool the pre-bonus scores of their members.
	for _, a := range g.Extra.Alliances {
		if a.Type != NegotiationFullAlliance || a.Status == AllianceBetrayed {
			continue
		}
		members := make([]*PlayerState, 0, len(a.Members))
		sum := 0
		for _, m := range a.Members {
			if ps := g.PlayerStates[m]; ps != nil {
				members = append(members, ps)
				sum += ps.Extra.ScoreBeforeFullAllianceBonus
			}
		}
		if len(members) == 0 {
			continue
		}
		share := floorDiv(floorDiv(sum, 2), len(members))
		for _, ps := range members {
			ps.Score = floorDiv(ps.Extra.ScoreBeforeFullAllianceBonus, 2) + share
		}
	}
}

// timePenalty returns the (non-positive) score change for time spent over
// the personal limit.
func timePenalty(used time.Duration) int {
	if used <= extraPersonalTimeLimit {
		return 0
	}
	return int((used-extraPersonalTimeLimit)/extraPersonalPenaltyEvery) * extraPersonalPenaltyPoints
}

// floorDiv divides rounding toward negative infinity. d must be positive.
func floorDiv(n, d int) int {
	q := n / d
	if n%d != 0 && n < 0 {
		q--
	}
	return q
}
