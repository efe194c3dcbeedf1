package game

import (
	"math/rand"
	"slices"
)

// Secret objective IDs.
const (
	ObjectiveTargetLast   = "COMP_TARGET_LAST"   // the target ranks last
	ObjectiveSoloTop3     = "COMP_SOLO_TOP3"     // finish top 3 outside any alliance
	ObjectiveAllyTop2     = "COOP_ALLY_TOP2"     // finish top 2 together with the allied target
	ObjectiveBetrayAndWin = "SAB_BETRAY_AND_WIN" // betray an ally and rank above every betrayed ally
)

type objectiveTemplate struct {
	id         string
	points     int
	needTarget bool
}

var objectiveCatalog = []objectiveTemplate{
	{id: ObjectiveTargetLast, points: 30, needTarget: true},
	{id: ObjectiveSoloTop3, points: 20},
	{id: ObjectiveAllyTop2, points: 25, needTarget: true},
	{id: ObjectiveBetrayAndWin, points: 35},
}

// assignObjectives deals one secret objective per player.
func assignObjectives(g *GameState, rng *rand.Rand) {
	for _, pid := range g.Players {
		ps := g.PlayerStates[pid]
		if ps == nil {
			continue
		}
		if ps.Extra == nil {
			ps.Extra = newExtraPlayerState()
		}
		tmpl := objectiveCatalog[rng.Intn(len(objectiveCatalog))]
		obj := &SecretObjective{ID: tmpl.id, Points: tmpl.points}
		if tmpl.needTarget {
			others := slices.DeleteFunc(slices.Clone(g.Players), func(o string) bool { return o == pid })
			obj.TargetPlayerID = others[rng.Intn(len(others))]
		}
		ps.Extra.SecretObjective = obj
	}
}

// objectiveAchieved evaluates a secret objective on ranked states.
func (g *GameState) objectiveAchieved(playerID string) bool {
	ps := g.PlayerStates[playerID]
	obj := ps.Extra.SecretObjective
	target := g.PlayerStates[obj.TargetPlayerID]

	switch obj.ID {
	case ObjectiveTargetLast:
		return target != nil && target.Rank == len(g.Players)
	case ObjectiveSoloTop3:
		return ps.Extra.AllianceID == "" && ps.Rank <= 3
	case ObjectiveAllyTop2:
		return target != nil && target.Extra != nil &&
			ps.Extra.AllianceID != "" && ps.Extra.AllianceID == target.Extra.AllianceID &&
			ps.Rank <= 2 && target.Rank <= 2
	case ObjectiveBetrayAndWin:
		if len(ps.Extra.BetrayedAllies) == 0 {
			return false
		}
		for _, b := range ps.Extra.BetrayedAllies {
			if other := g.PlayerStates[b]; other != nil && other.Rank <= ps.Rank {
				return false
			}
		}
		return true
	}
	return false
}
