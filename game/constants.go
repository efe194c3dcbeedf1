package game

import "time"

// Board and scoring constants.
const (
	StandardGridSize = 6  // Grid size of player-authored standard mazes.
	ExtraGridSize    = 8  // Grid size of generated extra-mode mazes.
	MaxStandardWalls = 20 // Wall budget of a player-authored maze.
	ExtraWallCount   = 30 // Walls kept from the generated perfect maze in extra mode.

	standardDiscoveryBonus = 1
	extraDiscoveryBonus    = 2
	battleWinBonus         = 5

	fourPlayerFinishingGoals = 3 // A 4-player standard game ends when this many players goaled.

	extraMaxRounds              = 20
	extraPersonalTimeLimit      = 300 * time.Second
	extraPersonalPenaltyEvery   = 10 * time.Second
	extraPersonalPenaltyPoints  = -1
	extraAllyHigherRankBonus    = 10
	extraSoloWinnerBonus        = 25
	extraSabotageDurationRounds = 2
)

var (
	standardPlacementBonus = []int{20, 15, 10, 0} // 4-player standard, by arrival order
	extraPlacementBonus    = []int{50, 30, 20, 10} // extra, by final rank, goaled players only
)

// GridSize returns the maze size used by the rule variant.
func GridSize(t Type) int {
	if t == TypeExtra {
		return ExtraGridSize
	}
	return StandardGridSize
}
