package game

import (
	"math/rand"
	"time"

	"github.com/beka-birhanu/vinom-labyrinth/game/maze"
)

// ValidateMode checks a mode and rule variant pair. Extra games need four players.
func ValidateMode(mode Mode, typ Type) error {
	if mode.RequiredPlayers() == 0 {
		return ErrInvalidMode
	}
	switch typ {
	case TypeStandard:
		return nil
	case TypeExtra:
		if mode != ModeFourPlayer {
			return ErrInvalidMode
		}
		return nil
	default:
		return ErrInvalidMode
	}
}

// NewGame opens a game in the waiting stage with the host seated.
func NewGame(id string, mode Mode, typ Type, hostID, hostName string, now time.Time) (*GameState, error) {
	if err := ValidateMode(mode, typ); err != nil {
		return nil, err
	}

	g := &GameState{
		ID:           id,
		Mode:         mode,
		Type:         typ,
		Status:       StatusWaiting,
		Players:      make([]string, 0, mode.RequiredPlayers()),
		HostID:       hostID,
		PlayerNames:  make(map[string]string),
		Mazes:        make(map[string]*maze.Maze),
		PlayerStates: make(map[string]*PlayerState),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := Join(g, hostID, hostName, now); err != nil {
		return nil, err
	}
	return g, nil
}

// Join seats a player. A full game moves on to maze creation.
func Join(g *GameState, playerID, name string, now time.Time) error {
	if g.Status != StatusWaiting {
		return ErrGameFull
	}
	if g.HasPlayer(playerID) {
		return ErrAlreadyJoined
	}
	if len(g.Players) >= g.Mode.RequiredPlayers() {
		return ErrGameFull
	}
	g.Players = append(g.Players, playerID)
	if g.PlayerNames == nil {
		g.PlayerNames = make(map[string]string)
	}
	g.PlayerNames[playerID] = name
	if len(g.Players) == g.Mode.RequiredPlayers() {
		g.Status = StatusCreating
	}
	g.UpdatedAt = now
	return nil
}

// SubmitMaze stores the maze authored by playerID. It reports whether every
// player has submitted.
func SubmitMaze(g *GameState, playerID string, m *maze.Maze) (bool, error) {
	if g.Status != StatusCreating {
		if g.Status == StatusDisbanded {
			return false, ErrGameDisbanded
		}
		return false, ErrWrongPhase
	}
	if !g.HasPlayer(playerID) {
		return false, ErrPlayerNotInGame
	}
	if _, ok := g.Mazes[playerID]; ok {
		return false, ErrMazeAlreadySet
	}
	if err := m.Validate(GridSize(g.Type)); err != nil {
		return false, err
	}
	if !g.IsExtra() && m.ActiveWallCount() > MaxStandardWalls {
		return false, ErrTooManyWalls
	}
	if g.Mazes == nil {
		g.Mazes = make(map[string]*maze.Maze)
	}
	g.Mazes[playerID] = m.Clone()
	return len(g.Mazes) == len(g.Players), nil
}

// FillGeneratedMazes generates a maze for every player who has none.
func FillGeneratedMazes(g *GameState, rng *rand.Rand) error {
	size := GridSize(g.Type)
	walls := MaxStandardWalls
	if g.IsExtra() {
		walls = ExtraWallCount
	}
	if g.Mazes == nil {
		g.Mazes = make(map[string]*maze.Maze)
	}
	for _, pid := range g.Players {
		if _, ok := g.Mazes[pid]; ok {
			continue
		}
		m, err := maze.Generate(size, walls, rng)
		if err != nil {
			return err
		}
		g.Mazes[pid] = m
	}
	return nil
}

// Start assigns mazes in rotation, player i solving the maze of player i+1,
// and opens play. Extra games also get their round state and objectives.
func Start(g *GameState, now time.Time, rng *rand.Rand) error {
	if g.Status != StatusCreating {
		return ErrWrongPhase
	}
	n := len(g.Players)
	if n != g.Mode.RequiredPlayers() {
		return ErrWrongPhase
	}
	for _, pid := range g.Players {
		if g.Mazes[pid] == nil {
			return ErrMazeNotAssigned
		}
	}

	g.PlayerStates = make(map[string]*PlayerState, n)
	for i, pid := range g.Players {
		owner := g.Players[(i+1)%n]
		g.PlayerStates[pid] = newPlayerState(g.PlayerNames[pid], owner, g.Mazes[owner])
	}
	g.Status = StatusPlaying
	g.CurrentTurnPlayerID = g.Players[0]
	g.TurnNumber = 1
	g.GoalCount = 0
	g.ActiveBattle = nil
	g.UpdatedAt = now

	if g.IsExtra() {
		g.Extra = &ExtraState{
			RoundNumber:    1,
			Phase:          PhaseDeclaration,
			PhaseStartedAt: now,
			Alliances:      make([]Alliance, 0),
			Negotiations:   make([]Negotiation, 0),
		}
		for _, pid := range g.Players {
			g.PlayerStates[pid].Extra = newExtraPlayerState()
		}
		assignObjectives(g, rng)
	}
	return nil
}

// Disband ends the game on behalf of playerID. Disbanding an already
// disbanded game is a no-op; a finished game stays finished.
func Disband(g *GameState, playerID, reason string, now time.Time) (bool, error) {
	if !g.HasPlayer(playerID) {
		return false, ErrPlayerNotInGame
	}
	switch g.Status {
	case StatusDisbanded:
		return false, nil
	case StatusFinished:
		return false, ErrGameFinished
	}
	at := now
	g.Status = StatusDisbanded
	g.DisbandedBy = playerID
	g.DisbandReason = reason
	g.DisbandedAt = &at
	g.ActiveBattle = nil
	g.UpdatedAt = now
	return true, nil
}
