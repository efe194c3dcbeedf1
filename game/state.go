package game

import (
	"slices"
	"time"

	"github.com/beka-birhanu/vinom-labyrinth/game/maze"
)

// Mode fixes how many players a game needs.
type Mode string

const (
	ModeTwoPlayer  Mode = "2player"
	ModeFourPlayer Mode = "4player"
)

// RequiredPlayers returns the player count of the mode, or 0 for unknown modes.
func (m Mode) RequiredPlayers() int {
	switch m {
	case ModeTwoPlayer:
		return 2
	case ModeFourPlayer:
		return 4
	default:
		return 0
	}
}

// Type selects the rule variant.
type Type string

const (
	TypeStandard Type = "standard"
	TypeExtra    Type = "extra"
)

// Status is the lifecycle stage of a game.
type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusCreating  Status = "creating"
	StatusPlaying   Status = "playing"
	StatusFinished  Status = "finished"
	StatusDisbanded Status = "disbanded"
)

// Terminal reports whether no further mutation is allowed.
func (s Status) Terminal() bool {
	return s == StatusFinished || s == StatusDisbanded
}

// BattleStatus is the sub-state of an active battle.
type BattleStatus string

const BattleBetting BattleStatus = "betting"

// Battle is the single unresolved collision of a game.
type Battle struct {
	Player1   string       `json:"player1" bson:"player1"`
	Player2   string       `json:"player2" bson:"player2"`
	StartTime time.Time    `json:"startTime" bson:"startTime"`
	Status    BattleStatus `json:"status" bson:"status"`
}

// Involves reports whether the player fights in this battle.
func (b *Battle) Involves(playerID string) bool {
	return b != nil && (b.Player1 == playerID || b.Player2 == playerID)
}

// GameState is the shared game document. Extra is set only for extra games.
type GameState struct {
	ID                  string                  `json:"id" bson:"_id"`
	Version             int64                   `json:"version" bson:"version"`
	Mode                Mode                    `json:"mode" bson:"mode"`
	Type                Type                    `json:"gameType" bson:"gameType"`
	Status              Status                  `json:"status" bson:"status"`
	Players             []string                `json:"players" bson:"players"`
	HostID              string                  `json:"hostId" bson:"hostId"`
	PlayerNames         map[string]string       `json:"playerNames" bson:"playerNames"`
	CurrentTurnPlayerID string                  `json:"currentTurnPlayerId" bson:"currentTurnPlayerId"`
	TurnNumber          int                     `json:"turnNumber" bson:"turnNumber"`
	Mazes               map[string]*maze.Maze   `json:"mazes" bson:"mazes"`
	PlayerStates        map[string]*PlayerState `json:"playerStates" bson:"playerStates"`
	GoalCount           int                     `json:"goalCount" bson:"goalCount"`
	ActiveBattle        *Battle                 `json:"activeBattle" bson:"activeBattle"`
	Extra               *ExtraState             `json:"extra,omitempty" bson:"extra,omitempty"`

	CreatedAt     time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt" bson:"updatedAt"`
	FinishedAt    *time.Time `json:"finishedAt,omitempty" bson:"finishedAt,omitempty"`
	DisbandedBy   string     `json:"disbandedBy,omitempty" bson:"disbandedBy,omitempty"`
	DisbandReason string     `json:"disbandReason,omitempty" bson:"disbandReason,omitempty"`
	DisbandedAt   *time.Time `json:"disbandedAt,omitempty" bson:"disbandedAt,omitempty"`
}

// PlayerState is the per-player part of the game document.
type PlayerState struct {
	DisplayName         string          `json:"displayName" bson:"displayName"`
	AssignedMazeOwnerID string          `json:"assignedMazeOwnerId" bson:"assignedMazeOwnerId"`
	Position            maze.Position   `json:"position" bson:"position"`
	Score               int             `json:"score" bson:"score"`
	RevealedCells       map[string]bool `json:"revealedCells" bson:"revealedCells"`
	RevealedWalls       []maze.Wall     `json:"revealedWalls" bson:"revealedWalls"`
	GoalTime            *time.Time      `json:"goalTime" bson:"goalTime"`
	InBattleWith        string          `json:"inBattleWith" bson:"inBattleWith"`
	BattleBet           *int            `json:"battleBet" bson:"battleBet"`
	SkipNextTurn        bool            `json:"skipNextTurn" bson:"skipNextTurn"`
	Rank                int             `json:"rank" bson:"rank"` // 0 until finalization

	Extra *ExtraPlayerState `json:"extra,omitempty" bson:"extra,omitempty"`
}

// Goaled reports whether the player has reached their goal.
func (p *PlayerState) Goaled() bool {
	return p.GoalTime != nil
}

// revealWall records a discovered wall once per {type,r,c}.
func (p *PlayerState) revealWall(w maze.Wall) bool {
	for _, known := range p.RevealedWalls {
		if known.Key() == w.Key() {
			return false
		}
	}
	p.RevealedWalls = append(p.RevealedWalls, w)
	return true
}

// revealCell marks a cell visited and reports whether it was new.
func (p *PlayerState) revealCell(pos maze.Position) bool {
	if p.RevealedCells == nil {
		p.RevealedCells = make(map[string]bool)
	}
	if p.RevealedCells[pos.Key()] {
		return false
	}
	p.RevealedCells[pos.Key()] = true
	return true
}

// newPlayerState returns the starting state of a player solving m.
func newPlayerState(displayName, mazeOwnerID string, m *maze.Maze) *PlayerState {
	return &PlayerState{
		DisplayName:         displayName,
		AssignedMazeOwnerID: mazeOwnerID,
		Position:            m.Start,
		RevealedCells:       make(map[string]bool),
		RevealedWalls:       make([]maze.Wall, 0),
	}
}

// Player returns the state of a player in the game.
func (g *GameState) Player(playerID string) (*PlayerState, error) {
	ps, ok := g.PlayerStates[playerID]
	if !ok || ps == nil {
		return nil, ErrPlayerNotInGame
	}
	return ps, nil
}

// AssignedMaze returns the maze the player has to solve.
func (g *GameState) AssignedMaze(playerID string) (*maze.Maze, error) {
	ps, err := g.Player(playerID)
	if err != nil {
		return nil, err
	}
	m, ok := g.Mazes[ps.AssignedMazeOwnerID]
	if !ok || m == nil {
		return nil, ErrMazeNotAssigned
	}
	return m, nil
}

// HasPlayer reports whether the player is seated in the game.
func (g *GameState) HasPlayer(playerID string) bool {
	return slices.Contains(g.Players, playerID)
}

// DisplayName returns the name shown for a player in notices.
func (g *GameState) DisplayName(playerID string) string {
	if name := g.PlayerNames[playerID]; name != "" {
		return name
	}
	if len(playerID) > 8 {
		return playerID[:8] + "..."
	}
	return playerID
}

// goaledCount counts players with a goal time.
func (g *GameState) goaledCount() int {
	count := 0
	for _, pid := range g.Players {
		if ps := g.PlayerStates[pid]; ps != nil && ps.Goaled() {
			count++
		}
	}
	return count
}

// IsExtra reports whether the game uses the extra rules.
func (g *GameState) IsExtra() bool {
	return g.Type == TypeExtra
}

// discoveryBonus is the score for stepping on an unrevealed cell.
func (g *GameState) discoveryBonus() int {
	if g.IsExtra() {
		return extraDiscoveryBonus
	}
	return standardDiscoveryBonus
}

// ensurePlaying rejects mutations outside of the playing stage.
func (g *GameState) ensurePlaying() error {
	switch g.Status {
	case StatusPlaying:
		return nil
	case StatusDisbanded:
		return ErrGameDisbanded
	case StatusFinished:
		return ErrGameFinished
	default:
		return ErrGameNotStarted
	}
}

// Clone returns a deep copy of the document.
func (g *GameState) Clone() *GameState {
	if g == nil {
		return nil
	}
	c := *g
	c.Players = slices.Clone(g.Players)
	if g.PlayerNames != nil {
		c.PlayerNames = make(map[string]string, len(g.PlayerNames))
		for id, name := range g.PlayerNames {
			c.PlayerNames[id] = name
		}
	}

	if g.Mazes != nil {
		c.Mazes = make(map[string]*maze.Maze, len(g.Mazes))
		for id, m := range g.Mazes {
			c.Mazes[id] = m.Clone()
		}
	}

	if g.PlayerStates != nil {
		c.PlayerStates = make(map[string]*PlayerState, len(g.PlayerStates))
		for id, ps := range g.PlayerStates {
			c.PlayerStates[id] = ps.clone()
		}
	}

	if g.ActiveBattle != nil {
		b := *g.ActiveBattle
		c.ActiveBattle = &b
	}
	c.FinishedAt = cloneTime(g.FinishedAt)
	c.DisbandedAt = cloneTime(g.DisbandedAt)
	c.Extra = g.Extra.clone()
	return &c
}

func (p *PlayerState) clone() *PlayerState {
	if p == nil {
		return nil
	}
	c := *p
	if p.RevealedCells != nil {
		c.RevealedCells = make(map[string]bool, len(p.RevealedCells))
		for k, v := range p.RevealedCells {
			c.RevealedCells[k] = v
		}
	}
	c.RevealedWalls = slices.Clone(p.RevealedWalls)
	c.GoalTime = cloneTime(p.GoalTime)
	if p.BattleBet != nil {
		bet := *p.BattleBet
		c.BattleBet = &bet
	}
	c.Extra = p.Extra.clone()
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
