/*
Package maze provides the wall-set maze model used by the labyrinth game.

A maze is an n×n grid with a start cell, a goal cell and a set of walls. A wall
sits on the edge between two adjacent cells and is addressed by the cell on its
upper (horizontal walls) or left (vertical walls) side:

  - a horizontal wall at {r, c} separates (r, c) from (r+1, c)
  - a vertical wall at {r, c} separates (r, c) from (r, c+1)

The package includes bound and wall checks, a reachability check used to reject
unsolvable mazes, random generation with Wilson's algorithm and ASCII rendering.
*/
package maze

import (
	"errors"
	"fmt"
	"strings"
)

const (
	minGridSize = 3
	maxGridSize = 20
)

// Maze-related errors.
var (
	ErrInvalidGridSize  = errors.New("invalid maze grid size")
	ErrGridSizeMismatch = errors.New("maze grid size does not match the game")
	ErrCellOutOfBounds  = errors.New("cell is out of the maze")
	ErrInvalidWall      = errors.New("invalid wall")
	ErrDuplicateWall    = errors.New("duplicate wall")
	ErrStartIsGoal      = errors.New("start and goal must differ")
	ErrUnsolvable       = errors.New("goal is not reachable from start")
	ErrInvalidDirection = errors.New("invalid direction")
)

// Direction is one of the four moves a player can make.
type Direction string

const (
	Up    Direction = "up"
	Down  Direction = "down"
	Left  Direction = "left"
	Right Direction = "right"
)

// Directions lists every valid direction in a stable order.
var Directions = []Direction{Up, Down, Left, Right}

// Delta returns the row and column offset of the direction.
func (d Direction) Delta() (int, int, error) {
	switch d {
	case Up:
		return -1, 0, nil
	case Down:
		return 1, 0, nil
	case Left:
		return 0, -1, nil
	case Right:
		return 0, 1, nil
	default:
		return 0, 0, ErrInvalidDirection
	}
}

// WallType tells which axis a wall blocks.
type WallType string

const (
	Horizontal WallType = "horizontal" // blocks up/down movement
	Vertical   WallType = "vertical"   // blocks left/right movement
)

// Position is a cell coordinate.
type Position struct {
	R int `json:"r" bson:"r"`
	C int `json:"c" bson:"c"`
}

// Key returns the "r-c" key used for revealed cells.
func (p Position) Key() string {
	return fmt.Sprintf("%d-%d", p.R, p.C)
}

// Step returns the neighbouring position in the given direction.
func (p Position) Step(d Direction) (Position, error) {
	dr, dc, err := d.Delta()
	if err != nil {
		return p, err
	}
	return Position{R: p.R + dr, C: p.C + dc}, nil
}

// Wall is an edge between two adjacent cells. Inactive walls are logically absent.
type Wall struct {
	Type   WallType `json:"type" bson:"type"`
	R      int      `json:"r" bson:"r"`
	C      int      `json:"c" bson:"c"`
	Active bool     `json:"active" bson:"active"`
}

// Key identifies a wall by type and coordinate, ignoring Active.
func (w Wall) Key() string {
	return fmt.Sprintf("%s-%d-%d", w.Type, w.R, w.C)
}

// Maze is a square grid with a start, a goal and a set of walls.
type Maze struct {
	GridSize int      `json:"gridSize" bson:"gridSize"`
	Start    Position `json:"start" bson:"start"`
	Goal     Position `json:"goal" bson:"goal"`
	Walls    []Wall   `json:"walls" bson:"walls"`
}

// New returns an empty maze with the start in the top-left and the goal in the
// bottom-right corner.
func New(gridSize int) (*Maze, error) {
	if gridSize < minGridSize || gridSize > maxGridSize {
		return nil, ErrInvalidGridSize
	}
	return &Maze{
		GridSize: gridSize,
		Start:    Position{R: 0, C: 0},
		Goal:     Position{R: gridSize - 1, C: gridSize - 1},
		Walls:    make([]Wall, 0),
	}, nil
}

// InBounds reports whether pos lies inside an n×n grid.
func InBounds(pos Position, gridSize int) bool {
	return pos.R >= 0 && pos.R < gridSize && pos.C >= 0 && pos.C < gridSize
}

// IsBlocked reports whether an active wall blocks moving from `from` in direction d.
// The blocking wall is returned so callers can reveal it.
func (m *Maze) IsBlocked(from Position, d Direction) (bool, *Wall) {
	var want Wall
	switch d {
	case Up:
		want = Wall{Type: Horizontal, R: from.R - 1, C: from.C}
	case Down:
		want = Wall{Type: Horizontal, R: from.R, C: from.C}
	case Left:
		want = Wall{Type: Vertical, R: from.R, C: from.C - 1}
	case Right:
		want = Wall{Type: Vertical, R: from.R, C: from.C}
	default:
		return false, nil
	}

	for idx := range m.Walls {
		w := m.Walls[idx]
		if w.Active && w.Type == want.Type && w.R == want.R && w.C == want.C {
			return true, &w
		}
	}
	return false, nil
}

// Validate checks a player-authored maze before it is accepted into a game.
func (m *Maze) Validate(expectedSize int) error {
	if m.GridSize < minGridSize || m.GridSize > maxGridSize {
		return ErrInvalidGridSize
	}
	if expectedSize > 0 && m.GridSize != expectedSize {
		return ErrGridSizeMismatch
	}
	if !InBounds(m.Start, m.GridSize) || !InBounds(m.Goal, m.GridSize) {
		return ErrCellOutOfBounds
	}
	if m.Start == m.Goal {
		return ErrStartIsGoal
	}

	seen := make(map[string]struct{}, len(m.Walls))
	for _, w := range m.Walls {
		if err := m.validateWall(w); err != nil {
			return err
		}
		if _, dup := seen[w.Key()]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateWall, w.Key())
		}
		seen[w.Key()] = struct{}{}
	}

	if !m.IsPathPossible() {
		return ErrUnsolvable
	}
	return nil
}

// validateWall rejects walls that are off the grid or on the outer border.
func (m *Maze) validateWall(w Wall) error {
	n := m.GridSize
	switch w.Type {
	case Horizontal:
		if w.R < 0 || w.R >= n-1 || w.C < 0 || w.C >= n {
			return fmt.Errorf("%w: %s", ErrInvalidWall, w.Key())
		}
	case Vertical:
		if w.R < 0 || w.R >= n || w.C < 0 || w.C >= n-1 {
			return fmt.Errorf("%w: %s", ErrInvalidWall, w.Key())
		}
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidWall, w.Type)
	}
	return nil
}

// ActiveWallCount returns the number of walls that currently block movement.
func (m *Maze) ActiveWallCount() int {
	count := 0
	for _, w := range m.Walls {
		if w.Active {
			count++
		}
	}
	return count
}

// Clone returns a deep copy of the maze.
func (m *Maze) Clone() *Maze {
	if m == nil {
		return nil
	}
	c := *m
	c.Walls = append(make([]Wall, 0, len(m.Walls)), m.Walls...)
	return &c
}

// String provides a textual representation of the maze.
func (m *Maze) String() string {
	var output strings.Builder

	// Top boundary
	output.WriteString("+" + strings.Repeat("---+", m.GridSize) + "\n")

	for row := 0; row < m.GridSize; row++ {
		cellRow := "|"
		for col := 0; col < m.GridSize; col++ {
			pos := Position{R: row, C: col}
			switch pos {
			case m.Start:
				cellRow += " S "
			case m.Goal:
				cellRow += " G "
			default:
				cellRow += "   "
			}

			if blocked, _ := m.IsBlocked(pos, Right); blocked || col == m.GridSize-1 {
				cellRow += "|"
			} else {
				cellRow += " "
			}
		}
		output.WriteString(cellRow + "\n")

		wallRow := "+"
		for col := 0; col < m.GridSize; col++ {
			if blocked, _ := m.IsBlocked(Position{R: row, C: col}, Down); blocked || row == m.GridSize-1 {
				wallRow += "---+"
			} else {
				wallRow += "   +"
			}
		}
		output.WriteString(wallRow + "\n")
	}

	return output.String()
}
