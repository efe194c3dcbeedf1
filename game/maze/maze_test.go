package maze

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hWall(r, c int) Wall { return Wall{Type: Horizontal, R: r, C: c, Active: true} }
func vWall(r, c int) Wall { return Wall{Type: Vertical, R: r, C: c, Active: true} }

func TestIsBlocked(t *testing.T) {
	m, err := New(6)
	require.NoError(t, err)
	m.Walls = []Wall{hWall(1, 2), vWall(2, 2), {Type: Vertical, R: 4, C: 4, Active: false}}

	tests := []struct {
		name    string
		from    Position
		dir     Direction
		blocked bool
		wall    *Wall
	}{
		{"up uses the wall above keyed to the upper cell", Position{2, 2}, Up, true, &Wall{Type: Horizontal, R: 1, C: 2, Active: true}},
		{"down uses the wall keyed to the current cell", Position{1, 2}, Down, true, &Wall{Type: Horizontal, R: 1, C: 2, Active: true}},
		{"down from the row below is free", Position{2, 2}, Down, false, nil},
		{"right uses the wall keyed to the current cell", Position{2, 2}, Right, true, &Wall{Type: Vertical, R: 2, C: 2, Active: true}},
		{"left uses the wall keyed to the left cell", Position{2, 3}, Left, true, &Wall{Type: Vertical, R: 2, C: 2, Active: true}},
		{"left from the wall's own cell is free", Position{2, 2}, Left, false, nil},
		{"inactive walls do not block", Position{4, 4}, Right, false, nil},
		{"unknown direction never blocks", Position{2, 2}, Direction("north"), false, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blocked, wall := m.IsBlocked(tt.from, tt.dir)
			assert.Equal(t, tt.blocked, blocked)
			assert.Equal(t, tt.wall, wall)
		})
	}
}

func TestInBounds(t *testing.T) {
	assert.True(t, InBounds(Position{0, 0}, 6))
	assert.True(t, InBounds(Position{5, 5}, 6))
	assert.False(t, InBounds(Position{-1, 0}, 6))
	assert.False(t, InBounds(Position{0, 6}, 6))
}

func TestIsPathPossible(t *testing.T) {
	m, _ := New(3)
	assert.True(t, m.IsPathPossible())

	// Seal the goal corner off.
	m.Walls = []Wall{hWall(1, 2), vWall(2, 1)}
	assert.False(t, m.IsPathPossible())

	// Open one side again.
	m.Walls[0].Active = false
	assert.True(t, m.IsPathPossible())
}

func TestValidate(t *testing.T) {
	t.Run("accepts a solvable maze", func(t *testing.T) {
		m, _ := New(6)
		m.Walls = []Wall{hWall(0, 0), vWall(1, 1)}
		assert.NoError(t, m.Validate(6))
	})

	t.Run("rejects a size mismatch", func(t *testing.T) {
		m, _ := New(5)
		assert.ErrorIs(t, m.Validate(6), ErrGridSizeMismatch)
	})

	t.Run("rejects border walls", func(t *testing.T) {
		m, _ := New(6)
		m.Walls = []Wall{hWall(5, 0)}
		assert.ErrorIs(t, m.Validate(6), ErrInvalidWall)
	})

	t.Run("rejects duplicates", func(t *testing.T) {
		m, _ := New(6)
		m.Walls = []Wall{vWall(1, 1), vWall(1, 1)}
		assert.ErrorIs(t, m.Validate(6), ErrDuplicateWall)
	})

	t.Run("rejects unsolvable mazes", func(t *testing.T) {
		m, _ := New(6)
		m.Walls = []Wall{hWall(4, 5), vWall(5, 4)}
		assert.ErrorIs(t, m.Validate(6), ErrUnsolvable)
	})

	t.Run("rejects start equal to goal", func(t *testing.T) {
		m, _ := New(6)
		m.Goal = m.Start
		assert.ErrorIs(t, m.Validate(6), ErrStartIsGoal)
	})
}

func TestGenerate(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		m, err := Generate(8, 20, rng)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(m.Walls), 20)
		assert.NoError(t, m.Validate(8))
	}

	// A perfect maze on n×n has (n-1)^2 inner walls left after carving n*n-1 passages.
	m, err := Generate(5, -1, rng)
	require.NoError(t, err)
	assert.Len(t, m.Walls, 16)
	assert.True(t, m.IsPathPossible())

	_, err = Generate(1, 0, rng)
	assert.ErrorIs(t, err, ErrInvalidGridSize)
}

func TestCloneIsDeep(t *testing.T) {
	m, _ := New(4)
	m.Walls = []Wall{hWall(0, 0)}
	c := m.Clone()
	c.Walls[0].Active = false
	assert.True(t, m.Walls[0].Active)
}
