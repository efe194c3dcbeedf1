package maze

import (
	"math/rand"
)

// cellWalls tracks the closed sides of a cell while a perfect maze is carved.
type cellWalls struct {
	south bool
	east  bool
}

// step is a move between two adjacent cells during the random walk.
type step struct {
	from Position
	to   Position
	dir  Direction
}

// generator carves a perfect maze with Wilson's algorithm.
type generator struct {
	size int
	grid [][]cellWalls
	rng  *rand.Rand
}

// Generate builds a solvable maze of the given size holding at most wallCount
// walls. The walls are a random subset of a perfect maze generated with
// Wilson's algorithm, so every cell stays reachable from every other cell.
// A nil rng falls back to a time-seeded source.
func Generate(size, wallCount int, rng *rand.Rand) (*Maze, error) {
	m, err := New(size)
	if err != nil {
		return nil, err
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}

	g := newGenerator(size, rng)
	g.carve()

	walls := g.walls()
	rng.Shuffle(len(walls), func(i, j int) { walls[i], walls[j] = walls[j], walls[i] })
	if wallCount >= 0 && wallCount < len(walls) {
		walls = walls[:wallCount]
	}
	m.Walls = walls

	return m, nil
}

func newGenerator(size int, rng *rand.Rand) *generator {
	grid := make([][]cellWalls, size)
	for r := range grid {
		grid[r] = make([]cellWalls, size)
		for c := range grid[r] {
			grid[r][c] = cellWalls{south: true, east: true}
		}
	}
	return &generator{size: size, grid: grid, rng: rng}
}

// randomCellPosition generates a random position within the maze.
func (g *generator) randomCellPosition() Position {
	return Position{R: g.rng.Intn(g.size), C: g.rng.Intn(g.size)}
}

// randomUnvisitedCellPosition selects a random position that has not been visited.
func (g *generator) randomUnvisitedCellPosition(visited map[Position]struct{}) Position {
	for {
		pos := g.randomCellPosition()
		if _, included := visited[pos]; !included {
			return pos
		}
	}
}

// neighbors finds all in-bound steps from a given cell position.
func (g *generator) neighbors(pos Position) []step {
	var result []step
	for _, d := range Directions {
		next, _ := pos.Step(d)
		if InBounds(next, g.size) {
			result = append(result, step{from: pos, to: next, dir: d})
		}
	}
	return result
}

// openWall removes the wall crossed by the step.
func (g *generator) openWall(s step) {
	switch s.dir {
	case Up:
		g.grid[s.to.R][s.to.C].south = false
	case Down:
		g.grid[s.from.R][s.from.C].south = false
	case Left:
		g.grid[s.to.R][s.to.C].east = false
	case Right:
		g.grid[s.from.R][s.from.C].east = false
	}
}

// randomWalk performs a loop-erased random walk from an unvisited cell until
// it hits the visited tree. Later exits from a cell overwrite earlier ones,
// which erases loops.
func (g *generator) randomWalk(visited map[Position]struct{}) (Position, map[Position]step) {
	start := g.randomUnvisitedCellPosition(visited)
	exits := make(map[Position]step)
	cell := start

	for {
		neighbors := g.neighbors(cell)
		next := neighbors[g.rng.Intn(len(neighbors))]
		exits[cell] = next
		if _, included := visited[next.to]; included {
			break
		}
		cell = next.to
	}

	return start, exits
}

// carve runs Wilson's algorithm over the whole grid.
func (g *generator) carve() {
	visited := make(map[Position]struct{})
	visited[g.randomCellPosition()] = struct{}{}

	for len(visited) < g.size*g.size {
		start, exits := g.randomWalk(visited)

		// Follow the loop-erased path from the start into the tree.
		cell := start
		for {
			if _, included := visited[cell]; included {
				break
			}
			s := exits[cell]
			g.openWall(s)
			visited[cell] = struct{}{}
			cell = s.to
		}
	}
}

// walls converts the remaining inner cell sides into wall-set form.
func (g *generator) walls() []Wall {
	var result []Wall
	for r := 0; r < g.size; r++ {
		for c := 0; c < g.size; c++ {
			if r < g.size-1 && g.grid[r][c].south {
				result = append(result, Wall{Type: Horizontal, R: r, C: c, Active: true})
			}
			if c < g.size-1 && g.grid[r][c].east {
				result = append(result, Wall{Type: Vertical, R: r, C: c, Active: true})
			}
		}
	}
	return result
}
