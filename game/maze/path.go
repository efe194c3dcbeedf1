package maze

// IsPathPossible reports whether the goal can be reached from the start
// without crossing an active wall.
func (m *Maze) IsPathPossible() bool {
	if !InBounds(m.Start, m.GridSize) || !InBounds(m.Goal, m.GridSize) {
		return false
	}

	visited := map[Position]struct{}{m.Start: {}}
	queue := []Position{m.Start}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == m.Goal {
			return true
		}

		for _, d := range Directions {
			next, _ := cur.Step(d)
			if !InBounds(next, m.GridSize) {
				continue
			}
			if blocked, _ := m.IsBlocked(cur, d); blocked {
				continue
			}
			if _, seen := visited[next]; seen {
				continue
			}
			visited[next] = struct{}{}
			queue = append(queue, next)
		}
	}

	return false
}
