// Package path computes shortest routes across the warehouse floor with A*.
package path

import (
	"shelfline/internal/domain"
	"shelfline/internal/grid"
)

// Finder runs A* searches over one grid. All per-search state lives in
// index-keyed scratch slices reset per call, so the grid's cells stay
// immutable and consecutive searches cannot alias each other's parents.
type Finder struct {
	grid *grid.Grid
}

// NewFinder returns a Finder for g.
func NewFinder(g *grid.Grid) *Finder {
	return &Finder{grid: g}
}

const noParent = -1

// FindPath returns the waypoints of a shortest route from start to goal for
// a robot with the given carrying state. The route excludes start and
// includes goal. It returns nil when start equals goal (already arrived,
// not a trivial success) or when no route exists.
func (f *Finder) FindPath(start, goal domain.Point, carrying bool) []domain.Point {
	if start == goal {
		return nil
	}
	if !f.grid.InBounds(start) || !f.grid.InBounds(goal) {
		return nil
	}

	size := f.grid.Size()
	gScore := make([]int, size)
	parent := make([]int, size)
	closed := make([]bool, size)
	for i := range parent {
		parent[i] = noParent
	}

	open := newOpenHeap(size)
	startIdx := f.grid.Index(start)
	goalIdx := f.grid.Index(goal)
	open.Push(startIdx, domain.ManhattanDistance(start, goal))

	for open.Len() > 0 {
		cur := open.Pop()
		closed[cur] = true
		if cur == goalIdx {
			break
		}
		p := f.grid.At(cur)
		neighbors := [4]domain.Point{
			{X: p.X - 1, Y: p.Y},
			{X: p.X, Y: p.Y - 1},
			{X: p.X, Y: p.Y + 1},
			{X: p.X + 1, Y: p.Y},
		}
		for _, n := range neighbors {
			if !f.grid.CanMove(n, carrying) {
				continue
			}
			ni := f.grid.Index(n)
			if closed[ni] {
				continue
			}
			tentative := gScore[cur] + 1
			if parent[ni] != noParent && tentative >= gScore[ni] {
				continue
			}
			gScore[ni] = tentative
			parent[ni] = cur
			open.Push(ni, tentative+domain.ManhattanDistance(n, goal))
		}
	}

	if !closed[goalIdx] {
		return nil
	}

	// Walk parents back from the goal, then reverse. The start cell carries
	// no parent and is dropped.
	var rev []int
	for cur := goalIdx; cur != noParent; cur = parent[cur] {
		rev = append(rev, cur)
	}
	route := make([]domain.Point, 0, len(rev)-1)
	for i := len(rev) - 2; i >= 0; i-- {
		route = append(route, f.grid.At(rev[i]))
	}
	return route
}
