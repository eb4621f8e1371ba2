package pathfind

import (
	"container/heap"
	"math"

	"github.com/1siamBot/rts-simcore/engine/core"
)

// FindPath finds a path from start to goal using A*. The start cell is
// never checked, so a unit may path out of its own tile. maxNodes bounds
// the search; 0 means unbounded.
func FindPath(ng *NavGrid, start, goal core.TilePos, maxNodes int) []core.TilePos {
	if !ng.Passable(goal.X, goal.Y) {
		return nil
	}
	if start == goal {
		return []core.TilePos{start}
	}

	open := &nodeHeap{}
	heap.Init(open)
	heap.Push(open, &node{p: start, g: 0, f: heuristic(start, goal)})

	came := make(map[core.TilePos]core.TilePos)
	gScore := make(map[core.TilePos]float64)
	gScore[start] = 0

	dirs := [8][2]int{
		{1, 0}, {-1, 0}, {0, 1}, {0, -1},
		{1, 1}, {1, -1}, {-1, 1}, {-1, -1},
	}

	expanded := 0
	for open.Len() > 0 {
		cur := heap.Pop(open).(*node)
		if cur.p == goal {
			return reconstructPath(came, goal)
		}
		expanded++
		if maxNodes > 0 && expanded > maxNodes {
			return nil
		}

		for _, d := range dirs {
			nx, ny := cur.p.X+d[0], cur.p.Y+d[1]
			if !ng.Passable(nx, ny) {
				continue
			}
			// Prevent diagonal cutting through walls
			if d[0] != 0 && d[1] != 0 {
				if !ng.Passable(cur.p.X+d[0], cur.p.Y) || !ng.Passable(cur.p.X, cur.p.Y+d[1]) {
					continue
				}
			}
			np := core.TilePos{X: nx, Y: ny}
			moveCost := ng.Cost(nx, ny)
			if d[0] != 0 && d[1] != 0 {
				moveCost *= math.Sqrt2
			}
			tentG := gScore[cur.p] + moveCost
			if old, ok := gScore[np]; ok && tentG >= old {
				continue
			}
			gScore[np] = tentG
			came[np] = cur.p
			heap.Push(open, &node{p: np, g: tentG, f: tentG + heuristic(np, goal)})
		}
	}
	return nil // no path
}

// LineOfSight walks the Bresenham line from a to b and reports whether
// every cell strictly between them satisfies clear.
func LineOfSight(a, b core.TilePos, clear func(x, y int) bool) bool {
	dx := abs(b.X - a.X)
	dy := abs(b.Y - a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}
	err := dx - dy
	x, y := a.X, a.Y
	for {
		if x == b.X && y == b.Y {
			return true
		}
		if (x != a.X || y != a.Y) && !clear(x, y) {
			return false
		}
		e2 := err * 2
		if e2 > -dy {
			err -= dy
			x += sx
		}
		if e2 < dx {
			err += dx
			y += sy
		}
	}
}

// SmoothPath removes unnecessary waypoints using line-of-sight checks
func SmoothPath(ng *NavGrid, path []core.TilePos) []core.TilePos {
	if len(path) <= 2 {
		return path
	}
	smooth := []core.TilePos{path[0]}
	cur := 0
	for cur < len(path)-1 {
		farthest := cur + 1
		for i := len(path) - 1; i > cur+1; i-- {
			if LineOfSight(path[cur], path[i], ng.Passable) {
				farthest = i
				break
			}
		}
		smooth = append(smooth, path[farthest])
		cur = farthest
	}
	return smooth
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func heuristic(a, b core.TilePos) float64 {
	dx := math.Abs(float64(a.X - b.X))
	dy := math.Abs(float64(a.Y - b.Y))
	return dx + dy + (math.Sqrt2-2)*math.Min(dx, dy)
}

func reconstructPath(came map[core.TilePos]core.TilePos, goal core.TilePos) []core.TilePos {
	path := []core.TilePos{goal}
	cur := goal
	for {
		prev, ok := came[cur]
		if !ok {
			break
		}
		path = append(path, prev)
		cur = prev
	}
	// Reverse
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// --- Priority queue ---

type node struct {
	p    core.TilePos
	g, f float64
}

type nodeHeap []*node

func (h nodeHeap) Len() int           { return len(h) }
func (h nodeHeap) Less(i, j int) bool { return h[i].f < h[j].f }
func (h nodeHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *nodeHeap) Push(x interface{}) { *h = append(*h, x.(*node)) }
func (h *nodeHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
