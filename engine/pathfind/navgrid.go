package pathfind

import (
	"github.com/1siamBot/rts-simcore/engine/maplib"
)

// NavGrid provides a navigation grid derived from one map layer
type NavGrid struct {
	Width, Height int
	Costs         []float64 // movement cost per cell (0 = impassable)
}

// NewNavGrid builds a grid for units blocked by mask. Tiles carrying
// any masked flag are impassable, others cost their terrain percentage.
func NewNavGrid(m *maplib.Map, layer int, mask maplib.FieldFlag) *NavGrid {
	l := m.Layer(layer)
	ng := &NavGrid{
		Width:  m.Width,
		Height: m.Height,
		Costs:  make([]float64, m.Width*m.Height),
	}
	if l == nil {
		return ng
	}
	for i := range l.Tiles {
		t := &l.Tiles[i]
		if t.Field()&mask != 0 {
			continue
		}
		cost := t.Cost
		if cost <= 0 {
			cost = 100
		}
		ng.Costs[i] = float64(cost) / 100
	}
	return ng
}

// Passable checks if a cell can be entered
func (ng *NavGrid) Passable(x, y int) bool {
	if x < 0 || y < 0 || x >= ng.Width || y >= ng.Height {
		return false
	}
	return ng.Costs[y*ng.Width+x] > 0
}

// Cost returns the movement cost at (x,y)
func (ng *NavGrid) Cost(x, y int) float64 {
	if x < 0 || y < 0 || x >= ng.Width || y >= ng.Height {
		return 0
	}
	return ng.Costs[y*ng.Width+x]
}
