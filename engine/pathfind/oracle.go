package pathfind

import (
	"github.com/1siamBot/rts-simcore/engine/core"
	"github.com/1siamBot/rts-simcore/engine/maplib"
	"github.com/1siamBot/rts-simcore/engine/unit"
)

// DefaultSearchNodes bounds Reachable searches
const DefaultSearchNodes = 4096

// Oracle answers placement and reachability questions against the map.
// A negative answer means "no valid placement", never an error.
type Oracle struct {
	Map      *maplib.Map
	MaxNodes int
}

func NewOracle(m *maplib.Map) *Oracle {
	return &Oracle{Map: m, MaxNodes: DefaultSearchNodes}
}

// CanUnitBeAt reports whether every footprint tile of t at pos exists and
// carries none of t's blocking flags.
func (o *Oracle) CanUnitBeAt(t *unit.Type, pos core.TilePos, layer int) bool {
	w, h := t.TileSize()
	for y := pos.Y; y < pos.Y+h; y++ {
		for x := pos.X; x < pos.X+w; x++ {
			tile := o.Map.Tile(core.TilePos{X: x, Y: y}, layer)
			if tile == nil || tile.Field()&t.MovementMask != 0 {
				return false
			}
		}
	}
	return true
}

// FindNearestValidPosition searches square rings around start, nearest
// first, for a position where t fits.
func (o *Oracle) FindNearestValidPosition(t *unit.Type, start core.TilePos, layer, maxRange int) (core.TilePos, bool) {
	for r := 0; r <= maxRange; r++ {
		for _, p := range ring(start, r) {
			if o.CanUnitBeAt(t, p, layer) {
				return p, true
			}
		}
	}
	return core.TilePos{}, false
}

// Reachable reports whether a unit of type t can walk from one tile to
// another. Flyers only need a valid destination.
func (o *Oracle) Reachable(t *unit.Type, from, to core.TilePos, layer int) bool {
	if !o.CanUnitBeAt(t, to, layer) {
		return false
	}
	if t.Kind == unit.KindFly {
		return true
	}
	return o.Path(t, from, to, layer) != nil
}

// Path returns a smoothed A* path for t, nil when there is none
func (o *Oracle) Path(t *unit.Type, from, to core.TilePos, layer int) []core.TilePos {
	ng := NewNavGrid(o.Map, layer, t.MovementMask)
	path := FindPath(ng, from, to, o.MaxNodes)
	if path == nil {
		return nil
	}
	return SmoothPath(ng, path)
}

// ring lists the tiles at Chebyshev distance r from c, clockwise from the
// top-left corner.
func ring(c core.TilePos, r int) []core.TilePos {
	if r == 0 {
		return []core.TilePos{c}
	}
	out := make([]core.TilePos, 0, 8*r)
	for x := c.X - r; x <= c.X+r; x++ {
		out = append(out, core.TilePos{X: x, Y: c.Y - r})
	}
	for y := c.Y - r + 1; y <= c.Y+r; y++ {
		out = append(out, core.TilePos{X: c.X + r, Y: y})
	}
	for x := c.X + r - 1; x >= c.X-r; x-- {
		out = append(out, core.TilePos{X: x, Y: c.Y + r})
	}
	for y := c.Y + r - 1; y > c.Y-r; y-- {
		out = append(out, core.TilePos{X: c.X - r, Y: y})
	}
	return out
}
