package maplib

import (
	"slices"

	"github.com/1siamBot/rts-simcore/engine/core"
)

// Map is a stack of equally sized layers. A unit lives on exactly one.
type Map struct {
	Width, Height int
	Layers        []*TileMap
	NoFogOfWar    bool
}

// NewMap wraps existing layers; all must share the first layer's size.
func NewMap(layers ...*TileMap) *Map {
	m := &Map{Layers: layers}
	if len(layers) > 0 {
		m.Width, m.Height = layers[0].Width, layers[0].Height
	}
	return m
}

// Layer returns layer i or nil
func (m *Map) Layer(i int) *TileMap {
	if i < 0 || i >= len(m.Layers) {
		return nil
	}
	return m.Layers[i]
}

// Tile returns the tile at p on the given layer, nil when out of bounds
func (m *Map) Tile(p core.TilePos, layer int) *Tile {
	l := m.Layer(layer)
	if l == nil {
		return nil
	}
	return l.At(p.X, p.Y)
}

// InBounds checks if p lies on the map
func (m *Map) InBounds(p core.TilePos) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < m.Width && p.Y < m.Height
}

// Clamp moves p onto the map
func (m *Map) Clamp(p core.TilePos) core.TilePos {
	p.X = min(max(p.X, 0), m.Width-1)
	p.Y = min(max(p.Y, 0), m.Height-1)
	return p
}

// MoveCost returns the movement cost percentage at p, 100 off map
func (m *Map) MoveCost(p core.TilePos, layer int) int {
	t := m.Tile(p, layer)
	if t == nil || t.Cost <= 0 {
		return 100
	}
	return t.Cost
}

// Footprint calls fn for every on-map tile of a w*h rectangle at p.
func (m *Map) Footprint(p core.TilePos, w, h, layer int, fn func(core.TilePos, *Tile)) {
	for y := p.Y; y < p.Y+h; y++ {
		for x := p.X; x < p.X+w; x++ {
			pos := core.TilePos{X: x, Y: y}
			if t := m.Tile(pos, layer); t != nil {
				fn(pos, t)
			}
		}
	}
}

// CacheInsert records a unit slot on every tile of its footprint
func (m *Map) CacheInsert(slot int, p core.TilePos, w, h, layer int) {
	m.Footprint(p, w, h, layer, func(_ core.TilePos, t *Tile) {
		if !slices.Contains(t.units, slot) {
			t.units = append(t.units, slot)
		}
	})
}

// CacheRemove drops a unit slot from every tile of its footprint
func (m *Map) CacheRemove(slot int, p core.TilePos, w, h, layer int) {
	m.Footprint(p, w, h, layer, func(_ core.TilePos, t *Tile) {
		if i := slices.Index(t.units, slot); i >= 0 {
			t.units = slices.Delete(t.units, i, i+1)
		}
	})
}

// UnitsAt returns the unit slots cached on a tile
func (m *Map) UnitsAt(p core.TilePos, layer int) []int {
	t := m.Tile(p, layer)
	if t == nil {
		return nil
	}
	return t.units
}

// UnitsIn returns the distinct slots cached inside a rectangle
func (m *Map) UnitsIn(p core.TilePos, w, h, layer int) []int {
	var out []int
	m.Footprint(p, w, h, layer, func(_ core.TilePos, t *Tile) {
		for _, s := range t.units {
			if !slices.Contains(out, s) {
				out = append(out, s)
			}
		}
	})
	return out
}

// ResetVision zeroes all vision counters, keeping exploration
func (m *Map) ResetVision() {
	for _, l := range m.Layers {
		for i := range l.Tiles {
			l.Tiles[i].Vision.Reset()
		}
	}
}
