package systems

import (
	"github.com/1siamBot/rts-simcore/engine/core"
	"github.com/1siamBot/rts-simcore/engine/maplib"
	"github.com/1siamBot/rts-simcore/engine/unit"
)

// projectsFlags reports whether u should block the tiles it stands on
func projectsFlags(u *unit.Unit) bool {
	return !u.Type.Vanishes && u.CurrentAction() != unit.ActionDie
}

// MarkFieldFlags sets the field flags of u's type on its footprint
func (s *Sim) MarkFieldFlags(u *unit.Unit) {
	if !projectsFlags(u) || u.Type.FieldFlags == 0 {
		return
	}
	apply := func() {
		w, h := u.Type.TileSize()
		s.Map.Footprint(u.TilePos, w, h, u.MapLayer, func(_ core.TilePos, t *maplib.Tile) {
			t.UnitFlags |= u.Type.FieldFlags
		})
	}
	if u.Type.FieldFlags&maplib.FieldOpaque != 0 {
		s.RefreshSight(apply)
		return
	}
	apply()
}

// UnmarkFieldFlags clears the field flags of u's type from its footprint
// and puts back those of every other unit still standing there.
func (s *Sim) UnmarkFieldFlags(u *unit.Unit) {
	if u.Type.Vanishes || u.Type.FieldFlags == 0 {
		return
	}
	apply := func() {
		w, h := u.Type.TileSize()
		s.Map.Footprint(u.TilePos, w, h, u.MapLayer, func(pos core.TilePos, t *maplib.Tile) {
			t.UnitFlags &^= u.Type.FieldFlags
			for _, slot := range s.Map.UnitsAt(pos, u.MapLayer) {
				o := s.Pool.Get(slot)
				if o == nil || o == u || !projectsFlags(o) {
					continue
				}
				t.UnitFlags |= o.Type.FieldFlags
			}
		})
	}
	if u.Type.FieldFlags&maplib.FieldOpaque != 0 {
		s.RefreshSight(apply)
		return
	}
	apply()
}

// SetTerrain repaints a rectangle of one layer. Sight is refreshed since
// terrain may change what blocks it.
func (s *Sim) SetTerrain(layer, x1, y1, x2, y2 int, terrain maplib.TerrainType) {
	l := s.Map.Layer(layer)
	if l == nil {
		return
	}
	s.RefreshSight(func() {
		l.SetTerrain(x1, y1, x2, y2, terrain)
	})
}
