package systems

import (
	"sort"

	"github.com/1siamBot/rts-simcore/engine/core"
	"github.com/1siamBot/rts-simcore/engine/unit"
)

// Missile is a projectile in flight. It holds references on its source and
// target until it lands.
type Missile struct {
	Type   *unit.MissileType
	Source *unit.Unit // nil for explosions
	Target *unit.Unit // nil for shots at the ground
	Pos    core.PixelPos
	Dest   core.PixelPos
	Layer  int
	Damage int
}

// FireMissile launches a missile of type m from u at g
func (s *Sim) FireMissile(u, g *unit.Unit, m *unit.MissileType) *Missile {
	top := unit.FirstContainer(u)
	return s.SpawnMissile(u, g, u.PixelCenter(), top.MapLayer, m, s.ComputeDamage(u, g))
}

// SpawnMissile puts a missile in flight from a point. Without a target it
// lands where it starts.
func (s *Sim) SpawnMissile(source, target *unit.Unit, from core.PixelPos, layer int, m *unit.MissileType, damage int) *Missile {
	ms := &Missile{
		Type:   m,
		Pos:    from,
		Dest:   from,
		Layer:  layer,
		Damage: damage,
	}
	if source != nil && !source.Destroyed {
		source.RefsIncrease()
		ms.Source = source
	}
	if target != nil && !target.Destroyed {
		target.RefsIncrease()
		ms.Target = target
		ms.Dest = target.PixelCenter()
	}
	s.missiles = append(s.missiles, ms)
	return ms
}

// Missiles returns the missiles in flight
func (s *Sim) Missiles() []*Missile {
	return s.missiles
}

func (ms *Missile) release() {
	if ms.Source != nil {
		ms.Source.RefsDecrease()
		ms.Source = nil
	}
	if ms.Target != nil {
		ms.Target.RefsDecrease()
		ms.Target = nil
	}
}

// MissileSystem moves missiles and resolves their impact through Hit
type MissileSystem struct {
	Sim *Sim
}

func (mss *MissileSystem) Priority() int { return 25 }

func (mss *MissileSystem) Update(w *core.World, dt float64) {
	s := mss.Sim
	flying := s.missiles
	s.missiles = nil
	for _, m := range flying {
		if t := m.Target; t != nil && !t.Destroyed && !t.Removed {
			m.Dest = t.PixelCenter()
		}
		dx, dy := m.Dest.X-m.Pos.X, m.Dest.Y-m.Pos.Y
		dist := core.Isqrt(dx*dx + dy*dy)
		if dist <= m.Type.Speed {
			m.Pos = m.Dest
			s.impact(m)
			m.release()
			continue
		}
		m.Pos.X += dx * m.Type.Speed / dist
		m.Pos.Y += dy * m.Type.Speed / dist
		// impacts may have launched new missiles meanwhile
		s.missiles = append(s.missiles, m)
	}
}

func (s *Sim) impact(m *Missile) {
	source := m.Source
	if source != nil && source.Destroyed {
		source = nil
	}
	s.effect(Effect{Kind: EffectExplosion, Slot: -1, Player: -1, Pos: m.Pos, Value: m.Damage, Name: m.Type.Ident})

	r := m.Type.Range
	if r <= 0 {
		if t := m.Target; t != nil && !t.Destroyed {
			s.Hit(source, t, m.Damage, m.Type)
		}
		return
	}

	center := core.TilePos{X: m.Pos.X / core.PixelTileSize, Y: m.Pos.Y / core.PixelTileSize}
	corner := core.TilePos{X: center.X - r, Y: center.Y - r}
	slots := s.Map.UnitsIn(corner, 2*r+1, 2*r+1, m.Layer)
	sort.Ints(slots)
	for _, slot := range slots {
		o := s.Pool.Get(slot)
		if o == nil || o == source || o.Removed || !o.IsAlive() {
			continue
		}
		d := o.DistanceToPos(center)
		if d > r {
			continue
		}
		// full damage at the center, fading toward the edge
		dmg := max(m.Damage*(r+1-d)/(r+1), 1)
		s.Hit(source, o, dmg, m.Type)
	}
}
