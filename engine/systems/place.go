package systems

import (
	"github.com/rs/zerolog/log"

	"github.com/1siamBot/rts-simcore/engine/core"
	"github.com/1siamBot/rts-simcore/engine/unit"
)

// MakeUnit allocates a unit of type t off the map. With a player it is
// assigned and gets the upgrades that player researched.
func (s *Sim) MakeUnit(t *unit.Type, p *core.Player) *unit.Unit {
	u := s.Pool.Alloc(t)
	if p != nil {
		s.applyPlayerUpgrades(u, p, nil)
		unit.UpdateSightRange(u)
		s.AssignToPlayer(u, p)
	}
	s.emit(core.EvtUnitCreated, core.UnitPayload{Slot: u.Slot, Type: t.Ident})
	return u
}

// MakeUnitAndPlace creates a unit and puts it on the map at pos
func (s *Sim) MakeUnitAndPlace(pos core.TilePos, t *unit.Type, p *core.Player, layer int) *unit.Unit {
	u := s.MakeUnit(t, p)
	s.PlaceUnit(u, pos, layer)
	return u
}

// RestoreUnit recreates a saved unit at its old slot. setup runs before
// the owner takes the unit into account, so saved stats count toward the
// owner's aggregates. The unit is left off the map.
func (s *Sim) RestoreUnit(slot int, t *unit.Type, p *core.Player, setup func(*unit.Unit)) *unit.Unit {
	u := s.Pool.Restore(slot, t)
	if setup != nil {
		setup(u)
	}
	unit.UpdateSightRange(u)
	if p != nil {
		s.AssignToPlayer(u, p)
	}
	return u
}

// PlaceUnit puts a removed unit on the map, leaving its container if it
// has one.
func (s *Sim) PlaceUnit(u *unit.Unit, pos core.TilePos, layer int) {
	if !u.Removed {
		unit.Invariant(u, "placing a unit that is on the map")
	}
	if u.Container != nil {
		s.UnmarkUnitSight(u)
		unit.RemoveFromContainer(u)
	}
	unit.UpdateSightRange(u)
	u.Removed = false
	u.TilePos = pos
	u.MapLayer = layer
	u.Offset = core.PixelPos{}
	s.unregisterGhost(u)

	// flags go down before u enters the tile cache: an opaque type
	// refreshes every sight mark and u has no counters yet
	s.MarkFieldFlags(u)
	w, h := u.Type.TileSize()
	s.Map.CacheInsert(u.Slot, pos, w, h, layer)
	s.MarkUnitSight(u)
	s.CountSeen(u)
}

// RemoveUnit takes u off the map. With a host, u goes inside it and keeps
// marking sight from there.
func (s *Sim) RemoveUnit(u *unit.Unit, host *unit.Unit) {
	if u.Removed {
		if host != nil && u.Container == nil {
			s.putInside(u, host)
		}
		return
	}
	s.UnmarkUnitSight(u)
	s.UnmarkFieldFlags(u)
	if host != nil {
		s.putInside(u, host)
	}
	u.Removed = true

	w, h := u.Type.TileSize()
	s.Map.CacheRemove(u.Slot, u.TilePos, w, h, u.MapLayer)
	s.CountSeen(u)
	s.registerGhost(u)
}

func (s *Sim) putInside(u, host *unit.Unit) {
	unit.AddInContainer(u, host)
	unit.UpdateSightRange(u)
	s.MarkUnitSight(u)
}

// PutInContainer boards u into host, from the map or from nowhere
func (s *Sim) PutInContainer(u, host *unit.Unit) {
	s.RemoveUnit(u, host)
}

// MoveUnitTo moves an on-map unit to another tile of the same layer
func (s *Sim) MoveUnitTo(u *unit.Unit, pos core.TilePos) {
	if u.Removed {
		unit.Invariant(u, "moving a unit that is off the map")
	}
	w, h := u.Type.TileSize()
	s.UnmarkUnitSight(u)
	s.UnmarkFieldFlags(u)
	s.Map.CacheRemove(u.Slot, u.TilePos, w, h, u.MapLayer)

	u.TilePos = pos

	s.MarkFieldFlags(u)
	s.Map.CacheInsert(u.Slot, pos, w, h, u.MapLayer)
	s.MarkUnitSight(u)
	s.CountSeen(u)
}

// DropOut puts a contained unit on the map next to its outermost
// container. It reports false when there is no room.
func (s *Sim) DropOut(u *unit.Unit) bool {
	if u.Container == nil {
		return false
	}
	top := unit.FirstContainer(u)
	w, h := top.Type.TileSize()
	pos, ok := s.Oracle.FindNearestValidPosition(u.Type, top.TilePos, top.MapLayer, max(w, h)+s.Rules.DropRange)
	if !ok {
		log.Debug().Int("slot", u.Slot).Int("host", top.Slot).Msg("no room to drop out")
		return false
	}
	s.PlaceUnit(u, pos, top.MapLayer)
	return true
}

// DropOutAll unloads every unit inside host and returns those that found
// no room.
func (s *Sim) DropOutAll(host *unit.Unit) []*unit.Unit {
	var stuck []*unit.Unit
	for _, in := range append([]*unit.Unit(nil), host.Inside...) {
		if !s.DropOut(in) {
			stuck = append(stuck, in)
		}
	}
	return stuck
}
