package systems

import (
	"github.com/rs/zerolog/log"

	"github.com/1siamBot/rts-simcore/engine/core"
	"github.com/1siamBot/rts-simcore/engine/unit"
)

// LetUnitDie kills u with no one to credit
func (s *Sim) LetUnitDie(u *unit.Unit) {
	s.letUnitDie(u, nil, 0)
}

func (s *Sim) letUnitDie(u, killer *unit.Unit, damage int) {
	if u.Destroyed || u.CurrentAction() == unit.ActionDie {
		return
	}
	t := u.Type
	u.Stats.Set(unit.HP, 0)
	u.Moving = false
	u.TTL = 0
	u.Burning = false
	s.releaseWorkers(u)

	if u.Removed {
		if u.Container != nil {
			s.UnmarkUnitSight(u)
			unit.RemoveFromContainer(u)
		}
		s.DestroyAllInside(u)
		s.UnitLost(u)
		u.ClearOrders()
		s.unitDied(u, killer, damage)
		u.Release()
		return
	}

	if t.Explosion != "" {
		if m, ok := s.Types.Missile(t.Explosion); ok {
			s.SpawnMissile(nil, nil, u.PixelCenter(), u.MapLayer, m, m.Damage)
		}
	}
	if t.OnDeath != nil {
		t.OnDeath(u, nil, 0)
	}

	s.releaseTeleportGoal(u)
	for _, sold := range u.Sold {
		s.letUnitDie(sold, nil, 0)
	}
	u.Sold = nil

	if t.Bridge {
		s.sinkBridge(u, killer)
	}

	if t.SaveCargo {
		for _, in := range s.DropOutAll(u) {
			log.Debug().Int("slot", in.Slot).Int("host", u.Slot).Msg("cargo lost, no room to drop out")
			s.emit(core.EvtPlacementFailed, core.AlertPayload{Player: playerIndex(in.Player), Slot: in.Slot, Pos: u.TilePos, Text: "no room to unload"})
			s.destroyContained(in)
		}
	} else {
		s.DestroyAllInside(u)
	}

	s.RemoveUnit(u, nil)
	s.UnitLost(u)
	u.ClearOrders()
	u.ReplaceCurrent(unit.NewOrder(unit.ActionDie))

	s.dropLoot(u)
	s.spawnRuin(u)
	s.unitDied(u, killer, damage)

	if t.Corpse != "" {
		if ct, ok := s.Types.Lookup(t.Corpse); ok {
			u.Type = ct
			for _, id := range []unit.StatID{unit.SightRange, unit.Radar, unit.RadarJammer} {
				u.Stats[id] = ct.Stats[id]
			}
		}
	}
	if t.Corpse != "" || t.DeathAnim > 0 {
		ticks := t.DeathAnim
		if t.Corpse != "" {
			ticks += s.Rules.CorpseDecayTicks
		}
		u.DeathTicks = max(ticks, 1)
		// the corpse stays where later arrivals can see it
		u.Removed = false
		w, h := u.Type.TileSize()
		s.Map.CacheInsert(u.Slot, u.TilePos, w, h, u.MapLayer)
		unit.UpdateSightRange(u)
		s.MarkUnitSight(u)
		s.CountSeen(u)
	} else {
		u.Release()
	}
}

func (s *Sim) unitDied(u, killer *unit.Unit, damage int) {
	s.emit(core.EvtUnitDied, core.DamagePayload{Slot: u.Slot, Attacker: slotOf(killer), Damage: damage})
	log.Debug().Int("slot", u.Slot).Str("type", u.Type.Ident).Int("killer", slotOf(killer)).Msg("unit died")
}

// releaseTeleportGoal takes down the destination of a dying teleporter.
// The teleporter holds a reference on it.
func (s *Sim) releaseTeleportGoal(u *unit.Unit) {
	g := u.Goal
	if g == nil {
		return
	}
	u.Goal = nil
	if !g.Destroyed {
		if !g.Removed {
			s.RemoveUnit(g, nil)
		}
		s.UnitLost(g)
		g.ClearOrders()
		g.Release()
	}
	g.RefsDecrease()
}

// SetTeleportGoal links a teleporter to its destination
func (s *Sim) SetTeleportGoal(u, g *unit.Unit) {
	if g != nil {
		g.RefsIncrease()
	}
	if u.Goal != nil {
		u.Goal.RefsDecrease()
	}
	u.Goal = g
}

// sinkBridge kills the land units standing on a dying bridge
func (s *Sim) sinkBridge(bridge, killer *unit.Unit) {
	w, h := bridge.Type.TileSize()
	for _, slot := range s.Map.UnitsIn(bridge.TilePos, w, h, bridge.MapLayer) {
		o := s.Pool.Get(slot)
		if o == nil || o == bridge || o.Type.Kind != unit.KindLand || o.Type.Building || !o.IsAlive() {
			continue
		}
		s.letUnitDie(o, killer, 0)
	}
}

// DestroyAllInside releases everything host carries, recursively
func (s *Sim) DestroyAllInside(host *unit.Unit) {
	for len(host.Inside) > 0 {
		s.destroyContained(host.Inside[len(host.Inside)-1])
	}
}

func (s *Sim) destroyContained(u *unit.Unit) {
	s.DestroyAllInside(u)
	s.releaseWorkers(u)
	s.UnitLost(u)
	u.ClearOrders()
	s.unmarkSightOne(u)
	unit.RemoveFromContainer(u)
	u.Stats.Set(unit.HP, 0)
	s.unitDied(u, nil, 0)
	u.Release()
}

// dropLoot may leave one of the type's drops next to the dead unit
func (s *Sim) dropLoot(u *unit.Unit) {
	drops := u.Type.Drops
	if len(drops) == 0 {
		return
	}
	chance := s.Rules.LootChance
	if u.Character != "" || u.Type.Building {
		chance = 100
	}
	if s.Rand.Intn(100) >= chance {
		return
	}
	ident := drops[s.Rand.Intn(len(drops))]
	lt, ok := s.Types.Lookup(ident)
	if !ok {
		log.Debug().Str("loot", ident).Msg("unknown loot type")
		return
	}
	pos, ok := s.Oracle.FindNearestValidPosition(lt, u.TilePos, u.MapLayer, s.Rules.DropRange)
	if !ok {
		log.Debug().Str("loot", ident).Int("slot", u.Slot).Msg("no room for loot")
		s.emit(core.EvtPlacementFailed, core.AlertPayload{Player: playerIndex(u.Player), Slot: u.Slot, Pos: u.TilePos, Text: "no room for loot"})
		return
	}
	s.MakeUnitAndPlace(pos, lt, s.Players.Neutral(), u.MapLayer)
}

// spawnRuin puts the type's ruin on the site of a dead unit
func (s *Sim) spawnRuin(u *unit.Unit) {
	ident := u.Type.ReplaceOnDie
	if ident == "" {
		return
	}
	rt, ok := s.Types.Lookup(ident)
	if !ok {
		log.Debug().Str("ruin", ident).Msg("unknown ruin type")
		return
	}
	r := s.MakeUnit(rt, u.Player)
	r.ResourcesHeld = u.ResourcesHeld
	r.Seen.ByPlayer = u.Seen.ByPlayer
	s.PlaceUnit(r, u.TilePos, u.MapLayer)
}
