package systems

import (
	"github.com/rs/zerolog/log"

	"github.com/1siamBot/rts-simcore/engine/core"
	"github.com/1siamBot/rts-simcore/engine/unit"
)

// DeathSystem plays out death animations and corpse decay, then releases
// the unit.
type DeathSystem struct {
	Sim *Sim
}

func (ds *DeathSystem) Priority() int { return 50 }

func (ds *DeathSystem) Update(w *core.World, dt float64) {
	s := ds.Sim
	for _, u := range s.Pool.Units() {
		if u.Destroyed || u.Removed || u.CurrentAction() != unit.ActionDie {
			continue
		}
		u.DeathTicks--
		if u.DeathTicks > 0 {
			continue
		}
		s.RemoveUnit(u, nil)
		u.Release()
		log.Debug().Int("slot", u.Slot).Msg("corpse gone")
	}
}

// VeterancySystem promotes units whose experience was raised outside of
// combat, by upgrades or stat edits.
type VeterancySystem struct {
	Sim *Sim
}

func (vs *VeterancySystem) Priority() int { return 55 }

func (vs *VeterancySystem) Update(w *core.World, dt float64) {
	for _, u := range vs.Sim.inPlay() {
		vs.Sim.promote(u)
	}
}

// promote raises u one level for every XPRequired points of experience.
// Each level doubles the next requirement and adds a tenth to max HP.
func (s *Sim) promote(u *unit.Unit) {
	if u.Type.Building || u.Destroyed {
		return
	}
	for {
		req := u.Stats.Get(unit.XPRequired)
		if req <= 0 || u.Stats.Get(unit.XP) < req {
			return
		}
		u.Stats.Add(unit.XP, -req, false)
		u.Stats.Add(unit.Level, 1, true)
		u.Stats.SetMax(unit.XPRequired, req*2)
		u.Stats.Set(unit.XPRequired, req*2)
		if bonus := u.Stats.Max(unit.HP) / 10; bonus > 0 {
			u.Stats.SetMax(unit.HP, u.Stats.Max(unit.HP)+bonus)
			u.Stats.Add(unit.HP, bonus, false)
		}
		s.emit(core.EvtLevelUp, core.UnitPayload{Slot: u.Slot, Type: u.Type.Ident})
		s.unitEffect(EffectNotify, u, u.Stats.Get(unit.Level), "level up")
		log.Debug().Int("slot", u.Slot).Int("level", u.Stats.Get(unit.Level)).Msg("unit promoted")
	}
}

// DefeatSystem marks players who had units once and have none left
type DefeatSystem struct {
	Sim *Sim
}

func (ds *DefeatSystem) Priority() int { return 100 }

func (ds *DefeatSystem) Update(w *core.World, dt float64) {
	s := ds.Sim
	for _, p := range s.Players.Players {
		if p.Defeated || p.IsNeutral() {
			continue
		}
		if p.TotalUnits+p.TotalBuildings == 0 || p.UnitCount() > 0 {
			continue
		}
		p.Defeated = true
		s.emit(core.EvtPlayerDefeated, core.AlertPayload{Player: p.Index, Slot: -1, Text: p.Name})
		log.Info().Int("player", p.Index).Str("name", p.Name).Msg("player defeated")
	}
}
