package systems

import (
	"github.com/rs/zerolog/log"

	"github.com/1siamBot/rts-simcore/engine/core"
	"github.com/1siamBot/rts-simcore/engine/unit"
)

// OrderSystem keeps order stacks tidy before anything acts on them
type OrderSystem struct {
	Sim *Sim
}

func (ord *OrderSystem) Priority() int { return 5 }

func (ord *OrderSystem) Update(w *core.World, dt float64) {
	s := ord.Sim
	now := s.tick()
	for _, u := range s.inPlay() {
		if !u.IsAlive() {
			continue
		}
		if u.TTL != 0 && now >= u.TTL {
			log.Debug().Int("slot", u.Slot).Msg("time to live expired")
			s.LetUnitDie(u)
			continue
		}
		if u.TakeCriticalOrder() && u.CurrentAction() == unit.ActionUseItem {
			s.useItem(u, u.CurrentOrder())
		}
		u.DropDeadGoals()
		u.Advance()
		if u.Threshold > 0 {
			u.Threshold--
		}
		if u.Blink > 0 {
			u.Blink--
		}
	}
}

// timedStats wear off by one every regeneration cycle
var timedStats = []unit.StatID{unit.Slow, unit.Haste, unit.UnholyArmor}

// RegenSystem applies per-second regeneration and wears off timed effects
type RegenSystem struct {
	Sim *Sim
}

func (rs *RegenSystem) Priority() int { return 40 }

func (rs *RegenSystem) Update(w *core.World, dt float64) {
	s := rs.Sim
	every := uint64(max(int(w.TickRate), 1))
	if w.TickCount%every != 0 {
		return
	}
	for _, u := range s.inPlay() {
		if u.Removed && u.Container == nil {
			continue
		}
		for _, id := range []unit.StatID{unit.HP, unit.Mana, unit.Shield} {
			inc := u.Stats[id].Increase
			if inc == 0 || (id == unit.HP && (u.UnderConstruction || u.Burning)) {
				continue
			}
			u.Stats.Add(id, inc, false)
		}
		for _, id := range timedStats {
			if v := u.Stats.Get(id); v > 0 {
				u.Stats.Set(id, v-1)
			}
		}
	}
}

// BurnSystem damages buildings set on fire until they are repaired past
// the burn threshold.
type BurnSystem struct {
	Sim *Sim
}

func (bs *BurnSystem) Priority() int { return 45 }

func (bs *BurnSystem) Update(w *core.World, dt float64) {
	s := bs.Sim
	if s.Rules.BurnInterval <= 0 || w.TickCount%uint64(s.Rules.BurnInterval) != 0 {
		return
	}
	for _, u := range s.inPlay() {
		if !u.IsAlive() || !u.Burning || u.Removed {
			continue
		}
		if u.Stats.Percent(unit.HP) >= s.Rules.BurnThreshold {
			u.Burning = false
			continue
		}
		dmg := s.Rules.BurnDamage - u.Stats.Get(unit.BurnResistance)
		if dmg <= 0 {
			continue
		}
		s.unitEffect(EffectBurn, u, dmg, "")
		s.Hit(nil, u, dmg, nil)
	}
}

// RevealSystem exposes players who went too long without a town hall
type RevealSystem struct {
	Sim *Sim
}

func (rs *RevealSystem) Priority() int { return 70 }

func (rs *RevealSystem) Update(w *core.World, dt float64) {
	s := rs.Sim
	now := s.tick()
	for _, p := range s.Players.Players {
		if p.RevealAtTick == 0 || p.Revealed || now < p.RevealAtTick {
			continue
		}
		p.RevealAtTick = 0
		if p.NumTownHalls > 0 {
			continue
		}
		p.Revealed = true
		s.emit(core.EvtPlayerRevealed, core.AlertPayload{Player: p.Index, Slot: -1, Text: p.Name})
		log.Info().Int("player", p.Index).Msg("player revealed, no town hall left")
	}
}
