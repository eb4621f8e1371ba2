package systems

import (
	"github.com/rs/zerolog/log"

	"github.com/1siamBot/rts-simcore/engine/core"
	"github.com/1siamBot/rts-simcore/engine/unit"
)

// AssignToPlayer gives u to p and adds its contribution to p's aggregates.
// u must not belong to anyone.
func (s *Sim) AssignToPlayer(u *unit.Unit, p *core.Player) {
	if p.HasUnit(u.Slot) {
		unit.Invariant(u, "unit assigned twice")
	}
	u.Player = p
	p.AddUnit(u.Slot)
	if !u.Type.Vanishes && u.CurrentAction() != unit.ActionDie {
		if u.Type.Building {
			if !u.Type.Wall {
				p.TotalBuildings++
			}
		} else {
			p.TotalUnits++
		}
	}
	s.unitGained(u, p)
}

func (s *Sim) unitGained(u *unit.Unit, p *core.Player) {
	t := u.Type
	p.UnitTypesCount[t.Ident]++
	if p.AIEnabled {
		p.UnitTypesAIActiveCount[t.Ident]++
	}
	if t.Building {
		if !t.Wall {
			p.NumBuildings++
		}
		if u.UnderConstruction {
			p.NumBuildingsUnderConstruction++
		}
	}
	p.Demand += u.Stats.Get(unit.Demand)
	if u.UnderConstruction {
		return
	}
	s.addCompleted(u, p)
}

// addCompleted adds what only finished units give their owner
func (s *Sim) addCompleted(u *unit.Unit, p *core.Player) {
	t := u.Type
	p.Supply += u.Stats.Get(unit.Supply)
	for r := range p.MaxResources {
		if t.Storing[r] != 0 && p.MaxResources[r] != core.Unlimited {
			p.MaxResources[r] += t.Storing[r]
		}
		if t.ImproveIncome[r] > p.Incomes[r] {
			p.Incomes[r] = t.ImproveIncome[r]
		}
	}
	if u.Stats[unit.TradeCost].Enable {
		if tc := u.Stats.Get(unit.TradeCost); p.TradeCost == 0 || tc < p.TradeCost {
			p.TradeCost = tc
		}
	}
	if t.TownHall {
		p.NumTownHalls++
		p.RevealAtTick = 0
	}
}

// UnitLost takes u out of its owner's aggregates. u keeps its Player
// pointer; callers reassign or release it.
func (s *Sim) UnitLost(u *unit.Unit) {
	p := u.Player
	if p == nil {
		return
	}
	t := u.Type
	p.RemoveUnit(u.Slot)

	if t.Building {
		if !t.Wall {
			p.NumBuildings--
		}
		if u.UnderConstruction {
			p.NumBuildingsUnderConstruction--
		}
	}
	if p.UnitTypesCount[t.Ident]--; p.UnitTypesCount[t.Ident] <= 0 {
		delete(p.UnitTypesCount, t.Ident)
	}
	if p.AIEnabled {
		if p.UnitTypesAIActiveCount[t.Ident]--; p.UnitTypesAIActiveCount[t.Ident] <= 0 {
			delete(p.UnitTypesAIActiveCount, t.Ident)
		}
	}
	p.Demand -= u.Stats.Get(unit.Demand)

	if !u.UnderConstruction {
		p.Supply -= u.Stats.Get(unit.Supply)
		for r := range p.MaxResources {
			if t.Storing[r] != 0 && p.MaxResources[r] != core.Unlimited {
				p.MaxResources[r] = max(p.MaxResources[r]-t.Storing[r], 0)
				p.Resources[r] = min(p.Resources[r], p.MaxResources[r])
			}
			if t.ImproveIncome[r] != 0 && t.ImproveIncome[r] == p.Incomes[r] {
				p.Incomes[r] = s.bestIncome(p, core.Resource(r))
			}
		}
		if u.Stats[unit.TradeCost].Enable {
			p.TradeCost = s.bestTradeCost(p)
		}
		if t.TownHall {
			p.NumTownHalls--
			s.armReveal(p)
		}
	}

	if ai := s.aiFor(p); ai != nil {
		ai.UnitLost(u)
	}
	log.Debug().Int("slot", u.Slot).Str("type", t.Ident).Int("player", p.Index).Msg("unit lost")
}

func (s *Sim) bestIncome(p *core.Player, r core.Resource) int {
	best := 0
	for _, o := range s.unitsOf(p) {
		if !o.UnderConstruction && o.Type.ImproveIncome[r] > best {
			best = o.Type.ImproveIncome[r]
		}
	}
	return best
}

func (s *Sim) bestTradeCost(p *core.Player) int {
	best := 0
	for _, o := range s.unitsOf(p) {
		if o.UnderConstruction || !o.Stats[unit.TradeCost].Enable {
			continue
		}
		if tc := o.Stats.Get(unit.TradeCost); best == 0 || tc < best {
			best = tc
		}
	}
	return best
}

// armReveal starts the countdown that reveals a player left without town halls
func (s *Sim) armReveal(p *core.Player) {
	if p.NumTownHalls > 0 || p.Revealed || p.RevealAtTick != 0 || s.Rules.TownHallRevealDelay <= 0 {
		return
	}
	p.RevealAtTick = s.tick() + uint64(s.Rules.TownHallRevealDelay)
	log.Debug().Int("player", p.Index).Uint64("at", p.RevealAtTick).Msg("town hall reveal armed")
}

// FinishConstruction turns a building under construction into a working
// one, adding what finished buildings give their owner.
func (s *Sim) FinishConstruction(u *unit.Unit) {
	if !u.UnderConstruction {
		return
	}
	s.UnmarkUnitSight(u)
	u.UnderConstruction = false
	unit.UpdateSightRange(u)
	s.MarkUnitSight(u)
	if p := u.Player; p != nil {
		p.NumBuildingsUnderConstruction--
		s.addCompleted(u, p)
	}
}

// applyPlayerUpgrades applies the upgrades p has researched to u, except
// those in skip.
func (s *Sim) applyPlayerUpgrades(u *unit.Unit, p, skip *core.Player) {
	for _, up := range s.Types.Upgrades() {
		if !p.Upgrades[up.Ident] || (skip != nil && skip.Upgrades[up.Ident]) {
			continue
		}
		if !unit.ApplyUpgrade(u, up) && up.AppliesToType(u.Type) && !u.Upgrades[up.Ident] {
			log.Debug().Int("slot", u.Slot).Str("upgrade", up.Ident).Msg("upgrade skipped, slot equipped")
		}
	}
}
