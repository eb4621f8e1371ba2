package systems

import (
	"math"

	"github.com/1siamBot/rts-simcore/engine/unit"
)

// Threat cost weights. Lower cost means a more attractive target.
const (
	priorityFactor  = 0x00080000
	healthFactor    = 1
	distanceFactor  = 0x00010000
	inRangeFactor   = 0x00008000
	inRangeBonus    = 0x01000000
	canAttackBonus  = 0x00100000
	aiPriorityBonus = 0x04000000
)

// ThreatCalculate ranks dest as a target for u. Targets that cannot hurt
// anyone sort last, immobile ones after mobile ones.
func ThreatCalculate(u, dest *unit.Unit) int {
	if !dest.IsAggressive() || dest.Stats.Get(unit.UnholyArmor) > 0 || dest.Type.Indestructible {
		if !dest.Type.CanMove || dest.Type.Building {
			return math.MaxInt
		}
		return math.MaxInt / 2
	}

	cost := 0
	cost -= dest.Stats.Get(unit.Priority) * priorityFactor
	cost += dest.Stats.Percent(unit.HP) * healthFactor

	d := u.MapDistanceTo(dest)
	if d <= u.Stats.Max(unit.AttackRange) && d >= u.Stats.Get(unit.MinAttackRange) {
		cost += d * inRangeFactor
		cost -= inRangeBonus
	} else {
		cost += d * distanceFactor
	}

	for tag, preferred := range u.Type.AIPriorityTargets {
		if !dest.Type.HasTag(tag) {
			continue
		}
		if preferred {
			cost -= aiPriorityBonus
		} else {
			cost += aiPriorityBonus
		}
	}

	if dest.Type.CanTargetType(u.Type) {
		cost -= canAttackBonus
	}
	return cost
}

// CanTarget reports whether u may pick o as an attack target
func (s *Sim) CanTarget(u, o *unit.Unit) bool {
	if o == u || !o.IsAlive() || o.Removed || o.Player == nil || u.Player == nil {
		return false
	}
	if !canStrike(u, o.Type) || !u.IsEnemy(o) {
		return false
	}
	return s.IsVisible(o, u.Player)
}

// canStrike reports whether u, or a passenger it attacks through, can hit
// units of type t.
func canStrike(u *unit.Unit, t *unit.Type) bool {
	if u.Type.CanTargetType(t) {
		return true
	}
	if !u.Type.AttackFromTransporter {
		return false
	}
	for _, in := range u.Inside {
		if in.Type.CanTargetType(t) {
			return true
		}
	}
	return false
}

// bestTargetInRange picks the lowest threat cost target within rng tiles
// of u, nil when there is none. Ties go to the lower slot.
func (s *Sim) bestTargetInRange(u *unit.Unit, rng int) *unit.Unit {
	var best *unit.Unit
	bestCost := math.MaxInt
	for _, o := range s.inPlay() {
		if !s.CanTarget(u, o) || u.MapDistanceTo(o) > rng {
			continue
		}
		if c := ThreatCalculate(u, o); best == nil || c < bestCost {
			best, bestCost = o, c
		}
	}
	return best
}

func reactRange(u *unit.Unit) int {
	if r := u.Stats.Get(unit.ReactRange); r > 0 {
		return r
	}
	return u.Stats.Get(unit.AttackRange)
}
