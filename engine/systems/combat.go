package systems

import (
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/1siamBot/rts-simcore/engine/core"
	"github.com/1siamBot/rts-simcore/engine/unit"
)

// DamageMultiplier scales damage in percent by [damage type][armor class].
// Pairs that are not listed deal full damage.
var DamageMultiplier = map[string]map[string]int{
	//           none  light  medium heavy  building
	"kinetic":   {"none": 100, "light": 100, "medium": 70, "heavy": 40, "building": 30},
	"explosive": {"none": 120, "light": 80, "medium": 100, "heavy": 120, "building": 150},
	"fire":      {"none": 150, "light": 130, "medium": 90, "heavy": 60, "building": 80},
	"electric":  {"none": 100, "light": 150, "medium": 120, "heavy": 80, "building": 50},
	"radiation": {"none": 130, "light": 110, "medium": 110, "heavy": 100, "building": 100},
}

func damageMultiplier(damageType, armorClass string) int {
	if row, ok := DamageMultiplier[damageType]; ok {
		if m, ok := row[armorClass]; ok {
			return m
		}
	}
	return 100
}

// HitOutcome reports what one call to Hit did
type HitOutcome struct {
	Ignored  bool
	Absorbed int // taken by the shield
	Dealt    int // taken from hit points
	Killed   bool
	Captured bool
	Raided   core.Costs
	Killer   *unit.Unit
}

// Hit resolves damage from attacker, which may be nil, against target.
// The steps run in a fixed order; a kill ends the pipeline early.
func (s *Sim) Hit(attacker, target *unit.Unit, damage int, missile *unit.MissileType) HitOutcome {
	var out HitOutcome
	if attacker != nil && attacker.Destroyed {
		attacker = nil
	}
	if damage <= 0 || target.Removed || !target.IsAlive() || target.Type.Vanishes || invulnerable(target) {
		out.Ignored = true
		hitsTotal.WithLabelValues("ignored").Inc()
		return out
	}

	s.attribute(attacker, target)
	s.runHitHooks(attacker, target, damage, missile)
	if target.Removed || !target.IsAlive() {
		// a hook finished the target off
		out.Ignored = true
		hitsTotal.WithLabelValues("ignored").Inc()
		return out
	}

	out.Absorbed, out.Dealt = absorb(attacker, target, damage)
	out.Raided = s.raid(attacker, target, out.Dealt)

	if target.Stats.Get(unit.HP) <= out.Dealt {
		s.killByHit(attacker, target, &out)
		return out
	}

	s.applyDamage(attacker, target, out.Absorbed, out.Dealt)
	out.Captured = s.capture(attacker, target, damage)
	s.present(target, out.Dealt)

	if out.Captured {
		hitsTotal.WithLabelValues("captured").Inc()
		return out
	}
	hitsTotal.WithLabelValues("damaged").Inc()
	s.react(attacker, target, damage)
	return out
}

func invulnerable(u *unit.Unit) bool {
	return u.Stats.Get(unit.UnholyArmor) > 0 || u.Type.Indestructible
}

// attribute records who hit the target and raises the alarm
func (s *Sim) attribute(attacker, target *unit.Unit) {
	if attacker == nil {
		return
	}
	target.LastAttack = s.tick()
	target.DamagedType = attacker.Type.DamageType
	s.alert(target)
	if ai := s.aiFor(target.Player); ai != nil && !attacker.Type.Building {
		ai.HelpMe(attacker, target)
	}
}

// alert notifies the target's owner, at most once per cooldown for hits
// close to the last alert.
func (s *Sim) alert(target *unit.Unit) {
	p := target.Player
	if p == nil || p.IsNeutral() {
		return
	}
	a := &p.Alert
	now := s.tick()
	if a.Fired && now-a.LastTick < uint64(s.Rules.AlertCooldown) && target.DistanceToPos(a.LastPos) <= s.Rules.AlertRadius {
		return
	}
	a.Fired, a.LastTick, a.LastPos = true, now, target.TilePos
	s.emit(core.EvtUnderAttack, core.AlertPayload{Player: p.Index, Slot: target.Slot, Pos: target.TilePos, Text: "under attack"})
	s.effect(Effect{Kind: EffectNotify, Slot: target.Slot, Player: p.Index, Pos: target.PixelCenter(), Name: "under-attack"})
}

// runHitHooks fires the scripted hooks, then re-derives whatever depends
// on the stats they touched.
func (s *Sim) runHitHooks(attacker, target *unit.Unit, damage int, missile *unit.MissileType) {
	before := target.Stats
	if h := target.Type.OnHit; h != nil {
		h(target, attacker, damage)
	}
	if missile != nil {
		if missile.ChangeAmount != 0 {
			if missile.ChangeMax {
				target.Stats[missile.ChangeStat].Max += missile.ChangeAmount
				target.Stats[missile.ChangeStat].Enable = true
			}
			target.Stats.Add(missile.ChangeStat, missile.ChangeAmount, false)
		}
		if missile.OnImpact != nil {
			missile.OnImpact(target, attacker, damage)
		}
	}
	for id := range before {
		if before[id] != target.Stats[id] {
			s.statChanged(target, unit.StatID(id))
		}
	}
}

func (s *Sim) statChanged(u *unit.Unit, id unit.StatID) {
	switch id {
	case unit.SightRange, unit.Radar, unit.RadarJammer:
		s.UnmarkUnitSight(u)
		unit.UpdateSightRange(u)
		s.MarkUnitSight(u)
	case unit.AttackRange:
		if u.Container != nil {
			unit.UpdateContainerAttackRange(u.Container)
		}
	case unit.XP, unit.XPRequired:
		s.promote(u)
	}
}

// absorb splits damage between the target's shield and its hit points
func absorb(attacker, target *unit.Unit, damage int) (absorbed, dealt int) {
	shield := target.Stats.Get(unit.Shield)
	piercing := attacker != nil && attacker.Stats.Get(unit.ShieldPiercing) > 0
	if shield > 0 && !piercing {
		perm := target.Stats.Get(unit.ShieldPermeability)
		absorbed = min(shield, damage*(100-perm)/100)
	}
	return absorbed, damage - absorbed
}

// raid moves a share of the target's cost proportional to the damage
// dealt from its owner to the attacker's.
func (s *Sim) raid(attacker, target *unit.Unit, dealt int) core.Costs {
	var taken core.Costs
	if attacker == nil || dealt <= 0 {
		return taken
	}
	rate := attacker.Stats.Get(unit.Raid)
	from, to := target.Player, attacker.Player
	if rate <= 0 || from == nil || to == nil || from == to || from.IsNeutral() || to.IsNeutral() {
		return taken
	}
	hpMax := target.Stats.Max(unit.HP)
	if hpMax <= 0 {
		return taken
	}
	dealt = min(dealt, target.Stats.Get(unit.HP))
	for r := range taken {
		amount := target.Type.Costs[r] * dealt * rate / (hpMax * 100)
		amount = min(amount, from.Resources[r])
		if amount <= 0 {
			continue
		}
		from.AddResource(core.Resource(r), -amount)
		to.AddResource(core.Resource(r), amount)
		taken[r] = amount
	}
	return taken
}

func (s *Sim) killByHit(attacker, target *unit.Unit, out *HitOutcome) {
	target.Stats.Add(unit.Shield, -out.Absorbed, false)
	absorbedTotal.Add(float64(out.Absorbed))

	killer := attacker
	if killer == nil {
		killer = s.closestEnemy(target, s.Rules.ExpShareRadius)
	}
	if killer != nil {
		s.increaseScoreForKill(killer, target)
	}
	out.Killed, out.Killer = true, killer
	hitsTotal.WithLabelValues("killed").Inc()
	s.letUnitDie(target, killer, out.Dealt)
}

// closestEnemy finds who gets the credit when a unit dies to no one in
// particular.
func (s *Sim) closestEnemy(target *unit.Unit, radius int) *unit.Unit {
	var best *unit.Unit
	bestDist := radius + 1
	for _, o := range s.inPlay() {
		if o.Removed || !o.IsEnemy(target) {
			continue
		}
		if d := o.MapDistanceTo(target); d < bestDist {
			best, bestDist = o, d
		}
	}
	return best
}

func (s *Sim) increaseScoreForKill(killer, dead *unit.Unit) {
	p := killer.Player
	if p == nil {
		return
	}
	points := dead.Stats.Get(unit.Points)
	p.Score += points
	if dead.Type.Building {
		p.TotalRazings++
	} else {
		p.TotalKills++
	}
	p.UnitTypeKills[dead.Type.Ident]++
	killer.Stats.Add(unit.Kill, 1, true)

	if points <= 0 {
		return
	}
	var share []*unit.Unit
	for _, o := range s.unitsOf(p) {
		if o == killer || o.Removed || !o.IsAlive() || o.Type.Building {
			continue
		}
		if o.MapDistanceTo(killer) <= s.Rules.ExpShareRadius {
			share = append(share, o)
		}
	}
	xp := points / (len(share) + 1)
	killer.Stats.Add(unit.XP, xp, true)
	s.promote(killer)
	for _, o := range share {
		o.Stats.Add(unit.XP, xp, true)
		s.promote(o)
	}
}

func (s *Sim) applyDamage(attacker, target *unit.Unit, absorbed, dealt int) {
	target.Stats.Add(unit.Shield, -absorbed, false)
	target.Stats.Add(unit.HP, -dealt, false)
	absorbedTotal.Add(float64(absorbed))

	if s.Rules.XPFromDamage && attacker != nil && !attacker.Type.Building && xpTarget(attacker, target) {
		attacker.Stats.Add(unit.XP, dealt, true)
		s.promote(attacker)
	}
	s.autoHeal(target)

	s.emit(core.EvtUnitDamaged, core.DamagePayload{
		Slot:     target.Slot,
		Attacker: slotOf(attacker),
		Damage:   dealt,
		Absorbed: absorbed,
		HP:       target.Stats.Get(unit.HP),
	})
}

// xpTarget reports whether hurting target is worth experience
func xpTarget(attacker, target *unit.Unit) bool {
	if attacker.Player == nil || attacker.Player == target.Player {
		return false
	}
	if target.Player == nil || target.Player.IsNeutral() {
		return true
	}
	return !attacker.IsAllied(target)
}

// autoHeal queues a use-item order for the first healing item in the
// equipment of a badly hurt unit. The item is used on the next order step.
func (s *Sim) autoHeal(u *unit.Unit) {
	if len(u.Equipment) == 0 || u.Stats.Percent(unit.HP) >= s.Rules.CriticalHPPercent {
		return
	}
	if c := u.CriticalOrder; c != nil && c.Action == unit.ActionUseItem {
		return
	}
	slots := make([]string, 0, len(u.Equipment))
	for slot := range u.Equipment {
		slots = append(slots, slot)
	}
	sort.Strings(slots)
	for _, slot := range slots {
		if s.healingItem(u.Equipment[slot]) == nil {
			continue
		}
		o := unit.NewOrder(unit.ActionUseItem)
		o.Item = slot
		u.SetCriticalOrder(o)
		return
	}
}

func (s *Sim) healingItem(item string) *unit.MissileType {
	m, ok := s.Types.Missile(item)
	if !ok || m.ChangeStat != unit.HP || m.ChangeAmount <= 0 {
		return nil
	}
	return m
}

// useItem consumes the equipment named by a use-item order
func (s *Sim) useItem(u *unit.Unit, o *unit.Order) {
	o.Finished = true
	item := u.Equipment[o.Item]
	m := s.healingItem(item)
	if m == nil || !u.IsAlive() {
		return
	}
	u.Stats.Add(unit.HP, m.ChangeAmount, false)
	delete(u.Equipment, o.Item)
	s.unitEffect(EffectSound, u, 0, "potion")
	log.Debug().Int("slot", u.Slot).Str("item", item).Msg("auto heal")
}

// capture hands a badly damaged building to a hostile repairer
func (s *Sim) capture(attacker, target *unit.Unit, damage int) bool {
	if !s.Rules.CaptureBuildings || attacker == nil || attacker.Player == nil {
		return false
	}
	if !attacker.IsEnemy(target) || !target.Type.Building || attacker.Type.RepairRange <= 0 {
		return false
	}
	if target.Stats.Get(unit.HP) > 3*damage {
		return false
	}
	from := target.Player
	if err := s.changeOwner(target, attacker.Player, true, "capture"); err != nil {
		log.Debug().Err(err).Int("slot", target.Slot).Msg("capture refused")
		return false
	}
	attacker.ClearOrders()
	s.emit(core.EvtUnitCaptured, core.OwnerPayload{Slot: target.Slot, From: playerIndex(from), To: attacker.Player.Index})
	return true
}

// present pushes the visual side of a hit and sets damaged buildings alight
func (s *Sim) present(target *unit.Unit, dealt int) {
	s.unitEffect(EffectDamageNumber, target, dealt, "")
	s.unitEffect(EffectImpact, target, dealt, target.DamagedType)

	t := target.Type
	if !t.Building || target.UnderConstruction || t.TileWidth*t.TileHeight <= 1 || target.Burning {
		return
	}
	if target.Stats.Percent(unit.HP) < s.Rules.BurnThreshold {
		target.Burning = true
		s.unitEffect(EffectBurn, target, 0, "")
	}
}

// react lets the target flee or strike back
func (s *Sim) react(attacker, target *unit.Unit, damage int) {
	if ai := s.aiFor(target.Player); ai != nil && ai.OnHit(target, attacker, damage) {
		return
	}
	if attacker == nil || attacker.Removed && attacker.Container == nil {
		return
	}

	if (!target.IsAggressive() || attacker.Type.Indestructible) && target.CanMove() &&
		(target.IsIdle() || target.Stats.Get(unit.Terror) > 0) {
		s.flee(attacker, target)
	}

	if target.Threshold > 0 {
		return
	}
	if target.IsAggressive() || (target.CanAttack() && target.Type.Coward &&
		(attacker.Type.Coward || attacker.Stats.Percent(unit.HP) <= s.Rules.CriticalHPPercent)) {
		s.attackBack(attacker, target)
	}
}

func (s *Sim) flee(attacker, target *unit.Unit) {
	from, _, _ := attacker.Footprint()
	d := target.TilePos.Sub(from)
	n := max(abs(d.X), abs(d.Y))
	if n == 0 {
		d, n = core.TilePos{X: 1}, 1
	}
	dist := s.Rules.FleeDistance
	dest := core.TilePos{
		X: target.TilePos.X + d.X*dist/n + s.Rand.Intn(4) - 1,
		Y: target.TilePos.Y + d.Y*dist/n + s.Rand.Intn(4) - 1,
	}
	dest = s.Map.Clamp(dest)
	if !s.Oracle.Reachable(target.Type, target.TilePos, dest, target.MapLayer) {
		pos, ok := s.Oracle.FindNearestValidPosition(target.Type, dest, target.MapLayer, dist)
		if !ok {
			log.Debug().Int("slot", target.Slot).Msg("nowhere to flee")
			return
		}
		dest = pos
	}
	s.CommandMove(target, dest, true)
}

// attackBack picks the lowest threat cost target among the attacker and
// whatever the target can reach, and attacks it.
func (s *Sim) attackBack(attacker, target *unit.Unit) {
	cur := target.CurrentOrder()
	if cur.Action == unit.ActionAttack && cur.Goal() == attacker {
		return
	}

	rng := target.Stats.Get(unit.AttackRange)
	if target.CanMove() && cur.Action != unit.ActionStandGround {
		rng = max(rng, reactRange(target))
	}
	goal := s.bestTargetInRange(target, rng)

	if s.retaliable(attacker, target) {
		if goal == nil || ThreatCalculate(target, attacker) <= ThreatCalculate(target, goal) {
			goal = attacker
		}
	}
	if goal == nil || goal == cur.Goal() {
		return
	}

	var prev *unit.Order
	switch cur.Action {
	case unit.ActionStill, unit.ActionStandGround, unit.ActionAttack, unit.ActionDie:
	default:
		prev = cur.Clone()
	}

	s.CommandAttack(target, goal, true)
	if prev != nil {
		target.SaveOrder(prev)
	}
	if goal.IsAggressive() {
		target.Threshold = s.Rules.RetaliationTicks
	}
	log.Debug().Int("slot", target.Slot).Int("goal", goal.Slot).Msg("attack back")
}

// retaliable reports whether target can go after the unit that hit it.
// With reveal-attacker an unseen attacker is fair game.
func (s *Sim) retaliable(attacker, target *unit.Unit) bool {
	if !attacker.IsAlive() || attacker.Removed || !canStrike(target, attacker.Type) || !target.IsEnemy(attacker) {
		return false
	}
	if !target.CanMove() && target.MapDistanceTo(attacker) > target.Stats.Get(unit.AttackRange) {
		return false
	}
	if s.Rules.RevealAttacker || target.Type.RevealAttacker {
		return true
	}
	return s.IsVisible(attacker, target.Player)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// ComputeDamage rolls the damage of one strike of u against target
func (s *Sim) ComputeDamage(u, target *unit.Unit) int {
	basic := unit.Modified(u, unit.BasicDamage, nil)
	piercing := unit.Modified(u, unit.PiercingDamage, nil)
	armor := unit.Modified(target, unit.Armor, nil)

	d := max(basic-armor, 1) + piercing
	d -= s.Rand.Intn((d + 2) / 2)
	d = d * damageMultiplier(u.Type.DamageType, target.Type.ArmorClass) / 100
	return max(d, 1)
}

// CombatSystem drives attack orders and lets idle fighters pick targets
type CombatSystem struct {
	Sim *Sim
}

func (cs *CombatSystem) Priority() int { return 20 }

func (cs *CombatSystem) Update(w *core.World, dt float64) {
	s := cs.Sim
	for _, u := range s.inPlay() {
		// earlier strikes this tick may have killed u
		if !u.IsAlive() {
			continue
		}
		if u.Cooldown > 0 {
			u.Cooldown--
		}
		if !s.armed(u) {
			continue
		}
		o := u.CurrentOrder()
		switch o.Action {
		case unit.ActionAttack:
			cs.attack(u, o)
		case unit.ActionStill, unit.ActionStandGround:
			cs.autoAcquire(u, o)
		}
	}
}

// armed reports whether u can strike right now, from the map or from a
// transporter that lets its passengers fight.
func (s *Sim) armed(u *unit.Unit) bool {
	if !u.Type.CanAttack || u.UnderConstruction || u.Player == nil {
		return false
	}
	if u.Container != nil && !u.Container.Type.AttackFromTransporter {
		return false
	}
	return !unit.FirstContainer(u).Removed
}

func (cs *CombatSystem) attack(u *unit.Unit, o *unit.Order) {
	s := cs.Sim
	g := o.Goal()
	if g == nil || !g.IsAlive() || g.Removed {
		o.Finished = true
		return
	}
	d := u.MapDistanceTo(g)
	if d > unit.Modified(u, unit.AttackRange, nil) || d < u.Stats.Get(unit.MinAttackRange) {
		if !u.CanMove() || u.Container != nil {
			o.Finished = true
			return
		}
		if o.GoalPos != g.TilePos || len(o.Path) == 0 {
			o.GoalPos = g.TilePos
			o.Path = s.approach(u, g)
		}
		return
	}
	o.Path = nil
	if u.Cooldown > 0 {
		return
	}
	s.strike(u, g)
}

func (cs *CombatSystem) autoAcquire(u *unit.Unit, o *unit.Order) {
	s := cs.Sim
	if !u.IsAggressive() {
		return
	}
	rng := u.Stats.Get(unit.AttackRange)
	if u.CanMove() && o.Action == unit.ActionStill && u.Container == nil {
		rng = max(rng, reactRange(u))
	}
	g := s.bestTargetInRange(u, rng)
	if g == nil {
		return
	}
	d := u.MapDistanceTo(g)
	if d <= unit.Modified(u, unit.AttackRange, nil) && d >= u.Stats.Get(unit.MinAttackRange) {
		if u.Cooldown == 0 {
			s.strike(u, g)
		}
		return
	}
	if o.Action != unit.ActionStill || !u.CanMove() || u.Container != nil {
		return
	}
	s.CommandAttack(u, g, false)
}

// approach plans a path to a free tile next to g
func (s *Sim) approach(u, g *unit.Unit) []core.TilePos {
	w, h := g.Type.TileSize()
	dest, ok := s.Oracle.FindNearestValidPosition(u.Type, g.TilePos, g.MapLayer, max(w, h)+u.Stats.Get(unit.AttackRange))
	if !ok {
		return nil
	}
	return s.Oracle.Path(u.Type, u.TilePos, dest, u.MapLayer)
}

// strike fires u's weapon at g, as a missile when the type has one
func (s *Sim) strike(u, g *unit.Unit) {
	u.Cooldown = max(u.Type.AttackCooldown, 1)
	if u.Type.Missile != "" {
		if m, ok := s.Types.Missile(u.Type.Missile); ok {
			s.FireMissile(u, g, m)
			return
		}
		log.Debug().Str("missile", u.Type.Missile).Msg("unknown missile, striking directly")
	}
	s.Hit(u, g, s.ComputeDamage(u, g), nil)
}
