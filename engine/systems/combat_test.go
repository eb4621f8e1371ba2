package systems

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1siamBot/rts-simcore/engine/core"
	"github.com/1siamBot/rts-simcore/engine/unit"
)

func TestHitPlainDamage(t *testing.T) {
	s, p1, p2 := newTestSim(t, testRules())
	target := place(s, "soldier", p1, 5, 5)
	attacker := place(s, "soldier", p2, 6, 5)

	out := s.Hit(attacker, target, 40, nil)

	assert.False(t, out.Ignored)
	assert.False(t, out.Killed)
	assert.Equal(t, 40, out.Dealt)
	assert.Zero(t, out.Absorbed)
	assert.Equal(t, 60, target.Stats.Get(unit.HP))
	assert.Empty(t, queued(s, core.EvtUnitDied))
	assert.Len(t, queued(s, core.EvtUnitDamaged), 1)
	assert.Equal(t, s.tick(), target.LastAttack)
}

func TestHitShieldAbsorbs(t *testing.T) {
	s, p1, p2 := newTestSim(t, testRules())
	target := place(s, "soldier", p1, 5, 5)
	attacker := place(s, "soldier", p2, 6, 5)
	target.Stats[unit.Shield] = stat(30)
	target.Stats[unit.ShieldPermeability] = unit.Variable{Value: 50, Max: 100}

	out := s.Hit(attacker, target, 40, nil)

	assert.Equal(t, 20, out.Absorbed)
	assert.Equal(t, 20, out.Dealt)
	assert.Equal(t, 10, target.Stats.Get(unit.Shield))
	assert.Equal(t, 80, target.Stats.Get(unit.HP))
}

func TestShieldPiercingBypassesShield(t *testing.T) {
	s, p1, p2 := newTestSim(t, testRules())
	target := place(s, "soldier", p1, 5, 5)
	attacker := place(s, "soldier", p2, 6, 5)
	target.Stats[unit.Shield] = stat(30)
	attacker.Stats[unit.ShieldPiercing] = stat(1)

	out := s.Hit(attacker, target, 25, nil)
	assert.Zero(t, out.Absorbed)
	assert.Equal(t, 30, target.Stats.Get(unit.Shield))
	assert.Equal(t, 75, target.Stats.Get(unit.HP))
}

func TestHitNeverHeals(t *testing.T) {
	s, p1, _ := newTestSim(t, testRules())
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 50; i++ {
		u := place(s, "soldier", p1, i%20, i/20)
		u.Stats[unit.Shield] = stat(rng.Intn(40))
		u.Stats[unit.ShieldPermeability] = unit.Variable{Value: rng.Intn(101), Max: 100}
		hp, shield := u.Stats.Get(unit.HP), u.Stats.Get(unit.Shield)

		out := s.Hit(nil, u, rng.Intn(150)-10, nil)

		if out.Ignored {
			assert.Equal(t, hp, u.Stats.Get(unit.HP))
			continue
		}
		assert.LessOrEqual(t, out.Absorbed, shield)
		assert.GreaterOrEqual(t, out.Absorbed, 0)
		if !out.Killed {
			assert.LessOrEqual(t, u.Stats.Get(unit.HP), hp)
			assert.Equal(t, hp-out.Dealt, u.Stats.Get(unit.HP))
		}
	}
}

func TestHitIgnoresNonPositiveDamage(t *testing.T) {
	s, p1, _ := newTestSim(t, testRules())
	u := place(s, "soldier", p1, 5, 5)

	assert.True(t, s.Hit(nil, u, 0, nil).Ignored)
	assert.True(t, s.Hit(nil, u, -5, nil).Ignored)
	assert.Equal(t, 100, u.Stats.Get(unit.HP))
	assert.Empty(t, queued(s, core.EvtUnitDamaged))
}

func TestHitIgnoresInvulnerable(t *testing.T) {
	s, p1, _ := newTestSim(t, testRules())
	u := place(s, "soldier", p1, 5, 5)
	u.Stats[unit.UnholyArmor] = stat(3)

	assert.True(t, s.Hit(nil, u, 50, nil).Ignored)
	assert.Equal(t, 100, u.Stats.Get(unit.HP))
}

func TestLethalHitLeavesCorpse(t *testing.T) {
	rules := testRules()
	rules.CorpseDecayTicks = 3
	s, p1, p2 := newTestSim(t, rules)
	target := place(s, "grunt", p1, 5, 5)
	attacker := place(s, "soldier", p2, 6, 5)
	target.Stats.Set(unit.HP, 10)

	out := s.Hit(attacker, target, 15, nil)

	require.True(t, out.Killed)
	assert.Same(t, attacker, out.Killer)
	assert.Equal(t, unit.ActionDie, target.CurrentAction())
	assert.Equal(t, "corpse", target.Type.Ident)
	assert.False(t, target.Removed, "corpses lie on the map")
	assert.Contains(t, s.Map.UnitsAt(core.TilePos{X: 5, Y: 5}, 0), target.Slot)
	assert.Equal(t, 1, target.Stats.Get(unit.SightRange))
	assert.Equal(t, 1, target.CurrentSightRange, "a corpse sees no further than its type")
	assert.False(t, s.TileVisible(p1, core.TilePos{X: 5, Y: 8}, 0))
	assert.Len(t, queued(s, core.EvtUnitDied), 1)
	assert.Zero(t, p1.UnitCount())
	assert.Equal(t, 1, p2.TotalKills)
	assert.Equal(t, 10, p2.Score)
	checkAggregates(t, s)
	checkCounters(t, s)

	s.Run(3)
	assert.True(t, target.Destroyed)
	assert.NotContains(t, s.Map.UnitsAt(core.TilePos{X: 5, Y: 5}, 0), target.Slot)
	assert.True(t, p1.Defeated)
}

func TestLethalHitWithoutCorpseReleases(t *testing.T) {
	s, p1, p2 := newTestSim(t, testRules())
	target := place(s, "soldier", p1, 5, 5)
	place(s, "soldier", p2, 6, 5)
	slot := target.Slot

	out := s.Hit(nil, target, 500, nil)
	require.True(t, out.Killed)
	require.NotNil(t, out.Killer, "the closest enemy gets the credit")
	assert.Equal(t, p2, out.Killer.Player)
	assert.True(t, target.Destroyed)
	assert.Nil(t, s.Pool.Get(slot))
	assert.Empty(t, s.Map.UnitsAt(core.TilePos{X: 5, Y: 5}, 0))
}

func TestCaptureHandsBuildingOver(t *testing.T) {
	rules := testRules()
	rules.CaptureBuildings = true
	s, p1, p2 := newTestSim(t, rules)
	building := place(s, "tower", p1, 5, 5)
	eng := place(s, "engineer", p2, 7, 5)
	building.Stats.Set(unit.HP, 100)
	s.CommandAttack(eng, building, true)

	out := s.Hit(eng, building, 40, nil)

	require.True(t, out.Captured)
	assert.Same(t, p2, building.Player)
	assert.Equal(t, 60, building.Stats.Get(unit.HP))
	assert.Equal(t, unit.ActionStill, eng.CurrentAction(), "the capturer's order is dropped")
	assert.Len(t, queued(s, core.EvtUnitCaptured), 1)
	assert.Equal(t, 4, p2.Supply)
	assert.Zero(t, p1.Supply)
	checkAggregates(t, s)
	checkCounters(t, s)
}

func TestNoCaptureWhenDisabled(t *testing.T) {
	s, p1, p2 := newTestSim(t, testRules())
	building := place(s, "tower", p1, 5, 5)
	eng := place(s, "engineer", p2, 7, 5)
	building.Stats.Set(unit.HP, 100)

	out := s.Hit(eng, building, 40, nil)
	assert.False(t, out.Captured)
	assert.Same(t, p1, building.Player)
}

func TestRaidStealsResources(t *testing.T) {
	s, p1, p2 := newTestSim(t, testRules())
	building := place(s, "tower", p1, 5, 5)
	raider := place(s, "soldier", p2, 7, 5)
	raider.Stats[unit.Raid] = stat(100)
	p1.AddResource(core.ResourceGold, 1000)

	// a tenth of the hit points is a tenth of the cost
	out := s.Hit(raider, building, 40, nil)
	assert.Equal(t, 40, out.Raided[core.ResourceGold])
	assert.Equal(t, 960, p1.Resources[core.ResourceGold])
	assert.Equal(t, 40, p2.Resources[core.ResourceGold])
	assert.Zero(t, out.Raided[core.ResourceWood], "nothing to take")
}

func TestAlertIsDebounced(t *testing.T) {
	s, p1, p2 := newTestSim(t, testRules())
	a := place(s, "soldier", p1, 5, 5)
	b := place(s, "soldier", p1, 6, 6)
	far := place(s, "soldier", p1, 18, 18)
	enemy := place(s, "soldier", p2, 5, 6)

	s.Hit(enemy, a, 1, nil)
	s.Hit(enemy, b, 1, nil)
	assert.Len(t, queued(s, core.EvtUnderAttack), 1, "nearby hits share one alert")

	s.Hit(enemy, far, 1, nil)
	assert.Len(t, queued(s, core.EvtUnderAttack), 2, "distant hits alert again")
}

func TestCowardFlees(t *testing.T) {
	s, p1, p2 := newTestSim(t, testRules())
	scout := place(s, "scout", p1, 5, 5)
	enemy := place(s, "soldier", p2, 4, 5)

	s.Hit(enemy, scout, 5, nil)
	assert.Equal(t, unit.ActionMove, scout.CurrentAction())
	assert.Greater(t, scout.CurrentOrder().GoalPos.X, 5, "runs away from the attacker")
}

func TestAggressiveUnitStrikesBack(t *testing.T) {
	s, p1, p2 := newTestSim(t, testRules())
	target := place(s, "soldier", p1, 5, 5)
	enemy := place(s, "soldier", p2, 6, 5)

	s.Hit(enemy, target, 5, nil)
	require.Equal(t, unit.ActionAttack, target.CurrentAction())
	assert.Same(t, enemy, target.CurrentOrder().Goal())
	assert.Equal(t, s.Rules.RetaliationTicks, target.Threshold)
}

func TestRetaliationThresholdHoldsTarget(t *testing.T) {
	s, p1, p2 := newTestSim(t, testRules())
	target := place(s, "soldier", p1, 5, 5)
	first := place(s, "soldier", p2, 6, 5)
	second := place(s, "soldier", p2, 4, 5)

	s.Hit(first, target, 5, nil)
	s.Hit(second, target, 5, nil)
	assert.Same(t, first, target.CurrentOrder().Goal())
}

func TestKillExperiencePromotes(t *testing.T) {
	s, p1, p2 := newTestSim(t, testRules())
	killer := place(s, "soldier", p1, 5, 5)
	killer.Stats[unit.XPRequired] = stat(5)
	victim := place(s, "soldier", p2, 6, 5)
	victim.Stats.Set(unit.HP, 1)

	s.Hit(killer, victim, 10, nil)

	assert.Equal(t, 1, killer.Stats.Get(unit.Level))
	assert.Equal(t, 10, killer.Stats.Get(unit.XPRequired))
	assert.Equal(t, 5, killer.Stats.Get(unit.XP))
	assert.Equal(t, 110, killer.Stats.Max(unit.HP))
	assert.Len(t, queued(s, core.EvtLevelUp), 1)
}

func TestComputeDamageBounds(t *testing.T) {
	s, p1, p2 := newTestSim(t, testRules())
	a := place(s, "soldier", p1, 5, 5)
	b := place(s, "soldier", p2, 6, 5)
	for i := 0; i < 100; i++ {
		d := s.ComputeDamage(a, b)
		assert.GreaterOrEqual(t, d, 5)
		assert.LessOrEqual(t, d, 10)
	}
	b.Stats[unit.Armor] = stat(50)
	assert.Equal(t, 1, s.ComputeDamage(a, b), "armor never drops damage below one")
}

func TestCombatSystemFightsToTheEnd(t *testing.T) {
	s, p1, p2 := newTestSim(t, testRules())
	a := place(s, "soldier", p1, 5, 5)
	b := place(s, "soldier", p2, 6, 5)
	a.Stats[unit.BasicDamage] = stat(40)

	s.Run(200)

	assert.True(t, b.Destroyed)
	assert.False(t, a.Destroyed)
	assert.True(t, p2.Defeated)
	assert.False(t, p1.Defeated)
}

func TestThreatPrefersReachableFighters(t *testing.T) {
	s, p1, p2 := newTestSim(t, testRules())
	u := place(s, "soldier", p1, 5, 5)
	near := place(s, "soldier", p2, 6, 5)
	far := place(s, "soldier", p2, 9, 5)
	hut := place(s, "tower", p2, 12, 12)

	assert.Less(t, ThreatCalculate(u, near), ThreatCalculate(u, far))
	assert.Less(t, ThreatCalculate(u, far), ThreatCalculate(u, hut))
	assert.Same(t, near, s.bestTargetInRange(u, 6))
	assert.Nil(t, s.bestTargetInRange(u, 0))
}

func TestBurningBuildingTakesDamage(t *testing.T) {
	rules := testRules()
	rules.BurnInterval = 1
	s, p1, p2 := newTestSim(t, rules)
	building := place(s, "tower", p1, 5, 5)
	enemy := place(s, "archer", p2, 15, 15)

	s.Hit(enemy, building, 300, nil)
	require.True(t, building.Burning)
	hp := building.Stats.Get(unit.HP)

	(&BurnSystem{Sim: s}).Update(s.World, 0)
	assert.Equal(t, hp-rules.BurnDamage, building.Stats.Get(unit.HP))

	building.Stats.Set(unit.HP, 400)
	(&BurnSystem{Sim: s}).Update(s.World, 0)
	assert.False(t, building.Burning, "repaired past the threshold")
}

func TestAutoHealDrinksPotion(t *testing.T) {
	s, p1, _ := newTestSim(t, testRules())
	u := place(s, "soldier", p1, 5, 5)
	u.Equipment["belt"] = "potion"

	out := s.Hit(nil, u, 80, nil)
	assert.Equal(t, 20, u.Stats.Get(unit.HP), "hit points never rise during a hit")
	assert.Equal(t, 80, out.Dealt)
	require.NotNil(t, u.CriticalOrder)
	assert.Equal(t, unit.ActionUseItem, u.CriticalOrder.Action)

	s.Hit(nil, u, 5, nil)
	assert.Equal(t, 15, u.Stats.Get(unit.HP))
	assert.Equal(t, "potion", u.Equipment["belt"], "one pending drink")

	(&OrderSystem{Sim: s}).Update(s.World, 0)
	assert.Equal(t, 65, u.Stats.Get(unit.HP))
	assert.Empty(t, u.Equipment)
	assert.Nil(t, u.CriticalOrder)
	assert.Equal(t, unit.ActionStill, u.CurrentAction())
}
