package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1siamBot/rts-simcore/engine/config"
	"github.com/1siamBot/rts-simcore/engine/core"
	"github.com/1siamBot/rts-simcore/engine/maplib"
	"github.com/1siamBot/rts-simcore/engine/systems"
	"github.com/1siamBot/rts-simcore/engine/unit"
)

func fighter(ident string, canAttack bool) *unit.Type {
	t := &unit.Type{
		Ident:        ident,
		CanMove:      true,
		CanAttack:    canAttack,
		CanTarget:    unit.TargetLand,
		FieldFlags:   maplib.FieldLandUnit,
		MovementMask: maplib.FieldUnpassable | maplib.FieldLandUnit | maplib.FieldBuilding,
	}
	t.Stats[unit.HP] = unit.Variable{Value: 100, Max: 100, Enable: true}
	t.Stats[unit.SightRange] = unit.Variable{Value: 4, Max: 4, Enable: true}
	t.Stats[unit.AttackRange] = unit.Variable{Value: 1, Max: 1, Enable: true}
	t.Stats[unit.BasicDamage] = unit.Variable{Value: 8, Max: 8, Enable: true}
	return t
}

func newSim(t *testing.T) (*systems.Sim, *core.Player, *core.Player) {
	t.Helper()
	reg := unit.NewRegistry()
	require.NoError(t, reg.Register(fighter("soldier", true)))
	require.NoError(t, reg.Register(fighter("scout", false)))

	pm := core.NewPlayerManager()
	human := core.NewPlayer(0, "human", core.PlayerPerson)
	human.TeamID = 1
	cpu := core.NewPlayer(1, "cpu", core.PlayerComputer)
	cpu.TeamID = 2
	pm.AddPlayer(human)
	pm.AddPlayer(cpu)

	rules := config.DefaultRules()
	rules.ReleaseHoldTicks = 0
	s := systems.NewSim(maplib.NewMap(maplib.NewTileMap("ai", 24, 24)), reg, pm, rules)
	return s, human, cpu
}

func put(s *systems.Sim, ident string, p *core.Player, x, y int) *unit.Unit {
	return s.MakeUnitAndPlace(core.TilePos{X: x, Y: y}, s.MustType(ident), p, 0)
}

func goalOf(u *unit.Unit) *unit.Unit {
	return u.CurrentOrder().Goal()
}

func TestAttachInstallsDefense(t *testing.T) {
	s, _, cpu := newSim(t)
	put(s, "soldier", cpu, 3, 3)
	Attach(s, cpu, DiffMedium)

	assert.True(t, cpu.AIEnabled)
	assert.Equal(t, cpu.UnitTypesCount, cpu.UnitTypesAIActiveCount)
}

func TestHitUnitStrikesBack(t *testing.T) {
	s, human, cpu := newSim(t)
	Attach(s, cpu, DiffMedium)
	attacker := put(s, "soldier", human, 6, 5)
	target := put(s, "soldier", cpu, 5, 5)

	s.Hit(attacker, target, 5, nil)
	assert.Equal(t, unit.ActionAttack, target.CurrentAction())
	assert.Same(t, attacker, goalOf(target))
}

func TestRecruitHoldsReferences(t *testing.T) {
	s, _, cpu := newSim(t)
	c := Attach(s, cpu, DiffMedium)
	soldier := put(s, "soldier", cpu, 5, 5)
	scout := put(s, "scout", cpu, 6, 6)

	c.Think()
	require.Equal(t, []*unit.Unit{soldier}, c.Force)
	require.Equal(t, []*unit.Unit{scout}, c.Scouts)
	assert.Equal(t, 2, soldier.Refs)
	assert.Equal(t, unit.ActionMove, scout.CurrentAction(), "idle scouts go looking")

	c.Think()
	assert.Len(t, c.Force, 1, "recruited once")

	slot := soldier.Slot
	s.LetUnitDie(soldier)
	assert.Empty(t, c.Force)
	assert.Nil(t, s.Pool.Get(slot))
}

func TestCapturedUnitLeavesForce(t *testing.T) {
	s, human, cpu := newSim(t)
	c := Attach(s, cpu, DiffMedium)
	u := put(s, "soldier", cpu, 5, 5)
	c.Think()
	require.Len(t, c.Force, 1)

	require.NoError(t, s.ChangeOwner(u, human, false))
	assert.Empty(t, c.Force)
	assert.Equal(t, 1, u.Refs)
}

func TestHelpMeSendsIdleForce(t *testing.T) {
	s, human, cpu := newSim(t)
	c := Attach(s, cpu, DiffMedium)
	defender := put(s, "soldier", cpu, 5, 5)
	helper := put(s, "soldier", cpu, 7, 7)
	far := put(s, "soldier", cpu, 22, 22)
	attacker := put(s, "soldier", human, 6, 5)
	c.Think()

	c.HelpMe(attacker, defender)
	assert.Same(t, attacker, goalOf(helper))
	assert.True(t, far.IsIdle())
	assert.True(t, defender.IsIdle(), "the defender reacts on its own")
}

func TestScoutRetreatsWhenHit(t *testing.T) {
	s, human, cpu := newSim(t)
	c := Attach(s, cpu, DiffMedium)
	scout := put(s, "scout", cpu, 10, 10)
	attacker := put(s, "soldier", human, 11, 10)
	c.Think()

	assert.True(t, c.OnHit(scout, attacker, 5))
	o := scout.CurrentOrder()
	assert.Equal(t, unit.ActionMove, o.Action)
	assert.Equal(t, core.TilePos{X: 8, Y: 10}, o.GoalPos)
}

func TestWaveAttacksVisibleEnemy(t *testing.T) {
	s, human, cpu := newSim(t)
	c := Attach(s, cpu, DiffHard)
	a := put(s, "soldier", cpu, 5, 5)
	b := put(s, "soldier", cpu, 5, 6)
	enemy := put(s, "soldier", human, 7, 5)
	sys := &System{Controllers: []*Controller{c}}

	sys.Update(s.World, 31)
	assert.True(t, a.IsIdle(), "the first think only recruits")

	sys.Update(s.World, 3)
	assert.Same(t, enemy, goalOf(a))
	assert.Same(t, enemy, goalOf(b))
	assert.Equal(t, 1, c.waveCount)
}

func TestDefeatedPlayerDisbands(t *testing.T) {
	s, _, cpu := newSim(t)
	c := Attach(s, cpu, DiffEasy)
	u := put(s, "soldier", cpu, 5, 5)
	c.Think()
	require.Equal(t, 2, u.Refs)

	cpu.Defeated = true
	c.Think()
	assert.Empty(t, c.Force)
	assert.Equal(t, 1, u.Refs)
}
