package systems

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1siamBot/rts-simcore/engine/core"
	"github.com/1siamBot/rts-simcore/engine/unit"
)

func collect(s *Sim, typ core.EventType) *[]core.Event {
	var got []core.Event
	s.Bus.On(typ, func(e core.Event) { got = append(got, e) })
	return &got
}

func TestTimeToLiveExpires(t *testing.T) {
	s, p1, _ := newTestSim(t, testRules())
	u := place(s, "soldier", p1, 5, 5)
	u.TTL = 3

	s.Run(3)
	require.True(t, u.IsAlive())
	s.Step()
	assert.True(t, u.Destroyed)
	assert.Zero(t, p1.UnitCount())
}

func TestOrderSystemCountsDown(t *testing.T) {
	s, p1, _ := newTestSim(t, testRules())
	u := place(s, "soldier", p1, 5, 5)
	u.Blink = 2
	u.Threshold = 3

	s.Run(2)
	assert.Zero(t, u.Blink)
	assert.Equal(t, 1, u.Threshold)
}

func TestRegenOncePerSecond(t *testing.T) {
	s, p1, _ := newTestSim(t, testRules())
	u := place(s, "soldier", p1, 5, 5)
	u.Stats.Set(unit.HP, 50)
	u.Stats[unit.HP].Increase = 2
	u.Stats[unit.Slow] = unit.Variable{Value: 3, Max: 3, Enable: true}

	s.Step()
	assert.Equal(t, 52, u.Stats.Get(unit.HP))
	assert.Equal(t, 2, u.Stats.Get(unit.Slow))

	s.Run(int(s.World.TickRate) - 1)
	assert.Equal(t, 52, u.Stats.Get(unit.HP))

	s.Step()
	assert.Equal(t, 54, u.Stats.Get(unit.HP))
	assert.Equal(t, 1, u.Stats.Get(unit.Slow))
}

func TestBurningBuildingsDoNotRegenerate(t *testing.T) {
	rules := testRules()
	rules.BurnInterval = 0
	s, p1, _ := newTestSim(t, rules)
	b := place(s, "tower", p1, 5, 5)
	b.Stats.Set(unit.HP, 100)
	b.Stats[unit.HP].Increase = 5
	b.Burning = true

	s.Step()
	assert.Equal(t, 100, b.Stats.Get(unit.HP))
}

func TestLosingLastHallRevealsPlayer(t *testing.T) {
	rules := testRules()
	rules.TownHallRevealDelay = 5
	s, p1, p2 := newTestSim(t, rules)
	hall := place(s, "hall", p1, 5, 5)
	soldier := place(s, "soldier", p1, 2, 2)
	place(s, "soldier", p2, 18, 18)
	require.False(t, s.IsVisible(soldier, p2))
	revealed := collect(s, core.EvtPlayerRevealed)

	s.LetUnitDie(hall)
	require.Equal(t, uint64(5), p1.RevealAtTick)

	s.Run(5)
	assert.False(t, p1.Revealed)
	s.Step()
	assert.True(t, p1.Revealed)
	assert.Zero(t, p1.RevealAtTick)
	require.Len(t, *revealed, 1)
	assert.Equal(t, p1.Index, (*revealed)[0].Payload.(core.AlertPayload).Player)
	assert.False(t, p2.Revealed, "never had a hall to lose")
	assert.True(t, s.IsVisible(soldier, p2))
}

func TestRebuiltHallCancelsReveal(t *testing.T) {
	rules := testRules()
	rules.TownHallRevealDelay = 5
	s, p1, _ := newTestSim(t, rules)
	hall := place(s, "hall", p1, 5, 5)
	place(s, "soldier", p1, 2, 2)
	s.LetUnitDie(hall)
	s.Run(2)

	place(s, "hall", p1, 12, 12)
	s.Run(10)
	assert.False(t, p1.Revealed)
	assert.Zero(t, p1.RevealAtTick)
}

func TestLastUnitLostDefeatsPlayer(t *testing.T) {
	s, p1, p2 := newTestSim(t, testRules())
	u := place(s, "soldier", p1, 5, 5)
	defeats := collect(s, core.EvtPlayerDefeated)

	s.Step()
	require.False(t, p1.Defeated)

	s.LetUnitDie(u)
	s.Run(3)
	assert.True(t, p1.Defeated)
	assert.False(t, p2.Defeated, "players that never fielded anything stay in")
	require.Len(t, *defeats, 1)
	assert.Equal(t, p1.Index, (*defeats)[0].Payload.(core.AlertPayload).Player)
}

func TestDeathAnimationHoldsSlot(t *testing.T) {
	s, p1, _ := newTestSim(t, testRules())
	s.MustType("soldier").DeathAnim = 3
	u := place(s, "soldier", p1, 5, 5)
	slot := u.Slot

	s.LetUnitDie(u)
	assert.Equal(t, unit.ActionDie, u.CurrentAction())
	assert.False(t, u.Removed)

	s.Run(2)
	assert.NotNil(t, s.Pool.Get(slot))
	s.Step()
	assert.Nil(t, s.Pool.Get(slot))
}

func TestVeterancyPromotesOutsideCombat(t *testing.T) {
	s, p1, _ := newTestSim(t, testRules())
	u := place(s, "soldier", p1, 5, 5)
	u.Stats[unit.XPRequired] = unit.Variable{Value: 4, Max: 4, Enable: true}
	u.Stats[unit.XP] = unit.Variable{Value: 13, Max: 100, Enable: true}
	levels := collect(s, core.EvtLevelUp)

	s.Step()
	assert.Equal(t, 2, u.Stats.Get(unit.Level), "4 then 8 points")
	assert.Equal(t, 1, u.Stats.Get(unit.XP))
	assert.Equal(t, 16, u.Stats.Get(unit.XPRequired))
	assert.Len(t, *levels, 2)
}
