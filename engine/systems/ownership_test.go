package systems

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1siamBot/rts-simcore/engine/core"
	"github.com/1siamBot/rts-simcore/engine/unit"
)

func totalUnits(s *Sim) int {
	n := 0
	for _, p := range s.Players.Players {
		n += p.UnitCount()
	}
	return n
}

func TestChangeOwnerMovesAggregates(t *testing.T) {
	s, p1, p2 := newTestSim(t, testRules())
	tower := place(s, "tower", p1, 5, 5)
	place(s, "soldier", p1, 2, 2)
	place(s, "soldier", p2, 15, 15)
	before := totalUnits(s)

	require.NoError(t, s.ChangeOwner(tower, p2, true))

	assert.Equal(t, before, totalUnits(s))
	assert.Same(t, p2, tower.Player)
	assert.True(t, p2.HasUnit(tower.Slot))
	assert.False(t, p1.HasUnit(tower.Slot))
	assert.Equal(t, 1, p2.UnitTypesCount["tower"])
	assert.Zero(t, p1.UnitTypesCount["tower"])
	assert.Equal(t, 1, p2.TotalBuildings)
	assert.Equal(t, 5, tower.Blink)
	assert.Len(t, queued(s, core.EvtOwnerChanged), 1)
	checkAggregates(t, s)
	checkCounters(t, s)
}

func TestChangeOwnerToSameOwnerIsRefused(t *testing.T) {
	s, p1, _ := newTestSim(t, testRules())
	u := place(s, "soldier", p1, 5, 5)
	counts := p1.UnitTypesCount["soldier"]

	assert.ErrorIs(t, s.ChangeOwner(u, p1, true), ErrSameOwner)
	assert.Equal(t, counts, p1.UnitTypesCount["soldier"])
	assert.Zero(t, u.Blink)
	assert.Empty(t, queued(s, core.EvtOwnerChanged))
}

func TestChangeOwnerRefusesDeadUnits(t *testing.T) {
	s, p1, p2 := newTestSim(t, testRules())
	u := place(s, "grunt", p1, 5, 5)
	s.LetUnitDie(u)

	assert.ErrorIs(t, s.ChangeOwner(u, p2, false), ErrNotAlive)
	assert.ErrorIs(t, s.ChangeOwner(u, nil, false), ErrNoPlayer)
}

func TestChangeOwnerAppliesNewUpgrades(t *testing.T) {
	s, p1, p2 := newTestSim(t, testRules())
	s.Types.RegisterUpgrade(&unit.Upgrade{
		Ident:     "plate",
		AppliesTo: []string{"soldier"},
		Modifiers: []unit.Modifier{{Stat: unit.Armor, Value: 2, Max: 2}},
	})
	s.Types.RegisterUpgrade(&unit.Upgrade{
		Ident:     "eyes",
		AppliesTo: []string{"soldier"},
		Modifiers: []unit.Modifier{{Stat: unit.SightRange, Value: 2, Max: 2}},
	})
	p1.Upgrades["eyes"] = true
	p2.Upgrades["plate"] = true
	p2.Upgrades["eyes"] = true

	u := place(s, "soldier", p1, 5, 5)
	require.Equal(t, 5, u.CurrentSightRange)

	require.NoError(t, s.ChangeOwner(u, p2, false))
	assert.Equal(t, 2, u.Stats.Get(unit.Armor))
	assert.Equal(t, 5, u.Stats.Max(unit.SightRange), "upgrades both players share apply once")
	checkCounters(t, s)
}

func TestChangeOwnerSwapsVision(t *testing.T) {
	s, p1, p2 := newTestSim(t, testRules())
	u := place(s, "soldier", p1, 5, 5)
	require.True(t, s.TileVisible(p1, core.TilePos{X: 7, Y: 5}, 0))

	require.NoError(t, s.ChangeOwner(u, p2, false))
	assert.False(t, s.TileVisible(p1, core.TilePos{X: 7, Y: 5}, 0))
	assert.True(t, s.TileVisible(p2, core.TilePos{X: 7, Y: 5}, 0))
	assert.Equal(t, 1, u.VisCount[p2.Index])
	assert.Zero(t, u.VisCount[p1.Index])
}

func TestRescueOnContact(t *testing.T) {
	s, p1, _ := newTestSim(t, testRules())
	captives := core.NewPlayer(2, "captives", core.PlayerRescuePassive)
	captives.TeamID = 3
	s.Players.AddPlayer(captives)

	u := place(s, "scout", captives, 5, 5)
	place(s, "peasant", p1, 8, 8)
	s.Step()
	require.Same(t, captives, u.Player, "nobody close yet")

	place(s, "peasant", p1, 6, 5)
	s.Step()
	assert.Same(t, p1, u.Player)
	assert.Same(t, captives, u.RescuedFrom)
	checkAggregates(t, s)
}

func TestRescueTakesPassengers(t *testing.T) {
	s, p1, _ := newTestSim(t, testRules())
	captives := core.NewPlayer(2, "captives", core.PlayerRescueActive)
	captives.TeamID = 3
	s.Players.AddPlayer(captives)

	host := place(s, "transport", captives, 5, 5)
	rider := place(s, "scout", captives, 9, 9)
	s.PutInContainer(rider, host)

	require.NoError(t, s.ChangeOwner(host, p1, false))
	assert.Same(t, p1, rider.Player)
	assert.Zero(t, captives.UnitCount())
	checkAggregates(t, s)
}
