package unit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1siamBot/rts-simcore/engine/core"
)

type flatCost int

func (c flatCost) MoveCost(core.TilePos, int) int { return int(c) }

func TestTableSetClampsToMax(t *testing.T) {
	var tbl Table
	tbl.SetMax(HP, 50)
	tbl.Set(HP, 80)
	assert.Equal(t, 50, tbl.Get(HP))

	tbl.Set(HP, -5)
	assert.Equal(t, 0, tbl.Get(HP))
}

func TestTableAdd(t *testing.T) {
	var tbl Table
	tbl.SetMax(XP, 10)

	tbl.Add(XP, 25, false)
	assert.Equal(t, 10, tbl.Get(XP))
	assert.Equal(t, 10, tbl.Max(XP))

	tbl.Add(XP, 25, true)
	assert.Equal(t, 35, tbl.Get(XP))
	assert.Equal(t, 35, tbl.Max(XP))
	assert.True(t, tbl[XP].Enable)
}

func TestSetMaxLowersValue(t *testing.T) {
	var tbl Table
	tbl.SetMax(Mana, 100)
	tbl.Set(Mana, 90)
	tbl.SetMax(Mana, 40)
	assert.Equal(t, 40, tbl.Get(Mana))
}

func TestParseStat(t *testing.T) {
	id, err := ParseStat("hitpoints")
	require.NoError(t, err)
	assert.Equal(t, HP, id)

	id, err = ParseStat("ShieldPermeability")
	require.NoError(t, err)
	assert.Equal(t, ShieldPermeability, id)

	id, err = ParseStat("HP")
	require.NoError(t, err)
	assert.Equal(t, HP, id)

	_, err = ParseStat("charisma")
	assert.Error(t, err)
}

func TestModifiedAttackRangeCappedBySight(t *testing.T) {
	p := NewPool(0)
	typ := testType("archer")
	typ.Stats[AttackRange] = Variable{Value: 8, Max: 8}
	u := p.Alloc(typ)

	assert.Equal(t, 8, u.Stats.Get(AttackRange), "raw value untouched")
	assert.Equal(t, 4, Modified(u, AttackRange, nil))
}

func TestModifiedSpeedFollowsTerrain(t *testing.T) {
	p := NewPool(0)
	typ := testType("rider")
	typ.Stats[Speed] = Variable{Value: 10, Max: 10}
	u := p.Alloc(typ)
	u.Removed = false

	assert.Equal(t, 10, Modified(u, Speed, flatCost(100)))
	assert.Equal(t, 5, Modified(u, Speed, flatCost(200)))

	u.Stats.SetMax(Haste, 1)
	u.Stats.Set(Haste, 1)
	assert.Equal(t, 10, Modified(u, Speed, flatCost(200)))
	assert.Equal(t, 10, u.Stats.Get(Speed))
}
