package unit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocStartsWithBaseReference(t *testing.T) {
	p := NewPool(0)
	u := p.Alloc(testType("a"))

	assert.Equal(t, 1, u.Refs)
	assert.True(t, u.Removed)
	assert.Equal(t, ActionStill, u.CurrentAction())
	assert.Equal(t, 100, u.Stats.Get(HP))
	assert.Equal(t, 4, u.CurrentSightRange)
	assert.Equal(t, 1, p.Live())
}

func TestReleaseWaitsForReferences(t *testing.T) {
	p := NewPool(0)
	u := p.Alloc(testType("a"))
	u.RefsIncrease()

	u.Release()
	assert.True(t, u.Destroyed)
	require.NotNil(t, p.Get(u.Slot), "still referenced")

	u.RefsDecrease()
	assert.Nil(t, p.Get(u.Slot))
	assert.Equal(t, 0, p.Live())
}

func TestReferenceInvariants(t *testing.T) {
	p := NewPool(0)
	u := p.Alloc(testType("a"))
	u.RefsIncrease()
	u.Release()

	assert.Panics(t, func() { u.RefsIncrease() }, "reference after destroy")
	assert.Panics(t, func() { u.Release() }, "double release")

	live := p.Alloc(testType("b"))
	assert.Panics(t, func() { live.RefsDecrease() }, "dropping base reference of a live unit")

	onMap := p.Alloc(testType("c"))
	onMap.Removed = false
	assert.Panics(t, func() { onMap.Release() })
}

func TestSlotHeldBeforeReuse(t *testing.T) {
	p := NewPool(3)
	u := p.Alloc(testType("a"))
	slot := u.Slot
	u.Release()
	require.Equal(t, 1, p.Pending())

	p.Collect(1)
	assert.NotEqual(t, slot, p.Alloc(testType("b")).Slot)

	p.Collect(3)
	assert.Zero(t, p.Pending())
	assert.Equal(t, slot, p.Alloc(testType("c")).Slot)
}

func TestOrderGoalHoldsReference(t *testing.T) {
	p := NewPool(0)
	a := p.Alloc(testType("a"))
	b := p.Alloc(testType("b"))

	o := NewOrder(ActionAttack)
	o.SetGoal(b)
	a.Command(o, true)
	assert.Equal(t, 2, b.Refs)

	b.Release()
	assert.NotNil(t, p.Get(b.Slot))

	assert.Equal(t, 1, a.DropDeadGoals())
	assert.Nil(t, p.Get(b.Slot))
	assert.True(t, a.CurrentOrder().Finished)
}

func TestRestoreKeepsSlot(t *testing.T) {
	p := NewPool(0)
	u := p.Restore(5, testType("a"))
	assert.Equal(t, 5, u.Slot)
	assert.Same(t, u, p.Get(5))
	assert.Nil(t, p.Get(2))
	assert.Panics(t, func() { p.Restore(5, testType("b")) })
}
