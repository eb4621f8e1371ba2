package unit

import (
	"github.com/rs/zerolog/log"

	"github.com/1siamBot/rts-simcore/engine/core"
)

// Seen records what players know about a unit they cannot see now
type Seen struct {
	ByPlayer  uint32 // players that have ever seen the unit
	Destroyed uint32 // players that saw it destroyed
	TilePos   core.TilePos
	MapLayer  int
}

// Unit is one in-game object
type Unit struct {
	Slot int
	Type *Type

	Player      *core.Player
	RescuedFrom *core.Player

	TilePos  core.TilePos
	Offset   core.PixelPos
	MapLayer int

	Stats             Table
	CurrentSightRange int

	Container   *Unit
	Inside      []*Unit
	InsideCount int
	BoardCount  int

	Refs      int
	Removed   bool
	Destroyed bool

	UnderConstruction bool
	BuildProgress     int // construction ticks done
	Burning           bool
	Moving            bool
	TTL               uint64
	Blink             int

	Orders        []*Order
	SavedOrder    *Order
	NewOrder      *Order
	CriticalOrder *Order

	VisCount [core.PlayerMax]int
	Seen     Seen
	Hidden   uint32 // players holding a reference while the unit is under fog

	LastAttack  uint64
	DamagedType string
	Threshold   int // retaliation persistence
	Cooldown    int // ticks until the next attack
	DeathTicks  int // remaining death animation

	ResourcesHeld int
	Workers       []*Unit // gatherers assigned to this resource
	Mine          *Unit   // resource this worker gathers from
	Carrying      core.Resource

	Goal      *Unit   // teleporter destination
	Sold      []*Unit // units for sale, kept outside the map
	Equipment map[string]string
	Character string
	Upgrades  map[string]bool // upgrades already applied

	pool *Pool
}

// Invariant logs a broken invariant and panics
func Invariant(u *Unit, msg string) {
	ev := log.Panic()
	if u != nil {
		ev = ev.Int("slot", u.Slot)
		if u.Type != nil {
			ev = ev.Str("type", u.Type.Ident)
		}
	}
	ev.Msg(msg)
}

// Init resets the unit from its type template
func (u *Unit) Init(t *Type) {
	*u = Unit{
		Slot:      u.Slot,
		pool:      u.pool,
		Type:      t,
		Stats:     t.Stats,
		Refs:      1,
		Removed:   true,
		Equipment: make(map[string]string),
		Upgrades:  make(map[string]bool),
	}
	u.Orders = []*Order{NewOrder(ActionStill)}
	u.ResourcesHeld = t.Stats.Get(GiveResource)
	UpdateSightRange(u)
}

// RefsIncrease takes a reference. Referencing a destroyed unit is a bug.
func (u *Unit) RefsIncrease() {
	if u.Destroyed {
		Invariant(u, "reference taken on destroyed unit")
	}
	u.Refs++
}

// RefsDecrease drops a reference and frees the slot when the last one of a
// destroyed unit goes.
func (u *Unit) RefsDecrease() {
	if u.Refs <= 0 {
		Invariant(u, "reference count underflow")
	}
	u.Refs--
	if u.Refs > 0 {
		return
	}
	if !u.Destroyed {
		Invariant(u, "last reference dropped on live unit")
	}
	if u.pool != nil {
		u.pool.release(u)
	}
}

// Release marks the unit destroyed and drops its base reference. Memory
// returns to the pool once all other holders let go.
func (u *Unit) Release() {
	if u.Type == nil {
		Invariant(u, "release of unit without type")
	}
	if u.Destroyed {
		Invariant(u, "unit released twice")
	}
	if !u.Removed {
		Invariant(u, "release of unit still on the map")
	}
	u.clearOrderGoals()
	u.Destroyed = true
	u.RefsDecrease()
}

// IsAlive reports whether the unit is in play
func (u *Unit) IsAlive() bool {
	return !u.Destroyed && u.CurrentAction() != ActionDie
}

// IsUnusable reports units that cannot act: dead, removed or being built
func (u *Unit) IsUnusable() bool {
	return !u.IsAlive() || u.Removed || u.UnderConstruction
}

// CanMove reports whether the unit moves on its own
func (u *Unit) CanMove() bool {
	return u.Type.CanMove && !u.Type.Building
}

// CanAttack reports whether the unit can attack at all
func (u *Unit) CanAttack() bool {
	if u.Type.CanAttack {
		return true
	}
	return u.Type.AttackFromTransporter && u.BoardCount > 0
}

// IsAggressive reports units that fight back on their own
func (u *Unit) IsAggressive() bool {
	return u.CanAttack() && !u.Type.Coward && u.Stats.Get(Terror) == 0
}

// IsEnemy reports whether u is hostile to o
func (u *Unit) IsEnemy(o *Unit) bool {
	return u.Player != nil && o.Player != nil && u.Player.IsEnemy(o.Player)
}

// IsAllied reports whether u and o share a side
func (u *Unit) IsAllied(o *Unit) bool {
	if u.Player == nil || o.Player == nil {
		return false
	}
	return u.Player == o.Player || u.Player.IsAllied(o.Player)
}

// Footprint returns the outermost container's tile rectangle
func (u *Unit) Footprint() (core.TilePos, int, int) {
	c := FirstContainer(u)
	return c.TilePos, c.Type.TileWidth, c.Type.TileHeight
}

// MapDistanceTo is the tile distance between the two footprints
func (u *Unit) MapDistanceTo(o *Unit) int {
	ap, aw, ah := u.Footprint()
	bp, bw, bh := o.Footprint()
	return core.RectDistance(ap, aw, ah, bp, bw, bh)
}

// DistanceToPos is the tile distance from the footprint to a tile
func (u *Unit) DistanceToPos(p core.TilePos) int {
	ap, aw, ah := u.Footprint()
	return core.RectDistance(ap, aw, ah, p, 1, 1)
}

// PixelCenter returns the unit's center in map pixels
func (u *Unit) PixelCenter() core.PixelPos {
	p, w, h := u.Footprint()
	c := core.TileCenter(p, w, h)
	return core.PixelPos{X: c.X + u.Offset.X, Y: c.Y + u.Offset.Y}
}

// UpdateSightRange recomputes the current sight range of u and everything
// inside it. The caller brackets this with sight unmark/mark.
func UpdateSightRange(u *Unit) {
	switch {
	case u.UnderConstruction:
		u.CurrentSightRange = 1
	case u.Container != nil:
		u.CurrentSightRange = max(u.Stats.Max(SightRange), u.Container.CurrentSightRange, 1)
	default:
		u.CurrentSightRange = max(u.Stats.Max(SightRange), 1)
	}
	for _, in := range u.Inside {
		UpdateSightRange(in)
	}
}

// ApplyUpgrade applies an upgrade once. It returns false when the upgrade
// does not fit the unit or conflicts with equipped gear.
func ApplyUpgrade(u *Unit, up *Upgrade) bool {
	if u.Upgrades[up.Ident] || !up.AppliesToType(u.Type) {
		return false
	}
	if up.EquipSlot != "" && u.Equipment[up.EquipSlot] != "" {
		return false
	}
	for _, m := range up.Modifiers {
		v := &u.Stats[m.Stat]
		v.Max += m.Max
		v.Increase += m.Increase
		u.Stats.Add(m.Stat, m.Value, false)
		if m.Max != 0 || m.Value != 0 {
			v.Enable = true
		}
	}
	u.Upgrades[up.Ident] = true
	return true
}
