package unit

import (
	"fmt"
	"strings"

	"github.com/1siamBot/rts-simcore/engine/core"
)

// StatID indexes the stat table
type StatID uint8

const (
	HP StatID = iota
	Mana
	Shield
	ShieldPermeability // percent of damage that bypasses the shield
	ShieldPiercing
	SightRange
	AttackRange
	MinAttackRange
	ReactRange
	Armor
	BasicDamage
	PiercingDamage
	Speed
	XP
	XPRequired
	Level
	Kill
	Supply
	Demand
	Points
	Priority
	Radar
	RadarJammer
	UnholyArmor
	Terror
	Raid // percent of the target's cost stolen per full HP of damage
	Slow
	Haste
	TradeCost
	GiveResource
	CarryResource
	BurnResistance
	NumStats
)

var statNames = [NumStats]string{
	"HitPoints", "Mana", "Shield", "ShieldPermeability", "ShieldPiercing",
	"SightRange", "AttackRange", "MinAttackRange", "ReactRange", "Armor",
	"BasicDamage", "PiercingDamage", "Speed", "Xp", "XpRequired", "Level",
	"Kill", "Supply", "Demand", "Points", "Priority", "Radar", "RadarJammer",
	"UnholyArmor", "Terror", "Raid", "Slow", "Haste", "TradeCost",
	"GiveResource", "CarryResource", "BurnResistance",
}

func (id StatID) String() string {
	if id < NumStats {
		return statNames[id]
	}
	return fmt.Sprintf("stat(%d)", id)
}

// short names accepted besides the full ones
var statAliases = map[string]StatID{
	"hp": HP,
	"xp": XP,
}

// ParseStat resolves a stat name, case-insensitively
func ParseStat(name string) (StatID, error) {
	if id, ok := statAliases[strings.ToLower(name)]; ok {
		return id, nil
	}
	for i, n := range statNames {
		if strings.EqualFold(n, name) {
			return StatID(i), nil
		}
	}
	return 0, fmt.Errorf("unknown stat %q", name)
}

// Variable is one stat entry
type Variable struct {
	Value    int  `json:"value"`
	Max      int  `json:"max"`
	Increase int  `json:"increase"` // per regeneration cycle
	Enable   bool `json:"enable"`
}

// Table holds every stat of a unit or the defaults of a type
type Table [NumStats]Variable

// Get returns the raw value
func (t *Table) Get(id StatID) int {
	return t[id].Value
}

// Max returns the raw ceiling
func (t *Table) Max(id StatID) int {
	return t[id].Max
}

// Set stores v, clamped to [0, Max]
func (t *Table) Set(id StatID, v int) {
	t[id].Value = clampStat(v, t[id].Max)
}

// SetMax changes the ceiling and clamps the value under it
func (t *Table) SetMax(id StatID, max int) {
	t[id].Max = max
	t[id].Value = clampStat(t[id].Value, max)
}

// Add changes the value by delta. With raiseMax the ceiling follows the
// value upward, otherwise the value is clamped.
func (t *Table) Add(id StatID, delta int, raiseMax bool) {
	v := t[id].Value + delta
	if raiseMax && v > t[id].Max {
		t[id].Max = v
	}
	t[id].Value = clampStat(v, t[id].Max)
	if delta != 0 {
		t[id].Enable = true
	}
}

// Percent returns value*100/max, 100 for stats without a ceiling
func (t *Table) Percent(id StatID) int {
	if t[id].Max <= 0 {
		return 100
	}
	return t[id].Value * 100 / t[id].Max
}

func clampStat(v, max int) int {
	if v > max {
		v = max
	}
	if v < 0 {
		v = 0
	}
	return v
}

// TerrainCoster reports the movement cost percentage of a tile
type TerrainCoster interface {
	MoveCost(p core.TilePos, layer int) int
}

// Modified returns a stat with contextual adjustments layered on the raw
// value. terrain may be nil.
func Modified(u *Unit, id StatID, terrain TerrainCoster) int {
	v := u.Stats.Get(id)
	switch id {
	case AttackRange:
		if u.CurrentSightRange > 0 && v > u.CurrentSightRange {
			v = u.CurrentSightRange
		}
	case Speed:
		if u.Stats.Get(Slow) > 0 {
			v /= 2
		}
		if u.Stats.Get(Haste) > 0 {
			v *= 2
		}
		if terrain != nil && !u.Removed {
			if cost := terrain.MoveCost(u.TilePos, u.MapLayer); cost > 0 {
				v = v * 100 / cost
			}
		}
	case Armor:
		if u.Stats.Get(UnholyArmor) > 0 {
			v += 100
		}
	}
	return v
}
