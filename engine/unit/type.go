package unit

import (
	"fmt"
	"sort"

	"github.com/1siamBot/rts-simcore/engine/core"
	"github.com/1siamBot/rts-simcore/engine/maplib"
)

// Kind is the movement domain of a type
type Kind uint8

const (
	KindLand Kind = iota
	KindFly
	KindNaval
)

// TargetMask selects which kinds a unit can attack
type TargetMask uint8

const (
	TargetLand TargetMask = 1 << iota
	TargetSea
	TargetAir
)

// HitFunc is a scripted hook on a type. attacker may be nil.
type HitFunc func(target, attacker *Unit, damage int)

// Type is the shared, read-only template of a unit
type Type struct {
	Ident string
	Name  string
	Slot  int // registry index

	TileWidth, TileHeight int
	Kind                  Kind
	Stats                 Table // defaults copied into new units

	FieldFlags   maplib.FieldFlag // projected while on the map
	MovementMask maplib.FieldFlag // tile flags that block this type

	Building          bool
	Vanishes          bool
	VisibleUnderFog   bool
	PermanentCloak    bool
	DetectCloak       bool
	Ethereal          bool
	DetectEthereal    bool
	Indestructible    bool
	CanAttack         bool
	CanTarget         TargetMask
	Coward            bool
	Organic           bool
	Wall              bool
	Bridge            bool // land units may stand on it
	Teleporter        bool
	TownHall          bool
	RevealAttacker    bool
	CanMove           bool
	Tags              []string
	AIPriorityTargets map[string]bool // tag -> preferred (true) or avoided (false)

	// transport
	MaxOnBoard            int
	BoardSize             int
	AttackFromTransporter bool
	SaveCargo             bool

	RepairRange    int
	AttackCooldown int // ticks between attacks
	Missile        string
	DamageType     string
	ArmorClass     string

	Costs         core.Costs
	BuildTicks    int        // training or construction time
	Storing       core.Costs // raises the owner's storage cap
	ImproveIncome core.Costs
	GivesResource bool
	Resource      core.Resource

	ReplaceOnDie string   // ruin type spawned on death
	Corpse       string   // corpse type swapped in on death
	DeathAnim    int      // ticks of death animation, 0 for none
	Drops        []string // loot types
	Explosion    string   // missile spawned when killed

	OnHit   HitFunc
	OnDeath HitFunc
}

// TileSize returns the footprint in tiles
func (t *Type) TileSize() (int, int) {
	return t.TileWidth, t.TileHeight
}

// HasTag reports whether the type carries a tag
func (t *Type) HasTag(tag string) bool {
	for _, x := range t.Tags {
		if x == tag {
			return true
		}
	}
	return false
}

// CanTargetType reports whether t can attack units of type o
func (t *Type) CanTargetType(o *Type) bool {
	if !t.CanAttack {
		return false
	}
	switch o.Kind {
	case KindFly:
		return t.CanTarget&TargetAir != 0
	case KindNaval:
		return t.CanTarget&TargetSea != 0
	default:
		return t.CanTarget&TargetLand != 0
	}
}

// DefaultMissileSpeed is used by missiles that do not set a speed
const DefaultMissileSpeed = 16

// MissileType describes a projectile
type MissileType struct {
	Ident string
	Speed  int // pixels per tick
	Range  int // splash radius in tiles, 0 for a single target
	Damage int // used when nothing fires it, as for explosions

	// stat change applied to the target on impact
	ChangeStat   StatID
	ChangeAmount int
	ChangeMax    bool

	OnImpact HitFunc
}

// Modifier changes one stat of a unit
type Modifier struct {
	Stat     StatID
	Value    int
	Max      int
	Increase int
}

// Upgrade is a researched improvement applied to matching unit types
type Upgrade struct {
	Ident     string
	AppliesTo []string // type idents
	EquipSlot string   // conflicts with equipped gear in this slot
	Modifiers []Modifier
}

// AppliesToType reports whether the upgrade affects t
func (up *Upgrade) AppliesToType(t *Type) bool {
	for _, id := range up.AppliesTo {
		if id == t.Ident {
			return true
		}
	}
	return false
}

// Registry is the type template provider
type Registry struct {
	types    map[string]*Type
	ordered  []*Type
	missiles map[string]*MissileType
	upgrades map[string]*Upgrade
}

func NewRegistry() *Registry {
	return &Registry{
		types:    make(map[string]*Type),
		missiles: make(map[string]*MissileType),
		upgrades: make(map[string]*Upgrade),
	}
}

// Register adds a type. Footprint defaults to 1x1 and every stat without
// a ceiling gets its value as ceiling.
func (r *Registry) Register(t *Type) error {
	if t.Ident == "" {
		return fmt.Errorf("register type: empty ident")
	}
	if _, ok := r.types[t.Ident]; ok {
		return fmt.Errorf("register type %s: duplicate", t.Ident)
	}
	if t.TileWidth <= 0 {
		t.TileWidth = 1
	}
	if t.TileHeight <= 0 {
		t.TileHeight = 1
	}
	for i := range t.Stats {
		if t.Stats[i].Max < t.Stats[i].Value {
			t.Stats[i].Max = t.Stats[i].Value
		}
	}
	t.Slot = len(r.ordered)
	r.types[t.Ident] = t
	r.ordered = append(r.ordered, t)
	return nil
}

// Lookup returns the type with the given ident
func (r *Registry) Lookup(ident string) (*Type, bool) {
	t, ok := r.types[ident]
	return t, ok
}

// Types returns all registered types in registration order
func (r *Registry) Types() []*Type {
	return r.ordered
}

func (r *Registry) RegisterMissile(m *MissileType) {
	r.missiles[m.Ident] = m
}

func (r *Registry) Missile(ident string) (*MissileType, bool) {
	m, ok := r.missiles[ident]
	return m, ok
}

func (r *Registry) RegisterUpgrade(up *Upgrade) {
	r.upgrades[up.Ident] = up
}

func (r *Registry) Upgrade(ident string) (*Upgrade, bool) {
	up, ok := r.upgrades[ident]
	return up, ok
}

// Upgrades returns the upgrades sorted by ident
func (r *Registry) Upgrades() []*Upgrade {
	out := make([]*Upgrade, 0, len(r.upgrades))
	for _, up := range r.upgrades {
		out = append(out, up)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ident < out[j].Ident })
	return out
}
