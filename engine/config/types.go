package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/1siamBot/rts-simcore/engine/core"
	"github.com/1siamBot/rts-simcore/engine/maplib"
	"github.com/1siamBot/rts-simcore/engine/unit"
)

// TypeDef is the file form of a unit type
type TypeDef struct {
	Ident  string `mapstructure:"ident"`
	Name   string `mapstructure:"name"`
	Width  int    `mapstructure:"width"`
	Height int    `mapstructure:"height"`
	Kind   string `mapstructure:"kind"` // land, fly or naval

	Stats   map[string]int `mapstructure:"stats"`
	StatMax map[string]int `mapstructure:"statMax"`

	Flags        []string `mapstructure:"flags"`
	FieldFlags   []string `mapstructure:"fieldFlags"`
	MovementMask []string `mapstructure:"movementMask"`
	CanTarget    []string `mapstructure:"canTarget"`
	Tags         []string `mapstructure:"tags"`

	PriorityTargets map[string]bool `mapstructure:"priorityTargets"`

	MaxOnBoard     int    `mapstructure:"maxOnBoard"`
	BoardSize      int    `mapstructure:"boardSize"`
	RepairRange    int    `mapstructure:"repairRange"`
	AttackCooldown int    `mapstructure:"attackCooldown"`
	Missile        string `mapstructure:"missile"`
	DamageType     string `mapstructure:"damageType"`
	ArmorClass     string `mapstructure:"armorClass"`

	Costs         map[string]int `mapstructure:"costs"`
	BuildTicks    int            `mapstructure:"buildTicks"`
	Storing       map[string]int `mapstructure:"storing"`
	ImproveIncome map[string]int `mapstructure:"improveIncome"`
	Resource      string         `mapstructure:"resource"`

	ReplaceOnDie string   `mapstructure:"replaceOnDie"`
	Corpse       string   `mapstructure:"corpse"`
	DeathAnim    int      `mapstructure:"deathAnim"`
	Drops        []string `mapstructure:"drops"`
	Explosion    string   `mapstructure:"explosion"`
}

// MissileDef is the file form of a missile type
type MissileDef struct {
	Ident        string `mapstructure:"ident"`
	Speed        int    `mapstructure:"speed"`
	Range        int    `mapstructure:"range"`
	Damage       int    `mapstructure:"damage"`
	ChangeStat   string `mapstructure:"changeStat"`
	ChangeAmount int    `mapstructure:"changeAmount"`
	ChangeMax    bool   `mapstructure:"changeMax"`
}

// UpgradeDef is the file form of an upgrade
type UpgradeDef struct {
	Ident     string        `mapstructure:"ident"`
	AppliesTo []string      `mapstructure:"appliesTo"`
	EquipSlot string        `mapstructure:"equipSlot"`
	Modifiers []ModifierDef `mapstructure:"modifiers"`
}

// ModifierDef is one stat change of an upgrade
type ModifierDef struct {
	Stat     string `mapstructure:"stat"`
	Value    int    `mapstructure:"value"`
	Max      int    `mapstructure:"max"`
	Increase int    `mapstructure:"increase"`
}

// TypesFile is the whole types file
type TypesFile struct {
	Types    []TypeDef    `mapstructure:"types"`
	Missiles []MissileDef `mapstructure:"missiles"`
	Upgrades []UpgradeDef `mapstructure:"upgrades"`
}

var typeFlags = map[string]func(*unit.Type){
	"building":              func(t *unit.Type) { t.Building = true },
	"vanishes":              func(t *unit.Type) { t.Vanishes = true },
	"visibleunderfog":       func(t *unit.Type) { t.VisibleUnderFog = true },
	"permanentcloak":        func(t *unit.Type) { t.PermanentCloak = true },
	"detectcloak":           func(t *unit.Type) { t.DetectCloak = true },
	"ethereal":              func(t *unit.Type) { t.Ethereal = true },
	"detectethereal":        func(t *unit.Type) { t.DetectEthereal = true },
	"indestructible":        func(t *unit.Type) { t.Indestructible = true },
	"canattack":             func(t *unit.Type) { t.CanAttack = true },
	"coward":                func(t *unit.Type) { t.Coward = true },
	"organic":               func(t *unit.Type) { t.Organic = true },
	"wall":                  func(t *unit.Type) { t.Wall = true },
	"bridge":                func(t *unit.Type) { t.Bridge = true },
	"teleporter":            func(t *unit.Type) { t.Teleporter = true },
	"townhall":              func(t *unit.Type) { t.TownHall = true },
	"revealattacker":        func(t *unit.Type) { t.RevealAttacker = true },
	"canmove":               func(t *unit.Type) { t.CanMove = true },
	"attackfromtransporter": func(t *unit.Type) { t.AttackFromTransporter = true },
	"savecargo":             func(t *unit.Type) { t.SaveCargo = true },
	"givesresource":         func(t *unit.Type) { t.GivesResource = true },
}

var resourceNames = map[string]core.Resource{
	"gold": core.ResourceGold,
	"wood": core.ResourceWood,
	"oil":  core.ResourceOil,
	"ore":  core.ResourceOre,
}

// LoadTypes reads a types file (JSON or YAML, by extension) into reg.
func LoadTypes(path string, reg *unit.Registry) error {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading types file: %v", err)
	}
	var f TypesFile
	if err := v.Unmarshal(&f); err != nil {
		return fmt.Errorf("decode types file %s: %w", path, err)
	}
	return Register(f, reg)
}

// Register converts and registers every definition of f
func Register(f TypesFile, reg *unit.Registry) error {
	for _, md := range f.Missiles {
		m, err := md.Build()
		if err != nil {
			return err
		}
		reg.RegisterMissile(m)
	}
	for _, ud := range f.Upgrades {
		up, err := ud.Build()
		if err != nil {
			return err
		}
		reg.RegisterUpgrade(up)
	}
	for _, td := range f.Types {
		t, err := td.Build()
		if err != nil {
			return err
		}
		if err := reg.Register(t); err != nil {
			return err
		}
	}
	return nil
}

// Build converts the definition into a unit type
func (d TypeDef) Build() (*unit.Type, error) {
	t := &unit.Type{
		Ident:             d.Ident,
		Name:              d.Name,
		TileWidth:         d.Width,
		TileHeight:        d.Height,
		Tags:              d.Tags,
		AIPriorityTargets: d.PriorityTargets,
		MaxOnBoard:        d.MaxOnBoard,
		BoardSize:         d.BoardSize,
		RepairRange:       d.RepairRange,
		AttackCooldown:    d.AttackCooldown,
		Missile:           d.Missile,
		DamageType:        d.DamageType,
		ArmorClass:        d.ArmorClass,
		BuildTicks:        d.BuildTicks,
		ReplaceOnDie:      d.ReplaceOnDie,
		Corpse:            d.Corpse,
		DeathAnim:         d.DeathAnim,
		Drops:             d.Drops,
		Explosion:         d.Explosion,
	}
	if t.Name == "" {
		t.Name = d.Ident
	}

	switch strings.ToLower(d.Kind) {
	case "", "land":
		t.Kind = unit.KindLand
	case "fly", "air":
		t.Kind = unit.KindFly
	case "naval", "sea":
		t.Kind = unit.KindNaval
	default:
		return nil, fmt.Errorf("type %s: unknown kind %q", d.Ident, d.Kind)
	}

	for _, name := range d.Flags {
		set, ok := typeFlags[strings.ToLower(name)]
		if !ok {
			return nil, fmt.Errorf("type %s: unknown flag %q", d.Ident, name)
		}
		set(t)
	}

	for name, val := range d.Stats {
		id, err := unit.ParseStat(name)
		if err != nil {
			return nil, fmt.Errorf("type %s: %w", d.Ident, err)
		}
		t.Stats[id] = unit.Variable{Value: val, Max: val, Enable: true}
	}
	for name, max := range d.StatMax {
		id, err := unit.ParseStat(name)
		if err != nil {
			return nil, fmt.Errorf("type %s: %w", d.Ident, err)
		}
		t.Stats[id].Max = max
		t.Stats[id].Enable = true
	}

	var err error
	if t.FieldFlags, err = maplib.ParseFieldFlags(d.FieldFlags); err != nil {
		return nil, fmt.Errorf("type %s: %w", d.Ident, err)
	}
	if t.MovementMask, err = maplib.ParseFieldFlags(d.MovementMask); err != nil {
		return nil, fmt.Errorf("type %s: %w", d.Ident, err)
	}
	if len(d.FieldFlags) == 0 {
		t.FieldFlags = defaultFieldFlags(t)
	}
	if len(d.MovementMask) == 0 {
		t.MovementMask = defaultMovementMask(t)
	}

	for _, tgt := range d.CanTarget {
		switch strings.ToLower(tgt) {
		case "land":
			t.CanTarget |= unit.TargetLand
		case "sea":
			t.CanTarget |= unit.TargetSea
		case "air":
			t.CanTarget |= unit.TargetAir
		default:
			return nil, fmt.Errorf("type %s: unknown target %q", d.Ident, tgt)
		}
	}

	for _, c := range []struct {
		src map[string]int
		dst *core.Costs
	}{{d.Costs, &t.Costs}, {d.Storing, &t.Storing}, {d.ImproveIncome, &t.ImproveIncome}} {
		for name, v := range c.src {
			r, ok := resourceNames[strings.ToLower(name)]
			if !ok {
				return nil, fmt.Errorf("type %s: unknown resource %q", d.Ident, name)
			}
			c.dst[r] = v
		}
	}
	if d.Resource != "" {
		r, ok := resourceNames[strings.ToLower(d.Resource)]
		if !ok {
			return nil, fmt.Errorf("type %s: unknown resource %q", d.Ident, d.Resource)
		}
		t.Resource = r
	}
	return t, nil
}

func defaultFieldFlags(t *unit.Type) maplib.FieldFlag {
	switch {
	case t.Building:
		return maplib.FieldBuilding
	case t.Kind == unit.KindFly:
		return maplib.FieldAirUnit
	case t.Kind == unit.KindNaval:
		return maplib.FieldSeaUnit
	default:
		return maplib.FieldLandUnit
	}
}

func defaultMovementMask(t *unit.Type) maplib.FieldFlag {
	switch {
	case t.Building:
		return maplib.FieldUnpassable | maplib.FieldNoBuilding | maplib.FieldWall | maplib.FieldRocks |
			maplib.FieldForest | maplib.FieldLandUnit | maplib.FieldSeaUnit | maplib.FieldBuilding
	case t.Kind == unit.KindFly:
		return maplib.FieldAirUnit
	case t.Kind == unit.KindNaval:
		return maplib.FieldLandAllowed | maplib.FieldUnpassable | maplib.FieldSeaUnit | maplib.FieldBuilding
	default:
		return maplib.FieldUnpassable | maplib.FieldWaterAllowed | maplib.FieldWall | maplib.FieldRocks |
			maplib.FieldForest | maplib.FieldLandUnit | maplib.FieldBuilding
	}
}

// Build converts the definition into a missile type
func (d MissileDef) Build() (*unit.MissileType, error) {
	m := &unit.MissileType{
		Ident:        d.Ident,
		Speed:        d.Speed,
		Range:        d.Range,
		Damage:       d.Damage,
		ChangeAmount: d.ChangeAmount,
		ChangeMax:    d.ChangeMax,
	}
	if m.Speed <= 0 {
		m.Speed = unit.DefaultMissileSpeed
	}
	if d.ChangeStat != "" {
		id, err := unit.ParseStat(d.ChangeStat)
		if err != nil {
			return nil, fmt.Errorf("missile %s: %w", d.Ident, err)
		}
		m.ChangeStat = id
	}
	return m, nil
}

// Build converts the definition into an upgrade
func (d UpgradeDef) Build() (*unit.Upgrade, error) {
	up := &unit.Upgrade{Ident: d.Ident, AppliesTo: d.AppliesTo, EquipSlot: d.EquipSlot}
	for _, md := range d.Modifiers {
		id, err := unit.ParseStat(md.Stat)
		if err != nil {
			return nil, fmt.Errorf("upgrade %s: %w", d.Ident, err)
		}
		up.Modifiers = append(up.Modifiers, unit.Modifier{Stat: id, Value: md.Value, Max: md.Max, Increase: md.Increase})
	}
	return up, nil
}
