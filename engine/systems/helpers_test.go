package systems

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1siamBot/rts-simcore/engine/config"
	"github.com/1siamBot/rts-simcore/engine/core"
	"github.com/1siamBot/rts-simcore/engine/maplib"
	"github.com/1siamBot/rts-simcore/engine/unit"
)

const landMask = maplib.FieldUnpassable | maplib.FieldWaterAllowed | maplib.FieldLandUnit | maplib.FieldBuilding

func stat(v int) unit.Variable {
	return unit.Variable{Value: v, Max: v, Enable: true}
}

func soldierType(ident string) *unit.Type {
	t := &unit.Type{
		Ident:          ident,
		CanMove:        true,
		CanAttack:      true,
		CanTarget:      unit.TargetLand,
		FieldFlags:     maplib.FieldLandUnit,
		MovementMask:   landMask,
		AttackCooldown: 5,
	}
	t.Stats[unit.HP] = stat(100)
	t.Stats[unit.SightRange] = stat(3)
	t.Stats[unit.AttackRange] = stat(1)
	t.Stats[unit.BasicDamage] = stat(10)
	t.Stats[unit.Speed] = stat(8)
	t.Stats[unit.Points] = stat(10)
	return t
}

func testRegistry(t *testing.T) *unit.Registry {
	t.Helper()
	reg := unit.NewRegistry()
	reg.RegisterMissile(&unit.MissileType{Ident: "arrow", Speed: 32})
	reg.RegisterMissile(&unit.MissileType{Ident: "shell", Speed: 64, Range: 1})
	reg.RegisterMissile(&unit.MissileType{Ident: "potion", ChangeStat: unit.HP, ChangeAmount: 50})

	soldier := soldierType("soldier")

	archer := soldierType("archer")
	archer.Missile = "arrow"
	archer.Stats[unit.AttackRange] = stat(4)
	archer.Stats[unit.SightRange] = stat(5)

	scout := soldierType("scout")
	scout.CanAttack = false
	scout.Coward = true
	scout.Stats[unit.SightRange] = stat(5)

	engineer := soldierType("engineer")
	engineer.RepairRange = 1

	grunt := soldierType("grunt")
	grunt.Corpse = "corpse"

	corpse := &unit.Type{Ident: "corpse", Vanishes: true}
	corpse.Stats[unit.SightRange] = stat(1)

	peasant := soldierType("peasant")
	peasant.CanAttack = false
	peasant.Stats[unit.HP] = stat(30)
	peasant.Stats[unit.CarryResource] = unit.Variable{Max: 5}

	tower := &unit.Type{
		Ident:           "tower",
		TileWidth:       2,
		TileHeight:      2,
		Building:        true,
		VisibleUnderFog: true,
		FieldFlags:      maplib.FieldBuilding,
		MovementMask:    landMask,
		BuildTicks:      4,
		Costs:           core.Costs{core.ResourceGold: 400, core.ResourceWood: 100},
	}
	tower.Stats[unit.HP] = stat(400)
	tower.Stats[unit.SightRange] = stat(4)
	tower.Stats[unit.Supply] = stat(4)

	hall := &unit.Type{
		Ident:        "hall",
		TileWidth:    2,
		TileHeight:   2,
		Building:     true,
		TownHall:     true,
		FieldFlags:   maplib.FieldBuilding,
		MovementMask: landMask,
	}
	hall.Stats[unit.HP] = stat(1000)
	hall.Stats[unit.SightRange] = stat(4)
	hall.Stats[unit.Supply] = stat(8)

	mine := &unit.Type{
		Ident:         "mine",
		Building:      true,
		GivesResource: true,
		Resource:      core.ResourceGold,
		FieldFlags:    maplib.FieldBuilding,
	}
	mine.Stats[unit.HP] = stat(100)
	mine.Stats[unit.GiveResource] = stat(3)

	transport := soldierType("transport")
	transport.CanAttack = false
	transport.MaxOnBoard = 4
	transport.Stats[unit.SightRange] = stat(2)

	wall := &unit.Type{
		Ident:        "wall",
		Building:     true,
		Wall:         true,
		FieldFlags:   maplib.FieldWall | maplib.FieldOpaque,
		MovementMask: landMask,
	}
	wall.Stats[unit.HP] = stat(200)

	for _, typ := range []*unit.Type{soldier, archer, scout, engineer, grunt, corpse, peasant, tower, hall, mine, transport, wall} {
		require.NoError(t, reg.Register(typ))
	}
	return reg
}

func testRules() config.RulesConfig {
	r := config.DefaultRules()
	r.Seed = 42
	r.ReleaseHoldTicks = 0
	return r
}

// newTestSim builds a 20x20 sim with two hostile human players
func newTestSim(t *testing.T, rules config.RulesConfig) (*Sim, *core.Player, *core.Player) {
	t.Helper()
	pm := core.NewPlayerManager()
	p1 := core.NewPlayer(0, "red", core.PlayerPerson)
	p1.TeamID = 1
	p2 := core.NewPlayer(1, "blue", core.PlayerPerson)
	p2.TeamID = 2
	pm.AddPlayer(p1)
	pm.AddPlayer(p2)

	m := maplib.NewMap(maplib.NewTileMap("test", 20, 20))
	s := NewSim(m, testRegistry(t), pm, rules)
	return s, p1, p2
}

func place(s *Sim, ident string, p *core.Player, x, y int) *unit.Unit {
	return s.MakeUnitAndPlace(core.TilePos{X: x, Y: y}, s.MustType(ident), p, 0)
}

func queued(s *Sim, typ core.EventType) []core.Event {
	var out []core.Event
	for _, e := range s.Bus.Queued() {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

// visionSnapshot copies every tile counter of one layer
func visionSnapshot(s *Sim, l maplib.VisionLayer) [][core.PlayerMax]int {
	tiles := s.Map.Layer(0).Tiles
	out := make([][core.PlayerMax]int, len(tiles))
	for i := range tiles {
		for p := 0; p < core.PlayerMax; p++ {
			out[i][p] = tiles[i].Vision.Count(l, p)
		}
	}
	return out
}

// checkCounters asserts that every unit's per-player counter equals the
// number of its footprint tiles the player currently sees.
func checkCounters(t *testing.T, s *Sim) {
	t.Helper()
	for _, u := range s.Pool.Units() {
		w, h := u.Type.TileSize()
		for p := 0; p < core.PlayerMax; p++ {
			want := 0
			if !u.Removed {
				l := visionLayer(u, p)
				s.Map.Footprint(u.TilePos, w, h, u.MapLayer, func(_ core.TilePos, tl *maplib.Tile) {
					if tl.Vision.Count(l, p) > 0 {
						want++
					}
				})
			}
			assert.Equal(t, want, u.VisCount[p], "slot %d player %d", u.Slot, p)
		}
	}
}

// checkAggregates recomputes what players derive from their units
func checkAggregates(t *testing.T, s *Sim) {
	t.Helper()
	for _, p := range s.Players.Players {
		counts := map[string]int{}
		supply, demand, halls := 0, 0, 0
		for _, u := range s.unitsOf(p) {
			assert.Same(t, p, u.Player, "slot %d", u.Slot)
			counts[u.Type.Ident]++
			demand += u.Stats.Get(unit.Demand)
			if u.UnderConstruction {
				continue
			}
			supply += u.Stats.Get(unit.Supply)
			if u.Type.TownHall {
				halls++
			}
		}
		assert.Equal(t, counts, p.UnitTypesCount, "player %d type counts", p.Index)
		assert.Equal(t, supply, p.Supply, "player %d supply", p.Index)
		assert.Equal(t, demand, p.Demand, "player %d demand", p.Index)
		assert.Equal(t, halls, p.NumTownHalls, "player %d town halls", p.Index)
	}
}
