package maplib

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/1siamBot/rts-simcore/engine/core"
)

// TerrainType defines the terrain of a tile
type TerrainType uint8

const (
	TerrainGrass TerrainType = iota
	TerrainDirt
	TerrainSand
	TerrainWater
	TerrainDeepWater
	TerrainRock
	TerrainCliff
	TerrainRoad
	TerrainBridge
	TerrainOre
	TerrainForest
	TerrainWall
)

// FieldFlag is the per-tile occupancy and passability mask
type FieldFlag uint16

const (
	FieldLandAllowed FieldFlag = 1 << iota
	FieldCoastAllowed
	FieldWaterAllowed
	FieldNoBuilding
	FieldUnpassable
	FieldWall
	FieldRocks
	FieldForest
	FieldLandUnit
	FieldAirUnit
	FieldSeaUnit
	FieldBuilding
	FieldDecorative
	FieldOpaque // blocks line of sight
)

// Tile represents a single map tile
type Tile struct {
	Terrain   TerrainType `json:"terrain"`
	Flags     FieldFlag   `json:"flags"` // terrain flags
	Cost      int         `json:"cost"` // movement cost in percent, 100 is normal
	Variant   uint8       `json:"variant"`
	OreAmount int         `json:"ore"` // resource amount (0 = none)

	// UnitFlags are projected by the units standing here
	UnitFlags FieldFlag `json:"-"`
	Vision    Vision    `json:"-"`
	units     []int     // slots of on-map units whose footprint covers this tile
}

// Field returns the terrain and unit flags of the tile
func (t *Tile) Field() FieldFlag {
	return t.Flags | t.UnitFlags
}

// Opaque reports whether the tile blocks line of sight
func (t *Tile) Opaque() bool {
	return t.Field()&FieldOpaque != 0
}

// TileMap is one map layer
type TileMap struct {
	Name   string `json:"name"`
	Author string `json:"author"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Tiles  []Tile `json:"tiles"`

	// Map metadata
	StartPositions []StartPos `json:"start_positions"`
	Description    string     `json:"description"`
	MaxPlayers     int        `json:"max_players"`
}

// StartPos defines a player start position
type StartPos struct {
	PlayerSlot int `json:"player_slot"`
	X          int `json:"x"`
	Y          int `json:"y"`
}

// NewTileMap creates a new empty map
func NewTileMap(name string, width, height int) *TileMap {
	tm := &TileMap{
		Name:       name,
		Width:      width,
		Height:     height,
		Tiles:      make([]Tile, width*height),
		MaxPlayers: 2,
	}

	// Default all tiles to grass
	for i := range tm.Tiles {
		tm.Tiles[i] = Tile{
			Terrain: TerrainGrass,
			Flags:   terrainFlags(TerrainGrass),
			Cost:    terrainCost(TerrainGrass),
		}
	}

	return tm
}

// At returns a pointer to the tile at (x, y)
func (tm *TileMap) At(x, y int) *Tile {
	if x < 0 || y < 0 || x >= tm.Width || y >= tm.Height {
		return nil
	}
	return &tm.Tiles[y*tm.Width+x]
}

// InBounds checks if coordinates are within map bounds
func (tm *TileMap) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < tm.Width && y < tm.Height
}

// Clamp moves p onto the map
func (tm *TileMap) Clamp(p core.TilePos) core.TilePos {
	p.X = min(max(p.X, 0), tm.Width-1)
	p.Y = min(max(p.Y, 0), tm.Height-1)
	return p
}

// SaveJSON saves the map to a JSON file
func (tm *TileMap) SaveJSON(path string) error {
	data, err := json.MarshalIndent(tm, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadJSON loads a map from a JSON file
func LoadJSON(path string) (*TileMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var tm TileMap
	if err := json.Unmarshal(data, &tm); err != nil {
		return nil, fmt.Errorf("decode map %s: %w", path, err)
	}
	if len(tm.Tiles) != tm.Width*tm.Height {
		return nil, fmt.Errorf("map %s: %d tiles for %dx%d", path, len(tm.Tiles), tm.Width, tm.Height)
	}
	for i := range tm.Tiles {
		if tm.Tiles[i].Cost == 0 {
			tm.Tiles[i].Cost = terrainCost(tm.Tiles[i].Terrain)
		}
	}
	return &tm, nil
}

// SetTerrain sets terrain for a rectangular region
func (tm *TileMap) SetTerrain(x1, y1, x2, y2 int, terrain TerrainType) {
	for y := y1; y <= y2; y++ {
		for x := x1; x <= x2; x++ {
			if t := tm.At(x, y); t != nil {
				t.Terrain = terrain
				t.Flags = terrainFlags(terrain)
				t.Cost = terrainCost(terrain)
			}
		}
	}
}

// PlaceOre places ore resources at a position
func (tm *TileMap) PlaceOre(x, y, amount int) {
	if t := tm.At(x, y); t != nil {
		t.Terrain = TerrainOre
		t.OreAmount = amount
	}
}

func terrainFlags(t TerrainType) FieldFlag {
	switch t {
	case TerrainWater, TerrainDeepWater:
		return FieldWaterAllowed | FieldNoBuilding
	case TerrainCliff:
		return FieldUnpassable | FieldNoBuilding
	case TerrainRock:
		return FieldRocks | FieldUnpassable | FieldNoBuilding
	case TerrainForest:
		return FieldForest | FieldUnpassable | FieldOpaque
	case TerrainWall:
		return FieldWall | FieldUnpassable | FieldOpaque
	case TerrainBridge:
		return FieldLandAllowed | FieldNoBuilding
	default:
		return FieldLandAllowed
	}
}

func terrainCost(t TerrainType) int {
	switch t {
	case TerrainRoad, TerrainBridge:
		return 70
	case TerrainSand:
		return 130
	case TerrainForest:
		return 150
	case TerrainRock:
		return 200
	default:
		return 100
	}
}

var fieldFlagNames = map[string]FieldFlag{
	"landallowed":  FieldLandAllowed,
	"coastallowed": FieldCoastAllowed,
	"waterallowed": FieldWaterAllowed,
	"nobuilding":   FieldNoBuilding,
	"unpassable":   FieldUnpassable,
	"wall":         FieldWall,
	"rocks":        FieldRocks,
	"forest":       FieldForest,
	"landunit":     FieldLandUnit,
	"airunit":      FieldAirUnit,
	"seaunit":      FieldSeaUnit,
	"building":     FieldBuilding,
	"decorative":   FieldDecorative,
	"opaque":       FieldOpaque,
}

// ParseFieldFlags ORs together named flags, case-insensitively
func ParseFieldFlags(names []string) (FieldFlag, error) {
	var f FieldFlag
	for _, n := range names {
		v, ok := fieldFlagNames[strings.ToLower(n)]
		if !ok {
			return 0, fmt.Errorf("unknown field flag %q", n)
		}
		f |= v
	}
	return f, nil
}
