package maplib

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1siamBot/rts-simcore/engine/core"
)

func TestVisionCounters(t *testing.T) {
	var v Vision
	assert.True(t, v.Inc(LayerSight, 2), "first viewer")
	assert.False(t, v.Inc(LayerSight, 2))
	assert.True(t, v.IsExplored(2))
	assert.False(t, v.IsExplored(1))

	assert.False(t, v.Dec(LayerSight, 2))
	assert.True(t, v.Dec(LayerSight, 2), "last viewer left")
	assert.True(t, v.IsExplored(2), "exploration sticks")

	assert.Panics(t, func() { v.Dec(LayerSight, 2) })

	v.Inc(LayerRadar, 1)
	assert.False(t, v.IsExplored(1), "radar does not explore")
}

func TestTileCache(t *testing.T) {
	m := NewMap(NewTileMap("t", 6, 6))
	m.CacheInsert(7, core.TilePos{X: 1, Y: 1}, 2, 2, 0)
	m.CacheInsert(7, core.TilePos{X: 1, Y: 1}, 2, 2, 0)
	m.CacheInsert(9, core.TilePos{X: 2, Y: 2}, 1, 1, 0)

	assert.Equal(t, []int{7}, m.UnitsAt(core.TilePos{X: 1, Y: 1}, 0))
	assert.ElementsMatch(t, []int{7, 9}, m.UnitsAt(core.TilePos{X: 2, Y: 2}, 0))
	assert.ElementsMatch(t, []int{7, 9}, m.UnitsIn(core.TilePos{}, 6, 6, 0))

	m.CacheRemove(7, core.TilePos{X: 1, Y: 1}, 2, 2, 0)
	assert.Empty(t, m.UnitsAt(core.TilePos{X: 1, Y: 1}, 0))
	assert.Equal(t, []int{9}, m.UnitsAt(core.TilePos{X: 2, Y: 2}, 0))
	assert.Nil(t, m.UnitsAt(core.TilePos{X: 9, Y: 9}, 0))
}

func TestSetTerrainKeepsUnitFlags(t *testing.T) {
	tm := NewTileMap("t", 4, 4)
	tm.At(1, 1).UnitFlags = FieldBuilding
	tm.SetTerrain(0, 0, 3, 3, TerrainForest)

	tile := tm.At(1, 1)
	assert.Equal(t, FieldBuilding, tile.UnitFlags)
	assert.True(t, tile.Opaque())
	assert.Equal(t, 150, tile.Cost)
	assert.NotZero(t, tile.Field()&FieldForest)
}

func TestMapJSONRoundTrip(t *testing.T) {
	tm := NewTileMap("isle", 5, 4)
	tm.SetTerrain(0, 0, 4, 0, TerrainWater)
	tm.PlaceOre(2, 2, 500)
	tm.StartPositions = []StartPos{{PlayerSlot: 0, X: 1, Y: 2}}

	path := filepath.Join(t.TempDir(), "isle.json")
	require.NoError(t, tm.SaveJSON(path))

	got, err := LoadJSON(path)
	require.NoError(t, err)
	assert.Equal(t, "isle", got.Name)
	assert.Equal(t, TerrainWater, got.At(3, 0).Terrain)
	assert.Equal(t, 500, got.At(2, 2).OreAmount)
	assert.Equal(t, tm.StartPositions, got.StartPositions)

	_, err = LoadJSON(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestMoveCostAndClamp(t *testing.T) {
	tm := NewTileMap("t", 4, 4)
	tm.SetTerrain(0, 0, 0, 0, TerrainRoad)
	m := NewMap(tm)

	assert.Equal(t, 70, m.MoveCost(core.TilePos{}, 0))
	assert.Equal(t, 100, m.MoveCost(core.TilePos{X: -1}, 0))
	assert.Equal(t, core.TilePos{X: 3, Y: 0}, m.Clamp(core.TilePos{X: 9, Y: -2}))
}
