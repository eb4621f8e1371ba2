package systems

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1siamBot/rts-simcore/engine/core"
	"github.com/1siamBot/rts-simcore/engine/unit"
)

func fund(p *core.Player, gold, wood int) {
	p.Resources[core.ResourceGold] = gold
	p.Resources[core.ResourceWood] = wood
}

func TestStartConstructionPaysUpFront(t *testing.T) {
	s, p1, _ := newTestSim(t, testRules())
	tower := s.MustType("tower")

	_, err := s.StartConstruction(tower, p1, core.TilePos{X: 5, Y: 5}, 0)
	assert.ErrorIs(t, err, ErrNotEnoughResources)
	assert.Zero(t, p1.UnitCount())

	fund(p1, 450, 100)
	u, err := s.StartConstruction(tower, p1, core.TilePos{X: 5, Y: 5}, 0)
	require.NoError(t, err)
	assert.Equal(t, 50, p1.Resources[core.ResourceGold])
	assert.Zero(t, p1.Resources[core.ResourceWood])
	assert.True(t, u.UnderConstruction)
	assert.Equal(t, 1, u.CurrentSightRange)
	assert.Equal(t, 40, u.Stats.Get(unit.HP))
	assert.Equal(t, 1, p1.NumBuildingsUnderConstruction)
	assert.Zero(t, p1.Supply, "sites give no supply")
	checkAggregates(t, s)

	_, err = s.StartConstruction(tower, p1, core.TilePos{X: 6, Y: 6}, 0)
	assert.ErrorIs(t, err, ErrNoRoom)
}

func TestConstructionCompletes(t *testing.T) {
	s, p1, _ := newTestSim(t, testRules())
	fund(p1, 400, 100)
	u, err := s.StartConstruction(s.MustType("tower"), p1, core.TilePos{X: 5, Y: 5}, 0)
	require.NoError(t, err)

	s.Run(3)
	assert.True(t, u.UnderConstruction)
	assert.Equal(t, 300, u.Stats.Get(unit.HP))

	s.Step()
	assert.False(t, u.UnderConstruction)
	assert.Equal(t, 400, u.Stats.Get(unit.HP))
	assert.Equal(t, 4, u.CurrentSightRange)
	assert.Equal(t, 4, p1.Supply)
	assert.Zero(t, p1.NumBuildingsUnderConstruction)
	checkAggregates(t, s)
	checkCounters(t, s)
}

func TestTrainPlacesUnitNearBuilding(t *testing.T) {
	s, p1, _ := newTestSim(t, testRules())
	hall := place(s, "hall", p1, 5, 5)

	require.NoError(t, s.Train(hall, s.MustType("soldier")))
	assert.Equal(t, []string{"soldier"}, s.TrainQueue(hall))
	s.Step()

	assert.Empty(t, s.TrainQueue(hall))
	assert.Equal(t, 1, p1.UnitTypesCount["soldier"])
	for _, u := range s.unitsOf(p1) {
		if u.Type.Ident == "soldier" {
			assert.LessOrEqual(t, u.MapDistanceTo(hall), 1)
		}
	}
	checkAggregates(t, s)
}

func TestTrainRefusesSites(t *testing.T) {
	s, p1, _ := newTestSim(t, testRules())
	fund(p1, 400, 100)
	site, err := s.StartConstruction(s.MustType("tower"), p1, core.TilePos{X: 5, Y: 5}, 0)
	require.NoError(t, err)

	assert.ErrorIs(t, s.Train(site, s.MustType("soldier")), ErrCannotTrain)
	soldier := place(s, "soldier", p1, 1, 1)
	assert.ErrorIs(t, s.Train(soldier, s.MustType("soldier")), ErrCannotTrain)
}

func TestTrainingStallsWithoutSupply(t *testing.T) {
	s, p1, _ := newTestSim(t, testRules())
	s.MustType("soldier").Stats[unit.Demand] = stat(5)
	tower := place(s, "tower", p1, 5, 5)
	require.Equal(t, 4, p1.Supply)

	var alerts []core.AlertPayload
	s.Bus.On(core.EvtPlacementFailed, func(e core.Event) {
		alerts = append(alerts, e.Payload.(core.AlertPayload))
	})

	require.NoError(t, s.Train(tower, s.MustType("soldier")))
	s.Run(5)
	assert.Equal(t, []string{"soldier"}, s.TrainQueue(tower))
	require.Len(t, alerts, 1, "the owner hears about a stall once")
	assert.Equal(t, "not enough supply", alerts[0].Text)

	place(s, "hall", p1, 12, 12)
	s.Step()
	assert.Empty(t, s.TrainQueue(tower))
	assert.Equal(t, 5, p1.Demand)
	checkAggregates(t, s)
}

func TestTrainingQueueDropsWithBuilding(t *testing.T) {
	s, p1, _ := newTestSim(t, testRules())
	hall := place(s, "hall", p1, 5, 5)
	s.MustType("soldier").BuildTicks = 10
	require.NoError(t, s.Train(hall, s.MustType("soldier")))

	s.LetUnitDie(hall)
	s.Step()
	assert.Nil(t, s.TrainQueue(hall))
}
