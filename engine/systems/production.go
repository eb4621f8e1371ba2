package systems

import (
	"errors"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/1siamBot/rts-simcore/engine/core"
	"github.com/1siamBot/rts-simcore/engine/unit"
)

var (
	ErrCannotTrain        = errors.New("building cannot train units")
	ErrNotEnoughResources = errors.New("not enough resources")
	ErrNoRoom             = errors.New("no room to place unit")
)

// trainQueue is the production line of one building
type trainQueue struct {
	items    []*unit.Type
	progress int
	stalled  bool
}

// Train queues a unit of type t at building b. The cost is paid up front.
func (s *Sim) Train(b *unit.Unit, t *unit.Type) error {
	p := b.Player
	if p == nil || !b.Type.Building || b.UnderConstruction || b.Removed || !b.IsAlive() {
		return ErrCannotTrain
	}
	if err := pay(p, t.Costs); err != nil {
		return err
	}
	q := s.training[b.Slot]
	if q == nil {
		q = &trainQueue{}
		s.training[b.Slot] = q
	}
	q.items = append(q.items, t)
	return nil
}

// TrainQueue returns the types waiting at building b, head first
func (s *Sim) TrainQueue(b *unit.Unit) []string {
	q := s.training[b.Slot]
	if q == nil {
		return nil
	}
	out := make([]string, len(q.items))
	for i, t := range q.items {
		out[i] = t.Ident
	}
	return out
}

func pay(p *core.Player, c core.Costs) error {
	for r := range c {
		if p.Resources[r] < c[r] {
			return ErrNotEnoughResources
		}
	}
	for r := range c {
		p.AddResource(core.Resource(r), -c[r])
	}
	return nil
}

// StartConstruction lays down a building of type t for p. It works only
// after t.BuildTicks ticks.
func (s *Sim) StartConstruction(t *unit.Type, p *core.Player, pos core.TilePos, layer int) (*unit.Unit, error) {
	if !s.Oracle.CanUnitBeAt(t, pos, layer) {
		return nil, ErrNoRoom
	}
	if err := pay(p, t.Costs); err != nil {
		return nil, err
	}
	u := s.Pool.Alloc(t)
	u.UnderConstruction = true
	u.Stats.Set(unit.HP, max(u.Stats.Max(unit.HP)/10, 1))
	s.applyPlayerUpgrades(u, p, nil)
	unit.UpdateSightRange(u)
	s.AssignToPlayer(u, p)
	s.emit(core.EvtUnitCreated, core.UnitPayload{Slot: u.Slot, Type: t.Ident})
	s.PlaceUnit(u, pos, layer)
	return u, nil
}

// ProductionSystem advances construction sites and training queues
type ProductionSystem struct {
	Sim *Sim
}

func (ps *ProductionSystem) Priority() int { return 35 }

func (ps *ProductionSystem) Update(w *core.World, dt float64) {
	s := ps.Sim
	for _, u := range s.inPlay() {
		if !u.UnderConstruction || u.Removed {
			continue
		}
		u.BuildProgress++
		if hp := u.Stats.Max(unit.HP); u.Type.BuildTicks > 0 {
			u.Stats.Set(unit.HP, max(u.Stats.Get(unit.HP), hp*u.BuildProgress/u.Type.BuildTicks))
		}
		if u.BuildProgress >= u.Type.BuildTicks {
			s.FinishConstruction(u)
		}
	}

	slots := make([]int, 0, len(s.training))
	for slot := range s.training {
		slots = append(slots, slot)
	}
	sort.Ints(slots)
	for _, slot := range slots {
		ps.advance(slot, s.training[slot])
	}
}

func (ps *ProductionSystem) advance(slot int, q *trainQueue) {
	s := ps.Sim
	b := s.Pool.Get(slot)
	if b == nil || b.Removed || !b.IsAlive() || b.Player == nil || len(q.items) == 0 {
		delete(s.training, slot)
		return
	}
	p := b.Player
	t := q.items[0]

	if need := t.Stats.Get(unit.Demand); need > 0 && p.Demand+need > p.Supply {
		ps.stall(b, q, "not enough supply")
		return
	}
	if q.progress < t.BuildTicks {
		q.progress++
		return
	}
	bw, bh := b.Type.TileSize()
	pos, ok := s.Oracle.FindNearestValidPosition(t, b.TilePos, b.MapLayer, max(bw, bh)+s.Rules.DropRange)
	if !ok {
		ps.stall(b, q, "unable to place unit")
		return
	}

	q.stalled = false
	q.progress = 0
	q.items = q.items[1:]
	u := s.MakeUnitAndPlace(pos, t, p, b.MapLayer)
	if b.NewOrder != nil {
		u.Command(b.NewOrder.Clone(), true)
	}
	log.Debug().Int("slot", u.Slot).Str("type", t.Ident).Int("building", b.Slot).Msg("unit trained")
}

// stall holds the head of the queue and tells the owner once
func (ps *ProductionSystem) stall(b *unit.Unit, q *trainQueue, why string) {
	if q.stalled {
		return
	}
	q.stalled = true
	ps.Sim.emit(core.EvtPlacementFailed, core.AlertPayload{Player: b.Player.Index, Slot: b.Slot, Pos: b.TilePos, Text: why})
	log.Debug().Int("building", b.Slot).Str("reason", why).Msg("training stalled")
}
