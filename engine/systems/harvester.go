package systems

import (
	"errors"
	"math"

	"github.com/rs/zerolog/log"

	"github.com/1siamBot/rts-simcore/engine/core"
	"github.com/1siamBot/rts-simcore/engine/unit"
)

// ErrNotHarvester is returned when a unit cannot gather from a resource
var ErrNotHarvester = errors.New("unit cannot gather that resource")

// gatherPerTick is what a worker takes from a resource each tick
const gatherPerTick = 1

// AssignWorker sends w to gather from mine until told otherwise
func (s *Sim) AssignWorker(w, mine *unit.Unit) error {
	if !mine.Type.GivesResource || mine.Removed || !mine.IsAlive() {
		return ErrNotHarvester
	}
	if w.Stats.Max(unit.CarryResource) <= 0 || !w.CanMove() {
		return ErrNotHarvester
	}
	s.unassignWorker(w)
	w.Mine = mine
	mine.Workers = append(mine.Workers, w)

	o := unit.NewOrder(unit.ActionResource)
	o.SetGoal(mine)
	w.Command(o, true)
	return nil
}

func (s *Sim) unassignWorker(w *unit.Unit) {
	m := w.Mine
	if m == nil {
		return
	}
	for i, x := range m.Workers {
		if x == w {
			m.Workers = append(m.Workers[:i], m.Workers[i+1:]...)
			break
		}
	}
	w.Mine = nil
}

// releaseWorkers cuts u loose from the resource it works on and from the
// workers gathering from it.
func (s *Sim) releaseWorkers(u *unit.Unit) {
	for _, w := range u.Workers {
		w.Mine = nil
		// loaded workers still bring their cargo home
		if o := w.CurrentOrder(); o.Action == unit.ActionResource && w.Stats.Get(unit.CarryResource) == 0 {
			o.Finished = true
			o.Path = nil
		}
	}
	u.Workers = nil
	s.unassignWorker(u)
}

// HarvesterSystem runs the gather and return trips of workers
type HarvesterSystem struct {
	Sim *Sim
}

func (hs *HarvesterSystem) Priority() int { return 30 }

func (hs *HarvesterSystem) Update(w *core.World, dt float64) {
	s := hs.Sim
	for _, u := range s.inPlay() {
		if !u.IsAlive() || u.Removed || u.Player == nil || u.CurrentAction() != unit.ActionResource {
			continue
		}
		o := u.CurrentOrder()
		mine := u.Mine
		if mine != nil && (mine.Removed || !mine.IsAlive()) {
			mine = nil
		}
		carried := u.Stats.Get(unit.CarryResource)
		if mine != nil && carried < u.Stats.Max(unit.CarryResource) && mine.ResourcesHeld > 0 {
			hs.gather(u, o, mine)
			continue
		}
		if carried == 0 {
			if mine == nil {
				o.Finished = true
			}
			continue
		}
		hs.deliver(u, o, u.Carrying)
	}
}

func (hs *HarvesterSystem) gather(u *unit.Unit, o *unit.Order, mine *unit.Unit) {
	s := hs.Sim
	if u.MapDistanceTo(mine) > 1 {
		if o.GoalPos != mine.TilePos || len(o.Path) == 0 {
			o.GoalPos = mine.TilePos
			o.Path = s.approach(u, mine)
		}
		return
	}
	o.Path = nil
	room := u.Stats.Max(unit.CarryResource) - u.Stats.Get(unit.CarryResource)
	take := min(gatherPerTick, room, mine.ResourcesHeld)
	u.Carrying = mine.Type.Resource
	u.Stats.Add(unit.CarryResource, take, false)
	mine.ResourcesHeld -= take
	if mine.ResourcesHeld <= 0 {
		log.Debug().Int("slot", mine.Slot).Msg("resource depleted")
		s.LetUnitDie(mine)
	}
}

func (hs *HarvesterSystem) deliver(u *unit.Unit, o *unit.Order, r core.Resource) {
	s := hs.Sim
	depot := hs.nearestDepot(u, r)
	if depot == nil {
		u.Moving = false
		return
	}
	if u.MapDistanceTo(depot) > 1 {
		if o.GoalPos != depot.TilePos || len(o.Path) == 0 {
			o.GoalPos = depot.TilePos
			o.Path = s.approach(u, depot)
		}
		return
	}
	o.Path = nil
	amount := u.Stats.Get(unit.CarryResource)
	u.Stats.Set(unit.CarryResource, 0)
	u.Player.AddResource(r, amount)
	log.Debug().Int("slot", u.Slot).Int("player", u.Player.Index).Int("amount", amount).Msg("resource delivered")
	if u.Mine == nil {
		o.Finished = true
	}
}

// nearestDepot finds the closest finished building of u's owner that
// accepts resource r.
func (hs *HarvesterSystem) nearestDepot(u *unit.Unit, r core.Resource) *unit.Unit {
	s := hs.Sim
	var best *unit.Unit
	bestDist := math.MaxInt
	for _, b := range s.unitsOf(u.Player) {
		if !b.Type.Building || b.UnderConstruction || b.Removed || !b.IsAlive() {
			continue
		}
		if !b.Type.TownHall && b.Type.Storing[r] == 0 {
			continue
		}
		if d := u.MapDistanceTo(b); d < bestDist {
			best, bestDist = b, d
		}
	}
	return best
}
