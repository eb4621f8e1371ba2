package systems

import (
	"github.com/rs/zerolog/log"

	"github.com/1siamBot/rts-simcore/engine/core"
	"github.com/1siamBot/rts-simcore/engine/maplib"
	"github.com/1siamBot/rts-simcore/engine/unit"
)

// MovementSystem walks units along the paths of their current orders, one
// tile at a time, so sight and field flags follow every step.
type MovementSystem struct {
	Sim *Sim
}

func (ms *MovementSystem) Priority() int { return 10 }

func (ms *MovementSystem) Update(w *core.World, dt float64) {
	s := ms.Sim
	for _, u := range s.inPlay() {
		if u.Removed || !u.CanMove() {
			continue
		}
		o := u.CurrentOrder()
		switch o.Action {
		case unit.ActionMove:
			ms.move(u, o)
		case unit.ActionFollow:
			ms.follow(u, o)
		case unit.ActionAttack, unit.ActionResource:
			// the owning system plans the path
			ms.walk(u, o)
		default:
			u.Moving = false
		}
	}
}

func (ms *MovementSystem) move(u *unit.Unit, o *unit.Order) {
	s := ms.Sim
	if u.TilePos == o.GoalPos {
		ms.arrive(u, o)
		return
	}
	if len(o.Path) == 0 {
		o.Path = s.Oracle.Path(u.Type, u.TilePos, o.GoalPos, u.MapLayer)
		if o.Path == nil {
			log.Debug().Int("slot", u.Slot).Int("x", o.GoalPos.X).Int("y", o.GoalPos.Y).Msg("no path")
			ms.arrive(u, o)
			return
		}
	}
	ms.walk(u, o)
	if u.TilePos == o.GoalPos {
		ms.arrive(u, o)
	}
}

func (ms *MovementSystem) follow(u *unit.Unit, o *unit.Order) {
	s := ms.Sim
	g := o.Goal()
	if g == nil || g.Removed || !g.IsAlive() {
		o.Finished = true
		u.Moving = false
		return
	}
	if u.MapDistanceTo(g) <= max(o.Range, 1) {
		o.Path = nil
		u.Moving = false
		return
	}
	if o.GoalPos != g.TilePos || len(o.Path) == 0 {
		o.GoalPos = g.TilePos
		o.Path = s.approach(u, g)
	}
	ms.walk(u, o)
}

func (ms *MovementSystem) arrive(u *unit.Unit, o *unit.Order) {
	o.Finished = true
	o.Path = nil
	o.Progress = 0
	u.Moving = false
	u.Offset = core.PixelPos{}
}

// walk advances u toward the next waypoint of o
func (ms *MovementSystem) walk(u *unit.Unit, o *unit.Order) {
	s := ms.Sim
	for len(o.Path) > 0 && o.Path[0] == u.TilePos {
		o.Path = o.Path[1:]
	}
	if len(o.Path) == 0 {
		u.Moving = false
		u.Offset = core.PixelPos{}
		return
	}
	u.Moving = true
	next := o.Path[0]
	step := core.TilePos{X: sign(next.X - u.TilePos.X), Y: sign(next.Y - u.TilePos.Y)}

	o.Progress += max(unit.Modified(u, unit.Speed, s.Map), 1)
	if o.Progress < core.PixelTileSize {
		u.Offset = core.PixelPos{X: step.X * o.Progress, Y: step.Y * o.Progress}
		return
	}
	o.Progress = 0
	u.Offset = core.PixelPos{}

	dest := u.TilePos.Add(step)
	if !s.canStepTo(u, dest) {
		// blocked: drop the path so it is planned again
		o.Path = nil
		return
	}
	s.MoveUnitTo(u, dest)
	if dest == next {
		o.Path = o.Path[1:]
	}
}

// canStepTo reports whether u fits at dest, ignoring what u itself
// projects on the tiles it stands on.
func (s *Sim) canStepTo(u *unit.Unit, dest core.TilePos) bool {
	w, h := u.Type.TileSize()
	if !s.Map.InBounds(dest) || !s.Map.InBounds(core.TilePos{X: dest.X + w - 1, Y: dest.Y + h - 1}) {
		return false
	}
	ok := true
	s.Map.Footprint(dest, w, h, u.MapLayer, func(p core.TilePos, t *maplib.Tile) {
		flags := t.Flags
		for _, slot := range s.Map.UnitsAt(p, u.MapLayer) {
			if o := s.Pool.Get(slot); o != nil && o != u && projectsFlags(o) {
				flags |= o.Type.FieldFlags
			}
		}
		if flags&u.Type.MovementMask != 0 {
			ok = false
		}
	})
	return ok
}

// CommandMove orders u to walk to pos
func (s *Sim) CommandMove(u *unit.Unit, pos core.TilePos, flush bool) {
	o := unit.NewOrder(unit.ActionMove)
	o.GoalPos = s.Map.Clamp(pos)
	u.Command(o, flush)
}

// CommandAttack orders u to attack g
func (s *Sim) CommandAttack(u, g *unit.Unit, flush bool) {
	o := unit.NewOrder(unit.ActionAttack)
	o.SetGoal(g)
	o.GoalPos = g.TilePos
	o.Range = u.Stats.Get(unit.AttackRange)
	u.Command(o, flush)
}

func sign(x int) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}
