package ai

import (
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/1siamBot/rts-simcore/engine/core"
	"github.com/1siamBot/rts-simcore/engine/systems"
	"github.com/1siamBot/rts-simcore/engine/unit"
)

// Difficulty controls AI behavior
type Difficulty int

const (
	DiffEasy Difficulty = iota
	DiffMedium
	DiffHard
)

// ParseDifficulty maps easy, medium and hard to a Difficulty
func ParseDifficulty(name string) (Difficulty, error) {
	switch strings.ToLower(name) {
	case "easy":
		return DiffEasy, nil
	case "medium", "":
		return DiffMedium, nil
	case "hard":
		return DiffHard, nil
	}
	return DiffMedium, fmt.Errorf("unknown AI difficulty %q", name)
}

// helpRadius is how far idle force units answer a call for help
const helpRadius = 10

// Controller manages one computer player. Units it keeps in its force and
// scout lists are referenced until the player loses them.
type Controller struct {
	Player     *core.Player
	Difficulty Difficulty
	Sim        *systems.Sim

	Force  []*unit.Unit
	Scouts []*unit.Unit

	tickTimer     float64
	thinkInterval float64
	attackTimer   float64
	waveCount     int
}

// Attach creates a controller for p and installs it as p's automated
// defense.
func Attach(s *systems.Sim, p *core.Player, diff Difficulty) *Controller {
	interval := 5.0
	switch diff {
	case DiffEasy:
		interval = 8.0
	case DiffHard:
		interval = 3.0
	}
	c := &Controller{
		Player:        p,
		Difficulty:    diff,
		Sim:           s,
		thinkInterval: interval,
	}
	p.AIEnabled = true
	for ident, n := range p.UnitTypesCount {
		p.UnitTypesAIActiveCount[ident] = n
	}
	s.SetAI(p.Index, c)
	return c
}

// System runs all AI controllers
type System struct {
	Controllers []*Controller
}

func (s *System) Priority() int { return 80 }

func (s *System) Update(w *core.World, dt float64) {
	for _, c := range s.Controllers {
		c.tickTimer += dt
		if c.tickTimer >= c.thinkInterval {
			c.tickTimer = 0
			c.Think()
		}
		c.attackTimer += dt
	}
}

func (c *Controller) attackInterval() float64 {
	switch c.Difficulty {
	case DiffMedium:
		return 45.0
	case DiffHard:
		return 30.0
	}
	return 60.0
}

func (c *Controller) waveSize() int {
	if c.Difficulty == DiffHard {
		return 2
	}
	return 3
}

// Think is the main AI decision loop
func (c *Controller) Think() {
	if c.Player.Defeated {
		c.Disband()
		return
	}
	c.recruit()

	for _, sc := range c.Scouts {
		if sc.IsIdle() {
			c.scout(sc)
		}
	}

	if c.attackTimer >= c.attackInterval() && len(c.Force) >= c.waveSize() {
		c.attackTimer = 0
		c.waveCount++
		c.launchAttack()
	}
}

// recruit adds new mobile units to the force or, when unarmed, to the
// scouts.
func (c *Controller) recruit() {
	s := c.Sim
	for _, slot := range c.Player.Units() {
		u := s.Pool.Get(slot)
		if u == nil || u.Removed || !u.IsAlive() || !u.CanMove() || c.knows(u) {
			continue
		}
		if u.Stats.Max(unit.CarryResource) > 0 {
			// workers belong to the economy
			continue
		}
		u.RefsIncrease()
		if u.CanAttack() {
			c.Force = append(c.Force, u)
		} else {
			c.Scouts = append(c.Scouts, u)
		}
	}
}

func (c *Controller) knows(u *unit.Unit) bool {
	for _, x := range c.Force {
		if x == u {
			return true
		}
	}
	for _, x := range c.Scouts {
		if x == u {
			return true
		}
	}
	return false
}

func (c *Controller) scout(u *unit.Unit) {
	s := c.Sim
	pos := core.TilePos{X: s.Rand.Intn(s.Map.Width), Y: s.Rand.Intn(s.Map.Height)}
	s.CommandMove(u, pos, true)
}

func (c *Controller) launchAttack() {
	s := c.Sim
	target := c.pickTarget(c.Force[0])
	if target == nil {
		return
	}
	sent := 0
	for _, u := range c.Force {
		if !u.IsIdle() {
			continue
		}
		if s.CanTarget(u, target) {
			s.CommandAttack(u, target, true)
		} else {
			// closes in and picks its own targets on the way
			s.CommandMove(u, target.TilePos, true)
		}
		sent++
	}
	log.Debug().
		Int("player", c.Player.Index).
		Int("wave", c.waveCount).
		Int("units", sent).
		Int("target", target.Slot).
		Msg("attack wave launched")
}

// pickTarget prefers the cheapest visible enemy for leader and falls back
// to any enemy the player has seen.
func (c *Controller) pickTarget(leader *unit.Unit) *unit.Unit {
	s := c.Sim
	var best, seen *unit.Unit
	bestCost := math.MaxInt
	for _, o := range s.Pool.Units() {
		if o.Removed || !o.IsAlive() || o.Player == nil || !c.Player.IsEnemy(o.Player) {
			continue
		}
		if s.IsVisible(o, c.Player) {
			if cost := systems.ThreatCalculate(leader, o); best == nil || cost < bestCost {
				best, bestCost = o, cost
			}
			continue
		}
		if seen == nil && o.Seen.ByPlayer&(1<<uint(c.Player.Index)) != 0 {
			seen = o
		}
	}
	if best != nil {
		return best
	}
	return seen
}

// OnHit lets armed units fight back at once and pulls scouts out of
// trouble. Everything else falls through to the default reaction.
func (c *Controller) OnHit(target, attacker *unit.Unit, damage int) bool {
	if attacker == nil {
		return false
	}
	s := c.Sim
	for _, sc := range c.Scouts {
		if sc == target {
			c.retreat(sc, attacker)
			return true
		}
	}
	if !target.CanAttack() {
		return false
	}
	if o := target.CurrentOrder(); o.Action == unit.ActionAttack && o.Goal() != nil && o.Goal().IsAlive() {
		return true
	}
	if !s.CanTarget(target, attacker) {
		return false
	}
	s.CommandAttack(target, attacker, true)
	return true
}

// retreat sends u back to its closest building, or straight away from
// attacker when there is none.
func (c *Controller) retreat(u, attacker *unit.Unit) {
	s := c.Sim
	var home *unit.Unit
	best := math.MaxInt
	for _, slot := range c.Player.Units() {
		b := s.Pool.Get(slot)
		if b == nil || !b.Type.Building || b.Removed || !b.IsAlive() {
			continue
		}
		if d := u.MapDistanceTo(b); d < best {
			home, best = b, d
		}
	}
	if home != nil {
		s.CommandMove(u, home.TilePos, true)
		return
	}
	dx, dy := u.TilePos.X-attacker.TilePos.X, u.TilePos.Y-attacker.TilePos.Y
	s.CommandMove(u, core.TilePos{X: u.TilePos.X + dx*2, Y: u.TilePos.Y + dy*2}, true)
}

// HelpMe sends idle force units near defender after attacker
func (c *Controller) HelpMe(attacker, defender *unit.Unit) {
	s := c.Sim
	n := 0
	for _, u := range c.Force {
		if u == defender || !u.IsIdle() || u.MapDistanceTo(defender) > helpRadius {
			continue
		}
		if !s.CanTarget(u, attacker) {
			continue
		}
		s.CommandAttack(u, attacker, true)
		n++
	}
	if n > 0 {
		log.Debug().Int("player", c.Player.Index).Int("defender", defender.Slot).Int("helpers", n).Msg("help sent")
	}
}

// UnitLost drops u from the force and scout lists
func (c *Controller) UnitLost(u *unit.Unit) {
	c.Force = drop(c.Force, u)
	c.Scouts = drop(c.Scouts, u)
}

func drop(list []*unit.Unit, u *unit.Unit) []*unit.Unit {
	for i, x := range list {
		if x == u {
			u.RefsDecrease()
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

// Disband releases every unit the controller holds
func (c *Controller) Disband() {
	for _, u := range c.Force {
		u.RefsDecrease()
	}
	for _, u := range c.Scouts {
		u.RefsDecrease()
	}
	c.Force, c.Scouts = nil, nil
}
