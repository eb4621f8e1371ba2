package systems

import (
	"math/rand"
	"sort"
	"time"

	"github.com/1siamBot/rts-simcore/engine/config"
	"github.com/1siamBot/rts-simcore/engine/core"
	"github.com/1siamBot/rts-simcore/engine/maplib"
	"github.com/1siamBot/rts-simcore/engine/pathfind"
	"github.com/1siamBot/rts-simcore/engine/unit"
)

// AIHandler is the automated-defense side of a computer player.
type AIHandler interface {
	// OnHit gets first refusal on reacting to a hit; true means handled.
	OnHit(target, attacker *unit.Unit, damage int) bool
	HelpMe(attacker, defender *unit.Unit)
	UnitLost(u *unit.Unit)
}

// Sim owns the state of one simulation and the operations that keep
// units, map bookkeeping and players consistent. Everything runs on the
// goroutine that calls Step.
type Sim struct {
	World   *core.World
	Map     *maplib.Map
	Pool    *unit.Pool
	Players *core.PlayerManager
	Types   *unit.Registry
	Oracle  *pathfind.Oracle
	Bus     *core.EventBus
	Effects EffectSink
	Rules   config.RulesConfig
	Rand    *rand.Rand

	ai          map[int]AIHandler
	marks       map[int]*sightMark
	ghosts      map[ghostKey][]*ghost
	ghostBySlot map[int]*ghost
	missiles    []*Missile
	training    map[int]*trainQueue
}

// NewSim wires a simulation over m with the default tick systems.
func NewSim(m *maplib.Map, reg *unit.Registry, pm *core.PlayerManager, rules config.RulesConfig) *Sim {
	m.NoFogOfWar = rules.NoFogOfWar
	s := &Sim{
		World:   core.NewWorld(rules.TickRate),
		Map:     m,
		Pool:    unit.NewPool(uint64(rules.ReleaseHoldTicks)),
		Players: pm,
		Types:   reg,
		Oracle:  pathfind.NewOracle(m),
		Bus:     core.NewEventBus(),
		Effects: &EffectQueue{},
		Rules:   rules,
		Rand:    rand.New(rand.NewSource(rules.Seed)),

		ai:          make(map[int]AIHandler),
		marks:       make(map[int]*sightMark),
		ghosts:      make(map[ghostKey][]*ghost),
		ghostBySlot: make(map[int]*ghost),
		training:    make(map[int]*trainQueue),
	}
	s.World.AddSystem(&OrderSystem{Sim: s})
	s.World.AddSystem(&MovementSystem{Sim: s})
	s.World.AddSystem(&CombatSystem{Sim: s})
	s.World.AddSystem(&MissileSystem{Sim: s})
	s.World.AddSystem(&HarvesterSystem{Sim: s})
	s.World.AddSystem(&ProductionSystem{Sim: s})
	s.World.AddSystem(&RegenSystem{Sim: s})
	s.World.AddSystem(&BurnSystem{Sim: s})
	s.World.AddSystem(&DeathSystem{Sim: s})
	s.World.AddSystem(&RescueSystem{Sim: s})
	s.World.AddSystem(&RevealSystem{Sim: s})
	s.World.AddSystem(&VeterancySystem{Sim: s})
	s.World.AddSystem(&DefeatSystem{Sim: s})
	s.World.OnCleanup(s.Pool.Collect)
	s.World.OnCleanup(func(uint64) {
		liveUnits.Set(float64(s.Pool.Live()))
		pendingReleases.Set(float64(s.Pool.Pending()))
	})
	return s
}

// Step runs one tick and dispatches the events it queued
func (s *Sim) Step() {
	start := time.Now()
	s.World.Tick(1 / s.World.TickRate)
	s.Bus.Dispatch()
	tickDuration.Observe(time.Since(start).Seconds())
}

// Run advances n ticks
func (s *Sim) Run(n int) {
	for i := 0; i < n; i++ {
		s.Step()
	}
}

// SetAI installs the automated defense of a player. nil removes it.
func (s *Sim) SetAI(player int, h AIHandler) {
	if h == nil {
		delete(s.ai, player)
		return
	}
	s.ai[player] = h
}

func (s *Sim) aiFor(p *core.Player) AIHandler {
	if p == nil || !p.AIEnabled {
		return nil
	}
	return s.ai[p.Index]
}

func (s *Sim) tick() uint64 {
	return s.World.TickCount
}

func (s *Sim) emit(t core.EventType, payload interface{}) {
	s.Bus.Emit(core.Event{Type: t, Tick: s.tick(), Payload: payload})
}

func (s *Sim) effect(e Effect) {
	if s.Effects == nil {
		return
	}
	e.Tick = s.tick()
	s.Effects.Push(e)
}

func (s *Sim) unitEffect(kind EffectKind, u *unit.Unit, value int, name string) {
	s.effect(Effect{Kind: kind, Slot: u.Slot, Player: -1, Pos: u.PixelCenter(), Value: value, Name: name})
}

// MustType returns a registered type and panics when it is missing. Meant
// for scenario setup, not for the tick path.
func (s *Sim) MustType(ident string) *unit.Type {
	t, ok := s.Types.Lookup(ident)
	if !ok {
		panic("unknown unit type " + ident)
	}
	return t
}

// inPlay returns the living units in slot order
func (s *Sim) inPlay() []*unit.Unit {
	var out []*unit.Unit
	for _, u := range s.Pool.Units() {
		if u.IsAlive() {
			out = append(out, u)
		}
	}
	return out
}

// unitsOf returns the units of p in slot order
func (s *Sim) unitsOf(p *core.Player) []*unit.Unit {
	slots := append([]int(nil), p.Units()...)
	sort.Ints(slots)
	out := make([]*unit.Unit, 0, len(slots))
	for _, slot := range slots {
		if u := s.Pool.Get(slot); u != nil {
			out = append(out, u)
		}
	}
	return out
}

func slotOf(u *unit.Unit) int {
	if u == nil {
		return -1
	}
	return u.Slot
}

func playerIndex(p *core.Player) int {
	if p == nil {
		return -1
	}
	return p.Index
}
