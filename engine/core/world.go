package core

// System processes the simulation each tick
type System interface {
	Update(w *World, dt float64)
	Priority() int
}

// CleanupFunc runs after all systems of a tick, with the tick that just ran.
type CleanupFunc func(tick uint64)

// World holds the ordered systems of one simulation and its tick counter.
// All mutation happens from the goroutine that calls Tick.
type World struct {
	systems   []System
	cleanups  []CleanupFunc
	TickCount uint64
	TickRate  float64 // ticks per second (for deterministic lockstep)
}

// NewWorld creates an empty world
func NewWorld(tickRate float64) *World {
	return &World{TickRate: tickRate}
}

// AddSystem registers a system
func (w *World) AddSystem(s System) {
	w.systems = append(w.systems, s)
	// Sort by priority (simple insertion)
	for i := len(w.systems) - 1; i > 0; i-- {
		if w.systems[i].Priority() < w.systems[i-1].Priority() {
			w.systems[i], w.systems[i-1] = w.systems[i-1], w.systems[i]
		}
	}
}

// Systems returns the registered systems in run order
func (w *World) Systems() []System {
	return w.systems
}

// OnCleanup registers a hook run at the end of every tick.
func (w *World) OnCleanup(fn CleanupFunc) {
	w.cleanups = append(w.cleanups, fn)
}

// Tick runs all systems once
func (w *World) Tick(dt float64) {
	for _, s := range w.systems {
		s.Update(w, dt)
	}
	for _, fn := range w.cleanups {
		fn(w.TickCount)
	}
	w.TickCount++
}

// Seconds converts a duration in seconds to whole ticks, at least 1.
func (w *World) Seconds(s float64) uint64 {
	n := uint64(s * w.TickRate)
	if n == 0 {
		return 1
	}
	return n
}
