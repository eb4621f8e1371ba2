package core

import "time"

// GameState represents the overall game state
type GameState uint8

const (
	StateStopped GameState = iota
	StatePlaying
	StatePaused
	StateGameOver
)

// Stepper advances a simulation by exactly one tick
type Stepper interface {
	Step()
}

// GameLoop manages the fixed-timestep game loop for deterministic simulation
type GameLoop struct {
	Sim         Stepper
	State       GameState
	TickRate    float64 // fixed ticks per second
	Ticks       uint64  // ticks run by this loop
	accumulator float64
	lastTime    time.Time
}

// NewGameLoop creates a game loop driving sim at a fixed tick rate
func NewGameLoop(sim Stepper, tickRate float64) *GameLoop {
	return &GameLoop{
		Sim:      sim,
		TickRate: tickRate,
		lastTime: time.Now(),
	}
}

// Update should be called every render frame. It runs the simulation
// at fixed timestep and returns the interpolation alpha for rendering.
func (gl *GameLoop) Update() float64 {
	now := time.Now()
	frameTime := now.Sub(gl.lastTime).Seconds()
	gl.lastTime = now

	// Cap frame time to avoid spiral of death
	if frameTime > 0.25 {
		frameTime = 0.25
	}

	dt := 1.0 / gl.TickRate
	gl.accumulator += frameTime

	for gl.accumulator >= dt {
		if gl.State == StatePlaying {
			gl.tick()
		}
		gl.accumulator -= dt
	}

	return gl.accumulator / dt
}

// Step advances the simulation by n ticks regardless of wall time.
// Headless runners and tests drive the loop with it.
func (gl *GameLoop) Step(n int) {
	for i := 0; i < n && gl.State != StateGameOver; i++ {
		gl.tick()
	}
}

func (gl *GameLoop) tick() {
	gl.Sim.Step()
	gl.Ticks++
}

// Play starts or resumes the game
func (gl *GameLoop) Play() {
	gl.State = StatePlaying
	gl.lastTime = time.Now()
}

// Pause pauses the game
func (gl *GameLoop) Pause() {
	gl.State = StatePaused
}

// Stop ends the game; Step becomes a no-op.
func (gl *GameLoop) Stop() {
	gl.State = StateGameOver
}

// CurrentTick returns the number of ticks this loop has run
func (gl *GameLoop) CurrentTick() uint64 {
	return gl.Ticks
}
