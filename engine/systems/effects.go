package systems

import "github.com/1siamBot/rts-simcore/engine/core"

// EffectKind is the kind of presentation request
type EffectKind uint8

const (
	EffectDamageNumber EffectKind = iota
	EffectImpact
	EffectBurn
	EffectSound
	EffectBlink
	EffectExplosion
	EffectNotify
)

func (k EffectKind) String() string {
	switch k {
	case EffectDamageNumber:
		return "damage"
	case EffectImpact:
		return "impact"
	case EffectBurn:
		return "burn"
	case EffectSound:
		return "sound"
	case EffectBlink:
		return "blink"
	case EffectExplosion:
		return "explosion"
	case EffectNotify:
		return "notify"
	default:
		return "unknown"
	}
}

// Effect is a fire-and-forget request to whatever draws or plays the game
type Effect struct {
	Kind   EffectKind
	Tick   uint64
	Slot   int // -1 when not tied to a unit
	Player int // -1 for everyone
	Pos    core.PixelPos
	Value  int
	Name   string
}

// EffectSink receives presentation requests
type EffectSink interface {
	Push(e Effect)
}

// EffectQueue keeps effects in push order until drained
type EffectQueue struct {
	effects []Effect
}

func (q *EffectQueue) Push(e Effect) {
	q.effects = append(q.effects, e)
}

// Drain returns the queued effects and empties the queue
func (q *EffectQueue) Drain() []Effect {
	out := q.effects
	q.effects = nil
	return out
}

// Len returns the number of queued effects
func (q *EffectQueue) Len() int {
	return len(q.effects)
}
