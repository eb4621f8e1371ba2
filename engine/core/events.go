package core

// Event represents a game event
type Event struct {
	Type    EventType
	Tick    uint64
	Payload interface{}
}

type EventType uint16

const (
	EvtUnitCreated EventType = iota
	EvtUnitReleased
	EvtUnitDied
	EvtUnitDamaged
	EvtUnitCaptured
	EvtOwnerChanged
	EvtUnitOutOfFog
	EvtUnitUnderFog
	EvtUnderAttack
	EvtPlayerRevealed
	EvtPlacementFailed
	EvtLevelUp
	EvtUnitRescued
	EvtPlayerDefeated
)

func (t EventType) String() string {
	switch t {
	case EvtUnitCreated:
		return "unit_created"
	case EvtUnitReleased:
		return "unit_released"
	case EvtUnitDied:
		return "unit_died"
	case EvtUnitDamaged:
		return "unit_damaged"
	case EvtUnitCaptured:
		return "unit_captured"
	case EvtOwnerChanged:
		return "owner_changed"
	case EvtUnitOutOfFog:
		return "out_of_fog"
	case EvtUnitUnderFog:
		return "under_fog"
	case EvtUnderAttack:
		return "under_attack"
	case EvtPlayerRevealed:
		return "player_revealed"
	case EvtPlacementFailed:
		return "placement_failed"
	case EvtLevelUp:
		return "level_up"
	case EvtUnitRescued:
		return "unit_rescued"
	case EvtPlayerDefeated:
		return "player_defeated"
	default:
		return "unknown"
	}
}

// UnitPayload identifies the unit an event is about.
type UnitPayload struct {
	Slot int
	Type string
}

// FogPayload is carried by EvtUnitOutOfFog and EvtUnitUnderFog.
type FogPayload struct {
	Slot   int
	Player int
}

// DamagePayload is carried by EvtUnitDamaged and EvtUnitDied.
// Attacker is -1 when the damage had no source unit.
type DamagePayload struct {
	Slot     int
	Attacker int
	Damage   int
	Absorbed int
	HP       int
}

// OwnerPayload is carried by EvtOwnerChanged, EvtUnitCaptured and EvtUnitRescued.
type OwnerPayload struct {
	Slot int
	From int
	To   int
}

// AlertPayload is carried by EvtUnderAttack, EvtPlacementFailed and the
// player events.
type AlertPayload struct {
	Player int
	Slot   int
	Pos    TilePos
	Text   string
}

// EventBus dispatches events to listeners
type EventBus struct {
	listeners map[EventType][]EventHandler
	queue     []Event
}

type EventHandler func(e Event)

func NewEventBus() *EventBus {
	return &EventBus{
		listeners: make(map[EventType][]EventHandler),
	}
}

// On registers a handler for an event type
func (eb *EventBus) On(t EventType, h EventHandler) {
	eb.listeners[t] = append(eb.listeners[t], h)
}

// Emit queues an event for dispatch
func (eb *EventBus) Emit(e Event) {
	eb.queue = append(eb.queue, e)
}

// Queued returns the events not yet dispatched
func (eb *EventBus) Queued() []Event {
	return eb.queue
}

// Dispatch processes all queued events
func (eb *EventBus) Dispatch() {
	// handlers may emit, so walk by index
	for i := 0; i < len(eb.queue); i++ {
		e := eb.queue[i]
		if handlers, ok := eb.listeners[e.Type]; ok {
			for _, h := range handlers {
				h(e)
			}
		}
	}
	eb.queue = eb.queue[:0]
}
