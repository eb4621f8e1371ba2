package unit

import "github.com/rs/zerolog/log"

type pendingSlot struct {
	slot  int
	since uint64
}

// Pool owns every unit. Slots are stable; a freed slot is held for a
// number of ticks before reuse so stale slot references stay detectable.
type Pool struct {
	units     []*Unit
	free      []int
	pending   []pendingSlot
	HoldTicks uint64

	tick uint64
	live int
}

func NewPool(holdTicks uint64) *Pool {
	return &Pool{HoldTicks: holdTicks}
}

// Alloc returns a fresh unit of type t with one base reference
func (p *Pool) Alloc(t *Type) *Unit {
	var u *Unit
	if n := len(p.free); n > 0 {
		slot := p.free[n-1]
		p.free = p.free[:n-1]
		u = p.units[slot]
	} else {
		u = &Unit{Slot: len(p.units), pool: p}
		p.units = append(p.units, u)
	}
	u.Init(t)
	p.live++
	return u
}

// Get returns the live unit in a slot, nil when the slot is free
func (p *Pool) Get(slot int) *Unit {
	if slot < 0 || slot >= len(p.units) {
		return nil
	}
	u := p.units[slot]
	if u.Type == nil {
		return nil
	}
	return u
}

// Each calls fn for every allocated unit in slot order, including
// destroyed units still referenced.
func (p *Pool) Each(fn func(*Unit)) {
	for _, u := range p.units {
		if u.Type != nil {
			fn(u)
		}
	}
}

// Units returns the allocated units that are not destroyed
func (p *Pool) Units() []*Unit {
	var out []*Unit
	for _, u := range p.units {
		if u.Type != nil && !u.Destroyed {
			out = append(out, u)
		}
	}
	return out
}

// Live returns the number of allocated units
func (p *Pool) Live() int { return p.live }

// Pending returns the number of slots waiting out their hold period
func (p *Pool) Pending() int { return len(p.pending) }

func (p *Pool) release(u *Unit) {
	log.Debug().Int("slot", u.Slot).Str("type", u.Type.Ident).Msg("unit freed")
	u.Type = nil
	u.Container = nil
	u.Inside = nil
	u.Workers = nil
	u.Mine = nil
	u.Goal = nil
	u.Sold = nil
	p.live--
	p.pending = append(p.pending, pendingSlot{slot: u.Slot, since: p.tick})
}

// Collect makes slots whose hold period ended available again. It is
// registered as a world cleanup hook.
func (p *Pool) Collect(tick uint64) {
	p.tick = tick
	n := 0
	for _, ps := range p.pending {
		if tick-ps.since >= p.HoldTicks {
			p.free = append(p.free, ps.slot)
			continue
		}
		p.pending[n] = ps
		n++
	}
	p.pending = p.pending[:n]
}

// Restore places a unit at a fixed slot, growing the pool as needed.
// Used when loading snapshots.
func (p *Pool) Restore(slot int, t *Type) *Unit {
	for len(p.units) <= slot {
		s := len(p.units)
		p.units = append(p.units, &Unit{Slot: s, pool: p})
		p.free = append(p.free, s)
	}
	for i, s := range p.free {
		if s == slot {
			p.free = append(p.free[:i], p.free[i+1:]...)
			break
		}
	}
	u := p.units[slot]
	if u.Type != nil {
		Invariant(u, "restore into occupied slot")
	}
	u.Init(t)
	p.live++
	return u
}
