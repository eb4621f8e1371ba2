package systems

import (
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/1siamBot/rts-simcore/engine/core"
	"github.com/1siamBot/rts-simcore/engine/unit"
)

var (
	ErrSameOwner = errors.New("unit already belongs to that player")
	ErrNotAlive  = errors.New("unit is not alive")
	ErrNoPlayer  = errors.New("no player to transfer to")
)

// blinkTicks is how long a transferred unit flashes
const blinkTicks = 5

// ChangeOwner transfers u to p. The old owner loses u exactly as on
// destruction, minus the release; p gains it with p's upgrades applied.
// A refused transfer has no side effects.
func (s *Sim) ChangeOwner(u *unit.Unit, p *core.Player, show bool) error {
	return s.changeOwner(u, p, show, "direct")
}

func (s *Sim) changeOwner(u *unit.Unit, p *core.Player, show bool, reason string) error {
	if p == nil {
		return ErrNoPlayer
	}
	old := u.Player
	if p == old {
		return ErrSameOwner
	}
	if !u.IsAlive() {
		return ErrNotAlive
	}

	if old != nil && old.Type.IsRescuable() {
		for _, in := range append([]*unit.Unit(nil), u.Inside...) {
			if in.Player == old {
				if err := s.changeOwner(in, p, false, reason); err != nil {
					log.Debug().Err(err).Int("slot", in.Slot).Msg("passenger kept its owner")
				}
			}
		}
	}

	if old != nil {
		s.UnitLost(u)
	}
	s.UnmarkUnitSight(u)
	u.Player = nil
	s.AssignToPlayer(u, p)
	s.applyPlayerUpgrades(u, p, old)
	unit.UpdateSightRange(u)
	s.MarkUnitSight(u)
	// one mark plus a recount derives the counters of every player
	s.CountSeen(u)

	if show {
		u.Blink = blinkTicks
		s.unitEffect(EffectBlink, u, blinkTicks, "")
		if p.Type == core.PlayerPerson && old != nil && old.Type.IsRescuable() {
			s.effect(Effect{Kind: EffectSound, Slot: u.Slot, Player: p.Index, Pos: u.PixelCenter(), Name: "rescue"})
		}
	}

	ownerChanges.WithLabelValues(reason).Inc()
	s.emit(core.EvtOwnerChanged, core.OwnerPayload{Slot: u.Slot, From: playerIndex(old), To: p.Index})
	log.Debug().
		Int("slot", u.Slot).
		Int("from", playerIndex(old)).
		Int("to", p.Index).
		Str("reason", reason).
		Msg("owner changed")
	return nil
}

// RescueSystem hands units of rescuable players to the first other
// player that comes close.
type RescueSystem struct {
	Sim *Sim
}

func (rs *RescueSystem) Priority() int { return 60 }

func (rs *RescueSystem) Update(w *core.World, dt float64) {
	s := rs.Sim
	for _, p := range s.Players.Players {
		if !p.Type.IsRescuable() {
			continue
		}
		for _, u := range s.unitsOf(p) {
			if u.Removed || !u.IsAlive() {
				continue
			}
			r := rs.rescuer(u)
			if r == nil {
				continue
			}
			if err := s.changeOwner(u, r.Player, true, "rescue"); err != nil {
				continue
			}
			u.RescuedFrom = p
			s.emit(core.EvtUnitRescued, core.OwnerPayload{Slot: u.Slot, From: p.Index, To: r.Player.Index})
		}
	}
}

// rescuer returns the closest unit of a player able to rescue u
func (rs *RescueSystem) rescuer(u *unit.Unit) *unit.Unit {
	s := rs.Sim
	w, h := u.Type.TileSize()
	rng := s.Rules.RescueRange
	pos := core.TilePos{X: u.TilePos.X - rng, Y: u.TilePos.Y - rng}

	var best *unit.Unit
	bestDist := rng + 1
	for _, slot := range s.Map.UnitsIn(pos, w+2*rng, h+2*rng, u.MapLayer) {
		o := s.Pool.Get(slot)
		if o == nil || o.Player == nil || o.Removed || !o.IsAlive() || o.Type.Building {
			continue
		}
		if o.Player == u.Player || o.Player.IsNeutral() || o.Player.Type.IsRescuable() {
			continue
		}
		if d := o.MapDistanceTo(u); d < bestDist || d == bestDist && best != nil && o.Slot < best.Slot {
			best, bestDist = o, d
		}
	}
	return best
}
