package systems

import (
	"sort"

	"github.com/1siamBot/rts-simcore/engine/core"
	"github.com/1siamBot/rts-simcore/engine/maplib"
	"github.com/1siamBot/rts-simcore/engine/pathfind"
	"github.com/1siamBot/rts-simcore/engine/unit"
)

// sightMark is what one unit added to the tile counters. Unmarking
// replays it exactly, whatever changed on the unit or the map since.
type sightMark struct {
	player   int
	layer    int
	sight    []core.TilePos
	cloak    bool
	ethereal bool
	radar    []core.TilePos
	jammer   []core.TilePos
}

type ghostKey struct {
	layer int
	pos   core.TilePos
}

// ghost is the remembered footprint of a removed unit some players still
// hold under fog. The hold ends when they look at the spot again.
type ghost struct {
	u     *unit.Unit
	pos   core.TilePos
	w, h  int
	layer int
}

func bit(p int) uint32 { return 1 << uint(p) }

// visionLayer picks the tile counter that decides whether player p sees u
func visionLayer(u *unit.Unit, p int) maplib.VisionLayer {
	if u.Player != nil && u.Player.Index == p {
		return maplib.LayerSight
	}
	switch {
	case u.Type.PermanentCloak:
		return maplib.LayerCloak
	case u.Type.Ethereal:
		return maplib.LayerEthereal
	}
	return maplib.LayerSight
}

func inRadius(pos core.TilePos, w, h int, p core.TilePos, r int) bool {
	dx := axisGap(pos.X, w, p.X)
	dy := axisGap(pos.Y, h, p.Y)
	return dx*dx+dy*dy <= r*r
}

func axisGap(a, w, p int) int {
	switch {
	case p < a:
		return a - p
	case p >= a+w:
		return p - (a + w - 1)
	default:
		return 0
	}
}

// sightTiles lists the tiles within r of a footprint with a clear line
// from the nearest footprint tile. Opaque tiles are seen but hide what is
// behind them.
func (s *Sim) sightTiles(pos core.TilePos, w, h, layer, r int) []core.TilePos {
	clear := func(x, y int) bool {
		t := s.Map.Tile(core.TilePos{X: x, Y: y}, layer)
		return t != nil && !t.Opaque()
	}
	var out []core.TilePos
	for y := pos.Y - r; y < pos.Y+h+r; y++ {
		for x := pos.X - r; x < pos.X+w+r; x++ {
			p := core.TilePos{X: x, Y: y}
			if !s.Map.InBounds(p) || !inRadius(pos, w, h, p, r) {
				continue
			}
			anchor := core.TilePos{
				X: min(max(x, pos.X), pos.X+w-1),
				Y: min(max(y, pos.Y), pos.Y+h-1),
			}
			if anchor != p && !pathfind.LineOfSight(anchor, p, clear) {
				continue
			}
			out = append(out, p)
		}
	}
	return out
}

func (s *Sim) radiusTiles(pos core.TilePos, w, h, r int) []core.TilePos {
	var out []core.TilePos
	for y := pos.Y - r; y < pos.Y+h+r; y++ {
		for x := pos.X - r; x < pos.X+w+r; x++ {
			p := core.TilePos{X: x, Y: y}
			if s.Map.InBounds(p) && inRadius(pos, w, h, p, r) {
				out = append(out, p)
			}
		}
	}
	return out
}

// MarkUnitSight adds the sight of u and of everything inside it to the
// tile counters. Units whose outermost container is off the map mark
// nothing.
func (s *Sim) MarkUnitSight(u *unit.Unit) {
	s.markSightOne(u)
	for _, in := range u.Inside {
		s.MarkUnitSight(in)
	}
}

// UnmarkUnitSight is the exact inverse of MarkUnitSight
func (s *Sim) UnmarkUnitSight(u *unit.Unit) {
	s.unmarkSightOne(u)
	for _, in := range u.Inside {
		s.UnmarkUnitSight(in)
	}
}

// SightMarked reports whether u currently contributes to the tile counters
func (s *Sim) SightMarked(u *unit.Unit) bool {
	_, ok := s.marks[u.Slot]
	return ok
}

func (s *Sim) markSightOne(u *unit.Unit) {
	if u.Player == nil {
		return
	}
	top := unit.FirstContainer(u)
	if top.Removed {
		return
	}
	if _, ok := s.marks[u.Slot]; ok {
		unit.Invariant(u, "sight marked twice")
	}
	pos, w, h := u.Footprint()
	m := &sightMark{
		player:   u.Player.Index,
		layer:    top.MapLayer,
		cloak:    u.Type.DetectCloak,
		ethereal: u.Type.DetectEthereal,
		sight:    s.sightTiles(pos, w, h, top.MapLayer, u.CurrentSightRange),
	}
	// only a usable outermost unit runs radar
	if u == top && !u.IsUnusable() {
		if r := u.Stats.Get(unit.Radar); r > 0 {
			m.radar = s.radiusTiles(pos, w, h, r)
		}
		if r := u.Stats.Get(unit.RadarJammer); r > 0 {
			m.jammer = s.radiusTiles(pos, w, h, r)
		}
	}
	s.marks[u.Slot] = m

	s.markTiles(maplib.LayerSight, m.player, m.layer, m.sight)
	if m.cloak {
		s.markTiles(maplib.LayerCloak, m.player, m.layer, m.sight)
	}
	if m.ethereal {
		s.markTiles(maplib.LayerEthereal, m.player, m.layer, m.sight)
	}
	s.markTiles(maplib.LayerRadar, m.player, m.layer, m.radar)
	s.markTiles(maplib.LayerJammer, m.player, m.layer, m.jammer)
}

func (s *Sim) unmarkSightOne(u *unit.Unit) {
	m, ok := s.marks[u.Slot]
	if !ok {
		return
	}
	delete(s.marks, u.Slot)

	s.unmarkTiles(maplib.LayerJammer, m.player, m.layer, m.jammer)
	s.unmarkTiles(maplib.LayerRadar, m.player, m.layer, m.radar)
	if m.ethereal {
		s.unmarkTiles(maplib.LayerEthereal, m.player, m.layer, m.sight)
	}
	if m.cloak {
		s.unmarkTiles(maplib.LayerCloak, m.player, m.layer, m.sight)
	}
	s.unmarkTiles(maplib.LayerSight, m.player, m.layer, m.sight)
}

func (s *Sim) markTiles(l maplib.VisionLayer, p, layer int, tiles []core.TilePos) {
	for _, pos := range tiles {
		if t := s.Map.Tile(pos, layer); t != nil && t.Vision.Inc(l, p) {
			s.tileSeen(pos, layer, l, p, true)
		}
	}
}

func (s *Sim) unmarkTiles(l maplib.VisionLayer, p, layer int, tiles []core.TilePos) {
	for _, pos := range tiles {
		if t := s.Map.Tile(pos, layer); t != nil && t.Vision.Dec(l, p) {
			s.tileSeen(pos, layer, l, p, false)
		}
	}
}

// tileSeen updates the counters of the units standing on a tile whose
// counter for player p just left or reached zero.
func (s *Sim) tileSeen(pos core.TilePos, layer int, l maplib.VisionLayer, p int, on bool) {
	if l == maplib.LayerRadar || l == maplib.LayerJammer {
		return
	}
	for _, slot := range append([]int(nil), s.Map.UnitsAt(pos, layer)...) {
		u := s.Pool.Get(slot)
		if u == nil || visionLayer(u, p) != l {
			continue
		}
		if on {
			u.VisCount[p]++
			if u.VisCount[p] == 1 {
				s.goesOutOfFog(u, p)
			}
			continue
		}
		if u.VisCount[p] == 0 {
			unit.Invariant(u, "visibility counter underflow")
		}
		u.VisCount[p]--
		if u.VisCount[p] == 0 {
			s.goesUnderFog(u, p)
		}
	}
	if l == maplib.LayerSight && on {
		s.revealGhosts(pos, layer, p)
	}
}

// CountSeen recomputes the per-player counters of u from the tiles of
// its footprint and fires the transitions. Units off the map count 0.
func (s *Sim) CountSeen(u *unit.Unit) {
	w, h := u.Type.TileSize()
	for p := 0; p < core.PlayerMax; p++ {
		n := 0
		if !u.Removed {
			l := visionLayer(u, p)
			s.Map.Footprint(u.TilePos, w, h, u.MapLayer, func(_ core.TilePos, t *maplib.Tile) {
				if t.Vision.Count(l, p) > 0 {
					n++
				}
			})
		}
		old := u.VisCount[p]
		u.VisCount[p] = n
		switch {
		case old == 0 && n > 0:
			s.goesOutOfFog(u, p)
		case old > 0 && n == 0:
			s.goesUnderFog(u, p)
		}
	}
}

func (s *Sim) goesOutOfFog(u *unit.Unit, p int) {
	fogTransitions.WithLabelValues("out").Inc()
	s.emit(core.EvtUnitOutOfFog, core.FogPayload{Slot: u.Slot, Player: p})

	b := bit(p)
	if u.Seen.ByPlayer&b == 0 {
		u.Seen.ByPlayer |= b
		return
	}
	if u.Hidden&b == 0 || u.Seen.Destroyed&b != 0 {
		return
	}
	if dying(u) {
		u.Seen.Destroyed |= b
	}
	if g, ok := s.ghostBySlot[u.Slot]; ok {
		s.clearGhost(g, p)
		return
	}
	s.releaseHidden(u, p)
}

// dying covers destroyed units and those still playing out their death
// on the map
func dying(u *unit.Unit) bool {
	return u.Destroyed || u.CurrentAction() == unit.ActionDie
}

func (s *Sim) goesUnderFog(u *unit.Unit, p int) {
	fogTransitions.WithLabelValues("under").Inc()
	s.emit(core.EvtUnitUnderFog, core.FogPayload{Slot: u.Slot, Player: p})

	u.Seen.TilePos = u.TilePos
	u.Seen.MapLayer = u.MapLayer
	if !u.Type.VisibleUnderFog {
		return
	}
	b := bit(p)
	if dying(u) {
		u.Seen.Destroyed |= b
		return
	}
	pl := s.Players.GetPlayer(p)
	if pl == nil || pl.Type != core.PlayerPerson || u.Hidden&b != 0 {
		return
	}
	u.RefsIncrease()
	u.Hidden |= b
	hiddenUnits.Inc()
}

func (s *Sim) releaseHidden(u *unit.Unit, p int) {
	u.Hidden &^= bit(p)
	hiddenUnits.Dec()
	u.RefsDecrease()
}

// HiddenUnderFog reports whether player p still holds u as seen under fog
func (s *Sim) HiddenUnderFog(u *unit.Unit, p int) bool {
	return u.Hidden&bit(p) != 0
}

func (s *Sim) registerGhost(u *unit.Unit) {
	if u.Hidden == 0 {
		return
	}
	if _, ok := s.ghostBySlot[u.Slot]; ok {
		return
	}
	w, h := u.Type.TileSize()
	g := &ghost{u: u, pos: u.TilePos, w: w, h: h, layer: u.MapLayer}
	s.ghostBySlot[u.Slot] = g
	s.Map.Footprint(g.pos, w, h, g.layer, func(p core.TilePos, _ *maplib.Tile) {
		k := ghostKey{layer: g.layer, pos: p}
		s.ghosts[k] = append(s.ghosts[k], g)
	})
	// players looking at the spot right now see it empty
	for p := 0; p < core.PlayerMax; p++ {
		if u.Hidden&bit(p) != 0 && s.ghostInSight(g, p) {
			if s.clearGhost(g, p) {
				return
			}
		}
	}
}

func (s *Sim) ghostInSight(g *ghost, p int) bool {
	seen := false
	s.Map.Footprint(g.pos, g.w, g.h, g.layer, func(_ core.TilePos, t *maplib.Tile) {
		if t.Vision.Count(maplib.LayerSight, p) > 0 {
			seen = true
		}
	})
	return seen
}

// clearGhost ends player p's hold on a ghost and reports whether the
// ghost is gone.
func (s *Sim) clearGhost(g *ghost, p int) bool {
	u := g.u
	if dying(u) {
		u.Seen.Destroyed |= bit(p)
	}
	last := u.Hidden == bit(p)
	if last {
		s.dropGhost(g)
	}
	s.releaseHidden(u, p)
	return last
}

func (s *Sim) dropGhost(g *ghost) {
	delete(s.ghostBySlot, g.u.Slot)
	s.Map.Footprint(g.pos, g.w, g.h, g.layer, func(p core.TilePos, _ *maplib.Tile) {
		k := ghostKey{layer: g.layer, pos: p}
		list := s.ghosts[k]
		for i, x := range list {
			if x == g {
				list = append(list[:i], list[i+1:]...)
				break
			}
		}
		if len(list) == 0 {
			delete(s.ghosts, k)
		} else {
			s.ghosts[k] = list
		}
	})
}

func (s *Sim) unregisterGhost(u *unit.Unit) {
	if g, ok := s.ghostBySlot[u.Slot]; ok {
		s.dropGhost(g)
	}
}

func (s *Sim) revealGhosts(pos core.TilePos, layer, p int) {
	list := s.ghosts[ghostKey{layer: layer, pos: pos}]
	if len(list) == 0 {
		return
	}
	for _, g := range append([]*ghost(nil), list...) {
		if g.u.Hidden&bit(p) != 0 {
			s.clearGhost(g, p)
		}
	}
}

// Ghosts returns the number of removed units still remembered under fog
func (s *Sim) Ghosts() int {
	return len(s.ghostBySlot)
}

// IsVisible reports whether player p currently sees u: through its own
// counter, through a player sharing vision with p in both directions, or
// because the owner is revealed.
func (s *Sim) IsVisible(u *unit.Unit, p *core.Player) bool {
	if s.Map.NoFogOfWar {
		return true
	}
	if u.VisCount[p.Index] > 0 {
		return true
	}
	for _, o := range s.Players.VisionSharers(p) {
		if u.VisCount[o.Index] > 0 {
			return true
		}
	}
	return u.Player != nil && u.Player.Revealed && !u.Removed
}

// RadarVisible reports whether p's radar covers u and u's owner does not
// jam it there.
func (s *Sim) RadarVisible(u *unit.Unit, p *core.Player) bool {
	if u.Removed || u.Player == nil {
		return false
	}
	w, h := u.Type.TileSize()
	found := false
	s.Map.Footprint(u.TilePos, w, h, u.MapLayer, func(_ core.TilePos, t *maplib.Tile) {
		if t.Vision.Count(maplib.LayerRadar, p.Index) > 0 && t.Vision.Count(maplib.LayerJammer, u.Player.Index) == 0 {
			found = true
		}
	})
	return found
}

// TileVisible reports whether player p sees a tile, shared vision included
func (s *Sim) TileVisible(p *core.Player, pos core.TilePos, layer int) bool {
	if s.Map.NoFogOfWar {
		return s.Map.InBounds(pos)
	}
	t := s.Map.Tile(pos, layer)
	if t == nil {
		return false
	}
	if t.Vision.Count(maplib.LayerSight, p.Index) > 0 {
		return true
	}
	for _, o := range s.Players.VisionSharers(p) {
		if t.Vision.Count(maplib.LayerSight, o.Index) > 0 {
			return true
		}
	}
	return false
}

// RefreshSight takes every unit's sight off the map, runs fn and puts it
// back. Anything that changes tile opacity goes through here.
func (s *Sim) RefreshSight(fn func()) {
	slots := make([]int, 0, len(s.marks))
	for slot := range s.marks {
		slots = append(slots, slot)
	}
	sort.Ints(slots)
	for _, slot := range slots {
		s.unmarkSightOne(s.Pool.Get(slot))
	}
	fn()
	for _, slot := range slots {
		if u := s.Pool.Get(slot); u != nil {
			s.markSightOne(u)
		}
	}
}
