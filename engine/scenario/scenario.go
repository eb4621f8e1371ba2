// Package scenario turns a scenario configuration into a running Sim.
package scenario

import (
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/1siamBot/rts-simcore/engine/ai"
	"github.com/1siamBot/rts-simcore/engine/config"
	"github.com/1siamBot/rts-simcore/engine/core"
	"github.com/1siamBot/rts-simcore/engine/maplib"
	"github.com/1siamBot/rts-simcore/engine/systems"
	"github.com/1siamBot/rts-simcore/engine/unit"
)

// placeRange bounds the search for a free tile around a requested spot
const placeRange = 6

// ErrNoRoom is returned when a scenario unit finds no free tile
var ErrNoRoom = errors.New("no room for scenario unit")

// Game is a built scenario
type Game struct {
	Sim     *systems.Sim
	AI      *ai.System
	MapName string
}

// Load reads the types file and map named by sc, then builds it
func Load(sc config.ScenarioConfig, rules config.RulesConfig) (*Game, error) {
	reg := unit.NewRegistry()
	if err := config.LoadTypes(sc.Types, reg); err != nil {
		return nil, err
	}
	var tm *maplib.TileMap
	if sc.Map != "" {
		var err error
		if tm, err = maplib.LoadJSON(sc.Map); err != nil {
			return nil, fmt.Errorf("load map: %w", err)
		}
	} else {
		tm = maplib.NewTileMap("open field", sc.Width, sc.Height)
	}
	return Build(sc, rules, reg, maplib.NewMap(tm))
}

// Build sets up players, units and AI controllers over m
func Build(sc config.ScenarioConfig, rules config.RulesConfig, reg *unit.Registry, m *maplib.Map) (*Game, error) {
	pm := core.NewPlayerManager()
	defs := append([]config.PlayerDef(nil), sc.Players...)
	sort.Slice(defs, func(i, j int) bool { return defs[i].Index < defs[j].Index })
	for _, d := range defs {
		pt, err := config.ParsePlayerType(d.Type)
		if err != nil {
			return nil, err
		}
		p := core.NewPlayer(d.Index, d.Name, pt)
		p.TeamID = d.Team
		for name, n := range d.Resources {
			r, err := config.ParseResource(name)
			if err != nil {
				return nil, fmt.Errorf("player %q: %w", d.Name, err)
			}
			p.Resources[r] = n
		}
		pm.AddPlayer(p)
	}
	for _, d := range defs {
		p := pm.GetPlayer(d.Index)
		for _, o := range d.Vision {
			if q := pm.GetPlayer(o); q != nil {
				p.SetSharedVision(q, true)
			}
		}
	}

	s := systems.NewSim(m, reg, pm, rules)
	for i, ud := range sc.Units {
		t, ok := reg.Lookup(ud.Type)
		if !ok {
			return nil, fmt.Errorf("unit %d: unknown type %q", i, ud.Type)
		}
		p := pm.Neutral()
		if ud.Player >= 0 {
			p = pm.GetPlayer(ud.Player)
		}
		for n := 0; n < max(ud.Count, 1); n++ {
			pos, ok := s.Oracle.FindNearestValidPosition(t, core.TilePos{X: ud.X, Y: ud.Y}, ud.Layer, placeRange)
			if !ok {
				return nil, fmt.Errorf("unit %d (%s at %d,%d): %w", i, ud.Type, ud.X, ud.Y, ErrNoRoom)
			}
			s.MakeUnitAndPlace(pos, t, p, ud.Layer)
		}
	}

	g := &Game{Sim: s, AI: &ai.System{}, MapName: m.Layer(0).Name}
	for _, d := range defs {
		p := pm.GetPlayer(d.Index)
		if d.AI == "" && p.Type != core.PlayerComputer {
			continue
		}
		diff, err := ai.ParseDifficulty(d.AI)
		if err != nil {
			return nil, fmt.Errorf("player %q: %w", d.Name, err)
		}
		g.AI.Controllers = append(g.AI.Controllers, ai.Attach(s, p, diff))
	}
	s.World.AddSystem(g.AI)

	log.Info().
		Str("map", g.MapName).
		Int("players", len(defs)).
		Int("units", s.Pool.Live()).
		Int("ai", len(g.AI.Controllers)).
		Msg("scenario built")
	return g, nil
}

// Winner reports whether at most one team still has undefeated fighting
// players, and which one. Team is -1 when nobody is left.
func Winner(s *systems.Sim) (team int, over bool) {
	teams := make(map[int]bool)
	for _, p := range s.Players.Players {
		if p.Defeated || (p.Type != core.PlayerPerson && p.Type != core.PlayerComputer) {
			continue
		}
		teams[p.TeamID] = true
	}
	switch len(teams) {
	case 0:
		return -1, true
	case 1:
		for t := range teams {
			return t, true
		}
	}
	return -1, false
}
