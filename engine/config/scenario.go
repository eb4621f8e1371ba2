package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/1siamBot/rts-simcore/engine/core"
)

// ScenarioConfig describes the starting position of a game
type ScenarioConfig struct {
	Map    string `mapstructure:"map"`   // tile map JSON, empty for open grass
	Types  string `mapstructure:"types"` // unit types file
	Width  int    `mapstructure:"width"`
	Height int    `mapstructure:"height"`
	Ticks  int    `mapstructure:"ticks"`

	Players []PlayerDef `mapstructure:"players"`
	Units   []UnitDef   `mapstructure:"units"`
}

// PlayerDef is one scenario player
type PlayerDef struct {
	Index     int            `mapstructure:"index"`
	Name      string         `mapstructure:"name"`
	Type      string         `mapstructure:"type"`
	Team      int            `mapstructure:"team"`
	AI        string         `mapstructure:"ai"` // easy, medium or hard
	Resources map[string]int `mapstructure:"resources"`
	Vision    []int          `mapstructure:"sharedVision"` // players given shared vision
}

// UnitDef is one unit placed at start. Player -1 is neutral.
type UnitDef struct {
	Type   string `mapstructure:"type"`
	Player int    `mapstructure:"player"`
	X      int    `mapstructure:"x"`
	Y      int    `mapstructure:"y"`
	Layer  int    `mapstructure:"layer"`
	Count  int    `mapstructure:"count"`
}

var playerTypes = map[string]core.PlayerType{
	"person":        core.PlayerPerson,
	"computer":      core.PlayerComputer,
	"neutral":       core.PlayerNeutral,
	"rescuepassive": core.PlayerRescuePassive,
	"rescueactive":  core.PlayerRescueActive,
}

// ParsePlayerType resolves a player type name, case-insensitively
func ParsePlayerType(name string) (core.PlayerType, error) {
	key := strings.ReplaceAll(strings.ToLower(name), "-", "")
	if t, ok := playerTypes[key]; ok {
		return t, nil
	}
	return core.PlayerNobody, fmt.Errorf("unknown player type %q", name)
}

// ParseResource resolves a resource name
func ParseResource(name string) (core.Resource, error) {
	if r, ok := resourceNames[strings.ToLower(name)]; ok {
		return r, nil
	}
	return 0, fmt.Errorf("unknown resource %q", name)
}

// Scenario decodes the scenario section
func Scenario() (ScenarioConfig, error) {
	// the section map from the file carries no defaults, so seed them
	sc := ScenarioConfig{
		Map:    viper.GetString("scenario.map"),
		Types:  viper.GetString("scenario.types"),
		Width:  viper.GetInt("scenario.width"),
		Height: viper.GetInt("scenario.height"),
		Ticks:  viper.GetInt("scenario.ticks"),
	}
	if err := viper.UnmarshalKey("scenario", &sc); err != nil {
		return sc, fmt.Errorf("decode scenario: %w", err)
	}
	if sc.Types == "" {
		return sc, fmt.Errorf("scenario.types is required")
	}
	if sc.Map == "" && (sc.Width <= 0 || sc.Height <= 0) {
		return sc, fmt.Errorf("scenario size %dx%d is not usable", sc.Width, sc.Height)
	}
	seen := make(map[int]bool)
	for _, p := range sc.Players {
		if p.Index < 0 || p.Index >= core.PlayerNumNeutral {
			return sc, fmt.Errorf("player %q: index %d out of range", p.Name, p.Index)
		}
		if seen[p.Index] {
			return sc, fmt.Errorf("player index %d used twice", p.Index)
		}
		seen[p.Index] = true
		if _, err := ParsePlayerType(p.Type); err != nil {
			return sc, fmt.Errorf("player %q: %w", p.Name, err)
		}
	}
	for i, u := range sc.Units {
		if u.Player >= 0 && !seen[u.Player] {
			return sc, fmt.Errorf("unit %d (%s): no player %d", i, u.Type, u.Player)
		}
	}
	return sc, nil
}
