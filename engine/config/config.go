package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// FileName is the configuration file looked up by Load
const FileName = "simcore.json"

// RulesConfig holds the gameplay switches read by the simulation
type RulesConfig struct {
	TickRate float64 `json:"tickRate" mapstructure:"tickRate"`
	Seed     int64   `json:"seed" mapstructure:"seed"`

	CaptureBuildings  bool `json:"captureBuildings" mapstructure:"captureBuildings"`
	XPFromDamage      bool `json:"xpFromDamage" mapstructure:"xpFromDamage"`
	ExpShareRadius    int  `json:"expShareRadius" mapstructure:"expShareRadius"`
	RevealAttacker    bool `json:"revealAttacker" mapstructure:"revealAttacker"`
	CriticalHPPercent int  `json:"criticalHpPercent" mapstructure:"criticalHpPercent"`
	FleeDistance      int  `json:"fleeDistance" mapstructure:"fleeDistance"`
	RetaliationTicks  int  `json:"retaliationTicks" mapstructure:"retaliationTicks"`

	LootChance int `json:"lootChance" mapstructure:"lootChance"` // percent
	DropRange  int `json:"dropRange" mapstructure:"dropRange"`

	BurnThreshold int `json:"burnThreshold" mapstructure:"burnThreshold"` // HP percent
	BurnDamage    int `json:"burnDamage" mapstructure:"burnDamage"`
	BurnInterval  int `json:"burnInterval" mapstructure:"burnInterval"` // ticks

	AlertCooldown int `json:"alertCooldown" mapstructure:"alertCooldown"` // ticks
	AlertRadius   int `json:"alertRadius" mapstructure:"alertRadius"`

	TownHallRevealDelay int  `json:"townHallRevealDelay" mapstructure:"townHallRevealDelay"` // ticks
	RescueRange         int  `json:"rescueRange" mapstructure:"rescueRange"`
	ReleaseHoldTicks    int  `json:"releaseHoldTicks" mapstructure:"releaseHoldTicks"`
	CorpseDecayTicks    int  `json:"corpseDecayTicks" mapstructure:"corpseDecayTicks"`
	NoFogOfWar          bool `json:"noFogOfWar" mapstructure:"noFogOfWar"`
}

// DefaultRules returns the rules used when nothing is configured
func DefaultRules() RulesConfig {
	return RulesConfig{
		TickRate:            30,
		Seed:                1,
		ExpShareRadius:      5,
		CriticalHPPercent:   25,
		FleeDistance:        5,
		RetaliationTicks:    30,
		LootChance:          15,
		DropRange:           6,
		BurnThreshold:       50,
		BurnDamage:          2,
		BurnInterval:        30,
		AlertCooldown:       300,
		AlertRadius:         12,
		TownHallRevealDelay: 9000,
		RescueRange:         1,
		ReleaseHoldTicks:    10,
		CorpseDecayTicks:    600,
	}
}

func setDefaults() {
	d := DefaultRules()
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("metricsAddr", ":9102")
	viper.SetDefault("savegame.path", "./simcore.db")
	viper.SetDefault("savegame.every", 0)
	viper.SetDefault("scenario.map", "")
	viper.SetDefault("scenario.types", "")
	viper.SetDefault("scenario.ticks", 3000)
	viper.SetDefault("scenario.width", 32)
	viper.SetDefault("scenario.height", 32)

	viper.SetDefault("rules.tickRate", d.TickRate)
	viper.SetDefault("rules.seed", d.Seed)
	viper.SetDefault("rules.captureBuildings", d.CaptureBuildings)
	viper.SetDefault("rules.xpFromDamage", d.XPFromDamage)
	viper.SetDefault("rules.expShareRadius", d.ExpShareRadius)
	viper.SetDefault("rules.revealAttacker", d.RevealAttacker)
	viper.SetDefault("rules.criticalHpPercent", d.CriticalHPPercent)
	viper.SetDefault("rules.fleeDistance", d.FleeDistance)
	viper.SetDefault("rules.retaliationTicks", d.RetaliationTicks)
	viper.SetDefault("rules.lootChance", d.LootChance)
	viper.SetDefault("rules.dropRange", d.DropRange)
	viper.SetDefault("rules.burnThreshold", d.BurnThreshold)
	viper.SetDefault("rules.burnDamage", d.BurnDamage)
	viper.SetDefault("rules.burnInterval", d.BurnInterval)
	viper.SetDefault("rules.alertCooldown", d.AlertCooldown)
	viper.SetDefault("rules.alertRadius", d.AlertRadius)
	viper.SetDefault("rules.townHallRevealDelay", d.TownHallRevealDelay)
	viper.SetDefault("rules.rescueRange", d.RescueRange)
	viper.SetDefault("rules.releaseHoldTicks", d.ReleaseHoldTicks)
	viper.SetDefault("rules.corpseDecayTicks", d.CorpseDecayTicks)
	viper.SetDefault("rules.noFogOfWar", d.NoFogOfWar)
}

// Load reads configuration from the JSON file in configDir and sets
// default values.
func Load(configDir string) error {
	setDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

// Rules decodes the rules section
func Rules() (RulesConfig, error) {
	r := DefaultRules()
	if err := viper.UnmarshalKey("rules", &r); err != nil {
		return r, fmt.Errorf("decode rules: %w", err)
	}
	if r.TickRate <= 0 {
		return r, fmt.Errorf("rules.tickRate must be positive, got %v", r.TickRate)
	}
	return r, nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}
