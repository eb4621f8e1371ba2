package main

import (
	"flag"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/rs/zerolog/log"

	"github.com/1siamBot/rts-simcore/engine/config"
	"github.com/1siamBot/rts-simcore/engine/logger"
	"github.com/1siamBot/rts-simcore/engine/scenario"
)

func main() {
	var (
		configDir string
		viewpoint int
		tilePx    int
	)
	flag.StringVar(&configDir, "config", ".", "Directory holding "+config.FileName)
	flag.IntVar(&viewpoint, "player", 0, "Player whose fog is shown")
	flag.IntVar(&tilePx, "tile", 16, "Screen pixels per map tile")
	flag.Parse()

	if err := config.Load(configDir); err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	logger.Init(config.GetString("logLevel"), nil)

	rules, err := config.Rules()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid rules")
	}
	sc, err := config.Scenario()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid scenario")
	}
	game, err := scenario.Load(sc, rules)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build scenario")
	}

	v, err := NewViewer(game, viewpoint, tilePx)
	if err != nil {
		log.Fatal().Err(err).Msg("Bad viewpoint")
	}
	w, h := v.Layout(0, 0)
	ebiten.SetWindowSize(w, h)
	ebiten.SetWindowTitle("fogview - " + game.MapName)
	ebiten.SetVsyncEnabled(true)

	if err := ebiten.RunGame(v); err != nil {
		log.Fatal().Err(err).Msg("Viewer stopped")
	}
}
