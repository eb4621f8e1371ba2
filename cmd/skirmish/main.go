package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/1siamBot/rts-simcore/engine/config"
	"github.com/1siamBot/rts-simcore/engine/core"
	"github.com/1siamBot/rts-simcore/engine/logger"
	"github.com/1siamBot/rts-simcore/engine/savegame"
	"github.com/1siamBot/rts-simcore/engine/scenario"
	"github.com/1siamBot/rts-simcore/engine/systems"
)

func main() {
	var (
		configDir string
		ticks     int
		noSave    bool
		restoreID uint
	)
	flag.StringVar(&configDir, "config", ".", "Directory holding "+config.FileName)
	flag.IntVar(&ticks, "ticks", 0, "Ticks to run (0 = scenario.ticks)")
	flag.BoolVar(&noSave, "no-save", false, "Skip savegame writes")
	flag.UintVar(&restoreID, "restore", 0, "Snapshot id to resume from")
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
	if ticks <= 0 {
		ticks = sc.Ticks
	}

	var store *savegame.Store
	if path := config.GetString("savegame.path"); path != "" && !noSave {
		if store, err = savegame.Open(path); err != nil {
			log.Fatal().Err(err).Msg("Savegame store unavailable")
		}
		defer store.Close()
	}

	if restoreID != 0 {
		// players come from the scenario, units from the snapshot
		sc.Units = nil
	}
	game, err := scenario.Load(sc, rules)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build scenario")
	}
	sim := game.Sim
	if restoreID != 0 {
		if store == nil {
			log.Fatal().Msg("-restore needs a savegame store")
		}
		snap, err := store.Load(restoreID)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load snapshot")
		}
		if err := savegame.Restore(snap, sim); err != nil {
			log.Fatal().Err(err).Msg("Failed to restore snapshot")
		}
	}

	if addr := config.GetString("metricsAddr"); addr != "" {
		srv := &http.Server{Addr: addr, Handler: metricsMux(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			log.Info().Str("addr", addr).Msg("Metrics listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("Metrics server stopped")
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info().Msg("Shutting down...")
		cancel()
	}()

	sim.Bus.On(core.EvtPlayerDefeated, func(e core.Event) {
		log.Info().Uint64("tick", e.Tick).Interface("payload", e.Payload).Msg("Player defeated")
	})

	every := config.GetInt("savegame.every")
	loop := core.NewGameLoop(sim, rules.TickRate)
	loop.Play()
	start := time.Now()
	for i := 0; i < ticks; i++ {
		if ctx.Err() != nil {
			break
		}
		loop.Step(1)
		if team, over := scenario.Winner(sim); over {
			l := logger.ForTick(sim.World.TickCount)
			l.Info().Int("team", team).Msg("Game over")
			loop.Stop()
			break
		}
		if store != nil && every > 0 && loop.CurrentTick()%uint64(every) == 0 {
			save(store, sim, game.MapName, "autosave")
		}
	}

	log.Info().
		Uint64("ticks", loop.CurrentTick()).
		Dur("elapsed", time.Since(start)).
		Int("units", sim.Pool.Live()).
		Msg("Skirmish finished")
	report(sim)
	if store != nil {
		save(store, sim, game.MapName, "final")
	}
}

func metricsMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func save(store *savegame.Store, sim *systems.Sim, mapName, name string) {
	if _, err := store.Save(sim, name, mapName); err != nil {
		log.Error().Err(err).Str("name", name).Msg("Snapshot failed")
	}
}

func report(sim *systems.Sim) {
	for _, p := range sim.Players.Players {
		if p.IsNeutral() {
			continue
		}
		log.Info().
			Int("player", p.Index).
			Str("name", p.Name).
			Bool("defeated", p.Defeated).
			Int("score", p.Score).
			Int("kills", p.TotalKills).
			Int("razings", p.TotalRazings).
			Int("units", p.UnitCount()).
			Msg("Result")
	}
}
