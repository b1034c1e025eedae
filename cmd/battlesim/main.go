// Package main provides the headless battle simulator. It plays an encounter
// repeatedly with the autopilot and reports how often the player wins.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/deckbattle/internal/config"
	"github.com/cory-johannsen/deckbattle/internal/game/battle"
	"github.com/cory-johannsen/deckbattle/internal/observability"
	"github.com/cory-johannsen/deckbattle/internal/sim"
	"github.com/cory-johannsen/deckbattle/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	encounter := flag.String("encounter", "crab_and_bat", "encounter ID to simulate")
	battles := flag.Int("n", 100, "number of battles to play")
	parallel := flag.Int("parallel", 4, "battles played concurrently")
	maxTurns := flag.Int("max-turns", 100, "turns after which an undecided battle is abandoned")
	seed := flag.Int64("seed", 0, "base seed; overrides battle.seed when non-zero")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *seed != 0 {
		cfg.Battle.Seed = *seed
	}

	logger, err := observability.NewLogger(cfg.Logging, "battlesim")
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	contentStart := time.Now()
	content, err := battle.LoadContent(cfg.Content)
	if err != nil {
		logger.Fatal("loading content", zap.Error(err))
	}
	logger.Info("content loaded",
		zap.Int("cards", len(content.Cards.All())),
		zap.Int("characters", len(content.Characters)),
		zap.Int("encounters", len(content.Encounters)),
		zap.Duration("elapsed", time.Since(contentStart)),
	)

	var journal battle.Journal
	if cfg.Journal.Enabled {
		dbStart := time.Now()
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			logger.Fatal("connecting to database", zap.Error(err))
		}
		defer pool.Close()
		if err := pool.Ready(ctx, 5*time.Second); err != nil {
			logger.Fatal("database not ready", zap.Error(err))
		}
		logger.Info("database connected",
			zap.String("host", cfg.Database.Host),
			zap.Duration("elapsed", time.Since(dbStart)),
		)
		journal = pool.Journal()
	}

	summary, err := sim.Simulate(ctx, sim.Params{
		Content:          content,
		Encounter:        *encounter,
		Battles:          *battles,
		Parallel:         *parallel,
		Battle:           cfg.Battle,
		InstructionLimit: cfg.Scripting.InstructionLimit,
		MaxTurns:         *maxTurns,
		Journal:          journal,
		Logger:           logger,
	})
	if err != nil {
		logger.Error("simulation failed", zap.Error(err))
	}

	fmt.Fprintf(os.Stdout, "%s: %d battles, %d won, %d lost (%.1f%%), %.1f turns/battle [%s]\n",
		*encounter, summary.Battles, summary.Wins, summary.Losses,
		summary.WinRate()*100, avg(summary.Turns, summary.Battles), time.Since(start))
	if err != nil {
		os.Exit(1)
	}
}

func avg(total, n int) float64 {
	if n == 0 {
		return 0
	}
	return float64(total) / float64(n)
}
