// Package main applies the battle journal schema migrations.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"

	"github.com/cory-johannsen/deckbattle/internal/config"
	"github.com/cory-johannsen/deckbattle/internal/observability"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	dir := flag.String("path", "migrations", "directory holding the *.sql migrations")
	direction := flag.String("direction", "up", "migration direction: up or down")
	steps := flag.Int("steps", 0, "number of steps (0 = all)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	logger, err := observability.NewLogger(cfg.Logging, "migrate")
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	m, err := migrate.New("file://"+*dir, cfg.Database.DSN())
	if err != nil {
		logger.Fatal("creating migrator", zap.Error(err))
	}
	defer m.Close()

	err = apply(m, *direction, *steps)
	version, dirty, _ := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		logger.Info("no changes",
			zap.Uint("version", version),
			zap.Bool("dirty", dirty),
			zap.Duration("elapsed", time.Since(start)),
		)
	case err != nil:
		logger.Fatal("migration failed",
			zap.String("direction", *direction),
			zap.Error(err),
		)
	default:
		logger.Info("migrated",
			zap.String("direction", *direction),
			zap.Uint("version", version),
			zap.Bool("dirty", dirty),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}

// apply runs steps migrations in direction; zero steps runs them all.
func apply(m *migrate.Migrate, direction string, steps int) error {
	switch direction {
	case "up":
		if steps > 0 {
			return m.Steps(steps)
		}
		return m.Up()
	case "down":
		if steps > 0 {
			return m.Steps(-steps)
		}
		return m.Down()
	default:
		return fmt.Errorf("invalid direction %q: must be 'up' or 'down'", direction)
	}
}
