package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"

	"flux/internal/config"
	"flux/internal/database"
	"flux/internal/logger"
)

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Migration error: %v", err)
	}
}

func run() error {
	if len(os.Args) < 2 {
		return fmt.Errorf("usage: migrate <up|down|version> [N]")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	dbConfig := database.FromAppConfig(cfg)

	source := os.Getenv("MIGRATIONS_SOURCE")
	log := logger.Named("migrate")

	command := os.Args[1]

	switch command {
	case "up":
		return database.Migrate(dbConfig, source, func(m *migrate.Migrate) error {
			return m.Up()
		})

	case "down":
		steps := 1
		if len(os.Args) > 2 {
			steps, err = strconv.Atoi(os.Args[2])
			if err != nil || steps < 1 {
				return fmt.Errorf("invalid step count: %q", os.Args[2])
			}
		}
		if err := database.Migrate(dbConfig, source, func(m *migrate.Migrate) error {
			return m.Steps(-steps)
		}); err != nil {
			return err
		}
		log.Infof("Rolled back %d migration(s)", steps)

	case "version":
		return database.Migrate(dbConfig, source, func(m *migrate.Migrate) error {
			version, dirty, err := m.Version()
			if err != nil {
				return fmt.Errorf("failed to get version: %w", err)
			}
			log.Infof("Version: %d, Dirty: %v", version, dirty)
			return nil
		})

	default:
		return fmt.Errorf("unknown command: %s (use up, down, or version)", command)
	}

	return nil
}
