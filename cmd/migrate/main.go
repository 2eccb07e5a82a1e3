package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/rs/zerolog/log"

	"github.com/infinito/infinito-api/internal/config"
	"github.com/infinito/infinito-api/internal/pkg/database"
	"github.com/infinito/infinito-api/internal/pkg/logger"
)

func main() {
	steps := flag.Int("steps", 0, "number of migrations to roll back with down (0 = all)")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: migrate [-steps N] up|down|version")
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()
	logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env})

	db, err := database.NewPostgres(context.Background(), cfg.DatabaseURL, database.DefaultPoolConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	m, err := database.NewMigrator(db.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create migrator")
	}

	switch flag.Arg(0) {
	case "up":
		err = m.Up()
	case "down":
		if *steps > 0 {
			err = m.Steps(-*steps)
		} else {
			err = m.Down()
		}
	case "version":
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatal().Err(err).Str("command", flag.Arg(0)).Msg("Migration failed")
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		log.Fatal().Err(err).Msg("Failed to read schema version")
	}
	log.Info().Uint("version", version).Bool("dirty", dirty).Msg("Schema version")
}
