// Command reconcile compares every cached balance with its ledger sum and reports drift.
// It only reads; fixing drift is an admin adjustment.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/infinito/infinito-api/internal/config"
	"github.com/infinito/infinito-api/internal/domain/credit"
	"github.com/infinito/infinito-api/internal/domain/ledger"
	"github.com/infinito/infinito-api/internal/domain/user"
	"github.com/infinito/infinito-api/internal/pkg/database"
	"github.com/infinito/infinito-api/internal/pkg/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.Load()
	logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env})

	ctx := context.Background()

	db, err := database.NewPostgres(ctx, cfg.DatabaseURL, database.DefaultPoolConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	profiles, err := user.NewRepository(db).List(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list profiles")
		return 1
	}

	svc := credit.NewService(ledger.NewRepository(db))

	drifted := 0
	for _, p := range profiles {
		report, err := svc.Reconcile(ctx, p.ID)
		if err != nil {
			log.Error().Err(err).Str("user_id", p.ID.String()).Msg("reconcile failed")
			drifted++
			continue
		}
		if !report.Consistent {
			drifted++
			fmt.Printf("%s\t%s\tbalance=%d\tledger=%d\tdrift=%d\n", p.ID, p.Email, report.Balance, report.LedgerSum, report.Drift)
		}
	}

	log.Info().Int("profiles", len(profiles)).Int("drifted", drifted).Msg("Reconciliation finished")
	if drifted > 0 {
		return 1
	}
	return 0
}
