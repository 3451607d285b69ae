package main

import (
	"github.com/RagOfJoes/bloom/internal/config"
	"github.com/RagOfJoes/bloom/persistence"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func migrate(_ *cobra.Command, cfg config.Configuration, log zerolog.Logger) error {
	cfg.Database.AutoMigrate = false
	db, err := persistence.NewGorm(cfg.Database, log)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	if err := persistence.Migrate(db); err != nil {
		log.Error().Err(err).Msg("Failed to migrate")
		return err
	}
	log.Info().Str("driver", cfg.Database.Driver).Int("models", len(persistence.Models())).Msg("Migrated")
	return nil
}
