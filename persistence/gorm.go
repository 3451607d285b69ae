package persistence

import (
	"time"

	"github.com/RagOfJoes/bloom/internal/config"
	"github.com/RagOfJoes/bloom/internal/logger"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewGorm opens the configured store, installs the callbacks every entity
// relies on and migrates it when enabled
func NewGorm(cfg config.Database, log zerolog.Logger) (*gorm.DB, error) {
	db, err := Open(dialector(cfg), logger.Gorm(log, cfg.LogLevel))
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if cfg.AutoMigrate {
		if err := Migrate(db); err != nil {
			return nil, err
		}
	}
	return db, nil
}

// Open wraps gorm.Open with the settings shared by the application and tests
func Open(d gorm.Dialector, l gormlogger.Interface) (*gorm.DB, error) {
	db, err := gorm.Open(d, &gorm.Config{
		Logger:         l,
		NowFunc:        func() time.Time { return time.Now().UTC() },
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	if err := RegisterCallbacks(db); err != nil {
		return nil, err
	}
	return db, nil
}

func dialector(cfg config.Database) gorm.Dialector {
	if cfg.Driver == "sqlite" {
		return sqlite.Open(cfg.DSN())
	}
	return postgres.Open(cfg.DSN())
}
