package config

import (
	"fmt"
	"time"

	"gorm.io/gorm/logger"
)

type Database struct {
	// Required configurations
	//

	// Driver defines the type of database.
	Driver string `validate:"required,oneof='postgres' 'sqlite'"`
	// Name of the database. For sqlite this is the file path.
	Name string `validate:"required"`
	// Username required to access database.
	Username string `validate:"required_if=Driver postgres"`
	// Password required to access database.
	Password string
	// Host for the database.
	Host string `validate:"required_if=Driver postgres"`
	// Port for the database.
	Port int `validate:"required_if=Driver postgres"`

	// Optional configuration
	//

	// SSLMode passed to postgres.
	//
	// Default: disable
	SSLMode string
	// AutoMigrate will auto migrate models in startup.
	//
	// Default: true
	AutoMigrate bool
	// LogLevel determines what will be logged.
	//
	// Default: 1 || logger.Silent
	LogLevel logger.LogLevel
	// MaxOpenConns caps the connection pool.
	//
	// Default: 25
	MaxOpenConns int
	// MaxIdleConns is the number of idle connections kept around.
	//
	// Default: 5
	MaxIdleConns int
	// ConnMaxLifetime recycles connections older than this.
	//
	// Default: 30m
	ConnMaxLifetime time.Duration
}

// DSN builds the connection string for the configured driver
func (d Database) DSN() string {
	if d.Driver == "sqlite" {
		return d.Name
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s", d.Host, d.Username, d.Password, d.Name, d.Port, d.SSLMode)
}
