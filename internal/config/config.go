package config

import (
	"errors"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/RagOfJoes/bloom/internal/validate"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/unrolled/secure"
	"gorm.io/gorm/logger"
)

// Environment of the API. Note that certain features will be disabled in Production.
type Environment string

var (
	Development Environment = "Development"
	Production  Environment = "Production"
)

// EnvPrefix is prepended to every environment variable override, e.g.
// BLOOM_DATABASE_PASSWORD
const EnvPrefix = "BLOOM"

// Configuration is just that.
type Configuration struct {
	// Name of the API.
	Name string `validate:"required"`
	// Environment of the API.
	//
	// Default: Development
	Environment Environment `validate:"required,oneof='Development' 'Production'"`

	// Essentials
	//

	Log        Log
	Server     Server
	Session    Session
	Database   Database
	Credential Credential

	// Flows
	//

	Verification Verification
	Recovery     Recovery

	// Background work
	//

	Jobs  Jobs
	Queue Queue

	// 3rd party
	//

	Redis    Redis
	Storage  Storage
	SendGrid SendGrid
}

// Default returns a configuration with every optional value set
func Default() Configuration {
	return Configuration{
		Name:        "bloom",
		Environment: Development,

		Log: Log{
			Level:  "info",
			Pretty: true,
		},
		Session: Session{
			Lifetime: time.Hour * 336,
			Cookie: Cookie{
				Persist:  true,
				HttpOnly: true,
				Name:     "bloom_sid",
				SameSite: http.SameSiteLaxMode,
			},
		},
		Database: Database{
			Driver:          "postgres",
			Port:            5432,
			SSLMode:         "disable",
			AutoMigrate:     true,
			LogLevel:        logger.Silent,
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Credential: Credential{
			MinimumScore: 2,
			Argon: Argon{
				Memory:      64 * 1024,
				Iterations:  2,
				Parallelism: 2,
				SaltLength:  16,
				KeyLength:   32,
			},
		},
		Verification: Verification{
			URL:      "verification",
			Lifetime: 24 * time.Hour,
		},
		Recovery: Recovery{
			URL:      "recovery",
			Lifetime: 30 * time.Minute,
		},
		Jobs: Jobs{
			MaxRetries:                3,
			RetryDelay:                5 * time.Second,
			Timeout:                   30 * time.Second,
			Concurrency:               8,
			AttachmentCleanupInterval: time.Hour,
			TokenCleanupInterval:      24 * time.Hour,
		},
		Queue: Queue{
			Driver:    "amqp",
			Default:   "default",
			Recurring: "recurring",
			Prefetch:  10,
		},
		Redis: Redis{
			MaxIdle:     10,
			IdleTimeout: 240 * time.Second,
			CacheTTL:    10 * time.Minute,
		},
		Storage: Storage{
			Root:          "./uploads",
			MaxUploadSize: 10 << 20,
			PresignTTL:    15 * time.Minute,
			AllowedContentTypes: []string{
				"image/jpeg", "image/png", "image/webp", "image/gif", "application/pdf",
			},
		},
		SendGrid: SendGrid{
			Host:    "https://api.sendgrid.com",
			Timeout: 10 * time.Second,
		},
		Server: Server{
			Port:            80,
			Host:            ":",
			RPS:             100,
			Scheme:          "http",
			ReadTimeout:     15 * time.Second,
			ShutdownTimeout: 5 * time.Second,
			AccessControl: AccessControl{
				AllowOrigin:      "*",
				MaxAge:           24 * time.Hour,
				AllowCredentials: true,
				AllowMethods:     []string{"GET", "PUT", "PATCH", "POST", "DELETE", "OPTIONS"},
				AllowHeaders:     []string{"Content-Type", "Content-Length", "X-CSRF-Token", "Authorization", "accept", "origin", "Cache-Control", "X-Requested-With", "X-Session-Token", "X-Account-ID"},
			},
			Security: secure.Options{
				ReferrerPolicy:    "same-origin",
				HostsProxyHeaders: []string{"X-Forwarded-Hosts"},
			},
		},
	}
}

// New reads the configuration file, applies .env and environment overrides
// on top of the defaults and validates the result. The returned value is
// meant to be built once and handed to every component that needs it
func New(filename string, filetype string, filepath string) (*Configuration, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	conf := Default()

	v := viper.New()
	v.SetConfigName(filename)
	v.SetConfigType(filetype)
	v.AddConfigPath(filepath)
	v.AddConfigPath(".")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}
	if err := v.Unmarshal(&conf); err != nil {
		return nil, err
	}
	setupServer(&conf)
	if err := validate.Check(conf); err != nil {
		return nil, err
	}
	return &conf, nil
}
