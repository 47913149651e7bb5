package config

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Load loads and validates the relay configuration.
//
// The sequence is:
//  1. Enforce UTC to prevent timezone drift in logs.
//  2. Load a .env file if present (non-fatal if missing; existing
//     environment variables are never overridden).
//  3. Process envconfig struct tags to populate the Config struct.
//  4. Validate the populated struct.
//
// The routing table is loaded separately via LoadRoutes, which needs the
// RoutesConfig returned here.
func Load() (*Config, error) {
	time.Local = time.UTC

	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, &ConfigError{
			Type:    ErrParsing,
			Message: "failed to process environment configuration",
			Err:     err,
		}
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, &ConfigError{
			Type:    ErrValidation,
			Message: "configuration validation failed",
			Err:     err,
		}
	}

	return &cfg, nil
}
