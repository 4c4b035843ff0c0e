package config

import (
	"os"
	"strconv"

	"prevalence/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Data     DataConfig
	Defaults DefaultsConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port string
}

// DatabaseConfig holds database connection settings. URL may be empty, in
// which case analyses are kept in memory only.
type DatabaseConfig struct {
	URL string
}

// DataConfig holds data-file settings for the CLI
type DataConfig struct {
	File   string // .xlsx or .csv of per-individual p-values
	Column string // column holding the p-values
}

// DefaultsConfig holds the default inference parameters applied when a
// request leaves them unset.
type DefaultsConfig struct {
	AlphaIndividual float64
	BetaIndividual  float64
	AlphaGroup      float64
	Gamma0          float64
	GridStep        float64
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: getEnvOrDefault("PORT", "8080"),
		},
		Database: DatabaseConfig{
			URL: getEnvOrDefault("DATABASE_URL", ""),
		},
		Data: DataConfig{
			File:   getEnvOrDefault("DATA_FILE", ""),
			Column: getEnvOrDefault("DATA_COLUMN", "p_value"),
		},
		Defaults: DefaultsConfig{
			AlphaIndividual: getEnvFloatOrDefault("ALPHA_INDIVIDUAL", 0.05),
			BetaIndividual:  getEnvFloatOrDefault("BETA_INDIVIDUAL", 1.0),
			AlphaGroup:      getEnvFloatOrDefault("ALPHA_GROUP", 0.05),
			Gamma0:          getEnvFloatOrDefault("GAMMA_0", 0.5),
			GridStep:        getEnvFloatOrDefault("GRID_STEP", 0.001),
		},
	}

	if err := validateConfig(cfg); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return cfg, nil
}

func validateConfig(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.ConfigInvalid("server port is required")
	}
	d := cfg.Defaults
	if d.AlphaIndividual <= 0 || d.AlphaIndividual >= 1 {
		return errors.ConfigInvalid("ALPHA_INDIVIDUAL must be in (0,1)")
	}
	if d.BetaIndividual <= 0 || d.BetaIndividual > 1 {
		return errors.ConfigInvalid("BETA_INDIVIDUAL must be in (0,1]")
	}
	if d.AlphaIndividual >= d.BetaIndividual {
		return errors.ConfigInvalid("ALPHA_INDIVIDUAL must be below BETA_INDIVIDUAL")
	}
	if d.AlphaGroup <= 0 || d.AlphaGroup >= 1 {
		return errors.ConfigInvalid("ALPHA_GROUP must be in (0,1)")
	}
	if d.Gamma0 < 0 || d.Gamma0 > 1 {
		return errors.ConfigInvalid("GAMMA_0 must be in [0,1]")
	}
	if d.GridStep <= 0 || d.GridStep > 0.5 {
		return errors.ConfigInvalid("GRID_STEP must be in (0,0.5]")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
