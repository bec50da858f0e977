package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all engine configuration.
type Config struct {
	Project Project
	Backup  Backup
	Logging Logging
}

// Project holds project tree configuration.
type Project struct {
	Root     string `envconfig:"PROJECT_ROOT" default:"."`
	Manifest string `envconfig:"MANIFEST_FILE" default:"package.json"`
}

// Backup holds pre-install snapshot configuration used for compensating
// rollback.
type Backup struct {
	Enabled bool   `envconfig:"BACKUP_ENABLED" default:"true"`
	Dir     string `envconfig:"BACKUP_DIR" default:".stacksmith/backups"`
}

// Logging holds logging configuration.
type Logging struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("STACKSMITH", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Project: Project{
			Root:     ".",
			Manifest: "package.json",
		},
		Backup: Backup{
			Enabled: true,
			Dir:     ".stacksmith/backups",
		},
		Logging: Logging{
			Level:       "info",
			Development: false,
		},
	}
}
