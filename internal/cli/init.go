// Package cli provides the ftt commands and their shared initialization.
package cli

import (
	"os"

	"github.com/joho/godotenv"

	"ftt/internal/config"
	"ftt/internal/log"
)

// SetupLogger builds the text logger for level and installs it as the
// slog default.
func SetupLogger(level string) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Level = log.ParseLevel(level)
	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads .env files for local development. A missing file is
// not an error.
func LoadEnvFile(paths ...string) error {
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

// LoadAndValidateConfig reads the environment, lets override adjust the
// result and validates it.
func LoadAndValidateConfig(override func(*config.Config)) (*config.Config, error) {
	cfg := config.Load()
	if override != nil {
		override(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
