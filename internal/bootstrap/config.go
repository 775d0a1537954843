package bootstrap

import (
	"fmt"

	"github.com/jonesrussell/finfeed/internal/config"
	"github.com/jonesrussell/finfeed/internal/logger"
)

// LoadConfig loads configuration from the given path, falling back to the
// CONFIG_PATH environment variable and then config.yml.
func LoadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = config.GetConfigPath("config.yml")
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// CreateLogger creates a logger instance from configuration.
func CreateLogger(cfg *config.Config, version string) (logger.Logger, error) {
	level := "info"
	if cfg.Debug {
		level = "debug"
	}

	log, err := logger.New(logger.Config{
		Level:       level,
		Development: cfg.Debug,
	})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return log.With(
		logger.String("service", "finfeed"),
		logger.String("version", version),
	), nil
}
