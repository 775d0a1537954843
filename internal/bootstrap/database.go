package bootstrap

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/finfeed/internal/config"
	"github.com/jonesrussell/finfeed/internal/database"
	"github.com/jonesrussell/finfeed/internal/logger"
)

// SetupDatabase creates the Postgres connection when persistence is enabled.
// Returns (nil, nil) when it is not; the service then runs cache-only.
func SetupDatabase(cfg *config.Config, log logger.Logger) (*sqlx.DB, error) {
	if !cfg.Database.Enabled {
		log.Info("Persistence disabled, running cache-only")
		return nil, nil
	}

	db, err := database.NewPostgresConnection(database.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("database connection: %w", err)
	}

	log.Info("Database connected",
		logger.String("host", cfg.Database.Host),
		logger.String("dbname", cfg.Database.DBName),
	)
	return db, nil
}
