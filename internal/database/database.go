package database

import (
	"example.com/tileflow/services/planning/config"
	"example.com/tileflow/services/planning/internal/models"

	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Connect opens the write and read-only database connections, runs
// migrations on the write side and configures both connection pools.
func Connect(cfg config.DatabaseConfig) (*gorm.DB, *gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{})
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to connect to write database")
	}

	readOnlyDB, err := gorm.Open(postgres.Open(cfg.ReadOnlyDSN), &gorm.Config{})
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to connect to read-only database")
	}

	// Migrations run against the write database only
	if err := models.SetupModels(db); err != nil {
		return nil, nil, errors.Wrap(err, "failed to run migrations")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to get underlying write DB connection")
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	readSqlDB, err := readOnlyDB.DB()
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to get underlying read-only DB connection")
	}
	// Reads dominate, so the read pool gets double the write limits
	readSqlDB.SetMaxIdleConns(cfg.MaxIdleConns * 2)
	readSqlDB.SetMaxOpenConns(cfg.MaxOpenConns * 2)
	readSqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	return db, readOnlyDB, nil
}
