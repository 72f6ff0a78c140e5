package datastore

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/modwatch/modwatch-go/internal/conf"
)

// PostgresStore implements the dedup store for PostgreSQL, the backend the
// original deployment ran on.
type PostgresStore struct {
	DataStore
	Settings *conf.Settings
}

// Open sets up the PostgreSQL database connection and creates the reports
// table if absent.
func (store *PostgresStore) Open() error {
	db, err := gorm.Open(postgres.Open(store.Settings.Output.Postgres.DSN), &gorm.Config{Logger: createGormLogger()})
	if err != nil {
		return fmt.Errorf("failed to open PostgreSQL database: %w", err)
	}

	store.DB = db
	return performAutoMigration(db, "PostgreSQL")
}

// Close releases the PostgreSQL connection pool.
func (store *PostgresStore) Close() error {
	if store.DB == nil {
		return fmt.Errorf("database connection is not initialized")
	}
	sqlDB, err := store.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to retrieve generic DB object: %w", err)
	}
	return sqlDB.Close()
}
