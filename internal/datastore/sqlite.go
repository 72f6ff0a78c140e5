package datastore

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/modwatch/modwatch-go/internal/conf"
)

// SQLiteStore implements the dedup store for SQLite
type SQLiteStore struct {
	DataStore
	Settings *conf.Settings
}

// Open sets up the SQLite database connection and creates the reports table
// if absent.
func (store *SQLiteStore) Open() error {
	db, err := gorm.Open(sqlite.Open(store.Settings.Output.SQLite.Path), &gorm.Config{Logger: createGormLogger()})
	if err != nil {
		return fmt.Errorf("failed to open SQLite database: %w", err)
	}

	store.DB = db
	return performAutoMigration(db, "SQLite")
}

// Close is a no-op for SQLite; the file handle is managed by the driver.
func (store *SQLiteStore) Close() error {
	return nil
}
