// interfaces.go: the interface for dedup store operations and the shared
// GORM-backed implementation.
package datastore

import (
	"log"
	"os"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/modwatch/modwatch-go/internal/conf"
	"github.com/modwatch/modwatch-go/internal/errors"
)

// Interface abstracts the underlying database implementation and defines the
// dedup store operations.
type Interface interface {
	Open() error
	Exists(identity string) (bool, error)
	SaveReport(identity string) error
	Close() error
}

// DataStore implements the shared query logic using a GORM database. The
// backend-specific stores embed it and provide Open/Close.
type DataStore struct {
	DB *gorm.DB // GORM database instance
}

// New creates a dedup store instance for the backend enabled in settings.
// Returns nil when no backend is enabled; settings validation prevents that
// at startup.
func New(settings *conf.Settings) Interface {
	switch {
	case settings.Output.SQLite.Enabled:
		return &SQLiteStore{Settings: settings}
	case settings.Output.MySQL.Enabled:
		return &MySQLStore{Settings: settings}
	case settings.Output.Postgres.Enabled:
		return &PostgresStore{Settings: settings}
	default:
		return nil
	}
}

// Exists reports whether a report identity has been persisted. All queries
// are parameterized; identities are never interpolated into SQL.
func (ds *DataStore) Exists(identity string) (bool, error) {
	if ds.DB == nil {
		return false, errors.Newf("database connection is not initialized").
			Category(errors.CategoryDatabase).
			Build()
	}

	var count int64
	err := ds.DB.Model(&SeenReport{}).Where("report = ?", identity).Count(&count).Error
	if err != nil {
		return false, errors.New(err).
			Category(errors.CategoryDatabase).
			Context("operation", "exists").
			Build()
	}
	return count > 0, nil
}

// SaveReport inserts a new report identity. Not idempotent: callers check
// Exists first. The check-then-insert pair is not transactional, which is
// safe under the single-consumer loop.
func (ds *DataStore) SaveReport(identity string) error {
	if ds.DB == nil {
		return errors.Newf("database connection is not initialized").
			Category(errors.CategoryDatabase).
			Build()
	}

	if err := ds.DB.Create(&SeenReport{Report: identity}).Error; err != nil {
		return errors.New(err).
			Category(errors.CategoryDatabase).
			Context("operation", "save").
			Build()
	}
	return nil
}

// createGormLogger configures and returns a new GORM logger instance.
func createGormLogger() logger.Interface {
	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: 200 * time.Millisecond,
			LogLevel:      logger.Warn,
			Colorful:      true,
		},
	)
}

// performAutoMigration creates or updates the reports table.
func performAutoMigration(db *gorm.DB, backend string) error {
	if err := db.AutoMigrate(&SeenReport{}); err != nil {
		return errors.New(err).
			Category(errors.CategoryDatabase).
			Context("backend", backend).
			Context("operation", "automigrate").
			Build()
	}
	return nil
}
