// SPDX-License-Identifier: MPL-2.0

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	// DriverSQLite selects the pure-Go SQLite driver. The DSN is a file path or ":memory:".
	DriverSQLite = "sqlite"
	// DriverPostgres selects PostgreSQL. The DSN is a libpq connection string or URL.
	DriverPostgres = "postgres"
)

var (
	// ErrUnsupportedDriver is returned by Open for unknown driver names.
	ErrUnsupportedDriver = errors.New("unsupported database driver")

	// ErrDuplicateName is returned by Create when a record with the same name exists.
	ErrDuplicateName = errors.New("module name already stored")
)

type (
	// Store is the entity store the repository reads module records from.
	Store interface {
		// Query starts a new query with no predicates.
		Query() Query
		// Create inserts rec and fills its ID.
		Create(ctx context.Context, rec *Record) error
		// SetActive updates the active flag. It returns false when no record has the name.
		SetActive(ctx context.Context, name string, active bool) (bool, error)
		// DeleteByName removes the record. It returns false when no record has the name.
		DeleteByName(ctx context.Context, name string) (bool, error)
	}

	// GormStore is a Store backed by a GORM connection.
	GormStore struct {
		db *gorm.DB
	}
)

// Open connects to the database selected by driver and dsn.
func Open(driver, dsn string) (*GormStore, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverSQLite, "":
		dialector = sqlite.Open(dsn)
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("%w: %q (expected %s or %s)", ErrUnsupportedDriver, driver, DriverSQLite, DriverPostgres)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}
	return New(db), nil
}

// New wraps an existing GORM connection.
func New(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// DB returns the underlying connection.
func (s *GormStore) DB() *gorm.DB {
	return s.db
}

// Migrate creates or updates the modules table.
func (s *GormStore) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&Record{}); err != nil {
		return fmt.Errorf("migrate %s table: %w", TableName, err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Query implements Store.
func (s *GormStore) Query() Query {
	return gormQuery{db: s.db}
}

// Create implements Store.
func (s *GormStore) Create(ctx context.Context, rec *Record) error {
	var existing int64
	if err := s.db.WithContext(ctx).Model(&Record{}).Where("name = ?", rec.Name).Count(&existing).Error; err != nil {
		return fmt.Errorf("check module %q: %w", rec.Name, err)
	}
	if existing > 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateName, rec.Name)
	}
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("insert module %q: %w", rec.Name, err)
	}
	return nil
}

// SetActive implements Store.
func (s *GormStore) SetActive(ctx context.Context, name string, active bool) (bool, error) {
	result := s.db.WithContext(ctx).Model(&Record{}).Where("name = ?", name).Update("is_active", active)
	if result.Error != nil {
		return false, fmt.Errorf("update module %q: %w", name, result.Error)
	}
	if result.RowsAffected > 0 {
		return true, nil
	}
	// Some drivers report zero affected rows when the value did not change.
	n, err := s.Query().WhereName(name).Count(ctx)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteByName implements Store.
func (s *GormStore) DeleteByName(ctx context.Context, name string) (bool, error) {
	result := s.db.WithContext(ctx).Where("name = ?", name).Delete(&Record{})
	if result.Error != nil {
		return false, fmt.Errorf("delete module %q: %w", name, result.Error)
	}
	return result.RowsAffected > 0, nil
}
