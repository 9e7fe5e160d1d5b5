package models

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	go_sqlite "github.com/glebarez/go-sqlite"
	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open connects to the database, migrates all models and configures the
// connection pool.
func Open(driver, dsn string) (*gorm.DB, error) {
	config := &gorm.Config{
		// Set generated timestamps in UTC
		NowFunc: func() time.Time {
			return time.Now().In(time.UTC)
		},
		Logger: &logger{
			Logger: log.Logger,
		},
	}

	var db *gorm.DB
	var err error

	switch driver {
	case DriverSQLite:
		db, err = openSQLite(dsn, config)
	case DriverPostgres:
		db, err = openPostgres(dsn, config)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDriver, driver)
	}

	if err != nil {
		return nil, err
	}

	return db, registerCallbacks(db)
}

func openSQLite(dsn string, config *gorm.Config) (*gorm.DB, error) {
	path, _, _ := strings.Cut(dsn, "?")
	if path != "" && !strings.HasPrefix(path, ":memory:") && !strings.HasPrefix(path, "file:") {
		err := os.MkdirAll(filepath.Dir(path), 0o750)
		if err != nil {
			return nil, fmt.Errorf("could not create database directory: %w", err)
		}
	}

	// Migration with foreign keys disabled
	//
	// sqlite does not support ALTER COLUMN, so tables are copied to a temporary table,
	// then the table is dropped and recreated
	db, err := gorm.Open(sqlite.Open(dsn), config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	err = migrate(db)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database object: %w", err)
	}
	sqlDB.Close()

	// Now, reconnect with foreign keys enabled
	separator := "?"
	if strings.Contains(dsn, "?") {
		separator = "&"
	}

	db, err = gorm.Open(sqlite.Open(fmt.Sprintf("%s%s_pragma=foreign_keys(1)", dsn, separator)), config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err = db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database object: %w", err)
	}

	// Get new connections after one hour
	sqlDB.SetConnMaxLifetime(time.Hour)

	// This is done to prevent SQLITE_BUSY errors.
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetMaxOpenConns(1)

	return db, nil
}

func openPostgres(dsn string, config *gorm.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	err = migrate(db)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database object: %w", err)
	}

	// Every ledger commit is serialized by the ledger, a small pool is enough
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetMaxOpenConns(4)

	return db, nil
}

func registerCallbacks(db *gorm.DB) error {
	// Query callbacks
	err := db.Callback().Query().After("*").Register("bonus:after_query", queryCallback)
	if err != nil {
		return err
	}

	err = db.Callback().Query().After("*").Register("bonus:after_query_general", generalCallback)
	if err != nil {
		return err
	}

	// Create callbacks
	err = db.Callback().Create().After("*").Register("bonus:after_create", createUpdateCallback)
	if err != nil {
		return err
	}

	err = db.Callback().Create().After("*").Register("bonus:after_create_general", generalCallback)
	if err != nil {
		return err
	}

	// Update callbacks
	err = db.Callback().Update().After("*").Register("bonus:after_update", createUpdateCallback)
	if err != nil {
		return err
	}

	return db.Callback().Update().After("*").Register("bonus:after_update_general", generalCallback)
}

// queryCallback replaces the generic "no record" error with a more user
// friendly one
func queryCallback(db *gorm.DB) {
	if errors.Is(db.Error, gorm.ErrRecordNotFound) {
		// Use the table name as information about the type of resource
		name := strings.TrimSuffix(strings.ReplaceAll(db.Statement.Table, "_", " "), "s")
		db.Error = fmt.Errorf("%w %s matching your query", ErrResourceNotFound, name)
	}
}

// createUpdateCallback inspects errors returned by the database for create
// and update calls and replaces them with user friendly ones
func createUpdateCallback(db *gorm.DB) {
	if db.Error == nil {
		return
	}

	msg := db.Error.Error()

	// One allocation per recipient and distribution
	if strings.Contains(msg, "UNIQUE constraint failed: allocations.distribution_id, allocations.recipient") ||
		strings.Contains(msg, `duplicate key value violates unique constraint "allocations_pkey"`) {
		db.Error = ErrAllocationNotUnique
		return
	}

	if strings.Contains(msg, "UNIQUE constraint failed: distributions.id") ||
		strings.Contains(msg, `duplicate key value violates unique constraint "distributions_pkey"`) {
		db.Error = ErrDistributionNotUnique
	}
}

// generalCallback handles unspecified errors.
//
// For these errors, we cannot provide the user with a helpful message.
// Instead, the error is logged and we return a general message to users.
func generalCallback(db *gorm.DB) {
	if db.Error == nil {
		return
	}

	// "sql: database is closed" is hard-coded in the sql module
	if db.Error.Error() == "sql: database is closed" || reflect.TypeOf(db.Error) == reflect.TypeOf(&go_sqlite.Error{}) {
		log.Error().Msgf("%T: %v", db.Error, db.Error.Error())
		db.Error = ErrGeneral
	}
}

// migrate migrates all models to the schema defined in the code.
func migrate(db *gorm.DB) error {
	err := db.AutoMigrate(Manager{}, Distribution{}, Allocation{}, Event{})
	if err != nil {
		return fmt.Errorf("error during DB migration: %w", err)
	}

	return nil
}
