package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func getLogger(level logger.LogLevel) logger.Interface {
	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true, // Don't include params in the SQL log
			Colorful:                  true,
		},
	)
}

func configureConnectionPool(db *gorm.DB, maxOpen int) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return nil
}

// Open picks the dialector by driver name. Streaming writes one row per
// delta, so the SQL logger stays at Warn outside of debugging.
func Open(driver, dsn string) (*gorm.DB, error) {
	switch driver {
	case "postgres", "":
		return NewGormDBFromDSN(dsn)
	case "sqlite":
		return NewSQLiteDB(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
}

func NewGormDBFromDSN(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: getLogger(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	if err := configureConnectionPool(db, 100); err != nil {
		return nil, err
	}

	return db, nil
}

// NewSQLiteDB keeps a single connection so ":memory:" databases survive
// across queries.
func NewSQLiteDB(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: getLogger(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	if err := configureConnectionPool(db, 1); err != nil {
		return nil, err
	}

	return db, nil
}
