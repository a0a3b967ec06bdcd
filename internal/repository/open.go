package repository

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open returns the store selected by driver, migrated and ready.
// The returned close func releases the database handle; it is a no-op for memory.
func Open(driver, dsn string) (AuctionDB, func() error, error) {
	var dialector gorm.Dialector
	switch driver {
	case "memory":
		return NewMemoryRepo(), func() error { return nil }, nil
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, nil, fmt.Errorf("repository: unknown driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, nil, fmt.Errorf("repository: open %s: %w", driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("repository: %s handle: %w", driver, err)
	}
	if driver == "sqlite" {
		// one writer keeps sqlite from returning SQLITE_BUSY under bid bursts
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	repo := NewGormRepo(db)
	if err := repo.Migrate(); err != nil {
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("repository: migrate %s: %w", driver, err)
	}
	return repo, sqlDB.Close, nil
}
