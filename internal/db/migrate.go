package db

import (
	"fmt" // Error wrapping

	"investment_portal/internal/domain" // Importing domain models

	"github.com/sirupsen/logrus" // Structured logging
	"gorm.io/driver/mysql"       // MySQL driver for GORM
	"gorm.io/gorm"               // GORM ORM library
	"gorm.io/gorm/logger"        // GORM query logger levels
)

// Models lists every table managed by AutoMigrate, parents first
func Models() []any {
	return []any{
		&domain.Profile{},     // profiles
		&domain.Package{},     // packages
		&domain.Deposit{},     // deposits
		&domain.Withdrawal{},  // withdrawals
		&domain.Transaction{}, // transactions (ledger)
		&domain.UserPackage{}, // user_packages (positions)
	}
}

// Open connects to MySQL using dsn
func Open(dsn string, verbose bool) (*gorm.DB, error) {
	level := logger.Warn // Only slow queries and errors by default
	if verbose {
		level = logger.Info // Every statement in development
	}
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(level), // Query logging level
		TranslateError: true,                          // Surface unique violations as gorm.ErrDuplicatedKey
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err) // Wrap connection failure
	}
	return db, nil
}

// Migrate performs automatic migration for the database schema
func Migrate(db *gorm.DB) error {
	// AutoMigrate will create tables, missing foreign keys, constraints, columns and indexes
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("migration failed: %w", err) // Wrap migration failure
	}
	logrus.Info("Migration completed.") // Log successful migration
	return nil
}
