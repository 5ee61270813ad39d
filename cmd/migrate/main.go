package main

import (
	"investment_portal/internal/config" // Custom import path (Config)
	"investment_portal/internal/db"     // Custom import path (Database)

	"github.com/sirupsen/logrus" // Structured logging
)

// Main entry point for migration
func main() {
	cfg := config.LoadConfig() // Load configuration

	conn, err := db.Open(cfg.DSN(), !cfg.IsProd) // Connect to MySQL
	if err != nil {
		logrus.Fatalf("failed to connect database: %v", err)
	}
	if err := db.Migrate(conn); err != nil {
		logrus.Fatalf("%v", err) // Abort on migration error
	}
}
