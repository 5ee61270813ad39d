// Package cli implements portalctl, the operator command line.
package cli

import (
	"fmt"
	"os"

	"investment_portal/internal/config"
	"investment_portal/internal/db"
	"investment_portal/internal/service"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// openDB connects to the configured database. Tests swap it out.
var openDB = func(cfg *config.Config) (*gorm.DB, error) {
	return db.Open(cfg.DSN(), false)
}

var rootCmd = &cobra.Command{
	Use:           "portalctl",
	Short:         "Operate the investment portal",
	Long:          `portalctl runs one-off maintenance against the portal database: schema migration, admin bootstrap and the position expiry sweep.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// connect loads configuration and opens the database.
func connect() (*service.Service, *gorm.DB, error) {
	cfg := config.LoadConfig()
	conn, err := openDB(cfg)
	if err != nil {
		return nil, nil, err
	}
	return service.New(conn), conn, nil
}

func init() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}
