package cli

import (
	"errors"
	"fmt"

	"investment_portal/internal/db"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(createAdminCmd)
	rootCmd.AddCommand(completePositionsCmd)

	createAdminCmd.Flags().String("username", "admin", "Admin username")
	createAdminCmd.Flags().String("email", "", "Admin sign-in email")
	createAdminCmd.Flags().String("password", "", "Admin password (at least 8 characters)")
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, conn, err := connect()
		if err != nil {
			return err
		}
		return db.Migrate(conn)
	},
}

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create the first admin account",
	Long:  `Create an admin profile unless one already exists. Running it again is harmless.`,
	RunE:  runCreateAdmin,
}

func runCreateAdmin(cmd *cobra.Command, args []string) error {
	username, _ := cmd.Flags().GetString("username")
	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")
	if email == "" || password == "" {
		return errors.New("--email and --password are required")
	}
	svc, _, err := connect()
	if err != nil {
		return err
	}
	admin, created, err := svc.EnsureAdmin(cmd.Context(), username, email, password)
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	if !created {
		fmt.Fprintf(cmd.OutOrStdout(), "Admin already exists: %s (id %d)\n", admin.Username, admin.ID)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created admin %s (id %d)\n", admin.Username, admin.ID)
	return nil
}

var completePositionsCmd = &cobra.Command{
	Use:   "complete-positions",
	Short: "Mark expired package positions as completed",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, err := connect()
		if err != nil {
			return err
		}
		n, err := svc.CompleteExpiredPositions(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Completed %d position(s)\n", n)
		return nil
	},
}
