package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"conversiq-server/internal/infrastructure/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Database migration commands",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE:  runMigrateUp,
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current migration version",
	RunE:  runMigrateStatus,
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
}

func runMigrateUp(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	db, err := database.Connect(database.ConfigFromEnv(cfg), log)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() { _ = database.Close(db) }()

	status, err := database.Migrate(cmd.Context(), db, log)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Database at version %d\n", status.Version)
	return nil
}

func runMigrateStatus(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	db, err := database.Connect(database.ConfigFromEnv(cfg), log)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() { _ = database.Close(db) }()

	status, err := database.Status(cmd.Context(), db)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if status.Version == 0 {
		fmt.Fprintln(out, "No migrations applied")
		return nil
	}
	fmt.Fprintf(out, "Version: %d\nDirty:   %t\n", status.Version, status.Dirty)
	return nil
}
