package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/lastorders/closeout/internal/cli"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the database schema to the latest version.

All other commands migrate automatically on startup; this command exists so
new deployments can verify the database before the first ingest.`,
		RunE: runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	slog.Info("Starting database migration", "database", cfg.DatabasePath)

	store, err := openStorage(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	fmt.Println(cli.FormatSuccess("Database schema is up to date"))
	return nil
}
