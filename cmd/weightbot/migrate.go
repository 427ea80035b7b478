package main

import (
	"fmt"
	"log/slog"

	"github.com/Veraticus/weightbot/internal/cli"
	"github.com/Veraticus/weightbot/internal/config"
	"github.com/Veraticus/weightbot/internal/storage"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run feedback database migrations",
		Long: `Initialize or update the feedback database schema to the latest version.

Only the sqlite and postgres feedback backends have a schema; the json and sheets
backends need no migration.`,
		RunE: runMigrate,
	}

	cmd.Flags().Bool("status", false, "Show current migration status without applying changes")

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	status, _ := cmd.Flags().GetBool("status")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	switch cfg.Feedback.Backend {
	case config.BackendSQLite:
		store, err := storage.NewSQLiteStorage(cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer func() { _ = store.Close() }()

		if status {
			current, err := store.SchemaVersion(ctx)
			if err != nil {
				return fmt.Errorf("failed to read schema version: %w", err)
			}
			printLine(cmd.OutOrStdout(), cli.FormatInfo(fmt.Sprintf("Database: %s", cfg.Database.Path)))
			printLine(cmd.OutOrStdout(), cli.FormatInfo(fmt.Sprintf("Schema version: %d (latest %d)", current, storage.ExpectedSchemaVersion)))
			if current < storage.ExpectedSchemaVersion {
				printLine(cmd.OutOrStdout(), cli.FormatWarning("Run 'weightbot migrate' to upgrade"))
			}
			return nil
		}

		slog.Info("Running database migrations", "database", cfg.Database.Path)
		if err := store.Migrate(ctx); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}

	case config.BackendPostgres:
		if status {
			return fmt.Errorf("--status is only supported for the sqlite backend")
		}
		store, err := storage.NewPostgresStorage(cfg.Feedback.PostgresDSN,
			cfg.Feedback.PostgresMaxConn, cfg.Feedback.PostgresMaxIdleConn)
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		defer func() { _ = store.Close() }()

		slog.Info("Running postgres migrations")
		if err := store.Migrate(ctx); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}

	default:
		printLine(cmd.OutOrStdout(), cli.FormatInfo(fmt.Sprintf("The %s backend has no schema to migrate", cfg.Feedback.Backend)))
		return nil
	}

	printLine(cmd.OutOrStdout(), cli.FormatSuccess("Database migrations completed"))
	return nil
}
