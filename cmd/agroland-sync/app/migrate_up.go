package app

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/agroland/agroland-sync/database"
)

func newMigrateUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply pending database migrations",
		Long: `Apply all pending database migrations to bring the schema up to date.
This command reads the database connection parameters from the config file
and applies all migrations that haven't been run yet.`,
		RunE: runMigrateUp,
	}
}

func runMigrateUp(cmd *cobra.Command, _ []string) error {
	m, target, err := newMigrator(cmd)
	if err != nil {
		return err
	}
	defer closeMigrator(m)

	ok, err := confirmed(cmd, fmt.Sprintf("About to apply migrations to database %s. Continue?", target))
	if err != nil {
		return err
	}
	if !ok {
		slog.Info("Migration cancelled by user")
		return nil
	}

	slog.Info("Applying database migrations...")
	if err := database.MigrateUp(m); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	displayMigrationVersion(m)
	return nil
}
