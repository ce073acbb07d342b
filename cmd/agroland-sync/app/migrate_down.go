package app

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/spf13/cobra"

	"github.com/agroland/agroland-sync/database"
)

// errMigrationCancelled is returned when the user declines a destructive migration
var errMigrationCancelled = errors.New("migration cancelled by user")

func newMigrateDownCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "down",
		Short: "Migrate the database down",
		Long: `Migrate the database schema down by reverting migrations.
WARNING: This operation can result in data loss. Use with caution.

Examples:
  # Migrate down by 1 step
  agroland-sync migrate down --config config.yaml --num-steps 1 --yes

  # Migrate down all the way (WARNING: destroys all data)
  agroland-sync migrate down --config config.yaml --yes`,
		RunE: runMigrateDown,
	}
}

func runMigrateDown(cmd *cobra.Command, _ []string) error {
	numSteps, err := cmd.Flags().GetUint("num-steps")
	if err != nil {
		return fmt.Errorf("failed to get num-steps flag: %w", err)
	}
	if numSteps > math.MaxInt32 {
		return fmt.Errorf("number of steps exceeds maximum allowed value")
	}

	m, target, err := newMigrator(cmd)
	if err != nil {
		return err
	}
	defer closeMigrator(m)

	ok, err := confirmed(cmd, migrateDownPrompt(target, numSteps))
	if err != nil {
		return err
	}
	if !ok {
		slog.Info("Migration cancelled")
		return errMigrationCancelled
	}

	if numSteps == 0 {
		slog.Warn("Migrating down all steps - this will remove all schema!")
	} else {
		slog.Info("Migrating down", "steps", numSteps)
	}
	if err := database.MigrateDown(m, int(numSteps)); err != nil { // #nosec G115 -- bounded above
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("Migration completed successfully")
	displayMigrationVersion(m)
	return nil
}

func migrateDownPrompt(target string, numSteps uint) string {
	if numSteps == 0 {
		return fmt.Sprintf("WARNING: This will migrate %s down ALL steps and may result in complete data loss. Continue?", target)
	}
	return fmt.Sprintf("WARNING: This will migrate %s down %d step(s) and may result in data loss. Continue?", target, numSteps)
}
