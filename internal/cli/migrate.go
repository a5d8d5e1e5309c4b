package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"task-planner/backend/internal/config"

	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Long: `Create or update the database schema.

For postgres and sqlite this runs the table migrations. For mongo it
creates the collection indexes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			return runMigrate(cmd.Context(), cfg, newLogger(cfg, os.Stderr))
		},
	}
}

func runMigrate(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	log.Info("schema is up to date", "driver", cfg.Database.Driver)
	return nil
}
