package main

import (
	"context"
	"database/sql"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"fabricquote/internal/storage"
)

func newMigrateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	step := func(use, short string, run func(ctx context.Context, db *sql.DB, driver string, logger *zap.Logger) error) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				db, err := storage.Open(cmd.Context(), a.cfg.Database, a.logger)
				if err != nil {
					return err
				}
				defer db.Close()
				return run(cmd.Context(), db.DB, a.cfg.Database.Driver, a.logger)
			},
		}
	}

	cmd.AddCommand(
		step("up", "Apply all pending migrations", storage.RunMigrations),
		step("down", "Roll back the latest migration", storage.RollbackMigration),
		step("status", "Print applied and pending migrations", storage.Status),
	)
	return cmd
}
