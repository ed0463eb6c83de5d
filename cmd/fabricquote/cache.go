package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"fabricquote/internal/storage"
)

func newCacheCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Maintain the SQL calculation cache",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "prune",
		Short: "Delete cache entries older than CACHE_TTL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := storage.Open(cmd.Context(), a.cfg.Database, a.logger)
			if err != nil {
				return err
			}
			defer db.Close()

			n, err := storage.NewSQLCache(db, a.cfg.Cache.TTL).DeleteExpired(cmd.Context())
			if err != nil {
				return err
			}
			a.logger.Info("Calculation cache pruned", zap.Int64("deleted", n))
			cmd.Printf("deleted %d expired entries\n", n)
			return nil
		},
	})
	return cmd
}
