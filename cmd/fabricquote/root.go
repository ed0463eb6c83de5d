package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"fabricquote/internal/config"
	"fabricquote/pkg/logger"
)

// app carries what every subcommand needs once the root command has run.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "fabricquote",
		Short:         "Pricing-grid normalization and fabric quoting for curtains and blinds",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			zapLogger, err := logger.New(cfg.LogLevel)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			a.cfg = cfg
			a.logger = zapLogger
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.AddCommand(
		newServeCmd(a),
		newMigrateCmd(a),
		newGridCmd(a),
		newQuoteCmd(a),
		newCacheCmd(a),
	)
	return root
}
