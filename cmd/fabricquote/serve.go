package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"fabricquote/internal/calculator"
	"fabricquote/internal/server"
	"fabricquote/internal/storage"
	cachestore "fabricquote/internal/storage/redis"
	"fabricquote/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context(), migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", true, "apply pending migrations before serving")
	return cmd
}

func (a *app) serve(ctx context.Context, migrate bool) error {
	db, err := storage.Open(ctx, a.cfg.Database, a.logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if migrate {
		if err := storage.RunMigrations(ctx, db.DB, a.cfg.Database.Driver, a.logger); err != nil {
			return err
		}
	}

	var cache calculator.Cache
	switch a.cfg.Cache.Backend {
	case "redis":
		client, err := redis.New(ctx, redis.Options{
			Addr:           a.cfg.Redis.Addr,
			Password:       a.cfg.Redis.Password,
			DB:             a.cfg.Redis.DB,
			ConnectTimeout: a.cfg.Redis.ConnectTimeout,
		}, a.logger)
		if err != nil {
			a.logger.Warn("Redis unavailable, serving without a calculation cache",
				zap.String("addr", a.cfg.Redis.Addr),
				zap.Error(err))
			break
		}
		defer client.Close()
		cache = cachestore.NewCalculationCache(client, a.cfg.Cache.TTL, a.cfg.Cache.KeyVersion)
	case "sql":
		sqlCache := storage.NewSQLCache(db, a.cfg.Cache.TTL)
		go sqlCache.PruneEvery(ctx, a.cfg.Cache.PruneInterval, a.logger)
		cache = sqlCache
	}

	catalogStore := storage.NewCatalogStore(db, a.logger)
	svc := calculator.NewService(catalogStore, cache, a.cfg.Calculation.Settings(), a.logger)
	api := server.New(svc, catalogStore, a.logger, server.Options{
		RequestTimeout: a.cfg.HTTPRequestTimeout,
		Health:         db,
	})

	httpServer := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           api.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server listening",
			zap.String("addr", a.cfg.HTTPAddr),
			zap.String("cache_backend", a.cfg.Cache.Backend))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}

	a.logger.Info("Server shutdown gracefully")
	return nil
}
