package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"fabricquote/internal/config"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

func init() {
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// Open connects to the configured database, retrying until cfg.ConnectTimeout elapses.
func Open(ctx context.Context, cfg config.Database, logger *zap.Logger) (*sqlx.DB, error) {
	switch cfg.Driver {
	case DriverPostgres:
		return openPostgres(ctx, cfg, logger)
	case DriverSQLite:
		return OpenSQLite(ctx, cfg.Path)
	default:
		return nil, fmt.Errorf("storage.Open: unsupported driver %q", cfg.Driver)
	}
}

func openPostgres(ctx context.Context, cfg config.Database, logger *zap.Logger) (*sqlx.DB, error) {
	const operation = "storage.openPostgres"

	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.SSLMode,
	)

	var db *sqlx.DB
	var err error

	retryPolicy := backoff.NewExponentialBackOff()
	retryPolicy.MaxElapsedTime = cfg.ConnectTimeout
	retryPolicy.MaxInterval = 15 * time.Second

	logger.Info("Connecting to PostgreSQL...", zap.String("host", cfg.Host), zap.String("database", cfg.Name))

	err = backoff.RetryNotify(
		func() error {
			db, err = sqlx.ConnectContext(ctx, DriverPostgres, connStr)
			if err != nil {
				return fmt.Errorf("connect: %w", err)
			}
			return nil
		},
		backoff.WithContext(retryPolicy, ctx),
		func(err error, duration time.Duration) {
			logger.Warn("PostgreSQL connection failed, retrying...",
				zap.Error(err),
				zap.Duration("next_attempt_in", duration))
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to connect after retries: %w", operation, err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	logger.Info("Successfully connected to PostgreSQL")
	return db, nil
}

// OpenSQLite opens a SQLite database file, or a private in-memory database for ":memory:".
func OpenSQLite(ctx context.Context, path string) (*sqlx.DB, error) {
	const operation = "storage.OpenSQLite"

	db, err := sqlx.Open(DriverSQLite, path)
	if err != nil {
		return nil, fmt.Errorf("%s: open: %w", operation, err)
	}

	pragmas := `PRAGMA foreign_keys = ON; PRAGMA busy_timeout = 5000;`
	if path == ":memory:" {
		// Every new connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	} else {
		pragmas += ` PRAGMA journal_mode = WAL;`
	}

	if _, err := db.ExecContext(ctx, pragmas); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: set pragmas: %w", operation, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: ping: %w", operation, err)
	}
	return db, nil
}
