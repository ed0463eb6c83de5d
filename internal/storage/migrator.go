package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"fabricquote/internal/storage/migrations"
)

// gooseDialect maps a database/sql driver name to goose's dialect name.
func gooseDialect(driver string) (string, error) {
	switch driver {
	case DriverPostgres:
		return "postgres", nil
	case DriverSQLite:
		return "sqlite3", nil
	default:
		return "", fmt.Errorf("no migration dialect for driver %q", driver)
	}
}

type gooseLogger struct {
	*zap.SugaredLogger
}

func (l gooseLogger) Printf(format string, args ...any) {
	l.Infof(format, args...)
}

func prepareGoose(driver string, logger *zap.Logger) error {
	dialect, err := gooseDialect(driver)
	if err != nil {
		return err
	}
	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(gooseLogger{logger.Sugar()})
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	return nil
}

func RunMigrations(ctx context.Context, db *sql.DB, driver string, logger *zap.Logger) error {
	const operation = "storage.RunMigrations"

	logger.Info("Running database migrations...")

	if err := prepareGoose(driver, logger); err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}

	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("%s: failed to run migrations: %w", operation, err)
	}

	logger.Info("Database migrations completed successfully")
	return nil
}

func RollbackMigration(ctx context.Context, db *sql.DB, driver string, logger *zap.Logger) error {
	const operation = "storage.RollbackMigration"

	logger.Info("Rolling back last migration...")

	if err := prepareGoose(driver, logger); err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}

	if err := goose.DownContext(ctx, db, "."); err != nil {
		return fmt.Errorf("%s: failed to rollback migration: %w", operation, err)
	}

	logger.Info("Migration rollback completed")
	return nil
}

func Status(ctx context.Context, db *sql.DB, driver string, logger *zap.Logger) error {
	const operation = "storage.Status"

	if err := prepareGoose(driver, logger); err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}

	if err := goose.StatusContext(ctx, db, "."); err != nil {
		return fmt.Errorf("%s: failed to check migration status: %w", operation, err)
	}
	return nil
}

// SchemaVersion reports the latest applied migration.
func SchemaVersion(ctx context.Context, db *sql.DB, driver string, logger *zap.Logger) (int64, error) {
	const operation = "storage.SchemaVersion"

	if err := prepareGoose(driver, logger); err != nil {
		return 0, fmt.Errorf("%s: %w", operation, err)
	}

	version, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", operation, err)
	}
	return version, nil
}
