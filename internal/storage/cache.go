package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// SQLCache stores serialized calculation results in the calculation_cache table. Entries
// older than ttl read as misses; a zero ttl keeps them forever.
type SQLCache struct {
	db  *sqlx.DB
	ttl time.Duration
	now func() time.Time
}

func NewSQLCache(db *sqlx.DB, ttl time.Duration) *SQLCache {
	return &SQLCache{db: db, ttl: ttl, now: time.Now}
}

type cacheRow struct {
	Result    string `db:"result"`
	CreatedAt int64  `db:"created_at"`
}

func (c *SQLCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	const operation = "storage.SQLCache.Get"

	query := c.db.Rebind(`SELECT result, created_at FROM calculation_cache WHERE cache_key = ?`)

	var row cacheRow
	if err := c.db.GetContext(ctx, &row, query, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%s: %w", operation, err)
	}

	if c.ttl > 0 && c.now().Sub(time.Unix(row.CreatedAt, 0)) > c.ttl {
		return nil, false, nil
	}
	return []byte(row.Result), true, nil
}

func (c *SQLCache) Upsert(ctx context.Context, key string, value []byte) error {
	const operation = "storage.SQLCache.Upsert"

	query := c.db.Rebind(`
		INSERT INTO calculation_cache (cache_key, result, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT (cache_key) DO UPDATE SET
			result = excluded.result,
			created_at = excluded.created_at`)

	if _, err := c.db.ExecContext(ctx, query, key, string(value), c.now().Unix()); err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}
	return nil
}

// DeleteExpired removes entries past the TTL and reports how many were dropped.
func (c *SQLCache) DeleteExpired(ctx context.Context) (int64, error) {
	const operation = "storage.SQLCache.DeleteExpired"

	if c.ttl <= 0 {
		return 0, nil
	}

	query := c.db.Rebind(`DELETE FROM calculation_cache WHERE created_at < ?`)
	res, err := c.db.ExecContext(ctx, query, c.now().Add(-c.ttl).Unix())
	if err != nil {
		return 0, fmt.Errorf("%s: %w", operation, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: rows affected: %w", operation, err)
	}
	return n, nil
}

// PruneEvery calls DeleteExpired once per interval until ctx is done. Failures are logged and
// the next tick tries again.
func (c *SQLCache) PruneEvery(ctx context.Context, interval time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := c.DeleteExpired(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				logger.Warn("Failed to prune calculation cache", zap.Error(err))
				continue
			}
			if n > 0 {
				logger.Info("Pruned expired calculation cache entries", zap.Int64("deleted", n))
			}
		}
	}
}
