package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"fabricquote/internal/catalog"
	"fabricquote/internal/costing"
	"fabricquote/internal/grid"
)

// CatalogStore keeps window coverings, making costs and options in SQL. Nested values are
// stored as JSON text.
type CatalogStore struct {
	db     *sqlx.DB
	logger *zap.Logger
	now    func() time.Time
}

func NewCatalogStore(db *sqlx.DB, logger *zap.Logger) *CatalogStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogStore{db: db, logger: logger, now: time.Now}
}

type windowCoveringRow struct {
	ID          string         `db:"id"`
	Name        string         `db:"name"`
	PricingGrid sql.NullString `db:"pricing_grid"`
}

type makingCostRow struct {
	ID             string `db:"id"`
	Name           string `db:"name"`
	DropRanges     string `db:"drop_ranges"`
	BundledOptions string `db:"bundled_options"`
}

type optionRow struct {
	ID       string  `db:"id"`
	Name     string  `db:"name"`
	CostType string  `db:"cost_type"`
	BaseCost float64 `db:"base_cost"`
	Quantity float64 `db:"quantity"`
}

func (s *CatalogStore) WindowCovering(ctx context.Context, id string) (*catalog.WindowCovering, error) {
	const operation = "storage.WindowCovering"

	query := s.db.Rebind(`SELECT id, name, pricing_grid FROM window_coverings WHERE id = ?`)

	var row windowCoveringRow
	if err := s.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: window covering %q: %w", operation, id, catalog.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: failed to get window covering: %w", operation, err)
	}

	wc := &catalog.WindowCovering{ID: row.ID, Name: row.Name}
	if row.PricingGrid.Valid && row.PricingGrid.String != "" {
		wc.PricingGrid = json.RawMessage(row.PricingGrid.String)
	}
	return wc, nil
}

func (s *CatalogStore) SaveWindowCovering(ctx context.Context, wc catalog.WindowCovering) error {
	const operation = "storage.SaveWindowCovering"

	var pricingGrid sql.NullString
	if len(wc.PricingGrid) > 0 {
		pricingGrid = sql.NullString{String: string(wc.PricingGrid), Valid: true}
	}

	query := s.db.Rebind(`
		INSERT INTO window_coverings (id, name, pricing_grid, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			pricing_grid = excluded.pricing_grid,
			updated_at = excluded.updated_at`)

	if _, err := s.db.ExecContext(ctx, query, wc.ID, wc.Name, pricingGrid, s.now().Unix()); err != nil {
		return fmt.Errorf("%s: failed to save window covering: %w", operation, err)
	}
	return nil
}

// SaveWindowCoveringGrid replaces the pricing grid of an existing window covering with g,
// stored in canonical form.
func (s *CatalogStore) SaveWindowCoveringGrid(ctx context.Context, id string, g *grid.StandardGrid) error {
	const operation = "storage.SaveWindowCoveringGrid"

	data, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("%s: marshal grid: %w", operation, err)
	}

	query := s.db.Rebind(`UPDATE window_coverings SET pricing_grid = ?, updated_at = ? WHERE id = ?`)
	res, err := s.db.ExecContext(ctx, query, string(data), s.now().Unix(), id)
	if err != nil {
		return fmt.Errorf("%s: failed to update grid: %w", operation, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", operation, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: window covering %q: %w", operation, id, catalog.ErrNotFound)
	}

	s.logger.Info("Pricing grid stored",
		zap.String("window_covering_id", id),
		zap.Int("widths", len(g.WidthColumns)),
		zap.Int("drops", len(g.DropRows)))
	return nil
}

func (s *CatalogStore) MakingCost(ctx context.Context, id string) (*catalog.MakingCost, error) {
	const operation = "storage.MakingCost"

	query := s.db.Rebind(`SELECT id, name, drop_ranges, bundled_options FROM making_costs WHERE id = ?`)

	var row makingCostRow
	if err := s.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: making cost %q: %w", operation, id, catalog.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: failed to get making cost: %w", operation, err)
	}

	mc := &catalog.MakingCost{ID: row.ID, Name: row.Name}
	if err := json.Unmarshal([]byte(row.DropRanges), &mc.DropRanges); err != nil {
		return nil, fmt.Errorf("%s: decode drop ranges of %q: %w", operation, id, err)
	}
	if err := json.Unmarshal([]byte(row.BundledOptions), &mc.BundledOptions); err != nil {
		return nil, fmt.Errorf("%s: decode bundled options of %q: %w", operation, id, err)
	}
	return mc, nil
}

func (s *CatalogStore) SaveMakingCost(ctx context.Context, mc catalog.MakingCost) error {
	const operation = "storage.SaveMakingCost"

	dropRanges, err := json.Marshal(nonNil(mc.DropRanges))
	if err != nil {
		return fmt.Errorf("%s: marshal drop ranges: %w", operation, err)
	}
	bundled, err := json.Marshal(nonNil(mc.BundledOptions))
	if err != nil {
		return fmt.Errorf("%s: marshal bundled options: %w", operation, err)
	}

	query := s.db.Rebind(`
		INSERT INTO making_costs (id, name, drop_ranges, bundled_options, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			drop_ranges = excluded.drop_ranges,
			bundled_options = excluded.bundled_options,
			updated_at = excluded.updated_at`)

	if _, err := s.db.ExecContext(ctx, query, mc.ID, mc.Name, string(dropRanges), string(bundled), s.now().Unix()); err != nil {
		return fmt.Errorf("%s: failed to save making cost: %w", operation, err)
	}
	return nil
}

// Options returns the options that exist among ids, in no particular order. Unknown ids are
// silently absent from the result.
func (s *CatalogStore) Options(ctx context.Context, ids []string) ([]catalog.Option, error) {
	const operation = "storage.Options"

	if len(ids) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`SELECT id, name, cost_type, base_cost, quantity FROM options WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("%s: build query: %w", operation, err)
	}

	var rows []optionRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("%s: failed to get options: %w", operation, err)
	}

	options := make([]catalog.Option, 0, len(rows))
	for _, r := range rows {
		options = append(options, catalog.Option{
			ID:       r.ID,
			Name:     r.Name,
			CostType: costing.CostType(r.CostType),
			BaseCost: r.BaseCost,
			Quantity: r.Quantity,
		})
	}
	return options, nil
}

func (s *CatalogStore) SaveOption(ctx context.Context, opt catalog.Option) error {
	const operation = "storage.SaveOption"

	costType := opt.CostType
	if costType == "" {
		costType = costing.Fixed
	}
	quantity := opt.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	query := s.db.Rebind(`
		INSERT INTO options (id, name, cost_type, base_cost, quantity, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			cost_type = excluded.cost_type,
			base_cost = excluded.base_cost,
			quantity = excluded.quantity,
			updated_at = excluded.updated_at`)

	if _, err := s.db.ExecContext(ctx, query, opt.ID, opt.Name, string(costType), opt.BaseCost, quantity, s.now().Unix()); err != nil {
		return fmt.Errorf("%s: failed to save option: %w", operation, err)
	}
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
