// Package calculator runs the integrated fabric calculation: it resolves a window covering's
// reference data, computes fabric usage and costs, and memoizes results by content hash.
package calculator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"fabricquote/internal/catalog"
	"fabricquote/internal/costing"
	"fabricquote/internal/fabric"
	"fabricquote/internal/grid"
)

// ErrWindowCoveringNotFound is the one lookup failure that aborts a calculation.
var ErrWindowCoveringNotFound = errors.New("window covering not found")

// Catalog supplies reference records. Lookups of missing records return catalog.ErrNotFound.
type Catalog interface {
	WindowCovering(ctx context.Context, id string) (*catalog.WindowCovering, error)
	MakingCost(ctx context.Context, id string) (*catalog.MakingCost, error)
	Options(ctx context.Context, ids []string) ([]catalog.Option, error)
}

// Cache stores serialized results by key.
type Cache interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Upsert(ctx context.Context, key string, value []byte) error
}

// Resolution says whether every referenced record was found.
type Resolution string

const (
	FullyResolved        Resolution = "fully_resolved"
	ResolvedWithDefaults Resolution = "resolved_with_defaults"
)

type Result struct {
	FabricUsage fabric.Usage      `json:"fabricUsage"`
	Costs       costing.Costs     `json:"costs"`
	Breakdown   costing.Breakdown `json:"breakdown"`
	Warnings    []string          `json:"warnings"`
	Resolution  Resolution        `json:"resolution"`
	LaborHours  float64           `json:"laborHours"`
	CacheKey    string            `json:"cacheKey"`
	CacheHit    bool              `json:"cacheHit"`
}

type Service struct {
	catalog    Catalog
	cache      Cache
	normalizer *grid.Normalizer
	settings   Settings
	logger     *zap.Logger
}

// NewService wires a calculator. cache may be nil to disable memoization.
func NewService(c Catalog, cache Cache, settings Settings, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		catalog:    c,
		cache:      cache,
		normalizer: grid.NewNormalizer(logger),
		settings:   settings,
		logger:     logger,
	}
}

// Calculate returns the priced fabric usage for p. Only a missing window covering, or a
// failure loading it, is returned as an error; every other gap degrades to defaults and
// is reported through Result.Warnings and Result.Resolution.
func (s *Service) Calculate(ctx context.Context, p Params) (*Result, error) {
	key := CacheKey(p, s.settings)
	logger := s.logger.With(zap.String("cache_key", key), zap.String("window_covering_id", p.WindowCoveringID))

	if cached := s.cached(ctx, key, logger); cached != nil {
		return cached, nil
	}

	covering, err := s.catalog.WindowCovering(ctx, p.WindowCoveringID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, fmt.Errorf("%w: %q", ErrWindowCoveringNotFound, p.WindowCoveringID)
		}
		return nil, fmt.Errorf("load window covering %q: %w", p.WindowCoveringID, err)
	}

	res := &Result{Resolution: FullyResolved, CacheKey: key}
	degrade := func(warning string) {
		res.Resolution = ResolvedWithDefaults
		res.Warnings = append(res.Warnings, warning)
	}

	adj := fabric.Adjustments{
		FullnessRatio:        s.settings.DefaultFullness,
		WasteFactor:          s.settings.DefaultWastePercent / 100,
		PatternRepeatFactor:  1,
		SeamComplexityFactor: 1,
	}

	var making *catalog.MakingCost
	if p.MakingCostID != "" {
		making, err = s.catalog.MakingCost(ctx, p.MakingCostID)
		if err != nil {
			logger.Warn("Failed to load making cost, using default fabric factors",
				zap.String("making_cost_id", p.MakingCostID),
				zap.Error(err))
			degrade(fmt.Sprintf("Making cost %q unavailable; default fabric factors used", p.MakingCostID))
		}
	}

	bundled := make(map[string]bool)
	var makingCost *costing.MakingCost
	if making != nil {
		makingCost = &costing.MakingCost{Name: making.Name, DropRanges: making.DropRanges}
		for _, opt := range making.BundledOptions {
			bundled[opt.OptionID] = true
			adj = adj.Apply(opt.Factors())
			makingCost.Bundled = append(makingCost.Bundled, opt.Name)
		}
	}

	options := s.additionalOptions(ctx, p.SelectedOptions, bundled, degrade, logger)

	details := p.FabricDetails
	if details.FabricWidth <= 0 {
		details.FabricWidth = s.settings.DefaultFabricWidth
		res.Warnings = append(res.Warnings, fmt.Sprintf("Fabric width not given; assumed %gcm", details.FabricWidth))
	}

	usage := fabric.Calculate(p.Measurements, details, adj)

	var gridPrice *float64
	switch {
	case making != nil:
	case len(covering.PricingGrid) > 0:
		gridPrice = s.gridPrice(covering, p.Measurements, degrade, logger)
	case p.MakingCostID == "":
		degrade("No making cost selected and no pricing grid; making cost not priced")
	}

	agg := costing.Aggregate(costing.Input{
		Measurements:      p.Measurements,
		Usage:             usage,
		Adjustments:       adj,
		FabricCostPerYard: details.FabricCostPerYard,
		MakingCost:        makingCost,
		GridPrice:         gridPrice,
		AdditionalOptions: options,
		HourlyRate:        s.settings.HourlyRate,
	})

	res.FabricUsage = usage
	res.Costs = agg.Costs
	res.Breakdown = agg.Breakdown
	res.LaborHours = agg.LaborHours
	res.Warnings = append(res.Warnings, agg.Warnings...)
	if res.Warnings == nil {
		res.Warnings = []string{}
	}

	s.store(ctx, key, res, logger)
	return res, nil
}

func (s *Service) cached(ctx context.Context, key string, logger *zap.Logger) *Result {
	if s.cache == nil {
		return nil
	}

	data, found, err := s.cache.Get(ctx, key)
	if err != nil {
		logger.Warn("Calculation cache read failed", zap.Error(err))
		return nil
	}
	if !found {
		return nil
	}

	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		logger.Warn("Discarding unreadable cached calculation", zap.Error(err))
		return nil
	}
	res.CacheKey = key
	res.CacheHit = true
	logger.Debug("Calculation served from cache")
	return &res
}

func (s *Service) store(ctx context.Context, key string, res *Result, logger *zap.Logger) {
	if s.cache == nil {
		return
	}

	data, err := json.Marshal(res)
	if err != nil {
		logger.Warn("Failed to encode calculation for cache", zap.Error(err))
		return
	}
	if err := s.cache.Upsert(ctx, key, data); err != nil {
		logger.Warn("Calculation cache write failed", zap.Error(err))
	}
}

// additionalOptions loads the selected options that are not already bundled into the
// making cost, in the order they were selected.
func (s *Service) additionalOptions(
	ctx context.Context,
	selected []string,
	bundled map[string]bool,
	degrade func(string),
	logger *zap.Logger,
) []costing.OptionRule {
	var ids []string
	seen := make(map[string]bool)
	for _, id := range selected {
		if id == "" || bundled[id] || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil
	}

	found, err := s.catalog.Options(ctx, ids)
	if err != nil {
		logger.Warn("Failed to load selected options", zap.Strings("option_ids", ids), zap.Error(err))
		degrade("Selected options unavailable; priced without them")
		return nil
	}

	byID := make(map[string]costing.OptionRule, len(found))
	for _, opt := range found {
		byID[opt.ID] = opt
	}

	var rules []costing.OptionRule
	var missing []string
	for _, id := range ids {
		opt, ok := byID[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		rules = append(rules, opt)
	}
	if len(missing) > 0 {
		degrade(fmt.Sprintf("Options not found and skipped: %s", strings.Join(missing, ", ")))
	}
	return rules
}

func (s *Service) gridPrice(
	covering *catalog.WindowCovering,
	m fabric.Measurements,
	degrade func(string),
	logger *zap.Logger,
) *float64 {
	g := s.normalizer.Normalize(covering.PricingGrid)
	if g == nil {
		degrade(fmt.Sprintf("Pricing grid for %q could not be read", covering.Name))
		return nil
	}
	if result := grid.Validate(g); !result.Valid {
		logger.Warn("Pricing grid failed validation", zap.Strings("errors", result.Errors))
	}

	price, ok := grid.Lookup(g, m.RailWidth, m.Drop, grid.UnitCM)
	if !ok {
		degrade(fmt.Sprintf("Pricing grid for %q has no price for %gcm × %gcm", covering.Name, m.RailWidth, m.Drop))
		return nil
	}
	return &price
}
