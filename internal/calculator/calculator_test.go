package calculator

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fabricquote/internal/catalog"
	"fabricquote/internal/costing"
	"fabricquote/internal/fabric"
)

type memoryCatalog struct {
	coverings   map[string]*catalog.WindowCovering
	makingCosts map[string]*catalog.MakingCost
	options     map[string]catalog.Option
	optionsErr  error
	calls       int
}

func (m *memoryCatalog) WindowCovering(_ context.Context, id string) (*catalog.WindowCovering, error) {
	m.calls++
	wc, ok := m.coverings[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return wc, nil
}

func (m *memoryCatalog) MakingCost(_ context.Context, id string) (*catalog.MakingCost, error) {
	mc, ok := m.makingCosts[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return mc, nil
}

func (m *memoryCatalog) Options(_ context.Context, ids []string) ([]catalog.Option, error) {
	if m.optionsErr != nil {
		return nil, m.optionsErr
	}
	var out []catalog.Option
	for _, id := range ids {
		if opt, ok := m.options[id]; ok {
			out = append(out, opt)
		}
	}
	return out, nil
}

type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	getErr  error
	setErr  error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	v, ok := c.entries[key]
	return v, ok, nil
}

func (c *memoryCache) Upsert(_ context.Context, key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setErr != nil {
		return c.setErr
	}
	c.entries[key] = value
	return nil
}

func testCatalog() *memoryCatalog {
	return &memoryCatalog{
		coverings: map[string]*catalog.WindowCovering{
			"curtain": {ID: "curtain", Name: "Lined curtain"},
			"roman": {
				ID:          "roman",
				Name:        "Roman blind",
				PricingGrid: json.RawMessage(`{"widthColumns":[100,150,200],"dropRows":[150,250],"prices":{"100_150":80,"150_150":95,"200_150":110,"100_250":120,"150_250":140,"200_250":160}}`),
			},
		},
		makingCosts: map[string]*catalog.MakingCost{
			"pencil": {
				ID:   "pencil",
				Name: "Pencil pleat",
				DropRanges: []costing.DropRange{
					{Min: 0, Max: 200, Price: 100},
					{Min: 201, Max: 250, Price: 150},
				},
				BundledOptions: []catalog.BundledOption{
					{OptionID: "tape", Name: "Pencil tape", Type: catalog.Heading, AffectsFabricCalculation: true, FabricWasteFactor: 10, PatternRepeatFactor: 1.1},
					{OptionID: "hooks", Name: "Hooks", Type: catalog.Hardware},
				},
			},
		},
		options: map[string]catalog.Option{
			"tiebacks": {ID: "tiebacks", Name: "Tie-backs", CostType: costing.Fixed, BaseCost: 12, Quantity: 2},
			"lining":   {ID: "lining", Name: "Blackout lining", CostType: costing.PerMeter, BaseCost: 8},
			"tape":     {ID: "tape", Name: "Pencil tape", CostType: costing.Fixed, BaseCost: 99},
		},
	}
}

func curtainParams() Params {
	return Params{
		WindowCoveringID: "curtain",
		MakingCostID:     "pencil",
		Measurements:     fabric.Measurements{RailWidth: 300, Drop: 220},
		SelectedOptions:  []string{"lining", "tiebacks", "tape"},
		FabricDetails:    fabric.Details{FabricWidth: 137, FabricCostPerYard: 20, RollDirection: fabric.Vertical},
	}
}

func TestCalculate_FullyResolved(t *testing.T) {
	svc := NewService(testCatalog(), nil, DefaultSettings(), nil)

	res, err := svc.Calculate(context.Background(), curtainParams())

	require.NoError(t, err)
	assert.Equal(t, FullyResolved, res.Resolution)
	assert.False(t, res.CacheHit)

	// Pencil tape is a heading: fullness 2.5 × 1.1 + 0.1 = 2.85, so 855cm of fabric needs
	// 7 panels. Length is 1715cm × 1.1 pattern repeat × 1.2 waste.
	assert.Equal(t, 7, res.FabricUsage.WidthsRequired)
	assert.Equal(t, 6, res.FabricUsage.SeamsRequired)
	assert.InDelta(t, 3.0, res.FabricUsage.SeamLaborHours, 1e-9)
	assert.InDelta(t, 2263.8, res.FabricUsage.LengthCM, 1e-6)
	assert.Equal(t, 22.7, res.FabricUsage.Meters)
	assert.Equal(t, 24.8, res.FabricUsage.Yards)

	assert.Equal(t, 150.0, res.Costs.MakingCost)
	assert.Equal(t, 496.0, res.Costs.FabricCost)
	// The bundled tape is not charged again; lining is 8 × 3m, tie-backs 12 × 2.
	assert.Equal(t, 48.0, res.Costs.AdditionalOptionsCost)
	require.Len(t, res.Breakdown.AdditionalOptions, 2)
	assert.Equal(t, "Blackout lining", res.Breakdown.AdditionalOptions[0].Name)
	assert.Equal(t, "Tie-backs", res.Breakdown.AdditionalOptions[1].Name)
	require.Len(t, res.Breakdown.MakingCostOptions, 3)

	// 2 + 300 × 220 × 2.85 / 25000 + 3 seam hours.
	assert.InDelta(t, 12.524, res.LaborHours, 1e-9)
	assert.Equal(t, 313.1, res.Costs.LaborCost)
	assert.Equal(t, 1007.1, res.Costs.TotalCost)
	assert.Contains(t, res.Warnings, "Waste factor of 20% exceeds 15%")
}

func TestCalculate_MissingWindowCoveringFails(t *testing.T) {
	svc := NewService(testCatalog(), newMemoryCache(), DefaultSettings(), nil)
	p := curtainParams()
	p.WindowCoveringID = "nope"

	_, err := svc.Calculate(context.Background(), p)

	assert.ErrorIs(t, err, ErrWindowCoveringNotFound)
}

func TestCalculate_MissingReferencesDegrade(t *testing.T) {
	svc := NewService(testCatalog(), nil, DefaultSettings(), nil)
	p := curtainParams()
	p.MakingCostID = "gone"
	p.SelectedOptions = []string{"tiebacks", "ghost"}

	res, err := svc.Calculate(context.Background(), p)

	require.NoError(t, err)
	assert.Equal(t, ResolvedWithDefaults, res.Resolution)
	assert.Equal(t, 0.0, res.Costs.MakingCost)
	assert.Equal(t, 24.0, res.Costs.AdditionalOptionsCost)
	// Default factors only: 1470cm × 1.1.
	assert.Equal(t, 16.2, res.FabricUsage.Meters)
	assert.Contains(t, res.Warnings, `Making cost "gone" unavailable; default fabric factors used`)
	assert.Contains(t, res.Warnings, "Options not found and skipped: ghost")
}

func TestCalculate_OptionStoreFailureDegrades(t *testing.T) {
	cat := testCatalog()
	cat.optionsErr = errors.New("connection reset")
	svc := NewService(cat, nil, DefaultSettings(), nil)

	res, err := svc.Calculate(context.Background(), curtainParams())

	require.NoError(t, err)
	assert.Equal(t, ResolvedWithDefaults, res.Resolution)
	assert.Empty(t, res.Breakdown.AdditionalOptions)
}

func TestCalculate_PricingGridFallback(t *testing.T) {
	svc := NewService(testCatalog(), nil, DefaultSettings(), nil)

	res, err := svc.Calculate(context.Background(), Params{
		WindowCoveringID: "roman",
		Measurements:     fabric.Measurements{RailWidth: 120, Drop: 160},
		FabricDetails:    fabric.Details{FabricWidth: 140, FabricCostPerYard: 10},
	})

	require.NoError(t, err)
	assert.Equal(t, FullyResolved, res.Resolution)
	assert.Equal(t, 140.0, res.Costs.MakingCost)
}

func TestCalculate_UnpricedMakingCostDegrades(t *testing.T) {
	svc := NewService(testCatalog(), nil, DefaultSettings(), nil)
	p := curtainParams()
	p.MakingCostID = ""
	p.SelectedOptions = nil

	res, err := svc.Calculate(context.Background(), p)

	require.NoError(t, err)
	assert.Equal(t, ResolvedWithDefaults, res.Resolution)
	assert.Equal(t, 0.0, res.Costs.MakingCost)
	assert.Contains(t, res.Warnings, "No making cost selected and no pricing grid; making cost not priced")
}

func TestCalculate_DefaultFabricWidthWarns(t *testing.T) {
	svc := NewService(testCatalog(), nil, DefaultSettings(), nil)
	p := curtainParams()
	p.FabricDetails.FabricWidth = 0

	res, err := svc.Calculate(context.Background(), p)

	require.NoError(t, err)
	assert.Equal(t, "Fabric width not given; assumed 137cm", res.Warnings[0])
	assert.Equal(t, 7, res.FabricUsage.WidthsRequired)
}

func TestCalculate_ReadThroughCache(t *testing.T) {
	cat := testCatalog()
	cache := newMemoryCache()
	svc := NewService(cat, cache, DefaultSettings(), nil)

	first, err := svc.Calculate(context.Background(), curtainParams())
	require.NoError(t, err)
	assert.False(t, first.CacheHit)
	assert.Len(t, cache.entries, 1)

	reordered := curtainParams()
	reordered.SelectedOptions = []string{"tape", "tiebacks", "lining"}
	second, err := svc.Calculate(context.Background(), reordered)
	require.NoError(t, err)

	assert.True(t, second.CacheHit)
	assert.Equal(t, 1, cat.calls)
	assert.Equal(t, first.FabricUsage, second.FabricUsage)
	assert.Equal(t, first.Costs, second.Costs)
	assert.Equal(t, first.CacheKey, second.CacheKey)
}

func TestCalculate_CacheFailuresAreSwallowed(t *testing.T) {
	cache := newMemoryCache()
	cache.getErr = errors.New("redis down")
	cache.setErr = errors.New("redis down")
	svc := NewService(testCatalog(), cache, DefaultSettings(), nil)

	res, err := svc.Calculate(context.Background(), curtainParams())

	require.NoError(t, err)
	assert.False(t, res.CacheHit)
	assert.Equal(t, 150.0, res.Costs.MakingCost)
}

func TestCalculate_CorruptCacheEntryIsRecomputed(t *testing.T) {
	cache := newMemoryCache()
	svc := NewService(testCatalog(), cache, DefaultSettings(), nil)
	p := curtainParams()
	cache.entries[CacheKey(p, DefaultSettings())] = []byte("{not json")

	res, err := svc.Calculate(context.Background(), p)

	require.NoError(t, err)
	assert.False(t, res.CacheHit)
	assert.True(t, json.Valid(cache.entries[res.CacheKey]))
}

func TestCacheKey(t *testing.T) {
	p := curtainParams()
	key := CacheKey(p, DefaultSettings())

	assert.Len(t, key, 32)
	assert.Regexp(t, `^[a-zA-Z0-9]+$`, key)
	assert.Equal(t, key, CacheKey(p, DefaultSettings()))

	wider := p
	wider.Measurements.RailWidth = 301
	assert.NotEqual(t, key, CacheKey(wider, DefaultSettings()))

	pricier := DefaultSettings()
	pricier.HourlyRate = 30
	assert.NotEqual(t, key, CacheKey(p, pricier))

	// Sorting for the key must not reorder the caller's slice.
	assert.Equal(t, []string{"lining", "tiebacks", "tape"}, p.SelectedOptions)
}

func TestParamsValidate(t *testing.T) {
	assert.NoError(t, curtainParams().Validate())

	bad := Params{
		Measurements:  fabric.Measurements{RailWidth: 0, Drop: -1, Pooling: -2},
		FabricDetails: fabric.Details{RollDirection: "diagonal"},
	}
	err := bad.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "windowCoveringId is required")
	assert.Contains(t, err.Error(), "railWidth must be positive")
	assert.Contains(t, err.Error(), `rollDirection "diagonal"`)
}
