package costing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fabricquote/internal/fabric"
)

var bands = []DropRange{
	{Min: 0, Max: 200, Price: 100},
	{Min: 201, Max: 250, Price: 150},
	{Min: 251, Max: 300, Price: 200},
}

func TestMakingCostForDrop(t *testing.T) {
	band, ok := MakingCostForDrop(bands, 220)
	require.True(t, ok)
	assert.Equal(t, 150.0, band.Price)

	band, ok = MakingCostForDrop(bands, 200)
	require.True(t, ok)
	assert.Equal(t, 100.0, band.Price)

	// Nothing contains 400, so the band reaching furthest is used.
	band, ok = MakingCostForDrop(bands, 400)
	require.True(t, ok)
	assert.Equal(t, 200.0, band.Price)

	// 200.5 falls in the gap between bands.
	band, ok = MakingCostForDrop(bands, 200.5)
	require.True(t, ok)
	assert.Equal(t, 300.0, band.Max)

	_, ok = MakingCostForDrop(nil, 100)
	assert.False(t, ok)
}

func TestLaborHours(t *testing.T) {
	assert.InDelta(t, 11.1, LaborHours(300, 220, 2.5, 2.5), 1e-9)
	assert.Equal(t, 3.0, LaborHours(50, 50, 2.5, 0))
}

func TestAggregate_FullQuote(t *testing.T) {
	m := fabric.Measurements{RailWidth: 300, Drop: 220}
	adj := fabric.DefaultAdjustments()
	usage := fabric.Calculate(m, fabric.Details{FabricWidth: 137}, adj)

	res := Aggregate(Input{
		Measurements:      m,
		Usage:             usage,
		Adjustments:       adj,
		FabricCostPerYard: 20,
		MakingCost: &MakingCost{
			Name:       "Pencil pleat",
			DropRanges: bands,
			Bundled:    []string{"Pencil pleat tape"},
		},
		AdditionalOptions: []OptionRule{
			{Name: "Tie-backs", CostType: Fixed, BaseCost: 10, Quantity: 2},
			{Name: "Blackout lining", CostType: PerMeter, BaseCost: 5},
			{Name: "Trim", CostType: PerYard, BaseCost: 9.144},
			{Name: "Fabric treatment", CostType: Percentage, BaseCost: 10},
		},
	})

	assert.Equal(t, 354.0, res.Costs.FabricCost)
	assert.Equal(t, 150.0, res.Costs.MakingCost)
	assert.Equal(t, 100.4, res.Costs.AdditionalOptionsCost)
	assert.Equal(t, 277.5, res.Costs.LaborCost)
	assert.Equal(t, 881.9, res.Costs.TotalCost)

	require.Len(t, res.Breakdown.MakingCostOptions, 2)
	assert.Equal(t, "Drop 220cm in range 201-250cm", res.Breakdown.MakingCostOptions[0].Calculation)
	assert.Equal(t, LineItem{Name: "Pencil pleat tape", Calculation: "Included in making cost"}, res.Breakdown.MakingCostOptions[1])

	require.Len(t, res.Breakdown.AdditionalOptions, 4)
	assert.Equal(t, 20.0, res.Breakdown.AdditionalOptions[0].Cost)
	assert.Equal(t, 15.0, res.Breakdown.AdditionalOptions[1].Cost)
	assert.Equal(t, 30.0, res.Breakdown.AdditionalOptions[2].Cost)
	assert.Equal(t, 35.4, res.Breakdown.AdditionalOptions[3].Cost)
	assert.Equal(t, "10% of fabric cost 354.00", res.Breakdown.AdditionalOptions[3].Calculation)

	assert.Equal(t, []string{"5 seam(s) required; seam labor adds 2.5 hours"}, res.Warnings)
}

func TestAggregate_GridPriceWhenNoMakingCost(t *testing.T) {
	price := 88.0
	res := Aggregate(Input{
		Measurements: fabric.Measurements{RailWidth: 100, Drop: 100},
		Usage:        fabric.Usage{Yards: 2},
		GridPrice:    &price,
	})

	assert.Equal(t, 88.0, res.Costs.MakingCost)
	require.Len(t, res.Breakdown.MakingCostOptions, 1)
	assert.Equal(t, "Pricing grid", res.Breakdown.MakingCostOptions[0].Name)
}

func TestAggregate_Minimums(t *testing.T) {
	res := Aggregate(Input{Measurements: fabric.Measurements{RailWidth: 50, Drop: 50}})

	assert.Equal(t, 3.0, res.LaborHours)
	assert.Equal(t, 75.0, res.Costs.LaborCost)
	assert.Equal(t, 75.0, res.Costs.TotalCost)
	assert.Empty(t, res.Warnings)
	assert.NotNil(t, res.Breakdown.MakingCostOptions)
	assert.NotNil(t, res.Breakdown.AdditionalOptions)
}

func TestAggregate_Warnings(t *testing.T) {
	res := Aggregate(Input{
		Measurements: fabric.Measurements{RailWidth: 100, Drop: 100},
		Adjustments:  fabric.Adjustments{FullnessRatio: 2, WasteFactor: 0.2},
		MakingCost:   &MakingCost{Name: "Empty"},
		AdditionalOptions: []OptionRule{
			{Name: "Mystery", CostType: "per-window", BaseCost: 4},
		},
		HourlyRate: 30,
	})

	assert.Equal(t, 4.0, res.Costs.AdditionalOptionsCost)
	assert.Equal(t, 90.0, res.Costs.LaborCost)
	assert.Equal(t, []string{
		`Making cost "Empty" has no drop ranges`,
		`Option "Mystery" has unknown cost type "per-window"; priced as fixed`,
		"Waste factor of 20% exceeds 15%",
	}, res.Warnings)
}
