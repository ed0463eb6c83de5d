// Package costing prices a window covering from its fabric usage: making cost by drop
// band, per-option surcharges and an estimate of workroom labor.
package costing

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"fabricquote/internal/fabric"
)

const (
	DefaultHourlyRate = 25.0

	minLaborHours  = 3.0
	baseLaborHours = 2.0
	// laborAreaDivisor turns rail width × drop × fullness (cm²) into workroom hours.
	laborAreaDivisor = 25000.0

	highWasteFactor = 0.15
)

// CostType selects how an option's base cost scales.
type CostType string

const (
	Fixed      CostType = "fixed"
	PerMeter   CostType = "per-meter"
	PerYard    CostType = "per-yard"
	Percentage CostType = "percentage"
)

// DropRange prices every drop between Min and Max (cm, inclusive) at Price.
type DropRange struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Price float64 `json:"price"`
}

// OptionRule is a selectable extra priced on top of the making cost.
type OptionRule struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	CostType CostType `json:"cost_type"`
	BaseCost float64  `json:"base_cost"`
	Quantity float64  `json:"quantity"`
}

// LineItem is one priced entry of a breakdown.
type LineItem struct {
	Name        string  `json:"name"`
	Cost        float64 `json:"cost"`
	Calculation string  `json:"calculation"`
}

// MakingCost is the workroom price list a covering is made under.
type MakingCost struct {
	Name       string
	DropRanges []DropRange
	// Bundled names the options already included in the making cost.
	Bundled []string
}

// Input is everything Aggregate prices.
type Input struct {
	Measurements      fabric.Measurements
	Usage             fabric.Usage
	Adjustments       fabric.Adjustments
	FabricCostPerYard float64
	MakingCost        *MakingCost
	// GridPrice prices the making cost when no making cost record applies.
	GridPrice         *float64
	AdditionalOptions []OptionRule
	HourlyRate        float64
}

type Costs struct {
	FabricCost            float64 `json:"fabricCost"`
	MakingCost            float64 `json:"makingCost"`
	AdditionalOptionsCost float64 `json:"additionalOptionsCost"`
	LaborCost             float64 `json:"laborCost"`
	TotalCost             float64 `json:"totalCost"`
}

type Breakdown struct {
	MakingCostOptions []LineItem `json:"makingCostOptions"`
	AdditionalOptions []LineItem `json:"additionalOptions"`
}

type Result struct {
	Costs      Costs
	Breakdown  Breakdown
	LaborHours float64
	Warnings   []string
}

// Aggregate prices in. It never fails: unusual inputs surface as warnings.
func Aggregate(in Input) Result {
	res := Result{
		Breakdown: Breakdown{MakingCostOptions: []LineItem{}, AdditionalOptions: []LineItem{}},
		Warnings:  []string{},
	}

	fabricCost := roundMoney(in.Usage.Yards * in.FabricCostPerYard)

	var makingCost float64
	switch {
	case in.MakingCost != nil:
		band, ok := MakingCostForDrop(in.MakingCost.DropRanges, in.Measurements.Drop)
		if ok {
			makingCost = roundMoney(band.Price)
			res.Breakdown.MakingCostOptions = append(res.Breakdown.MakingCostOptions, LineItem{
				Name:        in.MakingCost.Name,
				Cost:        makingCost,
				Calculation: describeBand(band, in.Measurements.Drop),
			})
		} else {
			res.Warnings = append(res.Warnings, fmt.Sprintf("Making cost %q has no drop ranges", in.MakingCost.Name))
		}
		for _, name := range in.MakingCost.Bundled {
			res.Breakdown.MakingCostOptions = append(res.Breakdown.MakingCostOptions, LineItem{
				Name:        name,
				Cost:        0,
				Calculation: "Included in making cost",
			})
		}
	case in.GridPrice != nil:
		makingCost = roundMoney(*in.GridPrice)
		res.Breakdown.MakingCostOptions = append(res.Breakdown.MakingCostOptions, LineItem{
			Name:        "Pricing grid",
			Cost:        makingCost,
			Calculation: fmt.Sprintf("Grid price for %gcm × %gcm", in.Measurements.RailWidth, in.Measurements.Drop),
		})
	}

	optionsTotal := decimal.Zero
	for _, rule := range in.AdditionalOptions {
		item, warning := priceOption(rule, in.Measurements.RailWidth, fabricCost)
		if warning != "" {
			res.Warnings = append(res.Warnings, warning)
		}
		optionsTotal = optionsTotal.Add(decimal.NewFromFloat(item.Cost))
		res.Breakdown.AdditionalOptions = append(res.Breakdown.AdditionalOptions, item)
	}

	fullness := in.Adjustments.FullnessRatio
	if fullness <= 0 {
		fullness = fabric.DefaultFullnessRatio
	}
	rate := in.HourlyRate
	if rate <= 0 {
		rate = DefaultHourlyRate
	}
	res.LaborHours = LaborHours(in.Measurements.RailWidth, in.Measurements.Drop, fullness, in.Usage.SeamLaborHours)
	laborCost := roundMoney(res.LaborHours * rate)

	total := decimal.NewFromFloat(fabricCost).
		Add(decimal.NewFromFloat(makingCost)).
		Add(optionsTotal).
		Add(decimal.NewFromFloat(laborCost))

	res.Costs = Costs{
		FabricCost:            fabricCost,
		MakingCost:            makingCost,
		AdditionalOptionsCost: optionsTotal.InexactFloat64(),
		LaborCost:             laborCost,
		TotalCost:             total.Round(2).InexactFloat64(),
	}

	if in.Usage.SeamsRequired > 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf(
			"%d seam(s) required; seam labor adds %.1f hours", in.Usage.SeamsRequired, in.Usage.SeamLaborHours))
	}
	if in.Adjustments.WasteFactor > highWasteFactor {
		res.Warnings = append(res.Warnings, fmt.Sprintf(
			"Waste factor of %.0f%% exceeds 15%%", in.Adjustments.WasteFactor*100))
	}
	return res
}

// MakingCostForDrop returns the first band containing drop. When none does, the band with
// the largest Max is used as a best-guess ceiling. ok is false only for an empty list.
func MakingCostForDrop(ranges []DropRange, drop float64) (DropRange, bool) {
	if len(ranges) == 0 {
		return DropRange{}, false
	}

	for _, r := range ranges {
		if r.Min <= drop && drop <= r.Max {
			return r, true
		}
	}

	widest := ranges[0]
	for _, r := range ranges[1:] {
		if r.Max > widest.Max {
			widest = r
		}
	}
	return widest, true
}

// LaborHours estimates workroom time: a two hour base plus time proportional to the
// gathered fabric area and to seaming, never less than three hours.
func LaborHours(railWidth, drop, fullness, seamLaborHours float64) float64 {
	return math.Max(minLaborHours, baseLaborHours+(railWidth*drop*fullness)/laborAreaDivisor+seamLaborHours)
}

func priceOption(rule OptionRule, railWidth, fabricCost float64) (LineItem, string) {
	qty := rule.Quantity
	if qty <= 0 {
		qty = 1
	}

	item := LineItem{Name: rule.Name}
	var warning string

	switch rule.CostType {
	case PerMeter:
		meters := railWidth / 100
		item.Cost = rule.BaseCost * meters * qty
		item.Calculation = fmt.Sprintf("%.2f × %.2fm × %g", rule.BaseCost, meters, qty)
	case PerYard:
		yards := railWidth / 91.44
		item.Cost = rule.BaseCost * yards * qty
		item.Calculation = fmt.Sprintf("%.2f × %.2fyd × %g", rule.BaseCost, yards, qty)
	case Percentage:
		item.Cost = rule.BaseCost / 100 * fabricCost
		item.Calculation = fmt.Sprintf("%g%% of fabric cost %.2f", rule.BaseCost, fabricCost)
	case Fixed:
		item.Cost = rule.BaseCost * qty
		item.Calculation = fmt.Sprintf("%.2f × %g", rule.BaseCost, qty)
	default:
		item.Cost = rule.BaseCost * qty
		item.Calculation = fmt.Sprintf("%.2f × %g", rule.BaseCost, qty)
		warning = fmt.Sprintf("Option %q has unknown cost type %q; priced as fixed", rule.Name, rule.CostType)
	}

	item.Cost = roundMoney(item.Cost)
	return item, warning
}

func describeBand(band DropRange, drop float64) string {
	if band.Min <= drop && drop <= band.Max {
		return fmt.Sprintf("Drop %gcm in range %g-%gcm", drop, band.Min, band.Max)
	}
	return fmt.Sprintf("Drop %gcm outside all ranges; using %g-%gcm", drop, band.Min, band.Max)
}

func roundMoney(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
