// Package catalog holds the reference records a calculation reads: window coverings, making
// costs with their bundled options, and selectable options.
package catalog

import (
	"encoding/json"
	"errors"

	"fabricquote/internal/costing"
	"fabricquote/internal/fabric"
)

var ErrNotFound = errors.New("not found")

type WindowCovering struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// PricingGrid is stored in whatever shape it was configured in and normalized on read.
	PricingGrid json.RawMessage `json:"pricing_grid,omitempty"`
}

// OptionType groups bundled options.
type OptionType string

const (
	Heading  OptionType = "heading"
	Hardware OptionType = "hardware"
	Lining   OptionType = "lining"
)

// BundledOption is an option included in a making cost's price.
type BundledOption struct {
	OptionID                 string     `json:"option_id"`
	Name                     string     `json:"name"`
	Type                     OptionType `json:"type"`
	AffectsFabricCalculation bool       `json:"affects_fabric_calculation"`
	FabricWasteFactor        float64    `json:"fabric_waste_factor"`
	PatternRepeatFactor      float64    `json:"pattern_repeat_factor"`
	SeamComplexityFactor     float64    `json:"seam_complexity_factor"`
	FullnessRatio            float64    `json:"fullness_ratio"`
}

// Factors reports the option's effect on fabric usage. Options that do not affect the
// fabric calculation report none.
func (o BundledOption) Factors() fabric.OptionFactors {
	if !o.AffectsFabricCalculation {
		return fabric.OptionFactors{}
	}
	return fabric.OptionFactors{
		Heading:        o.Type == Heading,
		FullnessRatio:  o.FullnessRatio,
		WastePercent:   o.FabricWasteFactor,
		PatternRepeat:  o.PatternRepeatFactor,
		SeamComplexity: o.SeamComplexityFactor,
	}
}

type MakingCost struct {
	ID             string              `json:"id"`
	Name           string              `json:"name"`
	DropRanges     []costing.DropRange `json:"drop_ranges"`
	BundledOptions []BundledOption     `json:"bundled_options"`
}

// Option is a selectable option with its pricing rule.
type Option = costing.OptionRule
