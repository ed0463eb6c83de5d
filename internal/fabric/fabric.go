// Package fabric works out how much fabric a curtain needs: panels, seams and the ordered
// length in yards and metres.
package fabric

import "math"

const (
	DefaultFullnessRatio = 2.5
	DefaultWasteFactor   = 0.10
	DefaultFabricWidth   = 137.0

	// HemAllowance is added to every drop for hems and headings, in cm.
	HemAllowance = 25.0

	cmPerYard  = 91.44
	cmPerMeter = 100.0

	seamHours = 0.5
)

// RollDirection is how the fabric comes off the roll relative to the drop.
type RollDirection string

const (
	Horizontal RollDirection = "horizontal"
	Vertical   RollDirection = "vertical"
)

// Measurements of the window, all in cm.
type Measurements struct {
	RailWidth float64 `json:"railWidth"`
	Drop      float64 `json:"drop"`
	Pooling   float64 `json:"pooling"`
}

// Details describes the chosen fabric. Width is in cm.
type Details struct {
	FabricWidth       float64       `json:"fabricWidth"`
	FabricCostPerYard float64       `json:"fabricCostPerYard"`
	RollDirection     RollDirection `json:"rollDirection"`
}

// Adjustments are the multipliers that bundled heading, hardware and lining options
// contribute to a calculation.
type Adjustments struct {
	FullnessRatio        float64 `json:"fullnessRatio"`
	WasteFactor          float64 `json:"wasteFactor"`
	PatternRepeatFactor  float64 `json:"patternRepeatFactor"`
	SeamComplexityFactor float64 `json:"seamComplexityFactor"`
}

// DefaultAdjustments is what a calculation uses when no bundled option says otherwise.
func DefaultAdjustments() Adjustments {
	return Adjustments{
		FullnessRatio:        DefaultFullnessRatio,
		WasteFactor:          DefaultWasteFactor,
		PatternRepeatFactor:  1,
		SeamComplexityFactor: 1,
	}
}

// Usage is the fabric a covering needs.
type Usage struct {
	Yards          float64       `json:"yards"`
	Meters         float64       `json:"meters"`
	Orientation    RollDirection `json:"orientation"`
	SeamsRequired  int           `json:"seamsRequired"`
	WidthsRequired int           `json:"widthsRequired"`
	SeamLaborHours float64       `json:"seamLaborHours"`
	// LengthCM is the unrounded length after pattern repeat and waste.
	LengthCM float64 `json:"lengthCm"`
}

// Calculate returns the fabric usage for one covering. A non-positive fabric width falls
// back to DefaultFabricWidth; callers that care should check Details first.
func Calculate(m Measurements, d Details, adj Adjustments) Usage {
	fabricWidth := d.FabricWidth
	if fabricWidth <= 0 {
		fabricWidth = DefaultFabricWidth
	}
	adj = adj.withDefaults()

	totalWidth := math.Max(m.RailWidth, 0) * adj.FullnessRatio
	cutDrop := math.Max(m.Drop, 0) + math.Max(m.Pooling, 0) + HemAllowance
	panels := int(math.Ceil(totalWidth / fabricWidth))

	usage := Usage{Orientation: Vertical}
	switch d.RollDirection {
	case Horizontal:
		usage.Orientation = Horizontal
		usage.WidthsRequired = panels
		usage.SeamsRequired = panels - 1
	default:
		dropsPerWidth := int(math.Floor(fabricWidth / cutDrop))
		usage.WidthsRequired = int(math.Ceil(float64(panels) / float64(max(1, dropsPerWidth))))
		usage.SeamsRequired = panels - 1
	}
	usage.SeamsRequired = max(0, usage.SeamsRequired)

	length := cutDrop * float64(usage.WidthsRequired)
	length *= adj.PatternRepeatFactor
	length *= 1 + adj.WasteFactor

	usage.LengthCM = length
	usage.Yards = ceilTenth(length / cmPerYard)
	usage.Meters = ceilTenth(length / cmPerMeter)
	usage.SeamLaborHours = float64(usage.SeamsRequired) * seamHours * adj.SeamComplexityFactor
	return usage
}

func (a Adjustments) withDefaults() Adjustments {
	if a.FullnessRatio <= 0 {
		a.FullnessRatio = DefaultFullnessRatio
	}
	if a.WasteFactor < 0 {
		a.WasteFactor = 0
	}
	if a.PatternRepeatFactor <= 0 {
		a.PatternRepeatFactor = 1
	}
	if a.SeamComplexityFactor <= 0 {
		a.SeamComplexityFactor = 1
	}
	return a
}

// ceilTenth rounds up to the next 0.1. The epsilon keeps float noise such as 7.7000000001
// from becoming 7.8.
func ceilTenth(v float64) float64 {
	return math.Ceil(v*10-1e-9) / 10
}
