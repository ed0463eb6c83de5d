// Package grid reconciles the pricing-grid shapes that window-covering price lists have
// accumulated over time into one canonical structure, and answers price lookups against it.
package grid

// Unit is the physical unit of a grid's width and drop dimensions.
type Unit string

const (
	UnitCM Unit = "cm"
	UnitMM Unit = "mm"
)

// Valid reports whether u is a supported dimension unit.
func (u Unit) Valid() bool {
	return u == UnitCM || u == UnitMM
}

// DropRow is one row of a canonical grid. Prices are index-aligned with the grid's
// WidthColumns.
type DropRow struct {
	Drop   float64   `json:"drop"`
	Prices []float64 `json:"prices"`
}

// StandardGrid is the canonical pricing grid every legacy shape is normalized into.
type StandardGrid struct {
	WidthColumns []float64 `json:"widthColumns"`
	DropRows     []DropRow `json:"dropRows"`
	Unit         Unit      `json:"unit"`
	Currency     string    `json:"currency,omitempty"`
	Version      string    `json:"version,omitempty"`
}

// Clone returns a deep copy of g.
func (g *StandardGrid) Clone() *StandardGrid {
	if g == nil {
		return nil
	}

	out := &StandardGrid{
		WidthColumns: append([]float64(nil), g.WidthColumns...),
		DropRows:     make([]DropRow, len(g.DropRows)),
		Unit:         g.Unit,
		Currency:     g.Currency,
		Version:      g.Version,
	}
	for i, row := range g.DropRows {
		out.DropRows[i] = DropRow{
			Drop:   row.Drop,
			Prices: append([]float64(nil), row.Prices...),
		}
	}
	return out
}

// Empty reports whether the grid has no usable cells.
func (g *StandardGrid) Empty() bool {
	return g == nil || len(g.WidthColumns) == 0 || len(g.DropRows) == 0
}

// Format identifies which historical shape a raw grid payload has.
type Format int

const (
	FormatUnrecognized Format = iota
	FormatStandard
	FormatLegacyA
	FormatLegacyB
	FormatLegacyC
	FormatLegacyD
)

func (f Format) String() string {
	switch f {
	case FormatStandard:
		return "standard"
	case FormatLegacyA:
		return "legacy_a"
	case FormatLegacyB:
		return "legacy_b"
	case FormatLegacyC:
		return "legacy_c"
	case FormatLegacyD:
		return "legacy_d"
	default:
		return "unrecognized"
	}
}
