package grid

import "fmt"

// ValidationResult lists every structural problem found in a canonical grid.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// Validate checks the invariants lookups rely on. Zero and negative prices are accepted as
// "no charge" cells.
func Validate(g *StandardGrid) ValidationResult {
	errs := []string{}
	if g == nil {
		return ValidationResult{Errors: append(errs, "grid is missing")}
	}

	if len(g.WidthColumns) == 0 {
		errs = append(errs, "grid has no width columns")
	}
	if len(g.DropRows) == 0 {
		errs = append(errs, "grid has no drop rows")
	}
	if !g.Unit.Valid() {
		errs = append(errs, fmt.Sprintf("unsupported unit %q", g.Unit))
	}

	seenWidths := make(map[float64]bool, len(g.WidthColumns))
	for i, w := range g.WidthColumns {
		if w <= 0 {
			errs = append(errs, fmt.Sprintf("width column %d must be positive, got %v", i, w))
		}
		if seenWidths[w] {
			errs = append(errs, fmt.Sprintf("duplicate width value %v", w))
		}
		seenWidths[w] = true
		if i > 0 && w < g.WidthColumns[i-1] {
			errs = append(errs, fmt.Sprintf("width column %d (%v) is out of ascending order", i, w))
		}
	}

	seenDrops := make(map[float64]bool, len(g.DropRows))
	for i, row := range g.DropRows {
		if row.Drop <= 0 {
			errs = append(errs, fmt.Sprintf("drop row %d must be positive, got %v", i, row.Drop))
		}
		if seenDrops[row.Drop] {
			errs = append(errs, fmt.Sprintf("duplicate drop value %v", row.Drop))
		}
		seenDrops[row.Drop] = true
		if i > 0 && row.Drop < g.DropRows[i-1].Drop {
			errs = append(errs, fmt.Sprintf("drop row %d (%v) is out of ascending order", i, row.Drop))
		}
		if len(row.Prices) != len(g.WidthColumns) {
			errs = append(errs, fmt.Sprintf("drop row %d (%v) has %d prices, want %d",
				i, row.Drop, len(row.Prices), len(g.WidthColumns)))
		}
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}
