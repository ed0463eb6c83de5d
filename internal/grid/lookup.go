package grid

// Lookup prices a (width, drop) query given in inputUnit. Each dimension resolves to the first
// grid point at or above it, so a quote never rounds down to a cheaper cell; queries beyond
// the largest point clamp to it. ok is false for an empty grid or a row missing the cell.
func Lookup(g *StandardGrid, width, drop float64, inputUnit Unit) (price float64, ok bool) {
	if g.Empty() {
		return 0, false
	}

	width = convertValue(width, inputUnit, g.Unit)
	drop = convertValue(drop, inputUnit, g.Unit)

	wi := len(g.WidthColumns) - 1
	for i, w := range g.WidthColumns {
		if w >= width {
			wi = i
			break
		}
	}

	row := g.DropRows[len(g.DropRows)-1]
	for _, r := range g.DropRows {
		if r.Drop >= drop {
			row = r
			break
		}
	}

	if wi >= len(row.Prices) {
		return 0, false
	}
	return row.Prices[wi], true
}

// ConvertUnit returns a copy of g with widths and drops expressed in target. Prices are
// untouched.
func ConvertUnit(g *StandardGrid, target Unit) *StandardGrid {
	out := g.Clone()
	if out == nil || out.Unit == target || !target.Valid() {
		return out
	}

	for i, w := range out.WidthColumns {
		out.WidthColumns[i] = convertValue(w, out.Unit, target)
	}
	for i := range out.DropRows {
		out.DropRows[i].Drop = convertValue(out.DropRows[i].Drop, out.Unit, target)
	}
	out.Unit = target
	return out
}

func convertValue(v float64, from, to Unit) float64 {
	switch {
	case from == UnitCM && to == UnitMM:
		return v * 10
	case from == UnitMM && to == UnitCM:
		return v / 10
	default:
		return v
	}
}
