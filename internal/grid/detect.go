package grid

// dimensionFields are every key a legacy or canonical grid stores widths or drops under.
var dimensionFields = []string{"widthColumns", "dropRows", "dropRanges", "widthRanges", "widths", "heights"}

// mmThreshold is the magnitude from which an undeclared grid is assumed to be in millimetres.
// Curtain and blind dimensions in centimetres rarely reach it; in millimetres they usually do.
const mmThreshold = 500

// Detect classifies a decoded grid payload. Checks run in a fixed order because the legacy
// shapes overlap: B and C share field names and differ only in what dropRows holds.
func Detect(obj map[string]any) Format {
	switch {
	case obj == nil:
		return FormatUnrecognized
	case isStandard(obj):
		return FormatStandard
	case isLegacyA(obj):
		return FormatLegacyA
	case isLegacyB(obj):
		return FormatLegacyB
	case isLegacyC(obj):
		return FormatLegacyC
	case isLegacyD(obj):
		return FormatLegacyD
	default:
		return FormatUnrecognized
	}
}

// IsStandardFormat reports whether obj already has the canonical field names and types.
func IsStandardFormat(obj map[string]any) bool {
	return obj != nil && isStandard(obj)
}

func isStandard(obj map[string]any) bool {
	unit, _ := obj["unit"].(string)
	if !Unit(unit).Valid() {
		return false
	}

	widths, ok := asSlice(obj["widthColumns"])
	if !ok {
		return false
	}
	for _, w := range widths {
		if !isNumber(w) {
			return false
		}
	}

	rows, ok := asSlice(obj["dropRows"])
	if !ok {
		return false
	}
	for _, r := range rows {
		row, ok := asMap(r)
		if !ok || !isNumber(row["drop"]) {
			return false
		}
		prices, ok := asSlice(row["prices"])
		if !ok {
			return false
		}
		for _, p := range prices {
			if !isNumber(p) {
				return false
			}
		}
	}
	return true
}

func isLegacyA(obj map[string]any) bool {
	_, hasDrops := asSlice(obj["dropRanges"])
	_, hasWidths := asSlice(obj["widthRanges"])
	if !hasDrops || !hasWidths {
		return false
	}
	prices, ok := asSlice(obj["prices"])
	if !ok {
		return false
	}
	if len(prices) == 0 {
		return true
	}
	_, nested := asSlice(prices[0])
	return nested
}

func isLegacyB(obj map[string]any) bool {
	if _, ok := asSlice(obj["widthColumns"]); !ok {
		return false
	}
	rows, ok := asSlice(obj["dropRows"])
	if !ok || len(rows) == 0 {
		return false
	}
	first, ok := asMap(rows[0])
	if !ok {
		return false
	}
	_, hasDrop := first["drop"]
	_, hasPrices := first["prices"]
	return hasDrop && hasPrices
}

func isLegacyC(obj map[string]any) bool {
	if _, ok := asSlice(obj["widthColumns"]); !ok {
		return false
	}
	rows, ok := asSlice(obj["dropRows"])
	if !ok || len(rows) == 0 {
		return false
	}
	if _, nested := asMap(rows[0]); nested {
		return false
	}
	if _, nested := asSlice(rows[0]); nested {
		return false
	}
	_, dict := asMap(obj["prices"])
	return dict
}

func isLegacyD(obj map[string]any) bool {
	_, hasWidths := asSlice(obj["widths"])
	_, hasHeights := asSlice(obj["heights"])
	return hasWidths && hasHeights
}

// InferUnit returns the grid's declared unit, or guesses one from the largest dimension value
// found under any known dimension field.
func InferUnit(obj map[string]any) Unit {
	if unit, ok := obj["unit"].(string); ok && Unit(unit).Valid() {
		return Unit(unit)
	}

	var largest float64
	for _, field := range dimensionFields {
		values, ok := asSlice(obj[field])
		if !ok {
			continue
		}
		for _, v := range values {
			if n := dimensionValue(v); n > largest {
				largest = n
			}
		}
	}
	return unitForMagnitude(largest)
}

func unitForMagnitude(largest float64) Unit {
	if largest >= mmThreshold {
		return UnitMM
	}
	return UnitCM
}

// dimensionValue reads a width or drop from any of the element shapes a dimension field
// can hold: scalar, range token, or a {drop, prices} row.
func dimensionValue(v any) float64 {
	if m, ok := asMap(v); ok {
		if d, ok := m["drop"]; ok {
			return toNumber(d)
		}
	}
	return rangeUpper(v)
}
