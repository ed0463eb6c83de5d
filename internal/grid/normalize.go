package grid

import (
	"encoding/json"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Normalizer converts raw grid payloads into StandardGrid values. It never panics on bad
// input; failures come back as a nil grid and a logged warning.
type Normalizer struct {
	logger *zap.Logger
}

func NewNormalizer(logger *zap.Logger) *Normalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalizer{logger: logger}
}

// Normalize converts data with a silent logger.
func Normalize(data any) *StandardGrid {
	return NewNormalizer(nil).Normalize(data)
}

// Normalize accepts a decoded JSON object, raw JSON bytes or string, or a StandardGrid, and
// returns the canonical grid or nil when no usable grid can be recovered.
func (n *Normalizer) Normalize(data any) *StandardGrid {
	switch v := data.(type) {
	case nil:
		n.logger.Warn("Pricing grid is empty")
		return nil
	case StandardGrid:
		return v.Clone()
	case *StandardGrid:
		return v.Clone()
	case json.RawMessage:
		return n.normalizeJSON(v)
	case []byte:
		return n.normalizeJSON(v)
	case string:
		return n.normalizeJSON([]byte(v))
	}

	obj, ok := asMap(data)
	if !ok {
		n.logger.Warn("Pricing grid is not an object")
		return nil
	}
	return n.normalizeObject(obj)
}

// NormalizeDetected is Normalize for an object payload, also reporting the detected shape.
func (n *Normalizer) NormalizeDetected(obj map[string]any) (*StandardGrid, Format) {
	format := Detect(obj)
	return n.normalizeObject(obj), format
}

func (n *Normalizer) normalizeJSON(b []byte) *StandardGrid {
	var obj map[string]any
	if err := json.Unmarshal(b, &obj); err != nil {
		n.logger.Warn("Pricing grid is not valid JSON", zap.Error(err))
		return nil
	}
	return n.normalizeObject(obj)
}

func (n *Normalizer) normalizeObject(obj map[string]any) *StandardGrid {
	format := Detect(obj)

	var g *StandardGrid
	switch format {
	case FormatStandard:
		g = fromStandard(obj)
	case FormatLegacyA:
		g = fromLegacyA(obj)
	case FormatLegacyB:
		g = fromLegacyB(obj)
	case FormatLegacyC:
		g = fromLegacyC(obj)
	case FormatLegacyD:
		g = fromLegacyD(obj)
	default:
		g = n.fromUnknown(obj)
		if g == nil {
			n.logger.Warn("Unrecognized pricing grid format", zap.Strings("keys", sortedKeys(obj)))
			return nil
		}
	}

	if g.Unit == "" {
		g.Unit = InferUnit(obj)
	}
	g.Currency = stringField(obj, "currency")
	g.Version = stringField(obj, "version")

	n.logger.Debug("Pricing grid normalized",
		zap.Stringer("format", format),
		zap.String("unit", string(g.Unit)),
		zap.Int("widths", len(g.WidthColumns)),
		zap.Int("drops", len(g.DropRows)))
	return g
}

// fromStandard reads a canonical payload. Axes are still sorted, which leaves an already
// canonical grid unchanged.
func fromStandard(obj map[string]any) *StandardGrid {
	widths, _ := asSlice(obj["widthColumns"])
	rawRows, _ := asSlice(obj["dropRows"])

	drops := make([]float64, len(rawRows))
	rows := make([][]float64, len(rawRows))
	for i, r := range rawRows {
		row, _ := asMap(r)
		prices, _ := asSlice(row["prices"])
		drops[i] = toNumber(row["drop"])
		rows[i] = numbers(prices)
	}

	g := assemble(numbers(widths), drops, func(d, w int) float64 {
		if w < len(rows[d]) {
			return rows[d][w]
		}
		return 0
	})
	g.Unit = Unit(stringField(obj, "unit"))
	return g
}

// fromLegacyA reads dropRanges/widthRanges with a prices[drop][width] matrix.
func fromLegacyA(obj map[string]any) *StandardGrid {
	widths, _ := asSlice(obj["widthRanges"])
	drops, _ := asSlice(obj["dropRanges"])
	matrix, _ := asSlice(obj["prices"])
	return assemble(mapValues(widths, rangeUpper), mapValues(drops, rangeUpper), matrixCell(matrix))
}

// fromLegacyB reads widthColumns with {drop, prices} rows in any order and any value type.
func fromLegacyB(obj map[string]any) *StandardGrid {
	widths, _ := asSlice(obj["widthColumns"])
	rawRows, _ := asSlice(obj["dropRows"])

	var drops []float64
	var rows [][]any
	for _, r := range rawRows {
		row, ok := asMap(r)
		if !ok {
			continue
		}
		prices, _ := asSlice(row["prices"])
		drops = append(drops, toNumber(row["drop"]))
		rows = append(rows, prices)
	}

	return assemble(mapValues(widths, toNumber), drops, func(d, w int) float64 {
		if w < len(rows[d]) {
			return toNumber(rows[d][w])
		}
		return 0
	})
}

// fromLegacyC reads scalar widthColumns/dropRows with a "width_drop" keyed dictionary.
func fromLegacyC(obj map[string]any) *StandardGrid {
	widths, _ := asSlice(obj["widthColumns"])
	drops, _ := asSlice(obj["dropRows"])
	dict, _ := asMap(obj["prices"])
	return assemble(mapValues(widths, toNumber), mapValues(drops, toNumber), dictCell(dict, widths, drops))
}

// fromLegacyD reads widths/heights with either a prices[height][width] matrix or a
// dictionary keyed like Format C.
func fromLegacyD(obj map[string]any) *StandardGrid {
	widths, _ := asSlice(obj["widths"])
	heights, _ := asSlice(obj["heights"])

	cell := func(int, int) float64 { return 0 }
	if matrix, ok := asSlice(obj["prices"]); ok {
		cell = matrixCell(matrix)
	} else if dict, ok := asMap(obj["prices"]); ok {
		cell = dictCell(dict, widths, heights)
	}
	return assemble(mapValues(widths, rangeUpper), mapValues(heights, rangeUpper), cell)
}

// fromUnknown scans every field for something that looks like widths, drops and a price
// matrix. It returns nil unless all three are found.
func (n *Normalizer) fromUnknown(obj map[string]any) *StandardGrid {
	var widths, drops, matrix []any
	for _, key := range sortedKeys(obj) {
		values, ok := asSlice(obj[key])
		if !ok || len(values) == 0 {
			continue
		}
		lower := strings.ToLower(key)
		_, nested := asSlice(values[0])
		switch {
		case nested && strings.Contains(lower, "price") && matrix == nil:
			matrix = values
		case nested:
		case strings.Contains(lower, "width") && widths == nil:
			widths = values
		case (strings.Contains(lower, "drop") || strings.Contains(lower, "height")) && drops == nil:
			drops = values
		}
	}
	if widths == nil || drops == nil || matrix == nil {
		return nil
	}

	n.logger.Warn("Pricing grid shape guessed from field names", zap.Strings("keys", sortedKeys(obj)))
	g := assemble(mapValues(widths, rangeUpper), mapValues(drops, dimensionValue), matrixCell(matrix))
	if unit := Unit(stringField(obj, "unit")); unit.Valid() {
		g.Unit = unit
	} else {
		g.Unit = unitForMagnitude(largestDimension(g))
	}
	return g
}

func largestDimension(g *StandardGrid) float64 {
	var largest float64
	for _, w := range g.WidthColumns {
		largest = max(largest, w)
	}
	for _, row := range g.DropRows {
		largest = max(largest, row.Drop)
	}
	return largest
}

// assemble builds a grid from unsorted axes, sorting both and carrying each price cell with
// its width and drop. cell is addressed by the caller's original drop and width indexes.
func assemble(widths, drops []float64, cell func(drop, width int) float64) *StandardGrid {
	wOrder := ascendingOrder(widths)
	dOrder := ascendingOrder(drops)

	g := &StandardGrid{
		WidthColumns: make([]float64, len(wOrder)),
		DropRows:     make([]DropRow, len(dOrder)),
	}
	for i, wi := range wOrder {
		g.WidthColumns[i] = widths[wi]
	}
	for i, di := range dOrder {
		prices := make([]float64, len(wOrder))
		for j, wi := range wOrder {
			prices[j] = cell(di, wi)
		}
		g.DropRows[i] = DropRow{Drop: drops[di], Prices: prices}
	}
	return g
}

func ascendingOrder(values []float64) []int {
	order := make([]int, len(values))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return values[order[a]] < values[order[b]] })
	return order
}

func matrixCell(matrix []any) func(int, int) float64 {
	return func(d, w int) float64 {
		if d >= len(matrix) {
			return 0
		}
		row, ok := asSlice(matrix[d])
		if !ok || w >= len(row) {
			return 0
		}
		return toNumber(row[w])
	}
}

// dictCell probes "w_d", "w-d" and "d_w" keys for each cell, trying both the raw token and
// its plain numeric spelling.
func dictCell(dict map[string]any, widths, drops []any) func(int, int) float64 {
	return func(d, w int) float64 {
		for _, wt := range keyTokens(widths[w]) {
			for _, dt := range keyTokens(drops[d]) {
				for _, key := range []string{wt + "_" + dt, wt + "-" + dt, dt + "_" + wt} {
					if v, ok := dict[key]; ok {
						return toNumber(v)
					}
				}
			}
		}
		return 0
	}
}

func mapValues(values []any, f func(any) float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = f(v)
	}
	return out
}

func numbers(values []any) []float64 {
	return mapValues(values, toNumber)
}

func sortedKeys(obj map[string]any) []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
