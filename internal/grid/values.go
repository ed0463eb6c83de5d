package grid

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"
	"unicode"
)

// toNumber coerces a decoded JSON value into a float64. Strings have every non-numeric
// character stripped before parsing; anything unparseable becomes 0.
func toNumber(v any) float64 {
	var n float64
	switch x := v.(type) {
	case float64:
		n = x
	case float32:
		n = float64(x)
	case int:
		n = float64(x)
	case int32:
		n = float64(x)
	case int64:
		n = float64(x)
	case uint:
		n = float64(x)
	case json.Number:
		n, _ = x.Float64()
	case string:
		n = parseNumeric(x)
	default:
		return 0
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0
	}
	return n
}

func parseNumeric(s string) float64 {
	s = strings.TrimSpace(s)

	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsDigit(r), r == '.':
			b.WriteRune(r)
		case r == '-' && b.Len() == 0:
			b.WriteRune(r)
		}
	}

	n, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0
	}
	return n
}

// rangeUpper resolves a dimension band to the grid point it prices up to: "101-150" and
// {"min": 101, "max": 150} both become 150. Plain values pass through toNumber.
func rangeUpper(v any) float64 {
	if m, ok := asMap(v); ok {
		if hi, ok := m["max"]; ok {
			return toNumber(hi)
		}
		if to, ok := m["to"]; ok {
			return toNumber(to)
		}
		return 0
	}

	s, ok := v.(string)
	if !ok {
		return toNumber(v)
	}
	s = strings.TrimSpace(s)
	// A dash after the first character separates bounds; a leading dash is a sign.
	if i := strings.LastIndex(s, "-"); i > 0 {
		return parseNumeric(s[i+1:])
	}
	return parseNumeric(s)
}

// isNumber reports whether v is a decoded numeric value (strings do not count).
func isNumber(v any) bool {
	switch v.(type) {
	case float64, float32, int, int32, int64, uint, json.Number:
		return true
	}
	return false
}

// asSlice accepts any slice value, including typed Go slices built by callers.
func asSlice(v any) ([]any, bool) {
	if s, ok := v.([]any); ok {
		return s, true
	}
	if v == nil {
		return nil, false
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// asMap accepts any map keyed by strings.
func asMap(v any) (map[string]any, bool) {
	if m, ok := v.(map[string]any); ok {
		return m, true
	}
	if v == nil {
		return nil, false
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}

// keyTokens lists the spellings a dimension value may have inside a dictionary key.
func keyTokens(raw any) []string {
	n := strconv.FormatFloat(toNumber(raw), 'f', -1, 64)
	s, ok := raw.(string)
	if !ok {
		return []string{n}
	}
	s = strings.TrimSpace(s)
	if s == n {
		return []string{s}
	}
	return []string{s, n}
}

func stringField(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return s
}
