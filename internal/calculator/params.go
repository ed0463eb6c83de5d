package calculator

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"fabricquote/internal/costing"
	"fabricquote/internal/fabric"
)

// Params is one integrated fabric calculation request.
type Params struct {
	WindowCoveringID string              `json:"windowCoveringId"`
	MakingCostID     string              `json:"makingCostId,omitempty"`
	Measurements     fabric.Measurements `json:"measurements"`
	SelectedOptions  []string            `json:"selectedOptions"`
	FabricDetails    fabric.Details      `json:"fabricDetails"`
}

// Validate rejects requests no calculation can make sense of.
func (p Params) Validate() error {
	var errs []error
	if p.WindowCoveringID == "" {
		errs = append(errs, errors.New("windowCoveringId is required"))
	}
	if p.Measurements.RailWidth <= 0 {
		errs = append(errs, fmt.Errorf("measurements.railWidth must be positive, got %v", p.Measurements.RailWidth))
	}
	if p.Measurements.Drop <= 0 {
		errs = append(errs, fmt.Errorf("measurements.drop must be positive, got %v", p.Measurements.Drop))
	}
	if p.Measurements.Pooling < 0 {
		errs = append(errs, fmt.Errorf("measurements.pooling must not be negative, got %v", p.Measurements.Pooling))
	}
	if p.FabricDetails.FabricCostPerYard < 0 {
		errs = append(errs, fmt.Errorf("fabricDetails.fabricCostPerYard must not be negative, got %v", p.FabricDetails.FabricCostPerYard))
	}
	switch p.FabricDetails.RollDirection {
	case "", fabric.Horizontal, fabric.Vertical:
	default:
		errs = append(errs, fmt.Errorf("fabricDetails.rollDirection %q is not horizontal or vertical", p.FabricDetails.RollDirection))
	}
	return errors.Join(errs...)
}

// Settings are the calculation defaults applied when records say nothing.
type Settings struct {
	DefaultFullness     float64 `json:"defaultFullness"`
	DefaultWastePercent float64 `json:"defaultWastePercent"`
	DefaultFabricWidth  float64 `json:"defaultFabricWidth"`
	HourlyRate          float64 `json:"hourlyRate"`
}

func DefaultSettings() Settings {
	return Settings{
		DefaultFullness:     fabric.DefaultFullnessRatio,
		DefaultWastePercent: fabric.DefaultWasteFactor * 100,
		DefaultFabricWidth:  fabric.DefaultFabricWidth,
		HourlyRate:          costing.DefaultHourlyRate,
	}
}

const cacheKeyLength = 32

// CacheKey derives the content address of a calculation. Option order does not change a
// result, so options are sorted first; settings are part of the key so changing a default
// never serves results computed under the old one.
func CacheKey(p Params, s Settings) string {
	p.SelectedOptions = append([]string(nil), p.SelectedOptions...)
	sort.Strings(p.SelectedOptions)

	payload, err := json.Marshal(struct {
		Params   Params   `json:"params"`
		Settings Settings `json:"settings"`
	}{p, s})
	if err != nil {
		// Params hold only strings and floats; json.Marshal fails only on NaN/Inf.
		payload = []byte(fmt.Sprintf("%#v|%#v", p, s))
	}

	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])[:cacheKeyLength]
}
