package fabric

// OptionFactors are the fabric fields a bundled making-cost option can carry. Zero values
// mean "no effect".
type OptionFactors struct {
	// Heading marks a heading option; only headings change the fullness ratio.
	Heading bool
	// FullnessRatio replaces the current ratio when set on a heading.
	FullnessRatio float64
	// WastePercent is added to the waste factor, e.g. 5 adds 5%.
	WastePercent float64
	// PatternRepeat multiplies the pattern repeat factor.
	PatternRepeat float64
	// SeamComplexity multiplies the seam complexity factor.
	SeamComplexity float64
}

// Apply folds one option's factors into a. A heading's pattern repeat also scales the
// fullness ratio and its waste percent is added to it, after any explicit ratio replaces it.
func (a Adjustments) Apply(f OptionFactors) Adjustments {
	if f.Heading {
		if f.FullnessRatio > 0 {
			a.FullnessRatio = f.FullnessRatio
		}
		if f.PatternRepeat > 0 {
			a.FullnessRatio *= f.PatternRepeat
		}
		if f.WastePercent > 0 {
			a.FullnessRatio += f.WastePercent / 100
		}
	}
	if f.WastePercent > 0 {
		a.WasteFactor += f.WastePercent / 100
	}
	if f.PatternRepeat > 0 {
		a.PatternRepeatFactor *= f.PatternRepeat
	}
	if f.SeamComplexity > 0 {
		a.SeamComplexityFactor *= f.SeamComplexity
	}
	return a
}
