package diagnostics

import (
	"fmt"
	"math"
	"sort"

	"fitting-console/core/models"
)

// Sign of an importance value
type Sign string

const (
	SignPositive Sign = "positive"
	SignNegative Sign = "negative"
	SignZero     Sign = "zero"
)

// Direction a bar grows in
type Direction string

const (
	DirectionRight Direction = "right"
	DirectionLeft  Direction = "left"
	DirectionNone  Direction = "none"
)

// Bar colors, matching the console palette
const (
	ColorPositive  = "#3f8600"
	ColorNegative  = "#cf1322"
	ColorMagnitude = "#1890ff"
	ColorNeutral   = "#d9d9d9"
)

// importanceDecimals is the precision values are shown and ranked at
const importanceDecimals = 6

// RankedFeature is one row of the ranked importance table / bar chart
type RankedFeature struct {
	Feature     string    `json:"feature"`
	Value       float64   `json:"value"`
	AbsValue    float64   `json:"abs_value"`
	BarFraction float64   `json:"bar_fraction"`
	Sign        Sign      `json:"sign"`
	Direction   Direction `json:"direction"`
	Color       string    `json:"color"`
	Intercept   bool      `json:"intercept"`
}

// Rank orders importances by absolute value, largest first, keeping the
// given order for ties. In signed mode bars are scaled against the largest
// absolute value and point right for positive and left for negative values.
// In magnitude mode bars are scaled against the largest raw value and always
// point right; a zero maximum gives every bar a zero fraction.
func Rank(entries models.FeatureImportance, signed bool) ([]RankedFeature, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("rank importances: %w", models.ErrEmptyInput)
	}

	ranked := make([]RankedFeature, len(entries))
	for i, e := range entries {
		if math.IsNaN(e.Value) || math.IsInf(e.Value, 0) {
			return nil, models.NewValidationError(e.Feature, "non-finite importance %v", e.Value)
		}
		v := roundTo(e.Value, importanceDecimals)
		ranked[i] = RankedFeature{
			Feature:   e.Feature,
			Value:     v,
			AbsValue:  math.Abs(v),
			Sign:      signOf(v),
			Intercept: models.IsIntercept(e.Feature),
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].AbsValue > ranked[j].AbsValue
	})

	scale := 0.0
	for _, r := range ranked {
		if signed {
			scale = math.Max(scale, r.AbsValue)
		} else {
			scale = math.Max(scale, r.Value)
		}
	}

	for i := range ranked {
		r := &ranked[i]
		if signed {
			r.BarFraction = fraction(r.AbsValue, scale)
			switch r.Sign {
			case SignPositive:
				r.Direction, r.Color = DirectionRight, ColorPositive
			case SignNegative:
				r.Direction, r.Color = DirectionLeft, ColorNegative
			default:
				r.Direction, r.Color = DirectionNone, ColorNeutral
			}
			continue
		}
		// magnitude-only importances are non-negative by contract; anything
		// below zero draws an empty bar
		r.BarFraction = fraction(math.Max(r.Value, 0), scale)
		r.Direction, r.Color = DirectionRight, ColorMagnitude
	}

	return ranked, nil
}

func fraction(v, scale float64) float64 {
	if scale <= 0 {
		return 0
	}
	return v / scale
}

func signOf(v float64) Sign {
	switch {
	case v > 0:
		return SignPositive
	case v < 0:
		return SignNegative
	default:
		return SignZero
	}
}

func roundTo(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	r := math.Round(v*p) / p
	if r == 0 {
		return 0 // drop negative zero
	}
	return r
}
