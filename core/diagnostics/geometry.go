// Package diagnostics derives chart geometry and ranked feature-importance
// presentations from raw model evaluation output.
package diagnostics

import (
	"fmt"
	"math"

	"fitting-console/core/models"
)

// PaddingRatio is the fraction of the value range added on each side of a
// scatter axis.
const PaddingRatio = 0.1

// Domain is a closed axis interval
type Domain struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Point is an (actual, predicted) pair
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ComputeScatterDomain returns the shared axis domain for an actual vs
// predicted scatter plot: the combined value range padded by PaddingRatio on
// each side. When every value is identical the range is zero, so padding is
// PaddingRatio·max(|value|, 1) instead and the domain is never zero-width.
func ComputeScatterDomain(actual, predictions []float64) (Domain, error) {
	if len(actual)+len(predictions) == 0 {
		return Domain{}, fmt.Errorf("scatter domain: %w", models.ErrEmptyInput)
	}

	rawMin := math.Inf(1)
	rawMax := math.Inf(-1)
	for _, series := range [][]float64{actual, predictions} {
		for i, v := range series {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return Domain{}, models.NewValidationError("values", "non-finite value %v at index %d", v, i)
			}
			rawMin = math.Min(rawMin, v)
			rawMax = math.Max(rawMax, v)
		}
	}

	span := rawMax - rawMin
	padding := PaddingRatio * span
	if span == 0 {
		padding = PaddingRatio * math.Max(math.Abs(rawMin), 1)
	}
	return Domain{Min: rawMin - padding, Max: rawMax + padding}, nil
}

// ComputeParityLine returns the endpoints of the actual == predicted
// reference line across the domain.
func ComputeParityLine(min, max float64) [2]Point {
	return [2]Point{{X: min, Y: min}, {X: max, Y: max}}
}
