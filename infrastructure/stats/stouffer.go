package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// pClamp keeps p-values away from 0 and 1 so the inverse normal CDF stays
// finite.
const pClamp = 1e-16

// Stouffer combines independent one-sided p-values into a single p-value.
//
// Each p-value is converted to z_i = Φ⁻¹(1 - p_i); the combined statistic
// is Z = Σ w_i z_i / sqrt(Σ w_i²) and the result is 1 - Φ(Z). A nil weights
// slice gives every p-value weight 1. Inputs are clamped to
// [1e-16, 1-1e-16] before conversion.
//
// Returns ErrNoPValues for an empty input, ErrWeightMismatch when weights
// and p-values differ in length, and ErrInvalidWeight for negative, NaN,
// or all-zero weights.
func Stouffer(pvalues, weights []float64) (float64, error) {
	if len(pvalues) == 0 {
		return 0, ErrNoPValues
	}
	if weights != nil && len(weights) != len(pvalues) {
		return 0, fmt.Errorf("%w: %d weights for %d p-values", ErrWeightMismatch, len(weights), len(pvalues))
	}

	var num, sumSq float64
	for i, p := range pvalues {
		w := 1.0
		if weights != nil {
			w = weights[i]
		}
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return 0, fmt.Errorf("%w: %v", ErrInvalidWeight, w)
		}
		p = math.Min(math.Max(p, pClamp), 1-pClamp)
		num += w * distuv.UnitNormal.Quantile(1-p)
		sumSq += w * w
	}
	if sumSq == 0 {
		return 0, fmt.Errorf("%w: all weights are zero", ErrInvalidWeight)
	}

	z := num / math.Sqrt(sumSq)
	return distuv.UnitNormal.Survival(z), nil
}
