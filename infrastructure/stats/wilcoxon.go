package stats

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

// exactLimit is the largest number of non-zero differences for which the
// exact null distribution of the signed-rank statistic is enumerated.
const exactLimit = 50

// SignedRankResult holds the outcome of a Wilcoxon signed-rank test.
type SignedRankResult struct {
	// Statistic is W+, the sum of ranks of the positive differences.
	Statistic float64

	// N is the number of non-zero differences that were ranked.
	N int

	// Zeros is the number of zero differences discarded before ranking.
	Zeros int

	// Z is the standardized statistic of the normal approximation.
	// It is zero when the exact distribution was used.
	Z float64

	// PValue is the p-value under the requested alternative.
	PValue float64

	// Exact reports whether PValue came from the exact null distribution.
	Exact bool
}

// SignedRank performs the Wilcoxon signed-rank test on paired differences.
//
// Zero differences are discarded before ranking. Tied absolute differences
// receive the average of the ranks they span. When at most 50 differences
// remain, none are tied and no zero was discarded, the p-value comes from
// the exact permutation distribution of W+; otherwise the normal approximation is used with the
// tie-corrected variance n(n+1)(2n+1)/24 - Σ(t³-t)/48 and no continuity
// correction.
//
// Returns ErrDegenerateSample if no non-zero difference remains, and
// ErrUnknownAlternative for an unsupported alternative. The function is
// pure and deterministic.
func SignedRank(diffs []float64, alt Alternative) (SignedRankResult, error) {
	switch alt {
	case AlternativeGreater, AlternativeLess, AlternativeTwoSided:
	default:
		return SignedRankResult{}, fmt.Errorf("%w: %q", ErrUnknownAlternative, alt)
	}

	nonZero := make([]float64, 0, len(diffs))
	var zeros int
	for _, d := range diffs {
		switch {
		case math.IsNaN(d):
		case d == 0:
			zeros++
		default:
			nonZero = append(nonZero, d)
		}
	}
	n := len(nonZero)
	if n == 0 {
		return SignedRankResult{}, ErrDegenerateSample
	}

	ranks, tieTerm := rankAbs(nonZero)

	var wPlus float64
	for i, d := range nonZero {
		if d > 0 {
			wPlus += ranks[i]
		}
	}

	res := SignedRankResult{Statistic: wPlus, N: n, Zeros: zeros}
	if n <= exactLimit && tieTerm == 0 && zeros == 0 {
		res.Exact = true
		res.PValue = exactPValue(int(math.Round(wPlus)), n, alt)
		return res, nil
	}

	fn := float64(n)
	mean := fn * (fn + 1) / 4
	variance := fn*(fn+1)*(2*fn+1)/24 - tieTerm/48
	res.Z = (wPlus - mean) / math.Sqrt(variance)
	res.PValue = normalPValue(res.Z, alt)
	return res, nil
}

// rankAbs ranks values by absolute magnitude, averaging ranks over ties.
// It also returns Σ(t³-t) over tie groups of size t.
func rankAbs(values []float64) ([]float64, float64) {
	n := len(values)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return math.Abs(values[order[a]]) < math.Abs(values[order[b]])
	})

	ranks := make([]float64, n)
	var tieTerm float64
	for i := 0; i < n; {
		j := i + 1
		for j < n && math.Abs(values[order[j]]) == math.Abs(values[order[i]]) {
			j++
		}
		// Positions i..j-1 share ranks i+1..j.
		avg := float64(i+1+j) / 2
		for k := i; k < j; k++ {
			ranks[order[k]] = avg
		}
		if t := float64(j - i); t > 1 {
			tieTerm += t*t*t - t
		}
		i = j
	}
	return ranks, tieTerm
}

// exactPValue evaluates the exact null distribution of W+ for n untied
// ranks. counts[s] is the number of sign assignments whose positive ranks
// sum to s; all 2^n assignments are equally likely under the null.
func exactPValue(w, n int, alt Alternative) float64 {
	maxSum := n * (n + 1) / 2
	counts := make([]float64, maxSum+1)
	counts[0] = 1
	for k := 1; k <= n; k++ {
		for s := maxSum; s >= k; s-- {
			counts[s] += counts[s-k]
		}
	}
	total := math.Ldexp(1, n)

	var upper, lower float64
	for s, c := range counts {
		if s >= w {
			upper += c
		}
		if s <= w {
			lower += c
		}
	}
	upper /= total
	lower /= total

	switch alt {
	case AlternativeGreater:
		return upper
	case AlternativeLess:
		return lower
	default:
		return math.Min(1, 2*math.Min(upper, lower))
	}
}

// normalPValue converts a standardized statistic into a p-value.
func normalPValue(z float64, alt Alternative) float64 {
	switch alt {
	case AlternativeGreater:
		return distuv.UnitNormal.Survival(z)
	case AlternativeLess:
		return distuv.UnitNormal.CDF(z)
	default:
		return math.Min(1, 2*distuv.UnitNormal.Survival(math.Abs(z)))
	}
}
