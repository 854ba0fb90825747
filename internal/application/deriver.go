package application

import (
	"fmt"

	"github.com/ahrav/go-humeval/internal/domain"
)

// Outcome is the win/loss record and rank interval of one system.
type Outcome struct {
	Wins   int
	Losses int
	Rank   domain.RankInterval
}

// DeriveRanks converts a p-value matrix into wins, losses, and a rank
// interval per system.
//
// S wins against T when matrix[(S,T)] < alpha and S has the higher mean.
// S loses against T when matrix[(T,S)] < alpha and T has the higher mean.
// A significant entry against the mean ordering counts for neither system.
// Each opponent counts at most once, so wins + losses <= n-1 and the
// interval [losses+1, n-wins] is never empty.
//
// Returns domain.ErrUnknownSystem if a system has no entry in means.
func DeriveRanks(systems []string, means map[string]float64, matrix *domain.PValueMatrix, alpha float64) (map[string]Outcome, error) {
	for _, s := range systems {
		if _, ok := means[s]; !ok {
			return nil, fmt.Errorf("%w: no mean for %s", domain.ErrUnknownSystem, s)
		}
	}

	n := len(systems)
	out := make(map[string]Outcome, n)
	for _, s := range systems {
		var o Outcome
		for _, t := range systems {
			if s == t {
				continue
			}
			switch {
			case means[s] > means[t] && matrix.Significant(s, t, alpha):
				o.Wins++
			case means[t] > means[s] && matrix.Significant(t, s, alpha):
				o.Losses++
			}
		}
		o.Rank = domain.RankInterval{Best: o.Losses + 1, Worst: n - o.Wins}
		out[s] = o
	}
	return out, nil
}
