// Package aggregate provides the score aggregation strategies that turn a
// system's frozen per-segment scores into the headline mean used to order
// systems.
package aggregate

import (
	"fmt"

	"github.com/montanaflynn/stats"

	"github.com/ahrav/go-humeval/internal/domain"
)

// Strategy names used in configuration.
const (
	// NameMacro identifies the domain-stratified mean.
	NameMacro = "macro"

	// NameMicro identifies the flat mean over all judged segments.
	NameMicro = "micro"
)

var (
	_ domain.ScoreAggregator = (*MacroMean)(nil)
	_ domain.ScoreAggregator = (*MicroMean)(nil)
)

// MacroMean averages the per-domain means of a system, so every domain
// contributes equally regardless of how many segments it holds.
//
// Concurrency: stateless and safe for concurrent use.
type MacroMean struct{}

// NewMacroMean creates a MacroMean aggregator.
func NewMacroMean() *MacroMean { return &MacroMean{} }

// Name returns "macro".
func (*MacroMean) Name() string { return NameMacro }

// Aggregate returns the mean of the system's per-domain means.
func (*MacroMean) Aggregate(ds *domain.Dataset, systemID string) (domain.SystemScore, error) {
	byDomain, err := scoresByDomain(ds, systemID)
	if err != nil {
		return domain.SystemScore{}, err
	}

	domainMeans, err := means(byDomain)
	if err != nil {
		return domain.SystemScore{}, err
	}

	values := make(stats.Float64Data, 0, len(domainMeans))
	for _, dom := range ds.Domains() {
		if m, ok := domainMeans[dom]; ok {
			values = append(values, m)
		}
	}
	mean, err := values.Mean()
	if err != nil {
		return domain.SystemScore{}, fmt.Errorf("%w: %s has no scored domains", domain.ErrEmptyValue, systemID)
	}
	return domain.SystemScore{Mean: mean, DomainMeans: domainMeans}, nil
}

// MicroMean averages every judged segment of a system with equal weight.
//
// Concurrency: stateless and safe for concurrent use.
type MicroMean struct{}

// NewMicroMean creates a MicroMean aggregator.
func NewMicroMean() *MicroMean { return &MicroMean{} }

// Name returns "micro".
func (*MicroMean) Name() string { return NameMicro }

// Aggregate returns the flat mean over all of the system's segments. Per
// domain means are still reported.
func (*MicroMean) Aggregate(ds *domain.Dataset, systemID string) (domain.SystemScore, error) {
	byDomain, err := scoresByDomain(ds, systemID)
	if err != nil {
		return domain.SystemScore{}, err
	}

	var all stats.Float64Data
	for _, dom := range ds.Domains() {
		all = append(all, byDomain[dom]...)
	}
	mean, err := all.Mean()
	if err != nil {
		return domain.SystemScore{}, fmt.Errorf("%w: %s has no judged segments", domain.ErrEmptyValue, systemID)
	}

	domainMeans, err := means(byDomain)
	if err != nil {
		return domain.SystemScore{}, err
	}
	return domain.SystemScore{Mean: mean, DomainMeans: domainMeans}, nil
}

// scoresByDomain groups a system's segment scores by domain.
func scoresByDomain(ds *domain.Dataset, systemID string) (map[string]stats.Float64Data, error) {
	sys, ok := ds.System(systemID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownSystem, systemID)
	}
	if sys.Len() == 0 {
		return nil, fmt.Errorf("%w: %s has no judged segments", domain.ErrEmptyValue, systemID)
	}

	out := make(map[string]stats.Float64Data)
	for _, key := range sys.Segments() {
		score, _ := sys.Score(key)
		dom, _ := ds.DomainOf(key)
		out[dom] = append(out[dom], score)
	}
	return out, nil
}

func means(byDomain map[string]stats.Float64Data) (map[string]float64, error) {
	out := make(map[string]float64, len(byDomain))
	for dom, values := range byDomain {
		m, err := stats.Mean(values)
		if err != nil {
			return nil, fmt.Errorf("mean of domain %q: %w", dom, err)
		}
		out[dom] = m
	}
	return out, nil
}
