package application

import (
	"fmt"
	"log/slog"
	"maps"

	"github.com/ahrav/go-humeval/infrastructure/stats"
	"github.com/ahrav/go-humeval/internal/domain"
	"github.com/ahrav/go-humeval/internal/ports"
)

// TesterName identifies the Wilcoxon signed-rank tester with Stouffer
// combination in logs and metrics.
const TesterName = "wilcoxon-stouffer"

// RankerConfigFrom extracts the orchestrator parameters from a run
// configuration.
func RankerConfigFrom(cfg *Config) RankerConfig {
	return RankerConfig{
		Alpha:                   cfg.Ranking.Alpha,
		Micro:                   cfg.Ranking.Micro,
		MinAnnotationsPerSystem: cfg.Ranking.MinAnnotationsPerSystem,
		Workers:                 cfg.Ranking.Workers,
	}
}

// BuildTester creates the pairwise significance tester described by cfg.
// Micro mode pools segments; otherwise domains are tested separately and
// combined with the configured Stouffer weights.
func BuildTester(cfg *Config, logger *slog.Logger, metrics ports.MetricsCollector) (*stats.PairwiseTester, error) {
	tc := stats.DefaultTesterConfig()
	if cfg.Ranking.Micro {
		tc.Mode = stats.ModeMicro
	}
	tc.Alternative = stats.Alternative(cfg.Ranking.Alternative)
	tc.DomainWeights = maps.Clone(cfg.Stouffer.Weights)

	tester, err := stats.NewPairwiseTester(TesterName, tc,
		stats.WithLogger(logger),
		stats.WithMetrics(metrics),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tester: %w", err)
	}
	return tester, nil
}

// NewRankerFromConfig wires a Ranker from a run configuration: the tester
// from BuildTester and the aggregator named by cfg.AggregatorName().
// The wrap functions, if any, decorate the tester in order.
func NewRankerFromConfig(
	cfg *Config,
	registry *AggregatorRegistry,
	logger *slog.Logger,
	metrics ports.MetricsCollector,
	wrap []func(ports.SignificanceTester) ports.SignificanceTester,
	opts ...RankerOption,
) (*Ranker, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil config", domain.ErrInvalidConfiguration)
	}
	if registry == nil {
		registry = NewAggregatorRegistry()
	}

	base, err := BuildTester(cfg, logger, metrics)
	if err != nil {
		return nil, err
	}
	var tester ports.SignificanceTester = base
	for _, w := range wrap {
		tester = w(tester)
	}

	agg, err := registry.Create(cfg.AggregatorName())
	if err != nil {
		return nil, err
	}

	opts = append([]RankerOption{WithRankerLogger(logger), WithRankerMetrics(metrics)}, opts...)
	return NewRanker(RankerConfigFrom(cfg), tester, agg, opts...)
}
