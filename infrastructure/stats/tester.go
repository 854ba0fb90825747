package stats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/time/rate"

	"github.com/ahrav/go-humeval/internal/domain"
	"github.com/ahrav/go-humeval/internal/ports"
)

var _ ports.SignificanceTester = (*PairwiseTester)(nil)

// TesterConfig controls how PairwiseTester turns paired samples into
// p-values.
type TesterConfig struct {
	// Mode selects domain-stratified (macro) or pooled (micro) testing.
	Mode Mode `yaml:"mode" json:"mode" validate:"required,oneof=macro micro"`

	// Alternative is the signed-rank alternative used for each direction.
	// "greater" answers "A scores higher than B" for matrix[(A,B)].
	Alternative Alternative `yaml:"alternative" json:"alternative" validate:"required,oneof=greater less two-sided"`

	// DomainWeights are optional Stouffer weights per domain. Domains not
	// listed get weight 1.
	DomainWeights map[string]float64 `yaml:"domain_weights" json:"domain_weights" validate:"omitempty,dive,keys,required,endkeys,gt=0"`
}

// DefaultTesterConfig returns the domain-stratified one-sided configuration.
func DefaultTesterConfig() TesterConfig {
	return TesterConfig{
		Mode:        ModeMacro,
		Alternative: AlternativeGreater,
	}
}

// TesterOption configures a PairwiseTester.
type TesterOption func(*PairwiseTester)

// WithLogger sets the logger used for progress and diagnostics.
func WithLogger(logger *slog.Logger) TesterOption {
	return func(t *PairwiseTester) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithMetrics sets the collector that receives alignment and sample-size
// metrics.
func WithMetrics(metrics ports.MetricsCollector) TesterOption {
	return func(t *PairwiseTester) {
		if metrics != nil {
			t.metrics = metrics
		}
	}
}

// PairwiseTester computes a directional p-value for every ordered pair of
// systems in a language pair.
//
// For a pair (A, B) the two systems are joined on segment key and segments
// judged for only one side are dropped. In macro mode the paired differences
// A-B are split by domain, each domain with at least two paired segments is
// tested with SignedRank, and the per-domain p-values are combined with
// Stouffer. In micro mode the pooled differences are tested once. The
// reverse entry matrix[(B,A)] is tested independently on the negated
// differences, so the two entries need not sum to one.
//
// Degenerate samples never fail the run: a domain without non-zero
// differences is skipped, and a pair left with nothing testable gets p = 1.
//
// Concurrency: the tester holds no mutable state and may be shared by
// goroutines ranking different language pairs.
type PairwiseTester struct {
	name    string
	config  TesterConfig
	logger  *slog.Logger
	metrics ports.MetricsCollector
}

// NewPairwiseTester creates a tester with a validated configuration.
//
// Returns ErrEmptyTesterName if name is empty, or a validation error if the
// configuration names an unknown mode or alternative.
func NewPairwiseTester(name string, config TesterConfig, opts ...TesterOption) (*PairwiseTester, error) {
	if name == "" {
		return nil, ErrEmptyTesterName
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	t := &PairwiseTester{
		name:    name,
		config:  config,
		logger:  slog.Default(),
		metrics: ports.NopMetrics{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Name returns the tester identifier.
func (t *PairwiseTester) Name() string { return t.name }

// Config returns the tester configuration.
func (t *PairwiseTester) Config() TesterConfig { return t.config }

// Validate checks the tester configuration.
func (t *PairwiseTester) Validate() error {
	if err := validate.Struct(t.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// pairedSample is the outer join of two systems with unmatched segments
// removed.
type pairedSample struct {
	diffs   []float64
	domains []string
	gaps    int
}

// Test fills a p-value matrix for every ordered pair of distinct systems.
// Pairs are visited in sorted system order. The only errors returned are
// context cancellation and matrix construction faults.
func (t *PairwiseTester) Test(ctx context.Context, ds *domain.Dataset) (*domain.PValueMatrix, error) {
	start := time.Now()
	lp := ds.LanguagePair()
	systems := ds.Systems()
	ids := ds.SystemIDs()
	matrix := domain.NewPValueMatrix(ids)
	labels := map[string]string{"tester": t.name, "language_pair": lp.String()}

	totalPairs := len(systems) * (len(systems) - 1) / 2
	progress := rate.Sometimes{First: 1, Interval: 5 * time.Second}
	done := 0

	for i := range systems {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for j := i + 1; j < len(systems); j++ {
			a, b := systems[i], systems[j]
			sample := pairSystems(ds, a, b)

			if sample.gaps > 0 {
				t.metrics.RecordCounter("alignment_gaps", float64(sample.gaps), labels)
			}
			t.metrics.RecordHistogram("paired_segments", float64(len(sample.diffs)), labels)

			pAB := t.pvalue(sample.diffs, sample.domains, labels)
			pBA := t.pvalue(negate(sample.diffs), sample.domains, labels)

			if err := matrix.Set(a.ID, b.ID, pAB); err != nil {
				return nil, domain.NewDatasetError(lp, "Test", err)
			}
			if err := matrix.Set(b.ID, a.ID, pBA); err != nil {
				return nil, domain.NewDatasetError(lp, "Test", err)
			}

			done++
			progress.Do(func() {
				t.logger.Debug("pairwise testing",
					"language_pair", lp,
					"pairs_done", done,
					"pairs_total", totalPairs,
				)
			})
		}
	}

	t.metrics.RecordLatency("pairwise_test", time.Since(start), labels)
	t.logger.Debug("pairwise testing complete",
		"language_pair", lp,
		"systems", len(systems),
		"elapsed", time.Since(start),
	)
	return matrix, nil
}

// pairSystems joins two systems on segment key. Segments judged for only
// one of them count as alignment gaps and are dropped.
func pairSystems(ds *domain.Dataset, a, b domain.System) pairedSample {
	var s pairedSample
	for _, key := range a.Segments() {
		scoreB, ok := b.Score(key)
		if !ok {
			continue
		}
		scoreA, _ := a.Score(key)
		dom, _ := ds.DomainOf(key)
		s.diffs = append(s.diffs, scoreA-scoreB)
		s.domains = append(s.domains, dom)
	}
	s.gaps = a.Len() + b.Len() - 2*len(s.diffs)
	return s
}

// pvalue computes the p-value for one direction of a pair.
func (t *PairwiseTester) pvalue(diffs []float64, domains []string, labels map[string]string) float64 {
	if t.config.Mode == ModeMicro {
		return t.signedRank(diffs, labels)
	}

	byDomain := make(map[string][]float64)
	var order []string
	for i, d := range diffs {
		dom := domains[i]
		if _, ok := byDomain[dom]; !ok {
			order = append(order, dom)
		}
		byDomain[dom] = append(byDomain[dom], d)
	}
	slices.Sort(order)

	var pvalues, weights []float64
	for _, dom := range order {
		sample := byDomain[dom]
		if len(sample) < 2 {
			t.metrics.RecordCounter("skipped_domains", 1, labels)
			continue
		}
		res, err := SignedRank(sample, t.config.Alternative)
		if err != nil {
			t.metrics.RecordCounter("degenerate_samples", 1, labels)
			continue
		}
		pvalues = append(pvalues, res.PValue)
		weights = append(weights, t.weight(dom))
	}
	if len(pvalues) == 0 {
		return 1
	}

	p, err := Stouffer(pvalues, weights)
	if err != nil {
		t.logger.Warn("stouffer combination failed", "error", err)
		return 1
	}
	return p
}

// signedRank runs the pooled test, mapping degenerate samples to p = 1.
func (t *PairwiseTester) signedRank(diffs []float64, labels map[string]string) float64 {
	res, err := SignedRank(diffs, t.config.Alternative)
	if errors.Is(err, ErrDegenerateSample) {
		t.metrics.RecordCounter("degenerate_samples", 1, labels)
		return 1
	}
	if err != nil {
		t.logger.Warn("signed-rank test failed", "error", err)
		return 1
	}
	return res.PValue
}

func (t *PairwiseTester) weight(dom string) float64 {
	if w, ok := t.config.DomainWeights[dom]; ok {
		return w
	}
	return 1
}

func negate(diffs []float64) []float64 {
	out := make([]float64, len(diffs))
	for i, d := range diffs {
		out[i] = -d
	}
	return out
}
