package application

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/ahrav/go-humeval/internal/domain"
	"github.com/ahrav/go-humeval/internal/ports"
)

// RankerConfig holds the ranking parameters used by the orchestrator.
type RankerConfig struct {
	// Alpha is the significance threshold.
	Alpha float64 `validate:"gt=0,lt=1"`
	// Micro is recorded on the report; the tester and aggregator passed to
	// NewRanker must already be configured for the same mode.
	Micro bool
	// MinAnnotationsPerSystem is the volume threshold for ranking a
	// language pair.
	MinAnnotationsPerSystem float64 `validate:"gte=0"`
	// Workers bounds concurrent language pairs; 1 ranks sequentially.
	Workers int `validate:"min=1"`
}

// RankerOption configures a Ranker.
type RankerOption func(*Ranker)

// WithRankerLogger sets the logger.
func WithRankerLogger(logger *slog.Logger) RankerOption {
	return func(r *Ranker) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithRankerMetrics sets the metrics collector.
func WithRankerMetrics(metrics ports.MetricsCollector) RankerOption {
	return func(r *Ranker) {
		if metrics != nil {
			r.metrics = metrics
		}
	}
}

// WithDisplayName sets the function that renders language pair names,
// e.g. "English-German" for "en-de".
func WithDisplayName(fn func(domain.LanguagePair) string) RankerOption {
	return func(r *Ranker) {
		if fn != nil {
			r.displayName = fn
		}
	}
}

// WithClock overrides the report timestamp source.
func WithClock(now func() time.Time) RankerOption {
	return func(r *Ranker) {
		if now != nil {
			r.now = now
		}
	}
}

// Ranker is the ranking orchestrator. For each language pair it applies the
// volume threshold, aggregates system means, runs the significance tester,
// derives ranks and clusters, and merges AutoRank data.
//
// Concurrency: language pairs are ranked in parallel up to the configured
// worker limit. Each pair works on its own frozen Dataset and its own
// p-value matrix; results are collected by index so no state is shared.
type Ranker struct {
	config      RankerConfig
	tester      ports.SignificanceTester
	aggregator  domain.ScoreAggregator
	logger      *slog.Logger
	metrics     ports.MetricsCollector
	tracer      trace.Tracer
	displayName func(domain.LanguagePair) string
	now         func() time.Time
}

// NewRanker creates an orchestrator around a tester and an aggregator.
func NewRanker(
	config RankerConfig,
	tester ports.SignificanceTester,
	aggregator domain.ScoreAggregator,
	opts ...RankerOption,
) (*Ranker, error) {
	if tester == nil {
		return nil, fmt.Errorf("%w: significance tester is required", domain.ErrInvalidConfiguration)
	}
	if aggregator == nil {
		return nil, fmt.Errorf("%w: score aggregator is required", domain.ErrInvalidConfiguration)
	}
	if config.Alpha <= 0 || config.Alpha >= 1 {
		return nil, fmt.Errorf("%w: alpha must be in (0, 1), got %v", domain.ErrInvalidConfiguration, config.Alpha)
	}
	if config.MinAnnotationsPerSystem < 0 {
		return nil, fmt.Errorf("%w: negative volume threshold", domain.ErrInvalidConfiguration)
	}
	if config.Workers < 1 {
		config.Workers = 1
	}
	if err := tester.Validate(); err != nil {
		return nil, fmt.Errorf("tester %s: %w", tester.Name(), err)
	}

	r := &Ranker{
		config:      config,
		tester:      tester,
		aggregator:  aggregator,
		logger:      slog.Default(),
		metrics:     ports.NopMetrics{},
		tracer:      otel.Tracer("humeval/ranker"),
		displayName: func(lp domain.LanguagePair) string { return lp.String() },
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// lpResult is the outcome of one language pair.
type lpResult struct {
	table     *domain.RankingTable
	extended  *domain.RankingTable
	exclusion *domain.Exclusion
}

// Rank ranks every language pair in sorted order and assembles the report.
// AutoRank rows are optional; a nil book skips the merge.
//
// Statistical edge cases never abort the run. An error is returned only
// for cancellation or aggregation faults, and the first such error cancels
// the remaining language pairs.
func (r *Ranker) Rank(
	ctx context.Context,
	datasets map[domain.LanguagePair]*domain.Dataset,
	book domain.AutoRankBook,
) (*domain.Report, error) {
	ctx, span := r.tracer.Start(ctx, "Ranker.Rank",
		trace.WithAttributes(attribute.Int("language_pairs", len(datasets))))
	defer span.End()

	lps := domain.SortedLanguagePairs(datasets)
	results := make([]lpResult, len(lps))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.config.Workers)
	for i, lp := range lps {
		g.Go(func() error {
			res, err := r.rankOne(gctx, datasets[lp], book[lp])
			if err != nil {
				return fmt.Errorf("language pair %s: %w", lp, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	report := &domain.Report{
		RunID:       uuid.NewString(),
		GeneratedAt: r.now().UTC(),
		Micro:       r.config.Micro,
	}
	for _, res := range results {
		if res.table != nil {
			report.Tables = append(report.Tables, *res.table)
		}
		if res.extended != nil {
			report.Extended = append(report.Extended, *res.extended)
		}
		if res.exclusion != nil {
			report.Exclusions = append(report.Exclusions, *res.exclusion)
		}
	}

	span.SetAttributes(
		attribute.Int("ranked", len(report.Tables)),
		attribute.Int("excluded", len(report.Exclusions)),
		attribute.Int("total_clusters", report.TotalClusters()),
	)
	span.SetStatus(codes.Ok, "ranking completed")
	r.logger.Info("ranking complete",
		"run_id", report.RunID,
		"ranked", len(report.Tables),
		"excluded", len(report.Exclusions),
	)
	return report, nil
}

// rankOne applies the volume threshold and ranks a single language pair.
func (r *Ranker) rankOne(ctx context.Context, ds *domain.Dataset, rows []domain.AutoRankEntry) (lpResult, error) {
	lp := ds.LanguagePair()
	volume := ds.AnnotationsPerSystem()
	labels := map[string]string{"language_pair": lp.String()}

	if volume < r.config.MinAnnotationsPerSystem {
		ex := domain.Exclusion{
			LanguagePair:         lp,
			Reason:               domain.ReasonLowVolume,
			AnnotationsPerSystem: volume,
			Threshold:            r.config.MinAnnotationsPerSystem,
		}
		r.metrics.RecordCounter("excluded_language_pairs", 1, labels)
		r.logger.Warn("language pair excluded", "language_pair", lp, "reason", ex.Reason,
			"annotations_per_system", volume, "threshold", ex.Threshold)

		res := lpResult{exclusion: &ex}
		if len(rows) > 0 {
			aux := &domain.RankingTable{
				LanguagePair:         lp,
				DisplayName:          r.displayName(lp),
				AnnotationsPerSystem: volume,
			}
			res.extended = MergeAutoRank(aux, rows)
		}
		return res, nil
	}

	table, err := r.RankLanguagePair(ctx, ds)
	if err != nil {
		return lpResult{}, err
	}

	ApplyAutoRankFields(table, rows)
	return lpResult{table: table, extended: MergeAutoRank(table, rows)}, nil
}

// RankLanguagePair runs aggregation, significance testing, rank derivation
// and clustering for one language pair, without the volume threshold or
// AutoRank merge.
func (r *Ranker) RankLanguagePair(ctx context.Context, ds *domain.Dataset) (*domain.RankingTable, error) {
	lp := ds.LanguagePair()
	ctx, span := r.tracer.Start(ctx, "Ranker.RankLanguagePair",
		trace.WithAttributes(attribute.String("language_pair", lp.String())))
	defer span.End()
	start := time.Now()
	labels := map[string]string{"language_pair": lp.String(), "tester": r.tester.Name()}

	ids := ds.SystemIDs()
	scores := make(map[string]domain.SystemScore, len(ids))
	means := make(map[string]float64, len(ids))
	for _, id := range ids {
		score, err := r.aggregator.Aggregate(ds, id)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("aggregate %s with %s: %w", id, r.aggregator.Name(), err)
		}
		scores[id] = score
		means[id] = score.Mean
	}

	order := SortByMean(ids, means)

	matrix, err := r.tester.Test(ctx, ds)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("significance test %s: %w", r.tester.Name(), err)
	}

	outcomes, err := DeriveRanks(order, means, matrix, r.config.Alpha)
	if err != nil {
		return nil, err
	}
	clusters, nClusters := AssignClusters(order, matrix, r.config.Alpha)
	positions := domainPositions(ids, scores)

	table := &domain.RankingTable{
		LanguagePair:         lp,
		DisplayName:          r.displayName(lp),
		AnnotationsPerSystem: ds.AnnotationsPerSystem(),
		Domains:              ds.Domains(),
		Standings:            make([]domain.Standing, 0, len(order)),
		Clusters:             nClusters,
		PValues:              matrix,
	}
	for _, id := range order {
		o := outcomes[id]
		table.Standings = append(table.Standings, domain.Standing{
			SystemID:        id,
			HumanRanked:     true,
			Mean:            means[id],
			DomainMeans:     scores[id].DomainMeans,
			DomainPositions: positions[id],
			Rank:            o.Rank,
			Wins:            o.Wins,
			Losses:          o.Losses,
			Cluster:         clusters[id],
		})
	}

	r.metrics.RecordGauge("clusters", float64(nClusters), labels)
	r.metrics.RecordLatency("rank_language_pair", time.Since(start), labels)
	span.SetAttributes(
		attribute.Int("systems", len(order)),
		attribute.Int("clusters", nClusters),
	)
	span.SetStatus(codes.Ok, "language pair ranked")
	r.logger.Debug("language pair ranked", "language_pair", lp, "systems", len(order), "clusters", nClusters)
	return table, nil
}

// SortByMean orders systems by descending mean, breaking ties by ID.
func SortByMean(ids []string, means map[string]float64) []string {
	order := slices.Clone(ids)
	slices.SortStableFunc(order, func(a, b string) int {
		if c := cmp.Compare(means[b], means[a]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	return order
}

// domainPositions ranks systems within each domain by their domain mean;
// position 1 is the best system in that domain. Equal means share the
// average of the positions they occupy.
func domainPositions(ids []string, scores map[string]domain.SystemScore) map[string]map[string]float64 {
	byDomain := make(map[string]map[string]float64)
	for _, id := range ids {
		for dom, m := range scores[id].DomainMeans {
			if byDomain[dom] == nil {
				byDomain[dom] = make(map[string]float64)
			}
			byDomain[dom][id] = m
		}
	}

	out := make(map[string]map[string]float64, len(ids))
	for dom, domMeans := range byDomain {
		members := make([]string, 0, len(domMeans))
		for id := range domMeans {
			members = append(members, id)
		}
		sorted := SortByMean(members, domMeans)
		for i := 0; i < len(sorted); {
			j := i + 1
			for j < len(sorted) && domMeans[sorted[j]] == domMeans[sorted[i]] {
				j++
			}
			// Positions i+1..j are shared.
			pos := float64(i+1+j) / 2
			for _, id := range sorted[i:j] {
				if out[id] == nil {
					out[id] = make(map[string]float64)
				}
				out[id][dom] = pos
			}
			i = j
		}
	}
	return out
}
