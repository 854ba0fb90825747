package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ahrav/go-humeval/infrastructure/autorank"
	"github.com/ahrav/go-humeval/infrastructure/normalize"
	"github.com/ahrav/go-humeval/internal/domain"
	"github.com/ahrav/go-humeval/internal/ports"
)

// Pipeline runs a configured ranking end to end: it loads every wave,
// groups judgments into per-language-pair datasets, reads the optional
// AutoRank workbook and ranks.
type Pipeline struct {
	cfg        *Config
	baseDir    string
	logger     *slog.Logger
	metrics    ports.MetricsCollector
	decorators []func(ports.SignificanceTester) ports.SignificanceTester
	rankerOpts []RankerOption
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithPipelineLogger sets the logger shared by sources and the ranker.
func WithPipelineLogger(logger *slog.Logger) PipelineOption {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithPipelineMetrics sets the metrics collector shared by the tester and
// the ranker.
func WithPipelineMetrics(metrics ports.MetricsCollector) PipelineOption {
	return func(p *Pipeline) {
		if metrics != nil {
			p.metrics = metrics
		}
	}
}

// WithTesterDecorators wraps the significance tester, innermost first.
func WithTesterDecorators(decorators ...func(ports.SignificanceTester) ports.SignificanceTester) PipelineOption {
	return func(p *Pipeline) {
		p.decorators = append(p.decorators, decorators...)
	}
}

// WithRankerOptions passes extra options to the ranker.
func WithRankerOptions(opts ...RankerOption) PipelineOption {
	return func(p *Pipeline) {
		p.rankerOpts = append(p.rankerOpts, opts...)
	}
}

// NewPipeline creates a pipeline for cfg. Relative input paths resolve
// against baseDir.
func NewPipeline(cfg *Config, baseDir string, opts ...PipelineOption) (*Pipeline, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil config", domain.ErrInvalidConfiguration)
	}
	p := &Pipeline{
		cfg:     cfg,
		baseDir: baseDir,
		logger:  slog.Default(),
		metrics: ports.NopMetrics{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Judgments loads every configured wave and returns the judgments together
// with the document catalog used to resolve them.
func (p *Pipeline) Judgments(ctx context.Context) ([]domain.Judgment, *normalize.ResourceCatalog, error) {
	sources, catalog := BuildSources(p.cfg, p.baseDir, p.logger)
	judgments, err := CollectJudgments(ctx, sources, p.cfg.Ranking.Workers)
	if err != nil {
		return nil, nil, err
	}
	p.logger.Info("judgments loaded", "sources", len(sources), "judgments", len(judgments))
	return judgments, catalog, nil
}

// Datasets loads every wave and groups the judgments by language pair.
func (p *Pipeline) Datasets(ctx context.Context) (map[domain.LanguagePair]*domain.Dataset, error) {
	judgments, _, err := p.Judgments(ctx)
	if err != nil {
		return nil, err
	}
	return domain.BuildDatasets(judgments)
}

// AutoRank reads the configured workbook. Without a configured path it
// returns an empty book.
func (p *Pipeline) AutoRank(ctx context.Context) (domain.AutoRankBook, error) {
	if p.cfg.AutoRank.Path == "" {
		return domain.AutoRankBook{}, nil
	}
	src := autorank.NewWorkbookSource(resolve(p.baseDir, p.cfg.AutoRank.Path), p.logger)
	book, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("autorank: %w", err)
	}
	return book, nil
}

// Rank loads all inputs and produces the ranking report. Human-ranked
// systems missing from the AutoRank workbook are logged together with
// likely spelling variants.
func (p *Pipeline) Rank(ctx context.Context) (*domain.Report, error) {
	datasets, err := p.Datasets(ctx)
	if err != nil {
		return nil, err
	}
	book, err := p.AutoRank(ctx)
	if err != nil {
		return nil, err
	}
	p.warnUnmatched(book, datasets)

	opts := append([]RankerOption{WithDisplayName(normalize.DisplayName)}, p.rankerOpts...)
	ranker, err := NewRankerFromConfig(p.cfg, nil, p.logger, p.metrics, p.decorators, opts...)
	if err != nil {
		return nil, err
	}
	return ranker.Rank(ctx, datasets, book)
}

func (p *Pipeline) warnUnmatched(book domain.AutoRankBook, datasets map[domain.LanguagePair]*domain.Dataset) {
	if len(book) == 0 {
		return
	}
	systems := make(map[domain.LanguagePair][]string, len(datasets))
	for lp, ds := range datasets {
		systems[lp] = ds.SystemIDs()
	}
	for _, m := range autorank.Unmatched(book, systems, autorank.DefaultMaxDistance) {
		p.logger.Warn("system has no autorank row",
			"language_pair", m.LanguagePair,
			"system", m.SystemID,
			"suggestions", m.Suggestions,
		)
	}
}
