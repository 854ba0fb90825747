package application

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/ahrav/go-humeval/infrastructure/normalize"
	"github.com/ahrav/go-humeval/internal/domain"
	"github.com/ahrav/go-humeval/internal/ports"
)

// BuildSources creates one judgment source per configured wave, ESA waves
// first, sharing a single document catalog. Relative paths are resolved
// against baseDir.
func BuildSources(cfg *Config, baseDir string, logger *slog.Logger) ([]ports.JudgmentSource, *normalize.ResourceCatalog) {
	catalog := normalize.NewResourceCatalog(resolve(baseDir, cfg.Inputs.DocumentsDir))
	sc := normalize.SourceConfig{
		Codes:   normalize.NewLanguageCodes(cfg.Inputs.Languages),
		Mapping: normalize.NewSegmentMapping(cfg.Inputs.SegmentOffset.ESA, cfg.Inputs.SegmentOffset.MQM),
		Catalog: catalog,
		Logger:  logger,
	}

	sources := make([]ports.JudgmentSource, 0, len(cfg.Inputs.ESAWaves)+len(cfg.Inputs.MQMWaves))
	for _, path := range cfg.Inputs.ESAWaves {
		sources = append(sources, normalize.NewESASource(resolve(baseDir, path), sc))
	}
	for _, w := range cfg.Inputs.MQMWaves {
		sources = append(sources, normalize.NewMQMSource(resolve(baseDir, w.Path), domain.LanguagePair(w.LanguagePair), w.Wave, sc))
	}
	return sources, catalog
}

func resolve(baseDir, path string) string {
	if baseDir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// CollectJudgments loads every source concurrently, at most workers at a
// time, and concatenates the judgments in source order. The first failing
// source cancels the others.
func CollectJudgments(ctx context.Context, sources []ports.JudgmentSource, workers int) ([]domain.Judgment, error) {
	if workers < 1 {
		workers = 1
	}
	results := make([][]domain.Judgment, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, src := range sources {
		g.Go(func() error {
			judgments, err := src.Load(gctx)
			if err != nil {
				return fmt.Errorf("wave %s: %w", src.Name(), err)
			}
			results[i] = judgments
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, r := range results {
		total += len(r)
	}
	all := make([]domain.Judgment, 0, total)
	for _, r := range results {
		all = append(all, r...)
	}
	return all, nil
}

// SplitByProtocol groups judgments by annotation protocol, keeping order.
func SplitByProtocol(judgments []domain.Judgment) map[domain.Protocol][]domain.Judgment {
	out := make(map[domain.Protocol][]domain.Judgment)
	for _, j := range judgments {
		out[j.Protocol] = append(out[j.Protocol], j)
	}
	return out
}
