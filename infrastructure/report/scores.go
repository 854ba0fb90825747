package report

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/ahrav/go-humeval/internal/domain"
	"github.com/ahrav/go-humeval/internal/ports"
)

// HumanLabel names score files derived from a ranking report.
const HumanLabel = "human"

// ScoreRow is one line of a score export. Domain is empty in system-level
// files.
type ScoreRow struct {
	Domain   string
	SystemID string
	Score    float64
}

// SystemScoreFile names the system-level export of one language pair.
func SystemScoreFile(lp domain.LanguagePair, label string) string {
	return fmt.Sprintf("%s.%s.sys.score", lp, label)
}

// DomainScoreFile names the domain-level export of one language pair.
func DomainScoreFile(lp domain.LanguagePair, label string) string {
	return fmt.Sprintf("%s.%s.domain.score", lp, label)
}

// WriteSystemScores writes "system<TAB>score" lines in row order.
func WriteSystemScores(out io.Writer, rows []ScoreRow) error {
	for _, r := range rows {
		if _, err := fmt.Fprintf(out, "%s\t%v\n", r.SystemID, r.Score); err != nil {
			return err
		}
	}
	return nil
}

// WriteDomainScores writes "domain<TAB>system<TAB>score" lines sorted by
// domain, then system.
func WriteDomainScores(out io.Writer, rows []ScoreRow) error {
	sorted := slices.Clone(rows)
	slices.SortStableFunc(sorted, func(a, b ScoreRow) int {
		return cmp.Or(cmp.Compare(a.Domain, b.Domain), cmp.Compare(a.SystemID, b.SystemID))
	})
	for _, r := range sorted {
		if _, err := fmt.Fprintf(out, "%s\t%s\t%v\n", r.Domain, r.SystemID, r.Score); err != nil {
			return err
		}
	}
	return nil
}

// ScoresWriter exports the human scores of every ranked language pair as
// metric-evaluation inputs.
type ScoresWriter struct {
	opts Options
}

var _ ports.ReportWriter = (*ScoresWriter)(nil)

// NewScoresWriter creates a score exporter writing into opts.Dir.
func NewScoresWriter(opts Options) *ScoresWriter {
	return &ScoresWriter{opts: opts.withDefaults()}
}

// Format returns "scores".
func (w *ScoresWriter) Format() string { return FormatScores }

// Write exports the headline means and domain means of each table.
func (w *ScoresWriter) Write(ctx context.Context, report *domain.Report) error {
	for _, t := range report.Tables {
		if err := ctx.Err(); err != nil {
			return err
		}
		sys, dom := tableScores(t)
		if err := writeScoreFiles(w.opts, t.LanguagePair, HumanLabel, sys, dom); err != nil {
			return err
		}
	}
	return nil
}

func tableScores(t domain.RankingTable) (sys, dom []ScoreRow) {
	for _, s := range t.HumanStandings() {
		sys = append(sys, ScoreRow{SystemID: s.SystemID, Score: s.Mean})
		for d, m := range s.DomainMeans {
			dom = append(dom, ScoreRow{Domain: d, SystemID: s.SystemID, Score: m})
		}
	}
	slices.SortFunc(sys, func(a, b ScoreRow) int { return cmp.Compare(a.SystemID, b.SystemID) })
	return sys, dom
}

// ExportScores writes system and domain scores computed by agg for every
// dataset, labelling files with label (typically the annotation protocol).
func ExportScores(ctx context.Context, opts Options, label string, datasets map[domain.LanguagePair]*domain.Dataset, agg domain.ScoreAggregator) error {
	opts = opts.withDefaults()
	for _, lp := range domain.SortedLanguagePairs(datasets) {
		if err := ctx.Err(); err != nil {
			return err
		}
		ds := datasets[lp]
		var sys, dom []ScoreRow
		for _, id := range ds.SystemIDs() {
			score, err := agg.Aggregate(ds, id)
			if err != nil {
				return fmt.Errorf("aggregate %s/%s: %w", lp, id, err)
			}
			sys = append(sys, ScoreRow{SystemID: id, Score: score.Mean})
			for d, m := range score.DomainMeans {
				dom = append(dom, ScoreRow{Domain: d, SystemID: id, Score: m})
			}
		}
		slices.SortFunc(sys, func(a, b ScoreRow) int { return cmp.Compare(a.SystemID, b.SystemID) })
		if err := writeScoreFiles(opts, lp, label, sys, dom); err != nil {
			return err
		}
	}
	return nil
}

func writeScoreFiles(opts Options, lp domain.LanguagePair, label string, sys, dom []ScoreRow) error {
	if err := emit(opts, SystemScoreFile(lp, label), func(out io.Writer) error {
		return WriteSystemScores(out, sys)
	}); err != nil {
		return err
	}
	return emit(opts, DomainScoreFile(lp, label), func(out io.Writer) error {
		return WriteDomainScores(out, dom)
	})
}
