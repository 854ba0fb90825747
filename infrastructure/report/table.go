package report

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/ahrav/go-humeval/internal/domain"
	"github.com/ahrav/go-humeval/internal/ports"
)

// TableWriter prints the headline rankings as terminal tables.
type TableWriter struct {
	out io.Writer
}

var _ ports.ReportWriter = (*TableWriter)(nil)

// NewTableWriter creates a writer printing to out.
func NewTableWriter(out io.Writer) *TableWriter {
	return &TableWriter{out: out}
}

// Format returns "table".
func (w *TableWriter) Format() string { return FormatTable }

// Write prints one table per ranked language pair followed by the list of
// excluded language pairs and the cluster total.
func (w *TableWriter) Write(ctx context.Context, report *domain.Report) error {
	for _, t := range report.Tables {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprintf(w.out, "%s; clusters: %d; annotations per system: %.1f\n",
			t.LanguagePair, t.Clusters, t.AnnotationsPerSystem)
		if err := w.render(t); err != nil {
			return fmt.Errorf("render %s: %w", t.LanguagePair, err)
		}
		fmt.Fprintln(w.out)
	}

	for _, ex := range report.Exclusions {
		fmt.Fprintf(w.out, "%s excluded: %s (%.1f annotations per system, threshold %.0f)\n",
			ex.LanguagePair, ex.Reason, ex.AnnotationsPerSystem, ex.Threshold)
	}
	_, err := fmt.Fprintf(w.out, "Total clusters: %d\n", report.TotalClusters())
	return err
}

func (w *TableWriter) render(t domain.RankingTable) error {
	headers := []string{"Cluster", "Rank", "System", "Human", "W/L", "AutoRank", "Track"}
	headers = append(headers, t.Domains...)

	table := tablewriter.NewTable(w.out,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoWrap: tw.WrapNone},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoFormat: tw.On},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
	)

	rows := make([][]string, 0, len(t.Standings))
	for _, s := range t.Standings {
		row := []string{
			strconv.Itoa(s.Cluster),
			s.Rank.String(),
			s.SystemID,
			fmt.Sprintf("%.1f", s.Mean),
			s.WinLoss(),
			formatAutoRank(s.AutoRank),
			s.Track,
		}
		for _, d := range t.Domains {
			row = append(row, formatDomainMean(s, d))
		}
		rows = append(rows, row)
	}

	table.Header(headers)
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}

func formatAutoRank(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", *v)
}

func formatDomainMean(s domain.Standing, dom string) string {
	m, ok := s.DomainMeans[dom]
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%.1f", m)
}
