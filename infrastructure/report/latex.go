package report

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"
	"text/template"

	"github.com/ahrav/go-humeval/internal/domain"
	"github.com/ahrav/go-humeval/internal/ports"
)

// LaTeX output file names.
const (
	RankingFile     = "generated_human_ranking.tex"
	ExtendedFile    = "generated_human_ranking_extended.tex"
	HeadToHeadFile  = "generated_head_to_head.tex"
	outOfOrderMark  = `$\wr$ `
	closedTrack     = "closed-system"
	openTrack       = "open-source"
	humanRefPrefix  = "ref"
	humanRefDisplay = "HUMAN-"
)

const rankingTemplate = `{{range .}}\begin{ {{- .Env -}} }
\centering
\small
{\bf {{.Title -}} }\\
\begin{tabular}{ {{- .ColumnSpec -}} }
Rank & System & Human & AutoRank{{range .Domains}} & {{title .}}{{end}} \\
\toprule
{{range .Rows}}{{if .NewCluster}}\midrule
{{end}}{{.Line}}
{{end}}\bottomrule
\end{tabular}
\end{ {{- .Env -}} }


{{end}}`

const headToHeadTemplate = `{{range .}}\begin{table*}
\centering
\small
{\bf {{.Title -}} }\\
\begin{tabular}{l|{{repeat "c" (len .Systems)}}}
{{range .Systems}} & {{.}}{{end}} \\
\midrule
{{range .Cells}}{{.Name}}{{range .Values}} & {{.}}{{end}} \\
{{end}}\bottomrule
\end{tabular}
\end{table*}


{{end}}`

var (
	rankingTmpl    = template.Must(template.New("ranking").Funcs(GetTemplateFuncMap()).Parse(rankingTemplate))
	headToHeadTmpl = template.Must(template.New("head-to-head").Funcs(GetTemplateFuncMap()).Parse(headToHeadTemplate))
)

// LaTeXWriter writes the ranking, extended ranking and head-to-head tables
// used in the findings paper. Track rows are wrapped in the \closedtrack
// and \opentrack macros and unsupported language pairs in \nonsupporting;
// the document preamble must define them.
type LaTeXWriter struct {
	opts Options
}

var _ ports.ReportWriter = (*LaTeXWriter)(nil)

// NewLaTeXWriter creates a LaTeX writer.
func NewLaTeXWriter(opts Options) *LaTeXWriter {
	return &LaTeXWriter{opts: opts.withDefaults()}
}

// Format returns "latex".
func (w *LaTeXWriter) Format() string { return FormatLaTeX }

// Write renders the three LaTeX files.
func (w *LaTeXWriter) Write(ctx context.Context, report *domain.Report) error {
	files := []struct {
		name   string
		render func(io.Writer) error
	}{
		{RankingFile, func(out io.Writer) error { return WriteRankingLaTeX(out, report.Tables, false) }},
		{ExtendedFile, func(out io.Writer) error { return WriteRankingLaTeX(out, report.Extended, true) }},
		{HeadToHeadFile, func(out io.Writer) error { return WriteHeadToHeadLaTeX(out, report.Tables) }},
	}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := emit(w.opts, f.name, f.render); err != nil {
			return err
		}
	}
	return nil
}

type latexTable struct {
	Env        string
	Title      string
	ColumnSpec string
	Domains    []string
	Rows       []latexRow
}

type latexRow struct {
	NewCluster bool
	Line       string
}

// WriteRankingLaTeX renders one tabular per table. Extended tables add a
// column per domain and mark domain scores higher than the one in the row
// above with $\wr$.
func WriteRankingLaTeX(out io.Writer, tables []domain.RankingTable, extended bool) error {
	views := make([]latexTable, 0, len(tables))
	for _, t := range tables {
		views = append(views, rankingView(t, extended))
	}
	if err := rankingTmpl.Execute(out, views); err != nil {
		return fmt.Errorf("render ranking latex: %w", err)
	}
	return nil
}

func rankingView(t domain.RankingTable, extended bool) latexTable {
	view := latexTable{
		Env:        "table",
		Title:      rankingTitle(t),
		ColumnSpec: "clcc",
	}
	if extended {
		view.Env = "table*"
		view.Domains = t.Domains
		view.ColumnSpec += "|" + strings.Repeat("r", len(t.Domains))
	}

	lastCluster := 1
	lastDomain := make(map[string]float64, len(view.Domains))
	for _, s := range t.Standings {
		row := latexRow{Line: rankingLine(s, view.Domains, lastDomain)}
		if s.Cluster > lastCluster {
			row.NewCluster = true
			lastCluster = s.Cluster
		}
		view.Rows = append(view.Rows, row)
	}
	return view
}

func rankingLine(s domain.Standing, domains []string, lastDomain map[string]float64) string {
	rank, human := "", math.NaN()
	if s.HumanRanked {
		rank, human = s.Rank.String(), s.Mean
	}
	autoRank := math.NaN()
	if s.AutoRank != nil {
		autoRank = *s.AutoRank
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s & %s & %s & %s", rank, systemName(s), fmt1(human), fmt1(autoRank))
	for _, d := range domains {
		v, ok := s.DomainMeans[d]
		if !ok {
			b.WriteString(" & -")
			continue
		}
		mark := ""
		if prev, seen := lastDomain[d]; seen && prev < v {
			mark = outOfOrderMark
		}
		lastDomain[d] = v
		fmt.Fprintf(&b, " & %s%s", mark, fmt1(v))
	}

	switch s.Track {
	case closedTrack:
		return `\closedtrack{` + b.String() + `} \\`
	case openTrack:
		return `\opentrack{` + b.String() + `} \\`
	}
	return b.String() + ` \\`
}

// systemName renders reference translations as HUMAN-<id> and wraps
// systems without language-pair support in \nonsupporting.
func systemName(s domain.Standing) string {
	name := s.SystemID
	if rest, ok := strings.CutPrefix(name, humanRefPrefix); ok {
		name = humanRefDisplay + rest
	}
	name = latexEscape(name)
	if strings.EqualFold(s.LPSupported, "no") {
		name = `\nonsupporting{` + name + `}`
	}
	return name
}

// rankingTitle appends the annotation volume to the language pair title.
func rankingTitle(t domain.RankingTable) string {
	if t.AnnotationsPerSystem <= 0 {
		return tableTitle(t)
	}
	return fmt.Sprintf("%s (%.0f segments per system)", tableTitle(t), t.AnnotationsPerSystem)
}

func tableTitle(t domain.RankingTable) string {
	if t.DisplayName != "" {
		return latexEscape(t.DisplayName)
	}
	return latexEscape(t.LanguagePair.String())
}

type headToHeadTable struct {
	Title   string
	Systems []string
	Cells   []headToHeadRow
}

type headToHeadRow struct {
	Name   string
	Values []string
}

// WriteHeadToHeadLaTeX renders, per language pair, the mean difference of
// each row system over each column system. Differences carry a marker when
// the row system is significantly better: \ddag for p<0.001, \dag for
// p<0.01 and $\star$ for p<0.05.
func WriteHeadToHeadLaTeX(out io.Writer, tables []domain.RankingTable) error {
	views := make([]headToHeadTable, 0, len(tables))
	for _, t := range tables {
		views = append(views, headToHeadView(t))
	}
	if err := headToHeadTmpl.Execute(out, views); err != nil {
		return fmt.Errorf("render head-to-head latex: %w", err)
	}
	return nil
}

func headToHeadView(t domain.RankingTable) headToHeadTable {
	standings := t.HumanStandings()
	view := headToHeadTable{Title: tableTitle(t)}
	for _, s := range standings {
		view.Systems = append(view.Systems, systemName(s))
	}

	for _, row := range standings {
		cells := headToHeadRow{Name: systemName(row)}
		for _, col := range standings {
			if row.SystemID == col.SystemID {
				cells.Values = append(cells.Values, "--")
				continue
			}
			cell := fmt1(row.Mean - col.Mean)
			if t.PValues != nil {
				if p, ok := t.PValues.Get(row.SystemID, col.SystemID); ok {
					cell += significanceMarker(p)
				}
			}
			cells.Values = append(cells.Values, cell)
		}
		view.Cells = append(view.Cells, cells)
	}
	return view
}
