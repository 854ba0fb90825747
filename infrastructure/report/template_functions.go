package report

import (
	"fmt"
	"math"
	"strings"
	"text/template"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Significance thresholds for head-to-head markers, strictest first.
var significanceMarkers = []struct {
	below  float64
	marker string
}{
	{0.001, `\ddag`},
	{0.01, `\dag`},
	{0.05, `$\star$`},
}

var latexEscaper = strings.NewReplacer(
	`\`, `\textbackslash{}`,
	`_`, `\_`,
	`&`, `\&`,
	`%`, `\%`,
	`$`, `\$`,
	`#`, `\#`,
	`{`, `\{`,
	`}`, `\}`,
)

// GetTemplateFuncMap returns the function map shared by the LaTeX templates.
//
// The functions are pure and safe for concurrent template execution.
//
//	tmpl := template.Must(template.New("table").Funcs(GetTemplateFuncMap()).Parse(src))
func GetTemplateFuncMap() template.FuncMap {
	title := cases.Title(language.English)

	return template.FuncMap{
		// add performs integer addition.
		// Template usage: {{add $i 1}}
		"add": func(a, b int) int {
			return a + b
		},

		// join concatenates elements with a separator.
		// Template usage: {{join .Headers " & "}}
		"join": func(elems []string, sep string) string {
			return strings.Join(elems, sep)
		},

		// repeat repeats s n times; used for tabular column specs.
		// Template usage: {{repeat "r" (len .Domains)}}
		"repeat": func(s string, n int) string {
			if n <= 0 {
				return ""
			}
			return strings.Repeat(s, n)
		},

		// escape makes a string safe for LaTeX text mode.
		// Template usage: {{escape .SystemID}}
		"escape": latexEscape,

		// fmt1 formats a score with one decimal; NaN renders as "-".
		// Template usage: {{fmt1 .Mean}}
		"fmt1": fmt1,

		// title capitalizes a domain name for column headers.
		// Template usage: {{title "speech"}}
		"title": func(s string) string {
			return title.String(s)
		},

		// marker returns the significance marker for a p-value, or "".
		// Template usage: {{marker $p}}
		"marker": significanceMarker,
	}
}

func latexEscape(s string) string {
	return latexEscaper.Replace(s)
}

func fmt1(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%.1f", v)
}

func significanceMarker(p float64) string {
	for _, m := range significanceMarkers {
		if p < m.below {
			return m.marker
		}
	}
	return ""
}
