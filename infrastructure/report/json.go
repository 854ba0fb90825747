package report

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/ahrav/go-humeval/internal/domain"
	"github.com/ahrav/go-humeval/internal/ports"
)

// JSONFile is the name of the JSON report.
const JSONFile = "human_ranking.json"

// JSONWriter writes the whole report as one indented JSON document.
type JSONWriter struct {
	opts Options
}

var _ ports.ReportWriter = (*JSONWriter)(nil)

// NewJSONWriter creates a JSON writer.
func NewJSONWriter(opts Options) *JSONWriter {
	return &JSONWriter{opts: opts.withDefaults()}
}

// Format returns "json".
func (w *JSONWriter) Format() string { return FormatJSON }

// Write encodes the report.
func (w *JSONWriter) Write(ctx context.Context, report *domain.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return emit(w.opts, JSONFile, func(out io.Writer) error {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
		return nil
	})
}
