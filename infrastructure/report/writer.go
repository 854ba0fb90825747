// Package report renders ranking reports: terminal tables, LaTeX tables
// for the findings paper, a JSON document, and plain human-score exports.
package report

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ahrav/go-humeval/internal/domain"
	"github.com/ahrav/go-humeval/internal/ports"
)

// Supported output formats.
const (
	FormatTable  = "table"
	FormatLaTeX  = "latex"
	FormatJSON   = "json"
	FormatScores = "scores"
)

// Options configure the writers created by NewWriter.
type Options struct {
	// Dir receives file outputs. When empty, text formats go to Stdout.
	Dir string
	// Stdout receives terminal output; defaults to os.Stdout.
	Stdout io.Writer
	// Logger reports written files; defaults to slog.Default().
	Logger *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// NewWriter creates the writer for a format.
func NewWriter(format string, opts Options) (ports.ReportWriter, error) {
	opts = opts.withDefaults()
	switch format {
	case FormatTable:
		return NewTableWriter(opts.Stdout), nil
	case FormatLaTeX:
		return NewLaTeXWriter(opts), nil
	case FormatJSON:
		return NewJSONWriter(opts), nil
	case FormatScores:
		if opts.Dir == "" {
			return nil, fmt.Errorf("%w: %s output needs an output directory", domain.ErrInvalidConfiguration, format)
		}
		return NewScoresWriter(opts), nil
	}
	return nil, fmt.Errorf("%w: %q", ports.ErrUnsupportedFormat, format)
}

// NewWriters creates one writer per format, in order.
func NewWriters(formats []string, opts Options) ([]ports.ReportWriter, error) {
	writers := make([]ports.ReportWriter, 0, len(formats))
	for _, f := range formats {
		w, err := NewWriter(f, opts)
		if err != nil {
			return nil, err
		}
		writers = append(writers, w)
	}
	return writers, nil
}

// WriteAll runs every writer on the report and stops at the first error.
func WriteAll(ctx context.Context, writers []ports.ReportWriter, report *domain.Report) error {
	for _, w := range writers {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.Write(ctx, report); err != nil {
			return fmt.Errorf("%s writer: %w", w.Format(), err)
		}
	}
	return nil
}

// emit writes to dir/name, or to stdout when dir is empty.
func emit(opts Options, name string, render func(io.Writer) error) error {
	if opts.Dir == "" {
		return render(opts.Stdout)
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(opts.Dir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	bw := bufio.NewWriter(f)
	if err := render(bw); err != nil {
		f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	opts.Logger.Info("report written", "path", path)
	return nil
}
