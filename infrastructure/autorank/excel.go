// Package autorank reads the auxiliary AutoRank workbook: one sheet per
// language pair listing automatic-metric ranks for submitted systems. The
// rows are merged into human rankings but never influence them.
package autorank

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ahrav/go-humeval/internal/domain"
	"github.com/ahrav/go-humeval/internal/ports"
)

// Workbook column headers. The system name is always the first column and
// has no header.
const (
	ColumnAutoRank    = "AutoRank"
	ColumnType        = "type"
	ColumnLPSupported = "lp_supported"
)

// ErrMissingColumn indicates a language pair sheet without an AutoRank
// column.
var ErrMissingColumn = errors.New("missing AutoRank column")

// WorkbookSource reads an AutoRank .xlsx workbook from disk.
type WorkbookSource struct {
	path   string
	logger *slog.Logger
}

var _ ports.AutoRankSource = (*WorkbookSource)(nil)

// NewWorkbookSource creates a source for the workbook at path.
func NewWorkbookSource(path string, logger *slog.Logger) *WorkbookSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkbookSource{path: filepath.Clean(path), logger: logger}
}

// Load opens the workbook and reads every language pair sheet.
func (s *WorkbookSource) Load(ctx context.Context) (domain.AutoRankBook, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, ports.NewDataError(s.path, 0, fmt.Errorf("%w: %w", ports.ErrSourceUnavailable, err))
	}
	defer f.Close()
	return readBook(ctx, f, s.path, s.logger)
}

// ReadWorkbook reads an AutoRank workbook from r. source names the input
// in errors.
func ReadWorkbook(ctx context.Context, r io.Reader, source string, logger *slog.Logger) (domain.AutoRankBook, error) {
	if logger == nil {
		logger = slog.Default()
	}
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, ports.NewDataError(source, 0, fmt.Errorf("%w: %w", ports.ErrSourceUnavailable, err))
	}
	defer f.Close()
	return readBook(ctx, f, source, logger)
}

func readBook(ctx context.Context, f *excelize.File, source string, logger *slog.Logger) (domain.AutoRankBook, error) {
	book := make(domain.AutoRankBook)
	for _, sheet := range f.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		lp := domain.LanguagePair(strings.TrimSpace(sheet))
		if lp.Source() == "" || lp.Target() == "" {
			logger.Warn("skipping autorank sheet that is not a language pair", "source", source, "sheet", sheet)
			continue
		}

		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, ports.NewDataError(source+":"+sheet, 0, err)
		}
		entries, err := parseSheet(rows, source+":"+sheet)
		if err != nil {
			return nil, err
		}
		book[lp] = entries
		logger.Debug("autorank sheet loaded", "language_pair", lp, "systems", len(entries))
	}
	return book, nil
}

// parseSheet converts sheet rows, header first, into entries in sheet
// order. System names keep only the text before the first space; the rest
// is annotation. Rows without a name are skipped.
func parseSheet(rows [][]string, source string) ([]domain.AutoRankEntry, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	cols := map[string]int{ColumnAutoRank: -1, ColumnType: -1, ColumnLPSupported: -1}
	for i, name := range rows[0] {
		if _, ok := cols[strings.TrimSpace(name)]; ok && i > 0 {
			cols[strings.TrimSpace(name)] = i
		}
	}
	if cols[ColumnAutoRank] < 0 {
		return nil, ports.NewDataError(source, 1, ErrMissingColumn)
	}

	cell := func(row []string, col int) string {
		if col < 0 || col >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[col])
	}

	entries := make([]domain.AutoRankEntry, 0, len(rows)-1)
	for i, row := range rows[1:] {
		name, _, _ := strings.Cut(cell(row, 0), " ")
		if name == "" {
			continue
		}
		entry := domain.AutoRankEntry{
			SystemID:    name,
			Track:       cell(row, cols[ColumnType]),
			LPSupported: cell(row, cols[ColumnLPSupported]),
		}
		if raw := cell(row, cols[ColumnAutoRank]); raw != "" {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, ports.NewDataError(source, i+2,
					fmt.Errorf("%w: AutoRank %q for %s", ports.ErrMalformedRecord, raw, name))
			}
			entry.AutoRank = &v
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
