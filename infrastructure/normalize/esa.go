package normalize

import (
	"cmp"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/ahrav/go-humeval/internal/domain"
	"github.com/ahrav/go-humeval/internal/ports"
)

// Column layout of an ESA wave export. Files carry no header row.
const (
	esaColUser = iota
	esaColSystem
	esaColSegment
	esaColSegmentType
	esaColSourceLang
	esaColTargetLang
	esaColRating
	esaColDoc
	esaColUnused
	esaColErrorSpans
	esaColStartTime
	esaColEndTime
	esaColumns
)

// TargetSegmentType marks rows that score a translation; every other
// segment type is a quality-control item.
const TargetSegmentType = "TGT"

// Document id markers of filler items that never count towards rankings.
var qcDocMarkers = []string{"#incomplete", "#dup", "#bad"}

// ESARecord is one kept row of an ESA wave.
type ESARecord struct {
	Line         int
	UserID       string
	SystemID     string
	RawSegment   int
	LanguagePair domain.LanguagePair
	Rating       float64
	DocID        string
	EndTime      string
}

// ESAStats counts what ReadESA kept and why rows were dropped.
type ESAStats struct {
	Rows       int
	NonTarget  int
	Tutorial   int
	Filler     int
	Superseded int
	Kept       int
}

// ReadESA parses an ESA wave and applies quality-control filtering: rows
// whose segment type is not TGT, tutorial systems, and filler documents
// (#incomplete, #dup, #bad) are dropped. When one annotator scored the same
// item more than once only the latest judgment by end time is kept.
//
// Language codes are mapped for every row, so an unknown code fails the
// file even on a row that would have been filtered.
func ReadESA(r io.Reader, source string, codes *LanguageCodes) ([]ESARecord, ESAStats, error) {
	var stats ESAStats
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = esaColumns
	reader.ReuseRecord = true

	var records []ESARecord
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			line := 0
			if errors.As(err, &perr) {
				line = perr.Line
			}
			return nil, stats, ports.NewDataError(source, line, fmt.Errorf("%w: %w", ports.ErrMalformedRecord, err))
		}
		line, _ := reader.FieldPos(0)
		stats.Rows++

		lp, err := codes.Pair(row[esaColSourceLang], row[esaColTargetLang])
		if err != nil {
			return nil, stats, ports.NewDataError(source, line, err)
		}

		switch {
		case row[esaColSegmentType] != TargetSegmentType:
			stats.NonTarget++
			continue
		case strings.Contains(row[esaColSystem], "tutorial"):
			stats.Tutorial++
			continue
		case isFillerDoc(row[esaColDoc]):
			stats.Filler++
			continue
		}

		seg, err := strconv.Atoi(strings.TrimSpace(row[esaColSegment]))
		if err != nil {
			return nil, stats, ports.NewDataError(source, line,
				fmt.Errorf("%w: segment id %q", ports.ErrMalformedRecord, row[esaColSegment]))
		}
		rating, err := strconv.ParseFloat(strings.TrimSpace(row[esaColRating]), 64)
		if err != nil {
			return nil, stats, ports.NewDataError(source, line,
				fmt.Errorf("%w: rating %q", ports.ErrMalformedRecord, row[esaColRating]))
		}

		records = append(records, ESARecord{
			Line:         line,
			UserID:       row[esaColUser],
			SystemID:     row[esaColSystem],
			RawSegment:   seg,
			LanguagePair: lp,
			Rating:       rating,
			DocID:        row[esaColDoc],
			EndTime:      row[esaColEndTime],
		})
	}

	kept := LatestPerAnnotation(records)
	stats.Superseded = len(records) - len(kept)
	stats.Kept = len(kept)
	return kept, stats, nil
}

func isFillerDoc(doc string) bool {
	for _, marker := range qcDocMarkers {
		if strings.Contains(doc, marker) {
			return true
		}
	}
	return false
}

type annotationKey struct {
	user, system, doc string
	segment           int
	lp                domain.LanguagePair
}

// LatestPerAnnotation keeps, for every annotator and annotated item, the
// record with the latest end time. Ties keep the later row. The result is
// in file order.
func LatestPerAnnotation(records []ESARecord) []ESARecord {
	latest := make(map[annotationKey]int, len(records))
	for i, rec := range records {
		key := annotationKey{rec.UserID, rec.SystemID, rec.DocID, rec.RawSegment, rec.LanguagePair}
		prev, ok := latest[key]
		if !ok || compareEndTime(rec.EndTime, records[prev].EndTime) >= 0 {
			latest[key] = i
		}
	}

	idx := make([]int, 0, len(latest))
	for _, i := range latest {
		idx = append(idx, i)
	}
	slices.Sort(idx)

	out := make([]ESARecord, 0, len(idx))
	for _, i := range idx {
		out = append(out, records[i])
	}
	return out
}

// compareEndTime orders timestamps numerically when both parse and
// lexically otherwise.
func compareEndTime(a, b string) int {
	fa, errA := strconv.ParseFloat(strings.TrimSpace(a), 64)
	fb, errB := strconv.ParseFloat(strings.TrimSpace(b), 64)
	if errA == nil && errB == nil {
		return cmp.Compare(fa, fb)
	}
	return strings.Compare(a, b)
}

// SourceConfig holds what wave sources share: code table, segment mapping,
// document catalog and logger.
type SourceConfig struct {
	Codes   *LanguageCodes
	Mapping SegmentMapping
	Catalog *ResourceCatalog
	Logger  *slog.Logger
}

func (c SourceConfig) withDefaults() SourceConfig {
	if c.Codes == nil {
		c.Codes = NewLanguageCodes(nil)
	}
	if c.Mapping.Offsets == nil {
		c.Mapping = DefaultSegmentMapping()
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// ESASource reads one ESA wave file as a JudgmentSource.
type ESASource struct {
	path   string
	wave   string
	config SourceConfig
}

var _ ports.JudgmentSource = (*ESASource)(nil)

// NewESASource creates a source for the wave at path. The wave name is the
// file name.
func NewESASource(path string, config SourceConfig) *ESASource {
	return &ESASource{
		path:   filepath.Clean(path),
		wave:   filepath.Base(path),
		config: config.withDefaults(),
	}
}

// Name returns the wave name.
func (s *ESASource) Name() string { return s.wave }

// Load reads, filters and normalizes the wave. Any malformed row, unknown
// language code or segment missing from the catalog fails the whole file.
func (s *ESASource) Load(ctx context.Context) ([]domain.Judgment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path)
	if err != nil {
		return nil, ports.NewDataError(s.path, 0, fmt.Errorf("%w: %w", ports.ErrSourceUnavailable, err))
	}
	defer f.Close()

	records, stats, err := ReadESA(f, s.path, s.config.Codes)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.config.Catalog == nil {
		return nil, fmt.Errorf("%w: no document catalog for %s", domain.ErrInvalidConfiguration, s.wave)
	}

	judgments := make([]domain.Judgment, 0, len(records))
	for _, rec := range records {
		idx, err := s.config.Mapping.Index(domain.ProtocolESA, rec.RawSegment)
		if err != nil {
			return nil, ports.NewDataError(s.path, rec.Line, err)
		}
		j := domain.Judgment{
			SystemID:     rec.SystemID,
			SegmentIndex: idx,
			Score:        rec.Rating,
			AnnotatorID:  rec.UserID,
			Wave:         s.wave,
			LanguagePair: rec.LanguagePair,
			Protocol:     domain.ProtocolESA,
		}
		if err := s.config.Catalog.Attach(&j, s.config.Mapping, rec.DocID); err != nil {
			return nil, ports.NewDataError(s.path, rec.Line, err)
		}
		judgments = append(judgments, j)
	}

	s.config.Logger.Info("esa wave loaded",
		"wave", s.wave,
		"rows", stats.Rows,
		"kept", stats.Kept,
		"non_target", stats.NonTarget,
		"tutorial", stats.Tutorial,
		"filler", stats.Filler,
		"superseded", stats.Superseded,
		"segment_mapping", s.config.Mapping.Version,
	)
	return judgments, nil
}
