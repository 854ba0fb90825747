package normalize

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ahrav/go-humeval/internal/domain"
	"github.com/ahrav/go-humeval/internal/ports"
)

// Header names of the MQM columns this reader uses. Other columns are
// ignored.
const (
	mqmColRater    = "rater"
	mqmColSystem   = "system"
	mqmColSegment  = "globalSegId"
	mqmColDoc      = "doc"
	mqmColCategory = "category"
	mqmColSeverity = "severity"
)

var mqmRequired = []string{mqmColRater, mqmColSystem, mqmColSegment, mqmColDoc, mqmColCategory, mqmColSeverity}

// MQMScore is the summed MQM penalty of one rater for one system output
// segment.
type MQMScore struct {
	Line       int
	RaterID    string
	SystemID   string
	DocID      string
	RawSegment int
	Score      float64
	Errors     int
}

type mqmKey struct {
	system, doc, rater string
	segment            int
}

// ReadMQM parses a tab-separated MQM export with a header row and sums
// the weight of every annotation per (system, document, segment, rater).
// Fields are never quoted. An annotation without a defined weight fails
// the file with ErrUnknownCategoryWeight.
//
// Scores are returned in order of first appearance.
func ReadMQM(r io.Reader, source string) ([]MQMScore, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, ports.NewDataError(source, 0, err)
		}
		return nil, ports.NewDataError(source, 1, fmt.Errorf("%w: missing header", ports.ErrMalformedRecord))
	}
	header := strings.Split(strings.TrimRight(scanner.Text(), "\r"), "\t")
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	for _, name := range mqmRequired {
		if _, ok := cols[name]; !ok {
			return nil, ports.NewDataError(source, 1, fmt.Errorf("%w: missing column %q", ports.ErrMalformedRecord, name))
		}
	}

	index := make(map[mqmKey]int)
	var scores []MQMScore
	line := 1
	for scanner.Scan() {
		line++
		text := strings.TrimRight(scanner.Text(), "\r")
		if text == "" {
			continue
		}
		fields := strings.Split(text, "\t")
		if len(fields) < len(header) {
			return nil, ports.NewDataError(source, line,
				fmt.Errorf("%w: %d fields, header has %d", ports.ErrMalformedRecord, len(fields), len(header)))
		}

		seg, err := strconv.Atoi(strings.TrimSpace(fields[cols[mqmColSegment]]))
		if err != nil {
			return nil, ports.NewDataError(source, line,
				fmt.Errorf("%w: segment id %q", ports.ErrMalformedRecord, fields[cols[mqmColSegment]]))
		}
		weight, err := MQMWeight(fields[cols[mqmColSeverity]], fields[cols[mqmColCategory]])
		if err != nil {
			return nil, ports.NewDataError(source, line, err)
		}

		key := mqmKey{
			system:  fields[cols[mqmColSystem]],
			doc:     fields[cols[mqmColDoc]],
			rater:   fields[cols[mqmColRater]],
			segment: seg,
		}
		i, ok := index[key]
		if !ok {
			i = len(scores)
			index[key] = i
			scores = append(scores, MQMScore{
				Line:       line,
				RaterID:    key.rater,
				SystemID:   key.system,
				DocID:      key.doc,
				RawSegment: seg,
			})
		}
		scores[i].Score += weight
		if weight != 0 {
			scores[i].Errors++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, ports.NewDataError(source, line, err)
	}
	return scores, nil
}

// MQMSource reads one MQM wave file as a JudgmentSource. MQM files carry
// no language columns, so the language pair comes from configuration.
type MQMSource struct {
	path   string
	wave   string
	lp     domain.LanguagePair
	config SourceConfig
}

var _ ports.JudgmentSource = (*MQMSource)(nil)

// NewMQMSource creates a source for the MQM file at path annotating lp.
// An empty wave name defaults to the file name.
func NewMQMSource(path string, lp domain.LanguagePair, wave string, config SourceConfig) *MQMSource {
	if wave == "" {
		wave = filepath.Base(path)
	}
	return &MQMSource{
		path:   filepath.Clean(path),
		wave:   wave,
		lp:     lp,
		config: config.withDefaults(),
	}
}

// Name returns the wave name.
func (s *MQMSource) Name() string { return s.wave }

// Load reads the file and returns one judgment per (system, document,
// segment, rater) with the summed penalty as score.
func (s *MQMSource) Load(ctx context.Context) ([]domain.Judgment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path)
	if err != nil {
		return nil, ports.NewDataError(s.path, 0, fmt.Errorf("%w: %w", ports.ErrSourceUnavailable, err))
	}
	defer f.Close()

	scores, err := ReadMQM(f, s.path)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.config.Catalog == nil {
		return nil, fmt.Errorf("%w: no document catalog for %s", domain.ErrInvalidConfiguration, s.wave)
	}

	judgments := make([]domain.Judgment, 0, len(scores))
	for _, sc := range scores {
		idx, err := s.config.Mapping.Index(domain.ProtocolMQM, sc.RawSegment)
		if err != nil {
			return nil, ports.NewDataError(s.path, sc.Line, err)
		}
		j := domain.Judgment{
			SystemID:     sc.SystemID,
			SegmentIndex: idx,
			Score:        sc.Score,
			AnnotatorID:  sc.RaterID,
			Wave:         s.wave,
			LanguagePair: s.lp,
			Protocol:     domain.ProtocolMQM,
		}
		if err := s.config.Catalog.Attach(&j, s.config.Mapping, sc.DocID); err != nil {
			return nil, ports.NewDataError(s.path, sc.Line, err)
		}
		judgments = append(judgments, j)
	}

	s.config.Logger.Info("mqm wave loaded",
		"wave", s.wave,
		"language_pair", s.lp,
		"judgments", len(judgments),
		"segment_mapping", s.config.Mapping.Version,
	)
	return judgments, nil
}
