package normalize

import (
	"errors"
	"fmt"

	"github.com/ahrav/go-humeval/internal/domain"
)

// MappingVersion identifies the segment index convention implemented by
// DefaultSegmentMapping: ESA ids are already zero-based, MQM ids count the
// canary line, and every document catalog starts with one canary line.
const MappingVersion = "canary-v1"

// ErrSegmentOutOfRange indicates a segment id that maps before the first
// segment or past the end of the document catalog.
var ErrSegmentOutOfRange = errors.New("segment out of range")

// SegmentMapping converts raw segment ids from a wave export into
// zero-based segment indices and catalog line numbers.
type SegmentMapping struct {
	// Version names the convention; it is recorded in logs.
	Version string

	// Offsets are added to raw ids per protocol.
	Offsets map[domain.Protocol]int

	// HeaderLines is the number of catalog lines before segment 0.
	HeaderLines int
}

// DefaultSegmentMapping returns the canary-v1 convention.
func DefaultSegmentMapping() SegmentMapping {
	return NewSegmentMapping(0, -1)
}

// NewSegmentMapping creates a canary-v1 mapping with custom per-protocol
// offsets.
func NewSegmentMapping(esaOffset, mqmOffset int) SegmentMapping {
	return SegmentMapping{
		Version: MappingVersion,
		Offsets: map[domain.Protocol]int{
			domain.ProtocolESA: esaOffset,
			domain.ProtocolMQM: mqmOffset,
		},
		HeaderLines: 1,
	}
}

// Index returns the zero-based segment index for a raw id.
func (m SegmentMapping) Index(p domain.Protocol, raw int) (int, error) {
	idx := raw + m.Offsets[p]
	if idx < 0 {
		return 0, fmt.Errorf("%w: %s id %d maps to index %d (mapping %s)", ErrSegmentOutOfRange, p, raw, idx, m.Version)
	}
	return idx, nil
}

// CatalogLine returns the zero-based catalog line holding a segment index.
func (m SegmentMapping) CatalogLine(index int) int { return index + m.HeaderLines }
