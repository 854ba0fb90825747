// Package domain contains pure, dependency-free domain models and types
// for the human-evaluation ranking engine.
package domain

import (
	"fmt"
	"strings"
)

// LanguagePair identifies a translation direction as "<source>-<target>"
// using two-letter language codes, for example "en-de".
type LanguagePair string

// NewLanguagePair joins a source and target language code.
func NewLanguagePair(source, target string) LanguagePair {
	return LanguagePair(source + "-" + target)
}

// Source returns the source language code, or the whole value if the
// pair is malformed.
func (lp LanguagePair) Source() string {
	src, _, _ := strings.Cut(string(lp), "-")
	return src
}

// Target returns the target language code, or an empty string if the
// pair is malformed.
func (lp LanguagePair) Target() string {
	_, tgt, _ := strings.Cut(string(lp), "-")
	return tgt
}

// String implements fmt.Stringer.
func (lp LanguagePair) String() string { return string(lp) }

// SegmentKey is the document+segment+language-pair composite that
// identifies one source segment. It is unique within a language pair and
// is the join key between systems during pairwise testing.
type SegmentKey string

// NewSegmentKey builds the composite key for a segment.
func NewSegmentKey(document string, segment int, lp LanguagePair) SegmentKey {
	return SegmentKey(fmt.Sprintf("%s-%d-%s", document, segment, lp))
}

// Protocol names the annotation protocol a judgment was collected with.
type Protocol string

// Supported annotation protocols.
const (
	// ProtocolESA is segment-level direct scoring with error span hints.
	ProtocolESA Protocol = "esa"

	// ProtocolMQM is error-span annotation with severity weights.
	ProtocolMQM Protocol = "mqm"
)

// Judgment is one normalized human score for one system output segment.
// Judgments are produced by the wave normalizers and consumed by the
// ranking core; every wave format is reduced to this shape.
type Judgment struct {
	// SystemID identifies the translation system that produced the output.
	SystemID string `json:"system_id"`

	// SegmentKey identifies the judged source segment.
	SegmentKey SegmentKey `json:"segment_key"`

	// SegmentIndex is the normalized zero-based segment position inside
	// the language pair's source file.
	SegmentIndex int `json:"segment_index"`

	// Document is the source document the segment belongs to.
	Document string `json:"document"`

	// Domain is the coarse topical category of the document.
	Domain string `json:"domain"`

	// Score is the human score; higher is better for every protocol.
	Score float64 `json:"score"`

	// AnnotatorID identifies the human rater.
	AnnotatorID string `json:"annotator_id"`

	// Wave identifies the annotation campaign the judgment came from.
	Wave string `json:"wave"`

	// LanguagePair is the translation direction of the segment.
	LanguagePair LanguagePair `json:"language_pair"`

	// Protocol is the annotation protocol the judgment was collected with.
	Protocol Protocol `json:"protocol"`
}

// AutoRankEntry is one externally computed automatic-metric row for a
// system. It is auxiliary data merged into human rankings, never produced
// by this engine.
type AutoRankEntry struct {
	// SystemID is the system name with any trailing annotation removed.
	SystemID string `json:"system_id"`

	// AutoRank is the automatic rank score; nil when the sheet leaves it blank.
	AutoRank *float64 `json:"autorank,omitempty"`

	// Track is the participation category, e.g. "open-source" or "closed-system".
	Track string `json:"track,omitempty"`

	// LPSupported records whether the system claims support for the pair.
	LPSupported string `json:"lp_supported,omitempty"`
}

// AutoRankBook holds auxiliary AutoRank rows per language pair, in the
// order the source listed them.
type AutoRankBook map[LanguagePair][]AutoRankEntry

// Lookup finds the AutoRank row for a system in a language pair.
func (b AutoRankBook) Lookup(lp LanguagePair, systemID string) (AutoRankEntry, bool) {
	for _, e := range b[lp] {
		if e.SystemID == systemID {
			return e, true
		}
	}
	return AutoRankEntry{}, false
}
