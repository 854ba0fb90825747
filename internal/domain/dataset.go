package domain

import (
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/montanaflynn/stats"
)

// System is one translation system's frozen per-segment scores within a
// language pair. It is built once by DatasetBuilder.Freeze and must not be
// modified afterwards.
type System struct {
	// ID identifies the system.
	ID string

	scores map[SegmentKey]float64
}

// Score returns the system's score for a segment and whether it was judged.
func (s System) Score(key SegmentKey) (float64, bool) {
	v, ok := s.scores[key]
	return v, ok
}

// Len returns the number of distinct segments judged for the system.
func (s System) Len() int { return len(s.scores) }

// Segments returns the judged segment keys in sorted order.
func (s System) Segments() []SegmentKey {
	keys := make([]SegmentKey, 0, len(s.scores))
	for k := range s.scores {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// annotatedItem is one (segment, wave) item of a system. Extra raters on
// the same item do not add volume.
type annotatedItem struct {
	segment SegmentKey
	wave    string
}

// DatasetBuilder accumulates judgments for one language pair. It is not
// safe for concurrent use; call Freeze once all judgments are added.
type DatasetBuilder struct {
	lp        LanguagePair
	scores    map[string]map[SegmentKey]stats.Float64Data
	domains   map[SegmentKey]string
	items     map[string]map[annotatedItem]struct{}
	judgments int
}

// NewDatasetBuilder creates an empty builder for a language pair.
func NewDatasetBuilder(lp LanguagePair) *DatasetBuilder {
	return &DatasetBuilder{
		lp:      lp,
		scores:  make(map[string]map[SegmentKey]stats.Float64Data),
		domains: make(map[SegmentKey]string),
		items:   make(map[string]map[annotatedItem]struct{}),
	}
}

// Add records a judgment. Duplicate (system, segment) judgments are kept
// and averaged by Freeze.
func (b *DatasetBuilder) Add(j Judgment) error {
	if j.LanguagePair != b.lp {
		return NewDatasetError(b.lp, "Add", fmt.Errorf("%w: got %s", ErrLanguagePairMismatch, j.LanguagePair))
	}
	if j.SystemID == "" || j.SegmentKey == "" {
		return NewDatasetError(b.lp, "Add", fmt.Errorf("%w: system and segment key are required", ErrEmptyValue))
	}
	if math.IsNaN(j.Score) || math.IsInf(j.Score, 0) {
		return NewDatasetError(b.lp, "Add", fmt.Errorf("%w: %v for %s/%s", ErrInvalidScore, j.Score, j.SystemID, j.SegmentKey))
	}
	if known, ok := b.domains[j.SegmentKey]; ok && known != j.Domain {
		return NewDatasetError(b.lp, "Add",
			fmt.Errorf("%w: %s is %q and %q", ErrDomainConflict, j.SegmentKey, known, j.Domain))
	}
	b.domains[j.SegmentKey] = j.Domain

	perSystem, ok := b.scores[j.SystemID]
	if !ok {
		perSystem = make(map[SegmentKey]stats.Float64Data)
		b.scores[j.SystemID] = perSystem
		b.items[j.SystemID] = make(map[annotatedItem]struct{})
	}
	perSystem[j.SegmentKey] = append(perSystem[j.SegmentKey], j.Score)
	b.items[j.SystemID][annotatedItem{segment: j.SegmentKey, wave: j.Wave}] = struct{}{}
	b.judgments++
	return nil
}

// Freeze resolves duplicates to one mean score per (system, segment) and
// returns an immutable Dataset. The builder may be discarded afterwards.
func (b *DatasetBuilder) Freeze() *Dataset {
	ids := make([]string, 0, len(b.scores))
	for id := range b.scores {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	systems := make([]System, len(ids))
	index := make(map[string]int, len(ids))
	for i, id := range ids {
		frozen := make(map[SegmentKey]float64, len(b.scores[id]))
		for key, values := range b.scores[id] {
			// Add never stores an empty slice, so Mean cannot fail here.
			mean, _ := values.Mean()
			frozen[key] = mean
		}
		systems[i] = System{ID: id, scores: frozen}
		index[id] = i
	}

	domainSet := make(map[string]struct{})
	segDomains := make(map[SegmentKey]string, len(b.domains))
	for k, d := range b.domains {
		segDomains[k] = d
		domainSet[d] = struct{}{}
	}
	domains := make([]string, 0, len(domainSet))
	for d := range domainSet {
		domains = append(domains, d)
	}
	sort.Strings(domains)

	annotations := make(map[string]int, len(b.items))
	var items int
	for id, set := range b.items {
		annotations[id] = len(set)
		items += len(set)
	}

	return &Dataset{
		lp:             b.lp,
		systems:        systems,
		index:          index,
		segmentDomains: segDomains,
		domains:        domains,
		annotations:    annotations,
		items:          items,
		judgments:      b.judgments,
	}
}

// Dataset is the frozen judgment set of one language pair. All accessors
// are safe for concurrent use because nothing mutates a Dataset after Freeze.
type Dataset struct {
	lp             LanguagePair
	systems        []System
	index          map[string]int
	segmentDomains map[SegmentKey]string
	domains        []string
	annotations    map[string]int
	items          int
	judgments      int
}

// LanguagePair returns the dataset's language pair.
func (d *Dataset) LanguagePair() LanguagePair { return d.lp }

// Systems returns the systems sorted by ID. The slice is a copy.
func (d *Dataset) Systems() []System { return slices.Clone(d.systems) }

// SystemIDs returns the sorted system identifiers.
func (d *Dataset) SystemIDs() []string {
	ids := make([]string, len(d.systems))
	for i, s := range d.systems {
		ids[i] = s.ID
	}
	return ids
}

// System looks up a system by ID.
func (d *Dataset) System(id string) (System, bool) {
	i, ok := d.index[id]
	if !ok {
		return System{}, false
	}
	return d.systems[i], true
}

// Domains returns the sorted domain names present in the dataset.
func (d *Dataset) Domains() []string { return slices.Clone(d.domains) }

// DomainOf returns the domain a segment belongs to.
func (d *Dataset) DomainOf(key SegmentKey) (string, bool) {
	dom, ok := d.segmentDomains[key]
	return dom, ok
}

// Annotations returns the number of distinct (segment, wave) items annotated
// for a system. Several raters on the same item count once.
func (d *Dataset) Annotations(systemID string) int { return d.annotations[systemID] }

// AnnotationsPerSystem returns the mean number of annotated items per
// system, the volume measure used to decide whether a language pair can be
// ranked.
func (d *Dataset) AnnotationsPerSystem() float64 {
	if len(d.systems) == 0 {
		return 0
	}
	return float64(d.items) / float64(len(d.systems))
}

// Len returns the total number of raw judgments.
func (d *Dataset) Len() int { return d.judgments }

// BuildDatasets splits judgments by language pair and freezes one Dataset
// per pair.
func BuildDatasets(judgments []Judgment) (map[LanguagePair]*Dataset, error) {
	builders := make(map[LanguagePair]*DatasetBuilder)
	for _, j := range judgments {
		b, ok := builders[j.LanguagePair]
		if !ok {
			b = NewDatasetBuilder(j.LanguagePair)
			builders[j.LanguagePair] = b
		}
		if err := b.Add(j); err != nil {
			return nil, err
		}
	}

	datasets := make(map[LanguagePair]*Dataset, len(builders))
	for lp, b := range builders {
		datasets[lp] = b.Freeze()
	}
	return datasets, nil
}

// SortedLanguagePairs returns the keys of a dataset map in sorted order.
func SortedLanguagePairs(datasets map[LanguagePair]*Dataset) []LanguagePair {
	lps := make([]LanguagePair, 0, len(datasets))
	for lp := range datasets {
		lps = append(lps, lp)
	}
	slices.Sort(lps)
	return lps
}
