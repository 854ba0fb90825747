package domain

import (
	"fmt"
	"slices"
	"time"
)

// DefaultAlpha is the significance threshold used when none is configured.
const DefaultAlpha = 0.05

// SystemPair is an ordered pair of systems. The p-value stored under
// {A, B} answers "does A score higher than B".
type SystemPair struct {
	A string
	B string
}

// PValueMatrix maps ordered system pairs to p-values. It is filled once by
// a significance tester and treated as read-only afterwards; entries for a
// system against itself never exist.
type PValueMatrix struct {
	systems []string
	known   map[string]struct{}
	values  map[SystemPair]float64
}

// NewPValueMatrix creates an empty matrix over the given systems.
func NewPValueMatrix(systems []string) *PValueMatrix {
	known := make(map[string]struct{}, len(systems))
	for _, s := range systems {
		known[s] = struct{}{}
	}
	return &PValueMatrix{
		systems: slices.Clone(systems),
		known:   known,
		values:  make(map[SystemPair]float64, len(systems)*len(systems)),
	}
}

// Set stores the p-value for "a scores higher than b".
func (m *PValueMatrix) Set(a, b string, p float64) error {
	if a == b {
		return fmt.Errorf("%w: %s", ErrSelfComparison, a)
	}
	if _, ok := m.known[a]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSystem, a)
	}
	if _, ok := m.known[b]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSystem, b)
	}
	if !(p >= 0 && p <= 1) {
		return fmt.Errorf("%w: %v for %s>%s", ErrInvalidPValue, p, a, b)
	}
	m.values[SystemPair{A: a, B: b}] = p
	return nil
}

// Get returns the p-value for "a scores higher than b".
func (m *PValueMatrix) Get(a, b string) (float64, bool) {
	p, ok := m.values[SystemPair{A: a, B: b}]
	return p, ok
}

// Significant reports whether the stored p-value for (a, b) is below alpha.
// A missing entry is never significant.
func (m *PValueMatrix) Significant(a, b string, alpha float64) bool {
	p, ok := m.Get(a, b)
	return ok && p < alpha
}

// Systems returns the systems the matrix was created for.
func (m *PValueMatrix) Systems() []string { return slices.Clone(m.systems) }

// Len returns the number of stored entries.
func (m *PValueMatrix) Len() int { return len(m.values) }

// Complete reports whether every ordered pair of distinct systems has an entry.
func (m *PValueMatrix) Complete() bool {
	n := len(m.systems)
	return len(m.values) == n*(n-1)
}

// RankInterval is the range of places a system could occupy given the
// significant wins and losses observed for it.
type RankInterval struct {
	Best  int `json:"best"`
	Worst int `json:"worst"`
}

// String formats the interval as "best-worst".
func (r RankInterval) String() string { return fmt.Sprintf("%d-%d", r.Best, r.Worst) }

// Valid reports whether 1 <= Best <= Worst <= n.
func (r RankInterval) Valid(n int) bool {
	return r.Best >= 1 && r.Best <= r.Worst && r.Worst <= n
}

// Standing is one row of a language pair's ranking table.
type Standing struct {
	// SystemID identifies the system.
	SystemID string `json:"system_id"`

	// HumanRanked is false for systems that only appear in AutoRank data.
	HumanRanked bool `json:"human_ranked"`

	// Mean is the system's headline human score.
	Mean float64 `json:"mean"`

	// DomainMeans holds the mean score per domain.
	DomainMeans map[string]float64 `json:"domain_means,omitempty"`

	// DomainPositions holds the 1-based position of the system when
	// ordered by each domain mean. Systems with equal means share the
	// average of the positions they span.
	DomainPositions map[string]float64 `json:"domain_positions,omitempty"`

	// Rank is the rank interval derived from significant wins and losses.
	Rank RankInterval `json:"rank"`

	// Wins counts systems this one significantly outscored.
	Wins int `json:"wins"`

	// Losses counts systems that significantly outscored this one.
	Losses int `json:"losses"`

	// Cluster is the 1-based performance cluster.
	Cluster int `json:"cluster"`

	// AutoRank carries the merged auxiliary AutoRank row fields.
	AutoRank *float64 `json:"autorank,omitempty"`

	// Track is the AutoRank participation category.
	Track string `json:"track,omitempty"`

	// LPSupported is the AutoRank language-pair support flag.
	LPSupported string `json:"lp_supported,omitempty"`
}

// WinLoss formats wins and losses as "wins/losses".
func (s Standing) WinLoss() string { return fmt.Sprintf("%d/%d", s.Wins, s.Losses) }

// RankingTable is the ranking result of one language pair.
type RankingTable struct {
	// LanguagePair is the ranked translation direction.
	LanguagePair LanguagePair `json:"language_pair"`

	// DisplayName is the human-readable language pair name.
	DisplayName string `json:"display_name"`

	// AnnotationsPerSystem is the mean raw judgment count per system.
	AnnotationsPerSystem float64 `json:"annotations_per_system"`

	// Domains lists the domains present, sorted.
	Domains []string `json:"domains"`

	// Standings are ordered by descending mean; auxiliary-only systems follow.
	Standings []Standing `json:"standings"`

	// Clusters is the number of human-ranked clusters.
	Clusters int `json:"clusters"`

	// PValues is the pairwise matrix the ranking was derived from.
	PValues *PValueMatrix `json:"-"`
}

// HumanStandings returns only the rows ranked from human judgments.
func (t *RankingTable) HumanStandings() []Standing {
	out := make([]Standing, 0, len(t.Standings))
	for _, s := range t.Standings {
		if s.HumanRanked {
			out = append(out, s)
		}
	}
	return out
}

// ExclusionReason explains why a language pair was not ranked.
type ExclusionReason string

// ReasonLowVolume marks a language pair whose annotations per system fall
// below the configured minimum.
const ReasonLowVolume ExclusionReason = "low volume"

// Exclusion reports a language pair that was left out of the headline
// ranking.
type Exclusion struct {
	LanguagePair         LanguagePair    `json:"language_pair"`
	Reason               ExclusionReason `json:"reason"`
	AnnotationsPerSystem float64         `json:"annotations_per_system"`
	Threshold            float64         `json:"threshold"`
}

// Error lets an Exclusion travel as an error matching ErrInsufficientVolume.
func (e Exclusion) Error() string {
	return fmt.Sprintf("%s excluded: %s (%.1f annotations per system, need %.0f)",
		e.LanguagePair, e.Reason, e.AnnotationsPerSystem, e.Threshold)
}

// Unwrap maps low-volume exclusions onto ErrInsufficientVolume.
func (e Exclusion) Unwrap() error {
	if e.Reason == ReasonLowVolume {
		return ErrInsufficientVolume
	}
	return nil
}

// Report is the complete output of one ranking run.
type Report struct {
	// RunID uniquely identifies the run.
	RunID string `json:"run_id"`

	// GeneratedAt records when the report was produced.
	GeneratedAt time.Time `json:"generated_at"`

	// Micro is true when flat (non domain-stratified) averaging was used.
	Micro bool `json:"micro"`

	// Tables hold the headline rankings, one per ranked language pair.
	Tables []RankingTable `json:"tables"`

	// Extended hold the headline rankings plus auxiliary-only systems,
	// including auxiliary-only tables for excluded language pairs.
	Extended []RankingTable `json:"extended"`

	// Exclusions list language pairs left out of the headline ranking.
	Exclusions []Exclusion `json:"exclusions,omitempty"`
}

// TotalClusters sums human-ranked clusters across all headline tables.
func (r *Report) TotalClusters() int {
	total := 0
	for _, t := range r.Tables {
		total += t.Clusters
	}
	return total
}
