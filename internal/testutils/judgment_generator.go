// Package testutils provides utilities for testing, including test data
// generators. These components are intended for internal use within the
// project's test suites and are not part of the public API.
package testutils

import (
	"fmt"
	"math/rand"

	"github.com/ahrav/go-humeval/internal/domain"
)

// Domains used by generated campaigns.
const (
	DomainNews     = "news"
	DomainSocial   = "social"
	DomainSpeech   = "speech"
	DomainLiterary = "literary"
)

// SystemSpec describes one synthetic system: its true mean quality.
type SystemSpec struct {
	ID   string
	Mean float64
}

// CampaignConfig controls GenerateCampaign.
type CampaignConfig struct {
	// LanguagePair of every generated judgment.
	LanguagePair domain.LanguagePair

	// Systems to generate judgments for.
	Systems []SystemSpec

	// Domains to spread documents across. Defaults to news and social.
	Domains []string

	// SegmentsPerDomain is the number of segments per domain.
	SegmentsPerDomain int

	// Noise is the standard deviation of per-judgment Gaussian noise.
	// Zero yields exact system means on every segment.
	Noise float64

	// Seed makes generation reproducible.
	Seed int64
}

// GenerateCampaign creates a full paired judgment set: every system is
// judged on every segment of every domain exactly once. Segment difficulty
// varies per segment and is shared by all systems, so differences between
// systems stay paired.
func GenerateCampaign(cfg CampaignConfig) []domain.Judgment {
	rng := rand.New(rand.NewSource(cfg.Seed))
	domains := cfg.Domains
	if len(domains) == 0 {
		domains = []string{DomainNews, DomainSocial}
	}

	judgments := make([]domain.Judgment, 0, len(cfg.Systems)*len(domains)*cfg.SegmentsPerDomain)
	index := 0
	for _, dom := range domains {
		doc := fmt.Sprintf("%s_doc", dom)
		for seg := range cfg.SegmentsPerDomain {
			difficulty := 0.0
			if cfg.Noise > 0 {
				difficulty = rng.NormFloat64() * cfg.Noise
			}
			key := domain.NewSegmentKey(doc, seg, cfg.LanguagePair)
			for _, sys := range cfg.Systems {
				score := sys.Mean + difficulty
				if cfg.Noise > 0 {
					score += rng.NormFloat64() * cfg.Noise
				}
				judgments = append(judgments, domain.Judgment{
					SystemID:     sys.ID,
					SegmentKey:   key,
					SegmentIndex: index,
					Document:     doc,
					Domain:       dom,
					Score:        score,
					AnnotatorID:  fmt.Sprintf("rater%d", seg%3),
					Wave:         "synthetic",
					LanguagePair: cfg.LanguagePair,
					Protocol:     domain.ProtocolESA,
				})
			}
			index++
		}
	}
	return judgments
}

// BuildDataset freezes judgments of a single language pair into a Dataset.
// It panics on invalid input since generated data is always well formed.
func BuildDataset(lp domain.LanguagePair, judgments []domain.Judgment) *domain.Dataset {
	b := domain.NewDatasetBuilder(lp)
	for _, j := range judgments {
		if err := b.Add(j); err != nil {
			panic(fmt.Sprintf("testutils: invalid generated judgment: %v", err))
		}
	}
	return b.Freeze()
}

// Campaign is a convenience wrapper around GenerateCampaign and BuildDataset.
func Campaign(cfg CampaignConfig) *domain.Dataset {
	return BuildDataset(cfg.LanguagePair, GenerateCampaign(cfg))
}

// Matrix builds a complete p-value matrix where every ordered pair gets
// the default p-value, overridden by the given entries.
func Matrix(systems []string, defaultP float64, overrides map[domain.SystemPair]float64) *domain.PValueMatrix {
	m := domain.NewPValueMatrix(systems)
	for _, a := range systems {
		for _, b := range systems {
			if a == b {
				continue
			}
			p := defaultP
			if v, ok := overrides[domain.SystemPair{A: a, B: b}]; ok {
				p = v
			}
			if err := m.Set(a, b, p); err != nil {
				panic(fmt.Sprintf("testutils: invalid matrix entry: %v", err))
			}
		}
	}
	return m
}
