package stats

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-humeval/internal/domain"
	"github.com/ahrav/go-humeval/internal/testutils"
)

// recordingMetrics counts metric calls for assertions.
type recordingMetrics struct {
	mu       sync.Mutex
	counters map[string]float64
	hists    map[string][]float64
	latency  int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{counters: map[string]float64{}, hists: map[string][]float64{}}
}

func (r *recordingMetrics) RecordLatency(string, time.Duration, map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.latency++
}

func (r *recordingMetrics) RecordCounter(metric string, value float64, _ map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters[metric] += value
}

func (r *recordingMetrics) RecordGauge(string, float64, map[string]string) {}

func (r *recordingMetrics) RecordHistogram(metric string, value float64, _ map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hists[metric] = append(r.hists[metric], value)
}

func newTester(t *testing.T, cfg TesterConfig, opts ...TesterOption) *PairwiseTester {
	t.Helper()
	tester, err := NewPairwiseTester("wilcoxon", cfg, opts...)
	require.NoError(t, err)
	return tester
}

func TestPairwiseTester_ConstantShift(t *testing.T) {
	ds := testutils.Campaign(testutils.CampaignConfig{
		LanguagePair:      "en-de",
		Systems:           []testutils.SystemSpec{{ID: "A", Mean: 71}, {ID: "B", Mean: 70}},
		Domains:           []string{testutils.DomainNews},
		SegmentsPerDomain: 100,
	})

	for _, mode := range []Mode{ModeMacro, ModeMicro} {
		t.Run(string(mode), func(t *testing.T) {
			cfg := DefaultTesterConfig()
			cfg.Mode = mode
			matrix, err := newTester(t, cfg).Test(context.Background(), ds)
			require.NoError(t, err)
			require.True(t, matrix.Complete())

			pAB, _ := matrix.Get("A", "B")
			pBA, _ := matrix.Get("B", "A")
			assert.Less(t, pAB, 1e-15)
			assert.Greater(t, pBA, 0.99)
		})
	}
}

func TestPairwiseTester_Deterministic(t *testing.T) {
	ds := testutils.Campaign(testutils.CampaignConfig{
		LanguagePair: "cs-uk",
		Systems: []testutils.SystemSpec{
			{ID: "A", Mean: 80}, {ID: "B", Mean: 78}, {ID: "C", Mean: 70}, {ID: "D", Mean: 69.5},
		},
		Domains:           []string{testutils.DomainNews, testutils.DomainSocial, testutils.DomainSpeech},
		SegmentsPerDomain: 30,
		Noise:             5,
		Seed:              7,
	})
	tester := newTester(t, DefaultTesterConfig())

	first, err := tester.Test(context.Background(), ds)
	require.NoError(t, err)
	second, err := tester.Test(context.Background(), ds)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestPairwiseTester_PValuesInRange(t *testing.T) {
	ds := testutils.Campaign(testutils.CampaignConfig{
		LanguagePair: "en-ja",
		Systems: []testutils.SystemSpec{
			{ID: "A", Mean: 60}, {ID: "B", Mean: 61}, {ID: "C", Mean: 75},
		},
		SegmentsPerDomain: 40,
		Noise:             10,
		Seed:              3,
	})

	for _, alt := range []Alternative{AlternativeGreater, AlternativeLess, AlternativeTwoSided} {
		t.Run(string(alt), func(t *testing.T) {
			cfg := DefaultTesterConfig()
			cfg.Alternative = alt
			matrix, err := newTester(t, cfg).Test(context.Background(), ds)
			require.NoError(t, err)
			require.True(t, matrix.Complete())

			ids := ds.SystemIDs()
			for _, a := range ids {
				for _, b := range ids {
					if a == b {
						continue
					}
					p, ok := matrix.Get(a, b)
					require.True(t, ok)
					assert.GreaterOrEqual(t, p, 0.0)
					assert.LessOrEqual(t, p, 1.0)
				}
			}
		})
	}
}

func TestPairwiseTester_TwoSidedIsSymmetric(t *testing.T) {
	ds := testutils.Campaign(testutils.CampaignConfig{
		LanguagePair:      "en-de",
		Systems:           []testutils.SystemSpec{{ID: "A", Mean: 60}, {ID: "B", Mean: 62}},
		SegmentsPerDomain: 25,
		Noise:             4,
		Seed:              11,
	})
	cfg := DefaultTesterConfig()
	cfg.Alternative = AlternativeTwoSided
	cfg.Mode = ModeMicro

	matrix, err := newTester(t, cfg).Test(context.Background(), ds)
	require.NoError(t, err)
	pAB, _ := matrix.Get("A", "B")
	pBA, _ := matrix.Get("B", "A")
	assert.InDelta(t, pAB, pBA, 1e-12)
}

func TestPairwiseTester_DegenerateAndGaps(t *testing.T) {
	lp := domain.LanguagePair("en-de")
	b := domain.NewDatasetBuilder(lp)
	add := func(sys, dom string, seg int, score float64) {
		require.NoError(t, b.Add(domain.Judgment{
			SystemID:     sys,
			SegmentKey:   domain.NewSegmentKey(dom+"_doc", seg, lp),
			Domain:       dom,
			Score:        score,
			LanguagePair: lp,
		}))
	}
	for seg := range 10 {
		add("same1", "news", seg, 50)
		add("same2", "news", seg, 50)
		if seg%2 == 0 {
			add("sparse", "news", seg, 90)
		}
	}
	// One segment in "speech" is too small to test and gets skipped.
	add("same1", "speech", 0, 10)
	add("same2", "speech", 0, 90)

	metrics := newRecordingMetrics()
	matrix, err := newTester(t, DefaultTesterConfig(), WithMetrics(metrics)).Test(context.Background(), b.Freeze())
	require.NoError(t, err)
	require.True(t, matrix.Complete())

	p, _ := matrix.Get("same1", "same2")
	assert.Equal(t, 1.0, p, "identical news scores and a skipped speech domain leave nothing to test")
	p, _ = matrix.Get("same2", "same1")
	assert.Equal(t, 1.0, p)

	p, _ = matrix.Get("sparse", "same1")
	assert.Less(t, p, 0.05)

	assert.Equal(t, 1, metrics.latency)
	assert.Positive(t, metrics.counters["alignment_gaps"])
	assert.Positive(t, metrics.counters["degenerate_samples"])
	assert.Positive(t, metrics.counters["skipped_domains"])
	assert.Len(t, metrics.hists["paired_segments"], 3)
}

func TestPairwiseTester_SingleSystem(t *testing.T) {
	ds := testutils.Campaign(testutils.CampaignConfig{
		LanguagePair:      "en-de",
		Systems:           []testutils.SystemSpec{{ID: "solo", Mean: 60}},
		SegmentsPerDomain: 5,
	})

	matrix, err := newTester(t, DefaultTesterConfig()).Test(context.Background(), ds)
	require.NoError(t, err)
	assert.Zero(t, matrix.Len())
	assert.True(t, matrix.Complete())
}

func TestPairwiseTester_DomainWeights(t *testing.T) {
	lp := domain.LanguagePair("en-de")
	b := domain.NewDatasetBuilder(lp)
	for seg := range 8 {
		for _, dom := range []string{"news", "social"} {
			shift := float64(seg + 1)
			if dom == "social" {
				shift = -shift
			}
			require.NoError(t, b.Add(domain.Judgment{SystemID: "A", SegmentKey: domain.NewSegmentKey(dom, seg, lp), Domain: dom, Score: 50 + shift, LanguagePair: lp}))
			require.NoError(t, b.Add(domain.Judgment{SystemID: "B", SegmentKey: domain.NewSegmentKey(dom, seg, lp), Domain: dom, Score: 50, LanguagePair: lp}))
		}
	}
	ds := b.Freeze()

	equal, err := newTester(t, DefaultTesterConfig()).Test(context.Background(), ds)
	require.NoError(t, err)
	pEqual, _ := equal.Get("A", "B")

	cfg := DefaultTesterConfig()
	cfg.DomainWeights = map[string]float64{"news": 3}
	weighted, err := newTester(t, cfg).Test(context.Background(), ds)
	require.NoError(t, err)
	pWeighted, _ := weighted.Get("A", "B")

	assert.Less(t, pWeighted, pEqual, "up-weighting the domain where A wins strengthens A>B")
}

func TestPairwiseTester_ContextCanceled(t *testing.T) {
	ds := testutils.Campaign(testutils.CampaignConfig{
		LanguagePair:      "en-de",
		Systems:           []testutils.SystemSpec{{ID: "A", Mean: 1}, {ID: "B", Mean: 2}},
		SegmentsPerDomain: 5,
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTester(t, DefaultTesterConfig()).Test(ctx, ds)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewPairwiseTester_Validation(t *testing.T) {
	_, err := NewPairwiseTester("", DefaultTesterConfig())
	assert.ErrorIs(t, err, ErrEmptyTesterName)

	tests := []struct {
		name string
		cfg  TesterConfig
	}{
		{"unknown mode", TesterConfig{Mode: "median", Alternative: AlternativeGreater}},
		{"unknown alternative", TesterConfig{Mode: ModeMacro, Alternative: "sideways"}},
		{"non-positive weight", TesterConfig{Mode: ModeMacro, Alternative: AlternativeGreater, DomainWeights: map[string]float64{"news": 0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPairwiseTester("wilcoxon", tt.cfg)
			assert.Error(t, err)
		})
	}

	tester := newTester(t, DefaultTesterConfig())
	assert.Equal(t, "wilcoxon", tester.Name())
	assert.NoError(t, tester.Validate())
	assert.Equal(t, ModeMacro, tester.Config().Mode)
}
