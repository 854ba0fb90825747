package domain

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func judgment(system string, seg int, dom string, score float64) Judgment {
	return Judgment{
		SystemID:     system,
		SegmentKey:   NewSegmentKey("doc"+dom, seg, "en-de"),
		SegmentIndex: seg,
		Document:     "doc" + dom,
		Domain:       dom,
		Score:        score,
		AnnotatorID:  "rater1",
		Wave:         "wave0",
		LanguagePair: "en-de",
		Protocol:     ProtocolESA,
	}
}

func TestLanguagePair(t *testing.T) {
	lp := NewLanguagePair("cs", "uk")
	assert.Equal(t, LanguagePair("cs-uk"), lp)
	assert.Equal(t, "cs", lp.Source())
	assert.Equal(t, "uk", lp.Target())
	assert.Equal(t, "cs-uk", lp.String())

	malformed := LanguagePair("english")
	assert.Equal(t, "english", malformed.Source())
	assert.Equal(t, "", malformed.Target())
}

func TestDataset_AnnotationVolume(t *testing.T) {
	tests := []struct {
		name      string
		raters    []string
		waves     []string
		wantItems int
	}{
		{name: "single rater", raters: []string{"rater1"}, waves: []string{"wave0"}, wantItems: 60},
		{name: "two raters per item", raters: []string{"rater1", "rater2"}, waves: []string{"wave0"}, wantItems: 60},
		{name: "same items in two waves", raters: []string{"rater1"}, waves: []string{"wave0", "wave1"}, wantItems: 120},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewDatasetBuilder("en-de")
			for _, system := range []string{"sysA", "sysB", "sysC"} {
				for seg := range 60 {
					for _, wave := range tt.waves {
						for _, rater := range tt.raters {
							j := judgment(system, seg, "news", float64(50+seg))
							j.AnnotatorID = rater
							j.Wave = wave
							require.NoError(t, b.Add(j))
						}
					}
				}
			}

			ds := b.Freeze()
			total := 3 * 60 * len(tt.raters) * len(tt.waves)
			assert.Equal(t, total, ds.Len())
			assert.Equal(t, tt.wantItems, ds.Annotations("sysA"))
			assert.InDelta(t, float64(tt.wantItems), ds.AnnotationsPerSystem(), 1e-12)

			sysA, ok := ds.System("sysA")
			require.True(t, ok)
			assert.Equal(t, 60, sysA.Len())
		})
	}
}

func TestNewSegmentKey(t *testing.T) {
	assert.Equal(t, SegmentKey("news_1-12-en-de"), NewSegmentKey("news_1", 12, "en-de"))
}

func TestDatasetBuilder_Freeze(t *testing.T) {
	b := NewDatasetBuilder("en-de")
	require.NoError(t, b.Add(judgment("sysB", 1, "news", 80)))
	require.NoError(t, b.Add(judgment("sysB", 1, "news", 90)))
	require.NoError(t, b.Add(judgment("sysA", 1, "news", 70)))
	require.NoError(t, b.Add(judgment("sysA", 2, "social", 60)))

	ds := b.Freeze()

	assert.Equal(t, LanguagePair("en-de"), ds.LanguagePair())
	assert.Equal(t, []string{"sysA", "sysB"}, ds.SystemIDs())
	assert.Equal(t, []string{"news", "social"}, ds.Domains())
	assert.Equal(t, 4, ds.Len())
	assert.Equal(t, 1, ds.Annotations("sysB"), "repeated item counts once")
	assert.InDelta(t, 1.5, ds.AnnotationsPerSystem(), 1e-12)

	sysB, ok := ds.System("sysB")
	require.True(t, ok)
	assert.Equal(t, 1, sysB.Len(), "duplicate judgments collapse to one segment")
	score, ok := sysB.Score(NewSegmentKey("docnews", 1, "en-de"))
	require.True(t, ok)
	assert.InDelta(t, 85.0, score, 1e-12)

	sysA, ok := ds.System("sysA")
	require.True(t, ok)
	assert.Equal(t, []SegmentKey{
		NewSegmentKey("docnews", 1, "en-de"),
		NewSegmentKey("docsocial", 2, "en-de"),
	}, sysA.Segments())

	dom, ok := ds.DomainOf(NewSegmentKey("docsocial", 2, "en-de"))
	require.True(t, ok)
	assert.Equal(t, "social", dom)

	_, ok = ds.System("missing")
	assert.False(t, ok)
}

func TestDatasetBuilder_Add_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(j *Judgment)
		wantErr error
	}{
		{
			name:    "wrong language pair",
			mutate:  func(j *Judgment) { j.LanguagePair = "ja-zh" },
			wantErr: ErrLanguagePairMismatch,
		},
		{
			name:    "missing system",
			mutate:  func(j *Judgment) { j.SystemID = "" },
			wantErr: ErrEmptyValue,
		},
		{
			name:    "nan score",
			mutate:  func(j *Judgment) { j.Score = math.NaN() },
			wantErr: ErrInvalidScore,
		},
		{
			name:    "infinite score",
			mutate:  func(j *Judgment) { j.Score = math.Inf(1) },
			wantErr: ErrInvalidScore,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewDatasetBuilder("en-de")
			j := judgment("sysA", 1, "news", 50)
			tt.mutate(&j)

			err := b.Add(j)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)

			var dsErr *DatasetError
			assert.True(t, errors.As(err, &dsErr))
		})
	}

	t.Run("segment in two domains", func(t *testing.T) {
		b := NewDatasetBuilder("en-de")
		first := judgment("sysA", 1, "news", 50)
		second := first
		second.SystemID = "sysB"
		second.Domain = "speech"

		require.NoError(t, b.Add(first))
		err := b.Add(second)
		assert.ErrorIs(t, err, ErrDomainConflict)
	})
}

func TestBuildDatasets(t *testing.T) {
	jde := judgment("sysA", 1, "news", 50)
	jzh := judgment("sysA", 1, "news", 40)
	jzh.LanguagePair = "ja-zh"
	jzh.SegmentKey = NewSegmentKey("docnews", 1, "ja-zh")

	datasets, err := BuildDatasets([]Judgment{jde, jzh})
	require.NoError(t, err)
	require.Len(t, datasets, 2)
	assert.Equal(t, []LanguagePair{"en-de", "ja-zh"}, SortedLanguagePairs(datasets))
	assert.Equal(t, 1, datasets["ja-zh"].Len())
}

func TestDataset_Empty(t *testing.T) {
	ds := NewDatasetBuilder("en-de").Freeze()
	assert.Zero(t, ds.AnnotationsPerSystem())
	assert.Empty(t, ds.SystemIDs())
	assert.Empty(t, ds.Domains())
}
