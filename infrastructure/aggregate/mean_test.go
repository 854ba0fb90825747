package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-humeval/internal/domain"
)

// unbalanced builds a dataset where news has three segments and social one,
// so macro and micro means differ.
func unbalanced(t *testing.T) *domain.Dataset {
	t.Helper()
	lp := domain.LanguagePair("en-de")
	b := domain.NewDatasetBuilder(lp)
	add := func(sys, dom string, seg int, score float64) {
		require.NoError(t, b.Add(domain.Judgment{
			SystemID:     sys,
			SegmentKey:   domain.NewSegmentKey(dom, seg, lp),
			Domain:       dom,
			Score:        score,
			LanguagePair: lp,
		}))
	}
	add("A", "news", 0, 90)
	add("A", "news", 1, 80)
	add("A", "news", 2, 70)
	add("A", "social", 3, 20)
	add("B", "social", 3, 50)
	return b.Freeze()
}

func TestMacroMean(t *testing.T) {
	ds := unbalanced(t)
	agg := NewMacroMean()
	assert.Equal(t, "macro", agg.Name())

	score, err := agg.Aggregate(ds, "A")
	require.NoError(t, err)
	assert.InDelta(t, 50.0, score.Mean, 1e-12)
	assert.InDelta(t, 80.0, score.DomainMeans["news"], 1e-12)
	assert.InDelta(t, 20.0, score.DomainMeans["social"], 1e-12)

	score, err = agg.Aggregate(ds, "B")
	require.NoError(t, err)
	assert.InDelta(t, 50.0, score.Mean, 1e-12)
	assert.Len(t, score.DomainMeans, 1)
}

func TestMicroMean(t *testing.T) {
	ds := unbalanced(t)
	agg := NewMicroMean()
	assert.Equal(t, "micro", agg.Name())

	score, err := agg.Aggregate(ds, "A")
	require.NoError(t, err)
	assert.InDelta(t, 65.0, score.Mean, 1e-12)
	assert.InDelta(t, 80.0, score.DomainMeans["news"], 1e-12)
}

func TestAggregate_UnknownSystem(t *testing.T) {
	ds := unbalanced(t)
	for _, agg := range []domain.ScoreAggregator{NewMacroMean(), NewMicroMean()} {
		t.Run(agg.Name(), func(t *testing.T) {
			_, err := agg.Aggregate(ds, "missing")
			assert.ErrorIs(t, err, domain.ErrUnknownSystem)
		})
	}
}
