package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPValueMatrix(t *testing.T) {
	m := NewPValueMatrix([]string{"a", "b", "c"})

	require.NoError(t, m.Set("a", "b", 0.01))
	require.NoError(t, m.Set("b", "a", 0.99))

	p, ok := m.Get("a", "b")
	require.True(t, ok)
	assert.Equal(t, 0.01, p)

	_, ok = m.Get("a", "c")
	assert.False(t, ok)

	assert.True(t, m.Significant("a", "b", DefaultAlpha))
	assert.False(t, m.Significant("b", "a", DefaultAlpha))
	assert.False(t, m.Significant("a", "c", DefaultAlpha), "missing entries are never significant")
	assert.False(t, m.Complete())
	assert.Equal(t, 2, m.Len())
	assert.Equal(t, []string{"a", "b", "c"}, m.Systems())

	t.Run("rejects invalid entries", func(t *testing.T) {
		assert.ErrorIs(t, m.Set("a", "a", 0.5), ErrSelfComparison)
		assert.ErrorIs(t, m.Set("a", "z", 0.5), ErrUnknownSystem)
		assert.ErrorIs(t, m.Set("z", "a", 0.5), ErrUnknownSystem)
		assert.ErrorIs(t, m.Set("a", "c", 1.5), ErrInvalidPValue)
		assert.ErrorIs(t, m.Set("a", "c", -0.1), ErrInvalidPValue)
	})

	t.Run("complete once every ordered pair is set", func(t *testing.T) {
		for _, pair := range [][2]string{{"a", "c"}, {"c", "a"}, {"b", "c"}, {"c", "b"}} {
			require.NoError(t, m.Set(pair[0], pair[1], 0.5))
		}
		assert.True(t, m.Complete())
	})
}

func TestRankInterval(t *testing.T) {
	tests := []struct {
		name  string
		r     RankInterval
		n     int
		valid bool
		str   string
	}{
		{"single place", RankInterval{1, 1}, 3, true, "1-1"},
		{"span", RankInterval{2, 5}, 5, true, "2-5"},
		{"inverted", RankInterval{3, 2}, 5, false, "3-2"},
		{"beyond n", RankInterval{1, 6}, 5, false, "1-6"},
		{"zero", RankInterval{0, 1}, 5, false, "0-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.r.Valid(tt.n))
			assert.Equal(t, tt.str, tt.r.String())
		})
	}
}

func TestExclusion(t *testing.T) {
	ex := Exclusion{LanguagePair: "en-is", Reason: ReasonLowVolume, AnnotationsPerSystem: 50, Threshold: 100}

	assert.True(t, errors.Is(ex, ErrInsufficientVolume))
	assert.Equal(t, "en-is excluded: low volume (50.0 annotations per system, need 100)", ex.Error())
}

func TestRankingTable_HumanStandings(t *testing.T) {
	table := RankingTable{Standings: []Standing{
		{SystemID: "a", HumanRanked: true, Wins: 1},
		{SystemID: "b", HumanRanked: true, Losses: 1},
		{SystemID: "auto-only", HumanRanked: false},
	}}

	human := table.HumanStandings()
	require.Len(t, human, 2)
	assert.Equal(t, "1/0", human[0].WinLoss())
	assert.Equal(t, "0/1", human[1].WinLoss())
}

func TestReport_TotalClusters(t *testing.T) {
	r := Report{Tables: []RankingTable{{Clusters: 3}, {Clusters: 2}}}
	assert.Equal(t, 5, r.TotalClusters())
}

func TestAutoRankBook_Lookup(t *testing.T) {
	score := 1.5
	book := AutoRankBook{"en-de": {{SystemID: "ONLINE-B", AutoRank: &score, Track: "closed-system"}}}

	e, ok := book.Lookup("en-de", "ONLINE-B")
	require.True(t, ok)
	assert.Equal(t, 1.5, *e.AutoRank)

	_, ok = book.Lookup("en-de", "ONLINE-A")
	assert.False(t, ok)
	_, ok = book.Lookup("ja-zh", "ONLINE-B")
	assert.False(t, ok)
}
