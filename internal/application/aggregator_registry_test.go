package application

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-humeval/infrastructure/aggregate"
	"github.com/ahrav/go-humeval/internal/domain"
)

type constantAggregator struct{ mean float64 }

func (constantAggregator) Name() string { return "constant" }

func (c constantAggregator) Aggregate(*domain.Dataset, string) (domain.SystemScore, error) {
	return domain.SystemScore{Mean: c.mean}, nil
}

func TestAggregatorRegistry_Create(t *testing.T) {
	registry := NewAggregatorRegistry()

	tests := []struct {
		name     string
		strategy string
		wantName string
		wantErr  bool
	}{
		{name: "macro", strategy: aggregate.NameMacro, wantName: aggregate.NameMacro},
		{name: "micro", strategy: aggregate.NameMicro, wantName: aggregate.NameMicro},
		{name: "unknown", strategy: "median", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg, err := registry.Create(tt.strategy)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, agg.Name())
		})
	}
}

func TestAggregatorRegistry_Register(t *testing.T) {
	registry := NewAggregatorRegistry()

	assert.Error(t, registry.Register("", func() domain.ScoreAggregator { return constantAggregator{} }))
	assert.Error(t, registry.Register("constant", nil))

	require.NoError(t, registry.Register("constant", func() domain.ScoreAggregator { return constantAggregator{mean: 42} }))
	assert.Equal(t, []string{"constant", "macro", "micro"}, registry.SupportedNames())

	agg, err := registry.Create("constant")
	require.NoError(t, err)
	score, err := agg.Aggregate(nil, "A")
	require.NoError(t, err)
	assert.Equal(t, 42.0, score.Mean)
}

func TestAggregatorRegistry_ConfigNamesResolve(t *testing.T) {
	registry := NewAggregatorRegistry()
	for _, micro := range []bool{false, true} {
		cfg := DefaultConfig()
		cfg.Ranking.Micro = micro
		_, err := registry.Create(cfg.AggregatorName())
		assert.NoError(t, err)
	}
}
