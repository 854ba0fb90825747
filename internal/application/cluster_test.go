package application

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ahrav/go-humeval/internal/domain"
	"github.com/ahrav/go-humeval/internal/testutils"
)

func TestAssignClusters(t *testing.T) {
	tests := []struct {
		name         string
		sorted       []string
		overrides    map[domain.SystemPair]float64
		defaultP     float64
		wantClusters map[string]int
		wantCount    int
	}{
		{
			name:         "single system",
			sorted:       []string{"A"},
			defaultP:     0.5,
			wantClusters: map[string]int{"A": 1},
			wantCount:    1,
		},
		{
			name:         "indistinguishable systems share cluster 1",
			sorted:       []string{"A", "B", "C"},
			defaultP:     0.5,
			wantClusters: map[string]int{"A": 1, "B": 1, "C": 1},
			wantCount:    1,
		},
		{
			name:         "every pair significant",
			sorted:       []string{"A", "B", "C"},
			defaultP:     0.001,
			wantClusters: map[string]int{"A": 1, "B": 2, "C": 3},
			wantCount:    3,
		},
		{
			name:     "dominant system alone",
			sorted:   []string{"A", "B", "C"},
			defaultP: 0.5,
			overrides: map[domain.SystemPair]float64{
				pair("A", "B"): 0.001,
				pair("A", "C"): 0.001,
			},
			wantClusters: map[string]int{"A": 1, "B": 2, "C": 2},
			wantCount:    2,
		},
		{
			name:     "chain through a non-adjacent pair",
			sorted:   []string{"A", "B", "C", "D"},
			defaultP: 0.001,
			overrides: map[domain.SystemPair]float64{
				// A is indistinguishable from C, which pulls B into A's cluster.
				pair("A", "C"): 0.2,
			},
			wantClusters: map[string]int{"A": 1, "B": 1, "C": 1, "D": 2},
			wantCount:    2,
		},
		{
			name:     "chain extended from inside the cluster",
			sorted:   []string{"A", "B", "C", "D"},
			defaultP: 0.001,
			overrides: map[domain.SystemPair]float64{
				pair("A", "B"): 0.3,
				pair("B", "D"): 0.3,
			},
			wantClusters: map[string]int{"A": 1, "B": 1, "C": 1, "D": 1},
			wantCount:    1,
		},
		{
			name:     "p equal to alpha keeps systems together",
			sorted:   []string{"A", "B"},
			defaultP: 0.001,
			overrides: map[domain.SystemPair]float64{
				pair("A", "B"): 0.05,
			},
			wantClusters: map[string]int{"A": 1, "B": 1},
			wantCount:    1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matrix := testutils.Matrix(tt.sorted, tt.defaultP, tt.overrides)
			got, count := AssignClusters(tt.sorted, matrix, 0.05)
			assert.Equal(t, tt.wantClusters, got)
			assert.Equal(t, tt.wantCount, count)
		})
	}
}

func TestAssignClusters_Empty(t *testing.T) {
	got, count := AssignClusters(nil, domain.NewPValueMatrix(nil), 0.05)
	assert.Empty(t, got)
	assert.Zero(t, count)
}

func TestAssignClusters_MissingEntriesJoin(t *testing.T) {
	sorted := []string{"A", "B", "C"}
	got, count := AssignClusters(sorted, domain.NewPValueMatrix(sorted), 0.05)
	assert.Equal(t, 1, count)
	assert.Equal(t, map[string]int{"A": 1, "B": 1, "C": 1}, got)
}

// TestAssignClusters_ContiguousAndMonotone checks that cluster ids start at
// 1, never decrease along the sorted order and never skip a value.
func TestAssignClusters_ContiguousAndMonotone(t *testing.T) {
	sorted := []string{"A", "B", "C", "D", "E", "F"}
	patterns := []map[domain.SystemPair]float64{
		{pair("A", "B"): 0.5, pair("C", "E"): 0.5},
		{pair("B", "F"): 0.5},
		{pair("A", "F"): 0.5},
		{pair("D", "E"): 0.5, pair("E", "F"): 0.5},
		{},
	}
	for _, overrides := range patterns {
		matrix := testutils.Matrix(sorted, 0.001, overrides)
		got, count := AssignClusters(sorted, matrix, 0.05)

		prev := 1
		assert.Equal(t, 1, got[sorted[0]])
		for _, s := range sorted[1:] {
			c := got[s]
			assert.True(t, c == prev || c == prev+1, "cluster ids must be contiguous: %v", got)
			prev = c
		}
		assert.Equal(t, prev, count)
	}
}
