package application

import (
	"github.com/ahrav/go-humeval/internal/domain"
)

// AssignClusters groups systems, given in descending score order, into
// contiguous 1-based clusters.
//
// The walk keeps extendUntil, the furthest position reachable from the open
// cluster through a pair that is not significantly different
// (matrix[(higher, lower)] >= alpha or missing). A new cluster starts only
// when the walk moves past extendUntil, so two systems share a cluster
// whenever a chain of indistinguishable pairs connects them, even across
// non-adjacent positions. A single system forms cluster 1.
//
// Returns the cluster per system and the number of clusters.
func AssignClusters(sorted []string, matrix *domain.PValueMatrix, alpha float64) (map[string]int, int) {
	clusters := make(map[string]int, len(sorted))
	if len(sorted) == 0 {
		return clusters, 0
	}

	cluster := 1
	extendUntil := 0
	for i, sys := range sorted {
		if i > extendUntil {
			cluster++
		}
		for j := i + 1; j < len(sorted); j++ {
			if !matrix.Significant(sys, sorted[j], alpha) && j > extendUntil {
				extendUntil = j
			}
		}
		clusters[sys] = cluster
	}
	return clusters, cluster
}
