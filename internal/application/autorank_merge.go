package application

import (
	"maps"
	"slices"

	"github.com/ahrav/go-humeval/internal/domain"
)

// DefaultTrack is the participation category assumed for human-ranked
// systems without an AutoRank row.
const DefaultTrack = "closed-system"

// ApplyAutoRankFields copies AutoRank, Track and LPSupported from the
// matching rows onto the table's human-ranked standings in place.
func ApplyAutoRankFields(table *domain.RankingTable, rows []domain.AutoRankEntry) {
	byID := make(map[string]domain.AutoRankEntry, len(rows))
	for _, row := range rows {
		if _, dup := byID[row.SystemID]; !dup {
			byID[row.SystemID] = row
		}
	}

	for i := range table.Standings {
		s := &table.Standings[i]
		if !s.HumanRanked {
			continue
		}
		row, ok := byID[s.SystemID]
		if !ok {
			s.Track = DefaultTrack
			continue
		}
		s.AutoRank = row.AutoRank
		s.Track = row.Track
		if s.Track == "" {
			s.Track = DefaultTrack
		}
		s.LPSupported = row.LPSupported
	}
}

// MergeAutoRank returns a copy of table extended with the AutoRank rows of
// systems that have no human standing. Those rows keep workbook order and
// share cluster Clusters+1. The input table is not modified.
func MergeAutoRank(table *domain.RankingTable, rows []domain.AutoRankEntry) *domain.RankingTable {
	out := *table
	out.Domains = slices.Clone(table.Domains)
	out.Standings = make([]domain.Standing, 0, len(table.Standings)+len(rows))
	for _, s := range table.Standings {
		s.DomainMeans = maps.Clone(s.DomainMeans)
		s.DomainPositions = maps.Clone(s.DomainPositions)
		out.Standings = append(out.Standings, s)
	}

	seen := make(map[string]struct{}, len(out.Standings))
	for _, s := range out.Standings {
		seen[s.SystemID] = struct{}{}
	}

	auxCluster := table.Clusters + 1
	for _, row := range rows {
		if _, ok := seen[row.SystemID]; ok {
			continue
		}
		seen[row.SystemID] = struct{}{}
		out.Standings = append(out.Standings, domain.Standing{
			SystemID:    row.SystemID,
			HumanRanked: false,
			AutoRank:    row.AutoRank,
			Track:       row.Track,
			LPSupported: row.LPSupported,
			Cluster:     auxCluster,
		})
	}
	return &out
}
