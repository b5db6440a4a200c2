// Package master flags the canonical record of every cluster.
package master

import (
	"sort"

	"github.com/Ramsey-B/clover/pkg/models"
)

// Less orders members by score descending, then newest first, then by
// reference id so that ties never depend on input order.
func Less(a, b *models.Member) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if !a.Record.CreatedAt.Equal(b.Record.CreatedAt) {
		return a.Record.CreatedAt.After(b.Record.CreatedAt)
	}
	return a.Record.ReferenceID < b.Record.ReferenceID
}

// Select sets Master on exactly one member per cluster, the first by Less.
// Member order is left unchanged.
func Select(members []*models.Member) {
	order, groups := models.GroupByCluster(members)
	for _, id := range order {
		group := groups[id]
		best := group[0]
		for _, m := range group {
			m.Master = false
			if Less(m, best) {
				best = m
			}
		}
		best.Master = true
	}
}

// SortByCluster orders members by cluster id with the master first and
// the rest by Less.
func SortByCluster(members []*models.Member) {
	sort.SliceStable(members, func(i, j int) bool {
		a, b := members[i], members[j]
		if a.ClusterID != b.ClusterID {
			return a.ClusterID.Less(b.ClusterID)
		}
		if a.Master != b.Master {
			return a.Master
		}
		return Less(a, b)
	})
}
