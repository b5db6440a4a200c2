package master

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/models"
)

var day = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func member(id string, cluster, score int, created time.Time) *models.Member {
	return &models.Member{
		Record:    &models.Record{ReferenceID: id, CreatedAt: created},
		ClusterID: models.NewClusterID(cluster),
		Score:     score,
	}
}

func masters(members []*models.Member) []string {
	out := make([]string, 0)
	for _, m := range members {
		if m.Master {
			out = append(out, m.Record.ReferenceID)
		}
	}
	return out
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name    string
		members []*models.Member
		want    []string
	}{
		{
			name: "highest score wins",
			members: []*models.Member{
				member("a", 1, 10, day),
				member("b", 1, 30, day),
				member("c", 2, 5, day),
			},
			want: []string{"b", "c"},
		},
		{
			name: "newest wins on equal score",
			members: []*models.Member{
				member("a", 1, 10, day),
				member("b", 1, 10, day.Add(time.Hour)),
			},
			want: []string{"b"},
		},
		{
			name: "reference id breaks full ties",
			members: []*models.Member{
				member("z", 1, 0, day),
				member("m", 1, 0, day),
				member("q", 1, 0, day),
			},
			want: []string{"m"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Select(tt.members)
			assert.Equal(t, tt.want, masters(tt.members))
		})
	}
}

func TestSelect_ResetsPreviousFlags(t *testing.T) {
	members := []*models.Member{member("a", 1, 1, day), member("b", 1, 2, day)}
	members[0].Master = true

	Select(members)

	assert.Equal(t, []string{"b"}, masters(members))
}

func TestSortByCluster(t *testing.T) {
	members := []*models.Member{
		member("a", 2, 1, day),
		member("b", 1, 1, day),
		member("c", 1, 9, day),
		member("d", 2, 5, day),
	}
	Select(members)
	SortByCluster(members)

	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = m.Record.ReferenceID
	}
	require.Len(t, ids, 4)
	assert.Equal(t, []string{"c", "b", "d", "a"}, ids)
}
