package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ClusterID identifies a cluster. Subdivided clusters carry a letter
// suffix and render as "<num>_<suffix>".
type ClusterID struct {
	Num    int
	Suffix string
}

// NewClusterID returns a plain numeric cluster id
func NewClusterID(num int) ClusterID {
	return ClusterID{Num: num}
}

// WithSuffix returns the subdivided id "<num>_<suffix>"
func (c ClusterID) WithSuffix(suffix string) ClusterID {
	return ClusterID{Num: c.Num, Suffix: suffix}
}

func (c ClusterID) String() string {
	if c.Suffix == "" {
		return strconv.Itoa(c.Num)
	}
	return fmt.Sprintf("%d_%s", c.Num, c.Suffix)
}

// Less orders ids by number then suffix
func (c ClusterID) Less(o ClusterID) bool {
	if c.Num != o.Num {
		return c.Num < o.Num
	}
	if len(c.Suffix) != len(o.Suffix) {
		return len(c.Suffix) < len(o.Suffix)
	}
	return c.Suffix < o.Suffix
}

// ParseClusterID parses "12" or "12_b"
func ParseClusterID(s string) (ClusterID, error) {
	num, suffix, _ := strings.Cut(s, "_")
	n, err := strconv.Atoi(num)
	if err != nil {
		return ClusterID{}, fmt.Errorf("invalid cluster id %q: %w", s, err)
	}
	return ClusterID{Num: n, Suffix: suffix}, nil
}

func (c ClusterID) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *ClusterID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseClusterID(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Cluster is a connected component of the merged match graph
type Cluster struct {
	ID          ClusterID `json:"cluster_id"`
	Nodes       []string  `json:"nodes"`
	Size        int       `json:"cluster_size"`
	CentralNode string    `json:"central_node,omitempty"`
}

// Member is a record placed in a cluster together with its ranking
type Member struct {
	Record       *Record   `json:"record"`
	ClusterID    ClusterID `json:"cluster_id"`
	Score        int       `json:"score"`
	ScoreDetails string    `json:"score_details,omitempty"`
	Master       bool      `json:"master"`
}

// GroupByCluster groups members by cluster id, preserving first-appearance
// order of the clusters and the member order within each cluster.
func GroupByCluster(members []*Member) ([]ClusterID, map[ClusterID][]*Member) {
	order := make([]ClusterID, 0)
	groups := make(map[ClusterID][]*Member)
	for _, m := range members {
		if _, ok := groups[m.ClusterID]; !ok {
			order = append(order, m.ClusterID)
		}
		groups[m.ClusterID] = append(groups[m.ClusterID], m)
	}
	return order, groups
}
