// Package cluster merges match edges, finds connected components and
// manages cluster ids.
package cluster

import (
	"context"
	"sort"
	"strings"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// MergeEdges deduplicates parallel edges. All field-equality edges of a
// pair collapse into one bidirectional edge whose kind is the sorted,
// comma-joined set of field kinds. Directional edges keep one edge per pair
// and kind. Output follows first appearance in edges.
func MergeEdges(edges []models.Edge) []models.Edge {
	type directionalKey struct {
		pair [2]string
		kind models.MatchKind
	}

	out := make([]models.Edge, 0, len(edges))
	fieldIndex := make(map[[2]string]int)
	fieldKinds := make(map[[2]string]map[models.MatchKind]struct{})
	seen := make(map[directionalKey]struct{})

	for _, e := range edges {
		pair := e.PairKey()
		if e.Kind.IsFieldKind() {
			if _, ok := fieldIndex[pair]; !ok {
				fieldIndex[pair] = len(out)
				fieldKinds[pair] = make(map[models.MatchKind]struct{})
				out = append(out, models.Edge{Source: e.Source, Target: e.Target, Bidirectional: true})
			}
			fieldKinds[pair][e.Kind] = struct{}{}
			continue
		}

		k := directionalKey{pair: pair, kind: e.Kind}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, e)
	}

	for pair, i := range fieldIndex {
		kinds := make([]string, 0, len(fieldKinds[pair]))
		for k := range fieldKinds[pair] {
			kinds = append(kinds, string(k))
		}
		sort.Strings(kinds)
		out[i].Kind = models.MatchKind(strings.Join(kinds, ", "))
	}
	return out
}

// WithKinds keeps the merged bidirectional edges whose kind set contains
// every required kind, e.g. both Name and Adresse.
func WithKinds(merged []models.Edge, required ...models.MatchKind) []models.Edge {
	out := make([]models.Edge, 0)
	for _, e := range merged {
		if !e.Bidirectional {
			continue
		}
		kinds := make(map[string]struct{})
		for _, k := range strings.Split(string(e.Kind), ", ") {
			kinds[k] = struct{}{}
		}
		all := true
		for _, r := range required {
			if _, ok := kinds[string(r)]; !ok {
				all = false
				break
			}
		}
		if all {
			out = append(out, e)
		}
	}
	return out
}

// Options controls component enumeration
type Options struct {
	// SkipSingular drops components with fewer than 2 non-special members
	// before ids are assigned.
	SkipSingular bool
}

// FindClusters computes the undirected connected components of edges.
// Components are numbered from 1 in the order their first node appears in
// edges, and members are listed in first-appearance order. Special nodes
// stay in Nodes but are excluded from Size and never become central.
func FindClusters(edges []models.Edge, special map[string]struct{}, opts Options) []models.Cluster {
	nodes := make([]string, 0)
	position := make(map[string]int)
	neighbours := make(map[string]map[string]struct{})

	add := func(n string) {
		if _, ok := position[n]; ok {
			return
		}
		position[n] = len(nodes)
		nodes = append(nodes, n)
		neighbours[n] = make(map[string]struct{})
	}

	for _, e := range edges {
		add(e.Source)
		add(e.Target)
		if e.Source == e.Target {
			continue
		}
		neighbours[e.Source][e.Target] = struct{}{}
		neighbours[e.Target][e.Source] = struct{}{}
	}

	visited := make(map[string]bool, len(nodes))
	clusters := make([]models.Cluster, 0)

	for _, start := range nodes {
		if visited[start] {
			continue
		}

		component := []string{start}
		visited[start] = true
		for i := 0; i < len(component); i++ {
			for n := range neighbours[component[i]] {
				if !visited[n] {
					visited[n] = true
					component = append(component, n)
				}
			}
		}
		sort.Slice(component, func(i, j int) bool {
			return position[component[i]] < position[component[j]]
		})

		size := 0
		central := ""
		best := -1
		for _, n := range component {
			if _, isSpecial := special[n]; isSpecial {
				continue
			}
			size++
			if d := len(neighbours[n]); d > best {
				best = d
				central = n
			}
		}

		if opts.SkipSingular && size < 2 {
			continue
		}

		clusters = append(clusters, models.Cluster{
			ID:          models.NewClusterID(len(clusters) + 1),
			Nodes:       component,
			Size:        size,
			CentralNode: central,
		})
	}
	return clusters
}

// Assignment maps every non-special node to its cluster id
func Assignment(clusters []models.Cluster, special map[string]struct{}) map[string]models.ClusterID {
	out := make(map[string]models.ClusterID)
	for _, c := range clusters {
		for _, n := range c.Nodes {
			if _, isSpecial := special[n]; isSpecial {
				continue
			}
			out[n] = c.ID
		}
	}
	return out
}

// Renumber maps ids onto 1..k in order of first appearance, so 3,3,1,1,2,2
// becomes 1,1,2,2,3,3.
func Renumber(ids []int) []int {
	mapping := make(map[int]int)
	out := make([]int, len(ids))
	for i, id := range ids {
		n, ok := mapping[id]
		if !ok {
			n = len(mapping) + 1
			mapping[id] = n
		}
		out[i] = n
	}
	return out
}

// RenumberAlphanumeric dense-ranks the numeric part of subdivided ids and
// keeps their suffix, so 4_a,4_b,9_a becomes 1_a,1_b,2_a. Positions are
// preserved; ClusterID.Less gives the (number, suffix) order.
func RenumberAlphanumeric(ids []models.ClusterID) []models.ClusterID {
	distinct := make([]int, 0)
	seen := make(map[int]struct{})
	for _, id := range ids {
		if _, ok := seen[id.Num]; !ok {
			seen[id.Num] = struct{}{}
			distinct = append(distinct, id.Num)
		}
	}
	sort.Ints(distinct)

	rank := make(map[int]int, len(distinct))
	for i, n := range distinct {
		rank[n] = i + 1
	}

	out := make([]models.ClusterID, len(ids))
	for i, id := range ids {
		out[i] = models.ClusterID{Num: rank[id.Num], Suffix: id.Suffix}
	}
	return out
}

// Suffix returns the i-th subdivision suffix: a..z, then aa..zz and so on
func Suffix(i int) string {
	var b []byte
	for n := i + 1; n > 0; n = (n - 1) / 26 {
		b = append([]byte{byte('a' + (n-1)%26)}, b...)
	}
	return string(b)
}

// Engine runs the merge and component stages of a run
type Engine struct {
	logger ectologger.Logger
}

// NewEngine creates a new Engine
func NewEngine(logger ectologger.Logger) *Engine {
	return &Engine{logger: logger}
}

// Resolve merges edges and returns the clusters and the node assignment
func (e *Engine) Resolve(ctx context.Context, edges []models.Edge, special map[string]struct{}, opts Options) ([]models.Edge, []models.Cluster, map[string]models.ClusterID) {
	ctx, span := tracing.StartSpan(ctx, "cluster.Engine.Resolve")
	defer span.End()

	merged := MergeEdges(edges)
	clusters := FindClusters(merged, special, opts)
	assignment := Assignment(clusters, special)

	e.logger.WithContext(ctx).WithFields(map[string]any{
		"edges":         len(edges),
		"merged_edges":  len(merged),
		"clusters":      len(clusters),
		"skip_singular": opts.SkipSingular,
	}).Info("Resolved clusters")

	return merged, clusters, assignment
}
