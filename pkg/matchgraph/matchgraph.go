// Package matchgraph builds the candidate duplicate edges between records.
// Every edge family is produced by a pure function; the Builder only unions
// them in a fixed order so that cluster ids derived downstream stay
// reproducible.
package matchgraph

import (
	"context"
	"fmt"
	"sort"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/lookup"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Field selects the value a field-equality edge family compares
type Field struct {
	Kind  models.MatchKind
	Value func(r *models.Record) string
}

var (
	FieldPhone   = Field{Kind: models.MatchPhone, Value: func(r *models.Record) string { return r.Phone }}
	FieldEmail   = Field{Kind: models.MatchEmail, Value: func(r *models.Record) string { return r.Email }}
	FieldName    = Field{Kind: models.MatchName, Value: func(r *models.Record) string { return r.NameKey() }}
	FieldAddress = Field{Kind: models.MatchAddress, Value: func(r *models.Record) string { return r.Address }}

	// Fields is the field family in emission order
	Fields = []Field{FieldPhone, FieldEmail, FieldName, FieldAddress}
)

// EdgesFromRelations emits one directional edge per relation whose target
// is a record of the same table.
func EdgesFromRelations(records []*models.Record) []models.Edge {
	return EdgesBetween(records, records)
}

// EdgesBetween emits the relation edges of from whose target is a record in to
func EdgesBetween(from, to []*models.Record) []models.Edge {
	targets := make(map[string]struct{}, len(to))
	for _, r := range to {
		targets[r.ReferenceID] = struct{}{}
	}

	edges := make([]models.Edge, 0)
	for _, r := range from {
		for _, rel := range r.Relations {
			if rel.ObjectID == "" || rel.Kind == "" || rel.ObjectID == r.ReferenceID {
				continue
			}
			if _, ok := targets[rel.ObjectID]; !ok {
				continue
			}
			edges = append(edges, models.Edge{
				Source: r.ReferenceID,
				Target: rel.ObjectID,
				Kind:   models.MatchKind(rel.Kind),
			})
		}
	}
	return edges
}

// EdgesFromField links every pair of records sharing the same non-empty
// value of field. Each unordered pair is emitted once, the earlier record
// of the input being the source.
func EdgesFromField(records []*models.Record, field Field) []models.Edge {
	order := make([]string, 0)
	groups := make(map[string][]string)
	for _, r := range records {
		v := field.Value(r)
		if v == "" {
			continue
		}
		if _, ok := groups[v]; !ok {
			order = append(order, v)
		}
		groups[v] = append(groups[v], r.ReferenceID)
	}

	edges := make([]models.Edge, 0)
	for _, v := range order {
		ids := groups[v]
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				if ids[i] == ids[j] {
					continue
				}
				edges = append(edges, models.Edge{
					Source:        ids[i],
					Target:        ids[j],
					Kind:          field.Kind,
					Bidirectional: true,
				})
			}
		}
	}
	return edges
}

// EdgesFromFields runs EdgesFromField for the whole field family
func EdgesFromFields(records []*models.Record) []models.Edge {
	edges := make([]models.Edge, 0)
	for _, f := range Fields {
		edges = append(edges, EdgesFromField(records, f)...)
	}
	return edges
}

// RoleGroup aggregates the role rows sharing the same holders and product type
type RoleGroup struct {
	Owner                   string
	BillingRecipient        string
	CorrespondenceRecipient string
	ProductTypeID           string
	Objects                 []string
	Count                   int
}

// Holder returns the holder of role in the group
func (g RoleGroup) Holder(role models.Role) string {
	switch role {
	case models.RoleOwner:
		return g.Owner
	case models.RoleBilling:
		return g.BillingRecipient
	case models.RoleCorrespondence:
		return g.CorrespondenceRecipient
	}
	return ""
}

// NodeKey is the id of the synthetic product node of the group
func (g RoleGroup) NodeKey(typeName string) string {
	return fmt.Sprintf("%v%s\n%d", g.Objects, typeName, g.Count)
}

// GroupAssignments groups role rows by (owner, billing, correspondence,
// product type). Groups are ordered by their key.
func GroupAssignments(assignments []models.RoleAssignment) []RoleGroup {
	type key struct{ owner, billing, correspondence, productType string }

	index := make(map[key]int)
	groups := make([]RoleGroup, 0)
	for _, a := range assignments {
		k := key{a.Owner, a.BillingRecipient, a.CorrespondenceRecipient, a.ProductTypeID}
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, RoleGroup{
				Owner:                   a.Owner,
				BillingRecipient:        a.BillingRecipient,
				CorrespondenceRecipient: a.CorrespondenceRecipient,
				ProductTypeID:           a.ProductTypeID,
			})
		}
		groups[i].Objects = append(groups[i].Objects, a.ProductObject)
		groups[i].Count++
	}

	sort.SliceStable(groups, func(i, j int) bool {
		a, b := groups[i], groups[j]
		if a.Owner != b.Owner {
			return a.Owner < b.Owner
		}
		if a.BillingRecipient != b.BillingRecipient {
			return a.BillingRecipient < b.BillingRecipient
		}
		if a.CorrespondenceRecipient != b.CorrespondenceRecipient {
			return a.CorrespondenceRecipient < b.CorrespondenceRecipient
		}
		return a.ProductTypeID < b.ProductTypeID
	})
	return groups
}

// EdgesFromRoleTable synthesizes one product node per role group and links
// it to each role holder. The returned set holds the synthetic node ids,
// which never count as cluster members.
func EdgesFromRoleTable(assignments []models.RoleAssignment, lookupName lookup.Func) ([]models.Edge, map[string]struct{}) {
	special := make(map[string]struct{})
	edges := make([]models.Edge, 0)

	for _, g := range GroupAssignments(assignments) {
		typeName := g.ProductTypeID
		if lookupName != nil {
			if name, ok := lookupName(g.ProductTypeID); ok {
				typeName = name
			}
		}
		node := g.NodeKey(typeName)
		special[node] = struct{}{}

		for _, role := range models.Roles {
			holder := g.Holder(role)
			if holder == "" {
				continue
			}
			edges = append(edges, models.Edge{
				Source: node,
				Target: holder,
				Kind:   models.MatchKind(role),
			})
		}
	}
	return edges, special
}

// Input holds the tables the match graph is built from
type Input struct {
	Organizations []*models.Record
	Individuals   []*models.Record
	Assignments   []models.RoleAssignment
}

// Graph is the raw, unmerged match graph
type Graph struct {
	Edges   []models.Edge
	Special map[string]struct{}
}

// Builder unions the edge families of a run
type Builder struct {
	logger ectologger.Logger
	lookup lookup.Func
}

// NewBuilder creates a new Builder resolving product type names through lookupName
func NewBuilder(logger ectologger.Logger, lookupName lookup.Func) *Builder {
	return &Builder{logger: logger, lookup: lookupName}
}

// Build emits, in order: organization relation and field edges, individual
// relation and field edges, role edges and individual-to-organization
// relation edges.
func (b *Builder) Build(ctx context.Context, in Input) Graph {
	ctx, span := tracing.StartSpan(ctx, "matchgraph.Builder.Build")
	defer span.End()

	orgRelations := EdgesFromRelations(in.Organizations)
	orgFields := EdgesFromFields(in.Organizations)
	indRelations := EdgesFromRelations(in.Individuals)
	indFields := EdgesFromFields(in.Individuals)
	roleEdges, special := EdgesFromRoleTable(in.Assignments, b.lookup)
	between := EdgesBetween(in.Individuals, in.Organizations)

	edges := make([]models.Edge, 0, len(orgRelations)+len(orgFields)+len(indRelations)+len(indFields)+len(roleEdges)+len(between))
	edges = append(edges, orgRelations...)
	edges = append(edges, orgFields...)
	edges = append(edges, indRelations...)
	edges = append(edges, indFields...)
	edges = append(edges, roleEdges...)
	edges = append(edges, between...)

	b.logger.WithContext(ctx).WithFields(map[string]any{
		"organization_relation_edges": len(orgRelations),
		"organization_field_edges":    len(orgFields),
		"individual_relation_edges":   len(indRelations),
		"individual_field_edges":      len(indFields),
		"role_edges":                  len(roleEdges),
		"between_edges":               len(between),
		"special_nodes":               len(special),
	}).Info("Built match graph")

	return Graph{Edges: edges, Special: special}
}
