package matchgraph

import (
	"context"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/lookup"
	"github.com/Ramsey-B/clover/pkg/models"
)

func rec(id string, mutate ...func(r *models.Record)) *models.Record {
	r := &models.Record{ReferenceID: id, EntityType: models.EntityTypeOrganization, Name: "name-" + id}
	for _, m := range mutate {
		m(r)
	}
	return r
}

func withPhone(p string) func(r *models.Record) {
	return func(r *models.Record) { r.Phone = p }
}

func withRelation(kind models.RelationKind, target string) func(r *models.Record) {
	return func(r *models.Record) {
		r.Relations = append(r.Relations, models.Relation{Kind: kind, ObjectID: target})
	}
}

func TestEdgesFromField(t *testing.T) {
	records := []*models.Record{
		rec("a", withPhone("0441")),
		rec("b", withPhone("0441")),
		rec("c", withPhone("")),
		rec("d", withPhone("0441")),
		rec("e", withPhone("0442")),
	}

	edges := EdgesFromField(records, FieldPhone)

	require.Len(t, edges, 3)
	seen := make(map[[2]string]bool)
	for _, e := range edges {
		assert.True(t, e.Bidirectional)
		assert.Equal(t, models.MatchPhone, e.Kind)
		assert.False(t, seen[e.PairKey()], "pair %v emitted twice", e.PairKey())
		seen[e.PairKey()] = true
	}
	assert.True(t, seen[[2]string{"a", "b"}])
	assert.True(t, seen[[2]string{"a", "d"}])
	assert.True(t, seen[[2]string{"b", "d"}])
	assert.Equal(t, "a", edges[0].Source)
}

func TestEdgesFromField_NameKeySeparatesDepartments(t *testing.T) {
	records := []*models.Record{
		rec("a", func(r *models.Record) { r.Name = "muster ag"; r.NameLine2 = "einkauf" }),
		rec("b", func(r *models.Record) { r.Name = "muster ag"; r.NameLine2 = "verkauf" }),
		rec("c", func(r *models.Record) { r.Name = "muster ag"; r.NameLine2 = "einkauf" }),
	}

	edges := EdgesFromField(records, FieldName)
	require.Len(t, edges, 1)
	assert.Equal(t, [2]string{"a", "c"}, edges[0].PairKey())
}

func TestEdgesFromRelations(t *testing.T) {
	records := []*models.Record{
		rec("a", withRelation(models.RelationEmployee, "b"), withRelation(models.RelationAdministrator, "x")),
		rec("b", withRelation(models.RelationOther, "b")),
		rec("c", withRelation("", "a")),
	}

	edges := EdgesFromRelations(records)
	require.Len(t, edges, 1)
	assert.Equal(t, models.Edge{Source: "a", Target: "b", Kind: "Mitarbeiter"}, edges[0])
}

func TestEdgesBetween(t *testing.T) {
	persons := []*models.Record{
		rec("p1", withRelation(models.RelationEmployee, "o1")),
		rec("p2", withRelation(models.RelationEmployee, "p1")),
	}
	orgs := []*models.Record{rec("o1")}

	edges := EdgesBetween(persons, orgs)
	require.Len(t, edges, 1)
	assert.Equal(t, "p1", edges[0].Source)
	assert.Equal(t, "o1", edges[0].Target)
}

func TestEdgesFromRoleTable(t *testing.T) {
	assignments := []models.RoleAssignment{
		{Owner: "o1", BillingRecipient: "o2", CorrespondenceRecipient: "o1", ProductTypeID: "T1", ProductObject: "obj1"},
		{Owner: "o1", BillingRecipient: "o2", CorrespondenceRecipient: "o1", ProductTypeID: "T1", ProductObject: "obj2"},
		{Owner: "o3", BillingRecipient: "", CorrespondenceRecipient: "o3", ProductTypeID: "T2", ProductObject: "obj3"},
	}
	names := lookup.Table{"T1": "FDA"}

	edges, special := EdgesFromRoleTable(assignments, names.Lookup)

	require.Len(t, special, 2)
	_, ok := special["[obj1 obj2]FDA\n2"]
	assert.True(t, ok)
	_, ok = special["[obj3]T2\n1"]
	assert.True(t, ok)

	require.Len(t, edges, 5)
	assert.Equal(t, models.Edge{Source: "[obj1 obj2]FDA\n2", Target: "o1", Kind: "Inhaber"}, edges[0])
	assert.Equal(t, models.MatchKind("Rechnungsempfaenger"), edges[1].Kind)
	assert.Equal(t, "o2", edges[1].Target)
	assert.Equal(t, models.MatchKind("Korrespondenzempfaenger"), edges[4].Kind)
}

func TestBuilder_Build(t *testing.T) {
	b := NewBuilder(ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {}), nil)

	graph := b.Build(context.Background(), Input{
		Organizations: []*models.Record{rec("o1", withPhone("1")), rec("o2", withPhone("1"))},
		Individuals:   []*models.Record{rec("p1", withRelation(models.RelationEmployee, "o1"))},
		Assignments:   []models.RoleAssignment{{Owner: "o1", BillingRecipient: "o1", CorrespondenceRecipient: "o1", ProductTypeID: "T", ProductObject: "x"}},
	})

	require.Len(t, graph.Edges, 5)
	assert.Equal(t, models.MatchPhone, graph.Edges[0].Kind)
	assert.Equal(t, "p1", graph.Edges[4].Source)
	assert.Len(t, graph.Special, 1)
}
