package enrich

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Ramsey-B/clover/pkg/lookup"
	"github.com/Ramsey-B/clover/pkg/models"
)

func records(ids ...string) []*models.Record {
	out := make([]*models.Record, len(ids))
	for i, id := range ids {
		out[i] = &models.Record{ReferenceID: id}
	}
	return out
}

func TestServiceRoles(t *testing.T) {
	rs := records("a", "b")
	names := lookup.Table{"s1": "Ausweis", "s2": "FDA"}

	ServiceRoles(rs, []models.ServiceRoleRow{
		{ReferenceID: "a", ServiceRoleID: "s1"},
		{ReferenceID: "a", ServiceRoleID: "unknown"},
		{ReferenceID: "b", ServiceRoleID: "s2"},
		{ReferenceID: "z", ServiceRoleID: "s2"},
	}, names.Lookup)

	assert.Equal(t, []string{"Ausweis"}, rs[0].ServiceRoles)
	assert.Equal(t, 2, rs[0].ServiceRoleCount)
	assert.Equal(t, []string{"FDA"}, rs[1].ServiceRoles)
}

func TestProductCounts(t *testing.T) {
	rs := records("a", "b")

	ProductCounts(rs, []models.RoleAssignment{
		{Owner: "a", BillingRecipient: "a", CorrespondenceRecipient: "b"},
		{Owner: "a", BillingRecipient: "b", CorrespondenceRecipient: "b"},
	})

	assert.Equal(t, 2, rs[0].OwnerCount)
	assert.Equal(t, 1, rs[0].AddresseeCount)
	assert.Equal(t, 0, rs[1].OwnerCount)
	assert.Equal(t, 3, rs[1].AddresseeCount)
}

func TestProductRoles(t *testing.T) {
	rs := records("p1", "p2")
	names := lookup.Table{"T1": "FDA"}

	PersonProductRoles(rs, []models.PersonRoleRow{
		{ContactPerson: "p1", TechnicalPerson: "p1", ProductTypeID: "T1", ProductID: "x"},
		{StatisticPerson: "p2", ProductTypeID: "T9", ProductID: "y"},
	}, names.Lookup)
	OrganisationProductRoles(rs, []models.RoleAssignment{
		{Owner: "p2", ProductTypeID: "T1", ProductID: "z"},
	}, names.Lookup)

	assert.Equal(t, []models.ProductRole{
		{Role: "Kontaktperson (FDA)", ProductID: "x"},
		{Role: "Technikperson (FDA)", ProductID: "x"},
	}, rs[0].ProductRoles)
	assert.Equal(t, []models.ProductRole{
		{Role: "Statistikperson", ProductID: "y"},
		{Role: "Inhaber (FDA)", ProductID: "z"},
	}, rs[1].ProductRoles)
}

func TestBusinessPartners(t *testing.T) {
	rs := records("a", "b")

	BusinessPartners(rs, []Partner{
		{Name: "SBB", ReferenceIDs: []string{"a", "a"}},
		{Name: "Post", ReferenceIDs: []string{"a", "c"}},
	})

	assert.Equal(t, []string{"SBB", "Post"}, rs[0].BusinessPartners)
	assert.Empty(t, rs[1].BusinessPartners)
}
