package statistics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/lookup"
	"github.com/Ramsey-B/clover/pkg/models"
)

func orgAssignment(typeID, object, owner, billing, correspondence string) models.RoleAssignment {
	return models.RoleAssignment{
		Owner: owner, OwnerType: models.EntityTypeOrganization,
		BillingRecipient: billing, BillingType: models.EntityTypeOrganization,
		CorrespondenceRecipient: correspondence, CorrespondenceType: models.EntityTypeOrganization,
		ProductTypeID: typeID, ProductObject: object,
	}
}

func TestCompute(t *testing.T) {
	personOwned := orgAssignment("T1", "o4", "p", "p", "p")
	personOwned.OwnerType = models.EntityTypeIndividual

	assignments := []models.RoleAssignment{
		orgAssignment("T1", "o1", "a", "a", "a"),
		orgAssignment("T1", "o2", "a", "b", "a"),
		orgAssignment("T1", "o3", "c", "d", "e"),
		personOwned,
		orgAssignment("T2", "o5", "f", "f", "f"),
		orgAssignment("T3", "o6", "g", "h", "g"),
	}
	names := lookup.Table{"T1": "FDA", "T2": "Einzelnummer"}
	categories := lookup.Table{"FDA": "Nummern", "Einzelnummer": "Nummern"}

	rows := Compute(assignments, names.Lookup, categories.Lookup, map[string]int{"FDA": 1})

	require.Len(t, rows, 4)
	assert.Equal(t, Row{Product: "Nummern Summe", Identical: 2, Duplicates: 1, Other: 1, Total: 4}, rows[0])
	assert.Equal(t, Row{Product: "FDA", Identical: 1, Duplicates: 1, Other: 1, Total: 3}, rows[1])
	assert.Equal(t, Row{Product: "Einzelnummer", Identical: 1, Total: 1}, rows[2])
	assert.Equal(t, Row{Product: "T3", Other: 1, Total: 1}, rows[3])
}

func TestCompute_MixedEntityTypesNotCounted(t *testing.T) {
	mixed := orgAssignment("T1", "o1", "org-a", "org-b", "ind-p")
	mixed.CorrespondenceType = models.EntityTypeIndividual
	unlabelled := orgAssignment("T1", "o2", "org-a", "org-b", "")
	unlabelled.CorrespondenceType = ""

	rows := Compute([]models.RoleAssignment{mixed, unlabelled}, lookup.Table{"T1": "FDA"}.Lookup, lookup.Table{}.Lookup, map[string]int{"FDA": 1})

	require.Len(t, rows, 1)
	assert.Equal(t, Row{Product: "FDA", Duplicates: 1, Total: 1}, rows[0])
}

func TestDuplicateCounts(t *testing.T) {
	row := func(object string) *models.PartitionRow {
		return &models.PartitionRow{Objects: map[models.Role]string{models.RoleOwner: object}}
	}

	counts := DuplicateCounts(map[string][]*models.PartitionRow{
		"FDA":   {row("o1"), row("o1"), row("o2")},
		"Other": {},
	})

	assert.Equal(t, 2, counts["FDA"])
	assert.Equal(t, 0, counts["Other"])
}
