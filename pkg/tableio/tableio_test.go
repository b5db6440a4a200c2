package tableio

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	clerrors "github.com/Ramsey-B/clover/pkg/errors"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/pipeline"
	"github.com/Ramsey-B/clover/pkg/statistics"
)

func TestReadEntities(t *testing.T) {
	data := "\ufeffReferenceID,Name,Street,HouseNumber,ZipPostalCode,City,Korr_City,Verknuepfungsart,Debitornummer,Versandart,Aktiv,CreatedAt\n" +
		"org-1, Muster AG ,Bahnhofstrasse,1,3000,Bern,Zuerich,Mitarbeiter,4711,Portal,1,2024-03-01 10:00:00\n" +
		"org-2,Beispiel GmbH,,,,,,,n/a,,0,garbage\n"

	rows, err := ReadEntities(strings.NewReader(data), TableOrganizations, models.EntityTypeOrganization)

	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "org-1", rows[0].ReferenceID)
	assert.Equal(t, "Muster AG", rows[0].Name)
	assert.Equal(t, models.EntityTypeOrganization, rows[0].EntityType)
	assert.Equal(t, "Bahnhofstrasse", rows[0].Address.Street)
	assert.Equal(t, "Zuerich", rows[0].CorrespondenceAdr.City)
	assert.Equal(t, 4711.0, rows[0].BillingCode)
	assert.True(t, rows[0].Active)
	assert.Equal(t, 2024, rows[0].CreatedAt.Year())

	assert.Zero(t, rows[1].BillingCode)
	assert.True(t, rows[1].CreatedAt.IsZero())
	assert.False(t, rows[1].Active)
}

func TestReadEntities_MissingColumn(t *testing.T) {
	_, err := ReadEntities(strings.NewReader("ReferenceID,Street\n1,x\n"), TableIndividuals, models.EntityTypeIndividual)

	var schemaErr *clerrors.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, TableIndividuals, schemaErr.Table)
	assert.Equal(t, ColName, schemaErr.Column)

	_, err = ReadEntities(strings.NewReader(""), TableIndividuals, models.EntityTypeIndividual)
	assert.True(t, clerrors.IsSchemaError(err))
}

func TestReadAssignments(t *testing.T) {
	data := "Inhaber_RefID,Inhaber_Typ,Rechnungsempfaenger_RefID,Korrespondenzempfaenger_RefID,Produkt_typ,Produkt_RefID,ProduktObj\n" +
		"a,Organisation,b,,T1,p1,obj-1\n"

	rows, err := ReadAssignments(strings.NewReader(data), TableAssignments)

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, models.RoleAssignment{
		Owner: "a", OwnerType: models.EntityTypeOrganization, BillingRecipient: "b",
		ProductTypeID: "T1", ProductID: "p1", ProductObject: "obj-1",
	}, rows[0])

	_, err = ReadAssignments(strings.NewReader("Inhaber_RefID\n"), TableAssignments)
	assert.True(t, clerrors.IsSchemaError(err))
}

func TestReadLookupTables(t *testing.T) {
	roles, err := ReadServiceRoles(strings.NewReader("ReferenceID,ServiceRoleReferenceID\na,s1\n"), TableIndividualServiceRoles)
	require.NoError(t, err)
	assert.Equal(t, []models.ServiceRoleRow{{ReferenceID: "a", ServiceRoleID: "s1"}}, roles)

	persons, err := ReadPersonRoles(strings.NewReader("Kontaktperson_RefID,Technikperson_RefID,Statistikperson_RefID,Produkt_typ,Produkt_RefID\np1,,,T1,x\n"), TablePersonRoles)
	require.NoError(t, err)
	assert.Equal(t, []models.PersonRoleRow{{ContactPerson: "p1", ProductTypeID: "T1", ProductID: "x"}}, persons)

	ids, err := ReadPartner(strings.NewReader("ReferenceID\na\n\nb\n"), "BAFU")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)
}

func readCSV(t *testing.T, data []byte) [][]string {
	t.Helper()
	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriteMembers(t *testing.T) {
	var buf bytes.Buffer
	err := WriteMembers(&buf, []*models.Member{{
		Record: &models.Record{
			ReferenceID: "a", Name: "muster ag", Address: "bahnhofstrasse 1 3000 bern",
			Relations:    []models.Relation{{Kind: models.RelationEmployee, ObjectID: "o1"}, {Kind: models.RelationAdministrator, ObjectID: "o2"}},
			ServiceRoles: []string{"FDA"},
		},
		ClusterID: models.NewClusterID(1).WithSuffix("a"),
		Score:     130,
		Master:    true,
	}})

	require.NoError(t, err)
	rows := readCSV(t, buf.Bytes())
	require.Len(t, rows, 2)
	assert.Equal(t, memberHeader, rows[0])
	assert.Equal(t, "1_a", rows[1][0])
	assert.Equal(t, "true", rows[1][1])
	assert.Equal(t, "Mitarbeiter; Administrator", rows[1][10])
	assert.Equal(t, "FDA", rows[1][12])
}

func TestWritePartitionRowsAndStatistics(t *testing.T) {
	var buf bytes.Buffer
	err := WritePartitionRows(&buf, []*models.PartitionRow{{
		Record:    &models.Record{ReferenceID: "b"},
		ClusterID: models.NewClusterID(1).WithSuffix("a"),
		Objects:   map[models.Role]string{models.RoleBilling: "obj-1"},
		ProductID: map[models.Role]string{models.RoleBilling: "p1"},
	}})
	require.NoError(t, err)
	rows := readCSV(t, buf.Bytes())
	assert.Equal(t, []string{"1_a", "false", "0", "b", "", "", "", "obj-1", "", "", "p1", ""}, rows[1])

	buf.Reset()
	require.NoError(t, WriteStatistics(&buf, []statistics.Row{{Product: "FDA", Identical: 2, Duplicates: 1, Other: 1, Total: 4}}))
	rows = readCSV(t, buf.Bytes())
	assert.Equal(t, []string{"FDA", "2", "1", "1", "4"}, rows[1])
}

func TestLoadInputAndWriteResult(t *testing.T) {
	dir := t.TempDir()
	write := func(name, data string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
		return path
	}

	paths := Paths{
		Organizations: write("orgs.csv", "ReferenceID,Name\norg-a,Muster AG\n"),
		Individuals:   write("inds.csv", "ReferenceID,Name\nind-1,Hans Muster\n"),
		Assignments:   write("roles.csv", "Inhaber_RefID,Rechnungsempfaenger_RefID,Korrespondenzempfaenger_RefID,Produkt_typ,Produkt_RefID,ProduktObj\norg-a,org-a,org-a,T1,p1,o1\n"),
		Partners:      map[string]string{"POSTCOM": write("postcom.csv", "ReferenceID\norg-a\n")},
	}

	in, err := LoadInput(paths)
	require.NoError(t, err)
	assert.Len(t, in.Organizations, 1)
	assert.Len(t, in.Individuals, 1)
	assert.Len(t, in.Assignments, 1)
	assert.Empty(t, in.PersonRoles)
	require.Len(t, in.Partners, 1)
	assert.Equal(t, "POSTCOM", in.Partners[0].Name)

	_, err = LoadInput(Paths{Organizations: paths.Organizations})
	assert.ErrorContains(t, err, TableIndividuals)

	out := filepath.Join(dir, "out")
	written, err := WriteResult(out, &pipeline.Result{
		Partitions: map[string]map[string][]*models.PartitionRow{"FDA": {"Inhaber_RechEmpf": nil}},
		Statistics: []statistics.Row{{Product: "FDA", Total: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(out, "Organisationen.csv"),
		filepath.Join(out, "Personen.csv"),
		filepath.Join(out, "FDA_Inhaber_RechEmpf.csv"),
		filepath.Join(out, "Statistik.csv"),
	}, written)
	for _, p := range written {
		assert.FileExists(t, p)
	}
}
