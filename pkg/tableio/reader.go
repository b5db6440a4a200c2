// Package tableio reads the CSV extracts of a run and writes its report
// tables back as CSV.
package tableio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	clerrors "github.com/Ramsey-B/clover/pkg/errors"
	"github.com/Ramsey-B/clover/pkg/models"
)

// Entity table columns
const (
	ColReferenceID          = "ReferenceID"
	ColName                 = "Name"
	ColNameLine2            = "Name_Zeile2"
	ColPhone                = "Telefonnummer"
	ColEmail                = "EMailAdresse"
	ColLink                 = "Objekt_link"
	ColActive               = "Aktiv"
	ColCreatedAt            = "CreatedAt"
	ColStreet               = "Street"
	ColHouseNumber          = "HouseNumber"
	ColAddress1             = "Address1"
	ColAddress2             = "Address2"
	ColPostOfficeBox        = "PostOfficeBox"
	ColZipPostalCode        = "ZipPostalCode"
	ColCity                 = "City"
	ColCountry              = "CountryName"
	ColCorrespondencePrefix = "Korr_"
	ColRelationKind         = "Verknuepfungsart"
	ColRelatedObjectID      = "VerknuepftesObjektID"
	ColRelatedObjectLabel   = "VerknuepftesObjekt"
	ColBillingCode          = "Debitornummer"
	ColUID                  = "UID_CHID"
	ColUIDMaster            = "UID_MASTER"
	ColDelivery             = "Versandart"
	ColBusinessObjectCount  = "AnzahlGeschaeftsobjekte"
	ColObjectPointerCount   = "AnzahlObjektZeiger"
)

// Role table columns
const (
	ColOwner                  = "Inhaber_RefID"
	ColOwnerType              = "Inhaber_Typ"
	ColBilling                = "Rechnungsempfaenger_RefID"
	ColBillingType            = "Rechnungsempfaenger_Typ"
	ColCorrespondence         = "Korrespondenzempfaenger_RefID"
	ColCorrespondenceType     = "Korrespondenzempfaenger_Typ"
	ColProductType            = "Produkt_typ"
	ColProductID              = "Produkt_RefID"
	ColProductObject          = "ProduktObj"
	ColContactPerson          = "Kontaktperson_RefID"
	ColTechnicalPerson        = "Technikperson_RefID"
	ColStatisticPerson        = "Statistikperson_RefID"
	ColServiceRoleReferenceID = "ServiceRoleReferenceID"
)

var timeLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05", "2006-01-02", "02.01.2006"}

type table struct {
	name    string
	columns map[string]int
	rows    [][]string
}

func readTable(r io.Reader, name string, required ...string) (*table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, clerrors.NewSchemaError(name, firstOr(required, "header"))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header of '%s': %w", name, err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	if err := clerrors.RequireColumns(name, header, required...); err != nil {
		return nil, err
	}

	t := &table{name: name, columns: make(map[string]int, len(header))}
	for i, col := range header {
		t.columns[strings.TrimSpace(col)] = i
	}

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read '%s': %w", name, err)
		}
		t.rows = append(t.rows, row)
	}
	return t, nil
}

func firstOr(values []string, fallback string) string {
	if len(values) > 0 {
		return values[0]
	}
	return fallback
}

// get returns the trimmed cell or "" when the column is absent
func (t *table) get(row []string, col string) string {
	i, ok := t.columns[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (t *table) float(row []string, col string) float64 {
	v := t.get(row, col)
	if v == "" {
		return 0
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(v, "'", ""), 64)
	if err != nil {
		return 0
	}
	return f
}

func (t *table) bool(row []string, col string) bool {
	switch strings.ToLower(t.get(row, col)) {
	case "1", "true", "ja", "yes", "x":
		return true
	}
	return false
}

func (t *table) time(row []string, col string) time.Time {
	v := t.get(row, col)
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, v); err == nil {
			return ts
		}
	}
	return time.Time{}
}

func (t *table) address(row []string, prefix string) models.AddressParts {
	return models.AddressParts{
		Street:        t.get(row, prefix+ColStreet),
		HouseNumber:   t.get(row, prefix+ColHouseNumber),
		Address1:      t.get(row, prefix+ColAddress1),
		Address2:      t.get(row, prefix+ColAddress2),
		PostOfficeBox: t.get(row, prefix+ColPostOfficeBox),
		ZipPostalCode: t.get(row, prefix+ColZipPostalCode),
		City:          t.get(row, prefix+ColCity),
		Country:       t.get(row, prefix+ColCountry),
	}
}

// ReadEntities reads an organization or individual extract
func ReadEntities(r io.Reader, name string, entity models.EntityType) ([]models.RawRow, error) {
	t, err := readTable(r, name, ColReferenceID, ColName)
	if err != nil {
		return nil, err
	}

	out := make([]models.RawRow, 0, len(t.rows))
	for _, row := range t.rows {
		out = append(out, models.RawRow{
			ReferenceID:         t.get(row, ColReferenceID),
			EntityType:          entity,
			Name:                t.get(row, ColName),
			NameLine2:           t.get(row, ColNameLine2),
			Phone:               t.get(row, ColPhone),
			Email:               t.get(row, ColEmail),
			Link:                t.get(row, ColLink),
			Active:              t.bool(row, ColActive),
			CreatedAt:           t.time(row, ColCreatedAt),
			Address:             t.address(row, ""),
			CorrespondenceAdr:   t.address(row, ColCorrespondencePrefix),
			RelationKind:        t.get(row, ColRelationKind),
			RelatedObjectID:     t.get(row, ColRelatedObjectID),
			RelatedObjectLabel:  t.get(row, ColRelatedObjectLabel),
			BillingCode:         t.float(row, ColBillingCode),
			UID:                 t.get(row, ColUID),
			UIDMaster:           t.bool(row, ColUIDMaster),
			Delivery:            t.get(row, ColDelivery),
			BusinessObjectCount: t.float(row, ColBusinessObjectCount),
			ObjectPointerCount:  t.float(row, ColObjectPointerCount),
		})
	}
	return out, nil
}

func entityType(v string) models.EntityType {
	switch v {
	case string(models.EntityTypeIndividual):
		return models.EntityTypeIndividual
	case string(models.EntityTypeOrganization):
		return models.EntityTypeOrganization
	}
	return models.EntityType(v)
}

// ReadAssignments reads the organisation role extract
func ReadAssignments(r io.Reader, name string) ([]models.RoleAssignment, error) {
	t, err := readTable(r, name, ColOwner, ColBilling, ColCorrespondence, ColProductType, ColProductID, ColProductObject)
	if err != nil {
		return nil, err
	}

	out := make([]models.RoleAssignment, 0, len(t.rows))
	for _, row := range t.rows {
		out = append(out, models.RoleAssignment{
			Owner:                   t.get(row, ColOwner),
			OwnerType:               entityType(t.get(row, ColOwnerType)),
			BillingRecipient:        t.get(row, ColBilling),
			BillingType:             entityType(t.get(row, ColBillingType)),
			CorrespondenceRecipient: t.get(row, ColCorrespondence),
			CorrespondenceType:      entityType(t.get(row, ColCorrespondenceType)),
			ProductTypeID:           t.get(row, ColProductType),
			ProductID:               t.get(row, ColProductID),
			ProductObject:           t.get(row, ColProductObject),
		})
	}
	return out, nil
}

// ReadPersonRoles reads the person product-role extract
func ReadPersonRoles(r io.Reader, name string) ([]models.PersonRoleRow, error) {
	t, err := readTable(r, name, ColContactPerson, ColTechnicalPerson, ColStatisticPerson, ColProductType, ColProductID)
	if err != nil {
		return nil, err
	}

	out := make([]models.PersonRoleRow, 0, len(t.rows))
	for _, row := range t.rows {
		out = append(out, models.PersonRoleRow{
			ContactPerson:   t.get(row, ColContactPerson),
			TechnicalPerson: t.get(row, ColTechnicalPerson),
			StatisticPerson: t.get(row, ColStatisticPerson),
			ProductTypeID:   t.get(row, ColProductType),
			ProductID:       t.get(row, ColProductID),
		})
	}
	return out, nil
}

// ReadServiceRoles reads a service-role membership table
func ReadServiceRoles(r io.Reader, name string) ([]models.ServiceRoleRow, error) {
	t, err := readTable(r, name, ColReferenceID, ColServiceRoleReferenceID)
	if err != nil {
		return nil, err
	}

	out := make([]models.ServiceRoleRow, 0, len(t.rows))
	for _, row := range t.rows {
		out = append(out, models.ServiceRoleRow{
			ReferenceID:   t.get(row, ColReferenceID),
			ServiceRoleID: t.get(row, ColServiceRoleReferenceID),
		})
	}
	return out, nil
}

// ReadPartner reads the reference ids of one business-partner table
func ReadPartner(r io.Reader, name string) ([]string, error) {
	t, err := readTable(r, name, ColReferenceID)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(t.rows))
	for _, row := range t.rows {
		if id := t.get(row, ColReferenceID); id != "" {
			out = append(out, id)
		}
	}
	return out, nil
}
