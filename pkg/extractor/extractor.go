// Package extractor turns raw entity extracts into records: it cleans the
// rows, normalizes contact fields and aggregates the one-row-per-relation
// export into one record per ReferenceID.
package extractor

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Gobusters/ectologger"

	clerrors "github.com/Ramsey-B/clover/pkg/errors"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/normalizers"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Options controls row cleanup
type Options struct {
	// DropOtherRelations removes rows whose relation kind is "Sonstiges".
	DropOtherRelations bool
}

// Extractor builds records from raw extract rows
type Extractor struct {
	logger ectologger.Logger
}

// New creates a new Extractor
func New(logger ectologger.Logger) *Extractor {
	return &Extractor{logger: logger}
}

// Extract cleans rows and aggregates them into records
func (e *Extractor) Extract(ctx context.Context, rows []models.RawRow, opts Options) ([]*models.Record, []clerrors.DataQualityWarning) {
	ctx, span := tracing.StartSpan(ctx, "extractor.Extractor.Extract")
	defer span.End()

	cleaned := Cleanup(rows, opts)
	records, warnings := Aggregate(cleaned)

	e.logger.WithContext(ctx).WithFields(map[string]any{
		"raw_rows":   len(rows),
		"clean_rows": len(cleaned),
		"records":    len(records),
		"warnings":   len(warnings),
		"drop_other": opts.DropOtherRelations,
	}).Info("Extracted records")

	return records, warnings
}

// Cleanup drops rows without a name, inactive rows and optionally rows of
// relation kind "Sonstiges". Rows are returned sorted by normalized name so
// that cluster ids derived later are reproducible.
func Cleanup(rows []models.RawRow, opts Options) []models.RawRow {
	type keyed struct {
		name string
		row  models.RawRow
	}

	kept := make([]keyed, 0, len(rows))
	for _, row := range rows {
		if normalizers.IsMissing(row.Name) {
			continue
		}
		if !row.Active {
			continue
		}
		if opts.DropOtherRelations && models.RelationKind(row.RelationKind) == models.RelationOther {
			continue
		}
		kept = append(kept, keyed{name: normalizers.NormalizeString(row.Name), row: row})
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].name < kept[j].name
	})

	out := make([]models.RawRow, len(kept))
	for i, k := range kept {
		out[i] = k.row
	}
	return out
}

// Aggregate groups rows by ReferenceID. Relation columns become parallel
// lists in row order; every other column takes its first occurrence.
// Divergent first-wins columns are reported, not merged.
func Aggregate(rows []models.RawRow) ([]*models.Record, []clerrors.DataQualityWarning) {
	var warnings []clerrors.DataQualityWarning

	records := make([]*models.Record, 0)
	index := make(map[string]int)
	firsts := make(map[string]models.RawRow)

	for _, row := range rows {
		i, seen := index[row.ReferenceID]
		if !seen {
			rec, zipOK := newRecord(row)
			if !zipOK {
				warnings = append(warnings, clerrors.NewDataQualityWarning(
					clerrors.WarningUnparseableZip, row.ReferenceID,
					"postal code %q is not numeric", row.Address.ZipPostalCode))
			}
			i = len(records)
			index[row.ReferenceID] = i
			firsts[row.ReferenceID] = row
			records = append(records, rec)
		} else if col, diverges := divergentColumn(firsts[row.ReferenceID], row); diverges {
			warnings = append(warnings, clerrors.NewDataQualityWarning(
				clerrors.WarningDivergentAttribute, row.ReferenceID,
				"column %s differs between rows, keeping first value", col))
		}

		if rel, ok := relationOf(row); ok {
			records[i].Relations = append(records[i].Relations, rel)
		}
	}

	return records, warnings
}

func newRecord(row models.RawRow) (*models.Record, bool) {
	organisation := row.EntityType == models.EntityTypeOrganization
	address, zipOK := normalizers.BuildAddress(row.Address, row.CorrespondenceAdr, organisation)

	return &models.Record{
		ReferenceID:         row.ReferenceID,
		EntityType:          row.EntityType,
		Name:                normalizers.NormalizeString(row.Name),
		NameOriginal:        row.Name,
		NameLine2:           normalizers.NormalizeString(row.NameLine2),
		Address:             address,
		Phone:               normalizers.NormalizePhone(row.Phone),
		Email:               normalizers.NormalizeEmail(row.Email),
		Link:                row.Link,
		Active:              row.Active,
		CreatedAt:           row.CreatedAt,
		BillingCode:         row.BillingCode,
		UID:                 normalizers.BlankMissing(row.UID),
		UIDMaster:           row.UIDMaster,
		Delivery:            models.DeliveryMethod(normalizers.BlankMissing(row.Delivery)),
		BusinessObjectCount: row.BusinessObjectCount,
		ObjectPointerCount:  row.ObjectPointerCount,
	}, zipOK
}

func relationOf(row models.RawRow) (models.Relation, bool) {
	kind := normalizers.BlankMissing(row.RelationKind)
	id := normalizers.BlankMissing(row.RelatedObjectID)
	if kind == "" && id == "" {
		return models.Relation{}, false
	}
	return models.Relation{
		Kind:        models.RelationKind(kind),
		ObjectID:    id,
		ObjectLabel: normalizers.BlankMissing(row.RelatedObjectLabel),
	}, true
}

// divergentColumn compares the first-wins columns of two rows of one record
func divergentColumn(a, b models.RawRow) (string, bool) {
	checks := []struct {
		name string
		x, y any
	}{
		{"Name", a.Name, b.Name},
		{"Zeile2", a.NameLine2, b.NameLine2},
		{"Telefonnummer", a.Phone, b.Phone},
		{"EMailAdresse", a.Email, b.Email},
		{"Adresse", a.Address, b.Address},
		{"Korr_Adresse", a.CorrespondenceAdr, b.CorrespondenceAdr},
		{"Debitornummer", a.BillingCode, b.BillingCode},
		{"UID_CHID", a.UID, b.UID},
		{"UID_MASTER", a.UIDMaster, b.UIDMaster},
		{"Versandart", a.Delivery, b.Delivery},
		{"AnzahlGeschaeftsobjekte", a.BusinessObjectCount, b.BusinessObjectCount},
		{"AnzahlObjektZeiger", a.ObjectPointerCount, b.ObjectPointerCount},
		{"CreatedAt", timeKey(a.CreatedAt), timeKey(b.CreatedAt)},
	}
	for _, c := range checks {
		if c.x != c.y {
			return c.name, true
		}
	}
	return "", false
}

func timeKey(t time.Time) string {
	return fmt.Sprint(t.UnixNano())
}
