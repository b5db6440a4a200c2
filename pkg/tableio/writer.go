package tableio

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/statistics"
)

const listSeparator = "; "

var memberHeader = []string{
	"cluster_id", "master", "score", "score_details", ColReferenceID, ColName, "Adresse",
	ColPhone, ColEmail, ColDelivery, "Verknuepfungsart_list", "VerknuepftesObjektID_list",
	"Servicerole_string", "Geschaeftspartner_list",
}

func recordColumns(r *models.Record) []string {
	kinds := make([]string, len(r.Relations))
	objects := make([]string, len(r.Relations))
	for i, rel := range r.Relations {
		kinds[i] = string(rel.Kind)
		objects[i] = rel.ObjectID
	}
	return []string{
		r.ReferenceID, r.Name, r.Address, r.Phone, r.Email, string(r.Delivery),
		strings.Join(kinds, listSeparator), strings.Join(objects, listSeparator),
		strings.Join(r.ServiceRoles, listSeparator), strings.Join(r.BusinessPartners, listSeparator),
	}
}

func flush(w *csv.Writer) error {
	w.Flush()
	return w.Error()
}

// WriteMembers writes clustered, scored members one row per record
func WriteMembers(out io.Writer, members []*models.Member) error {
	w := csv.NewWriter(out)
	if err := w.Write(memberHeader); err != nil {
		return err
	}
	for _, m := range members {
		row := append([]string{
			m.ClusterID.String(), strconv.FormatBool(m.Master), strconv.Itoa(m.Score), m.ScoreDetails,
		}, recordColumns(m.Record)...)
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return flush(w)
}

var partitionHeader = []string{
	"cluster_id", "master", "score", ColReferenceID, ColName, "Adresse",
	"Inhaber_Objekt", "Rechempf_Objekt", "Korrempf_Objekt",
	"Inhaber_ProduktID", "Rechempf_ProduktID", "Korrempf_ProduktID",
}

// WritePartitionRows writes one role partition bucket
func WritePartitionRows(out io.Writer, rows []*models.PartitionRow) error {
	w := csv.NewWriter(out)
	if err := w.Write(partitionHeader); err != nil {
		return err
	}
	for _, r := range rows {
		row := []string{
			r.ClusterID.String(), strconv.FormatBool(r.Master), strconv.Itoa(r.Score),
			r.Record.ReferenceID, r.Record.Name, r.Record.Address,
		}
		for _, role := range models.Roles {
			row = append(row, r.Objects[role])
		}
		for _, role := range models.Roles {
			row = append(row, r.ProductID[role])
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return flush(w)
}

// WriteStatistics writes the statistics table
func WriteStatistics(out io.Writer, rows []statistics.Row) error {
	w := csv.NewWriter(out)
	if err := w.Write([]string{"Produkt_Name", "Identisch", "Doubletten", "Sonstige", "Total"}); err != nil {
		return err
	}
	for _, r := range rows {
		if err := w.Write([]string{
			r.Product, strconv.Itoa(r.Identical), strconv.Itoa(r.Duplicates), strconv.Itoa(r.Other), strconv.Itoa(r.Total),
		}); err != nil {
			return err
		}
	}
	return flush(w)
}
