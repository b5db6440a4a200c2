// Package statistics counts, per product, how many role assignments name
// the same organization in all three roles, how many are explained by
// duplicates and how many are neither.
package statistics

import (
	"sort"

	"github.com/Gobusters/ectolinq"

	"github.com/Ramsey-B/clover/pkg/lookup"
	"github.com/Ramsey-B/clover/pkg/models"
)

// Row is one line of the statistics table
type Row struct {
	Product    string `json:"product"`
	Identical  int    `json:"identisch"`
	Duplicates int    `json:"doubletten"`
	Other      int    `json:"sonstige"`
	Total      int    `json:"total"`
}

// SumSuffix marks the per-category total rows
const SumSuffix = " Summe"

// DuplicateCounts returns the number of distinct product objects among the
// partition rows of every product.
func DuplicateCounts(partitions map[string][]*models.PartitionRow) map[string]int {
	out := make(map[string]int, len(partitions))
	for product, rows := range partitions {
		objects := make(map[string]struct{})
		for _, r := range rows {
			if o := r.Object(); o != "" {
				objects[o] = struct{}{}
			}
		}
		out[product] = len(objects)
	}
	return out
}

// Compute builds the statistics table. Products are listed in order of
// first appearance in assignments, preceded by one "<category> Summe" row
// per product category in category order. Assignments with a holder
// labelled as an individual are not counted, matching the partitioner.
func Compute(assignments []models.RoleAssignment, productName, category lookup.Func, duplicates map[string]int) []Row {
	nameOf := func(a models.RoleAssignment) string {
		if name, ok := productName(a.ProductTypeID); ok {
			return name
		}
		return a.ProductTypeID
	}

	products := make([]string, 0)
	for _, a := range assignments {
		if name := nameOf(a); !ectolinq.Contains(products, name) {
			products = append(products, name)
		}
	}

	counted := ectolinq.Filter(assignments, models.RoleAssignment.OrganisationHeld)

	rows := make([]Row, 0, len(products))
	for _, product := range products {
		row := Row{Product: product, Duplicates: duplicates[product]}
		for _, a := range counted {
			if nameOf(a) != product {
				continue
			}
			row.Total++
			if a.Owner == a.BillingRecipient && a.BillingRecipient == a.CorrespondenceRecipient {
				row.Identical++
			}
		}
		row.Other = row.Total - row.Identical - row.Duplicates
		rows = append(rows, row)
	}

	sums := make(map[string]*Row)
	for _, r := range rows {
		c, ok := category(r.Product)
		if !ok {
			continue
		}
		s, ok := sums[c]
		if !ok {
			s = &Row{Product: c + SumSuffix}
			sums[c] = s
		}
		s.Identical += r.Identical
		s.Duplicates += r.Duplicates
		s.Other += r.Other
		s.Total += r.Total
	}

	categories := make([]string, 0, len(sums))
	for c := range sums {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	out := make([]Row, 0, len(categories)+len(rows))
	for _, c := range categories {
		out = append(out, *sums[c])
	}
	return append(out, rows...)
}
