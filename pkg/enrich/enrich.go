// Package enrich attaches the membership lookups (service roles, product
// roles, business partners) to records before they are scored.
package enrich

import (
	"fmt"

	"github.com/Ramsey-B/clover/pkg/lookup"
	"github.com/Ramsey-B/clover/pkg/models"
)

// Person product role labels
const (
	RoleContactPerson   = "Kontaktperson"
	RoleTechnicalPerson = "Technikperson"
	RoleStatisticPerson = "Statistikperson"
)

// Partner is one named business-partner table
type Partner struct {
	Name         string
	ReferenceIDs []string
}

func byID(records []*models.Record) map[string]*models.Record {
	out := make(map[string]*models.Record, len(records))
	for _, r := range records {
		out[r.ReferenceID] = r
	}
	return out
}

func label(role, name string) string {
	if name == "" {
		return role
	}
	return fmt.Sprintf("%s (%s)", role, name)
}

// ServiceRoles sets the resolved service role names and the raw service
// role count of every record. Unresolvable ids count but are not named.
func ServiceRoles(records []*models.Record, rows []models.ServiceRoleRow, names lookup.Func) {
	index := byID(records)
	for _, r := range records {
		r.ServiceRoles = nil
		r.ServiceRoleCount = 0
	}
	for _, row := range rows {
		r, ok := index[row.ReferenceID]
		if !ok {
			continue
		}
		r.ServiceRoleCount++
		if name, ok := names(row.ServiceRoleID); ok && name != "" {
			r.ServiceRoles = append(r.ServiceRoles, name)
		}
	}
}

// ProductCounts sets how often each record is owner and how often it is
// billing or correspondence recipient in the role table.
func ProductCounts(records []*models.Record, assignments []models.RoleAssignment) {
	index := byID(records)
	for _, r := range records {
		r.OwnerCount, r.AddresseeCount = 0, 0
	}
	for _, a := range assignments {
		if r, ok := index[a.Owner]; ok {
			r.OwnerCount++
		}
		if r, ok := index[a.BillingRecipient]; ok {
			r.AddresseeCount++
		}
		if r, ok := index[a.CorrespondenceRecipient]; ok {
			r.AddresseeCount++
		}
	}
}

// PersonProductRoles appends the contact, technical and statistics person
// roles, e.g. "Kontaktperson (FDA)", to the records holding them.
func PersonProductRoles(records []*models.Record, rows []models.PersonRoleRow, productNames lookup.Func) {
	index := byID(records)
	for _, role := range []string{RoleContactPerson, RoleTechnicalPerson, RoleStatisticPerson} {
		for _, row := range rows {
			holder := row.ContactPerson
			switch role {
			case RoleTechnicalPerson:
				holder = row.TechnicalPerson
			case RoleStatisticPerson:
				holder = row.StatisticPerson
			}
			r, ok := index[holder]
			if !ok {
				continue
			}
			name, _ := productNames(row.ProductTypeID)
			r.ProductRoles = append(r.ProductRoles, models.ProductRole{Role: label(role, name), ProductID: row.ProductID})
		}
	}
}

// OrganisationProductRoles appends the owner, billing and correspondence
// roles individuals hold in the organization role table.
func OrganisationProductRoles(records []*models.Record, assignments []models.RoleAssignment, productNames lookup.Func) {
	index := byID(records)
	for _, role := range models.Roles {
		for _, a := range assignments {
			r, ok := index[a.Holder(role)]
			if !ok {
				continue
			}
			name, _ := productNames(a.ProductTypeID)
			r.ProductRoles = append(r.ProductRoles, models.ProductRole{Role: label(string(role), name), ProductID: a.ProductID})
		}
	}
}

// BusinessPartners lists, per record, the partners whose table contains it
func BusinessPartners(records []*models.Record, partners []Partner) {
	index := byID(records)
	for _, r := range records {
		r.BusinessPartners = nil
	}
	for _, p := range partners {
		seen := make(map[string]struct{}, len(p.ReferenceIDs))
		for _, id := range p.ReferenceIDs {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			if r, ok := index[id]; ok {
				r.BusinessPartners = append(r.BusinessPartners, p.Name)
			}
		}
	}
}
