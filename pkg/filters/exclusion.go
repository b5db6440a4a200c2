// Package filters narrows clustered members down to the duplicates worth
// reporting and derives the supplementary duplicate analyses.
package filters

import (
	"github.com/Gobusters/ectolinq"

	"github.com/Ramsey-B/clover/pkg/models"
)

// OrganizationCriteria toggles the organization exclusion predicates
type OrganizationCriteria struct {
	NoProducts        bool
	NoBusinessPartner bool
	NoServiceRole     bool
}

// DefaultOrganizationCriteria enables every predicate
func DefaultOrganizationCriteria() OrganizationCriteria {
	return OrganizationCriteria{NoProducts: true, NoBusinessPartner: true, NoServiceRole: true}
}

// Keep reports whether r passes every enabled predicate
func (c OrganizationCriteria) Keep(r *models.Record) bool {
	if c.NoProducts && (r.OwnerCount != 0 || r.AddresseeCount != 0) {
		return false
	}
	if c.NoBusinessPartner && len(r.BusinessPartners) != 0 {
		return false
	}
	if c.NoServiceRole && r.ServiceRoleCount != 0 {
		return false
	}
	return true
}

// IndividualCriteria toggles the individual exclusion predicates
type IndividualCriteria struct {
	NoProducts        bool
	NoBusinessPartner bool
	NoServiceRole     bool
	// OnlyPhysisch keeps physical-mail records only; otherwise Portal is kept too.
	OnlyPhysisch bool
	// OnlyEmployees requires the single relation to be Mitarbeiter;
	// otherwise Administrator is accepted too.
	OnlyEmployees bool
}

// DefaultIndividualCriteria enables the product, partner, service role and
// employee predicates
func DefaultIndividualCriteria() IndividualCriteria {
	return IndividualCriteria{NoProducts: true, NoBusinessPartner: true, NoServiceRole: true, OnlyEmployees: true}
}

// Keep reports whether r passes every enabled predicate
func (c IndividualCriteria) Keep(r *models.Record) bool {
	if c.NoProducts && len(r.ProductRoles) != 0 {
		return false
	}
	if c.NoBusinessPartner && len(r.BusinessPartners) != 0 {
		return false
	}
	if c.NoServiceRole && len(r.ServiceRoles) != 0 {
		return false
	}

	switch r.Delivery {
	case models.DeliveryPhysisch:
	case models.DeliveryPortal:
		if c.OnlyPhysisch {
			return false
		}
	default:
		return false
	}

	if len(r.Relations) != 1 {
		return false
	}
	kind := r.Relations[0].Kind
	if c.OnlyEmployees {
		return kind == models.RelationEmployee
	}
	return kind == models.RelationEmployee || kind == models.RelationAdministrator
}

// ExcludeOrganizations applies c and drops clusters left with one member
func ExcludeOrganizations(members []*models.Member, c OrganizationCriteria) []*models.Member {
	kept := ectolinq.Filter(members, func(m *models.Member) bool { return c.Keep(m.Record) })
	return DropSmallClusters(kept, 2)
}

// ExcludeIndividuals applies c and drops clusters left with one member
func ExcludeIndividuals(members []*models.Member, c IndividualCriteria) []*models.Member {
	kept := ectolinq.Filter(members, func(m *models.Member) bool { return c.Keep(m.Record) })
	return DropSmallClusters(kept, 2)
}

// DropSmallClusters removes members of clusters with fewer than min members
func DropSmallClusters(members []*models.Member, min int) []*models.Member {
	sizes := make(map[models.ClusterID]int)
	for _, m := range members {
		sizes[m.ClusterID]++
	}
	return ectolinq.Filter(members, func(m *models.Member) bool { return sizes[m.ClusterID] >= min })
}

// KeepPersonRelations strips every relation that is not Mitarbeiter or
// Administrator. Organization reports only show links to individuals.
func KeepPersonRelations(r *models.Record) *models.Record {
	out := r.Clone()
	out.Relations = ectolinq.Filter(out.Relations, func(rel models.Relation) bool {
		return rel.Kind == models.RelationEmployee || rel.Kind == models.RelationAdministrator
	})
	return out
}
