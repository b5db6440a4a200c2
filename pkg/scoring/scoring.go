// Package scoring ranks records by how complete and how used they are. The
// highest scoring member of a cluster becomes its master.
package scoring

import (
	"fmt"
	"strings"

	"github.com/Ramsey-B/clover/pkg/models"
)

// Component is one named part of a score
type Component struct {
	Name   string
	Points int
}

// Score is a total and the components it was summed from, in table order
type Score struct {
	Total      int
	Components []Component
}

func (s *Score) add(name string, points int) {
	s.Components = append(s.Components, Component{Name: name, Points: points})
	s.Total += points
}

// Details renders the non-zero components joined by ", ", each as
// name + sep + points.
func (s Score) Details(sep string) string {
	parts := make([]string, 0, len(s.Components))
	for _, c := range s.Components {
		if c.Points > 0 {
			parts = append(parts, fmt.Sprintf("%s%s%d", c.Name, sep, c.Points))
		}
	}
	return strings.Join(parts, ", ")
}

// RelationPoints sums 100 per Administrator and 50 per Mitarbeiter relation
func RelationPoints(kinds []models.RelationKind) int {
	points := 0
	for _, k := range kinds {
		switch k {
		case models.RelationAdministrator:
			points += 100
		case models.RelationEmployee:
			points += 50
		}
	}
	return points
}

func capped(v, limit int) int {
	if v > limit {
		return limit
	}
	return v
}

// Organization scores an organization record
func Organization(r *models.Record) Score {
	var s Score

	s.add("Debitornummer", ternary(r.BillingCode > 0, 100, 0))
	s.add("UID_CHID", ternary(r.UID != "", 200, 0))
	s.add("Versandart", ternary(r.Delivery == models.DeliveryPortal, 100, 0))
	s.add("Geschaeftsobjekte", int(r.BusinessObjectCount*30))
	s.add("ObjektZeiger", capped(int(r.ObjectPointerCount*10), 100))
	s.add("Verknuepfungsart", RelationPoints(r.RelationKinds()))
	s.add("Geschaeftspartner", len(r.BusinessPartners)*100)
	s.add("Produkt_Inhaber", capped(r.OwnerCount*80, 200))
	s.add("Produkt_Adressant", capped(r.AddresseeCount*30, 100))
	s.add("Servicerole", r.ServiceRoleCount*50)
	s.add("UID_MASTER", ternary(r.UIDMaster, 1000, 0))

	return s
}

// UIDCheck grades an individual's UID: 0 when empty, 1 for the
// "notregisteredchid" placeholder and 2 for a real UID.
func UIDCheck(uid string) int {
	switch {
	case uid == "":
		return 0
	case strings.EqualFold(uid, "notregisteredchid"):
		return 1
	default:
		return 2
	}
}

// Individual scores an individual record. For physical-mail analyses the
// UID weighs a tenth.
func Individual(r *models.Record, physisch bool) Score {
	var s Score

	uid := UIDCheck(r.UID) * 50
	if physisch {
		uid /= 10
	}

	s.add("Geschaeftsobjekte", int(r.BusinessObjectCount*30))
	s.add("UID", uid)
	s.add("Verknuepfungsart", RelationPoints(r.RelationKinds()))
	s.add("Versandart", ternary(r.Delivery == models.DeliveryPortal, 100, 0))
	s.add("ObjektZeiger", capped(int(r.ObjectPointerCount*10), 100))
	s.add("Geschaeftspartner", len(r.BusinessPartners)*100)
	s.add("Servicerole_string", ternary(strings.Contains(strings.Join(r.ServiceRoles, ", "), "Ausweis"), 100, 0))
	s.add("Produktrolle", len(r.ProductRoles)*100)
	s.add("Email", ternary(r.Email != "", 20, 0))
	s.add("Telefon", ternary(r.Phone != "", 10, 0))

	return s
}

// Apply scores every member in place with the formula of its entity type
func Apply(members []*models.Member, physisch bool) {
	for _, m := range members {
		if m.Record.EntityType == models.EntityTypeOrganization {
			s := Organization(m.Record)
			m.Score, m.ScoreDetails = s.Total, s.Details(": ")
			continue
		}
		s := Individual(m.Record, physisch)
		m.Score, m.ScoreDetails = s.Total, s.Details(" ")
	}
}

func ternary(cond bool, a, b int) int {
	if cond {
		return a
	}
	return b
}
