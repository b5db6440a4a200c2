package filters

import (
	"sort"
	"strings"

	"github.com/Gobusters/ectolinq"

	clerrors "github.com/Ramsey-B/clover/pkg/errors"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/normalizers"
)

type group struct {
	key     string
	records []*models.Record
}

// groupBy groups records by key, skipping empty keys. Groups are returned
// in key order.
func groupBy(records []*models.Record, key func(r *models.Record) string) []group {
	index := make(map[string]int)
	groups := make([]group, 0)
	for _, r := range records {
		k := key(r)
		if k == "" {
			continue
		}
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, group{key: k})
		}
		groups[i].records = append(groups[i].records, r)
	}
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].key < groups[j].key })
	return groups
}

// toMembers numbers the groups from 1 in order
func toMembers(groups []group) []*models.Member {
	out := make([]*models.Member, 0)
	for i, g := range groups {
		for _, r := range g.records {
			out = append(out, &models.Member{Record: r, ClusterID: models.NewClusterID(i + 1)})
		}
	}
	return out
}

func joinKey(parts ...string) string {
	for _, p := range parts {
		if p == "" {
			return ""
		}
	}
	return strings.Join(parts, "\x00")
}

func nameKey(r *models.Record, abbreviate bool) string {
	if r.EntityType == models.EntityTypeOrganization {
		return r.NameKey()
	}
	if abbreviate {
		return normalizers.AbbreviateFirstName(r.Name)
	}
	return r.Name
}

func hasDelivery(records []*models.Record, d models.DeliveryMethod) bool {
	for _, r := range records {
		if r.Delivery == d {
			return true
		}
	}
	return false
}

// NameAddressDuplicates groups records with identical name and address.
// Individual names can be compared with the first name abbreviated, so
// "hans muster" and "h. muster" fall together.
func NameAddressDuplicates(records []*models.Record, abbreviateFirstName bool) []*models.Member {
	groups := groupBy(records, func(r *models.Record) string {
		return joinKey(nameKey(r, abbreviateFirstName), r.Address)
	})
	groups = ectolinq.Filter(groups, func(g group) bool { return len(g.records) > 1 })
	return toMembers(groups)
}

// PortalVsPhysisch finds records with the same name and address (and email
// when strictEmail is set) that exist both as Portal and as Physisch
// records. Strict grouping skips records without email. Without strictEmail, a group whose non-empty emails disagree
// keeps only its members without email.
func PortalVsPhysisch(records []*models.Record, strictEmail bool) []*models.Member {
	groups := groupBy(records, func(r *models.Record) string {
		if strictEmail {
			return joinKey(nameKey(r, false), r.Address, r.Email)
		}
		return joinKey(nameKey(r, false), r.Address)
	})

	out := make([]group, 0, len(groups))
	for _, g := range groups {
		if !strictEmail {
			emails := make(map[string]struct{})
			for _, r := range g.records {
				if r.Email != "" {
					emails[r.Email] = struct{}{}
				}
			}
			if len(emails) > 1 {
				g.records = ectolinq.Filter(g.records, func(r *models.Record) bool { return r.Email == "" })
			}
		}
		if len(g.records) < 2 {
			continue
		}
		if hasDelivery(g.records, models.DeliveryPortal) && hasDelivery(g.records, models.DeliveryPhysisch) {
			out = append(out, g)
		}
	}
	return toMembers(out)
}

// EmailDuplicates groups records sharing a non-empty email. Portal groups
// need at least one Portal member; physisch groups need every member to be
// Physisch.
func EmailDuplicates(records []*models.Record, portal bool) []*models.Member {
	groups := groupBy(records, func(r *models.Record) string { return r.Email })

	out := ectolinq.Filter(groups, func(g group) bool {
		if len(g.records) < 2 {
			return false
		}
		if portal {
			return hasDelivery(g.records, models.DeliveryPortal)
		}
		for _, r := range g.records {
			if r.Delivery != models.DeliveryPhysisch {
				return false
			}
		}
		return true
	})
	return toMembers(out)
}

// FDAServiceRole keeps clusters whose members share one delivery method,
// where exactly one member holds only the "FDA" service role and every
// other member holds none.
func FDAServiceRole(members []*models.Member) ([]*models.Member, error) {
	order, groups := models.GroupByCluster(members)

	out := make([]*models.Member, 0)
	for _, id := range order {
		g := groups[id]
		fda, empty := 0, 0
		deliveries := make(map[models.DeliveryMethod]struct{})
		for _, m := range g {
			switch roles := strings.Join(m.Record.ServiceRoles, ", "); roles {
			case "FDA":
				fda++
			case "":
				empty++
			}
			deliveries[m.Record.Delivery] = struct{}{}
		}
		if fda == 1 && empty == len(g)-1 && len(deliveries) == 1 {
			out = append(out, g...)
		}
	}

	if len(out) == 0 {
		return out, clerrors.NewEmptyResultNotice("", "FDA_servicerole")
	}
	return out, nil
}
