package filters

import (
	"github.com/Ramsey-B/clover/pkg/cluster"
	clerrors "github.com/Ramsey-B/clover/pkg/errors"
	"github.com/Ramsey-B/clover/pkg/models"
)

// Administrator split buckets
const (
	BucketOnlyEmployees          = "only_Mitarbeiter"
	BucketOneAdministrator       = "one_Administrator"
	BucketMultipleAdministrators = "multiple_Administrator"
)

// AdministratorBuckets lists the split buckets in report order
var AdministratorBuckets = []string{BucketOnlyEmployees, BucketOneAdministrator, BucketMultipleAdministrators}

// SameOrganisation subdivides individual clusters by the object of each
// member's first relation. Subgroups of two or more linked to an existing
// organization get the id "<cluster>_<suffix>"; members linked to an
// unknown organization are reported.
func SameOrganisation(members []*models.Member, organizations []*models.Record) ([]*models.Member, []clerrors.DataQualityWarning) {
	known := make(map[string]struct{}, len(organizations))
	for _, o := range organizations {
		known[o.ReferenceID] = struct{}{}
	}

	var warnings []clerrors.DataQualityWarning
	out := make([]*models.Member, 0)

	order, groups := models.GroupByCluster(members)
	for _, id := range order {
		orgOrder := make([]string, 0)
		byOrg := make(map[string][]*models.Member)
		for _, m := range groups[id] {
			org := ""
			if len(m.Record.Relations) > 0 {
				org = m.Record.Relations[0].ObjectID
			}
			if _, ok := byOrg[org]; !ok {
				orgOrder = append(orgOrder, org)
			}
			byOrg[org] = append(byOrg[org], m)
		}

		n := 0
		for _, org := range orgOrder {
			sub := byOrg[org]
			if _, ok := known[org]; !ok {
				for _, m := range sub {
					warnings = append(warnings, clerrors.NewDataQualityWarning(
						clerrors.WarningMissingOrganisation, m.Record.ReferenceID,
						"%s has no matching organisation for %q", m.Record.Name, org))
				}
				continue
			}
			if len(sub) < 2 {
				continue
			}
			sid := id.WithSuffix(cluster.Suffix(n))
			n++
			for _, m := range sub {
				c := *m
				c.ClusterID = sid
				out = append(out, &c)
			}
		}
	}
	return out, warnings
}

// SplitByAdministrators sorts clusters into buckets by how many members
// hold an Administrator relation. Empty buckets are omitted.
func SplitByAdministrators(members []*models.Member) map[string][]*models.Member {
	out := make(map[string][]*models.Member)

	order, groups := models.GroupByCluster(members)
	for _, id := range order {
		admins := 0
		for _, m := range groups[id] {
			for _, k := range m.Record.RelationKinds() {
				if k == models.RelationAdministrator {
					admins++
					break
				}
			}
		}

		bucket := BucketMultipleAdministrators
		switch admins {
		case 0:
			bucket = BucketOnlyEmployees
		case 1:
			bucket = BucketOneAdministrator
		}
		out[bucket] = append(out[bucket], groups[id]...)
	}
	return out
}
