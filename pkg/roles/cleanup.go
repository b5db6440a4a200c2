package roles

import (
	"github.com/Ramsey-B/clover/pkg/models"
)

func groupRoleMembers(members []*models.RoleMember) ([]models.ClusterID, map[models.ClusterID][]*models.RoleMember) {
	order := make([]models.ClusterID, 0)
	groups := make(map[models.ClusterID][]*models.RoleMember)
	for _, m := range members {
		if _, ok := groups[m.ClusterID]; !ok {
			order = append(order, m.ClusterID)
		}
		groups[m.ClusterID] = append(groups[m.ClusterID], m)
	}
	return order, groups
}

// occurrences counts, per role, how often every object is held in group
func occurrences(group []*models.RoleMember) (map[models.Role]map[string]int, []string) {
	counts := make(map[models.Role]map[string]int, len(models.Roles))
	objects := make([]string, 0)
	seen := make(map[string]struct{})
	for _, role := range models.Roles {
		counts[role] = make(map[string]int)
	}
	for _, m := range group {
		for _, role := range models.Roles {
			for _, o := range m.Holdings.Objects[role] {
				counts[role][o]++
				if _, ok := seen[o]; !ok {
					seen[o] = struct{}{}
					objects = append(objects, o)
				}
			}
		}
	}
	return counts, objects
}

func keepClusters(members []*models.RoleMember, keep func(group []*models.RoleMember) bool) []*models.RoleMember {
	out := make([]*models.RoleMember, 0)
	order, groups := groupRoleMembers(members)
	for _, id := range order {
		if keep(groups[id]) {
			out = append(out, groups[id]...)
		}
	}
	return out
}

// KeepCompleteRoleCoverage keeps clusters in which every object is held
// exactly once as owner, once as billing recipient and once as
// correspondence recipient. Clusters without owner and correspondence
// objects are dropped.
func KeepCompleteRoleCoverage(members []*models.RoleMember) []*models.RoleMember {
	return keepClusters(members, func(group []*models.RoleMember) bool {
		counts, objects := occurrences(group)
		if len(counts[models.RoleOwner]) == 0 && len(counts[models.RoleCorrespondence]) == 0 {
			return false
		}
		for _, o := range objects {
			for _, role := range models.Roles {
				if counts[role][o] != 1 {
					return false
				}
			}
		}
		return true
	})
}

// KeepTwoRoleCoverage keeps clusters in which every object appears in
// exactly two of the three roles. Clusters without any role are dropped.
func KeepTwoRoleCoverage(members []*models.RoleMember) []*models.RoleMember {
	return keepClusters(members, func(group []*models.RoleMember) bool {
		counts, objects := occurrences(group)
		if len(objects) == 0 {
			return false
		}
		for _, o := range objects {
			covered := 0
			for _, role := range models.Roles {
				if counts[role][o] > 0 {
					covered++
				}
			}
			if covered != 2 {
				return false
			}
		}
		return true
	})
}
