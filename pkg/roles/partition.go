package roles

import (
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"

	"github.com/Ramsey-B/clover/pkg/cluster"
	clerrors "github.com/Ramsey-B/clover/pkg/errors"
	"github.com/Ramsey-B/clover/pkg/models"
)

// Bucket names
const (
	BucketComplete               = "Komplette_Doubletten"
	BucketOwnerSeparate          = "Inhaber_Separat"
	BucketBillingSeparate        = "Rechempf_Separat"
	BucketCorrespondenceSeparate = "KorrEmpf_Separat"
	BucketOwnerBilling           = "Inhaber_RechEmpf"
	BucketOwnerCorrespondence    = "Inhaber_KorrEmpf"
	BucketCorrespondenceBilling  = "KorrEmpf_RechEmpf"
	BucketOther                  = "Sonstige"
)

var (
	separateBuckets = map[models.Role]string{
		models.RoleOwner:          BucketOwnerSeparate,
		models.RoleBilling:        BucketBillingSeparate,
		models.RoleCorrespondence: BucketCorrespondenceSeparate,
	}
	// pairBuckets is keyed by the role that is absent
	pairBuckets = map[models.Role]string{
		models.RoleCorrespondence: BucketOwnerBilling,
		models.RoleBilling:        BucketOwnerCorrespondence,
		models.RoleOwner:          BucketCorrespondenceBilling,
	}
	bucketOrder = map[string][]string{
		"3/3": {BucketComplete},
		"3/2": {BucketOwnerSeparate, BucketBillingSeparate, BucketCorrespondenceSeparate},
		"2/2": {BucketOwnerCorrespondence, BucketOwnerBilling, BucketCorrespondenceBilling, BucketOther},
	}
)

var validate = validator.New()

// Policy selects the classification: how many roles a product must have
// covered and over how many members.
type Policy struct {
	RolesPerProduct   int `validate:"oneof=2 3"`
	MembersPerProduct int `validate:"oneof=2 3"`
}

func (p Policy) String() string {
	return fmt.Sprintf("%d/%d", p.RolesPerProduct, p.MembersPerProduct)
}

// Validate rejects unsupported combinations
func (p Policy) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("invalid role policy %s: %w", p, err)
	}
	if p.RolesPerProduct == 2 && p.MembersPerProduct != 2 {
		return fmt.Errorf("invalid role policy %s: two roles require two members", p)
	}
	return nil
}

// Bucket is one named classification with its rows
type Bucket struct {
	Name string                 `json:"name"`
	Rows []*models.PartitionRow `json:"rows"`
}

// objectHolders lists, per role, the positions in the cluster group of the
// members holding one object.
type objectHolders map[models.Role][]int

func holdersOf(group []*models.RoleMember, object string) objectHolders {
	h := make(objectHolders, len(models.Roles))
	for i, m := range group {
		for _, role := range models.Roles {
			if m.Holdings.Holds(role, object) {
				h[role] = append(h[role], i)
			}
		}
	}
	return h
}

// rolesOf returns how many roles member i holds for the object
func (h objectHolders) rolesOf(i int) int {
	n := 0
	for _, role := range models.Roles {
		for _, j := range h[role] {
			if j == i {
				n++
			}
		}
	}
	return n
}

func (h objectHolders) members() []int {
	seen := make(map[int]struct{})
	out := make([]int, 0)
	for _, role := range models.Roles {
		for _, i := range h[role] {
			if _, ok := seen[i]; !ok {
				seen[i] = struct{}{}
				out = append(out, i)
			}
		}
	}
	sort.Ints(out)
	return out
}

func (h objectHolders) memberships() int {
	n := 0
	for _, role := range models.Roles {
		n += len(h[role])
	}
	return n
}

// classifier decides the bucket of one object, or "" to reject it
type classifier func(h objectHolders) string

func classifyComplete(h objectHolders) string {
	seen := make(map[int]struct{})
	for _, role := range models.Roles {
		if len(h[role]) != 1 {
			return ""
		}
		seen[h[role][0]] = struct{}{}
	}
	if len(seen) != 3 {
		return ""
	}
	return BucketComplete
}

func classifySeparate(h objectHolders) string {
	members := h.members()
	if h.memberships() != 3 || len(members) != 2 {
		return ""
	}
	for _, role := range models.Roles {
		if len(h[role]) == 1 && h.rolesOf(h[role][0]) == 1 {
			return separateBuckets[role]
		}
	}
	return ""
}

func classifyPairs(h objectHolders) string {
	var absent models.Role
	covered := 0
	for _, role := range models.Roles {
		switch len(h[role]) {
		case 0:
			absent = role
		case 1:
			covered++
		default:
			return BucketOther
		}
	}
	if covered != 2 || len(h.members()) != 2 {
		return BucketOther
	}
	return pairBuckets[absent]
}

// Partition classifies every object held in each cluster under policy and
// emits one row per role-holding member of an accepted object. Rows of one
// object share the id "<cluster>_<suffix>", with suffixes assigned per
// cluster in sorted object order. Subdivisions with a single row are
// removed and empty buckets omitted. When nothing remains the returned
// error is an EmptyResultNotice.
func Partition(product string, members []*models.RoleMember, policy Policy) ([]Bucket, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	var classify classifier
	switch {
	case policy.RolesPerProduct == 3 && policy.MembersPerProduct == 3:
		classify = classifyComplete
	case policy.RolesPerProduct == 3:
		classify = classifySeparate
	default:
		classify = classifyPairs
	}

	rows := make(map[string][]*models.PartitionRow)
	order, groups := groupRoleMembers(members)
	for _, id := range order {
		group := groups[id]
		_, objects := occurrences(group)
		sort.Strings(objects)

		for n, object := range objects {
			h := holdersOf(group, object)
			bucket := classify(h)
			if bucket == "" {
				continue
			}
			// n counts rejected objects too, so suffixes can skip letters
			sid := id.WithSuffix(cluster.Suffix(n))
			for _, i := range h.members() {
				rows[bucket] = append(rows[bucket], newRow(group[i], sid, object))
			}
		}
	}

	buckets := make([]Bucket, 0)
	for _, name := range bucketOrder[policy.String()] {
		kept := dropSingletons(rows[name])
		if len(kept) > 0 {
			buckets = append(buckets, Bucket{Name: name, Rows: kept})
		}
	}

	if len(buckets) == 0 {
		return buckets, clerrors.NewEmptyResultNotice(product, policy.String())
	}
	return buckets, nil
}

func newRow(m *models.RoleMember, id models.ClusterID, object string) *models.PartitionRow {
	row := &models.PartitionRow{
		Record:    m.Record,
		ClusterID: id,
		Score:     m.Score,
		Master:    m.Master,
		Objects:   make(map[models.Role]string, len(models.Roles)),
		ProductID: make(map[models.Role]string, len(models.Roles)),
	}
	for _, role := range models.Roles {
		if m.Holdings.Holds(role, object) {
			row.Objects[role] = object
			row.ProductID[role] = m.Holdings.ProductIDFor(role, object)
		}
	}
	return row
}

func dropSingletons(rows []*models.PartitionRow) []*models.PartitionRow {
	counts := make(map[models.ClusterID]int)
	for _, r := range rows {
		counts[r.ClusterID]++
	}
	out := make([]*models.PartitionRow, 0, len(rows))
	for _, r := range rows {
		if counts[r.ClusterID] > 1 {
			out = append(out, r)
		}
	}
	return out
}
