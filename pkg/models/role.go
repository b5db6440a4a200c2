package models

// Role is one of the three product roles of the organisation role extract
type Role string

const (
	RoleOwner          Role = "Inhaber"
	RoleBilling        Role = "Rechnungsempfaenger"
	RoleCorrespondence Role = "Korrespondenzempfaenger"
)

// Roles lists the product roles in partition column order
var Roles = []Role{RoleOwner, RoleBilling, RoleCorrespondence}

// RoleAssignment is one row of the organisation role extract: a product
// object and the records holding its three roles.
type RoleAssignment struct {
	Owner                   string     `json:"owner"`
	OwnerType               EntityType `json:"owner_type,omitempty"`
	BillingRecipient        string     `json:"billing_recipient"`
	BillingType             EntityType `json:"billing_type,omitempty"`
	CorrespondenceRecipient string     `json:"correspondence_recipient"`
	CorrespondenceType      EntityType `json:"correspondence_type,omitempty"`
	ProductTypeID           string     `json:"product_type_id"`
	ProductID               string     `json:"product_id"`
	ProductObject           string     `json:"product_object"`
}

// Holder returns the reference id holding role
func (a RoleAssignment) Holder(role Role) string {
	switch role {
	case RoleOwner:
		return a.Owner
	case RoleBilling:
		return a.BillingRecipient
	case RoleCorrespondence:
		return a.CorrespondenceRecipient
	}
	return ""
}

// HolderType returns the entity type label of the holder of role
func (a RoleAssignment) HolderType(role Role) EntityType {
	switch role {
	case RoleOwner:
		return a.OwnerType
	case RoleBilling:
		return a.BillingType
	case RoleCorrespondence:
		return a.CorrespondenceType
	}
	return ""
}

// OrganisationHeld reports whether no role holder is labelled as anything
// but an organization. Unlabelled holders and empty roles pass.
func (a RoleAssignment) OrganisationHeld() bool {
	for _, role := range Roles {
		if a.Holder(role) == "" {
			continue
		}
		if t := a.HolderType(role); t != "" && t != EntityTypeOrganization {
			return false
		}
	}
	return true
}

// RoleHoldings lists, per role, the product objects a member holds and
// the product ids at the same positions.
type RoleHoldings struct {
	Objects    map[Role][]string `json:"objects"`
	ProductIDs map[Role][]string `json:"product_ids"`
}

// NewRoleHoldings returns empty holdings for all roles
func NewRoleHoldings() RoleHoldings {
	h := RoleHoldings{
		Objects:    make(map[Role][]string, len(Roles)),
		ProductIDs: make(map[Role][]string, len(Roles)),
	}
	return h
}

// Holds reports whether object is held in role
func (h RoleHoldings) Holds(role Role, object string) bool {
	for _, o := range h.Objects[role] {
		if o == object {
			return true
		}
	}
	return false
}

// ProductIDFor returns the product id paired with object in role
func (h RoleHoldings) ProductIDFor(role Role, object string) string {
	ids := h.ProductIDs[role]
	for i, o := range h.Objects[role] {
		if o == object {
			if i < len(ids) {
				return ids[i]
			}
			return ""
		}
	}
	return ""
}

// Empty reports whether no role holds any object
func (h RoleHoldings) Empty() bool {
	for _, role := range Roles {
		if len(h.Objects[role]) > 0 {
			return false
		}
	}
	return true
}

// RoleMember is a cluster member annotated with its holdings for one product type
type RoleMember struct {
	*Member
	Holdings RoleHoldings `json:"holdings"`
}

// PartitionRow is one output row of the role partitioner: a member and the
// single product object it was classified for.
type PartitionRow struct {
	Record    *Record         `json:"record"`
	ClusterID ClusterID       `json:"cluster_id"`
	Score     int             `json:"score"`
	Master    bool            `json:"master"`
	Objects   map[Role]string `json:"objects"`
	ProductID map[Role]string `json:"product_ids"`
}

// Object returns the object this row was classified for
func (r *PartitionRow) Object() string {
	for _, role := range Roles {
		if o := r.Objects[role]; o != "" {
			return o
		}
	}
	return ""
}
