package models

import "time"

// EntityType distinguishes the two registries
type EntityType string

const (
	EntityTypeOrganization EntityType = "Organisation"
	EntityTypeIndividual   EntityType = "Person"
)

// RelationKind is the upstream label of a record-to-record link
type RelationKind string

const (
	RelationEmployee      RelationKind = "Mitarbeiter"
	RelationAdministrator RelationKind = "Administrator"
	RelationOther         RelationKind = "Sonstiges"
)

// DeliveryMethod is the upstream Versandart
type DeliveryMethod string

const (
	DeliveryPortal   DeliveryMethod = "Portal"
	DeliveryPhysisch DeliveryMethod = "Physisch"
)

// Relation is one aggregated link from a record to another object
type Relation struct {
	Kind        RelationKind `json:"kind"`
	ObjectID    string       `json:"object_id"`
	ObjectLabel string       `json:"object_label,omitempty"`
}

// ProductRole is a role a record holds for a product, e.g. "Inhaber (FDA)"
type ProductRole struct {
	Role      string `json:"role"`
	ProductID string `json:"product_id"`
}

// Record is one entity row after cleanup and relation aggregation
type Record struct {
	ReferenceID  string     `json:"reference_id"`
	EntityType   EntityType `json:"entity_type"`
	Name         string     `json:"name"`
	NameOriginal string     `json:"name_original,omitempty"`
	NameLine2    string     `json:"name_line2,omitempty"`
	Address      string     `json:"address"`
	Phone        string     `json:"phone"`
	Email        string     `json:"email"`
	Link         string     `json:"link,omitempty"`
	Active       bool       `json:"active"`
	CreatedAt    time.Time  `json:"created_at"`

	Relations []Relation `json:"relations,omitempty"`

	BillingCode         float64        `json:"billing_code"`
	UID                 string         `json:"uid,omitempty"`
	UIDMaster           bool           `json:"uid_master"`
	Delivery            DeliveryMethod `json:"delivery,omitempty"`
	BusinessObjectCount float64        `json:"business_object_count"`
	ObjectPointerCount  float64        `json:"object_pointer_count"`

	BusinessPartners []string      `json:"business_partners,omitempty"`
	ServiceRoles     []string      `json:"service_roles,omitempty"`
	ServiceRoleCount int           `json:"service_role_count"`
	OwnerCount       int           `json:"owner_count"`
	AddresseeCount   int           `json:"addressee_count"`
	ProductRoles     []ProductRole `json:"product_roles,omitempty"`
}

// NameKey returns the value used for name equality. Organizations append
// the second name line so that departments of one legal entity stay apart.
func (r *Record) NameKey() string {
	if r.EntityType == EntityTypeOrganization && r.NameLine2 != "" {
		return r.Name + "|" + r.NameLine2
	}
	return r.Name
}

// RelationKinds returns the relation kinds in aggregation order
func (r *Record) RelationKinds() []RelationKind {
	kinds := make([]RelationKind, len(r.Relations))
	for i, rel := range r.Relations {
		kinds[i] = rel.Kind
	}
	return kinds
}

// HasServiceRole reports whether name is among the record's service roles
func (r *Record) HasServiceRole(name string) bool {
	for _, role := range r.ServiceRoles {
		if role == name {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so that derived tables never alias the
// growable slices of their source record.
func (r *Record) Clone() *Record {
	c := *r
	c.Relations = append([]Relation(nil), r.Relations...)
	c.BusinessPartners = append([]string(nil), r.BusinessPartners...)
	c.ServiceRoles = append([]string(nil), r.ServiceRoles...)
	c.ProductRoles = append([]ProductRole(nil), r.ProductRoles...)
	return &c
}
