package models

import "time"

// AddressParts holds the split postal address columns of an extract
type AddressParts struct {
	Street        string `json:"street,omitempty"`
	HouseNumber   string `json:"house_number,omitempty"`
	Address1      string `json:"address1,omitempty"`
	Address2      string `json:"address2,omitempty"`
	PostOfficeBox string `json:"post_office_box,omitempty"`
	ZipPostalCode string `json:"zip_postal_code,omitempty"`
	City          string `json:"city,omitempty"`
	Country       string `json:"country,omitempty"`
}

// RawRow is one line of an entity extract. Records with several relations
// arrive as several rows sharing a ReferenceID.
type RawRow struct {
	ReferenceID string
	EntityType  EntityType
	Name        string
	NameLine2   string
	Phone       string
	Email       string
	Link        string
	Active      bool
	CreatedAt   time.Time

	Address           AddressParts
	CorrespondenceAdr AddressParts

	RelationKind       string
	RelatedObjectID    string
	RelatedObjectLabel string

	BillingCode         float64
	UID                 string
	UIDMaster           bool
	Delivery            string
	BusinessObjectCount float64
	ObjectPointerCount  float64
}

// ServiceRoleRow links a record to a service role id
type ServiceRoleRow struct {
	ReferenceID   string
	ServiceRoleID string
}

// PersonRoleRow is one row of the person product-role extract
type PersonRoleRow struct {
	ContactPerson   string
	TechnicalPerson string
	StatisticPerson string
	ProductTypeID   string
	ProductID       string
}
