package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Ramsey-B/clover/pkg/models"
)

func TestOrganization(t *testing.T) {
	r := &models.Record{
		EntityType:          models.EntityTypeOrganization,
		BillingCode:         4711,
		UID:                 "CHE-123",
		Delivery:            models.DeliveryPortal,
		BusinessObjectCount: 2,
		ObjectPointerCount:  25,
		Relations: []models.Relation{
			{Kind: models.RelationAdministrator},
			{Kind: models.RelationEmployee},
			{Kind: models.RelationOther},
		},
		BusinessPartners: []string{"SBB"},
		OwnerCount:       5,
		AddresseeCount:   1,
		ServiceRoleCount: 2,
	}

	s := Organization(r)

	assert.Equal(t, 100+200+100+60+100+150+100+200+30+100, s.Total)
	assert.Equal(t,
		"Debitornummer: 100, UID_CHID: 200, Versandart: 100, Geschaeftsobjekte: 60, ObjektZeiger: 100, Verknuepfungsart: 150, Geschaeftspartner: 100, Produkt_Inhaber: 200, Produkt_Adressant: 30, Servicerole: 100",
		s.Details(": "))

	r.UIDMaster = true
	assert.Equal(t, s.Total+1000, Organization(r).Total)
}

func TestOrganization_Empty(t *testing.T) {
	s := Organization(&models.Record{})
	assert.Equal(t, 0, s.Total)
	assert.Equal(t, "", s.Details(": "))
}

func TestUIDCheck(t *testing.T) {
	assert.Equal(t, 0, UIDCheck(""))
	assert.Equal(t, 1, UIDCheck("NotRegisteredCHID"))
	assert.Equal(t, 2, UIDCheck("CHE-1"))
}

func TestIndividual(t *testing.T) {
	r := &models.Record{
		EntityType:   models.EntityTypeIndividual,
		UID:          "CHE-1",
		Relations:    []models.Relation{{Kind: models.RelationEmployee}},
		ServiceRoles: []string{"Ausweis Typ A"},
		ProductRoles: []models.ProductRole{{Role: "Kontaktperson (FDA)"}},
		Email:        "a@b.ch",
		Phone:        "0441",
	}

	t.Run("portal analysis", func(t *testing.T) {
		s := Individual(r, false)
		assert.Equal(t, 100+50+100+100+20+10, s.Total)
		assert.Equal(t, "UID 100, Verknuepfungsart 50, Servicerole_string 100, Produktrolle 100, Email 20, Telefon 10", s.Details(" "))
	})

	t.Run("physisch analysis divides uid points", func(t *testing.T) {
		s := Individual(r, true)
		assert.Equal(t, 10+50+100+100+20+10, s.Total)
	})

	t.Run("email and phone are scored separately", func(t *testing.T) {
		s := Individual(&models.Record{Email: "a@b.ch", Phone: "1"}, false)
		assert.Equal(t, 30, s.Total)
	})
}

func TestApply(t *testing.T) {
	members := []*models.Member{
		{Record: &models.Record{EntityType: models.EntityTypeOrganization, BillingCode: 1}},
		{Record: &models.Record{EntityType: models.EntityTypeIndividual, Email: "x@y.ch"}},
	}

	Apply(members, false)

	assert.Equal(t, 100, members[0].Score)
	assert.Equal(t, "Debitornummer: 100", members[0].ScoreDetails)
	assert.Equal(t, 20, members[1].Score)
	assert.Equal(t, "Email 20", members[1].ScoreDetails)
}
