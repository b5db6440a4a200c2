package normalizers

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Ramsey-B/clover/pkg/models"
)

func TestNormalizeString(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Muster   AG ", "muster ag"},
		{"Muster\tAG\nZürich", "muster ag zürich"},
		{"nan", ""},
		{"<NA>", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeString(tt.in))
		})
	}
}

func TestNormalizePhoneAndEmail(t *testing.T) {
	assert.Equal(t, "+41441234567", NormalizePhone("+41 44 123 45 67"))
	assert.Equal(t, "044-123", NormalizePhone("044-123"))
	assert.Equal(t, "", NormalizePhone("nan"))
	assert.Equal(t, "info@muster.ch", NormalizeEmail("  Info@Muster.CH "))
	assert.Equal(t, "", NormalizeEmail("None"))
}

func TestParseZip(t *testing.T) {
	zip, ok := ParseZip("8001.0")
	assert.True(t, ok)
	assert.Equal(t, "8001", zip)

	zip, ok = ParseZip("SW1A 1AA")
	assert.False(t, ok)
	assert.Equal(t, "SW1A 1AA", zip)

	zip, ok = ParseZip("nan")
	assert.True(t, ok)
	assert.Equal(t, "", zip)
}

func TestAbbreviateFirstName(t *testing.T) {
	assert.Equal(t, "h. muster", AbbreviateFirstName("hans  muster"))
	assert.Equal(t, "h. muster", AbbreviateFirstName("h. muster"))
	assert.Equal(t, "muster", AbbreviateFirstName("muster"))
	assert.Equal(t, "é. favre", AbbreviateFirstName("élise favre"))
}

func TestBuildAddress(t *testing.T) {
	primary := models.AddressParts{
		Street:        "Bahnhofstrasse",
		HouseNumber:   "1",
		ZipPostalCode: "8001.0",
		City:          "Zürich",
		Country:       "Schweiz",
	}

	t.Run("joins primary address", func(t *testing.T) {
		addr, ok := BuildAddress(primary, models.AddressParts{}, false)
		assert.True(t, ok)
		assert.Equal(t, "bahnhofstrasse, 1, 8001, zürich, schweiz", addr)
	})

	t.Run("organisation falls back to correspondence address", func(t *testing.T) {
		korr := models.AddressParts{Street: "Postfach", ZipPostalCode: "3000", City: "Bern"}
		addr, _ := BuildAddress(models.AddressParts{Address1: "nan"}, korr, true)
		assert.Equal(t, "postfach, 3000, bern", addr)
	})

	t.Run("organisation keeps primary zip with correspondence fallback", func(t *testing.T) {
		korr := models.AddressParts{Street: "Postfach", City: "Bern"}
		addr, _ := BuildAddress(models.AddressParts{ZipPostalCode: "3001"}, korr, true)
		assert.Equal(t, "postfach, 3001, bern", addr)
	})

	t.Run("individual without address is empty", func(t *testing.T) {
		addr, _ := BuildAddress(models.AddressParts{ZipPostalCode: "8001"}, models.AddressParts{Street: "x"}, false)
		assert.Equal(t, "", addr)
	})

	t.Run("non numeric zip is reported", func(t *testing.T) {
		p := primary
		p.ZipPostalCode = "SW1A 1AA"
		addr, ok := BuildAddress(p, models.AddressParts{}, false)
		assert.False(t, ok)
		assert.Equal(t, "bahnhofstrasse, 1, sw1a 1aa, zürich, schweiz", addr)
	})
}
