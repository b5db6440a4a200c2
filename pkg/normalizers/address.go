package normalizers

import (
	"strings"

	"github.com/Ramsey-B/clover/pkg/models"
)

// BuildAddress joins the address columns into one normalized string. When
// the postal address is empty, organizations fall back to their
// correspondence address; individuals have none and get "". The second
// return value is false when a postal code was not numeric.
func BuildAddress(primary, correspondence models.AddressParts, organisation bool) (string, bool) {
	zip, zipOK := ParseZip(primary.ZipPostalCode)
	if zip == "" && organisation {
		zip, zipOK = ParseZip(correspondence.ZipPostalCode)
	}

	parts := primary
	if allMissing(withoutZip(primary)...) {
		if !organisation {
			return "", zipOK
		}
		parts = correspondence
		if allMissing(append(withoutZip(parts), zip)...) {
			return "", zipOK
		}
	}

	elements := []string{
		parts.Street,
		parts.HouseNumber,
		parts.Address1,
		parts.Address2,
		parts.PostOfficeBox,
		zip,
		parts.City,
		parts.Country,
	}

	kept := make([]string, 0, len(elements))
	for _, e := range elements {
		if IsMissing(e) {
			continue
		}
		kept = append(kept, strings.TrimSpace(e))
	}

	return NormalizeString(strings.Join(kept, ", ")), zipOK
}

func withoutZip(p models.AddressParts) []string {
	return []string{p.Street, p.HouseNumber, p.Address1, p.Address2, p.PostOfficeBox, p.City, p.Country}
}

func allMissing(values ...string) bool {
	for _, v := range values {
		if !IsMissing(v) {
			return false
		}
	}
	return true
}
