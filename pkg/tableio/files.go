package tableio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"

	"github.com/Ramsey-B/clover/pkg/enrich"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/pipeline"
)

// Table names used in schema errors
const (
	TableOrganizations            = "organisationen"
	TableIndividuals              = "personen"
	TableAssignments              = "organisationsrollen"
	TablePersonRoles              = "personenrollen"
	TableOrganizationServiceRoles = "organisationservicerolle"
	TableIndividualServiceRoles   = "personenservicerolle"
)

// Paths locates the extracts of one run. Optional tables are skipped when
// their path is empty.
type Paths struct {
	Organizations            string
	Individuals              string
	Assignments              string
	PersonRoles              string
	OrganizationServiceRoles string
	IndividualServiceRoles   string
	// Partners maps a business partner name to its reference id table
	Partners map[string]string
}

func readFile[T any](path string, read func(io.Reader) (T, error)) (T, error) {
	var zero T
	f, err := os.Open(path)
	if err != nil {
		return zero, errors.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()
	return read(f)
}

func optional[T any](path string, read func(io.Reader) ([]T, error)) ([]T, error) {
	if path == "" {
		return nil, nil
	}
	return readFile(path, read)
}

// LoadInput reads every extract named in p
func LoadInput(p Paths) (pipeline.Input, error) {
	var in pipeline.Input
	var err error

	if p.Organizations == "" {
		return in, fmt.Errorf("input table '%s' is required", TableOrganizations)
	}
	if p.Individuals == "" {
		return in, fmt.Errorf("input table '%s' is required", TableIndividuals)
	}
	if p.Assignments == "" {
		return in, fmt.Errorf("input table '%s' is required", TableAssignments)
	}

	in.Organizations, err = readFile(p.Organizations, func(r io.Reader) ([]models.RawRow, error) {
		return ReadEntities(r, TableOrganizations, models.EntityTypeOrganization)
	})
	if err != nil {
		return in, err
	}
	in.Individuals, err = readFile(p.Individuals, func(r io.Reader) ([]models.RawRow, error) {
		return ReadEntities(r, TableIndividuals, models.EntityTypeIndividual)
	})
	if err != nil {
		return in, err
	}
	in.Assignments, err = readFile(p.Assignments, func(r io.Reader) ([]models.RoleAssignment, error) {
		return ReadAssignments(r, TableAssignments)
	})
	if err != nil {
		return in, err
	}
	in.PersonRoles, err = optional(p.PersonRoles, func(r io.Reader) ([]models.PersonRoleRow, error) {
		return ReadPersonRoles(r, TablePersonRoles)
	})
	if err != nil {
		return in, err
	}
	in.OrganizationServiceRoles, err = optional(p.OrganizationServiceRoles, func(r io.Reader) ([]models.ServiceRoleRow, error) {
		return ReadServiceRoles(r, TableOrganizationServiceRoles)
	})
	if err != nil {
		return in, err
	}
	in.IndividualServiceRoles, err = optional(p.IndividualServiceRoles, func(r io.Reader) ([]models.ServiceRoleRow, error) {
		return ReadServiceRoles(r, TableIndividualServiceRoles)
	})
	if err != nil {
		return in, err
	}

	names := make([]string, 0, len(p.Partners))
	for name := range p.Partners {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		ids, err := readFile(p.Partners[name], func(r io.Reader) ([]string, error) {
			return ReadPartner(r, name)
		})
		if err != nil {
			return in, err
		}
		in.Partners = append(in.Partners, enrich.Partner{Name: name, ReferenceIDs: ids})
	}

	return in, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	if err := write(f); err != nil {
		f.Close()
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return f.Close()
}

// WriteResult writes every report table of result below dir and returns
// the written paths in write order.
func WriteResult(dir string, result *pipeline.Result) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "failed to create %s", dir)
	}

	written := make([]string, 0)
	members := func(name string, ms []*models.Member) error {
		path := filepath.Join(dir, name+".csv")
		written = append(written, path)
		return writeFile(path, func(w io.Writer) error { return WriteMembers(w, ms) })
	}

	if err := members("Organisationen", result.Organizations); err != nil {
		return written, err
	}
	if err := members("Personen", result.Individuals); err != nil {
		return written, err
	}
	for _, name := range sortedKeys(result.IndividualBuckets) {
		if err := members("Personen_"+name, result.IndividualBuckets[name]); err != nil {
			return written, err
		}
	}
	for _, name := range sortedKeys(result.Supplements) {
		if err := members(name, result.Supplements[name]); err != nil {
			return written, err
		}
	}

	for _, product := range sortedKeys(result.Partitions) {
		buckets := result.Partitions[product]
		for _, bucket := range sortedKeys(buckets) {
			path := filepath.Join(dir, fmt.Sprintf("%s_%s.csv", product, bucket))
			written = append(written, path)
			rows := buckets[bucket]
			if err := writeFile(path, func(w io.Writer) error { return WritePartitionRows(w, rows) }); err != nil {
				return written, err
			}
		}
	}

	path := filepath.Join(dir, "Statistik.csv")
	written = append(written, path)
	if err := writeFile(path, func(w io.Writer) error { return WriteStatistics(w, result.Statistics) }); err != nil {
		return written, err
	}
	return written, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
