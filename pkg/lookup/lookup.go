// Package lookup holds the static id-to-name tables (product types,
// service roles) the pipeline resolves display names through.
package lookup

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Func resolves an identifier to a display name
type Func func(id string) (string, bool)

// Table maps identifiers to display names
type Table map[string]string

// Lookup resolves id through the table
func (t Table) Lookup(id string) (string, bool) {
	name, ok := t[id]
	return name, ok
}

// NameOr returns the name of id or fallback
func (t Table) NameOr(id, fallback string) string {
	if name, ok := t[id]; ok {
		return name
	}
	return fallback
}

// IDOf is the reverse lookup, used to resolve a product name given on the
// command line to its type id.
func (t Table) IDOf(name string) (string, bool) {
	for id, n := range t {
		if n == name {
			return id, true
		}
	}
	return "", false
}

// Tables is the full set of lookup tables of a deployment
type Tables struct {
	Products          Table `yaml:"products"`
	PersonProducts    Table `yaml:"person_products"`
	ProductCategories Table `yaml:"product_categories"`
	ServiceRoles      Table `yaml:"service_roles"`
}

// Load reads lookup tables from a YAML file
func Load(path string) (*Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lookup tables %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes lookup tables from YAML
func Parse(data []byte) (*Tables, error) {
	var tables Tables
	if err := yaml.Unmarshal(data, &tables); err != nil {
		return nil, fmt.Errorf("failed to parse lookup tables: %w", err)
	}
	if tables.Products == nil {
		tables.Products = Table{}
	}
	if tables.PersonProducts == nil {
		tables.PersonProducts = Table{}
	}
	if tables.ProductCategories == nil {
		tables.ProductCategories = Table{}
	}
	if tables.ServiceRoles == nil {
		tables.ServiceRoles = Table{}
	}
	return &tables, nil
}
