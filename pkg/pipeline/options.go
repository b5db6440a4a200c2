package pipeline

import (
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Ramsey-B/clover/pkg/enrich"
	clerrors "github.com/Ramsey-B/clover/pkg/errors"
	"github.com/Ramsey-B/clover/pkg/filters"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/roles"
	"github.com/Ramsey-B/clover/pkg/statistics"
)

var validate = validator.New()

// DefaultPolicies are the role classifications run for every product
var DefaultPolicies = []roles.Policy{
	{RolesPerProduct: 3, MembersPerProduct: 3},
	{RolesPerProduct: 3, MembersPerProduct: 2},
	{RolesPerProduct: 2, MembersPerProduct: 2},
}

// Input holds the extracts of one run
type Input struct {
	Organizations            []models.RawRow         `json:"organizations"`
	Individuals              []models.RawRow         `json:"individuals"`
	Assignments              []models.RoleAssignment `json:"assignments"`
	PersonRoles              []models.PersonRoleRow  `json:"person_roles"`
	OrganizationServiceRoles []models.ServiceRoleRow `json:"organization_service_roles"`
	IndividualServiceRoles   []models.ServiceRoleRow `json:"individual_service_roles"`
	Partners                 []enrich.Partner        `json:"partners"`
}

// Options controls a run
type Options struct {
	// Products lists the product names to partition. Empty means every
	// product type of the role table that has a name.
	Products           []string `validate:"dive,required"`
	Policies           []roles.Policy
	DropOtherRelations bool
	Organizations      filters.OrganizationCriteria
	Individuals        filters.IndividualCriteria
	StrictEmail        bool
}

// DefaultOptions enables every exclusion predicate and all three policies
func DefaultOptions() Options {
	return Options{
		Policies:      DefaultPolicies,
		Organizations: filters.DefaultOrganizationCriteria(),
		Individuals:   filters.DefaultIndividualCriteria(),
		StrictEmail:   true,
	}
}

// Validate rejects empty product names and unsupported policies
func (o Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		return fmt.Errorf("invalid run options: %w", err)
	}
	for _, p := range o.Policies {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Graph is the merged full match graph with its components
type Graph struct {
	Edges    []models.Edge    `json:"edges"`
	Clusters []models.Cluster `json:"clusters"`
	Special  []string         `json:"special_nodes"`
}

// Result is the report set of a run. It is stored as an opaque snapshot.
type Result struct {
	RunID       string    `json:"run_id"`
	Fingerprint string    `json:"fingerprint"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`

	Records []*models.Record `json:"records"`
	Graph   Graph            `json:"graph"`

	Organizations     []*models.Member            `json:"organizations"`
	Individuals       []*models.Member            `json:"individuals"`
	IndividualBuckets map[string][]*models.Member `json:"individual_buckets"`

	// Partitions is keyed by product name, then bucket name
	Partitions  map[string]map[string][]*models.PartitionRow `json:"partitions"`
	Statistics  []statistics.Row                             `json:"statistics"`
	Supplements map[string][]*models.Member                  `json:"supplements"`

	Warnings []clerrors.DataQualityWarning `json:"warnings,omitempty"`
	Notices  []*clerrors.EmptyResultNotice `json:"notices,omitempty"`
}

func countClusters(members []*models.Member) int {
	order, _ := models.GroupByCluster(members)
	return len(order)
}

// Summary condenses the result for events and listings
func (r *Result) Summary() models.RunSummary {
	warnings := make(map[string]int)
	for _, w := range r.Warnings {
		warnings[string(w.Kind)]++
	}

	products := make([]string, 0, len(r.Partitions))
	for p := range r.Partitions {
		products = append(products, p)
	}
	sort.Strings(products)

	return models.RunSummary{
		RunID:                  r.RunID,
		Fingerprint:            r.Fingerprint,
		Status:                 models.RunStatusCompleted,
		StartedAt:              r.StartedAt,
		FinishedAt:             r.FinishedAt,
		Records:                len(r.Records),
		Clusters:               len(r.Graph.Clusters),
		OrganizationDuplicates: countClusters(r.Organizations),
		IndividualDuplicates:   countClusters(r.Individuals),
		Products:               products,
		Warnings:               warnings,
		Notices:                len(r.Notices),
	}
}
