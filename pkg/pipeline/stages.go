package pipeline

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"

	"github.com/Ramsey-B/clover/pkg/cluster"
	clerrors "github.com/Ramsey-B/clover/pkg/errors"
	"github.com/Ramsey-B/clover/pkg/filters"
	"github.com/Ramsey-B/clover/pkg/master"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/roles"
	"github.com/Ramsey-B/clover/pkg/scoring"
	"github.com/Ramsey-B/clover/pkg/statistics"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// ErrUnknownProduct is returned for a requested product without a product type id
var ErrUnknownProduct = stderrors.New("product not found in lookup tables")

// Supplementary analysis names
const (
	SupplementNameAddressAbbreviated = "Name_Adresse_abgekuerzt"
	SupplementPortalVsPhysisch       = "Portal_vs_Physisch"
	SupplementPortalVsPhysischOrgs   = "Portal_vs_Physisch_Organisationen"
	SupplementEmailPortal            = "Email_Portal"
	SupplementEmailPhysisch          = "Email_Physisch"
	SupplementFDAServiceRole         = "FDA_Servicerole"
)

func scoreAndSelect(members []*models.Member, opts Options) {
	scoring.Apply(members, opts.Individuals.OnlyPhysisch)
	master.Select(members)
}

func cloneMembers(members []*models.Member) []*models.Member {
	out := make([]*models.Member, len(members))
	for i, m := range members {
		c := *m
		out[i] = &c
	}
	return out
}

// finalize renumbers cluster ids densely, keeping subdivision suffixes,
// and orders members by cluster with the master first.
func finalize(members []*models.Member) []*models.Member {
	master.SortByCluster(members)
	ids := make([]models.ClusterID, len(members))
	for i, m := range members {
		ids[i] = m.ClusterID
	}
	for i, id := range cluster.RenumberAlphanumeric(ids) {
		members[i].ClusterID = id
	}
	return members
}

func finalizeRows(rows []*models.PartitionRow) []*models.PartitionRow {
	ids := make([]models.ClusterID, len(rows))
	for i, r := range rows {
		ids[i] = r.ClusterID
	}
	for i, id := range cluster.RenumberAlphanumeric(ids) {
		rows[i].ClusterID = id
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].ClusterID.Less(rows[j].ClusterID) })
	return rows
}

// products returns the named product types of the role table, in order of
// first appearance.
func (p *Pipeline) products(assignments []models.RoleAssignment) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, a := range assignments {
		name, ok := p.tables.Products.Lookup(a.ProductTypeID)
		if !ok {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

func (p *Pipeline) addNotice(ctx context.Context, result *Result, err error) bool {
	var notice *clerrors.EmptyResultNotice
	if !stderrors.As(err, &notice) {
		return false
	}
	result.Notices = append(result.Notices, notice)
	p.logger.WithContext(ctx).WithFields(map[string]any{
		"product":        notice.Product,
		"classification": notice.Classification,
	}).Info(notice.Error())
	return true
}

// partition classifies the organization duplicates per product under every
// policy. Complete-coverage clusters feed the three-role policies and
// two-role clusters feed 2/2.
func (p *Pipeline) partition(ctx context.Context, members []*models.Member, assignments []models.RoleAssignment, opts Options, result *Result, warnings *clerrors.Warnings) error {
	ctx, span := tracing.StartSpan(ctx, "pipeline.Pipeline.partition")
	defer span.End()
	defer p.timed("roles")()

	products := opts.Products
	if len(products) == 0 {
		products = p.products(assignments)
	}

	for _, product := range products {
		typeID, ok := p.tables.Products.IDOf(product)
		if !ok {
			return fmt.Errorf("%w: '%s'", ErrUnknownProduct, product)
		}

		attached, w, err := p.attacher.AttachRoles(ctx, members, assignments, typeID)
		if err != nil {
			return fmt.Errorf("failed to attach roles for product '%s': %w", product, err)
		}
		warnings.Add(w...)

		complete := roles.KeepCompleteRoleCoverage(attached)
		two := roles.KeepTwoRoleCoverage(attached)

		buckets := make(map[string][]*models.PartitionRow)
		for _, policy := range opts.Policies {
			input := complete
			if policy.RolesPerProduct == 2 {
				input = two
			}
			classified, err := roles.Partition(product, input, policy)
			if err != nil {
				if p.addNotice(ctx, result, err) {
					continue
				}
				return err
			}
			for _, b := range classified {
				buckets[b.Name] = finalizeRows(b.Rows)
			}
		}
		result.Partitions[product] = buckets
	}
	return nil
}

func (p *Pipeline) filterOrganizations(members []*models.Member, opts Options) []*models.Member {
	defer p.timed("filter_organizations")()

	kept := cloneMembers(filters.ExcludeOrganizations(members, opts.Organizations))
	for _, m := range kept {
		m.Record = filters.KeepPersonRelations(m.Record)
	}
	master.Select(kept)
	return finalize(kept)
}

func (p *Pipeline) filterIndividuals(members []*models.Member, orgs []*models.Record, opts Options, warnings *clerrors.Warnings) ([]*models.Member, map[string][]*models.Member) {
	defer p.timed("filter_individuals")()

	kept := filters.ExcludeIndividuals(members, opts.Individuals)
	same, w := filters.SameOrganisation(kept, orgs)
	warnings.Add(w...)
	master.Select(same)
	all := finalize(same)

	buckets := make(map[string][]*models.Member)
	for name, bucket := range filters.SplitByAdministrators(all) {
		buckets[name] = finalize(cloneMembers(bucket))
	}
	return all, buckets
}

func (p *Pipeline) supplements(orgs, inds []*models.Record, orgDuplicates []*models.Member, opts Options, result *Result) {
	defer p.timed("supplements")()

	add := func(name string, members []*models.Member) {
		if len(members) == 0 {
			result.Notices = append(result.Notices, clerrors.NewEmptyResultNotice("", name))
			return
		}
		scoreAndSelect(members, opts)
		result.Supplements[name] = finalize(members)
	}

	add(SupplementNameAddressAbbreviated, filters.NameAddressDuplicates(inds, true))
	add(SupplementPortalVsPhysisch, filters.PortalVsPhysisch(inds, opts.StrictEmail))
	add(SupplementPortalVsPhysischOrgs, filters.PortalVsPhysisch(orgs, opts.StrictEmail))
	add(SupplementEmailPortal, filters.EmailDuplicates(inds, true))
	add(SupplementEmailPhysisch, filters.EmailDuplicates(inds, false))

	fda, err := filters.FDAServiceRole(cloneMembers(orgDuplicates))
	var notice *clerrors.EmptyResultNotice
	if stderrors.As(err, &notice) {
		result.Notices = append(result.Notices, notice)
		return
	}
	master.Select(fda)
	result.Supplements[SupplementFDAServiceRole] = finalize(fda)
}

func (p *Pipeline) statistics(assignments []models.RoleAssignment, result *Result) {
	defer p.timed("statistics")()

	rows := make(map[string][]*models.PartitionRow, len(result.Partitions))
	for product, buckets := range result.Partitions {
		rows[product] = make([]*models.PartitionRow, 0)
		for _, bucket := range buckets {
			rows[product] = append(rows[product], bucket...)
		}
	}
	result.Statistics = statistics.Compute(assignments, p.tables.Products.Lookup, p.tables.ProductCategories.Lookup, statistics.DuplicateCounts(rows))
}
