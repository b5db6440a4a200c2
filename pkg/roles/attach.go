// Package roles classifies duplicate clusters by how the product roles
// (owner, billing recipient, correspondence recipient) of one product type
// are distributed over their members.
package roles

import (
	"context"

	"github.com/Gobusters/ectologger"
	"golang.org/x/sync/errgroup"

	clerrors "github.com/Ramsey-B/clover/pkg/errors"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// index maps a holder reference id to the role rows it holds, per role
type index map[string]map[models.Role][]models.RoleAssignment

// newIndex indexes the assignments of productTypeID. Assignments mixing
// organizations and individuals are left out and reported.
func newIndex(assignments []models.RoleAssignment, productTypeID string) (index, []clerrors.DataQualityWarning) {
	var warnings []clerrors.DataQualityWarning
	idx := make(index)
	for _, a := range assignments {
		if a.ProductTypeID != productTypeID {
			continue
		}
		if !a.OrganisationHeld() {
			warnings = append(warnings, clerrors.NewDataQualityWarning(
				clerrors.WarningMixedEntityTypes, a.Owner,
				"%s %s has role holders that are not organizations and is skipped", productTypeID, a.ProductObject))
			continue
		}
		for _, role := range models.Roles {
			holder := a.Holder(role)
			if holder == "" {
				continue
			}
			if idx[holder] == nil {
				idx[holder] = make(map[models.Role][]models.RoleAssignment)
			}
			idx[holder][role] = append(idx[holder][role], a)
		}
	}
	return idx, warnings
}

// holdings returns the objects m holds per role and reports holders whose
// entity type label disagrees with the record.
func (idx index) holdings(m *models.Member) (models.RoleHoldings, []clerrors.DataQualityWarning) {
	var warnings []clerrors.DataQualityWarning
	h := models.NewRoleHoldings()
	for _, role := range models.Roles {
		for _, a := range idx[m.Record.ReferenceID][role] {
			h.Objects[role] = append(h.Objects[role], a.ProductObject)
			h.ProductIDs[role] = append(h.ProductIDs[role], a.ProductID)

			if t := a.HolderType(role); t != "" && t != m.Record.EntityType {
				warnings = append(warnings, clerrors.NewDataQualityWarning(
					clerrors.WarningMixedEntityTypes, m.Record.ReferenceID,
					"%s of %s is labelled %s but the record is %s", role, a.ProductObject, t, m.Record.EntityType))
			}
		}
	}
	return h, warnings
}

// Attacher joins cluster members against the role table
type Attacher struct {
	logger  ectologger.Logger
	workers int
}

// NewAttacher creates an Attacher running at most workers cluster groups at once
func NewAttacher(logger ectologger.Logger, workers int) *Attacher {
	if workers < 1 {
		workers = 1
	}
	return &Attacher{logger: logger, workers: workers}
}

type groupResult struct {
	members  []*models.RoleMember
	warnings []clerrors.DataQualityWarning
}

// AttachRoles annotates every member with the objects it holds per role for
// productTypeID. Cluster groups are processed concurrently against a shared,
// read-only index and concatenated in cluster order. The first failing
// group cancels the batch.
func (a *Attacher) AttachRoles(ctx context.Context, members []*models.Member, assignments []models.RoleAssignment, productTypeID string) ([]*models.RoleMember, []clerrors.DataQualityWarning, error) {
	ctx, span := tracing.StartSpan(ctx, "roles.Attacher.AttachRoles")
	defer span.End()

	idx, skipped := newIndex(assignments, productTypeID)
	order, groups := models.GroupByCluster(members)
	results := make([]groupResult, len(order))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)

	for i, id := range order {
		group := groups[id]
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			res := groupResult{members: make([]*models.RoleMember, 0, len(group))}
			for _, m := range group {
				h, warnings := idx.holdings(m)
				res.members = append(res.members, &models.RoleMember{Member: m, Holdings: h})
				res.warnings = append(res.warnings, warnings...)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		a.logger.WithContext(ctx).WithError(err).Errorf("Failed to attach roles for product type %s", productTypeID)
		return nil, nil, err
	}

	out := make([]*models.RoleMember, 0, len(members))
	warnings := skipped
	for _, res := range results {
		out = append(out, res.members...)
		warnings = append(warnings, res.warnings...)
	}

	a.logger.WithContext(ctx).WithFields(map[string]any{
		"product_type": productTypeID,
		"clusters":     len(order),
		"members":      len(out),
		"holders":      len(idx),
		"warnings":     len(warnings),
	}).Debug("Attached roles")

	return out, warnings, nil
}
