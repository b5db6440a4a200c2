// Package pipeline runs one full resolution: extraction, enrichment, match
// graph, duplicate clusters, scoring and master selection, role
// partitioning, exclusion, supplementary analyses and statistics.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/Ramsey-B/clover/pkg/cluster"
	clcontext "github.com/Ramsey-B/clover/pkg/context"
	"github.com/Ramsey-B/clover/pkg/enrich"
	clerrors "github.com/Ramsey-B/clover/pkg/errors"
	"github.com/Ramsey-B/clover/pkg/extractor"
	"github.com/Ramsey-B/clover/pkg/fingerprint"
	"github.com/Ramsey-B/clover/pkg/lookup"
	"github.com/Ramsey-B/clover/pkg/matchgraph"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/roles"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// LockKey guards concurrent runs against one snapshot store
const LockKey = "clover:run"

// Pipeline wires the resolution stages
type Pipeline struct {
	logger    ectologger.Logger
	tables    *lookup.Tables
	extractor *extractor.Extractor
	builder   *matchgraph.Builder
	engine    *cluster.Engine
	attacher  *roles.Attacher

	snapshots SnapshotStore
	graph     GraphExporter
	events    EventEmitter
	recorder  Recorder
	locker    Locker
}

// New creates a Pipeline resolving names through tables. Role attachment
// runs on at most workers goroutines.
func New(logger ectologger.Logger, tables *lookup.Tables, workers int, opts ...Option) *Pipeline {
	if tables == nil {
		tables, _ = lookup.Parse(nil)
	}
	p := &Pipeline{
		logger:    logger,
		tables:    tables,
		extractor: extractor.New(logger),
		builder:   matchgraph.NewBuilder(logger, tables.Products.Lookup),
		engine:    cluster.NewEngine(logger),
		attacher:  roles.NewAttacher(logger, workers),
		recorder:  nopRecorder{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes the pipeline over in. Data quality problems are collected
// into the result; only invalid options, schema problems, cancellation and
// a failed snapshot write abort the run.
func (p *Pipeline) Run(ctx context.Context, in Input, opts Options) (result *Result, err error) {
	ctx, span := tracing.StartSpan(ctx, "pipeline.Pipeline.Run")
	defer span.End()

	if err := opts.Validate(); err != nil {
		return nil, err
	}

	if p.locker != nil {
		unlock, err := p.locker.Lock(ctx, LockKey)
		if err != nil {
			return nil, err
		}
		defer func() {
			if unlockErr := unlock(context.WithoutCancel(ctx)); unlockErr != nil {
				p.logger.WithContext(ctx).WithError(unlockErr).Warn("Failed to release run lock")
			}
		}()
	}

	start := time.Now()
	defer func() {
		status := models.RunStatusCompleted
		if err != nil {
			status = models.RunStatusFailed
		}
		p.recorder.ObserveRun(status, time.Since(start))
	}()

	fp, err := fingerprint.FromValue(in)
	if err != nil {
		return nil, fmt.Errorf("failed to fingerprint input: %w", err)
	}

	result = &Result{
		RunID:             uuid.NewString(),
		Fingerprint:       fp,
		StartedAt:         start.UTC(),
		IndividualBuckets: make(map[string][]*models.Member),
		Partitions:        make(map[string]map[string][]*models.PartitionRow),
		Supplements:       make(map[string][]*models.Member),
	}
	ctx = clcontext.WithRunID(ctx, result.RunID)
	log := p.logger.WithContext(ctx).WithFields(clcontext.From(ctx).Fields()).WithField("fingerprint", fp)
	log.Info("Starting resolution run")

	warnings := &clerrors.Warnings{}

	orgs, inds := p.extract(ctx, in, opts, warnings)
	p.enrich(in, orgs, inds)
	result.Records = append(append(make([]*models.Record, 0, len(orgs)+len(inds)), orgs...), inds...)
	result.Graph = p.buildGraph(ctx, orgs, inds, in.Assignments)

	orgDuplicates, indDuplicates := p.duplicates(orgs, inds, opts)

	if err := p.partition(ctx, orgDuplicates, in.Assignments, opts, result, warnings); err != nil {
		return nil, err
	}

	result.Organizations = p.filterOrganizations(orgDuplicates, opts)
	result.Individuals, result.IndividualBuckets = p.filterIndividuals(indDuplicates, orgs, opts, warnings)
	p.supplements(orgs, inds, orgDuplicates, opts, result)
	p.statistics(in.Assignments, result)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result.Warnings = warnings.Items()
	result.FinishedAt = time.Now().UTC()

	for kind, n := range warnings.CountByKind() {
		p.recorder.AddWarnings(string(kind), n)
	}
	p.recorder.SetClusters(string(models.EntityTypeOrganization), countClusters(result.Organizations))
	p.recorder.SetClusters(string(models.EntityTypeIndividual), countClusters(result.Individuals))

	if err := p.publish(ctx, result); err != nil {
		return nil, err
	}

	log.WithFields(map[string]any{
		"records":                 len(result.Records),
		"clusters":                len(result.Graph.Clusters),
		"organization_duplicates": countClusters(result.Organizations),
		"individual_duplicates":   countClusters(result.Individuals),
		"warnings":                len(result.Warnings),
		"notices":                 len(result.Notices),
		"elapsed":                 time.Since(start).String(),
	}).Info("Finished resolution run")

	return result, nil
}

func (p *Pipeline) timed(stage string) func() {
	start := time.Now()
	return func() { p.recorder.ObserveStage(stage, time.Since(start)) }
}

func (p *Pipeline) extract(ctx context.Context, in Input, opts Options, warnings *clerrors.Warnings) ([]*models.Record, []*models.Record) {
	defer p.timed("extract")()

	eopts := extractor.Options{DropOtherRelations: opts.DropOtherRelations}
	orgs, w := p.extractor.Extract(ctx, in.Organizations, eopts)
	warnings.Add(w...)
	inds, w := p.extractor.Extract(ctx, in.Individuals, eopts)
	warnings.Add(w...)
	return orgs, inds
}

func (p *Pipeline) enrich(in Input, orgs, inds []*models.Record) {
	defer p.timed("enrich")()

	enrich.ServiceRoles(orgs, in.OrganizationServiceRoles, p.tables.ServiceRoles.Lookup)
	enrich.ServiceRoles(inds, in.IndividualServiceRoles, p.tables.ServiceRoles.Lookup)
	enrich.ProductCounts(orgs, in.Assignments)
	enrich.PersonProductRoles(inds, in.PersonRoles, p.tables.PersonProducts.Lookup)
	enrich.OrganisationProductRoles(inds, in.Assignments, p.tables.Products.Lookup)
	enrich.BusinessPartners(orgs, in.Partners)
	enrich.BusinessPartners(inds, in.Partners)
}

func (p *Pipeline) buildGraph(ctx context.Context, orgs, inds []*models.Record, assignments []models.RoleAssignment) Graph {
	defer p.timed("graph")()

	g := p.builder.Build(ctx, matchgraph.Input{Organizations: orgs, Individuals: inds, Assignments: assignments})
	merged, clusters, _ := p.engine.Resolve(ctx, g.Edges, g.Special, cluster.Options{})

	special := make([]string, 0, len(g.Special))
	for n := range g.Special {
		special = append(special, n)
	}
	sort.Strings(special)

	return Graph{Edges: merged, Clusters: clusters, Special: special}
}

// duplicateMembers clusters the records of one table over edges carrying
// both name and address equality.
func duplicateMembers(records []*models.Record) []*models.Member {
	byID := make(map[string]*models.Record, len(records))
	for _, r := range records {
		byID[r.ReferenceID] = r
	}

	merged := cluster.MergeEdges(matchgraph.EdgesFromFields(records))
	edges := cluster.WithKinds(merged, models.MatchName, models.MatchAddress)
	clusters := cluster.FindClusters(edges, nil, cluster.Options{SkipSingular: true})

	out := make([]*models.Member, 0)
	for _, c := range clusters {
		for _, n := range c.Nodes {
			out = append(out, &models.Member{Record: byID[n], ClusterID: c.ID})
		}
	}
	return out
}

func (p *Pipeline) duplicates(orgs, inds []*models.Record, opts Options) ([]*models.Member, []*models.Member) {
	defer p.timed("duplicates")()

	orgDuplicates := duplicateMembers(orgs)
	indDuplicates := duplicateMembers(inds)
	scoreAndSelect(orgDuplicates, opts)
	scoreAndSelect(indDuplicates, opts)
	return orgDuplicates, indDuplicates
}

func (p *Pipeline) publish(ctx context.Context, result *Result) error {
	defer p.timed("publish")()
	log := p.logger.WithContext(ctx).WithField("run_id", result.RunID)

	if p.graph != nil {
		if err := p.graph.Export(ctx, result.RunID, result.Records, result.Graph.Edges, result.Graph.Clusters); err != nil {
			log.WithError(err).Warn("Failed to export match graph")
		}
	}

	if p.snapshots != nil {
		if err := p.snapshots.Save(ctx, result); err != nil {
			return fmt.Errorf("failed to save run snapshot: %w", err)
		}
	}

	if p.events != nil {
		for _, members := range [][]*models.Member{result.Organizations, result.Individuals} {
			order, groups := models.GroupByCluster(members)
			for _, id := range order {
				if err := p.events.EmitClusterResolved(ctx, result.RunID, groups[id]); err != nil {
					log.WithError(err).WithField("cluster_id", id.String()).Warn("Failed to emit cluster.resolved")
				}
			}
		}
		if err := p.events.EmitRunCompleted(ctx, result.Summary()); err != nil {
			log.WithError(err).Warn("Failed to emit run.completed")
		}
	}
	return nil
}
