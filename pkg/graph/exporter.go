package graph

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Node labels and relationship types of an exported run
const (
	LabelRecord      = "Record"
	LabelProductNode = "ProductNode"
	LabelCluster     = "Cluster"
	RelMatch         = "MATCHES"
	RelMemberOf      = "MEMBER_OF"
)

// Exporter writes one run's records, merged edges and clusters. Nodes are
// scoped by run id so several runs can be compared side by side.
type Exporter struct {
	client    *Client
	logger    ectologger.Logger
	batchSize int
}

// NewExporter creates a new Exporter writing at most batchSize rows per statement
func NewExporter(client *Client, logger ectologger.Logger, batchSize int) *Exporter {
	if batchSize < 1 {
		batchSize = 500
	}
	return &Exporter{client: client, logger: logger, batchSize: batchSize}
}

// recordRows returns node properties for every record plus one row per
// edge endpoint that is not a record (the synthetic product nodes).
func recordRows(runID string, records []*models.Record, edges []models.Edge) (nodes []map[string]any, products []map[string]any) {
	known := make(map[string]struct{}, len(records))
	for _, r := range records {
		known[r.ReferenceID] = struct{}{}
		nodes = append(nodes, map[string]any{
			"id":          r.ReferenceID,
			"run_id":      runID,
			"entity_type": string(r.EntityType),
			"name":        r.Name,
			"address":     r.Address,
			"email":       r.Email,
			"phone":       r.Phone,
			"delivery":    string(r.Delivery),
		})
	}

	seen := make(map[string]struct{})
	for _, e := range edges {
		for _, n := range []string{e.Source, e.Target} {
			if _, ok := known[n]; ok {
				continue
			}
			if _, ok := seen[n]; ok {
				continue
			}
			seen[n] = struct{}{}
			products = append(products, map[string]any{"id": n, "run_id": runID})
		}
	}
	return nodes, products
}

func edgeRows(edges []models.Edge) []map[string]any {
	out := make([]map[string]any, len(edges))
	for i, e := range edges {
		out[i] = map[string]any{
			"source":        e.Source,
			"target":        e.Target,
			"kind":          string(e.Kind),
			"bidirectional": e.Bidirectional,
		}
	}
	return out
}

func clusterRows(runID string, clusters []models.Cluster) []map[string]any {
	out := make([]map[string]any, len(clusters))
	for i, c := range clusters {
		out[i] = map[string]any{
			"id":           c.ID.String(),
			"run_id":       runID,
			"size":         c.Size,
			"central_node": c.CentralNode,
			"nodes":        c.Nodes,
		}
	}
	return out
}

func chunks(rows []map[string]any, size int) [][]map[string]any {
	out := make([][]map[string]any, 0, len(rows)/size+1)
	for start := 0; start < len(rows); start += size {
		end := start + size
		if end > len(rows) {
			end = len(rows)
		}
		out = append(out, rows[start:end])
	}
	return out
}

// Export replaces the stored graph of runID
func (e *Exporter) Export(ctx context.Context, runID string, records []*models.Record, edges []models.Edge, clusters []models.Cluster) error {
	ctx, span := tracing.StartSpan(ctx, "graph.Exporter.Export")
	defer span.End()

	log := e.logger.WithContext(ctx).WithFields(map[string]any{
		"run_id":   runID,
		"records":  len(records),
		"edges":    len(edges),
		"clusters": len(clusters),
	})

	nodes, products := recordRows(runID, records, edges)

	statements := []struct {
		cypher string
		rows   []map[string]any
	}{
		{fmt.Sprintf(`
			UNWIND $batch AS props
			MERGE (n:%s {id: props.id, run_id: props.run_id})
			SET n = props
		`, LabelRecord), nodes},
		{fmt.Sprintf(`
			UNWIND $batch AS props
			MERGE (n:%s {id: props.id, run_id: props.run_id})
		`, LabelProductNode), products},
		{fmt.Sprintf(`
			UNWIND $batch AS data
			MATCH (a {id: data.source, run_id: $run_id})
			MATCH (b {id: data.target, run_id: $run_id})
			MERGE (a)-[r:%s {kind: data.kind}]->(b)
			SET r.bidirectional = data.bidirectional
		`, RelMatch), edgeRows(edges)},
		{fmt.Sprintf(`
			UNWIND $batch AS props
			MERGE (c:%s {id: props.id, run_id: props.run_id})
			SET c.size = props.size, c.central_node = props.central_node
			WITH c, props
			UNWIND props.nodes AS node
			MATCH (n {id: node, run_id: props.run_id})
			MERGE (n)-[:%s]->(c)
		`, LabelCluster, RelMemberOf), clusterRows(runID, clusters)},
	}

	err := e.client.write(ctx, func(ctx context.Context, tx neo4j.ManagedTransaction) error {
		if _, err := tx.Run(ctx, `MATCH (n {run_id: $run_id}) DETACH DELETE n`, map[string]any{"run_id": runID}); err != nil {
			return err
		}
		for _, stmt := range statements {
			for _, batch := range chunks(stmt.rows, e.batchSize) {
				if _, err := tx.Run(ctx, stmt.cypher, map[string]any{"batch": batch, "run_id": runID}); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		log.WithError(err).Error("Failed to export match graph")
		return fmt.Errorf("failed to export match graph: %w", err)
	}

	log.Info("Exported match graph")
	return nil
}

// ClusterOf returns the member ids of the cluster containing referenceID in runID
func (e *Exporter) ClusterOf(ctx context.Context, runID, referenceID string) ([]string, error) {
	ctx, span := tracing.StartSpan(ctx, "graph.Exporter.ClusterOf")
	defer span.End()

	cypher := fmt.Sprintf(`
		MATCH (:%s {id: $id, run_id: $run_id})-[:%s]->(c:%s)<-[:%s]-(m:%s)
		RETURN m.id AS id ORDER BY id
	`, LabelRecord, RelMemberOf, LabelCluster, RelMemberOf, LabelRecord)

	ids, err := e.client.readStrings(ctx, cypher, map[string]any{"id": referenceID, "run_id": runID}, "id")
	if err != nil {
		return nil, fmt.Errorf("failed to read cluster from graph: %w", err)
	}
	return ids, nil
}
