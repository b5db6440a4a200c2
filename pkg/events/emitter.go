// Package events announces resolved clusters and finished runs on Kafka
package events

import (
	"context"
	"encoding/json"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/kafka"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Event types
const (
	EventClusterResolved = "cluster.resolved"
	EventRunCompleted    = "run.completed"
)

// Publisher is satisfied by *kafka.Producer
type Publisher interface {
	Publish(ctx context.Context, events ...*kafka.Event) error
}

// Emitter handles event emission for Clover
type Emitter struct {
	producer Publisher
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(producer Publisher, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

// ClusterResolved is the payload of a cluster.resolved event
type ClusterResolved struct {
	ClusterID  string   `json:"cluster_id"`
	EntityType string   `json:"entity_type"`
	Master     string   `json:"master"`
	Duplicates []string `json:"duplicates"`
}

func clusterPayloads(members []*models.Member) []ClusterResolved {
	order, groups := models.GroupByCluster(members)
	out := make([]ClusterResolved, 0, len(order))
	for _, id := range order {
		payload := ClusterResolved{ClusterID: id.String(), Duplicates: []string{}}
		for _, m := range groups[id] {
			payload.EntityType = string(m.Record.EntityType)
			if m.Master {
				payload.Master = m.Record.ReferenceID
				continue
			}
			payload.Duplicates = append(payload.Duplicates, m.Record.ReferenceID)
		}
		out = append(out, payload)
	}
	return out
}

// EmitClusterResolved emits one cluster.resolved event per cluster of members
func (e *Emitter) EmitClusterResolved(ctx context.Context, runID string, members []*models.Member) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitClusterResolved")
	defer span.End()

	payloads := clusterPayloads(members)
	batch := make([]*kafka.Event, 0, len(payloads))
	for _, p := range payloads {
		data, err := json.Marshal(p)
		if err != nil {
			return err
		}
		batch = append(batch, &kafka.Event{EventType: EventClusterResolved, RunID: runID, Data: data})
	}

	if err := e.producer.Publish(ctx, batch...); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit cluster.resolved events")
		return err
	}

	return nil
}

// EmitRunCompleted emits the run summary
func (e *Emitter) EmitRunCompleted(ctx context.Context, summary models.RunSummary) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitRunCompleted")
	defer span.End()

	data, err := json.Marshal(summary)
	if err != nil {
		return err
	}

	event := &kafka.Event{EventType: EventRunCompleted, RunID: summary.RunID, Data: data}
	if err := e.producer.Publish(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit run.completed event")
		return err
	}

	return nil
}
