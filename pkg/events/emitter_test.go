package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/kafka"
	"github.com/Ramsey-B/clover/pkg/models"
)

type fakePublisher struct {
	events []*kafka.Event
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, events ...*kafka.Event) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, events...)
	return nil
}

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func member(id string, cluster int, master bool) *models.Member {
	return &models.Member{
		Record:    &models.Record{ReferenceID: id, EntityType: models.EntityTypeOrganization},
		ClusterID: models.NewClusterID(cluster),
		Master:    master,
	}
}

func TestEmitter_EmitClusterResolved(t *testing.T) {
	pub := &fakePublisher{}
	emitter := NewEmitter(pub, testLogger())

	err := emitter.EmitClusterResolved(context.Background(), "run-1", []*models.Member{
		member("a", 1, false), member("b", 1, true), member("c", 2, true), member("d", 2, false),
	})

	require.NoError(t, err)
	require.Len(t, pub.events, 2)
	assert.Equal(t, EventClusterResolved, pub.events[0].EventType)
	assert.Equal(t, "run-1", pub.events[0].RunID)

	var payload ClusterResolved
	require.NoError(t, json.Unmarshal(pub.events[0].Data, &payload))
	assert.Equal(t, ClusterResolved{ClusterID: "1", EntityType: "Organisation", Master: "b", Duplicates: []string{"a"}}, payload)
}

func TestEmitter_EmitRunCompleted(t *testing.T) {
	t.Run("publishes summary", func(t *testing.T) {
		pub := &fakePublisher{}
		err := NewEmitter(pub, testLogger()).EmitRunCompleted(context.Background(), models.RunSummary{RunID: "run-1", Status: models.RunStatusCompleted})

		require.NoError(t, err)
		require.Len(t, pub.events, 1)
		assert.Equal(t, EventRunCompleted, pub.events[0].EventType)
		assert.Contains(t, string(pub.events[0].Data), `"run-1"`)
	})

	t.Run("returns publish error", func(t *testing.T) {
		pub := &fakePublisher{err: errors.New("broker down")}
		err := NewEmitter(pub, testLogger()).EmitRunCompleted(context.Background(), models.RunSummary{RunID: "run-1"})
		assert.EqualError(t, err, "broker down")
	})
}
