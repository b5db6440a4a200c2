package pipeline

import (
	"context"
	"time"

	"github.com/Ramsey-B/clover/pkg/models"
)

// SnapshotStore persists finished runs
type SnapshotStore interface {
	Save(ctx context.Context, result *Result) error
}

// GraphExporter writes the match graph of a run for inspection
type GraphExporter interface {
	Export(ctx context.Context, runID string, records []*models.Record, edges []models.Edge, clusters []models.Cluster) error
}

// EventEmitter announces resolved clusters and finished runs
type EventEmitter interface {
	EmitClusterResolved(ctx context.Context, runID string, members []*models.Member) error
	EmitRunCompleted(ctx context.Context, summary models.RunSummary) error
}

// Recorder receives run metrics
type Recorder interface {
	ObserveStage(stage string, d time.Duration)
	ObserveRun(status string, d time.Duration)
	SetClusters(entity string, n int)
	AddWarnings(kind string, n int)
}

// Locker serializes runs across processes. Lock returns the release func.
type Locker interface {
	Lock(ctx context.Context, key string) (func(context.Context) error, error)
}

type nopRecorder struct{}

func (nopRecorder) ObserveStage(string, time.Duration) {}
func (nopRecorder) ObserveRun(string, time.Duration)   {}
func (nopRecorder) SetClusters(string, int)            {}
func (nopRecorder) AddWarnings(string, int)            {}

// Option configures a Pipeline
type Option func(*Pipeline)

func WithSnapshotStore(s SnapshotStore) Option {
	return func(p *Pipeline) { p.snapshots = s }
}

func WithGraphExporter(g GraphExporter) Option {
	return func(p *Pipeline) { p.graph = g }
}

func WithEventEmitter(e EventEmitter) Option {
	return func(p *Pipeline) { p.events = e }
}

func WithRecorder(r Recorder) Option {
	return func(p *Pipeline) { p.recorder = r }
}

func WithLocker(l Locker) Option {
	return func(p *Pipeline) { p.locker = l }
}
