package main

import (
	"context"

	"github.com/Ramsey-B/clover/internal/repositories/runsnapshot"
	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/events"
	"github.com/Ramsey-B/clover/pkg/graph"
	"github.com/Ramsey-B/clover/pkg/kafka"
	"github.com/Ramsey-B/clover/pkg/lookup"
	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/pipeline"
	"github.com/Ramsey-B/clover/pkg/redis"
	"github.com/Ramsey-B/clover/pkg/startup"
)

const runLockPrefix = "lock:"

// services holds the optional backends. A backend without configured host
// stays nil and its pipeline sink is skipped.
type services struct {
	startup  *startup.Startup
	db       *database.DatabaseInstance
	graph    *graph.Client
	producer *kafka.Producer
	redis    *redis.Client
}

func (a *app) connect(ctx context.Context) (*services, error) {
	s := &services{startup: startup.NewStartup(a.logger, a.cfg.StartupMaxAttempts)}

	if a.cfg.DatabaseHost != "" {
		s.startup.AddDependency(&startup.Dependency{
			Name: "database",
			StartFunc: func(ctx context.Context) error {
				db, err := database.Connect(ctx, a.cfg.Database(), a.logger)
				if err != nil {
					return err
				}
				s.db = db
				return nil
			},
			StopFunc: func(context.Context) error { return s.db.Close() },
		})
		s.startup.AddDependency(&startup.Dependency{
			Name:     "migrations",
			Requires: []string{"database"},
			StartFunc: func(context.Context) error {
				return database.NewMigrationService(a.logger, a.cfg.Migration()).MigratePostgres(s.db.DB.DB, a.cfg.DatabaseName)
			},
		})
	}

	if a.cfg.GraphDBHost != "" {
		s.startup.AddDependency(&startup.Dependency{
			Name: "graph",
			StartFunc: func(ctx context.Context) error {
				client, err := graph.NewClient(ctx, a.cfg.Graph(), a.logger)
				if err != nil {
					return err
				}
				s.graph = client
				return nil
			},
			StopFunc: func(ctx context.Context) error { return s.graph.Close(ctx) },
		})
	}

	if len(a.cfg.KafkaBrokers) > 0 {
		s.startup.AddDependency(&startup.Dependency{
			Name: "kafka",
			StartFunc: func(context.Context) error {
				s.producer = kafka.NewProducer(a.cfg.Kafka(), a.logger)
				return nil
			},
			StopFunc: func(context.Context) error { return s.producer.Close() },
		})
	}

	if a.cfg.RedisHost != "" {
		s.startup.AddDependency(&startup.Dependency{
			Name: "redis",
			StartFunc: func(ctx context.Context) error {
				client, err := redis.NewClient(ctx, a.cfg.Redis(), a.logger)
				if err != nil {
					return err
				}
				s.redis = client
				return nil
			},
			StopFunc: func(context.Context) error { return s.redis.Close() },
		})
	}

	if err := s.startup.Start(ctx); err != nil {
		_ = s.startup.Stop(context.WithoutCancel(ctx))
		return nil, err
	}
	return s, nil
}

func (s *services) close(ctx context.Context) error {
	return s.startup.Stop(ctx)
}

func (a *app) newPipeline(s *services) (*pipeline.Pipeline, error) {
	tables, err := lookup.Load(a.cfg.LookupPath)
	if err != nil {
		return nil, err
	}

	opts := []pipeline.Option{pipeline.WithRecorder(metrics.NewRecorder())}
	if s.db != nil {
		opts = append(opts, pipeline.WithSnapshotStore(runsnapshot.NewRepository(s.db, a.logger)))
	}
	if s.graph != nil {
		opts = append(opts, pipeline.WithGraphExporter(graph.NewExporter(s.graph, a.logger, a.cfg.GraphDBBatchSize)))
	}
	if s.producer != nil {
		opts = append(opts, pipeline.WithEventEmitter(events.NewEmitter(s.producer, a.logger)))
	}
	if s.redis != nil {
		opts = append(opts, pipeline.WithLocker(redis.NewLocker(s.redis, runLockPrefix, a.cfg.RunLockTTL)))
	}

	return pipeline.New(a.logger, tables, a.cfg.RoleWorkerCount, opts...), nil
}
